/*
Package domimage converts a live DOM subtree into a faithful static
image without a server-side rendering engine.

The conversion pipeline clones the target subtree, resolves and inlines
every visually relevant computed style onto each clone (a clone detached
from its document loses all inherited and cascaded styling), embeds
external resources as data URLs, serializes the result into a
self-contained SVG document with a foreignObject region, and rasterizes
that document into a drawing surface. The public entry points — SVG
string, PNG/JPEG bytes, binary object, raw pixel buffer, drawing
surface — are thin projections of that one pipeline.

Every conversion call owns its resource cache and style cache
exclusively; concurrent calls never share state. A conversion either
completes as a whole or fails as a whole: no partially-rendered image is
ever returned as a success.

The contract is "visually equivalent to the source node under normal
rendering", not pixel-perfect parity with any particular browser.

___________________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package domimage

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer will return a tracer. We are tracing to 'domimage.api'
func tracer() tracing.Trace {
	return tracing.Select("domimage.api")
}
