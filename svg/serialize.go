/*
Package svg serializes finished clone trees into self-contained SVG
markup.

The clone tree is embedded as XHTML inside a foreignObject wrapper of an
SVG root sized to the target viewport. Output is deterministic: style
snapshots serialize in sorted property order and no unstable state enters
the markup, so identical inputs produce byte-identical documents.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package svg

import (
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/daveytran/dom-to-image-more/clone"
	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/net/html"
)

// tracer will return a tracer. We are tracing to 'domimage.svg'
func tracer() tracing.Trace {
	return tracing.Select("domimage.svg")
}

// ErrSerialize marks a clone tree that cannot be expressed as
// well-formed markup. This is an internal invariant violation and always
// fails the conversion.
var ErrSerialize = errors.New("svg: clone tree does not serialize to well-formed markup")

// Params control serialization of one clone tree.
type Params struct {
	Width      float64 // 0 derives the width from the clone root's styles
	Height     float64 // 0 derives the height likewise
	Background string  // solid backdrop fill beneath the foreign content
	FontCSS    string  // @font-face blocks carried into the snapshot
}

// Fallback dimensions when neither an override nor a root style pins
// the viewport down (the replaced-element default box).
const (
	FallbackWidth  = 300.0
	FallbackHeight = 150.0
)

// Extent determines the target viewport: explicit override first, then
// the clone root's own measured box, then the fallback.
func Extent(root *clone.Node, p Params) (float64, float64) {
	w, h := p.Width, p.Height
	if w <= 0 {
		if v, ok := root.Styles().Property("width"); ok {
			if px, ok := v.Pixels(); ok && px > 0 {
				w = px
			}
		}
	}
	if h <= 0 {
		if v, ok := root.Styles().Property("height"); ok {
			if px, ok := v.Pixels(); ok && px > 0 {
				h = px
			}
		}
	}
	if w <= 0 {
		w = FallbackWidth
	}
	if h <= 0 {
		h = FallbackHeight
	}
	return w, h
}

// Serialize wraps the clone tree in a namespaced foreignObject region
// inside an SVG root at the target dimensions. The result is standalone
// markup, directly consumable as a data URL by an image decoder.
func Serialize(root *clone.Node, p Params) (string, error) {
	if root == nil {
		return "", fmt.Errorf("%w: nil root", ErrSerialize)
	}
	w, h := Extent(root, p)
	var b strings.Builder
	b.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" width="`)
	b.WriteString(num(w))
	b.WriteString(`" height="`)
	b.WriteString(num(h))
	b.WriteString(`">`)
	if p.Background != "" {
		b.WriteString(`<rect width="100%" height="100%" fill="`)
		b.WriteString(html.EscapeString(p.Background))
		b.WriteString(`"/>`)
	}
	if p.FontCSS != "" {
		b.WriteString(`<defs><style type="text/css">`)
		b.WriteString(html.EscapeString(p.FontCSS))
		b.WriteString(`</style></defs>`)
	}
	b.WriteString(`<foreignObject x="0" y="0" width="100%" height="100%">`)
	if err := writeNode(&b, root, true); err != nil {
		return "", err
	}
	b.WriteString(`</foreignObject></svg>`)
	tracer().Debugf("svg: serialized %dx%d snapshot, %d bytes", int(w), int(h), b.Len())
	return b.String(), nil
}

// AsDataURL wraps serialized markup as a self-contained data URL.
func AsDataURL(markup string) string {
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(markup))
}

var tagNamePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9-]*$`)
var attrNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_:.-]*$`)

// elements serialized without a closing tag
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

func writeNode(b *strings.Builder, cl *clone.Node, isRoot bool) error {
	if !cl.IsElement() {
		b.WriteString(html.EscapeString(cl.Tag()))
		return nil
	}
	tag := cl.Tag()
	if !tagNamePattern.MatchString(tag) {
		return fmt.Errorf("%w: invalid element name %q", ErrSerialize, tag)
	}
	b.WriteString("<")
	b.WriteString(tag)
	if isRoot {
		// the foreign-content region must carry its own namespace
		b.WriteString(` xmlns="http://www.w3.org/1999/xhtml"`)
	}
	for _, a := range cl.Attrs() {
		if a.Key == "style" || a.Key == "xmlns" {
			continue // the snapshot supersedes the inline style
		}
		if !attrNamePattern.MatchString(a.Key) {
			tracer().Debugf("svg: dropping attribute with unserializable name %q", a.Key)
			continue
		}
		b.WriteString(" ")
		b.WriteString(a.Key)
		b.WriteString(`="`)
		b.WriteString(html.EscapeString(a.Val))
		b.WriteString(`"`)
	}
	if css := cl.Styles().CSSText(); css != "" {
		b.WriteString(` style="`)
		b.WriteString(html.EscapeString(css))
		b.WriteString(`"`)
	}
	if voidElements[tag] {
		b.WriteString("/>")
		return nil
	}
	b.WriteString(">")
	for _, ch := range cl.Children() {
		child := clone.FromTreeNode(ch)
		if child == nil {
			continue
		}
		if err := writeNode(b, child, false); err != nil {
			return err
		}
	}
	b.WriteString("</")
	b.WriteString(tag)
	b.WriteString(">")
	return nil
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
