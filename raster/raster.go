/*
Package raster decodes serialized SVG snapshots into drawing surfaces.

The decode step is delegated to an injected Decoder capability. The
default implementation rasterizes through oksvg and the rasterx scanline
filler; environments with a different SVG engine (or tests needing no
engine at all) provide their own Decoder.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"math"

	"github.com/daveytran/dom-to-image-more/inline"
	"github.com/npillmayer/schuko/tracing"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// tracer will return a tracer. We are tracing to 'domimage.raster'
func tracer() tracing.Trace {
	return tracing.Select("domimage.raster")
}

// DecodeError marks a generated SVG document the decoder rejects. It is
// always fatal to the conversion; an undecodable document indicates an
// internal invariant violation upstream.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("raster: cannot decode snapshot markup: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decoder turns a standalone SVG document into an image at the given
// pixel dimensions.
type Decoder interface {
	Decode(svgdoc []byte, width, height int) (image.Image, error)
}

// SVGDecoder is the default Decoder, backed by oksvg and rasterx.
type SVGDecoder struct{}

// Decode is part of interface Decoder.
func (SVGDecoder) Decode(svgdoc []byte, width, height int) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svgdoc))
	if err != nil {
		return nil, err
	}
	icon.SetTarget(0, 0, float64(width), float64(height))
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	scanner := rasterx.NewScannerGV(width, height, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(width, height, scanner), 1)
	return img, nil
}

var _ Decoder = SVGDecoder{}

// Rasterize decodes an SVG data URL into a drawing surface of
// width*scale by height*scale pixels, painting the decoded image once.
func Rasterize(dataURL string, width, height, scale float64, dec Decoder) (*Surface, error) {
	if dec == nil {
		dec = SVGDecoder{}
	}
	if scale <= 0 {
		scale = 1
	}
	_, payload, err := inline.ParseDataURL(dataURL)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	pw := int(math.Round(width * scale))
	ph := int(math.Round(height * scale))
	if pw <= 0 || ph <= 0 {
		return nil, &DecodeError{Err: fmt.Errorf("degenerate surface %dx%d", pw, ph)}
	}
	img, err := dec.Decode(payload, pw, ph)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	tracer().Debugf("raster: decoded snapshot onto %dx%d surface (scale %.2f)", pw, ph, scale)

	surface := image.NewRGBA(image.Rect(0, 0, pw, ph))
	draw.Draw(surface, surface.Bounds(), img, img.Bounds().Min, draw.Src)
	return &Surface{RGBA: surface, Scale: scale}, nil
}
