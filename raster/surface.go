package raster

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"

	xdraw "golang.org/x/image/draw"
)

// Surface is the drawing surface a snapshot was painted onto. The
// per-format exporters are stateless projections of this one surface and
// may be called in any order.
type Surface struct {
	RGBA  *image.RGBA
	Scale float64
}

// Width returns the surface width in pixels.
func (s *Surface) Width() int {
	return s.RGBA.Bounds().Dx()
}

// Height returns the surface height in pixels.
func (s *Surface) Height() int {
	return s.RGBA.Bounds().Dy()
}

// Pixels extracts the raw RGBA pixel buffer, 4 bytes per pixel in row
// order. The returned slice is a copy; mutating it leaves the surface
// untouched.
func (s *Surface) Pixels() []byte {
	pix := make([]byte, len(s.RGBA.Pix))
	copy(pix, s.RGBA.Pix)
	return pix
}

// EncodePNG encodes the surface as PNG bytes.
func (s *Surface) EncodePNG() ([]byte, error) {
	var b bytes.Buffer
	if err := png.Encode(&b, s.RGBA); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// EncodeJPEG encodes the surface as JPEG bytes. quality is 0–1; values
// outside the range are clamped. JPEG has no alpha channel, so the
// surface is composited over white first.
func (s *Surface) EncodeJPEG(quality float64) ([]byte, error) {
	if quality <= 0 || quality > 1 {
		quality = 1
	}
	opaque := image.NewRGBA(s.RGBA.Bounds())
	draw.Draw(opaque, opaque.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(opaque, opaque.Bounds(), s.RGBA, s.RGBA.Bounds().Min, draw.Over)
	var b bytes.Buffer
	if err := jpeg.Encode(&b, opaque, &jpeg.Options{Quality: int(quality * 100)}); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// Blob is a binary-object wrapper around encoded image bytes.
type Blob struct {
	Data []byte
	MIME string
}

// PNGBlob wraps the surface as a PNG binary object.
func (s *Surface) PNGBlob() (*Blob, error) {
	data, err := s.EncodePNG()
	if err != nil {
		return nil, err
	}
	return &Blob{Data: data, MIME: "image/png"}, nil
}

// JPEGBlob wraps the surface as a JPEG binary object.
func (s *Surface) JPEGBlob(quality float64) (*Blob, error) {
	data, err := s.EncodeJPEG(quality)
	if err != nil {
		return nil, err
	}
	return &Blob{Data: data, MIME: "image/jpeg"}, nil
}

// Resample returns a new surface scaled to the given pixel dimensions
// with Catmull-Rom interpolation.
func (s *Surface) Resample(width, height int) *Surface {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), s.RGBA, s.RGBA.Bounds(), xdraw.Src, nil)
	return &Surface{RGBA: dst, Scale: s.Scale}
}
