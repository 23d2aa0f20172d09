package raster

import (
	"fmt"
	"image"
	"image/color"
)

// ImageCanvas is a colour canvas, straight alpha, transparent black by default.
type ImageCanvas = Canvas[color.NRGBA]

// HeightCanvas is a scalar heightmap canvas, zero by default.
type HeightCanvas = Canvas[float32]

// NewImage returns an empty colour canvas.
func NewImage(maxSize int) *ImageCanvas { return NewCanvas[color.NRGBA](maxSize) }

// NewHeight returns an empty heightmap canvas.
func NewHeight(maxSize int) *HeightCanvas { return NewCanvas[float32](maxSize) }

// ImageFromBytes builds a canvas at offset from w*h raw RGBA8 pixels.
func ImageFromBytes(maxSize int, offset image.Point, w, h int, data []byte) (*ImageCanvas, error) {
	if w < 0 || h < 0 {
		return nil, fmt.Errorf("raster: negative image size %dx%d", w, h)
	}
	if len(data) != w*h*4 {
		return nil, fmt.Errorf("raster: %d bytes for %dx%d RGBA image, want %d", len(data), w, h, w*h*4)
	}
	pix := make([]color.NRGBA, w*h)
	for i := range pix {
		s := data[i*4 : i*4+4 : i*4+4]
		pix[i] = color.NRGBA{R: s[0], G: s[1], B: s[2], A: s[3]}
	}
	return FromPixels(maxSize, image.Rect(0, 0, w, h).Add(offset), pix)
}

// ImageBytes returns the canvas size and its pixels as raw RGBA8 rows.
// An empty canvas returns zero sizes and nil data.
func ImageBytes(c *ImageCanvas) (w, h int, data []byte) {
	b, ok := c.Bounds()
	if !ok {
		return 0, 0, nil
	}
	data = make([]byte, len(c.pix)*4)
	for i, p := range c.pix {
		data[i*4] = p.R
		data[i*4+1] = p.G
		data[i*4+2] = p.B
		data[i*4+3] = p.A
	}
	return b.Dx(), b.Dy(), data
}

// ImageFromNRGBA copies img into a canvas whose top-left pixel sits at offset.
func ImageFromNRGBA(maxSize int, offset image.Point, img *image.NRGBA) *ImageCanvas {
	b := img.Bounds()
	pix := make([]color.NRGBA, b.Dx()*b.Dy())
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			o := img.PixOffset(x, y)
			pix[i] = color.NRGBA{R: img.Pix[o], G: img.Pix[o+1], B: img.Pix[o+2], A: img.Pix[o+3]}
			i++
		}
	}
	// pix is sized from b, so FromPixels cannot reject it.
	c, _ := FromPixels(maxSize, image.Rect(0, 0, b.Dx(), b.Dy()).Add(offset), pix)
	return c
}

// ToNRGBA copies the canvas into an image whose bounds equal the canvas
// bounds. It returns nil for an empty canvas.
func ToNRGBA(c *ImageCanvas) *image.NRGBA {
	b, ok := c.Bounds()
	if !ok {
		return nil
	}
	img := image.NewNRGBA(b)
	for i, p := range c.pix {
		img.Pix[i*4] = p.R
		img.Pix[i*4+1] = p.G
		img.Pix[i*4+2] = p.B
		img.Pix[i*4+3] = p.A
	}
	return img
}

// HeightToGray maps heights in [lo, hi] to an 8-bit grayscale image with the
// canvas bounds. It returns nil for an empty canvas.
func HeightToGray(c *HeightCanvas, lo, hi float32) *image.Gray {
	b, ok := c.Bounds()
	if !ok {
		return nil
	}
	img := image.NewGray(b)
	span := hi - lo
	for i, v := range c.pix {
		f := float32(0)
		if span != 0 {
			f = (v - lo) / span
		}
		img.Pix[i] = uint8(min(max(f, 0), 1)*255 + 0.5)
	}
	return img
}
