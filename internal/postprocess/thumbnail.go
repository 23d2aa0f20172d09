// Package postprocess prepares exported canvases: scaling and flattening.
package postprocess

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Thumbnail scales img down to fit in a size x size box, keeping its
// aspect ratio. Images that already fit are returned unchanged.
//
// Filtering happens in premultiplied alpha so transparent pixels do not
// bleed dark halos into the edges.
func Thumbnail(img *image.NRGBA, size int) *image.NRGBA {
	b := img.Bounds()
	if size <= 0 || (b.Dx() <= size && b.Dy() <= size) {
		return img
	}
	w, h := size, size
	if b.Dx() > b.Dy() {
		h = max(1, b.Dy()*size/b.Dx())
	} else {
		w = max(1, b.Dx()*size/b.Dy())
	}

	premul := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(premul, premul.Bounds(), img, b.Min, draw.Src)

	scaled := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), premul, premul.Bounds(), draw.Src, nil)

	out := image.NewNRGBA(scaled.Bounds())
	draw.Draw(out, out.Bounds(), scaled, image.Point{}, draw.Src)
	return out
}

// Flatten composites img over an opaque background colour.
func Flatten(img *image.NRGBA, bg color.NRGBA) *image.NRGBA {
	bg.A = 255
	out := image.NewNRGBA(img.Bounds())
	draw.Draw(out, out.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Over)
	return out
}
