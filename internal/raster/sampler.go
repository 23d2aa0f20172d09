package raster

import (
	"image"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// SampleBilinear filters the heightmap at texture-space position p, with
// texel centres at half-integer coordinates. Taps outside the bounds read 0.
func SampleBilinear(c *HeightCanvas, p mgl32.Vec2) float32 {
	if c.Empty() {
		return 0
	}
	fx := float64(p[0]) - 0.5
	fy := float64(p[1]) - 0.5
	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	dx := float32(fx - float64(x0))
	dy := float32(fy - float64(y0))

	h00 := c.At(image.Pt(x0, y0))
	h10 := c.At(image.Pt(x0+1, y0))
	h01 := c.At(image.Pt(x0, y0+1))
	h11 := c.At(image.Pt(x0+1, y0+1))

	return h00*(1-dx)*(1-dy) + h10*dx*(1-dy) + h01*(1-dx)*dy + h11*dx*dy
}
