package preview

import (
	"image/color"
	"math"
)

// Vertex is a projected mesh vertex.
type Vertex struct {
	X, Y float32 // screen position in pixels
	Z    float32 // view depth, larger is closer
	U, V float32 // plane-local texture coordinates
}

// Sampler returns the texture colour at plane-local coordinates.
type Sampler func(u, v float32) color.NRGBA

// RasterizeTriangle fills the pixels whose centres lie inside a, b, c.
// Texels with zero alpha are skipped without touching the z-buffer; the
// others replace the pixel when closer than what is already there. shade,
// if not nil, is applied to every sampled colour.
func RasterizeTriangle(fb *FrameBuffer, a, b, c Vertex, sample Sampler, shade func(color.NRGBA) color.NRGBA) {
	minX := max(int(math.Floor(float64(min(a.X, b.X, c.X)))), 0)
	maxX := min(int(math.Ceil(float64(max(a.X, b.X, c.X)))), fb.Width-1)
	minY := max(int(math.Floor(float64(min(a.Y, b.Y, c.Y)))), 0)
	maxY := min(int(math.Ceil(float64(max(a.Y, b.Y, c.Y)))), fb.Height-1)
	if minX > maxX || minY > maxY {
		return
	}

	// Barycentric setup
	det := (b.Y-c.Y)*(a.X-c.X) + (c.X-b.X)*(a.Y-c.Y)
	if det > -1e-8 && det < 1e-8 {
		return
	}
	invDet := 1 / det

	dy12 := b.Y - c.Y
	dx21 := c.X - b.X
	dy20 := c.Y - a.Y
	dx02 := a.X - c.X

	for sy := minY; sy <= maxY; sy++ {
		dsy := float32(sy) + 0.5 - c.Y
		rowOff := sy * fb.Width
		for sx := minX; sx <= maxX; sx++ {
			dsx := float32(sx) + 0.5 - c.X
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1 - w0 - w1
			if w0 < -0.001 || w1 < -0.001 || w2 < -0.001 {
				continue
			}

			z := w0*a.Z + w1*b.Z + w2*c.Z
			zIdx := rowOff + sx
			if z <= fb.ZBuf[zIdx] {
				continue
			}

			col := sample(w0*a.U+w1*b.U+w2*c.U, w0*a.V+w1*b.V+w2*c.V)
			if col.A == 0 {
				continue
			}
			if shade != nil {
				col = shade(col)
			}
			fb.ZBuf[zIdx] = z

			i := zIdx * 4
			fb.Color[i] = col.R
			fb.Color[i+1] = col.G
			fb.Color[i+2] = col.B
			fb.Color[i+3] = col.A
		}
	}
}
