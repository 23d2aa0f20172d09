package mathutil

import (
	"image"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// RectFromCorners returns the smallest integer rectangle covering the box
// spanned by a and b, grown by pad on every side.
func RectFromCorners(a, b mgl32.Vec2, pad float32) image.Rectangle {
	minX := min(a[0], b[0]) - pad
	minY := min(a[1], b[1]) - pad
	maxX := max(a[0], b[0]) + pad
	maxY := max(a[1], b[1]) + pad
	return image.Rect(
		int(math.Floor(float64(minX))),
		int(math.Floor(float64(minY))),
		int(math.Ceil(float64(maxX))),
		int(math.Ceil(float64(maxY))),
	)
}

// FloorPoint converts a texture-space position to the pixel containing it.
func FloorPoint(p mgl32.Vec2) image.Point {
	return image.Pt(int(math.Floor(float64(p[0]))), int(math.Floor(float64(p[1]))))
}

// SegmentDist2 returns the squared distance from p to the segment a-b.
func SegmentDist2(p, a, b mgl32.Vec2) float32 {
	ab := b.Sub(a)
	ap := p.Sub(a)
	l2 := ab.Dot(ab)
	if l2 < Eps {
		return ap.Dot(ap)
	}
	t := ap.Dot(ab) / l2
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	d := ap.Sub(ab.Mul(t))
	return d.Dot(d)
}
