package raster

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/kuviman/PogPaint/internal/mathutil"
)

// FillCapsule sets every pixel of v whose centre lies within radius of the
// segment p1-p2. A zero-length segment fills a disc.
func FillCapsule[T any](v View[T], p1, p2 mgl32.Vec2, radius float32, val T) {
	r2 := radius * radius
	w := v.World()
	for y := w.Min.Y; y < w.Max.Y; y++ {
		cy := float32(y) + 0.5
		for x := w.Min.X; x < w.Max.X; x++ {
			c := mgl32.Vec2{float32(x) + 0.5, cy}
			if mathutil.SegmentDist2(c, p1, p2) <= r2 {
				v.Set(x, y, val)
			}
		}
	}
}
