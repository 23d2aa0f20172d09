package mathutil

import (
	"image"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestRectFromCorners(t *testing.T) {
	r := RectFromCorners(mgl32.Vec2{3.5, 1.5}, mgl32.Vec2{0.5, 2.5}, 1)
	assert.Equal(t, image.Rect(-1, 0, 5, 4), r)

	r = RectFromCorners(mgl32.Vec2{2, 2}, mgl32.Vec2{2, 2}, 0.5)
	assert.Equal(t, image.Rect(1, 1, 3, 3), r)
}

func TestFloorPoint(t *testing.T) {
	assert.Equal(t, image.Pt(-1, 2), FloorPoint(mgl32.Vec2{-0.5, 2.9}))
}

func TestSegmentDist2(t *testing.T) {
	a, b := mgl32.Vec2{0, 0}, mgl32.Vec2{4, 0}
	assert.InDelta(t, 4, SegmentDist2(mgl32.Vec2{2, 2}, a, b), 1e-6)
	assert.InDelta(t, 1, SegmentDist2(mgl32.Vec2{-1, 0}, a, b), 1e-6)
	assert.InDelta(t, 2, SegmentDist2(mgl32.Vec2{1, 1}, a, a), 1e-6)
}

func TestIntersectPlane(t *testing.T) {
	ray := Ray{From: mgl32.Vec3{1, 2, 10}, Dir: mgl32.Vec3{0, 0, -1}}

	pos, tt, ok := IntersectPlane(mgl32.Ident4(), ray)
	assert.True(t, ok)
	assert.InDelta(t, 10, tt, 1e-5)
	assert.InDelta(t, 1, pos.X(), 1e-5)
	assert.InDelta(t, 2, pos.Y(), 1e-5)

	// plane shifted up and scaled: local coords shrink.
	m := mgl32.Translate3D(0, 0, 5).Mul4(mgl32.Scale3D(0.5, 0.5, 1))
	pos, tt, ok = IntersectPlane(m, ray)
	assert.True(t, ok)
	assert.InDelta(t, 5, tt, 1e-4)
	assert.InDelta(t, 2, pos.X(), 1e-4)
	assert.InDelta(t, 4, pos.Y(), 1e-4)

	_, _, ok = IntersectPlane(mgl32.Ident4(), Ray{From: mgl32.Vec3{0, 0, 1}, Dir: mgl32.Vec3{1, 0, 0}})
	assert.False(t, ok, "parallel ray")

	_, _, ok = IntersectPlane(mgl32.Ident4(), Ray{From: mgl32.Vec3{0, 0, 1}, Dir: mgl32.Vec3{0, 0, 1}})
	assert.False(t, ok, "plane behind ray")
}
