package mathutil

import "github.com/go-gl/mathgl/mgl32"

// Ray is a half-line in world space.
type Ray struct {
	From mgl32.Vec3
	Dir  mgl32.Vec3
}

// IntersectPlane intersects ray with the z=0 plane of the local space
// defined by transform. It returns the local xy position of the hit and the
// ray parameter t. Hits behind the origin and rays parallel to the plane
// report ok == false.
func IntersectPlane(transform mgl32.Mat4, ray Ray) (pos mgl32.Vec2, t float32, ok bool) {
	inv := transform.Inv()
	from := inv.Mul4x1(ray.From.Vec4(1))
	if w := from.W(); w != 0 && w != 1 {
		from = from.Mul(1 / w)
	}
	dir := inv.Mul4x1(ray.Dir.Vec4(0)).Vec3()
	if dz := dir.Z(); dz > -Eps && dz < Eps {
		return mgl32.Vec2{}, 0, false
	}
	t = -from.Z() / dir.Z()
	if t <= 0 {
		return mgl32.Vec2{}, 0, false
	}
	hit := from.Vec3().Add(dir.Mul(t))
	return mgl32.Vec2{hit.X(), hit.Y()}, t, true
}
