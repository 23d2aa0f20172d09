package preview

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// DefaultFOV is the vertical field of view used when perspective is
// requested without an angle.
const DefaultFOV = 60

// Camera orbits the scene: it looks down the view -Z axis after the scene
// is turned by Yaw around Y and then by Pitch around X.
type Camera struct {
	Yaw   float32 // degrees
	Pitch float32 // degrees
	// Perspective enables a pinhole projection with a FOV-degree field of
	// view; otherwise the projection is orthographic.
	Perspective bool
	FOV         float32
}

// View returns the rotation from world to view space.
func (c Camera) View() mgl32.Mat4 {
	return mgl32.HomogRotate3DX(mgl32.DegToRad(c.Pitch)).Mul4(mgl32.HomogRotate3DY(mgl32.DegToRad(c.Yaw)))
}

// Project maps world points onto a w x h screen so that their view-space
// bounding box fits inside margin pixels on every side, centred. It
// returns screen X and Y in pixels with Y pointing down, and view depth in
// Z with larger values closer to the camera.
func (c Camera) Project(points []mgl32.Vec3, w, h, margin int) []mgl32.Vec3 {
	out := make([]mgl32.Vec3, len(points))
	if len(points) == 0 {
		return out
	}

	view := c.View()
	lo := mgl32.Vec3{float32(math.Inf(1)), float32(math.Inf(1)), float32(math.Inf(1))}
	hi := lo.Mul(-1)
	for i, p := range points {
		t := mgl32.TransformCoordinate(p, view)
		out[i] = t
		for k := 0; k < 3; k++ {
			lo[k] = min(lo[k], t[k])
			hi[k] = max(hi[k], t[k])
		}
	}

	center := lo.Add(hi).Mul(0.5)
	span := max(hi.X()-lo.X(), hi.Y()-lo.Y(), 0.001)
	avail := max(min(w, h)-2*margin, 1)
	scale := float32(avail) / span

	var camDist float32
	if c.Perspective {
		fov := c.FOV
		if fov <= 0 {
			fov = DefaultFOV
		}
		halfExtent := max(span/2, 0.001)
		camDist = halfExtent/float32(math.Tan(float64(mgl32.DegToRad(fov/2)))) + (hi.Z()-lo.Z())/2
	}

	halfW, halfH := float32(w)/2, float32(h)/2
	for i, t := range out {
		x, y := t.X()-center.X(), t.Y()-center.Y()
		if c.Perspective {
			depth := max(camDist-(t.Z()-center.Z()), 0.1)
			f := camDist / depth
			x *= f
			y *= f
		}
		out[i] = mgl32.Vec3{x*scale + halfW, -y*scale + halfH, t.Z()}
	}
	return out
}
