// Package scene holds the live document: an ordered list of paintable
// planes placed in 3D space.
package scene

import (
	"image/color"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/kuviman/PogPaint/internal/mathutil"
	"github.com/kuviman/PogPaint/internal/raster"
)

// Heightmap is a scalar canvas whose values are remapped to [Min, Max]
// when displacing the plane surface.
type Heightmap struct {
	Canvas *raster.HeightCanvas
	Min    float32
	Max    float32
}

// Plane is a paintable surface. Texture pixel (x, y) covers the unit square
// [x, x+1]x[y, y+1] of the plane's local z=0 plane.
type Plane struct {
	Texture   *raster.ImageCanvas
	Heightmap *Heightmap // nil until painted
	Transform mgl32.Mat4
}

// Model is the whole scene. Plane order is draw and selection order.
type Model struct {
	Planes []*Plane
}

// Raycast is a hit on a plane.
type Raycast struct {
	TexturePos mgl32.Vec2
	T          float32
}

// New returns an empty model.
func New() *Model {
	return &Model{}
}

// NewPlane returns a plane with an empty texture.
func NewPlane(maxSize int, transform mgl32.Mat4) *Plane {
	return &Plane{
		Texture:   raster.NewImage(maxSize),
		Transform: transform,
	}
}

// Add appends p and returns its index.
func (m *Model) Add(p *Plane) int {
	m.Planes = append(m.Planes, p)
	return len(m.Planes) - 1
}

// Remove deletes the plane at idx, keeping the order of the others.
func (m *Model) Remove(idx int) {
	if idx < 0 || idx >= len(m.Planes) {
		return
	}
	m.Planes = append(m.Planes[:idx], m.Planes[idx+1:]...)
}

// Clone deep-copies the model, canvases included.
func (m *Model) Clone() *Model {
	out := &Model{Planes: make([]*Plane, len(m.Planes))}
	for i, p := range m.Planes {
		out.Planes[i] = p.Clone()
	}
	return out
}

// Pick returns the index of the closest plane hit by ray at a pixel that
// is not fully transparent.
func (m *Model) Pick(ray mathutil.Ray) (int, Raycast, bool) {
	best := -1
	var hit Raycast
	for i, p := range m.Planes {
		rc, ok := p.Raycast(ray)
		if !ok || p.ColorAt(rc.TexturePos).A == 0 {
			continue
		}
		if best < 0 || rc.T < hit.T {
			best, hit = i, rc
		}
	}
	return best, hit, best >= 0
}

// Clone deep-copies the plane.
func (p *Plane) Clone() *Plane {
	out := &Plane{
		Texture:   p.Texture.Clone(),
		Transform: p.Transform,
	}
	if p.Heightmap != nil {
		out.Heightmap = &Heightmap{
			Canvas: p.Heightmap.Canvas.Clone(),
			Min:    p.Heightmap.Min,
			Max:    p.Heightmap.Max,
		}
	}
	return out
}

// Raycast intersects ray with the plane.
func (p *Plane) Raycast(ray mathutil.Ray) (Raycast, bool) {
	pos, t, ok := mathutil.IntersectPlane(p.Transform, ray)
	if !ok {
		return Raycast{}, false
	}
	return Raycast{TexturePos: pos, T: t}, true
}

// ColorAt returns the texture colour under a texture-space position.
func (p *Plane) ColorAt(pos mgl32.Vec2) color.NRGBA {
	return p.Texture.At(mathutil.FloorPoint(pos))
}

// HeightAt returns the displacement at a texture-space position: the
// filtered heightmap value remapped to [Min, Max], or 0 without a heightmap.
func (p *Plane) HeightAt(pos mgl32.Vec2) float32 {
	if p.Heightmap == nil {
		return 0
	}
	h := raster.SampleBilinear(p.Heightmap.Canvas, pos)
	return p.Heightmap.Min + h*(p.Heightmap.Max-p.Heightmap.Min)
}

// EnsureHeightmap creates the heightmap with the given range if the plane
// has none, and returns it.
func (p *Plane) EnsureHeightmap(lo, hi float32) *Heightmap {
	if p.Heightmap == nil {
		p.Heightmap = &Heightmap{
			Canvas: raster.NewHeight(p.Texture.MaxSize()),
			Min:    lo,
			Max:    hi,
		}
	}
	return p.Heightmap
}
