// Package paint implements the stroke tools that write into plane canvases.
package paint

import (
	"fmt"
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/kuviman/PogPaint/internal/mathutil"
	"github.com/kuviman/PogPaint/internal/raster"
	"github.com/kuviman/PogPaint/internal/scene"
)

// Kind selects what a tool writes.
type Kind int

const (
	// Brush paints Color into the texture.
	Brush Kind = iota
	// Eraser clears the texture to transparent black.
	Eraser
	// Heightmap raises the plane heightmap to 1.
	Heightmap
)

func (k Kind) String() string {
	switch k {
	case Brush:
		return "brush"
	case Eraser:
		return "eraser"
	case Heightmap:
		return "heightmap"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Tool is a configured stroke tool.
type Tool struct {
	Kind  Kind
	Size  int         // brush diameter in pixels, >= 1
	Color color.NRGBA // Brush only

	// Range given to a heightmap created by the first Heightmap stroke.
	MinHeight float32
	MaxHeight float32
}

// Stroke is an in-progress drag of a tool across one plane.
type Stroke struct {
	tool  Tool
	plane *scene.Plane
	prev  mgl32.Vec2
}

// RoundPos snaps a texture position so that a brush of the given size
// covers whole pixels: integer positions for even sizes, pixel centres for
// odd ones.
func RoundPos(size int, pos mgl32.Vec2) mgl32.Vec2 {
	if size%2 == 0 {
		return mgl32.Vec2{round(pos[0]), round(pos[1])}
	}
	return mgl32.Vec2{round(pos[0]-0.5) + 0.5, round(pos[1]-0.5) + 0.5}
}

// DrawWidth returns the capsule diameter drawn for a brush size.
func DrawWidth(size int) float32 {
	rounded := float32(math.Floor(float64(size)/2) * 2)
	return (rounded + float32(size)) / 2
}

func round(x float32) float32 { return float32(math.Round(float64(x))) }

// Start raycasts into plane and paints a dot where the ray hits. It
// returns nil when the ray misses. A non-nil error wraps
// raster.ErrOverflow and means part of the dot was clipped.
func (t Tool) Start(plane *scene.Plane, ray mathutil.Ray) (*Stroke, error) {
	hit, ok := plane.Raycast(ray)
	if !ok {
		return nil, nil
	}
	s := &Stroke{tool: t, plane: plane, prev: RoundPos(t.size(), hit.TexturePos)}
	return s, s.segment(s.prev, s.prev)
}

// Resume continues the stroke to where ray hits the plane.
func (s *Stroke) Resume(ray mathutil.Ray) error {
	hit, ok := s.plane.Raycast(ray)
	if !ok {
		return nil
	}
	pos := RoundPos(s.tool.size(), hit.TexturePos)
	err := s.segment(s.prev, pos)
	s.prev = pos
	return err
}

// LineTo continues the stroke to a texture-space position.
func (s *Stroke) LineTo(pos mgl32.Vec2) error {
	pos = RoundPos(s.tool.size(), pos)
	err := s.segment(s.prev, pos)
	s.prev = pos
	return err
}

// End finishes the stroke. Strokes hold no resources; End exists so that
// callers can treat every tool alike.
func (s *Stroke) End() {}

func (t Tool) size() int { return max(t.Size, 1) }

func (s *Stroke) segment(p1, p2 mgl32.Vec2) error {
	width := DrawWidth(s.tool.size())
	r := mathutil.RectFromCorners(p1, p2, width)
	radius := width / 2

	switch s.tool.Kind {
	case Heightmap:
		hm := s.plane.EnsureHeightmap(s.tool.MinHeight, s.tool.MaxHeight)
		return hm.Canvas.Draw(r, func(v raster.View[float32]) {
			raster.FillCapsule(v, p1, p2, radius, 1)
		})
	case Eraser:
		return s.plane.Texture.Draw(r, func(v raster.View[color.NRGBA]) {
			raster.FillCapsule(v, p1, p2, radius, color.NRGBA{})
		})
	default:
		c := s.tool.Color
		return s.plane.Texture.Draw(r, func(v raster.View[color.NRGBA]) {
			raster.FillCapsule(v, p1, p2, radius, c)
		})
	}
}
