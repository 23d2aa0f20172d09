// Package preview renders a scene to an image with a small software
// rasterizer, for thumbnails and visual checks outside the editor.
package preview

import (
	"image"
	"image/color"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/kuviman/PogPaint/internal/logging"
	"github.com/kuviman/PogPaint/internal/scene"
)

// DefaultMaxCells bounds the tessellation of heightmapped planes per axis.
const DefaultMaxCells = 64

// Options controls Render.
type Options struct {
	Width, Height int
	Margin        int // pixels kept free around the scene
	Camera        Camera
	Background    color.NRGBA
	// Shading lights planes by their orientation; without it texels keep
	// their exact colours.
	Shading bool
	// MaxCells is the per-axis grid resolution used to displace planes by
	// their heightmaps; <= 0 selects DefaultMaxCells.
	MaxCells int
}

// mesh is a plane tessellated into a (cols+1) x (rows+1) vertex grid.
type mesh struct {
	plane      *scene.Plane
	cols, rows int
	uv         []mgl32.Vec2 // plane-local texture coordinates
	world      []mgl32.Vec3
}

// planeMesh tessellates the painted part of p, displacing each vertex
// along the plane normal by the heightmap. Planes without a heightmap are
// a single quad.
func planeMesh(p *scene.Plane, maxCells int) (mesh, bool) {
	b, ok := p.Texture.Bounds()
	if !ok {
		return mesh{}, false
	}
	cols, rows := 1, 1
	if p.Heightmap != nil {
		cols, rows = min(b.Dx(), maxCells), min(b.Dy(), maxCells)
	}

	m := mesh{plane: p, cols: cols, rows: rows}
	for j := 0; j <= rows; j++ {
		v := float32(b.Min.Y) + float32(b.Dy())*float32(j)/float32(rows)
		for i := 0; i <= cols; i++ {
			u := float32(b.Min.X) + float32(b.Dx())*float32(i)/float32(cols)
			uv := mgl32.Vec2{u, v}
			h := p.HeightAt(uv)
			m.uv = append(m.uv, uv)
			m.world = append(m.world, p.Transform.Mul4x1(mgl32.Vec4{u, v, h, 1}).Vec3())
		}
	}
	return m, true
}

// Render draws every painted plane of m. Planes are double-sided;
// overlapping texels are resolved with a z-buffer.
func Render(m *scene.Model, opts Options) *image.NRGBA {
	maxCells := opts.MaxCells
	if maxCells <= 0 {
		maxCells = DefaultMaxCells
	}

	var meshes []mesh
	var points []mgl32.Vec3
	for _, p := range m.Planes {
		if pm, ok := planeMesh(p, maxCells); ok {
			meshes = append(meshes, pm)
			points = append(points, pm.world...)
		}
	}

	fb := NewFrameBuffer(opts.Width, opts.Height, opts.Background)
	screen := opts.Camera.Project(points, opts.Width, opts.Height, opts.Margin)
	view := opts.Camera.View()
	lc := DefaultLightConfig()

	tris := 0
	off := 0
	for _, pm := range meshes {
		sample := func(u, v float32) color.NRGBA { return pm.plane.ColorAt(mgl32.Vec2{u, v}) }
		stride := pm.cols + 1
		vertex := func(idx int) Vertex {
			s := screen[off+idx]
			return Vertex{X: s.X(), Y: s.Y(), Z: s.Z(), U: pm.uv[idx].X(), V: pm.uv[idx].Y()}
		}
		for j := 0; j < pm.rows; j++ {
			for i := 0; i < pm.cols; i++ {
				i00 := j*stride + i
				i10, i01, i11 := i00+1, i00+stride, i00+stride+1
				for _, tri := range [2][3]int{{i00, i10, i11}, {i00, i11, i01}} {
					var shade func(color.NRGBA) color.NRGBA
					if opts.Shading {
						s := lc.Shade(faceNormal(view, pm.world[tri[0]], pm.world[tri[1]], pm.world[tri[2]]))
						shade = func(c color.NRGBA) color.NRGBA { return lc.Apply(c, s) }
					}
					RasterizeTriangle(fb, vertex(tri[0]), vertex(tri[1]), vertex(tri[2]), sample, shade)
					tris++
				}
			}
		}
		off += len(pm.world)
	}

	logging.Logger().Debug("preview rendered", "planes", len(meshes), "triangles", tris,
		"width", opts.Width, "height", opts.Height)
	return fb.Image()
}

// faceNormal returns the unit normal of a world-space triangle in view
// space, or zero for a degenerate triangle.
func faceNormal(view mgl32.Mat4, a, b, c mgl32.Vec3) mgl32.Vec3 {
	n := mgl32.TransformNormal(b.Sub(a).Cross(c.Sub(a)), view)
	if n.Len() < 1e-8 {
		return mgl32.Vec3{}
	}
	return n.Normalize()
}
