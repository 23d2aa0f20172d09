package preview

import (
	"image"
	"image/color"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuviman/PogPaint/internal/raster"
	"github.com/kuviman/PogPaint/internal/scene"
)

var (
	red  = color.NRGBA{R: 255, A: 255}
	blue = color.NRGBA{B: 255, A: 255}
	bg   = color.NRGBA{R: 1, G: 2, B: 3, A: 255}
)

func plane(t *testing.T, transform mgl32.Mat4, pixels map[image.Point]color.NRGBA) *scene.Plane {
	p := scene.NewPlane(0, transform)
	for pt, c := range pixels {
		require.NoError(t, p.Texture.Draw(image.Rectangle{Min: pt, Max: pt.Add(image.Pt(1, 1))}, func(v raster.View[color.NRGBA]) {
			v.Set(pt.X, pt.Y, c)
		}))
	}
	return p
}

func opts() Options {
	return Options{Width: 40, Height: 40, Background: bg}
}

func TestRenderEmpty(t *testing.T) {
	img := Render(scene.New(), opts())
	assert.Equal(t, image.Rect(0, 0, 40, 40), img.Bounds())
	assert.Equal(t, bg, img.NRGBAAt(20, 20))
}

func TestRenderTexelLayout(t *testing.T) {
	m := &scene.Model{Planes: []*scene.Plane{
		plane(t, mgl32.Ident4(), map[image.Point]color.NRGBA{{0, 0}: red, {1, 0}: blue}),
	}}
	img := Render(m, opts())
	assert.Equal(t, red, img.NRGBAAt(5, 20))
	assert.Equal(t, blue, img.NRGBAAt(35, 20))
	assert.Equal(t, bg, img.NRGBAAt(20, 2), "outside the quad")
}

func TestRenderDepth(t *testing.T) {
	back := plane(t, mgl32.Ident4(), map[image.Point]color.NRGBA{{0, 0}: red})
	front := plane(t, mgl32.Translate3D(0, 0, 1), map[image.Point]color.NRGBA{{0, 0}: blue})

	for _, order := range [][]*scene.Plane{{back, front}, {front, back}} {
		img := Render(&scene.Model{Planes: order}, opts())
		assert.Equal(t, blue, img.NRGBAAt(20, 20))
	}

	behind := Render(&scene.Model{Planes: []*scene.Plane{back, front}},
		Options{Width: 40, Height: 40, Background: bg, Camera: Camera{Yaw: 180}})
	assert.Equal(t, red, behind.NRGBAAt(20, 20), "seen from behind")
}

func TestRenderSkipsTransparentTexels(t *testing.T) {
	back := plane(t, mgl32.Ident4(), map[image.Point]color.NRGBA{{0, 0}: red})
	front := plane(t, mgl32.Translate3D(0, 0, 1), map[image.Point]color.NRGBA{{0, 0}: {}})
	img := Render(&scene.Model{Planes: []*scene.Plane{back, front}}, opts())
	assert.Equal(t, red, img.NRGBAAt(20, 20))
}

func TestRenderShadingKeepsAlpha(t *testing.T) {
	half := color.NRGBA{R: 200, G: 100, B: 50, A: 128}
	m := &scene.Model{Planes: []*scene.Plane{plane(t, mgl32.Ident4(), map[image.Point]color.NRGBA{{0, 0}: half})}}
	o := opts()
	o.Shading = true
	got := Render(m, o).NRGBAAt(20, 20)
	assert.Equal(t, uint8(128), got.A)
	assert.NotEqual(t, half, got)
}

func TestRenderPerspective(t *testing.T) {
	m := &scene.Model{Planes: []*scene.Plane{plane(t, mgl32.Ident4(), map[image.Point]color.NRGBA{{0, 0}: red})}}
	o := opts()
	o.Margin = 4
	o.Camera = Camera{Pitch: 30, Perspective: true}
	img := Render(m, o)
	assert.Equal(t, red, img.NRGBAAt(20, 20))
	assert.Equal(t, bg, img.NRGBAAt(0, 0))
}

func TestPlaneMesh(t *testing.T) {
	p := plane(t, mgl32.Translate3D(0, 0, 5), map[image.Point]color.NRGBA{{0, 0}: red, {3, 3}: red})
	pm, ok := planeMesh(p, 64)
	require.True(t, ok)
	assert.Equal(t, 1, pm.cols)
	assert.Len(t, pm.world, 4)
	assert.Equal(t, mgl32.Vec3{4, 4, 5}, pm.world[3])

	hm := p.EnsureHeightmap(0, 2)
	require.NoError(t, hm.Canvas.Draw(image.Rect(0, 0, 4, 4), func(v raster.View[float32]) {
		w := v.World()
		for y := w.Min.Y; y < w.Max.Y; y++ {
			for x := w.Min.X; x < w.Max.X; x++ {
				v.Set(x, y, 1)
			}
		}
	}))
	pm, ok = planeMesh(p, 2)
	require.True(t, ok)
	assert.Equal(t, 2, pm.cols)
	assert.Equal(t, 2, pm.rows)
	require.Len(t, pm.world, 9)
	center := pm.world[4]
	assert.Equal(t, mgl32.Vec2{2, 2}, pm.uv[4])
	assert.InDelta(t, 5+p.HeightAt(mgl32.Vec2{2, 2}), center.Z(), 1e-5)
	assert.Greater(t, center.Z(), float32(5))

	_, ok = planeMesh(scene.NewPlane(0, mgl32.Ident4()), 64)
	assert.False(t, ok)
}

func TestProjectCentres(t *testing.T) {
	pts := Camera{}.Project([]mgl32.Vec3{{-1, -1, 0}, {1, 1, 0}}, 100, 50, 5)
	assert.InDelta(t, 30, pts[0].X(), 1e-4)
	assert.InDelta(t, 45, pts[0].Y(), 1e-4)
	assert.InDelta(t, 70, pts[1].X(), 1e-4)
	assert.InDelta(t, 5, pts[1].Y(), 1e-4)
}
