package raster

import (
	"image"
	"image/color"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCanvasEmpty(t *testing.T) {
	c := NewImage(0)
	_, ok := c.Bounds()
	assert.False(t, ok)
	assert.True(t, c.Empty())
	assert.Equal(t, DefaultMaxSize, c.MaxSize())
	assert.Equal(t, color.NRGBA{}, c.At(image.Pt(0, 0)))
}

func TestEnsureBoundsUnion(t *testing.T) {
	c := NewHeight(64)
	steps := []image.Rectangle{
		image.Rect(2, 3, 4, 5),
		image.Rect(-3, 4, 0, 6),
		image.Rect(0, 0, 1, 1),
		image.Rect(1, 1, 2, 2), // already covered
	}
	var want image.Rectangle
	for _, r := range steps {
		require.NoError(t, c.EnsureBounds(r))
		want = want.Union(r)
		b, ok := c.Bounds()
		require.True(t, ok)
		assert.Equal(t, want, b)
		assert.Len(t, c.Pix(), b.Dx()*b.Dy())
	}
	assert.Equal(t, image.Rect(-3, 0, 4, 6), want)
}

func TestEnsureBoundsFirstGrowthIsExact(t *testing.T) {
	c := NewImage(16)
	require.NoError(t, c.EnsureBounds(image.Rect(10, 10, 12, 13)))
	b, _ := c.Bounds()
	assert.Equal(t, image.Rect(10, 10, 12, 13), b, "origin must not be pulled in")
}

func TestGrowthPreservesContent(t *testing.T) {
	c := NewImage(0)
	red := color.NRGBA{R: 255, A: 255}
	p := image.Pt(5, 7)
	require.NoError(t, c.Draw(image.Rectangle{Min: p, Max: p.Add(image.Pt(1, 1))}, func(v View[color.NRGBA]) {
		v.Set(p.X, p.Y, red)
	}))

	require.NoError(t, c.EnsureBounds(image.Rect(-20, -30, -10, -25)))
	require.NoError(t, c.EnsureBounds(image.Rect(40, 2, 41, 50)))

	assert.Equal(t, red, c.At(p))
	assert.Equal(t, color.NRGBA{}, c.At(image.Pt(-15, -27)))
	assert.Equal(t, color.NRGBA{}, c.At(image.Pt(5, 8)))
}

func TestGrowthPreservesEveryPixel(t *testing.T) {
	c := NewHeight(0)
	require.NoError(t, c.Draw(image.Rect(0, 0, 3, 2), func(v View[float32]) {
		w := v.World()
		for y := w.Min.Y; y < w.Max.Y; y++ {
			for x := w.Min.X; x < w.Max.X; x++ {
				v.Set(x, y, float32(10*y+x+1))
			}
		}
	}))
	require.NoError(t, c.EnsureBounds(image.Rect(-2, -1, 5, 4)))
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			assert.Equal(t, float32(10*y+x+1), c.At(image.Pt(x, y)))
		}
	}
}

func TestCapEnforcement(t *testing.T) {
	c := NewHeight(8)
	require.NoError(t, c.EnsureBounds(image.Rect(0, 0, 4, 4)))

	err := c.EnsureBounds(image.Rect(0, 0, 9, 1))
	assert.ErrorIs(t, err, ErrOverflow)
	b, _ := c.Bounds()
	assert.Equal(t, image.Rect(0, 0, 4, 4), b)

	err = c.EnsureBounds(image.Rect(2, -5, 3, -4))
	assert.ErrorIs(t, err, ErrOverflow, "union height 9 exceeds 8")

	assert.NoError(t, c.EnsureBounds(image.Rect(-4, -4, 0, 0)), "8x8 fits exactly")
}

func TestDrawClipsOnOverflow(t *testing.T) {
	c := NewHeight(4)
	require.NoError(t, c.EnsureBounds(image.Rect(0, 0, 4, 4)))

	var seen image.Rectangle
	err := c.Draw(image.Rect(2, 2, 10, 3), func(v View[float32]) {
		seen = v.World()
		for x := 0; x < 10; x++ {
			v.Set(x, 2, 1)
		}
	})
	assert.ErrorIs(t, err, ErrOverflow)
	assert.Equal(t, image.Rect(2, 2, 4, 3), seen)
	assert.Equal(t, float32(1), c.At(image.Pt(3, 2)))
	assert.Equal(t, float32(0), c.At(image.Pt(1, 2)), "outside the view")

	called := false
	err = c.Draw(image.Rect(100, 100, 101, 101), func(View[float32]) { called = true })
	assert.ErrorIs(t, err, ErrOverflow)
	assert.False(t, called, "nothing overlaps")
}

func TestViewRectIsBufferLocal(t *testing.T) {
	c := NewHeight(0)
	require.NoError(t, c.EnsureBounds(image.Rect(-5, -5, 5, 5)))
	require.NoError(t, c.Draw(image.Rect(0, 1, 2, 3), func(v View[float32]) {
		assert.Equal(t, image.Rect(5, 6, 7, 8), v.Rect())
		assert.Equal(t, image.Rect(0, 1, 2, 3), v.World())
	}))
}

func TestFromPixels(t *testing.T) {
	_, err := FromPixels(0, image.Rect(0, 0, 2, 2), []float32{1, 2, 3})
	assert.Error(t, err)

	c, err := FromPixels(0, image.Rect(1, 1, 3, 2), []float32{1, 2})
	require.NoError(t, err)
	assert.Equal(t, float32(2), c.At(image.Pt(2, 1)))

	c, err = FromPixels[float32](0, image.Rectangle{}, nil)
	require.NoError(t, err)
	assert.True(t, c.Empty())
}

func TestClone(t *testing.T) {
	c, err := FromPixels(0, image.Rect(0, 0, 1, 1), []float32{3})
	require.NoError(t, err)
	d := c.Clone()
	require.NoError(t, d.Draw(image.Rect(0, 0, 1, 1), func(v View[float32]) { v.Set(0, 0, 9) }))
	assert.Equal(t, float32(3), c.At(image.Pt(0, 0)))
	assert.Equal(t, float32(9), d.At(image.Pt(0, 0)))
}

func TestImageBytesRoundTrip(t *testing.T) {
	data := make([]byte, 4*4*4)
	for i := range data {
		data[i] = byte(i)
	}
	c, err := ImageFromBytes(0, image.Pt(-2, 3), 4, 4, data)
	require.NoError(t, err)
	b, _ := c.Bounds()
	assert.Equal(t, image.Rect(-2, 3, 2, 7), b)
	assert.Equal(t, color.NRGBA{R: 4, G: 5, B: 6, A: 7}, c.At(image.Pt(-1, 3)))

	w, h, out := ImageBytes(c)
	assert.Equal(t, 4, w)
	assert.Equal(t, 4, h)
	assert.Equal(t, data, out)

	_, err = ImageFromBytes(0, image.Pt(0, 0), 2, 2, data)
	assert.Error(t, err)
}

func TestToNRGBA(t *testing.T) {
	assert.Nil(t, ToNRGBA(NewImage(0)))

	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(1, 0, color.NRGBA{G: 200, A: 255})
	c := ImageFromNRGBA(0, image.Pt(10, 20), src)
	img := ToNRGBA(c)
	assert.Equal(t, image.Rect(10, 20, 12, 21), img.Bounds())
	assert.Equal(t, color.NRGBA{G: 200, A: 255}, img.NRGBAAt(11, 20))
}

func TestFillCapsule(t *testing.T) {
	c := NewHeight(0)
	p := mgl32.Vec2{3.5, 3.5}
	require.NoError(t, c.Draw(image.Rect(0, 0, 8, 8), func(v View[float32]) {
		FillCapsule(v, p, p, 1.25, 1)
	}))
	count := 0
	for _, h := range c.Pix() {
		if h == 1 {
			count++
		}
	}
	assert.Equal(t, 5, count, "plus-shaped disc")
	assert.Equal(t, float32(1), c.At(image.Pt(2, 3)))
	assert.Equal(t, float32(0), c.At(image.Pt(2, 2)))

	c = NewHeight(0)
	require.NoError(t, c.Draw(image.Rect(0, 0, 10, 3), func(v View[float32]) {
		FillCapsule(v, mgl32.Vec2{1.5, 1.5}, mgl32.Vec2{7.5, 1.5}, 0.5, 2)
	}))
	for x := 1; x <= 7; x++ {
		assert.Equal(t, float32(2), c.At(image.Pt(x, 1)), "x=%d", x)
	}
	assert.Equal(t, float32(0), c.At(image.Pt(8, 1)))
	assert.Equal(t, float32(0), c.At(image.Pt(4, 0)))
}

func TestSampleBilinear(t *testing.T) {
	c, err := FromPixels(0, image.Rect(0, 0, 2, 1), []float32{0, 1})
	require.NoError(t, err)
	assert.InDelta(t, 0, SampleBilinear(c, mgl32.Vec2{0.5, 0.5}), 1e-6)
	assert.InDelta(t, 1, SampleBilinear(c, mgl32.Vec2{1.5, 0.5}), 1e-6)
	assert.InDelta(t, 0.5, SampleBilinear(c, mgl32.Vec2{1.0, 0.5}), 1e-6)
	assert.Equal(t, float32(0), SampleBilinear(NewHeight(0), mgl32.Vec2{}))
}

func TestHeightToGray(t *testing.T) {
	c, err := FromPixels(0, image.Rect(0, 0, 3, 1), []float32{-1, 0.5, 2})
	require.NoError(t, err)
	g := HeightToGray(c, 0, 1)
	assert.Equal(t, []uint8{0, 128, 255}, g.Pix)
}

func TestNilCanvas(t *testing.T) {
	var c *HeightCanvas
	_, ok := c.Bounds()
	assert.False(t, ok)
	assert.True(t, c.Empty())
	assert.Equal(t, DefaultMaxSize, c.MaxSize())
	assert.Nil(t, c.Pix())
	assert.Nil(t, c.Clone())
	assert.Equal(t, float32(0), c.At(image.Pt(0, 0)))
	assert.Equal(t, float32(0), SampleBilinear(c, mgl32.Vec2{0.5, 0.5}))
	assert.Nil(t, HeightToGray(c, 0, 1))

	var img *ImageCanvas
	assert.Nil(t, ToNRGBA(img))
	w, h, data := ImageBytes(img)
	assert.Zero(t, w)
	assert.Zero(t, h)
	assert.Nil(t, data)
}
