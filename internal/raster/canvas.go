package raster

import (
	"errors"
	"fmt"
	"image"

	"github.com/kuviman/PogPaint/internal/logging"
)

// DefaultMaxSize is the default limit on canvas width and height.
const DefaultMaxSize = 2048

// ErrOverflow reports that a growth request would push the canvas past its
// maximum size. The canvas is left unchanged.
var ErrOverflow = errors.New("raster: canvas size limit exceeded")

// Canvas is a lazily allocated raster anchored at an arbitrary integer
// offset. It starts empty and grows to cover whatever region is drawn
// into, up to maxSize pixels in each dimension.
//
// Pixels are stored row-major within bounds; len(pix) == bounds.Dx()*bounds.Dy().
// A nil *Canvas reads as an empty canvas with the default maximum size.
type Canvas[T any] struct {
	bounds  image.Rectangle
	pix     []T
	maxSize int
}

// NewCanvas returns an empty canvas. maxSize <= 0 selects DefaultMaxSize.
func NewCanvas[T any](maxSize int) *Canvas[T] {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Canvas[T]{maxSize: maxSize}
}

// FromPixels wraps pix as the content of bounds. The slice is adopted, not
// copied. Loaded content may exceed maxSize; the limit only applies to growth.
func FromPixels[T any](maxSize int, bounds image.Rectangle, pix []T) (*Canvas[T], error) {
	c := NewCanvas[T](maxSize)
	bounds = bounds.Canon()
	if bounds.Empty() {
		if len(pix) != 0 {
			return nil, fmt.Errorf("raster: %d pixels for empty bounds", len(pix))
		}
		return c, nil
	}
	if len(pix) != bounds.Dx()*bounds.Dy() {
		return nil, fmt.Errorf("raster: %d pixels for %dx%d bounds", len(pix), bounds.Dx(), bounds.Dy())
	}
	c.bounds = bounds
	c.pix = pix
	return c, nil
}

// Bounds returns the allocated rectangle, or false if nothing was ever
// allocated.
func (c *Canvas[T]) Bounds() (image.Rectangle, bool) {
	if c == nil {
		return image.Rectangle{}, false
	}
	return c.bounds, !c.bounds.Empty()
}

// MaxSize returns the growth limit in pixels.
func (c *Canvas[T]) MaxSize() int {
	if c == nil {
		return DefaultMaxSize
	}
	return c.maxSize
}

// Pix returns the backing slice, row-major within Bounds. Callers must not
// retain it across growth.
func (c *Canvas[T]) Pix() []T {
	if c == nil {
		return nil
	}
	return c.pix
}

// Empty reports whether the canvas has no backing store.
func (c *Canvas[T]) Empty() bool { return c == nil || c.bounds.Empty() }

// EnsureBounds grows the canvas to the union of its bounds and r. Existing
// content keeps its world position; new pixels hold the zero value. If the
// union would be wider or taller than the maximum size the canvas is left
// as is and an error wrapping ErrOverflow is returned.
func (c *Canvas[T]) EnsureBounds(r image.Rectangle) error {
	nb := c.bounds.Union(r.Canon())
	if nb == c.bounds {
		return nil
	}
	if nb.Dx() > c.maxSize || nb.Dy() > c.maxSize {
		logging.Logger().Warn("canvas growth rejected",
			"bounds", c.bounds, "requested", r, "max", c.maxSize)
		return fmt.Errorf("%w: %v with %v is %dx%d, max %d",
			ErrOverflow, c.bounds, r, nb.Dx(), nb.Dy(), c.maxSize)
	}

	pix := make([]T, nb.Dx()*nb.Dy())
	if !c.bounds.Empty() {
		w := c.bounds.Dx()
		stride := nb.Dx()
		dx := c.bounds.Min.X - nb.Min.X
		dy := c.bounds.Min.Y - nb.Min.Y
		for y := 0; y < c.bounds.Dy(); y++ {
			copy(pix[(y+dy)*stride+dx:], c.pix[y*w:(y+1)*w])
		}
	}
	c.bounds = nb
	c.pix = pix
	return nil
}

// Draw grows the canvas to cover r and calls fn with a view restricted to
// r. This is the only write path for painting. When growth is rejected fn
// still sees the part of r inside the old bounds, and the overflow error is
// returned so the caller can report the clipped paint.
func (c *Canvas[T]) Draw(r image.Rectangle, fn func(View[T])) error {
	r = r.Canon()
	err := c.EnsureBounds(r)
	if clip := r.Intersect(c.bounds); !clip.Empty() {
		fn(View[T]{c: c, world: clip})
	}
	return err
}

// At returns the pixel at p, or the zero value outside the bounds.
func (c *Canvas[T]) At(p image.Point) T {
	if c == nil || !p.In(c.bounds) {
		var zero T
		return zero
	}
	return c.pix[c.index(p.X, p.Y)]
}

// Clone returns a deep copy. Cloning nil gives nil.
func (c *Canvas[T]) Clone() *Canvas[T] {
	if c == nil {
		return nil
	}
	out := &Canvas[T]{bounds: c.bounds, maxSize: c.maxSize}
	if c.pix != nil {
		out.pix = make([]T, len(c.pix))
		copy(out.pix, c.pix)
	}
	return out
}

func (c *Canvas[T]) index(x, y int) int {
	return (y-c.bounds.Min.Y)*c.bounds.Dx() + (x - c.bounds.Min.X)
}

// View is a writable window onto part of a canvas.
type View[T any] struct {
	c     *Canvas[T]
	world image.Rectangle
}

// World returns the view rectangle in world coordinates.
func (v View[T]) World() image.Rectangle { return v.world }

// Rect returns the view rectangle relative to the canvas buffer origin.
func (v View[T]) Rect() image.Rectangle { return v.world.Sub(v.c.bounds.Min) }

// Set writes val at world position (x, y). Writes outside the view are dropped.
func (v View[T]) Set(x, y int, val T) {
	if !image.Pt(x, y).In(v.world) {
		return
	}
	v.c.pix[v.c.index(x, y)] = val
}

// At reads world position (x, y), returning the zero value outside the view.
func (v View[T]) At(x, y int) T {
	if !image.Pt(x, y).In(v.world) {
		var zero T
		return zero
	}
	return v.c.pix[v.c.index(x, y)]
}
