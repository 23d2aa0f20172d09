package preview

import (
	"image"
	"image/color"
	"math"
)

// FrameBuffer holds the rendering target as flat slices for cache locality.
type FrameBuffer struct {
	Width  int
	Height int
	Color  []uint8   // RGBA interleaved, len = W*H*4
	ZBuf   []float32 // view depth per pixel, larger is closer, initialized to -inf
}

// NewFrameBuffer allocates a buffer filled with bg and an empty z-buffer.
func NewFrameBuffer(w, h int, bg color.NRGBA) *FrameBuffer {
	n := w * h
	fb := &FrameBuffer{
		Width:  w,
		Height: h,
		Color:  make([]uint8, n*4),
		ZBuf:   make([]float32, n),
	}
	inf := float32(math.Inf(-1))
	for i := range fb.ZBuf {
		fb.ZBuf[i] = inf
		fb.Color[i*4] = bg.R
		fb.Color[i*4+1] = bg.G
		fb.Color[i*4+2] = bg.B
		fb.Color[i*4+3] = bg.A
	}
	return fb
}

// Image copies the colour buffer into a new image.
func (fb *FrameBuffer) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	copy(img.Pix, fb.Color)
	return img
}
