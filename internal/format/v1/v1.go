// Package v1 is scene layout version 1: each plane gains an optional
// heightmap, and every canvas stores its own offset. Frozen.
package v1

import (
	"fmt"

	"github.com/kuviman/PogPaint/internal/bincode"
	v0 "github.com/kuviman/PogPaint/internal/format/v0"
)

// ImageData is unchanged from v0.
type ImageData = v0.Image

const (
	ImageLoad  = v0.ImageLoad
	ImageEmbed = v0.ImageEmbed
)

// Image is a texture together with the position of its top-left pixel.
type Image struct {
	Data   ImageData
	Offset [2]int32
}

// HeightmapData is an embedded row-major grid of heights. It is encoded as
// an enum with a single variant so that other sources can be added later.
type HeightmapData struct {
	Data []float32 // len == Rows*Cols
	Rows uint64    // height in pixels
	Cols uint64    // width in pixels
}

// Heightmap is a heightmap grid with its own offset.
type Heightmap struct {
	Data   HeightmapData
	Offset [2]int32
}

// Plane is one v1 plane.
type Plane struct {
	Image     *Image
	Heightmap *Heightmap
	Transform [16]float32
}

// Scene is the top-level v1 document.
type Scene struct {
	Planes []Plane
}

const (
	heightmapEmbed = 0
	planeMinSize   = 1 + 1 + 64
)

// FromV0 upgrades a v0 document. The plane offset moves onto the image;
// heightmaps did not exist yet.
func FromV0(s *v0.Scene) *Scene {
	out := &Scene{Planes: make([]Plane, len(s.Planes))}
	for i, p := range s.Planes {
		np := Plane{Transform: p.Transform}
		if p.Image != nil {
			np.Image = &Image{Data: *p.Image, Offset: p.Offset}
		}
		out.Planes[i] = np
	}
	return out
}

// Encode writes the image.
func (img *Image) Encode(e *bincode.Encoder) {
	img.Data.Encode(e)
	e.I32(img.Offset[0])
	e.I32(img.Offset[1])
}

// Decode reads an image.
func (img *Image) Decode(d *bincode.Decoder) {
	img.Data.Decode(d)
	img.Offset[0] = d.I32()
	img.Offset[1] = d.I32()
}

// Encode writes the heightmap grid.
func (h *HeightmapData) Encode(e *bincode.Encoder) {
	e.Variant(heightmapEmbed)
	e.F32Slice(h.Data)
	e.U64(h.Rows)
	e.U64(h.Cols)
}

// Decode reads a heightmap grid.
func (h *HeightmapData) Decode(d *bincode.Decoder) {
	if v := d.Variant(); v != heightmapEmbed {
		d.Fail(fmt.Errorf("%w: heightmap variant %d", bincode.ErrInvalid, v))
		return
	}
	h.Data = d.F32Slice()
	h.Rows = d.U64()
	h.Cols = d.U64()
}

// MarshalBinary encodes the scene payload.
func (s *Scene) MarshalBinary() ([]byte, error) {
	e := bincode.NewEncoder(64)
	e.Len(len(s.Planes))
	for i := range s.Planes {
		p := &s.Planes[i]
		e.Option(p.Image != nil)
		if p.Image != nil {
			p.Image.Encode(e)
		}
		e.Option(p.Heightmap != nil)
		if p.Heightmap != nil {
			p.Heightmap.Data.Encode(e)
			e.I32(p.Heightmap.Offset[0])
			e.I32(p.Heightmap.Offset[1])
		}
		e.F32Array(p.Transform[:])
	}
	return e.Bytes(), nil
}

// UnmarshalBinary decodes a scene payload. Trailing bytes are an error.
func (s *Scene) UnmarshalBinary(data []byte) error {
	d := bincode.NewDecoder(data)
	planes := make([]Plane, d.Len(planeMinSize))
	for i := range planes {
		p := &planes[i]
		if d.Option() {
			p.Image = new(Image)
			p.Image.Decode(d)
		}
		if d.Option() {
			p.Heightmap = new(Heightmap)
			p.Heightmap.Data.Decode(d)
			p.Heightmap.Offset[0] = d.I32()
			p.Heightmap.Offset[1] = d.I32()
		}
		d.F32Array(p.Transform[:])
	}
	if err := d.Finish(); err != nil {
		return err
	}
	s.Planes = planes
	return nil
}
