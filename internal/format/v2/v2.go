// Package v2 is scene layout version 2, the current one: heightmaps carry
// the range their values are remapped to.
package v2

import (
	"github.com/kuviman/PogPaint/internal/bincode"
	v1 "github.com/kuviman/PogPaint/internal/format/v1"
)

// Unchanged from v1.
type (
	Image         = v1.Image
	ImageData     = v1.ImageData
	HeightmapData = v1.HeightmapData
)

const (
	ImageLoad  = v1.ImageLoad
	ImageEmbed = v1.ImageEmbed
)

// Range given to heightmaps upgraded from v1, which did not store one.
const (
	DefaultMinHeight float32 = 0
	DefaultMaxHeight float32 = 1
)

// Heightmap is a heightmap grid, its offset and its height range.
type Heightmap struct {
	Data   HeightmapData
	Offset [2]int32
	Min    float32
	Max    float32
}

// Plane is one v2 plane.
type Plane struct {
	Image     *Image
	Heightmap *Heightmap
	Transform [16]float32
}

// Scene is the top-level v2 document.
type Scene struct {
	Planes []Plane
}

const planeMinSize = 1 + 1 + 64

// FromV1 upgrades a v1 document, giving heightmaps the default range.
func FromV1(s *v1.Scene) *Scene {
	out := &Scene{Planes: make([]Plane, len(s.Planes))}
	for i, p := range s.Planes {
		np := Plane{Image: p.Image, Transform: p.Transform}
		if p.Heightmap != nil {
			np.Heightmap = &Heightmap{
				Data:   p.Heightmap.Data,
				Offset: p.Heightmap.Offset,
				Min:    DefaultMinHeight,
				Max:    DefaultMaxHeight,
			}
		}
		out.Planes[i] = np
	}
	return out
}

// MarshalBinary encodes the scene payload.
func (s *Scene) MarshalBinary() ([]byte, error) {
	size := 64
	for _, p := range s.Planes {
		if p.Image != nil {
			size += len(p.Image.Data.Data)
		}
		if p.Heightmap != nil {
			size += 4 * len(p.Heightmap.Data.Data)
		}
	}
	e := bincode.NewEncoder(size)
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
			e.F32(p.Heightmap.Min)
			e.F32(p.Heightmap.Max)
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
			p.Heightmap.Min = d.F32()
			p.Heightmap.Max = d.F32()
		}
		d.F32Array(p.Transform[:])
	}
	if err := d.Finish(); err != nil {
		return err
	}
	s.Planes = planes
	return nil
}
