// Package v0 is the original scene layout, stored behind the legacy
// "PogPaint" header without a version byte. It is frozen: later layouts
// get their own package and an upgrade function instead.
package v0

import (
	"fmt"

	"github.com/kuviman/PogPaint/internal/bincode"
)

// ImageKind is the variant tag of Image.
type ImageKind uint32

const (
	ImageLoad  ImageKind = 0 // Path names an external image file
	ImageEmbed ImageKind = 1 // Size and Data hold raw RGBA8 pixels
)

// Image is either a reference to an external file or embedded pixels.
type Image struct {
	Kind ImageKind
	Path string
	Size [2]uint64 // width, height
	Data []byte    // row-major RGBA8, len == Size[0]*Size[1]*4
}

// Plane is one plane: its texture, the texture offset and the transform
// (column-major 4x4).
type Plane struct {
	Image     *Image
	Offset    [2]int32
	Transform [16]float32
}

// Scene is the top-level v0 document.
type Scene struct {
	Planes []Plane
}

// planeMinSize is the smallest encoded Plane: option tag, offset, transform.
const planeMinSize = 1 + 8 + 64

// LoadImage returns an image referencing path.
func LoadImage(path string) *Image {
	return &Image{Kind: ImageLoad, Path: path}
}

// EmbedImage returns an image holding w*h RGBA8 pixels.
func EmbedImage(w, h int, data []byte) *Image {
	return &Image{Kind: ImageEmbed, Size: [2]uint64{uint64(w), uint64(h)}, Data: data}
}

// Encode writes the image.
func (img *Image) Encode(e *bincode.Encoder) {
	e.Variant(uint32(img.Kind))
	switch img.Kind {
	case ImageLoad:
		e.String(img.Path)
	case ImageEmbed:
		e.U64(img.Size[0])
		e.U64(img.Size[1])
		e.ByteSlice(img.Data)
	}
}

// Decode reads an image.
func (img *Image) Decode(d *bincode.Decoder) {
	*img = Image{Kind: ImageKind(d.Variant())}
	switch img.Kind {
	case ImageLoad:
		img.Path = d.String()
	case ImageEmbed:
		img.Size[0] = d.U64()
		img.Size[1] = d.U64()
		img.Data = d.ByteSlice()
	default:
		d.Fail(fmt.Errorf("%w: image variant %d", bincode.ErrInvalid, img.Kind))
	}
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
		e.I32(p.Offset[0])
		e.I32(p.Offset[1])
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
		p.Offset[0] = d.I32()
		p.Offset[1] = d.I32()
		d.F32Array(p.Transform[:])
	}
	if err := d.Finish(); err != nil {
		return err
	}
	s.Planes = planes
	return nil
}
