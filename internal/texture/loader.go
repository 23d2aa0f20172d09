package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"github.com/h2non/filetype"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

// ErrUnsupported reports a file that is not in a decodable image format.
var ErrUnsupported = errors.New("texture: unsupported image format")

// Decoders by sniffed content type. TGA has no magic number and is matched
// by extension instead. The tga package registers itself with image.Decode
// under an empty magic, so image.Decode must not be used here.
var decoders = map[string]func(io.Reader) (image.Image, error){
	"png":  png.Decode,
	"jpg":  jpeg.Decode,
	"gif":  gif.Decode,
	"bmp":  bmp.Decode,
	"tif":  tiff.Decode,
	"webp": webp.Decode,
}

// IsImagePath reports whether path has the extension of a loadable image.
func IsImagePath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp", ".tga":
		return true
	}
	return false
}

// LoadImage reads an image file and returns it as NRGBA with its origin at (0, 0).
func LoadImage(path string) (*image.NRGBA, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("texture: read %s: %w", path, err)
	}
	return Decode(raw, path)
}

// Decode decodes raw image bytes. name is only used to recognize TGA files
// and in error messages.
func Decode(raw []byte, name string) (*image.NRGBA, error) {
	kind, _ := filetype.Match(raw)

	decode, ok := decoders[kind.Extension]
	if !ok {
		if !strings.EqualFold(filepath.Ext(name), ".tga") {
			return nil, fmt.Errorf("%w: %s (%s)", ErrUnsupported, name, kind.MIME.Value)
		}
		decode = tga.Decode
	}
	img, err := decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("texture: decode %s: %w", name, err)
	}
	return toNRGBA(img), nil
}

// toNRGBA converts src to non-premultiplied RGBA, moving its bounds to the origin.
func toNRGBA(src image.Image) *image.NRGBA {
	b := src.Bounds()
	if n, ok := src.(*image.NRGBA); ok && b.Min == (image.Point{}) {
		return n
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}
