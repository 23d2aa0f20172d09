// Package export writes scene canvases out as ordinary image files.
package export

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"

	"github.com/kuviman/PogPaint/internal/postprocess"
	"github.com/kuviman/PogPaint/internal/preview"
	"github.com/kuviman/PogPaint/internal/raster"
	"github.com/kuviman/PogPaint/internal/scene"
)

// Format is an output image encoding.
type Format int

const (
	WebP Format = iota // lossless
	PNG
)

// ErrUnknownFormat reports an unrecognized format name.
var ErrUnknownFormat = errors.New("export: unknown format")

// ParseFormat accepts "webp" or "png", case-insensitively, with or
// without a leading dot.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "webp":
		return WebP, nil
	case "png":
		return PNG, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Ext returns the file extension, dot included.
func (f Format) Ext() string {
	if f == PNG {
		return ".png"
	}
	return ".webp"
}

func (f Format) String() string { return strings.TrimPrefix(f.Ext(), ".") }

// Encode writes img to w in format f.
func Encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case PNG:
		return png.Encode(w, img)
	case WebP:
		return nativewebp.Encode(w, img, nil)
	}
	return fmt.Errorf("%w: %d", ErrUnknownFormat, int(f))
}

// WriteFile encodes img into a new file at path.
func WriteFile(path string, img image.Image, f Format) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: create %s: %w", path, err)
	}
	if err := Encode(out, img, f); err != nil {
		out.Close()
		return fmt.Errorf("export: encode %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	return nil
}

// Options controls Scene.
type Options struct {
	Format Format
	// Thumbnail, when > 0, scales textures down to fit this many pixels.
	Thumbnail int
	// Background, when set, flattens textures onto an opaque colour.
	Background *color.NRGBA
	// Heightmaps also writes each heightmap as a grayscale image, black
	// at the heightmap's Min and white at its Max.
	Heightmaps bool
	// Preview, when set, also renders the whole scene to <stem>_preview<ext>.
	Preview *preview.Options
}

// Scene writes one image per non-empty plane texture into dir, named
// <stem>_<plane index><ext>, and, with opts.Heightmaps,
// <stem>_<plane index>_height<ext>, plus the optional preview. It returns
// the written paths.
func Scene(m *scene.Model, dir, stem string, opts Options) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	var written []string
	for i, p := range m.Planes {
		if img := Texture(p, opts); img != nil {
			path := filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, i, opts.Format.Ext()))
			if err := WriteFile(path, img, opts.Format); err != nil {
				return written, err
			}
			written = append(written, path)
		}
		if !opts.Heightmaps || p.Heightmap == nil {
			continue
		}
		if gray := raster.HeightToGray(p.Heightmap.Canvas, p.Heightmap.Min, p.Heightmap.Max); gray != nil {
			gray.Rect = image.Rect(0, 0, gray.Rect.Dx(), gray.Rect.Dy())
			path := filepath.Join(dir, fmt.Sprintf("%s_%d_height%s", stem, i, opts.Format.Ext()))
			if err := WriteFile(path, gray, opts.Format); err != nil {
				return written, err
			}
			written = append(written, path)
		}
	}

	if opts.Preview != nil {
		path := filepath.Join(dir, stem+"_preview"+opts.Format.Ext())
		if err := WriteFile(path, preview.Render(m, *opts.Preview), opts.Format); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

// Texture renders a plane texture for export, or returns nil when the
// texture was never painted.
func Texture(p *scene.Plane, opts Options) *image.NRGBA {
	img := raster.ToNRGBA(p.Texture)
	if img == nil {
		return nil
	}
	if opts.Background != nil {
		img = postprocess.Flatten(img, *opts.Background)
	}
	// encoders expect the origin at (0, 0)
	img.Rect = image.Rect(0, 0, img.Rect.Dx(), img.Rect.Dy())
	return postprocess.Thumbnail(img, opts.Thumbnail)
}
