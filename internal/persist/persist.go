// Package persist converts between the in-memory scene model and scene
// files.
package persist

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/sync/errgroup"

	"github.com/kuviman/PogPaint/internal/format"
	v2 "github.com/kuviman/PogPaint/internal/format/v2"
	"github.com/kuviman/PogPaint/internal/logging"
	"github.com/kuviman/PogPaint/internal/raster"
	"github.com/kuviman/PogPaint/internal/scene"
	"github.com/kuviman/PogPaint/internal/texture"
)

var (
	// ErrInvalidImage reports an embedded image whose data does not match
	// its size, or an image of unknown kind.
	ErrInvalidImage = errors.New("persist: invalid image")
	// ErrInvalidHeightmap reports a heightmap whose data does not match
	// its dimensions.
	ErrInvalidHeightmap = errors.New("persist: invalid heightmap")
	// ErrMissingLoader reports a file-referenced image with no Loader to
	// resolve it.
	ErrMissingLoader = errors.New("persist: no loader for referenced image")
)

// Options controls how documents are turned into models.
type Options struct {
	// Loader resolves images stored by reference. Optional when the
	// document only embeds images.
	Loader texture.Loader
	// MaxSize is the growth limit of the created canvases; <= 0 selects
	// raster.DefaultMaxSize.
	MaxSize int
	// Workers bounds how many planes are materialized at once; <= 0 uses
	// GOMAXPROCS.
	Workers int
}

// Snapshot copies the model into a current-version document. Every canvas
// is embedded with its own offset; canvases that were never drawn into are
// stored as absent.
func Snapshot(m *scene.Model) *v2.Scene {
	doc := &v2.Scene{Planes: make([]v2.Plane, len(m.Planes))}
	for i, p := range m.Planes {
		out := v2.Plane{Transform: [16]float32(p.Transform)}
		if b, ok := p.Texture.Bounds(); ok {
			w, h, data := raster.ImageBytes(p.Texture)
			out.Image = &v2.Image{
				Data:   v2.ImageData{Kind: v2.ImageEmbed, Size: [2]uint64{uint64(w), uint64(h)}, Data: data},
				Offset: [2]int32{int32(b.Min.X), int32(b.Min.Y)},
			}
		}
		if hm := p.Heightmap; hm != nil {
			if b, ok := hm.Canvas.Bounds(); ok {
				out.Heightmap = &v2.Heightmap{
					Data: v2.HeightmapData{
						Data: append([]float32(nil), hm.Canvas.Pix()...),
						Rows: uint64(b.Dy()),
						Cols: uint64(b.Dx()),
					},
					Offset: [2]int32{int32(b.Min.X), int32(b.Min.Y)},
					Min:    hm.Min,
					Max:    hm.Max,
				}
			}
		}
		doc.Planes[i] = out
	}
	return doc
}

// Save writes the model as a current-version scene file.
func Save(w io.Writer, m *scene.Model) error {
	return format.Write(w, Snapshot(m))
}

// SaveFile writes the model to path. The file is written next to path
// under a temporary name and renamed into place, so a failed save leaves
// any existing file intact.
func SaveFile(path string, m *scene.Model) error {
	return WriteFile(path, Snapshot(m))
}

// WriteFile writes an already snapshotted document to path the way
// SaveFile does.
func WriteFile(path string, doc *v2.Scene) error {
	start := time.Now()
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("persist: save %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	bw := bufio.NewWriter(tmp)
	if err := format.Write(bw, doc); err != nil {
		tmp.Close()
		return fmt.Errorf("persist: save %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("persist: save %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("persist: save %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("persist: save %s: %w", path, err)
	}
	logging.Logger().Info("scene saved", "path", path, "planes", len(doc.Planes), "elapsed", time.Since(start))
	return nil
}

// Materialize builds a model from a document. Planes are realized
// concurrently but keep their serialized order. The first error cancels
// the remaining work and is returned.
func Materialize(ctx context.Context, doc *v2.Scene, opts Options) (*scene.Model, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	planes := make([]*scene.Plane, len(doc.Planes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range doc.Planes {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, err := materializePlane(gctx, &doc.Planes[i], opts)
			if err != nil {
				return fmt.Errorf("persist: plane %d: %w", i, err)
			}
			planes[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &scene.Model{Planes: planes}, nil
}

func materializePlane(ctx context.Context, src *v2.Plane, opts Options) (*scene.Plane, error) {
	p := &scene.Plane{Transform: mgl32.Mat4(src.Transform)}

	var err error
	if src.Image == nil {
		p.Texture = raster.NewImage(opts.MaxSize)
	} else if p.Texture, err = materializeImage(ctx, src.Image, opts); err != nil {
		return nil, err
	}

	if src.Heightmap != nil {
		if p.Heightmap, err = materializeHeightmap(src.Heightmap, opts.MaxSize); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func materializeImage(ctx context.Context, img *v2.Image, opts Options) (*raster.ImageCanvas, error) {
	offset := image.Pt(int(img.Offset[0]), int(img.Offset[1]))
	switch img.Data.Kind {
	case v2.ImageLoad:
		if opts.Loader == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingLoader, img.Data.Path)
		}
		src, err := opts.Loader.Load(ctx, img.Data.Path)
		if err != nil {
			return nil, fmt.Errorf("persist: load image %s: %w", img.Data.Path, err)
		}
		return raster.ImageFromNRGBA(opts.MaxSize, offset, src), nil

	case v2.ImageEmbed:
		w, h := img.Data.Size[0], img.Data.Size[1]
		if w > math.MaxInt32 || h > math.MaxInt32 || w*h*4 != uint64(len(img.Data.Data)) {
			return nil, fmt.Errorf("%w: %d bytes for %dx%d RGBA image", ErrInvalidImage, len(img.Data.Data), w, h)
		}
		c, err := raster.ImageFromBytes(opts.MaxSize, offset, int(w), int(h), img.Data.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidImage, err)
		}
		return c, nil

	default:
		return nil, fmt.Errorf("%w: unknown kind %d", ErrInvalidImage, img.Data.Kind)
	}
}

func materializeHeightmap(hm *v2.Heightmap, maxSize int) (*scene.Heightmap, error) {
	rows, cols := hm.Data.Rows, hm.Data.Cols
	if rows > math.MaxInt32 || cols > math.MaxInt32 || rows*cols != uint64(len(hm.Data.Data)) {
		return nil, fmt.Errorf("%w: %d values for %d rows of %d", ErrInvalidHeightmap, len(hm.Data.Data), rows, cols)
	}
	bounds := image.Rect(0, 0, int(cols), int(rows)).Add(image.Pt(int(hm.Offset[0]), int(hm.Offset[1])))
	c, err := raster.FromPixels(maxSize, bounds, append([]float32(nil), hm.Data.Data...))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidHeightmap, err)
	}
	return &scene.Heightmap{Canvas: c, Min: hm.Min, Max: hm.Max}, nil
}

// Load reads a scene file of any supported version and materializes it.
func Load(ctx context.Context, r io.Reader, opts Options) (*scene.Model, format.Info, error) {
	doc, info, err := format.Read(r)
	if err != nil {
		return nil, info, err
	}
	m, err := Materialize(ctx, doc, opts)
	return m, info, err
}

// LoadFile loads the scene at path. When opts.Loader is a *texture.Cache,
// images referenced by the file are looked up next to it first.
func LoadFile(ctx context.Context, path string, opts Options) (*scene.Model, format.Info, error) {
	start := time.Now()
	f, err := os.Open(path)
	if err != nil {
		return nil, format.Info{}, fmt.Errorf("persist: load %s: %w", path, err)
	}
	defer f.Close()

	if c, ok := opts.Loader.(*texture.Cache); ok {
		opts.Loader = c.WithDir(filepath.Dir(path))
	}
	m, info, err := Load(ctx, f, opts)
	if err != nil {
		return nil, info, fmt.Errorf("persist: load %s: %w", path, err)
	}
	logging.Logger().Info("scene loaded", "path", path, "version", info.Version, "legacy", info.Legacy,
		"planes", len(m.Planes), "elapsed", time.Since(start))
	return m, info, nil
}
