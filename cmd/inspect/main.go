// Command inspect prints the envelope and plane layout of scene files.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/kuviman/PogPaint/internal/config"
	"github.com/kuviman/PogPaint/internal/format"
	v2 "github.com/kuviman/PogPaint/internal/format/v2"
	"github.com/kuviman/PogPaint/internal/logging"
	"github.com/kuviman/PogPaint/internal/persist"
	"github.com/kuviman/PogPaint/internal/texture"
)

func main() {
	load := flag.Bool("load", false, "Also materialize the scene, resolving referenced images")
	configFile := flag.String("config", "", "Path to config file (.toml, .yaml or .json)")
	searchDirs := flag.String("textures", "", "Extra image search directories, separated by "+string(os.PathListSeparator))
	maxSize := flag.Int("maxsize", 0, "Canvas size limit in pixels")
	verbose := flag.Bool("v", false, "Log debug output to stderr")
	flag.Parse()

	if *verbose {
		logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: inspect [-load] [-config file] [-textures dirs] [-maxsize n] [-v] <file.pp>...")
		os.Exit(2)
	}

	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	var extraDirs []string
	if *searchDirs != "" {
		extraDirs = filepath.SplitList(*searchDirs)
	}
	cfg.Resolve(config.Flags{SearchDirs: extraDirs, MaxSize: *maxSize})
	var opts *persist.Options
	if *load {
		opts = loadOptions(&cfg)
	}

	failed := false
	for _, path := range flag.Args() {
		if err := inspect(path, opts); err != nil {
			fmt.Printf("Error: %v\n", err)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func loadOptions(cfg *config.Config) *persist.Options {
	return &persist.Options{
		Loader:  texture.NewCache(texture.NewIndex(cfg.SearchDirs...)),
		MaxSize: cfg.MaxTextureSize,
		Workers: cfg.Workers,
	}
}

// inspect prints the layout of the scene at path. With non-nil opts it also
// materializes the scene, searching the scene's directory before the
// configured ones.
func inspect(path string, opts *persist.Options) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	doc, info, err := format.Read(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	header := format.VersionedHeader
	if info.Legacy {
		header = format.LegacyHeader
	}
	fmt.Printf("%s\n", path)
	fmt.Printf("  Header: %q, version %d (current %d)\n", header, info.Version, format.CurrentVersion)
	fmt.Printf("  Planes: %d\n", len(doc.Planes))
	for i, p := range doc.Planes {
		printPlane(i, p)
	}

	if opts == nil {
		return nil
	}
	local := *opts
	if c, ok := local.Loader.(*texture.Cache); ok {
		local.Loader = c.WithDir(filepath.Dir(path))
	}
	m, err := persist.Materialize(context.Background(), doc, local)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	fmt.Println("  --- Materialized ---")
	for i, p := range m.Planes {
		b, ok := p.Texture.Bounds()
		if !ok {
			fmt.Printf("  Plane[%d]: empty texture\n", i)
			continue
		}
		fmt.Printf("  Plane[%d]: texture %v (%dx%d)\n", i, b, b.Dx(), b.Dy())
	}
	return nil
}

func printPlane(i int, p v2.Plane) {
	t := mgl32.Mat4(p.Transform)
	pos := t.Col(3).Vec3()
	fmt.Printf("  Plane[%d]: origin (%.2f, %.2f, %.2f)\n", i, pos.X(), pos.Y(), pos.Z())

	switch img := p.Image; {
	case img == nil:
		fmt.Println("    Image: none")
	case img.Data.Kind == v2.ImageLoad:
		fmt.Printf("    Image: file %q at %v\n", img.Data.Path, img.Offset)
	default:
		fmt.Printf("    Image: embedded %dx%d (%d bytes) at %v\n",
			img.Data.Size[0], img.Data.Size[1], len(img.Data.Data), img.Offset)
	}

	if hm := p.Heightmap; hm != nil {
		fmt.Printf("    Heightmap: %dx%d at %v, range [%g, %g]\n",
			hm.Data.Cols, hm.Data.Rows, hm.Offset, hm.Min, hm.Max)
	}
}
