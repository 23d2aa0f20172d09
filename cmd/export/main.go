// Command export writes the canvases of scene files as WebP or PNG images.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/kuviman/PogPaint/internal/batch"
	"github.com/kuviman/PogPaint/internal/config"
	"github.com/kuviman/PogPaint/internal/export"
	"github.com/kuviman/PogPaint/internal/logging"
	"github.com/kuviman/PogPaint/internal/persist"
	"github.com/kuviman/PogPaint/internal/preview"
	"github.com/kuviman/PogPaint/internal/texture"
)

func main() {
	configFile := flag.String("config", "", "Path to config file (.toml, .yaml or .json)")
	outputDir := flag.String("output", "", "Output directory (default: next to each scene)")
	formatName := flag.String("format", "webp", "Image format: webp or png")
	thumbnail := flag.Int("thumbnail", -1, "Scale textures to fit this size; 0 keeps full size (default: config thumbnail_size)")
	flatten := flag.Bool("flatten", false, "Composite textures over the configured background colour")
	heightmaps := flag.Bool("heightmaps", false, "Also export heightmaps as grayscale images")
	searchDirs := flag.String("textures", "", "Extra image search directories, separated by "+string(os.PathListSeparator))
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	maxSize := flag.Int("maxsize", 0, "Canvas size limit in pixels")
	manifest := flag.String("manifest", "", "Write a JSON manifest of the run to this path")
	previewSize := flag.Int("preview", 0, "Also render a preview of the whole scene at this size")
	yaw := flag.Float64("yaw", 30, "Preview camera yaw in degrees")
	pitch := flag.Float64("pitch", 20, "Preview camera pitch in degrees")
	fov := flag.Float64("fov", 0, "Preview field of view in degrees; 0 renders orthographic")
	shade := flag.Bool("shade", false, "Light preview planes by orientation")
	watch := flag.Bool("watch", false, "Export again whenever a referenced image changes")
	verbose := flag.Bool("v", false, "Log debug output to stderr")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: export [flags] <file.pp|dir>...\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *verbose {
		logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
	if flag.NArg() == 0 {
		flag.Usage()
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
	cfg.Resolve(config.Flags{SearchDirs: extraDirs, OutputDir: *outputDir, MaxSize: *maxSize, Workers: *workers})

	imgFormat, err := export.ParseFormat(*formatName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	opts := export.Options{Format: imgFormat, Thumbnail: cfg.ThumbnailSize, Heightmaps: *heightmaps}
	if *thumbnail >= 0 {
		opts.Thumbnail = *thumbnail
	}
	bg := cfg.BackgroundColor.NRGBA()
	if *flatten {
		opts.Background = &bg
	}
	if *previewSize > 0 {
		opts.Preview = &preview.Options{
			Width:      *previewSize,
			Height:     *previewSize,
			Margin:     *previewSize / 16,
			Background: bg,
			Shading:    *shade,
			Camera: preview.Camera{
				Yaw:         float32(*yaw),
				Pitch:       float32(*pitch),
				Perspective: *fov > 0,
				FOV:         float32(*fov),
			},
		}
	}

	inputs, err := batch.FindScenes(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(inputs) == 0 {
		fmt.Println("No scene files found.")
		os.Exit(0)
	}

	cache := texture.NewCache(texture.NewIndex(cfg.SearchDirs...))
	load := persist.Options{Loader: cache, MaxSize: cfg.MaxTextureSize, Workers: 2}
	task := batch.Export(cfg.OutputDir, load, opts)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("PogPaint scene export -> %s\n", imgFormat)
	fmt.Printf("Files: %d, Workers: %d\n", len(inputs), cfg.Workers)
	fmt.Printf("Texture dirs: %s\n", strings.Join(cfg.SearchDirs, ", "))

	failed := run(ctx, cfg, inputs, task, *manifest)
	if !*watch {
		if failed > 0 {
			os.Exit(1)
		}
		return
	}

	w, err := texture.NewWatcher(cache, watchDirs(cfg.SearchDirs, inputs)...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: watch: %v\n", err)
		os.Exit(1)
	}
	defer w.Close()
	fmt.Println("Watching for image changes (Ctrl+C to stop)")
	for {
		select {
		case <-ctx.Done():
			return
		case path, ok := <-w.Events:
			if !ok {
				return
			}
			fmt.Printf("Changed: %s\n", path)
			run(ctx, cfg, inputs, task, *manifest)
		case err, ok := <-w.Errors:
			if ok {
				fmt.Fprintf(os.Stderr, "Warning: watch: %v\n", err)
			}
		}
	}
}

func run(ctx context.Context, cfg config.Config, inputs []string, task batch.Task, manifest string) int {
	fmt.Println("------------------------------------------------------------")
	start := time.Now()
	results := batch.Run(ctx, batch.Config{Workers: cfg.Workers, Progress: os.Stdout}, inputs, task)

	images := 0
	for _, r := range results {
		images += len(r.Outputs)
	}
	failed := batch.Failed(results)
	fmt.Printf("Done in %.1fs: %d images from %d/%d scenes\n",
		time.Since(start).Seconds(), images, len(results)-failed, len(results))
	for _, r := range results {
		if !r.Success {
			fmt.Printf("  %s: %s\n", r.Input, r.Error)
		}
	}

	if manifest != "" {
		if err := batch.WriteManifest(manifest, results); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: manifest write failed: %v\n", err)
		}
	}
	return failed
}

// watchDirs returns the search directories plus the directory of every
// input, without duplicates.
func watchDirs(searchDirs, inputs []string) []string {
	seen := make(map[string]bool)
	var dirs []string
	for _, d := range searchDirs {
		if !seen[d] {
			seen[d] = true
			dirs = append(dirs, d)
		}
	}
	for _, in := range inputs {
		if d := filepath.Dir(in); !seen[d] {
			seen[d] = true
			dirs = append(dirs, d)
		}
	}
	return dirs
}
