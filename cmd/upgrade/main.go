// Command upgrade rewrites scene files of any supported version in the
// current version.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/kuviman/PogPaint/internal/batch"
	"github.com/kuviman/PogPaint/internal/config"
	"github.com/kuviman/PogPaint/internal/format"
	"github.com/kuviman/PogPaint/internal/logging"
)

func main() {
	configFile := flag.String("config", "", "Path to config file (.toml, .yaml or .json)")
	outputDir := flag.String("output", "", "Write upgraded files here instead of replacing them")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	manifest := flag.String("manifest", "", "Write a JSON manifest of the run to this path")
	verbose := flag.Bool("v", false, "Log debug output to stderr")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: upgrade [flags] <file.pp|dir>...\n")
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
	cfg.Resolve(config.Flags{OutputDir: *outputDir, Workers: *workers})

	inputs, err := batch.FindScenes(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(inputs) == 0 {
		fmt.Println("No scene files found.")
		os.Exit(0)
	}

	dest := cfg.OutputDir
	if dest == "" {
		dest = "(in place)"
	}
	fmt.Printf("PogPaint scene upgrade -> v%d\n", format.CurrentVersion)
	fmt.Printf("Files: %d, Workers: %d\n", len(inputs), cfg.Workers)
	fmt.Printf("Output: %s\n", dest)
	fmt.Println("------------------------------------------------------------")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	results := batch.Run(ctx, batch.Config{Workers: cfg.Workers, Progress: os.Stdout}, inputs, batch.Upgrade(cfg.OutputDir))

	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", time.Since(start).Seconds())

	upgraded, current := 0, 0
	var failures []batch.Result
	for _, r := range results {
		switch {
		case !r.Success:
			failures = append(failures, r)
		case len(r.Outputs) == 0:
			current++
		default:
			upgraded++
		}
	}
	fmt.Printf("Upgraded: %d, already current: %d\n", upgraded, current)

	if len(failures) > 0 {
		fmt.Printf("\nFailed (%d):\n", len(failures))
		for _, r := range failures[:min(len(failures), 20)] {
			fmt.Printf("  %s: %s\n", r.Input, r.Error)
		}
	}

	if *manifest != "" {
		os.MkdirAll(filepath.Dir(*manifest), 0755)
		if err := batch.WriteManifest(*manifest, results); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: manifest write failed: %v\n", err)
		} else {
			fmt.Printf("Manifest: %s\n", *manifest)
		}
	}

	if len(failures) > 0 {
		os.Exit(1)
	}
}
