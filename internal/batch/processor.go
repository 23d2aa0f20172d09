// Package batch applies one operation to many scene files with a worker
// pool.
package batch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kuviman/PogPaint/internal/export"
	"github.com/kuviman/PogPaint/internal/format"
	"github.com/kuviman/PogPaint/internal/logging"
	"github.com/kuviman/PogPaint/internal/persist"
)

// Config holds the shared settings of a batch run.
type Config struct {
	Workers int
	// Progress receives a status line every ProgressInterval; nil disables it.
	Progress         io.Writer
	ProgressInterval time.Duration
}

// Result holds the outcome of processing one file.
type Result struct {
	Input   string
	Version uint8 // version the file was stored in
	Legacy  bool
	Planes  int
	Outputs []string
	Success bool
	Error   string
}

// Task processes one input file.
type Task func(ctx context.Context, input string) Result

// Run processes all inputs using a worker pool. Results are in input order.
// Inputs not yet started when ctx is cancelled fail with the context error.
func Run(ctx context.Context, cfg Config, inputs []string, task Task) []Result {
	total := len(inputs)
	results := make([]Result, total)
	var processed atomic.Int64

	workers := max(cfg.Workers, 1)
	interval := cfg.ProgressInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	start := time.Now()

	done := make(chan struct{})
	if cfg.Progress != nil {
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					if p := processed.Load(); p > 0 {
						rate := float64(p) / time.Since(start).Seconds()
						fmt.Fprintf(cfg.Progress, "  [%d/%d] %.1f files/sec\n", p, total, rate)
					}
				}
			}
		}()
	}

	jobs := make(chan int, workers*2)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if err := ctx.Err(); err != nil {
					results[idx] = Result{Input: inputs[idx], Error: err.Error()}
				} else {
					results[idx] = task(ctx, inputs[idx])
				}
				processed.Add(1)
			}
		}()
	}

	for i := range inputs {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	close(done)

	logging.Logger().Info("batch finished", "files", total, "elapsed", time.Since(start))
	return results
}

func failed(input string, info format.Info, err error) Result {
	return Result{Input: input, Version: info.Version, Legacy: info.Legacy, Error: err.Error()}
}

// outputPath places input's base name, with ext, in dir, or next to input
// when dir is empty.
func outputPath(input, dir, ext string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)) + ext
	if dir == "" {
		return filepath.Join(filepath.Dir(input), base)
	}
	return filepath.Join(dir, base)
}

// Upgrade returns a task that rewrites a scene file in the current version.
// Files go to outDir, or are replaced in place when outDir is empty. Files
// already in the current version are left alone unless written elsewhere.
func Upgrade(outDir string) Task {
	return func(ctx context.Context, input string) Result {
		f, err := os.Open(input)
		if err != nil {
			return failed(input, format.Info{}, err)
		}
		doc, info, err := format.Read(f)
		f.Close()
		if err != nil {
			return failed(input, info, err)
		}

		r := Result{Input: input, Version: info.Version, Legacy: info.Legacy, Planes: len(doc.Planes), Success: true}
		if outDir == "" && !info.Legacy && info.Version == format.CurrentVersion {
			return r
		}
		if outDir != "" {
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return failed(input, info, err)
			}
		}
		out := outputPath(input, outDir, format.Extension)
		if err := persist.WriteFile(out, doc); err != nil {
			return failed(input, info, err)
		}
		r.Outputs = []string{out}
		return r
	}
}

// Export returns a task that loads a scene file and writes its canvases
// as images into a directory named after the file inside outDir (or next
// to the file when outDir is empty).
func Export(outDir string, load persist.Options, opts export.Options) Task {
	return func(ctx context.Context, input string) Result {
		m, info, err := persist.LoadFile(ctx, input, load)
		if err != nil {
			return failed(input, info, err)
		}
		dir := outputPath(input, outDir, "")
		stem := filepath.Base(dir)
		paths, err := export.Scene(m, dir, stem, opts)
		if err != nil {
			return failed(input, info, err)
		}
		return Result{
			Input:   input,
			Version: info.Version,
			Legacy:  info.Legacy,
			Planes:  len(m.Planes),
			Outputs: paths,
			Success: true,
		}
	}
}

// FindScenes expands paths into scene files: files are taken as given and
// directories are walked for files with the scene extension. The result is
// sorted within each directory.
func FindScenes(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("batch: %w", err)
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.EqualFold(filepath.Ext(path), format.Extension) {
				out = append(out, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("batch: walk %s: %w", p, err)
		}
	}
	return out, nil
}
