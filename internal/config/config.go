// Package config loads tool settings from TOML, YAML or JSON files.
package config

import (
	"encoding/json"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/kuviman/PogPaint/internal/paint"
	"github.com/kuviman/PogPaint/internal/raster"
)

// Config holds editor and tool settings.
type Config struct {
	MaxTextureSize  int       `json:"max_texture_size" toml:"max_texture_size" yaml:"max_texture_size"`
	Heightmap       Heightmap `json:"heightmap" toml:"heightmap" yaml:"heightmap"`
	DefaultBrush    Brush     `json:"default_brush" toml:"default_brush" yaml:"default_brush"`
	BackgroundColor Color     `json:"background_color" toml:"background_color" yaml:"background_color"`
	DefaultPalette  []Color   `json:"default_palette" toml:"default_palette" yaml:"default_palette"`

	// Paths searched for images that scene files reference by name.
	SearchDirs []string `json:"search_dirs" toml:"search_dirs" yaml:"search_dirs"`
	OutputDir  string   `json:"output_dir" toml:"output_dir" yaml:"output_dir"`

	// Batch settings
	Workers       int `json:"workers" toml:"workers" yaml:"workers"`
	ThumbnailSize int `json:"thumbnail_size" toml:"thumbnail_size" yaml:"thumbnail_size"`
}

// Heightmap is the range new heightmaps are created with.
type Heightmap struct {
	Min float32 `json:"min" toml:"min" yaml:"min"`
	Max float32 `json:"max" toml:"max" yaml:"max"`
}

// Brush is the initial paint tool.
type Brush struct {
	Size  int   `json:"size" toml:"size" yaml:"size"`
	Color Color `json:"color" toml:"color" yaml:"color"`
}

// Load reads a config file, choosing the parser by extension.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	case ".json":
		err = json.Unmarshal(data, &cfg)
	default:
		return Config{}, fmt.Errorf("config: unknown format %q: %s", ext, path)
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	// relative search dirs are taken from the config file's directory
	base := filepath.Dir(path)
	for i, dir := range cfg.SearchDirs {
		if !filepath.IsAbs(dir) {
			cfg.SearchDirs[i] = filepath.Join(base, dir)
		}
	}
	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	SearchDirs []string
	OutputDir  string
	MaxSize    int
	Workers    int
}

// Resolve applies flag overrides and fills unset fields with defaults.
func (c *Config) Resolve(flags Flags) {
	if len(flags.SearchDirs) > 0 {
		c.SearchDirs = append(append([]string(nil), flags.SearchDirs...), c.SearchDirs...)
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.MaxSize > 0 {
		c.MaxTextureSize = flags.MaxSize
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}

	if c.MaxTextureSize <= 0 {
		c.MaxTextureSize = raster.DefaultMaxSize
	}
	if c.Heightmap == (Heightmap{}) {
		c.Heightmap = Heightmap{Min: 0, Max: 1}
	}
	if c.DefaultBrush.Size <= 0 {
		c.DefaultBrush.Size = 8
	}
	if c.DefaultBrush.Color == (Color{}) {
		c.DefaultBrush.Color = Color{A: 255}
	}
	if c.BackgroundColor == (Color{}) {
		c.BackgroundColor = Color{R: 0x33, G: 0x33, B: 0x33, A: 255}
	}
	if len(c.DefaultPalette) == 0 {
		c.DefaultPalette = []Color{
			{A: 255},
			{R: 255, G: 255, B: 255, A: 255},
			{R: 255, A: 255},
			{G: 255, A: 255},
			{B: 255, A: 255},
		}
	}
	if c.ThumbnailSize <= 0 {
		c.ThumbnailSize = 256
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
}

// DefaultTool returns the brush new editing sessions start with.
func (c *Config) DefaultTool() paint.Tool {
	return paint.Tool{
		Kind:      paint.Brush,
		Size:      c.DefaultBrush.Size,
		Color:     c.DefaultBrush.Color.NRGBA(),
		MinHeight: c.Heightmap.Min,
		MaxHeight: c.Heightmap.Max,
	}
}

// Palette returns the default palette as colours.
func (c *Config) Palette() []color.NRGBA {
	out := make([]color.NRGBA, len(c.DefaultPalette))
	for i, p := range c.DefaultPalette {
		out[i] = p.NRGBA()
	}
	return out
}

// Color is a straight-alpha colour written as "#rrggbb" or "#rrggbbaa".
type Color color.NRGBA

// NRGBA returns c as a color.NRGBA.
func (c Color) NRGBA() color.NRGBA { return color.NRGBA(c) }

// ParseColor parses "#rrggbb" or "#rrggbbaa"; the leading '#' is optional.
func ParseColor(s string) (Color, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 && len(s) != 8 {
		return Color{}, fmt.Errorf("config: bad colour %q", s)
	}
	var v [4]uint8
	v[3] = 255
	for i := 0; i < len(s)/2; i++ {
		hi, ok1 := hexDigit(s[2*i])
		lo, ok2 := hexDigit(s[2*i+1])
		if !ok1 || !ok2 {
			return Color{}, fmt.Errorf("config: bad colour %q", s)
		}
		v[i] = hi<<4 | lo
	}
	return Color{R: v[0], G: v[1], B: v[2], A: v[3]}, nil
}

func hexDigit(b byte) (uint8, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	}
	return 0, false
}

// String formats c as "#rrggbb", or "#rrggbbaa" when not opaque.
func (c Color) String() string {
	if c.A == 255 {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

func (c *Color) UnmarshalText(text []byte) error {
	v, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}
