package preview

import (
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// LightConfig holds precomputed lighting parameters.
type LightConfig struct {
	LightDir mgl32.Vec3
	RimDir   mgl32.Vec3
	HalfMain mgl32.Vec3 // half-vector for Blinn-Phong
	Ambient  float32
	Hemi     float32
	Direct   float32
	Rim      float32
	SpecInt  float32
	SpecPow  float32
	Exposure float32
	InvGamma float64
}

// DefaultLightConfig returns a key light from the upper right, a rim
// light from behind and a view direction into the screen.
func DefaultLightConfig() LightConfig {
	lightDir := mgl32.Vec3{180, 260, 140}.Normalize()
	rimDir := mgl32.Vec3{-160, 130, -210}.Normalize()
	viewDir := mgl32.Vec3{0, 0, -1}

	return LightConfig{
		LightDir: lightDir,
		RimDir:   rimDir,
		HalfMain: lightDir.Sub(viewDir).Normalize(),
		Ambient:  0.55,
		Hemi:     0.50,
		Direct:   1.50,
		Rim:      0.60,
		SpecInt:  0.45,
		SpecPow:  12.0,
		Exposure: 0.45,
		InvGamma: 1.0 / 2.2,
	}
}

// Shade returns the combined lighting scalar for a unit face normal in
// view space. Faces are lit from both sides.
func (lc *LightConfig) Shade(normal mgl32.Vec3) float32 {
	ndlMain := abs(normal.Dot(lc.LightDir))
	ndlRim := abs(normal.Dot(lc.RimDir))
	hemi := (1-abs(normal.Y()))*0.5 + 0.5

	ndh := max(normal.Dot(lc.HalfMain), 0)
	spec := float32(math.Pow(float64(ndh), float64(lc.SpecPow))) * lc.SpecInt

	return lc.Ambient + hemi*lc.Hemi + ndlMain*lc.Direct + ndlRim*lc.Rim + spec
}

// Apply lights an sRGB colour: decode to linear, scale, tone map with
// ACES and encode again. Alpha is kept.
func (lc *LightConfig) Apply(c color.NRGBA, shade float32) color.NRGBA {
	ch := func(v uint8) uint8 {
		lin := srgbToLinear[v] * float64(shade*lc.Exposure)
		return clamp255(math.Pow(ACESTonemap(lin), lc.InvGamma) * 255)
	}
	return color.NRGBA{R: ch(c.R), G: ch(c.G), B: ch(c.B), A: c.A}
}

// Precomputed sRGB-to-linear lookup table (256 entries).
var srgbToLinear [256]float64

func init() {
	for i := 0; i < 256; i++ {
		srgbToLinear[i] = math.Pow(float64(i)/255.0, 2.2)
	}
}

// ACESTonemap applies ACES Filmic tone mapping to a linear value.
func ACESTonemap(x float64) float64 {
	return (x * (2.51*x + 0.03)) / (x*(2.43*x+0.59) + 0.14)
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
