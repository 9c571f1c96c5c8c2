// Package stainedglass converts a decoded raster image into a
// stained-glass-style vector artwork: a Voronoi partition of the image
// plane, each cell colored from the source pixels, optionally framed and
// lit. See the subpackages for the individual pipeline stages; this
// package is the composed entry point a host embeds.
package stainedglass

import (
	"context"
	"image"
	"time"

	"github.com/pineappleboogie/stained-glass/colorsample"
	"github.com/pineappleboogie/stained-glass/edgemap"
	"github.com/pineappleboogie/stained-glass/frame"
	"github.com/pineappleboogie/stained-glass/lighting"
	"github.com/pineappleboogie/stained-glass/palette"
	"github.com/pineappleboogie/stained-glass/pipeline"
	"github.com/pineappleboogie/stained-glass/raster"
	"github.com/pineappleboogie/stained-glass/seedpoints"
)

// Re-exported strategy enums, so callers only need to import this
// package to build a Settings value.
type (
	PointDistribution = seedpoints.Distribution
	EdgeMethod        = edgemap.Method
	ColorMode         = colorsample.Mode
	FrameStyle        = frame.Style
	LightPreset       = lighting.Preset
)

const (
	Uniform      = seedpoints.Uniform
	Poisson      = seedpoints.Poisson
	EdgeWeighted = seedpoints.EdgeWeighted

	Sobel = edgemap.Sobel
	Canny = edgemap.Canny

	ExactColor   = colorsample.Exact
	AverageColor = colorsample.Average
	PaletteColor = colorsample.Palette

	NoFrame        = frame.None
	SimpleFrame    = frame.Simple
	SegmentedFrame = frame.Segmented

	LightTopLeft     = lighting.TopLeft
	LightTop         = lighting.Top
	LightTopRight    = lighting.TopRight
	LightRight       = lighting.Right
	LightBottomRight = lighting.BottomRight
	LightBottom      = lighting.Bottom
	LightBottomLeft  = lighting.BottomLeft
	LightLeft        = lighting.Left
	LightCenter      = lighting.Center
	LightCustom      = lighting.Custom
)

// Settings, RGB and the palette ids are re-exported so a host only
// needs this package's import path.
type (
	Settings = pipeline.Settings
	RGB      = palette.RGB
)

// OriginalPalette is the identity color-palette id: colors pass through
// unchanged (spec §4.E).
const OriginalPalette = palette.Original

// NamedPalettes returns the closed set of color-palette ids this module
// recognizes, plus OriginalPalette (spec §6 "Named color palettes").
func NamedPalettes() []string {
	return palette.IDs()
}

// Result bundles the vector document string and the final colored,
// lit cells (spec §6 Outputs).
type Result = pipeline.Result

// LoadImage decodes img into the pixel buffer every stage reads from,
// shrinking it if its longest side exceeds raster.MaxDimension (spec
// §4.A).
func LoadImage(img image.Image) (*raster.Buffer, error) {
	return raster.Load(img)
}

// Run executes the whole pipeline once against buf, honoring ctx
// cancellation at each stage boundary (spec §5). This is the
// stateless, single-shot entry point; use NewOrchestrator for a
// caching, debounced, cancel-on-change session.
func Run(ctx context.Context, buf *raster.Buffer, settings Settings) (Result, error) {
	return pipeline.Run(ctx, buf, settings)
}

// Orchestrator is a caching, debounced pipeline session: repeated calls
// to Submit recompute only the minimal suffix a settings change
// invalidates (spec §4.I), and an in-flight run is cancelled by any
// later Submit (spec §5).
type Orchestrator = pipeline.Orchestrator

// NewOrchestrator returns an Orchestrator that waits debounce (or a
// 200-300ms nominal default when debounce <= 0) after the most recent
// Submit before starting a run.
func NewOrchestrator(debounce time.Duration) *Orchestrator {
	return pipeline.NewOrchestrator(debounce)
}
