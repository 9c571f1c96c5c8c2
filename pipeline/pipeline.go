// Package pipeline wires the leaf stages (edge map, seed points,
// tessellation, color sampling, frame synthesis, lighting, vector
// emission) into the directed pipeline described by the system, and
// owns the per-stage cache and minimal-recompute policy (spec §4.I).
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/pineappleboogie/stained-glass/colorsample"
	"github.com/pineappleboogie/stained-glass/edgemap"
	"github.com/pineappleboogie/stained-glass/frame"
	"github.com/pineappleboogie/stained-glass/geomutil"
	"github.com/pineappleboogie/stained-glass/lighting"
	"github.com/pineappleboogie/stained-glass/palette"
	"github.com/pineappleboogie/stained-glass/raster"
	"github.com/pineappleboogie/stained-glass/seedpoints"
	"github.com/pineappleboogie/stained-glass/svgdoc"
	"github.com/pineappleboogie/stained-glass/voronoi"
)

// Settings is the complete user-configurable parameter record (spec §6).
type Settings struct {
	CellCount            int
	PointDistribution    seedpoints.Distribution
	EdgeInfluence        float64
	RelaxationIterations int

	PreBlur         float64
	Contrast        float64
	EdgeMethod      edgemap.Method
	EdgeSensitivity float64

	LineWidth float64
	LineColor palette.RGB

	ColorMode    colorsample.Mode
	PaletteSize  int
	Saturation   float64
	Brightness   float64
	ColorPalette string

	FrameStyle        frame.Style
	FrameWidth        float64
	FrameCellSize     float64
	FrameColorPalette string
	FrameHueShift     float64
	FrameSaturation   float64
	FrameBrightness   float64

	Lighting lighting.Settings

	// Seed drives every random choice in the run (seed generation jitter,
	// ray variation) so identical settings reproduce identical output
	// (spec §9 open question a).
	Seed int64
}

// Clamp silently clamps every field to its documented range (spec §7:
// out-of-range values are clamped at stage entry, never rejected).
func (s *Settings) Clamp() {
	if s.CellCount < 50 {
		s.CellCount = 50
	}
	if s.CellCount > 2000 {
		s.CellCount = 2000
	}
	s.EdgeInfluence = geomutil.Clamp01(s.EdgeInfluence)
	if s.RelaxationIterations < 0 {
		s.RelaxationIterations = 0
	}
	if s.RelaxationIterations > 5 {
		s.RelaxationIterations = 5
	}
	s.PreBlur = geomutil.Clamp(s.PreBlur, 0, 10)
	s.Contrast = geomutil.Clamp(s.Contrast, 0.5, 2.0)
	s.EdgeSensitivity = geomutil.Clamp(s.EdgeSensitivity, 0, 100)
	s.LineWidth = geomutil.Clamp(s.LineWidth, 0.5, 10)

	if s.PaletteSize < 4 {
		s.PaletteSize = 4
	}
	if s.PaletteSize > 64 {
		s.PaletteSize = 64
	}
	s.Saturation = geomutil.Clamp(s.Saturation, 0, 2)
	s.Brightness = geomutil.Clamp(s.Brightness, 0, 2)

	s.FrameWidth = geomutil.Clamp(s.FrameWidth, 2, 15)
	s.FrameCellSize = geomutil.Clamp(s.FrameCellSize, 30, 150)
	s.FrameHueShift = math.Mod(math.Mod(s.FrameHueShift, 360)+360, 360)
	s.FrameSaturation = geomutil.Clamp(s.FrameSaturation, 0, 2)
	s.FrameBrightness = geomutil.Clamp(s.FrameBrightness, 0, 2)

	s.Lighting.Clamp()
}

// Result bundles the two artifacts a run produces (spec §6 Outputs).
type Result struct {
	Document string
	Cells    []lighting.LitCell
}

// Run executes the full pipeline once, with no caching, honoring ctx
// cancellation at each stage boundary (spec §5). It is the pipeline's
// pure, stateless entry point; Orchestrator builds caching on top of the
// same stage functions.
func Run(ctx context.Context, buf *raster.Buffer, settings Settings) (Result, error) {
	settings.Clamp()

	frameRes := computeFrame(buf, settings)
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	_, cells, err := computeCells(ctx, buf, frameRes.Inner, settings)
	if err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	colored := computeColoredCells(buf, cells, settings)
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	lit := computeLighting(buf, colored, settings)
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	doc, err := emit(buf, frameRes, lit, settings)
	if err != nil {
		return Result{}, err
	}
	return Result{Document: doc, Cells: lit.Cells}, nil
}

// computeCells tessellates rect — the artwork rectangle left over once
// the frame (if any) has claimed its border, per spec §4.F "the Voronoi
// cells fill the inner artwork rectangle" — rather than the full image.
func computeCells(ctx context.Context, buf *raster.Buffer, rect geomutil.Rect, settings Settings) (*edgemap.Map, []voronoi.Cell, error) {
	var edges *edgemap.Map
	if settings.PointDistribution == seedpoints.EdgeWeighted {
		var err error
		edges, err = edgemap.Compute(ctx, buf, edgemap.Params{
			PreBlur:     settings.PreBlur,
			Contrast:    settings.Contrast,
			Method:      settings.EdgeMethod,
			Sensitivity: settings.EdgeSensitivity,
		})
		if err != nil {
			return nil, nil, err
		}
	}

	seeds := seedpoints.Generate(rect, seedpoints.Params{
		Count:         settings.CellCount,
		Distribution:  settings.PointDistribution,
		EdgeInfluence: settings.EdgeInfluence,
		Seed:          settings.Seed,
	}, edges)

	cells := voronoi.Relax(rect, seeds, settings.RelaxationIterations)
	return edges, cells, nil
}

func computeColoredCells(buf *raster.Buffer, cells []voronoi.Cell, settings Settings) []colorsample.Cell {
	return colorsample.Sample(buf, cells, colorsample.Params{
		Mode:           settings.ColorMode,
		PaletteSize:    settings.PaletteSize,
		Saturation:     settings.Saturation,
		Brightness:     settings.Brightness,
		ColorPaletteID: settings.ColorPalette,
	})
}

func computeFrame(buf *raster.Buffer, settings Settings) frame.Result {
	return frame.Build(buf, frame.Params{
		Style:          settings.FrameStyle,
		WidthPercent:   settings.FrameWidth,
		CellSize:       settings.FrameCellSize,
		ColorPaletteID: settings.FrameColorPalette,
		HueShift:       settings.FrameHueShift,
		Saturation:     settings.FrameSaturation,
		Brightness:     settings.FrameBrightness,
	})
}

func computeLighting(buf *raster.Buffer, colored []colorsample.Cell, settings Settings) lighting.Result {
	light := settings.Lighting
	light.Seed = settings.Seed
	return lighting.Apply(float64(buf.Width), float64(buf.Height), colored, light)
}

func emit(buf *raster.Buffer, frameRes frame.Result, lit lighting.Result, settings Settings) (string, error) {
	var out bytes.Buffer
	err := svgdoc.Write(&out, svgdoc.Input{
		Width: float64(buf.Width), Height: float64(buf.Height),
		LineWidth: settings.LineWidth, LineColor: settings.LineColor,
		Frame: frameRes.Elements, Cells: lit.Cells,
		LightingEnabled: settings.Lighting.Enabled, DarkMode: settings.Lighting.DarkMode,
		BackRays: lit.BackRays, FrontRays: lit.FrontRays,
		Glows: lit.Glows, GlowSigma: lit.GlowSigma, GlowOpacity: lighting.GlowOpacity(settings.Lighting),
	})
	if err != nil {
		return "", fmt.Errorf("pipeline: emit document: %w", err)
	}
	return out.String(), nil
}

// Stage names a cache boundary in the dependency table (spec §4.I).
type Stage int

const (
	StageNone Stage = iota
	StageEdgeMap
	StageFrame
	StageCells
	StageColoredCells
	StageDocument
)

// Diff reports the earliest stage whose cached output is invalidated by
// moving from old to new settings (spec §4.I, supplemented per SPEC_FULL
// to make the dependency table queryable instead of only encoded as
// scattered conditionals inside Orchestrator). Frame settings are
// checked before cell settings: the frame determines the inner artwork
// rectangle cells tessellate within (spec §4.F), so any frame change —
// geometry or cosmetic — must invalidate cells too, and StageFrame sits
// earlier than StageCells for exactly that reason.
func Diff(old, new Settings) Stage {
	if old.PreBlur != new.PreBlur || old.Contrast != new.Contrast ||
		old.EdgeMethod != new.EdgeMethod || old.EdgeSensitivity != new.EdgeSensitivity {
		return StageEdgeMap
	}
	if old.FrameStyle != new.FrameStyle || old.FrameWidth != new.FrameWidth ||
		old.FrameCellSize != new.FrameCellSize || old.FrameColorPalette != new.FrameColorPalette ||
		old.FrameHueShift != new.FrameHueShift || old.FrameSaturation != new.FrameSaturation ||
		old.FrameBrightness != new.FrameBrightness {
		return StageFrame
	}
	if old.CellCount != new.CellCount || old.PointDistribution != new.PointDistribution ||
		old.EdgeInfluence != new.EdgeInfluence || old.RelaxationIterations != new.RelaxationIterations ||
		old.Seed != new.Seed {
		return StageCells
	}
	if old.ColorMode != new.ColorMode || old.PaletteSize != new.PaletteSize ||
		old.Saturation != new.Saturation || old.Brightness != new.Brightness ||
		old.ColorPalette != new.ColorPalette {
		return StageColoredCells
	}
	if old.LineWidth != new.LineWidth || old.LineColor != new.LineColor || old.Lighting != new.Lighting {
		return StageDocument
	}
	return StageNone
}

// cache holds the last completed run's per-stage outputs, keyed by the
// settings fields each stage depends on (spec §4.I: a settings change
// invalidates only the smallest dependent suffix).
type cache struct {
	buf      *raster.Buffer
	settings Settings
	valid    bool

	edges   *edgemap.Map
	cells   []voronoi.Cell
	colored []colorsample.Cell
	frame   frame.Result
	lit     lighting.Result
	doc     string
}

// Orchestrator runs pipeline stages against a stream of settings
// changes, caching intermediate stages and recomputing only the suffix
// a change actually invalidates (spec §4.I), debouncing rapid changes
// and cancelling any in-flight older run (spec §5).
type Orchestrator struct {
	mu       sync.Mutex
	cache    cache
	debounce time.Duration
	timer    *time.Timer
	cancel   context.CancelFunc
	gen      uint64
}

// NewOrchestrator returns an Orchestrator that waits debounce (clamped
// into the spec's 200-300ms nominal band when zero) before starting a
// run after the most recent Submit call.
func NewOrchestrator(debounce time.Duration) *Orchestrator {
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}
	return &Orchestrator{debounce: debounce}
}

// Submit schedules a run for buf/settings after the debounce interval,
// cancelling any run already in flight or still waiting. onDone is
// called exactly once per accepted Submit, from a background goroutine,
// unless a later Submit cancels it first (in which case it is never
// called for the stale request).
func (o *Orchestrator) Submit(buf *raster.Buffer, settings Settings, onDone func(Result, error)) {
	settings.Clamp()

	o.mu.Lock()
	if o.timer != nil {
		o.timer.Stop()
	}
	if o.cancel != nil {
		o.cancel()
	}
	o.gen++
	gen := o.gen
	o.mu.Unlock()

	o.timer = time.AfterFunc(o.debounce, func() {
		o.runGeneration(gen, buf, settings, onDone)
	})
}

func (o *Orchestrator) runGeneration(gen uint64, buf *raster.Buffer, settings Settings, onDone func(Result, error)) {
	ctx, cancel := context.WithCancel(context.Background())

	o.mu.Lock()
	if gen != o.gen {
		o.mu.Unlock()
		cancel()
		return
	}
	o.cancel = cancel
	o.mu.Unlock()

	res, err := o.runCached(ctx, buf, settings)

	o.mu.Lock()
	stale := gen != o.gen
	o.mu.Unlock()
	if stale || ctx.Err() != nil {
		log.Printf("pipeline: run generation %d cancelled or superseded, discarding result", gen)
		return
	}
	if onDone != nil {
		onDone(res, err)
	}
}

// runCached recomputes exactly the stages Diff(o.cache.settings,
// settings) says are dirty, reusing every cached stage before it.
func (o *Orchestrator) runCached(ctx context.Context, buf *raster.Buffer, settings Settings) (Result, error) {
	o.mu.Lock()
	c := o.cache
	o.mu.Unlock()

	from := StageEdgeMap
	if c.valid && c.buf == buf {
		from = Diff(c.settings, settings)
	}

	if from == StageNone {
		return Result{Document: c.doc, Cells: c.lit.Cells}, nil
	}

	next := c
	next.buf = buf
	next.settings = settings

	if from <= StageFrame {
		next.frame = computeFrame(buf, settings)
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	if from <= StageCells {
		edges, cells, err := computeCells(ctx, buf, next.frame.Inner, settings)
		if err != nil {
			return Result{}, err
		}
		next.edges, next.cells = edges, cells
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	if from <= StageColoredCells {
		next.colored = computeColoredCells(buf, next.cells, settings)
	}

	next.lit = computeLighting(buf, next.colored, settings)
	doc, err := emit(buf, next.frame, next.lit, settings)
	if err != nil {
		return Result{}, err
	}
	next.doc = doc
	next.valid = true

	o.mu.Lock()
	o.cache = next
	o.mu.Unlock()

	return Result{Document: doc, Cells: next.lit.Cells}, nil
}
