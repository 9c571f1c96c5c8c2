package pipeline

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pineappleboogie/stained-glass/colorsample"
	"github.com/pineappleboogie/stained-glass/edgemap"
	"github.com/pineappleboogie/stained-glass/frame"
	"github.com/pineappleboogie/stained-glass/geomutil"
	"github.com/pineappleboogie/stained-glass/palette"
	"github.com/pineappleboogie/stained-glass/raster"
	"github.com/pineappleboogie/stained-glass/seedpoints"
)

func baseSettings() Settings {
	return Settings{
		CellCount: 30, PointDistribution: seedpoints.Uniform, RelaxationIterations: 0,
		Contrast: 1, EdgeMethod: edgemap.Sobel, EdgeSensitivity: 50,
		LineWidth: 1, LineColor: palette.RGB{},
		ColorMode: colorsample.Exact, PaletteSize: 8, Saturation: 1, Brightness: 1,
		FrameStyle: frame.None,
		Seed:       3,
	}
}

func solidBuffer(w, h int, c palette.RGB) *raster.Buffer {
	buf := &raster.Buffer{Width: w, Height: h, Pix: make([]byte, w*h*3)}
	for i := 0; i < w*h; i++ {
		buf.Pix[i*3+0] = c.R
		buf.Pix[i*3+1] = c.G
		buf.Pix[i*3+2] = c.B
	}
	return buf
}

func TestDiffDetectsEachStageBoundary(t *testing.T) {
	a := baseSettings()

	b := a
	b.PreBlur = 3
	if got := Diff(a, b); got != StageEdgeMap {
		t.Fatalf("Diff preBlur change = %v, want StageEdgeMap", got)
	}

	c := a
	c.CellCount = 100
	if got := Diff(a, c); got != StageCells {
		t.Fatalf("Diff cellCount change = %v, want StageCells", got)
	}

	d := a
	d.Saturation = 1.5
	if got := Diff(a, d); got != StageColoredCells {
		t.Fatalf("Diff saturation change = %v, want StageColoredCells", got)
	}

	e := a
	e.FrameWidth = 10
	if got := Diff(a, e); got != StageFrame {
		t.Fatalf("Diff frameWidth change = %v, want StageFrame", got)
	}

	f := a
	f.LineWidth = 3
	if got := Diff(a, f); got != StageDocument {
		t.Fatalf("Diff lineWidth change = %v, want StageDocument", got)
	}

	if got := Diff(a, a); got != StageNone {
		t.Fatalf("Diff identical settings = %v, want StageNone", got)
	}
}

func TestRunProducesNonEmptyDocument(t *testing.T) {
	buf := solidBuffer(30, 30, palette.RGB{R: 10, G: 200, B: 30})
	res, err := Run(context.Background(), buf, baseSettings())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Document == "" {
		t.Fatalf("Run produced an empty document")
	}
	if len(res.Cells) == 0 {
		t.Fatalf("Run produced no cells")
	}
}

func TestRunIsDeterministicForFixedSeed(t *testing.T) {
	buf := solidBuffer(40, 40, palette.RGB{R: 80, G: 90, B: 100})
	settings := baseSettings()
	settings.PointDistribution = seedpoints.Poisson

	a, err := Run(context.Background(), buf, settings)
	if err != nil {
		t.Fatalf("Run a: %v", err)
	}
	b, err := Run(context.Background(), buf, settings)
	if err != nil {
		t.Fatalf("Run b: %v", err)
	}
	if a.Document != b.Document {
		t.Fatalf("Run is not deterministic for identical settings and seed")
	}
}

// TestRunWithFrameTessellatesInnerRectOnly reproduces spec §8 scenario 4:
// with a frame enabled, every colored cell must lie within the inner
// artwork rectangle the frame leaves behind, never under the frame
// border itself.
func TestRunWithFrameTessellatesInnerRectOnly(t *testing.T) {
	buf := solidBuffer(120, 120, palette.RGB{R: 40, G: 160, B: 90})
	settings := baseSettings()
	settings.FrameStyle = frame.Simple
	settings.FrameWidth = 10

	res, err := Run(context.Background(), buf, settings)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Cells) == 0 {
		t.Fatalf("Run produced no cells")
	}

	depth := 120 * 10 / 100.0
	inner := geomutil.Rect{
		Min: geomutil.Point{X: depth, Y: depth},
		Max: geomutil.Point{X: 120 - depth, Y: 120 - depth},
	}
	for _, c := range res.Cells {
		for _, v := range c.Polygon {
			if v.X < inner.Min.X-1e-6 || v.X > inner.Max.X+1e-6 ||
				v.Y < inner.Min.Y-1e-6 || v.Y > inner.Max.Y+1e-6 {
				t.Fatalf("cell %d vertex %v falls outside the inner rect %+v (frame would be occluded)", c.Index, v, inner)
			}
		}
	}
	if !strings.Contains(res.Document, "frame-layer") {
		t.Fatalf("document missing frame-layer with FrameStyle=Simple")
	}
}

// TestDiffFrameGeometryChangeAlsoInvalidatesCells guards the cache
// dependency table: a frame-geometry change moves the inner rectangle
// cells tessellate within, so it must report a stage no later than
// StageCells so Orchestrator recomputes both.
func TestDiffFrameGeometryChangeAlsoInvalidatesCells(t *testing.T) {
	a := baseSettings()
	b := a
	b.FrameStyle = frame.Simple
	b.FrameWidth = 8

	got := Diff(a, b)
	if got > StageCells {
		t.Fatalf("Diff frame geometry change = %v, want <= StageCells so cells recompute too", got)
	}
}

func TestOrchestratorSubmitDebouncesAndReturnsResult(t *testing.T) {
	buf := solidBuffer(20, 20, palette.RGB{R: 50, G: 60, B: 70})
	o := NewOrchestrator(10 * time.Millisecond)

	var wg sync.WaitGroup
	wg.Add(1)
	var gotErr error
	var gotDoc string
	o.Submit(buf, baseSettings(), func(res Result, err error) {
		gotErr = err
		gotDoc = res.Document
		wg.Done()
	})

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Orchestrator.Submit never called onDone")
	}

	if gotErr != nil {
		t.Fatalf("Orchestrator run error: %v", gotErr)
	}
	if gotDoc == "" {
		t.Fatalf("Orchestrator produced an empty document")
	}
}

func TestOrchestratorSecondSubmitCancelsFirst(t *testing.T) {
	buf := solidBuffer(20, 20, palette.RGB{R: 1, G: 2, B: 3})
	o := NewOrchestrator(5 * time.Millisecond)

	var calls int
	var mu sync.Mutex
	onDone := func(res Result, err error) {
		mu.Lock()
		calls++
		mu.Unlock()
	}

	o.Submit(buf, baseSettings(), onDone)
	s2 := baseSettings()
	s2.Saturation = 1.3
	o.Submit(buf, s2, onDone)

	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Fatalf("onDone called %d times, want exactly 1 (stale submit should be dropped)", calls)
	}
}

func TestEmitReturnsValidWrappedErrorIsNotExpected(t *testing.T) {
	// emit() should succeed for a well-formed, small lit result; this is
	// mostly a smoke test that the svgdoc wiring inside pipeline compiles
	// and produces expected substrings.
	buf := solidBuffer(10, 10, palette.RGB{R: 5, G: 5, B: 5})
	res, err := Run(context.Background(), buf, baseSettings())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(res.Document, "<svg") {
		t.Fatalf("document missing <svg root element")
	}
}
