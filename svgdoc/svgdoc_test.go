package svgdoc

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pineappleboogie/stained-glass/geomutil"
	"github.com/pineappleboogie/stained-glass/lighting"
	"github.com/pineappleboogie/stained-glass/palette"
)

func solidRedCells(n int) []lighting.LitCell {
	cells := make([]lighting.LitCell, n)
	for i := range cells {
		x := float64(i)
		cells[i] = lighting.LitCell{
			Index:   i,
			Polygon: geomutil.Polygon{{X: x, Y: 0}, {X: x + 1, Y: 0}, {X: x + 1, Y: 4}, {X: x, Y: 4}},
			Color:   palette.RGB{R: 0xff, G: 0, B: 0},
		}
	}
	return cells
}

func TestWriteScenarioOneSolidRedNoFrameNoLighting(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, Input{
		Width: 4, Height: 4,
		LineWidth: 1, LineColor: palette.RGB{},
		Cells: solidRedCells(4),
	})
	if err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	out := buf.String()

	if got := strings.Count(out, "fill='#ff0000'"); got != 4 {
		t.Fatalf("red fill count = %d, want 4", got)
	}
	if !strings.Contains(out, "fill='#ffffff'") {
		t.Fatalf("background is not white: %s", out)
	}
	if strings.Contains(out, "frame-layer") {
		t.Fatalf("output contains a frame layer with frameStyle=none")
	}
	if strings.Contains(out, "<defs>") {
		t.Fatalf("output contains filter defs with lighting disabled")
	}
}

func TestWriteRayLayersOrderAndCount(t *testing.T) {
	rays := make([]lighting.Ray, 5)
	for i := range rays {
		rays[i] = lighting.Ray{
			Origin: geomutil.Point{X: float64(i), Y: float64(i)},
			Color:  palette.RGB{R: 200, G: 200, B: 50},
			Width:  5, Length: 20, Opacity: 0.5,
		}
	}
	var buf bytes.Buffer
	err := Write(&buf, Input{
		Width: 100, Height: 100,
		LineWidth: 1,
		Cells:     solidRedCells(2),
		LightingEnabled: true, DarkMode: false,
		BackRays: rays, FrontRays: rays,
		GlowSigma: 0, GlowOpacity: 0,
	})
	if err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	out := buf.String()

	bgIdx := strings.Index(out, "fill='#ffffff'")
	backIdx := strings.Index(out, "back-ray-layer")
	frameOrArtworkIdx := strings.Index(out, "artwork-layer")
	frontIdx := strings.Index(out, "front-ray-layer")

	if bgIdx < 0 || backIdx < 0 || frameOrArtworkIdx < 0 || frontIdx < 0 {
		t.Fatalf("missing expected layer markers in output")
	}
	if !(bgIdx < backIdx && backIdx < frameOrArtworkIdx && frameOrArtworkIdx < frontIdx) {
		t.Fatalf("layers out of order: bg=%d back=%d artwork=%d front=%d", bgIdx, backIdx, frameOrArtworkIdx, frontIdx)
	}

	if got := strings.Count(out, "back-ray-layer"); got != 1 {
		t.Fatalf("back-ray-layer group count = %d, want 1", got)
	}
	if got := strings.Count(out, "front-ray-layer"); got != 1 {
		t.Fatalf("front-ray-layer group count = %d, want 1", got)
	}
}

func TestWriteLightingDisabledHasNoRayLayers(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, Input{
		Width: 50, Height: 50,
		LineWidth: 1,
		Cells:     solidRedCells(2),
		LightingEnabled: false,
	})
	if err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "ray-layer") {
		t.Fatalf("lighting disabled output still contains a ray layer")
	}
}

func TestWriteIsByteStableForIdenticalInput(t *testing.T) {
	in := Input{
		Width: 10, Height: 10,
		LineWidth: 2, LineColor: palette.RGB{R: 1, G: 2, B: 3},
		Cells: solidRedCells(3),
	}
	var a, b bytes.Buffer
	if err := Write(&a, in); err != nil {
		t.Fatalf("Write a: %v", err)
	}
	if err := Write(&b, in); err != nil {
		t.Fatalf("Write b: %v", err)
	}
	if a.String() != b.String() {
		t.Fatalf("Write is not byte-stable for identical input")
	}
}
