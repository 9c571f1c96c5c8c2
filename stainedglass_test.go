package stainedglass

import (
	"context"
	"image"
	"image/color"
	"strings"
	"testing"
)

func solidImage(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// TestRunScenarioOneSolidRedFourCells reproduces spec §8 scenario 1: a
// 4x4 solid red input, cellCount=4, uniform distribution, exact color
// mode, no frame, lighting off. Output must carry 4 red-filled paths on
// a white background, no frame layer, no filter defs.
func TestRunScenarioOneSolidRedFourCells(t *testing.T) {
	img := solidImage(4, 4, color.RGBA{R: 255, A: 255})
	buf, err := LoadImage(img)
	if err != nil {
		t.Fatalf("LoadImage: %v", err)
	}

	settings := Settings{
		CellCount: 4, PointDistribution: Uniform, RelaxationIterations: 0,
		PreBlur: 0, Contrast: 1, EdgeMethod: Sobel, EdgeSensitivity: 50,
		LineWidth: 1, LineColor: RGB{},
		ColorMode: ExactColor, PaletteSize: 8, Saturation: 1, Brightness: 1,
		FrameStyle: NoFrame,
		Seed:       1,
	}

	res, err := Run(context.Background(), buf, settings)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := strings.Count(res.Document, "fill='#ff0000'"); got != 4 {
		t.Fatalf("red path count = %d, want 4:\n%s", got, res.Document)
	}
	if !strings.Contains(res.Document, "fill='#ffffff'") {
		t.Fatalf("background is not white")
	}
	if strings.Contains(res.Document, "frame-layer") {
		t.Fatalf("document has a frame layer with FrameStyle=NoFrame")
	}
	if strings.Contains(res.Document, "<defs>") {
		t.Fatalf("document has filter defs with lighting disabled")
	}
	if len(res.Cells) != 4 {
		t.Fatalf("cell count = %d, want 4", len(res.Cells))
	}
}

func TestRunWithLightingAndRaysProducesRayLayers(t *testing.T) {
	img := solidImage(40, 40, color.RGBA{G: 180, B: 60, A: 255})
	buf, err := LoadImage(img)
	if err != nil {
		t.Fatalf("LoadImage: %v", err)
	}

	settings := Settings{
		CellCount: 60, PointDistribution: Poisson, RelaxationIterations: 1,
		Contrast: 1, EdgeSensitivity: 50, LineWidth: 1,
		ColorMode: ExactColor, PaletteSize: 8, Saturation: 1, Brightness: 1,
		FrameStyle: NoFrame,
		Seed:       7,
	}
	settings.Lighting.Enabled = true
	settings.Lighting.Preset = LightTopLeft
	settings.Lighting.Intensity = 1
	settings.Lighting.Rays.Enabled = true
	settings.Lighting.Rays.Count = 5
	settings.Lighting.Rays.Spread = 30
	settings.Lighting.Rays.Length = 0.6

	res, err := Run(context.Background(), buf, settings)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(res.Document, "back-ray-layer") {
		t.Fatalf("document missing back-ray-layer with rays enabled")
	}
	if !strings.Contains(res.Document, "front-ray-layer") {
		t.Fatalf("document missing front-ray-layer with rays enabled")
	}
}

func TestRunIsCancellable(t *testing.T) {
	img := solidImage(200, 200, color.RGBA{R: 100, G: 100, B: 100, A: 255})
	buf, err := LoadImage(img)
	if err != nil {
		t.Fatalf("LoadImage: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	settings := Settings{CellCount: 500, PointDistribution: Uniform, ColorMode: ExactColor, LineWidth: 1, FrameStyle: NoFrame}
	_, err = Run(ctx, buf, settings)
	if err == nil {
		t.Fatalf("Run with a pre-cancelled context returned no error")
	}
}

func TestNamedPalettesIncludesOriginal(t *testing.T) {
	ids := NamedPalettes()
	found := false
	for _, id := range ids {
		if id == OriginalPalette {
			found = true
		}
	}
	if !found {
		t.Fatalf("NamedPalettes() = %v, missing %q", ids, OriginalPalette)
	}
}
