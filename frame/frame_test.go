package frame

import (
	"testing"

	"github.com/pineappleboogie/stained-glass/geomutil"
	"github.com/pineappleboogie/stained-glass/palette"
	"github.com/pineappleboogie/stained-glass/raster"
)

func solidBuffer(w, h int, c palette.RGB) *raster.Buffer {
	buf := &raster.Buffer{Width: w, Height: h, Pix: make([]byte, w*h*3)}
	for i := 0; i < w*h; i++ {
		buf.Pix[i*3+0] = c.R
		buf.Pix[i*3+1] = c.G
		buf.Pix[i*3+2] = c.B
	}
	return buf
}

func TestBuildNoneHasNoElementsAndFullInner(t *testing.T) {
	buf := solidBuffer(40, 30, palette.RGB{R: 10, G: 20, B: 30})
	res := Build(buf, Params{Style: None})
	if len(res.Elements) != 0 {
		t.Fatalf("None style produced %d elements, want 0", len(res.Elements))
	}
	if res.Inner.Min.X != 0 || res.Inner.Min.Y != 0 || res.Inner.Max.X != 40 || res.Inner.Max.Y != 30 {
		t.Fatalf("None style inner rect = %v, want full image", res.Inner)
	}
}

func TestBuildSimpleProducesFourElements(t *testing.T) {
	buf := solidBuffer(100, 100, palette.RGB{R: 200, G: 200, B: 200})
	res := Build(buf, Params{Style: Simple, WidthPercent: 10, Saturation: 1, Brightness: 1})
	if len(res.Elements) != 4 {
		t.Fatalf("Simple style produced %d elements, want 4", len(res.Elements))
	}
	wantDepth := 10.0
	if res.Inner.Min.X != wantDepth || res.Inner.Min.Y != wantDepth {
		t.Fatalf("Simple style inner min = %v, want (%v, %v)", res.Inner.Min, wantDepth, wantDepth)
	}
	if res.Inner.Max.X != 100-wantDepth || res.Inner.Max.Y != 100-wantDepth {
		t.Fatalf("Simple style inner max = %v, want (%v, %v)", res.Inner.Max, 100-wantDepth, 100-wantDepth)
	}
}

func TestBuildSimpleSolidColorEdgesMatch(t *testing.T) {
	want := palette.RGB{R: 50, G: 60, B: 70}
	buf := solidBuffer(100, 100, want)
	res := Build(buf, Params{Style: Simple, WidthPercent: 10, Saturation: 1, Brightness: 1})
	for i, e := range res.Elements {
		if e.Color != want {
			t.Fatalf("element %d color = %v, want %v (solid input)", i, e.Color, want)
		}
	}
}

func TestBuildSegmentedHasCornersAndSegments(t *testing.T) {
	buf := solidBuffer(200, 150, palette.RGB{R: 1, G: 2, B: 3})
	res := Build(buf, Params{Style: Segmented, WidthPercent: 5, CellSize: 40, Saturation: 1, Brightness: 1})
	if len(res.Elements) < 4 {
		t.Fatalf("Segmented style produced %d elements, want at least 4 corners", len(res.Elements))
	}
}

func TestBuildFrameUnionCoversAnnulus(t *testing.T) {
	buf := solidBuffer(80, 80, palette.RGB{R: 5, G: 5, B: 5})
	res := Build(buf, Params{Style: Simple, WidthPercent: 10, Saturation: 1, Brightness: 1})

	full := geomutil.Area(geomutil.RectPolygon(geomutil.Rect{Min: geomutil.Point{}, Max: geomutil.Point{X: 80, Y: 80}}))
	innerArea := geomutil.Area(geomutil.RectPolygon(res.Inner))

	var frameArea float64
	for _, e := range res.Elements {
		frameArea += geomutil.Area(e.Polygon)
	}
	if diff := full - innerArea - frameArea; diff > 1e-6 || diff < -1e-6 {
		t.Fatalf("frame+inner area = %v, image area = %v (diff %v)", innerArea+frameArea, full, diff)
	}
}

func TestPostProcessAppliesNamedPalette(t *testing.T) {
	buf := solidBuffer(60, 60, palette.RGB{R: 250, G: 3, B: 3})
	res := Build(buf, Params{Style: Simple, WidthPercent: 5, ColorPaletteID: "ruby-coral", Saturation: 1, Brightness: 1})

	pal := palette.Named["ruby-coral"]
	for _, e := range res.Elements {
		found := false
		for _, c := range pal {
			if c == e.Color {
				found = true
			}
		}
		if !found {
			t.Fatalf("frame color %v not in ruby-coral palette", e.Color)
		}
	}
}

func TestClampRanges(t *testing.T) {
	p := Params{WidthPercent: 100, CellSize: 1, HueShift: 720.5, Saturation: -1, Brightness: 9}
	p.Clamp()
	if p.WidthPercent != 15 {
		t.Fatalf("WidthPercent clamp = %v, want 15", p.WidthPercent)
	}
	if p.CellSize != 30 {
		t.Fatalf("CellSize clamp = %v, want 30", p.CellSize)
	}
	if p.HueShift < 0 || p.HueShift >= 360 {
		t.Fatalf("HueShift clamp = %v, want within [0,360)", p.HueShift)
	}
	if p.Saturation != 0 {
		t.Fatalf("Saturation clamp = %v, want 0", p.Saturation)
	}
	if p.Brightness != 2 {
		t.Fatalf("Brightness clamp = %v, want 2", p.Brightness)
	}
}
