// Package colorsample fills each Voronoi cell with a color: exact
// centroid sample, polygon-mean sample, or k-means palette quantization,
// followed by optional named-palette mapping and HSL adjustment (spec
// §4.E). The four steps always run in this fixed order: raw sample ->
// palette quantization -> palette mapping -> HSL adjustment.
package colorsample

import (
	"log"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/pineappleboogie/stained-glass/geomutil"
	"github.com/pineappleboogie/stained-glass/palette"
	"github.com/pineappleboogie/stained-glass/raster"
	"github.com/pineappleboogie/stained-glass/voronoi"
)

// Mode selects how a cell's raw color is derived from the raster.
type Mode int

const (
	Exact Mode = iota
	Average
	Palette
)

// Params configures color sampling (spec §4.E, §6).
type Params struct {
	Mode           Mode
	PaletteSize    int     // [4, 64], used only when Mode == Palette
	Saturation     float64 // [0, 2]
	Brightness     float64 // [0, 2]
	ColorPaletteID string  // palette.Original or a palette.Named key
}

// Clamp silently clamps every field to its documented range.
func (p *Params) Clamp() {
	if p.PaletteSize < 4 {
		p.PaletteSize = 4
	}
	if p.PaletteSize > 64 {
		p.PaletteSize = 64
	}
	p.Saturation = geomutil.Clamp(p.Saturation, 0, 2)
	p.Brightness = geomutil.Clamp(p.Brightness, 0, 2)
}

// Cell is a colored Voronoi cell (spec §3 Colored Cell).
type Cell struct {
	Index   int
	Polygon geomutil.Polygon
	Color   palette.RGB
}

// Sample colors every cell according to p, in the fixed pipeline order
// described in the package doc comment.
func Sample(buf *raster.Buffer, cells []voronoi.Cell, p Params) []Cell {
	p.Clamp()

	raw := make([]palette.RGB, len(cells))
	for i, c := range cells {
		raw[i] = sampleRaw(buf, c, p.Mode)
	}

	if p.Mode == Palette {
		raw = quantize(raw, p.PaletteSize)
	}

	out := make([]Cell, len(cells))
	for i, c := range cells {
		col := raw[i]
		if p.ColorPaletteID != "" {
			col = palette.Nearest(p.ColorPaletteID, col)
		}
		col = adjustHSL(col, p.Saturation, p.Brightness)
		out[i] = Cell{Index: c.Index, Polygon: c.Polygon, Color: col}
	}
	return out
}

func sampleRaw(buf *raster.Buffer, cell voronoi.Cell, mode Mode) palette.RGB {
	switch mode {
	case Average:
		if c, ok := sampleAverage(buf, cell.Polygon); ok {
			return c
		}
		log.Printf("colorsample: cell %d contains no pixel centers, falling back to centroid sample", cell.Index)
		return sampleExact(buf, cell.Centroid)
	case Palette:
		// Palette mode starts from the same raw sample as exact/average;
		// spec leaves the pre-quantization sample unspecified beyond
		// "start from exact/average per cell" — this module uses exact,
		// the cheaper of the two, since quantization will coarsen the
		// result regardless.
		return sampleExact(buf, cell.Centroid)
	default:
		return sampleExact(buf, cell.Centroid)
	}
}

func sampleExact(buf *raster.Buffer, p geomutil.Point) palette.RGB {
	c := buf.AtF(p.X, p.Y)
	return palette.RGB{R: c.R, G: c.G, B: c.B}
}

func sampleAverage(buf *raster.Buffer, poly geomutil.Polygon) (palette.RGB, bool) {
	bbox := geomutil.BoundingBox(poly)
	x0 := max(0, int(bbox.Min.X))
	y0 := max(0, int(bbox.Min.Y))
	x1 := min(buf.Width-1, int(bbox.Max.X))
	y1 := min(buf.Height-1, int(bbox.Max.Y))

	var sr, sg, sb, n float64
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			p := geomutil.Point{X: float64(x) + 0.5, Y: float64(y) + 0.5}
			if !geomutil.ContainsPoint(poly, p) {
				continue
			}
			c := buf.At(x, y)
			sr += float64(c.R)
			sg += float64(c.G)
			sb += float64(c.B)
			n++
		}
	}
	if n == 0 {
		return palette.RGB{}, false
	}
	return palette.RGB{
		R: uint8(sr/n + 0.5),
		G: uint8(sg/n + 0.5),
		B: uint8(sb/n + 0.5),
	}, true
}

// adjustHSL applies the saturation/brightness multipliers described in
// spec §4.E, short-circuiting grayscale input (s == 0) to an L-only
// result exactly as specified.
func adjustHSL(c palette.RGB, saturation, brightness float64) palette.RGB {
	cf := c.Colorful()
	h, s, l := cf.Hsl()
	if s == 0 {
		v := geomutil.Clamp01(l*brightness) * 255
		g := uint8(v + 0.5)
		return palette.RGB{R: g, G: g, B: g}
	}
	s = geomutil.Clamp01(s * saturation)
	l = geomutil.Clamp01(l * brightness)
	return palette.FromColorful(colorful.Hsl(h, s, l))
}
