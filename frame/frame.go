// Package frame synthesizes the decorative border around the artwork
// rectangle: none, a four-sided mitered frame, or a segmented ring of
// corner squares and edge segments (spec §4.F).
package frame

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/pineappleboogie/stained-glass/geomutil"
	"github.com/pineappleboogie/stained-glass/palette"
	"github.com/pineappleboogie/stained-glass/raster"
)

// Style selects the frame geometry.
type Style int

const (
	None Style = iota
	Simple
	Segmented
)

// Params configures frame synthesis (spec §4.F, §6).
type Params struct {
	Style          Style
	WidthPercent   float64 // [2, 15], percent of min(W,H)
	CellSize       float64 // [30, 150], segmented-style segment target size
	ColorPaletteID string  // palette.Original or a palette.Named key
	HueShift       float64 // [0, 360)
	Saturation     float64 // [0, 2]
	Brightness     float64 // [0, 2]
}

// Clamp silently clamps every field to its documented range.
func (p *Params) Clamp() {
	p.WidthPercent = geomutil.Clamp(p.WidthPercent, 2, 15)
	p.CellSize = geomutil.Clamp(p.CellSize, 30, 150)
	p.HueShift = math.Mod(math.Mod(p.HueShift, 360)+360, 360)
	p.Saturation = geomutil.Clamp(p.Saturation, 0, 2)
	p.Brightness = geomutil.Clamp(p.Brightness, 0, 2)
}

// Element is a single colored piece of the frame annulus (spec §3 Frame
// Element).
type Element struct {
	Polygon geomutil.Polygon
	Color   palette.RGB
}

// Result is the outcome of Build: the frame elements plus the artwork
// rectangle the rest of the pipeline should tessellate within.
type Result struct {
	Elements []Element
	Inner    geomutil.Rect
}

// Build synthesizes the frame for a buf.Width x buf.Height image. For
// Style == None there are no elements and the inner rectangle is the
// full image; for the other styles the inner rectangle is inset by the
// computed depth on every side.
func Build(buf *raster.Buffer, p Params) Result {
	p.Clamp()

	w, h := float64(buf.Width), float64(buf.Height)
	depth := math.Round(min(w, h) * p.WidthPercent / 100)
	inner := geomutil.Rect{
		Min: geomutil.Point{X: depth, Y: depth},
		Max: geomutil.Point{X: w - depth, Y: h - depth},
	}

	var elems []Element
	switch p.Style {
	case Simple:
		elems = simpleFrame(buf, depth, inner)
	case Segmented:
		elems = segmentedFrame(buf, depth, inner, p.CellSize)
	default:
		return Result{Inner: geomutil.Rect{Min: geomutil.Point{}, Max: geomutil.Point{X: w, Y: h}}}
	}

	for i := range elems {
		elems[i].Color = postProcess(elems[i].Color, p)
	}
	return Result{Elements: elems, Inner: inner}
}

// simpleFrame builds four mitered trapezoids whose outer edge is the
// image border and inner edge is the artwork rectangle, colored by the
// mean of 10 samples along the corresponding image edge at depth d+5
// (spec §4.F "simple").
func simpleFrame(buf *raster.Buffer, d float64, inner geomutil.Rect) []Element {
	w, h := float64(buf.Width), float64(buf.Height)
	sampleDepth := d + 5

	top := geomutil.Polygon{
		{X: 0, Y: 0}, {X: w, Y: 0}, {X: inner.Max.X, Y: inner.Min.Y}, {X: inner.Min.X, Y: inner.Min.Y},
	}
	right := geomutil.Polygon{
		{X: w, Y: 0}, {X: w, Y: h}, {X: inner.Max.X, Y: inner.Max.Y}, {X: inner.Max.X, Y: inner.Min.Y},
	}
	bottom := geomutil.Polygon{
		{X: w, Y: h}, {X: 0, Y: h}, {X: inner.Min.X, Y: inner.Max.Y}, {X: inner.Max.X, Y: inner.Max.Y},
	}
	left := geomutil.Polygon{
		{X: 0, Y: h}, {X: 0, Y: 0}, {X: inner.Min.X, Y: inner.Min.Y}, {X: inner.Min.X, Y: inner.Max.Y},
	}

	sampleEdge := func(x0, y0, x1, y1 float64) palette.RGB {
		return meanAlong(buf, x0, y0, x1, y1, 10)
	}

	return []Element{
		{Polygon: top, Color: sampleEdge(0, sampleDepth, w, sampleDepth)},
		{Polygon: right, Color: sampleEdge(w-sampleDepth, 0, w-sampleDepth, h)},
		{Polygon: bottom, Color: sampleEdge(0, h-sampleDepth, w, h-sampleDepth)},
		{Polygon: left, Color: sampleEdge(sampleDepth, 0, sampleDepth, h)},
	}
}

// meanAlong samples n evenly spaced points on the segment (x0,y0)-(x1,y1)
// and returns their mean color.
func meanAlong(buf *raster.Buffer, x0, y0, x1, y1 float64, n int) palette.RGB {
	var sr, sg, sb float64
	for i := 0; i < n; i++ {
		t := (float64(i) + 0.5) / float64(n)
		x := x0 + (x1-x0)*t
		y := y0 + (y1-y0)*t
		c := buf.AtF(x, y)
		sr += float64(c.R)
		sg += float64(c.G)
		sb += float64(c.B)
	}
	return palette.RGB{
		R: uint8(sr/float64(n) + 0.5),
		G: uint8(sg/float64(n) + 0.5),
		B: uint8(sb/float64(n) + 0.5),
	}
}

// segmentedFrame builds four corner squares plus evenly divided top,
// bottom, left and right segment strips (spec §4.F "segmented").
func segmentedFrame(buf *raster.Buffer, d float64, inner geomutil.Rect, cellSize float64) []Element {
	w, h := float64(buf.Width), float64(buf.Height)
	s := max(cellSize, 20)

	var elems []Element

	elems = append(elems,
		Element{Polygon: geomutil.RectPolygon(geomutil.Rect{Min: geomutil.Point{X: 0, Y: 0}, Max: geomutil.Point{X: d, Y: d}})},
		Element{Polygon: geomutil.RectPolygon(geomutil.Rect{Min: geomutil.Point{X: w - d, Y: 0}, Max: geomutil.Point{X: w, Y: d}})},
		Element{Polygon: geomutil.RectPolygon(geomutil.Rect{Min: geomutil.Point{X: w - d, Y: h - d}, Max: geomutil.Point{X: w, Y: h}})},
		Element{Polygon: geomutil.RectPolygon(geomutil.Rect{Min: geomutil.Point{X: 0, Y: h - d}, Max: geomutil.Point{X: d, Y: h}})},
	)
	for i := range elems {
		cx, cy := cornerSampleCenter(elems[i].Polygon)
		elems[i].Color = neighborhoodMean(buf, cx, cy)
	}

	innerW := w - 2*d
	innerH := h - 2*d
	nH := max(1, int(math.Round(innerW/s)))
	nV := max(1, int(math.Round(innerH/s)))

	segW := innerW / float64(nH)
	segH := innerH / float64(nV)
	sampleDepth := d + 5

	for i := 0; i < nH; i++ {
		x0 := d + float64(i)*segW
		x1 := x0 + segW
		cx := (x0 + x1) / 2
		top := geomutil.RectPolygon(geomutil.Rect{Min: geomutil.Point{X: x0, Y: 0}, Max: geomutil.Point{X: x1, Y: d}})
		elems = append(elems, Element{Polygon: top, Color: neighborhoodMean(buf, cx, sampleDepth)})

		bot := geomutil.RectPolygon(geomutil.Rect{Min: geomutil.Point{X: x0, Y: h - d}, Max: geomutil.Point{X: x1, Y: h}})
		elems = append(elems, Element{Polygon: bot, Color: neighborhoodMean(buf, cx, h-sampleDepth)})
	}

	for i := 0; i < nV; i++ {
		y0 := d + float64(i)*segH
		y1 := y0 + segH
		cy := (y0 + y1) / 2
		left := geomutil.RectPolygon(geomutil.Rect{Min: geomutil.Point{X: 0, Y: y0}, Max: geomutil.Point{X: d, Y: y1}})
		elems = append(elems, Element{Polygon: left, Color: neighborhoodMean(buf, sampleDepth, cy)})

		right := geomutil.RectPolygon(geomutil.Rect{Min: geomutil.Point{X: w - d, Y: y0}, Max: geomutil.Point{X: w, Y: y1}})
		elems = append(elems, Element{Polygon: right, Color: neighborhoodMean(buf, w-sampleDepth, cy)})
	}

	return elems
}

func cornerSampleCenter(poly geomutil.Polygon) (float64, float64) {
	c := geomutil.Centroid(poly)
	return c.X, c.Y
}

// neighborhoodMean averages a 7x7 pixel neighborhood centered at (cx, cy)
// (spec §4.F "segmented", §9 open question b).
func neighborhoodMean(buf *raster.Buffer, cx, cy float64) palette.RGB {
	const half = 3
	cxi, cyi := int(cx+0.5), int(cy+0.5)
	var sr, sg, sb, n float64
	for dy := -half; dy <= half; dy++ {
		for dx := -half; dx <= half; dx++ {
			c := buf.At(cxi+dx, cyi+dy)
			sr += float64(c.R)
			sg += float64(c.G)
			sb += float64(c.B)
			n++
		}
	}
	return palette.RGB{
		R: uint8(sr/n + 0.5),
		G: uint8(sg/n + 0.5),
		B: uint8(sb/n + 0.5),
	}
}

// postProcess applies the fixed frame color pipeline: palette map ->
// hue-shift -> saturation/brightness adjust (spec §4.F).
func postProcess(c palette.RGB, p Params) palette.RGB {
	if p.ColorPaletteID != "" {
		c = palette.Nearest(p.ColorPaletteID, c)
	}
	cf := c.Colorful()
	h, s, l := cf.Hsl()
	h = math.Mod(h+p.HueShift, 360)
	if h < 0 {
		h += 360
	}
	s = geomutil.Clamp01(s * p.Saturation)
	l = geomutil.Clamp01(l * p.Brightness)
	return palette.FromColorful(colorful.Hsl(h, s, l))
}
