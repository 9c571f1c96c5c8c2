// Package svgdoc composes the final vector document, writing a
// deterministic, byte-stable SVG text stream directly to an io.Writer
// in the strict back-to-front layer order fixed by the system (spec
// §4.H). Every coordinate and color is formatted explicitly rather than
// delegated to a generic SVG library, so the exact text stays under this
// module's control.
package svgdoc

import (
	"fmt"
	"io"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/pineappleboogie/stained-glass/frame"
	"github.com/pineappleboogie/stained-glass/geomutil"
	"github.com/pineappleboogie/stained-glass/lighting"
	"github.com/pineappleboogie/stained-glass/palette"
)

// rayBlurSigma is the fixed blur radius applied to both ray layers.
// The system specifies a Gaussian-blur filter for glow with an explicit
// radius*intensity formula but leaves the ray-blur filter's radius
// unparameterized; a small fixed value keeps ray edges from looking
// mechanically sharp without a dedicated settings field.
const rayBlurSigma = 2.0

// Document is a thin writer wrapper mirroring dyed-eye-penrose-circles' SVG helper
// (Start/StartPath/PathLineTo/EndPath, explicit %f-formatted attributes)
// so every emitted byte is traceable to a single printf call.
type Document struct {
	w   io.Writer
	err error
	gid int
}

// NewDocument wraps w for sequential vector-document emission.
func NewDocument(w io.Writer) *Document {
	return &Document{w: w}
}

func (d *Document) printf(format string, a ...any) {
	if d.err != nil {
		return
	}
	_, d.err = fmt.Fprintf(d.w, format, a...)
}

// Err returns the first write error encountered, if any.
func (d *Document) Err() error {
	return d.err
}

func hex(c palette.RGB) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Input bundles every product of the pipeline the emitter needs to lay
// out a complete document (spec §4.H).
type Input struct {
	Width, Height float64

	LineWidth float64
	LineColor palette.RGB

	Frame []frame.Element
	Cells []lighting.LitCell

	LightingEnabled bool
	DarkMode        bool
	BackRays        []lighting.Ray
	FrontRays       []lighting.Ray
	Glows           []lighting.Glow
	GlowSigma       float64
	GlowOpacity     float64
}

// Write emits the complete document for in to w, in the exact
// back-to-front order: filter defs, background, back rays, frame,
// artwork, front rays, glow (spec §4.H).
func Write(w io.Writer, in Input) error {
	d := NewDocument(w)
	d.start(in.Width, in.Height)

	if in.LightingEnabled {
		d.filterDefs(in.GlowSigma)
	}
	d.background(in.LightingEnabled && in.DarkMode)

	if in.LightingEnabled && len(in.BackRays) > 0 {
		d.rayLayer(in.BackRays, "back-ray-layer", "screen")
	}

	d.frameLayer(in.Frame)
	d.artworkLayer(in.Cells, in.LineWidth, in.LineColor)

	if in.LightingEnabled && len(in.FrontRays) > 0 {
		blend := "soft-light"
		if in.DarkMode {
			blend = "screen"
		}
		d.rayLayer(in.FrontRays, "front-ray-layer", blend)
	}

	if in.LightingEnabled && len(in.Glows) > 0 {
		blend := "multiply"
		if in.DarkMode {
			blend = "screen"
		}
		d.glowLayer(in.Glows, blend, in.GlowOpacity)
	}

	d.end()
	return d.Err()
}

func (d *Document) start(w, h float64) {
	d.printf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" version="1.1" viewBox="0 0 %f %f">
`, w, h)
}

func (d *Document) end() {
	d.printf("</svg>\n")
}

func (d *Document) background(dark bool) {
	c := "#ffffff"
	if dark {
		c = "#1a1a1a"
	}
	d.printf("<rect x='0' y='0' width='100%%' height='100%%' fill='%s'/>\n", c)
}

func (d *Document) filterDefs(glowSigma float64) {
	d.printf("<defs>\n")
	d.printf("<filter id='ray-blur' x='-50%%' y='-50%%' width='200%%' height='200%%'><feGaussianBlur stdDeviation='%f'/></filter>\n", rayBlurSigma)
	d.printf("<filter id='glow-blur' x='-100%%' y='-100%%' width='300%%' height='300%%'><feGaussianBlur stdDeviation='%f'/></filter>\n", glowSigma)
	d.printf("</defs>\n")
}

func (d *Document) frameLayer(elems []frame.Element) {
	if len(elems) == 0 {
		return
	}
	d.printf("<g id='frame-layer'>\n")
	for _, e := range elems {
		d.polygonPath(e.Polygon, hex(e.Color), "")
	}
	d.printf("</g>\n")
}

func (d *Document) artworkLayer(cells []lighting.LitCell, lineWidth float64, lineColor palette.RGB) {
	d.printf("<g id='artwork-layer'>\n")
	for _, c := range cells {
		d.printf("<path fill='%s' stroke='%s' stroke-width='%f' stroke-linejoin='round' d='", hex(c.Color), hex(lineColor), lineWidth)
		d.pathData(c.Polygon)
		d.printf("'/>\n")
	}
	d.printf("</g>\n")
}

func (d *Document) rayLayer(rays []lighting.Ray, id, blend string) {
	d.printf("<g id='%s' style='mix-blend-mode:%s' filter='url(#ray-blur)'>\n", id, blend)
	for _, r := range rays {
		gradID := d.nextGradID()
		far := geomutil.Point{
			X: r.Origin.X + math.Cos(r.Direction)*r.Length,
			Y: r.Origin.Y + math.Sin(r.Direction)*r.Length,
		}
		bright := brighten(r.Color, 1.4)
		d.printf("<linearGradient id='%s' gradientUnits='userSpaceOnUse' x1='%f' y1='%f' x2='%f' y2='%f'>\n", gradID, r.Origin.X, r.Origin.Y, far.X, far.Y)
		d.printf("<stop offset='0' stop-color='%s' stop-opacity='%f'/>\n", hex(bright), r.Opacity)
		d.printf("<stop offset='1' stop-color='%s' stop-opacity='0'/>\n", hex(bright))
		d.printf("</linearGradient>\n")

		poly := rayTrapezoid(r)
		d.printf("<path fill='url(#%s)' d='", gradID)
		d.pathData(poly)
		d.printf("'/>\n")
	}
	d.printf("</g>\n")
}

func (d *Document) glowLayer(glows []lighting.Glow, blend string, opacity float64) {
	d.printf("<g id='glow-layer' style='mix-blend-mode:%s' opacity='%f' filter='url(#glow-blur)'>\n", blend, opacity)
	for _, g := range glows {
		d.polygonPath(g.Polygon, hex(g.Color), "")
	}
	d.printf("</g>\n")
}

func (d *Document) polygonPath(poly geomutil.Polygon, fill, extra string) {
	d.printf("<path fill='%s' %s d='", fill, extra)
	d.pathData(poly)
	d.printf("'/>\n")
}

func (d *Document) pathData(poly geomutil.Polygon) {
	if len(poly) == 0 {
		return
	}
	d.printf("M%f,%f", poly[0].X, poly[0].Y)
	for _, p := range poly[1:] {
		d.printf(" L%f,%f", p.X, p.Y)
	}
	d.printf(" Z")
}

func (d *Document) nextGradID() string {
	d.gid++
	return fmt.Sprintf("ray-grad-%d", d.gid)
}

// rayTrapezoid builds the quad for a ray, narrow at its origin and
// widening to r.Width along its direction (spec §4.H "Each ray is a
// trapezoid").
func rayTrapezoid(r lighting.Ray) geomutil.Polygon {
	dx, dy := math.Cos(r.Direction), math.Sin(r.Direction)
	// perpendicular unit vector
	px, py := -dy, dx

	far := geomutil.Point{X: r.Origin.X + dx*r.Length, Y: r.Origin.Y + dy*r.Length}
	nearHalf := r.Width * 0.15
	farHalf := r.Width * 0.5

	return geomutil.Polygon{
		{X: r.Origin.X + px*nearHalf, Y: r.Origin.Y + py*nearHalf},
		{X: far.X + px*farHalf, Y: far.Y + py*farHalf},
		{X: far.X - px*farHalf, Y: far.Y - py*farHalf},
		{X: r.Origin.X - px*nearHalf, Y: r.Origin.Y - py*nearHalf},
	}
}

// brighten lightens c in HSL space by the given lightness multiplier.
func brighten(c palette.RGB, mult float64) palette.RGB {
	cf := c.Colorful()
	h, s, l := cf.Hsl()
	l = geomutil.Clamp01(l * mult)
	return palette.FromColorful(colorful.Hsl(h, s, l))
}
