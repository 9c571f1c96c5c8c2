// Package geomutil holds the small set of 2D geometry primitives shared by
// every pipeline stage: a point type, polygons, and the half-plane
// clipping routine the tessellation stage is built from.
package geomutil

import (
	"math"

	"github.com/jbeda/geom"
)

// Point is an image-space coordinate. Every spec "Point" in the pipeline
// (seeds, cell vertices, centroids, ray origins) is one of these.
type Point = geom.Coord

// Rect is an axis-aligned clip rectangle in image space.
type Rect = geom.Rect

// Polygon is a closed, ordered list of vertices. The first vertex is not
// repeated at the end.
type Polygon []Point

// RectPolygon returns the four corners of r in counterclockwise order
// starting at (minX, minY), treating y as growing downward (image space).
func RectPolygon(r Rect) Polygon {
	return Polygon{
		{X: r.Min.X, Y: r.Min.Y},
		{X: r.Min.X, Y: r.Max.Y},
		{X: r.Max.X, Y: r.Max.Y},
		{X: r.Max.X, Y: r.Min.Y},
	}
}

// Centroid returns the area-weighted centroid of a simple polygon. Falls
// back to the vertex average for degenerate (near-zero-area) polygons.
func Centroid(poly Polygon) Point {
	n := len(poly)
	if n == 0 {
		return Point{}
	}
	if n < 3 {
		var sx, sy float64
		for _, p := range poly {
			sx += p.X
			sy += p.Y
		}
		return Point{X: sx / float64(n), Y: sy / float64(n)}
	}
	var a, cx, cy float64
	for i := range n {
		j := (i + 1) % n
		cross := poly[i].X*poly[j].Y - poly[j].X*poly[i].Y
		a += cross
		cx += (poly[i].X + poly[j].X) * cross
		cy += (poly[i].Y + poly[j].Y) * cross
	}
	if math.Abs(a) < 1e-12 {
		var sx, sy float64
		for _, p := range poly {
			sx += p.X
			sy += p.Y
		}
		return Point{X: sx / float64(n), Y: sy / float64(n)}
	}
	a *= 0.5
	return Point{X: cx / (6 * a), Y: cy / (6 * a)}
}

// Area returns the unsigned area of a simple polygon.
func Area(poly Polygon) float64 {
	n := len(poly)
	if n < 3 {
		return 0
	}
	var a float64
	for i := range n {
		j := (i + 1) % n
		a += poly[i].X*poly[j].Y - poly[j].X*poly[i].Y
	}
	return math.Abs(a) / 2
}

// BoundingBox returns the smallest Rect containing poly.
func BoundingBox(poly Polygon) Rect {
	if len(poly) == 0 {
		return Rect{}
	}
	r := Rect{Min: poly[0], Max: poly[0]}
	for _, p := range poly[1:] {
		r.ExpandToContainCoord(p)
	}
	return r
}

// ContainsPoint reports whether p lies inside poly using the standard ray
// casting test (edge cases resolved so shared edges don't double count).
func ContainsPoint(poly Polygon, p Point) bool {
	n := len(poly)
	if n < 3 {
		return false
	}
	inside := false
	j := n - 1
	for i := range n {
		pi, pj := poly[i], poly[j]
		if (pi.Y > p.Y) != (pj.Y > p.Y) {
			xInt := pi.X + (p.Y-pi.Y)/(pj.Y-pi.Y)*(pj.X-pi.X)
			if p.X < xInt {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// ClipHalfPlane clips poly (assumed convex, CCW) against the half-plane
// {q : (q-linePoint)·normal <= 0}, i.e. it keeps the side the normal
// points away from. Used by the Voronoi tessellator to repeatedly cut a
// clip-rectangle polygon down to one seed's cell.
func ClipHalfPlane(poly Polygon, linePoint, normal Point) Polygon {
	n := len(poly)
	if n == 0 {
		return nil
	}
	side := func(p Point) float64 {
		return (p.X-linePoint.X)*normal.X + (p.Y-linePoint.Y)*normal.Y
	}
	out := make(Polygon, 0, n+2)
	for i := range n {
		cur := poly[i]
		next := poly[(i+1)%n]
		curSide := side(cur)
		nextSide := side(next)
		if curSide <= 0 {
			out = append(out, cur)
		}
		if (curSide < 0 && nextSide > 0) || (curSide > 0 && nextSide < 0) {
			t := curSide / (curSide - nextSide)
			out = append(out, Point{
				X: cur.X + t*(next.X-cur.X),
				Y: cur.Y + t*(next.Y-cur.Y),
			})
		}
	}
	return out
}

// Dedup removes consecutive (and wrap-around) near-duplicate vertices,
// which half-plane clipping can introduce at tangent cuts.
func Dedup(poly Polygon, eps float64) Polygon {
	if len(poly) < 2 {
		return poly
	}
	out := make(Polygon, 0, len(poly))
	for i, p := range poly {
		prev := poly[(i-1+len(poly))%len(poly)]
		if math.Hypot(p.X-prev.X, p.Y-prev.Y) > eps {
			out = append(out, p)
		}
	}
	if len(out) < 3 {
		return out
	}
	return out
}

// Dist returns the Euclidean distance between two points.
func Dist(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Lerp linearly interpolates between a and b.
func Lerp(a, b Point, t float64) Point {
	return Point{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t}
}

// Clamp01 clamps v to [0, 1].
func Clamp01(v float64) float64 {
	return Clamp(v, 0, 1)
}

// Clamp clamps v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
