// Package voronoi tessellates a seed set into a Voronoi diagram clipped
// to a rectangle, and relaxes it with Lloyd's algorithm (spec §4.D).
//
// Each cell is built by repeatedly cutting the clip rectangle with the
// perpendicular-bisector half-plane of every other seed, nearest seeds
// first. Once the remaining candidates are farther than twice the
// polygon's current reach from the seed, no bisector of theirs can cut
// the polygon further, so the loop exits early — this keeps a diagram of
// a few thousand seeds tractable without giving up exactness.
package voronoi

import (
	"log"
	"sort"

	"github.com/pineappleboogie/stained-glass/geomutil"
	"gonum.org/v1/gonum/mat"
)

// Cell is one partition of the clip rectangle (spec §3 Voronoi Cell).
type Cell struct {
	Index    int
	Polygon  geomutil.Polygon
	Centroid geomutil.Point
}

// Tessellate builds the Voronoi diagram of seeds clipped to rect. Cells
// whose clipped polygon collapses to fewer than 3 distinct vertices are
// dropped with a log line and no error (spec §7: degenerate polygon ->
// local recovery). The
// returned slice preserves seed ordering among survivors.
func Tessellate(rect geomutil.Rect, seeds []geomutil.Point) []Cell {
	cells := make([]Cell, 0, len(seeds))
	for i, seed := range seeds {
		poly := cellPolygon(rect, seeds, i, seed)
		poly = geomutil.Dedup(poly, 1e-9)
		if len(poly) < 3 {
			log.Printf("voronoi: dropping degenerate cell for seed %d (%d vertices after clipping)", i, len(poly))
			continue
		}
		cells = append(cells, Cell{
			Index:    i,
			Polygon:  poly,
			Centroid: geomutil.Centroid(poly),
		})
	}
	return cells
}

func cellPolygon(rect geomutil.Rect, seeds []geomutil.Point, i int, seed geomutil.Point) geomutil.Polygon {
	type neighbor struct {
		idx  int
		dist float64
	}
	neighbors := make([]neighbor, 0, len(seeds)-1)
	for j, other := range seeds {
		if j == i {
			continue
		}
		neighbors = append(neighbors, neighbor{idx: j, dist: geomutil.Dist(seed, other)})
	}
	sort.Slice(neighbors, func(a, b int) bool { return neighbors[a].dist < neighbors[b].dist })

	poly := geomutil.RectPolygon(rect)
	for _, nb := range neighbors {
		if len(poly) == 0 {
			break
		}
		reach := maxDistFromPoint(poly, seed)
		if nb.dist > 2*reach {
			break
		}
		other := seeds[nb.idx]
		mid := geomutil.Point{X: (seed.X + other.X) / 2, Y: (seed.Y + other.Y) / 2}
		// ClipHalfPlane keeps side <= 0; the normal must point from seed
		// toward other so seed's own side of the bisector is retained.
		normal := geomutil.Point{X: other.X - seed.X, Y: other.Y - seed.Y}
		poly = geomutil.ClipHalfPlane(poly, mid, normal)
	}
	return poly
}

func maxDistFromPoint(poly geomutil.Polygon, p geomutil.Point) float64 {
	var maxD float64
	for _, v := range poly {
		if d := geomutil.Dist(p, v); d > maxD {
			maxD = d
		}
	}
	return maxD
}

// Relax runs Lloyd's algorithm for k passes (0-5) over seeds, mutating it
// in place and returning the final cells (survivors only, in seed
// order). Movement is deliberately partial (spec §4.D: p' = 0.3p + 0.7c)
// since full movement oscillates on small seed sets. A seed whose cell
// was dropped as degenerate is left unmoved.
func Relax(rect geomutil.Rect, seeds []geomutil.Point, passes int) []Cell {
	var cells []Cell
	for pass := 0; pass < passes; pass++ {
		cells = Tessellate(rect, seeds)
		moved := relaxedPositions(seeds, cells)
		for i := range seeds {
			seeds[i] = geomutil.Point{X: moved.At(i, 0), Y: moved.At(i, 1)}
		}
	}
	return Tessellate(rect, seeds)
}

// relaxedPositions blends every seed 0.3 toward itself and 0.7 toward its
// cell's centroid in one batched matrix combination (spec §4.D: p' =
// 0.3p + 0.7centroid), mirroring how the teacher's LLE solve stages
// per-superpixel quantities into a mat.Dense and combines them with
// matrix arithmetic rather than a per-row loop. A seed whose cell was
// dropped as degenerate keeps its own position as its target, so it is
// left unmoved.
func relaxedPositions(seeds []geomutil.Point, cells []Cell) *mat.Dense {
	n := len(seeds)
	pos := mat.NewDense(n, 2, nil)
	target := mat.NewDense(n, 2, nil)
	for i, seed := range seeds {
		pos.Set(i, 0, seed.X)
		pos.Set(i, 1, seed.Y)
		target.Set(i, 0, seed.X)
		target.Set(i, 1, seed.Y)
	}
	for _, c := range cells {
		target.Set(c.Index, 0, c.Centroid.X)
		target.Set(c.Index, 1, c.Centroid.Y)
	}

	var weightedPos, weightedTarget, out mat.Dense
	weightedPos.Scale(0.3, pos)
	weightedTarget.Scale(0.7, target)
	out.Add(&weightedPos, &weightedTarget)
	return &out
}
