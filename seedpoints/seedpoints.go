// Package seedpoints generates the Voronoi seed set: uniform random,
// Poisson-disk (Bridson), or edge-weighted sampling (spec §4.C).
package seedpoints

import (
	"math"
	"math/rand"
	"sort"

	"github.com/pineappleboogie/stained-glass/edgemap"
	"github.com/pineappleboogie/stained-glass/geomutil"
)

// Distribution selects the sampling strategy.
type Distribution int

const (
	Uniform Distribution = iota
	Poisson
	EdgeWeighted
)

// Params configures seed generation (spec §4.C, §6).
type Params struct {
	Count         int // [50, 2000]
	Distribution  Distribution
	EdgeInfluence float64 // [0, 1], used only by EdgeWeighted
	Seed          int64   // explicit RNG seed (spec §9 Open Question a)
}

// Clamp silently clamps every field to its documented range. It is
// called by the Settings-driven pipeline entry point, not by Generate
// itself: low-level callers (including the spec's own worked examples,
// which use cellCount=4) may request any count directly.
func (p *Params) Clamp() {
	if p.Count < 50 {
		p.Count = 50
	}
	if p.Count > 2000 {
		p.Count = 2000
	}
	p.EdgeInfluence = geomutil.Clamp01(p.EdgeInfluence)
}

// Generate produces exactly p.Count points strictly within rect. edges
// may be nil unless Distribution == EdgeWeighted, in which case edges is
// addressed in full-image coordinates and rect is the clip-rectangle
// offset (spec §4.C: "the edge map is still addressed in full-image
// coordinates and emitted points are translated into the clip
// rectangle").
func Generate(rect geomutil.Rect, p Params, edges *edgemap.Map) []geomutil.Point {
	rng := rand.New(rand.NewSource(p.Seed))
	switch p.Distribution {
	case Poisson:
		return poissonDisk(rect, p.Count, rng)
	case EdgeWeighted:
		return edgeWeighted(rect, p.Count, p.EdgeInfluence, edges, rng)
	default:
		return uniform(rect, p.Count, rng)
	}
}

func uniform(rect geomutil.Rect, n int, rng *rand.Rand) []geomutil.Point {
	w := rect.Width()
	h := rect.Height()
	out := make([]geomutil.Point, n)
	for i := range out {
		out[i] = geomutil.Point{
			X: rect.Min.X + rng.Float64()*w,
			Y: rect.Min.Y + rng.Float64()*h,
		}
	}
	return out
}

// poissonDisk implements Bridson's algorithm with the minimum-distance
// and background-grid parameters fixed by spec §4.C.
func poissonDisk(rect geomutil.Rect, n int, rng *rand.Rand) []geomutil.Point {
	w := rect.Width()
	h := rect.Height()
	area := w * h
	if area <= 0 || n <= 0 {
		return uniform(rect, n, rng)
	}
	r := 0.8 * math.Sqrt(area/(math.Pi*float64(n)))
	if r <= 0 {
		return uniform(rect, n, rng)
	}
	cellSize := r / math.Sqrt2
	gridW := max(1, int(math.Ceil(w/cellSize)))
	gridH := max(1, int(math.Ceil(h/cellSize)))
	grid := make([][]int, gridW*gridH) // grid cell -> indices into points

	cellOf := func(p geomutil.Point) (int, int) {
		gx := clampInt(int((p.X-rect.Min.X)/cellSize), 0, gridW-1)
		gy := clampInt(int((p.Y-rect.Min.Y)/cellSize), 0, gridH-1)
		return gx, gy
	}

	var points []geomutil.Point
	addPoint := func(p geomutil.Point) int {
		idx := len(points)
		points = append(points, p)
		gx, gy := cellOf(p)
		grid[gy*gridW+gx] = append(grid[gy*gridW+gx], idx)
		return idx
	}

	fits := func(p geomutil.Point) bool {
		if p.X < rect.Min.X || p.X > rect.Max.X || p.Y < rect.Min.Y || p.Y > rect.Max.Y {
			return false
		}
		gx, gy := cellOf(p)
		for dy := -2; dy <= 2; dy++ {
			for dx := -2; dx <= 2; dx++ {
				nx, ny := gx+dx, gy+dy
				if nx < 0 || nx >= gridW || ny < 0 || ny >= gridH {
					continue
				}
				for _, idx := range grid[ny*gridW+nx] {
					if geomutil.Dist(points[idx], p) < r {
						return false
					}
				}
			}
		}
		return true
	}

	start := geomutil.Point{X: rect.Min.X + rng.Float64()*w, Y: rect.Min.Y + rng.Float64()*h}
	addPoint(start)
	active := []int{0}

	const k = 30
	maxPoints := 2 * n
	for len(active) > 0 && len(points) < maxPoints {
		ai := rng.Intn(len(active))
		origin := points[active[ai]]
		accepted := false
		for range k {
			dist := r + rng.Float64()*r // [r, 2r)
			angle := rng.Float64() * 2 * math.Pi
			cand := geomutil.Point{
				X: origin.X + dist*math.Cos(angle),
				Y: origin.Y + dist*math.Sin(angle),
			}
			if fits(cand) {
				addPoint(cand)
				active = append(active, len(points)-1)
				accepted = true
				break
			}
		}
		if !accepted {
			active = append(active[:ai], active[ai+1:]...)
		}
	}

	if len(points) > n {
		points = points[:n]
	} else if len(points) < n {
		points = append(points, uniform(rect, n-len(points), rng)...)
	}
	return points
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// edgeWeighted builds a prefix sum over the (full-image) edge map and
// draws n points proportional to local gradient strength, then jitters
// and translates each into rect's coordinate frame (spec §4.C).
func edgeWeighted(rect geomutil.Rect, n int, influence float64, edges *edgemap.Map, rng *rand.Rand) []geomutil.Point {
	if edges == nil || len(edges.Values) == 0 {
		return uniform(rect, n, rng)
	}
	w, h := edges.Width, edges.Height
	weights := make([]float64, w*h)
	prefix := make([]float64, w*h)
	var total float64
	for i, e := range edges.Values {
		weights[i] = (1 - influence) + influence*(e+0.1)
		total += weights[i]
		prefix[i] = total
	}
	if total <= 0 {
		return uniform(rect, n, rng)
	}

	out := make([]geomutil.Point, n)
	for i := range n {
		u := rng.Float64() * total
		idx := sort.Search(len(prefix), func(j int) bool { return prefix[j] >= u })
		if idx >= len(prefix) {
			idx = len(prefix) - 1
		}
		px := float64(idx % w)
		py := float64(idx / w)
		px += rng.Float64() - 0.5
		py += rng.Float64() - 0.5
		px = geomutil.Clamp(px, 0, float64(w-1))
		py = geomutil.Clamp(py, 0, float64(h-1))

		// Translate full-image coordinates into the clip rectangle.
		tx := rect.Min.X + px
		ty := rect.Min.Y + py
		tx = geomutil.Clamp(tx, rect.Min.X, rect.Max.X)
		ty = geomutil.Clamp(ty, rect.Min.Y, rect.Max.Y)
		out[i] = geomutil.Point{X: tx, Y: ty}
	}
	return out
}
