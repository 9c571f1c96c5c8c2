// Package lighting applies the simulated light-transmission pass to an
// already-colored set of cells: per-cell brightness shading, clustered
// volumetric rays, and a glow layer (spec §4.G).
package lighting

import (
	"math"
	"math/rand"
	"sort"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/pineappleboogie/stained-glass/colorsample"
	"github.com/pineappleboogie/stained-glass/geomutil"
	"github.com/pineappleboogie/stained-glass/palette"
)

// Preset names a fixed light direction, or a data-dependent placement
// (center, custom). Angles follow screen coordinates: y grows downward
// (spec §9 open question d).
type Preset int

const (
	TopLeft Preset = iota
	Top
	TopRight
	Right
	BottomRight
	Bottom
	BottomLeft
	Left
	Center
	Custom
)

var presetAngle = map[Preset]float64{
	Left:        0,
	BottomLeft:  45,
	Bottom:      90,
	BottomRight: 135,
	Right:       180,
	TopRight:    225,
	Top:         270,
	TopLeft:     315,
}

// RayParams configures the volumetric ray layer (spec §3 Light Settings
// rays sub-record).
type RayParams struct {
	Enabled   bool
	Count     int     // [3, 12]
	Intensity float64 // [0, 1]
	Spread    float64 // [0, 90] degrees
	Length    float64 // [0, 1]
}

// GlowParams configures the glow layer (spec §3 Light Settings glow
// sub-record).
type GlowParams struct {
	Enabled   bool
	Intensity float64 // [0, 1]
	Radius    float64 // [0, 50]
}

// Settings configures the whole lighting pass (spec §3 Light Settings).
type Settings struct {
	Enabled   bool
	Preset    Preset
	Angle     float64 // [0, 360), used when Preset == Custom
	Elevation float64 // [0, 90]
	Intensity float64 // [0, 2]
	Ambient   float64 // [0, 1]
	DarkMode  bool
	Rays      RayParams
	Glow      GlowParams
	Seed      int64
}

// Clamp silently clamps every numeric field to its documented range.
func (s *Settings) Clamp() {
	s.Angle = math.Mod(math.Mod(s.Angle, 360)+360, 360)
	s.Elevation = geomutil.Clamp(s.Elevation, 0, 90)
	s.Intensity = geomutil.Clamp(s.Intensity, 0, 2)
	s.Ambient = geomutil.Clamp(s.Ambient, 0, 1)
	if s.Rays.Count < 3 {
		s.Rays.Count = 3
	}
	if s.Rays.Count > 12 {
		s.Rays.Count = 12
	}
	s.Rays.Intensity = geomutil.Clamp01(s.Rays.Intensity)
	s.Rays.Spread = geomutil.Clamp(s.Rays.Spread, 0, 90)
	s.Rays.Length = geomutil.Clamp01(s.Rays.Length)
	s.Glow.Intensity = geomutil.Clamp01(s.Glow.Intensity)
	s.Glow.Radius = geomutil.Clamp(s.Glow.Radius, 0, 50)
}

// LitCell is a colored cell after transmission shading (spec §3 Colored
// Cell, post-lighting).
type LitCell struct {
	Index   int
	Polygon geomutil.Polygon
	Color   palette.RGB
}

// Ray is one volumetric light beam (spec §3 Ray).
type Ray struct {
	Origin    geomutil.Point
	Direction float64 // radians
	Color     palette.RGB
	Opacity   float64
	Width     float64
	Length    float64
}

// Glow is one saturation-boosted copy of a cell intended for a blurred
// overlay layer.
type Glow struct {
	Index   int
	Polygon geomutil.Polygon
	Color   palette.RGB
}

// Result bundles every product of the lighting pass.
type Result struct {
	Cells     []LitCell
	BackRays  []Ray
	FrontRays []Ray
	Glows     []Glow
	GlowSigma float64
}

// lightSource is the resolved geometry of the light: its position
// (conceptually outside the image except for Center) and the unit
// direction from the image center toward it.
type lightSource struct {
	pos      geomutil.Point
	dir      geomutil.Point // unit vector from image center to light
	isCenter bool
}

func resolveLight(w, h float64, s Settings) lightSource {
	center := geomutil.Point{X: w / 2, Y: h / 2}
	if s.Preset == Center {
		return lightSource{pos: center, isCenter: true}
	}

	angle := s.Angle
	if s.Preset != Custom {
		angle = presetAngle[s.Preset]
	}
	// Angle 0 places the light left of the image, 90 below it, 180 to
	// the right and 270 above it (y grows downward), so every preset
	// sits on the side its name says.
	rad := angle * math.Pi / 180
	dir := geomutil.Point{X: -math.Cos(rad), Y: math.Sin(rad)}

	dist := 2 * math.Max(w, h)
	pos := geomutil.Point{X: center.X + dir.X*dist, Y: center.Y + dir.Y*dist}
	return lightSource{pos: pos, dir: dir}
}

// Apply runs the lighting pass on cells. If !settings.Enabled, the
// returned Result has unchanged cells and no rays or glow (spec §8
// round-trip: disabling lighting equals skipping stage G entirely).
func Apply(w, h float64, cells []colorsample.Cell, settings Settings) Result {
	if !settings.Enabled {
		lit := make([]LitCell, len(cells))
		for i, c := range cells {
			lit[i] = LitCell{Index: c.Index, Polygon: c.Polygon, Color: c.Color}
		}
		return Result{Cells: lit}
	}
	settings.Clamp()

	light := resolveLight(w, h, settings)
	diag := math.Hypot(w, h)
	center := geomutil.Point{X: w / 2, Y: h / 2}

	lit := make([]LitCell, len(cells))
	for i, c := range cells {
		b := transmission(c.Polygon, center, diag, light, settings)
		lit[i] = LitCell{Index: c.Index, Polygon: c.Polygon, Color: shadeLightness(c.Color, b)}
	}

	result := Result{Cells: lit}
	if settings.Rays.Enabled {
		rng := rand.New(rand.NewSource(settings.Seed))
		result.BackRays, result.FrontRays = buildRays(w, h, lit, light, settings, rng)
	}
	if settings.Glow.Enabled {
		result.Glows, result.GlowSigma = buildGlow(lit, settings)
	}
	return result
}

// transmission computes the shading factor for one cell (spec §4.G
// "Transmission shading").
func transmission(poly geomutil.Polygon, center geomutil.Point, diag float64, light lightSource, s Settings) float64 {
	var b float64
	if light.isCenter {
		b = 0.5 + 0.5*(s.Elevation/90)
	} else {
		centroid := geomutil.Centroid(poly)
		offset := geomutil.Point{X: centroid.X - center.X, Y: centroid.Y - center.Y}
		proj := offset.X*light.dir.X + offset.Y*light.dir.Y
		p := proj / (diag / 2)
		p = (p + 1) / 2
		base := 0.3 + 0.7*p
		gradient := 1 - 0.7*(s.Elevation/90)
		b = 0.5 + (base-0.5)*gradient
		b = geomutil.Clamp(b, 0.2, 1)
	}
	bFinal := (s.Ambient + (1-s.Ambient)*b) * s.Intensity
	return bFinal
}

// shadeLightness applies b as an HSL lightness multiplier.
func shadeLightness(c palette.RGB, b float64) palette.RGB {
	cf := c.Colorful()
	h, sv, l := cf.Hsl()
	l = geomutil.Clamp01(l * b)
	return palette.FromColorful(colorful.Hsl(h, sv, l))
}

// cluster is a grid bucket of cells used only for ray placement (spec §3
// Cell Cluster).
type cluster struct {
	centroid geomutil.Point
	color    palette.RGB
}

// clusterCells buckets cells into a g x g grid over [0,w]x[0,h] (spec
// §4.G "Clustering for rays").
func clusterCells(w, h float64, cells []LitCell, rayCount int) []cluster {
	g := int(math.Ceil(math.Sqrt(2 * float64(rayCount))))
	if g < 1 {
		g = 1
	}
	cw, ch := w/float64(g), h/float64(g)

	type bucket struct {
		sumX, sumY       float64
		sumR, sumG, sumB float64
		n                int
		gx, gy           int
	}
	buckets := map[[2]int]*bucket{}
	for _, c := range cells {
		centroid := geomutil.Centroid(c.Polygon)
		gx := clampGrid(int(centroid.X/cw), g)
		gy := clampGrid(int(centroid.Y/ch), g)
		key := [2]int{gx, gy}
		bk, ok := buckets[key]
		if !ok {
			bk = &bucket{gx: gx, gy: gy}
			buckets[key] = bk
		}
		bk.sumX += centroid.X
		bk.sumY += centroid.Y
		bk.sumR += float64(c.Color.R)
		bk.sumG += float64(c.Color.G)
		bk.sumB += float64(c.Color.B)
		bk.n++
	}

	keys := make([][2]int, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})

	clusters := make([]cluster, 0, len(buckets))
	for _, k := range keys {
		bk := buckets[k]
		if bk.n == 0 {
			continue
		}
		cellCenterX := (float64(bk.gx)+0.5)*cw
		cellCenterY := (float64(bk.gy)+0.5)*ch
		clusters = append(clusters, cluster{
			centroid: geomutil.Point{X: cellCenterX, Y: cellCenterY},
			color: palette.RGB{
				R: uint8(bk.sumR/float64(bk.n) + 0.5),
				G: uint8(bk.sumG/float64(bk.n) + 0.5),
				B: uint8(bk.sumB/float64(bk.n) + 0.5),
			},
		})
	}
	return clusters
}

func clampGrid(v, g int) int {
	if v < 0 {
		return 0
	}
	if v >= g {
		return g - 1
	}
	return v
}

// vibrance is HSL s*l, used to rank clusters for ray selection (spec
// §4.G "Ray selection").
func vibrance(c palette.RGB) float64 {
	_, s, l := c.Colorful().Hsl()
	return s * l
}

// buildRays selects the most vibrant clusters and emits a back and
// front ray trapezoid-source for each (spec §4.G "Ray geometry").
func buildRays(w, h float64, cells []LitCell, light lightSource, s Settings, rng *rand.Rand) (back, front []Ray) {
	clusters := clusterCells(w, h, cells, s.Rays.Count)
	sort.SliceStable(clusters, func(i, j int) bool {
		return vibrance(clusters[i].color) > vibrance(clusters[j].color)
	})

	n := min(s.Rays.Count, len(clusters))
	diag := math.Hypot(w, h)
	baseWidth := (w / float64(s.Rays.Count)) * (s.Rays.Spread / 45)
	frontLength := diag * s.Rays.Length
	backLength := 0.25 * frontLength

	for i := 0; i < n; i++ {
		c := clusters[i]

		var dir float64
		if light.isCenter {
			dir = (float64(i) / float64(s.Rays.Count)) * 2 * math.Pi
		} else {
			dir = math.Atan2(c.centroid.Y-light.pos.Y, c.centroid.X-light.pos.X)
		}

		u := rng.Float64() * 0.5
		backOrigin := geomutil.Point{
			X: c.centroid.X - math.Cos(dir)*0.3*backLength,
			Y: c.centroid.Y - math.Sin(dir)*0.3*backLength,
		}
		back = append(back, Ray{
			Origin:    backOrigin,
			Direction: dir,
			Color:     c.color,
			Opacity:   0.8 * s.Intensity,
			Width:     0.7 * baseWidth * (0.5 + u),
			Length:    backLength * (0.7 + rng.Float64()*0.3),
		})

		front = append(front, Ray{
			Origin:    c.centroid,
			Direction: dir,
			Color:     c.color,
			Opacity:   0.5 * s.Intensity,
			Width:     baseWidth * (0.5 + rng.Float64()*0.5),
			Length:    frontLength * (0.7 + rng.Float64()*0.3),
		})
	}
	return back, front
}

// buildGlow emits a saturation-boosted glow polygon per cell plus the
// blur sigma and opacity the emitter should apply to the whole layer
// (spec §4.G "Glow layer").
func buildGlow(cells []LitCell, s Settings) ([]Glow, float64) {
	glows := make([]Glow, len(cells))
	for i, c := range cells {
		cf := c.Color.Colorful()
		h, sv, l := cf.Hsl()
		sv = geomutil.Clamp01(sv * 1.3)
		glows[i] = Glow{
			Index:   c.Index,
			Polygon: c.Polygon,
			Color:   palette.FromColorful(colorful.Hsl(h, sv, l)),
		}
	}
	sigma := s.Glow.Radius * s.Glow.Intensity
	return glows, sigma
}

// GlowOpacity is the layer-wide opacity the emitter should apply to the
// glow layer (spec §4.G "Glow layer").
func GlowOpacity(s Settings) float64 {
	mult := 1.0
	if s.DarkMode {
		mult = 1.5
	}
	return s.Glow.Intensity * mult * 0.7
}
