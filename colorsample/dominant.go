package colorsample

import (
	"image"
	"image/color"
	"log"
	"math"
	"slices"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"

	"github.com/pineappleboogie/stained-glass/palette"
)

// SuggestMethod selects how SuggestPalette derives its candidate colors.
type SuggestMethod int

const (
	SuggestDominantColor SuggestMethod = iota
	SuggestKMeans
)

// SuggestPalette is a host-facing convenience that is NOT part of the
// deterministic Sample pipeline: it inspects the whole source image and
// proposes a starting color palette (e.g. to pre-fill a palette-id
// picker, or to pick a sensible paletteSize before Settings is built).
// It is adapted from setanarut-layerbuilder's utils.ExtractDominantPalette
// / ExtractKMeansPalette and carries the same library choices
// (github.com/cenkalti/dominantcolor, github.com/muesli/kmeans +
// github.com/muesli/clusters) — those libraries have their own internal
// randomized initialization, which is exactly why this function stays
// out of the must-be-deterministic Sample path and quantize's hand-rolled
// loop is used there instead.
func SuggestPalette(img image.Image, k int, method SuggestMethod) []palette.RGB {
	var colors []colorful.Color
	switch method {
	case SuggestKMeans:
		colors = extractKMeansPalette(img, k)
		if len(colors) == 0 {
			log.Println("colorsample: kmeans returned empty palette, falling back to dominantcolor")
			colors = extractDominantPalette(img, k)
		}
	default:
		colors = extractDominantPalette(img, k)
	}
	sortByBrightness(colors)

	out := make([]palette.RGB, len(colors))
	for i, c := range colors {
		out[i] = palette.FromColorful(c)
	}
	return out
}

type weightedColor struct {
	col    colorful.Color
	weight float64
}

func sortByBrightness(cs []colorful.Color) {
	slices.SortFunc(cs, func(a, b colorful.Color) int {
		ra, ga, ba := a.LinearRgb()
		rb, gb, bb := b.LinearRgb()
		ya := 0.2126*ra + 0.7152*ga + 0.0722*ba
		yb := 0.2126*rb + 0.7152*gb + 0.0722*bb
		switch {
		case ya < yb:
			return -1
		case ya > yb:
			return 1
		default:
			return 0
		}
	})
}

func extractDominantPalette(img image.Image, k int) []colorful.Color {
	if k <= 0 {
		return nil
	}
	nCandidates := max(24, k*8)
	candidates := dominantcolor.FindWeight(img, nCandidates)
	if len(candidates) == 0 {
		candidates = append(candidates, dominantcolor.Color{
			RGBA:   color.RGBA{R: 128, G: 128, B: 128, A: 255},
			Weight: 1.0,
		})
	}

	weighted := make([]weightedColor, 0, len(candidates))
	for _, c := range candidates {
		col, _ := colorful.MakeColor(c.RGBA)
		w := c.Weight
		if w <= 0 {
			w = 1e-6
		}
		weighted = append(weighted, weightedColor{col: col.Clamped(), weight: w})
	}
	return selectDiverseWeighted(weighted, k)
}

func extractKMeansPalette(img image.Image, k int) []colorful.Color {
	if k <= 0 {
		return nil
	}
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height == 0 {
		return nil
	}

	const maxSamples = 12000
	step := 1
	if width*height > maxSamples {
		step = int(math.Sqrt(float64(width*height)/float64(maxSamples))) + 1
	}

	dataset := make(clusters.Observations, 0, min(width*height, maxSamples))
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			r16, g16, b16, a16 := img.At(x, y).RGBA()
			if a16 == 0 {
				continue
			}
			dataset = append(dataset, clusters.Coordinates{
				float64(r16) / 65535.0,
				float64(g16) / 65535.0,
				float64(b16) / 65535.0,
			})
		}
	}
	if len(dataset) == 0 {
		return nil
	}

	workK := min(max(k*4, k+2), len(dataset))
	if workK <= 0 {
		return nil
	}
	km := kmeans.New()
	cc, err := km.Partition(dataset, workK)
	if err != nil || len(cc) == 0 {
		return nil
	}

	slices.SortFunc(cc, func(a, b clusters.Cluster) int {
		na, nb := len(a.Observations), len(b.Observations)
		switch {
		case na > nb:
			return -1
		case na < nb:
			return 1
		default:
			return 0
		}
	})

	weighted := make([]weightedColor, 0, len(cc))
	for _, c := range cc {
		center := c.Center
		if len(center) < 3 {
			continue
		}
		col := colorful.Color{R: center[0], G: center[1], B: center[2]}.Clamped()
		w := float64(len(c.Observations))
		if w <= 0 {
			w = 1e-6
		}
		weighted = append(weighted, weightedColor{col: col, weight: w})
	}
	return selectDiverseWeighted(weighted, k)
}

// selectDiverseWeighted greedily picks k colors that are both heavily
// weighted and mutually distant in Lab space, seeding with the strongest
// candidate so the result stays anchored to the image's dominant tones.
func selectDiverseWeighted(cands []weightedColor, k int) []colorful.Color {
	if k <= 0 || len(cands) == 0 {
		return nil
	}
	type item struct {
		col colorful.Color
		lab [3]float64
		w   float64
	}
	items := make([]item, 0, len(cands))
	maxW := 0.0
	for _, c := range cands {
		col := c.col.Clamped()
		l, a, b := col.Lab()
		w := c.weight
		if w <= 0 {
			w = 1e-6
		}
		if w > maxW {
			maxW = w
		}
		items = append(items, item{col: col, lab: [3]float64{l, a, b}, w: w})
	}
	if len(items) == 0 {
		return nil
	}
	if k > len(items) {
		k = len(items)
	}
	if maxW <= 0 {
		maxW = 1.0
	}

	selectedIdx := make([]int, 0, k)
	selected := make([]bool, len(items))

	bestSeed, bestSeedW := 0, items[0].w
	for i := 1; i < len(items); i++ {
		if items[i].w > bestSeedW {
			bestSeedW = items[i].w
			bestSeed = i
		}
	}
	selectedIdx = append(selectedIdx, bestSeed)
	selected[bestSeed] = true

	for len(selectedIdx) < k {
		bestIdx, bestScore := -1, -1.0
		for i := range items {
			if selected[i] {
				continue
			}
			minD2 := math.MaxFloat64
			for _, s := range selectedIdx {
				d0 := items[i].lab[0] - items[s].lab[0]
				d1 := items[i].lab[1] - items[s].lab[1]
				d2 := items[i].lab[2] - items[s].lab[2]
				if v := d0*d0 + d1*d1 + d2*d2; v < minD2 {
					minD2 = v
				}
			}
			normW := items[i].w / maxW
			score := math.Sqrt(minD2) * (0.55 + 0.45*math.Sqrt(normW))
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			break
		}
		selected[bestIdx] = true
		selectedIdx = append(selectedIdx, bestIdx)
	}

	out := make([]colorful.Color, 0, len(selectedIdx))
	for _, idx := range selectedIdx {
		out = append(out, items[idx].col)
	}
	return out
}
