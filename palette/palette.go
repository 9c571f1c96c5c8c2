// Package palette holds the closed set of named color palettes and the
// redmean nearest-color mapping used to project sampled cell colors onto
// one of them (spec §4.E, §6).
package palette

import (
	"math"
	"slices"

	"github.com/lucasb-eyer/go-colorful"
)

// RGB is a plain 8-bit-per-channel color, matching the spec's RGB type.
type RGB struct {
	R, G, B uint8
}

// Colorful converts RGB to a go-colorful Color for HSL/Lab arithmetic.
func (c RGB) Colorful() colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

// FromColorful converts a (possibly out-of-gamut) go-colorful Color back
// to a clamped RGB.
func FromColorful(c colorful.Color) RGB {
	c = c.Clamped()
	return RGB{
		R: uint8(c.R*255 + 0.5),
		G: uint8(c.G*255 + 0.5),
		B: uint8(c.B*255 + 0.5),
	}
}

// Original is the sentinel identity palette id: colors pass through
// unchanged (spec §4.E: "when palette-id != original").
const Original = "original"

// Named is the closed set of palettes the UI and this module both
// recognize, keyed by their stable string id.
var Named = map[string][]RGB{
	"monochrome-blue": {
		{R: 0x05, G: 0x08, B: 0x14},
		{R: 0x0A, G: 0x13, B: 0x27},
		{R: 0x0F, G: 0x1E, B: 0x3A},
		{R: 0x14, G: 0x29, B: 0x4D},
		{R: 0x1B, G: 0x3A, B: 0x6B},
		{R: 0x22, G: 0x4C, B: 0x8A},
		{R: 0x2A, G: 0x5F, B: 0xAA},
		{R: 0x3E, G: 0x7B, B: 0xC4},
		{R: 0x5C, G: 0x9C, B: 0xD6},
		{R: 0x82, G: 0xBC, B: 0xE3},
		{R: 0xAC, G: 0xD6, B: 0xEE},
		{R: 0xD3, G: 0xEA, B: 0xF7},
		{R: 0xF3, G: 0xF9, B: 0xFD},
	},
	"sunset-amber": {
		{R: 0x1A, G: 0x0B, B: 0x0B},
		{R: 0x3D, G: 0x14, B: 0x0C},
		{R: 0x6B, G: 0x1E, B: 0x0E},
		{R: 0x9A, G: 0x2E, B: 0x0E},
		{R: 0xC4, G: 0x49, B: 0x12},
		{R: 0xE0, G: 0x6C, B: 0x1E},
		{R: 0xF0, G: 0x93, B: 0x2B},
		{R: 0xF7, G: 0xB7, B: 0x44},
		{R: 0xFC, G: 0xD7, B: 0x7E},
		{R: 0xFE, G: 0xEC, B: 0xBA},
	},
	"emerald-forest": {
		{R: 0x06, G: 0x14, B: 0x0C},
		{R: 0x0A, G: 0x26, B: 0x17},
		{R: 0x10, G: 0x3D, B: 0x24},
		{R: 0x17, G: 0x5A, B: 0x35},
		{R: 0x1F, G: 0x7A, B: 0x46},
		{R: 0x2E, G: 0x9C, B: 0x5A},
		{R: 0x4F, G: 0xBB, B: 0x75},
		{R: 0x80, G: 0xD4, B: 0x9B},
		{R: 0xB9, G: 0xE8, B: 0xC6},
	},
	"violet-dusk": {
		{R: 0x10, G: 0x06, B: 0x1A},
		{R: 0x20, G: 0x0C, B: 0x33},
		{R: 0x35, G: 0x15, B: 0x52},
		{R: 0x4C, G: 0x20, B: 0x73},
		{R: 0x66, G: 0x30, B: 0x96},
		{R: 0x85, G: 0x47, B: 0xB8},
		{R: 0xA8, G: 0x68, B: 0xD3},
		{R: 0xC9, G: 0x92, B: 0xE5},
		{R: 0xE5, G: 0xC2, B: 0xF1},
	},
	"grayscale": {
		{R: 0x00, G: 0x00, B: 0x00},
		{R: 0x22, G: 0x22, B: 0x22},
		{R: 0x44, G: 0x44, B: 0x44},
		{R: 0x66, G: 0x66, B: 0x66},
		{R: 0x88, G: 0x88, B: 0x88},
		{R: 0xAA, G: 0xAA, B: 0xAA},
		{R: 0xCC, G: 0xCC, B: 0xCC},
		{R: 0xFF, G: 0xFF, B: 0xFF},
	},
	"ruby-coral": {
		{R: 0x1A, G: 0x03, B: 0x08},
		{R: 0x3B, G: 0x08, B: 0x14},
		{R: 0x6B, G: 0x10, B: 0x22},
		{R: 0x9E, G: 0x1A, B: 0x30},
		{R: 0xC7, G: 0x2C, B: 0x3C},
		{R: 0xE0, G: 0x4C, B: 0x4C},
		{R: 0xF1, G: 0x73, B: 0x63},
		{R: 0xF9, G: 0x9E, B: 0x87},
		{R: 0xFD, G: 0xC8, B: 0xB6},
	},
}

// IDs returns Original followed by the sorted list of palette ids
// recognized by Named.
func IDs() []string {
	ids := make([]string, 0, len(Named)+1)
	ids = append(ids, Original)
	for id := range Named {
		ids = append(ids, id)
	}
	slices.Sort(ids[1:])
	return ids
}

// Redmean computes the perceptually-weighted RGB distance from spec
// §4.E: sqrt((2+r̄/256)*Δr² + 4*Δg² + (2+(255-r̄)/256)*Δb²).
func Redmean(a, b RGB) float64 {
	rMean := (float64(a.R) + float64(b.R)) / 2
	dr := float64(a.R) - float64(b.R)
	dg := float64(a.G) - float64(b.G)
	db := float64(a.B) - float64(b.B)
	return math.Sqrt((2+rMean/256)*dr*dr + 4*dg*dg + (2+(255-rMean)/256)*db*db)
}

// Nearest returns the color in the named palette id closest to c by
// redmean distance. If id is Original or unknown, c is returned
// unchanged (identity mapping — spec §4.E, §8 round-trip property).
func Nearest(id string, c RGB) RGB {
	if id == Original {
		return c
	}
	pal, ok := Named[id]
	if !ok || len(pal) == 0 {
		return c
	}
	best := pal[0]
	bestD := Redmean(c, best)
	for _, cand := range pal[1:] {
		if d := Redmean(c, cand); d < bestD {
			bestD = d
			best = cand
		}
	}
	return best
}
