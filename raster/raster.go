// Package raster holds the decoded pixel surface every later stage reads
// from, plus the load-time resize contract fixed by the system: the
// longest side of any input is shrunk to at most MaxDimension before any
// stage sees it, since every downstream stage is O(width*height).
package raster

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// MaxDimension is the longest-side cap enforced at load time (spec §4.A).
const MaxDimension = 2048

// Buffer is a decoded RGBA surface with clamped-addressing helpers.
// Alpha is decoded but treated as opaque: transparent source pixels are
// flattened to white before storage, since every color-sampling stage
// downstream assumes an opaque glass pane.
type Buffer struct {
	Width, Height int
	Pix           []byte // row-major RGB triples, len = Width*Height*3
}

// Load decodes img into a Buffer, shrinking it (area-preserving,
// longest-side-bounded) if necessary, and flattening transparency to
// white. It is the sole entry point to the pipeline: every later stage
// takes a *Buffer, never an image.Image.
func Load(img image.Image) (*Buffer, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("raster: zero-area input image (%dx%d)", w, h)
	}

	longest := max(w, h)
	if longest > MaxDimension {
		scale := float64(MaxDimension) / float64(longest)
		nw := max(1, int(float64(w)*scale+0.5))
		nh := max(1, int(float64(h)*scale+0.5))
		resized := image.NewRGBA(image.Rect(0, 0, nw, nh))
		draw.CatmullRom.Scale(resized, resized.Bounds(), img, b, draw.Over, nil)
		img = resized
		b = resized.Bounds()
		w, h = nw, nh
	}

	buf := &Buffer{Width: w, Height: h, Pix: make([]byte, w*h*3)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl, a := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			var rr, gg, bb uint8
			if a == 0 {
				rr, gg, bb = 255, 255, 255
			} else {
				// Un-premultiply, then flatten onto white by alpha.
				r8 := float64(r>>8) / 255
				g8 := float64(g>>8) / 255
				b8 := float64(bl>>8) / 255
				a8 := float64(a>>8) / 255
				if a8 > 0 {
					r8 /= a8
					g8 /= a8
					b8 /= a8
				}
				rr = blendWhite(r8, a8)
				gg = blendWhite(g8, a8)
				bb = blendWhite(b8, a8)
			}
			off := (y*w + x) * 3
			buf.Pix[off] = rr
			buf.Pix[off+1] = gg
			buf.Pix[off+2] = bb
		}
	}
	return buf, nil
}

func blendWhite(channel01, alpha01 float64) uint8 {
	v := channel01*alpha01 + 1*(1-alpha01)
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return uint8(v*255 + 0.5)
}

// At returns the pixel at (x, y), clamping out-of-bounds coordinates to
// the nearest edge pixel.
func (b *Buffer) At(x, y int) color.RGBA {
	if x < 0 {
		x = 0
	}
	if x >= b.Width {
		x = b.Width - 1
	}
	if y < 0 {
		y = 0
	}
	if y >= b.Height {
		y = b.Height - 1
	}
	off := (y*b.Width + x) * 3
	return color.RGBA{R: b.Pix[off], G: b.Pix[off+1], B: b.Pix[off+2], A: 255}
}

// AtF samples the pixel nearest to the floating-point coordinate (x, y).
func (b *Buffer) AtF(x, y float64) color.RGBA {
	return b.At(int(x+0.5), int(y+0.5))
}

// Area returns Width*Height.
func (b *Buffer) Area() int {
	return b.Width * b.Height
}

// ForEachRow calls fn once per scanline, in order, passing the row index.
// It runs sequentially on the calling goroutine; stage B's parallel row
// loop lives in package edgemap and does not go through this method.
func (b *Buffer) ForEachRow(fn func(y int)) {
	for y := 0; y < b.Height; y++ {
		fn(y)
	}
}
