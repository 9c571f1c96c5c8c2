package raster

import (
	"image"
	"image/color"
	"testing"
)

func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestLoadSolidColor(t *testing.T) {
	img := solidImage(4, 4, color.RGBA{R: 255, G: 0, B: 0, A: 255})
	buf, err := Load(img)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if buf.Width != 4 || buf.Height != 4 {
		t.Fatalf("got %dx%d, want 4x4", buf.Width, buf.Height)
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			got := buf.At(x, y)
			if got.R != 255 || got.G != 0 || got.B != 0 {
				t.Fatalf("At(%d,%d) = %v, want pure red", x, y, got)
			}
		}
	}
}

func TestLoadZeroArea(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 0, 0))
	if _, err := Load(img); err == nil {
		t.Fatal("expected error for zero-area image")
	}
}

func TestLoadTransparentBecomesWhite(t *testing.T) {
	img := solidImage(2, 2, color.RGBA{R: 0, G: 0, B: 0, A: 0})
	buf, err := Load(img)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := buf.At(0, 0)
	if got.R != 255 || got.G != 255 || got.B != 255 {
		t.Fatalf("transparent pixel = %v, want white", got)
	}
}

func TestLoadShrinksLongSide(t *testing.T) {
	img := solidImage(4000, 1000, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	buf, err := Load(img)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if buf.Width != MaxDimension {
		t.Fatalf("width = %d, want %d", buf.Width, MaxDimension)
	}
	if buf.Height != MaxDimension/4 {
		t.Fatalf("height = %d, want %d", buf.Height, MaxDimension/4)
	}
}

func TestAtClampsOutOfBounds(t *testing.T) {
	img := solidImage(3, 3, color.RGBA{R: 1, G: 2, B: 3, A: 255})
	buf, _ := Load(img)
	got := buf.At(-5, 100)
	want := buf.At(0, 2)
	if got != want {
		t.Fatalf("clamped At = %v, want %v", got, want)
	}
}
