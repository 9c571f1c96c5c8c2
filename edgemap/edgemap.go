// Package edgemap computes a normalized per-pixel edge-strength map from
// a raster buffer: grayscale conversion, an optional pre-blur, a contrast
// stretch, then one of two gradient estimators (Sobel magnitude or Canny).
package edgemap

import (
	"context"
	"math"
	"runtime"
	"sync"

	"github.com/pineappleboogie/stained-glass/raster"
)

// Method selects the gradient estimator.
type Method int

const (
	Sobel Method = iota
	Canny
)

// Params configures edge-map computation (spec §4.B, §6). Values outside
// their documented range are clamped by Clamp, never rejected.
type Params struct {
	PreBlur     float64 // [0, 10]
	Contrast    float64 // [0.5, 2.0]
	Method      Method
	Sensitivity float64 // [0, 100]
}

// Clamp silently clamps every field to its documented range.
func (p *Params) Clamp() {
	p.PreBlur = clamp(p.PreBlur, 0, 10)
	p.Contrast = clamp(p.Contrast, 0.5, 2.0)
	p.Sensitivity = clamp(p.Sensitivity, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Map is a width*height array of edge strengths in [0, 1].
type Map struct {
	Width, Height int
	Values        []float64
}

// At returns the edge value at (x, y), or 0 if out of bounds.
func (m *Map) At(x, y int) float64 {
	if x < 0 || x >= m.Width || y < 0 || y >= m.Height {
		return 0
	}
	return m.Values[y*m.Width+x]
}

// Compute runs grayscale -> blur -> contrast -> gradient estimator over
// buf, honoring ctx cancellation at row boundaries inside the row-wise
// parallel stages, in the same goroutine-pool-plus-context-check shape the
// pipeline orchestrator expects from every stage (spec §5).
func Compute(ctx context.Context, buf *raster.Buffer, p Params) (*Map, error) {
	p.Clamp()
	w, h := buf.Width, buf.Height

	gray := toGrayscale(buf)
	if p.PreBlur > 0 {
		gray = gaussianBlur(ctx, gray, w, h, p.PreBlur)
	}
	applyContrast(gray, p.Contrast)

	var values []float64
	switch p.Method {
	case Canny:
		values = canny(ctx, gray, w, h, p.Sensitivity)
	default:
		values = sobel(ctx, gray, w, h, p.Sensitivity)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Map{Width: w, Height: h, Values: values}, nil
}

func toGrayscale(buf *raster.Buffer) []float64 {
	w, h := buf.Width, buf.Height
	out := make([]float64, w*h)
	for i := 0; i < w*h; i++ {
		off := i * 3
		r := float64(buf.Pix[off])
		g := float64(buf.Pix[off+1])
		b := float64(buf.Pix[off+2])
		out[i] = 0.299*r + 0.587*g + 0.114*b
	}
	return out
}

// forEachRowParallel runs fn(y) for y in [0,h) across a bounded worker
// pool, stopping early (best-effort) once ctx is cancelled.
func forEachRowParallel(ctx context.Context, h int, fn func(y int)) {
	workers := max(1, min(runtime.GOMAXPROCS(0), h))
	rows := make(chan int, h)
	for y := 0; y < h; y++ {
		rows <- y
	}
	close(rows)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for y := range rows {
				if ctx.Err() != nil {
					return
				}
				fn(y)
			}
		}()
	}
	wg.Wait()
}

func gaussianBlur(ctx context.Context, src []float64, w, h int, radius float64) []float64 {
	sigma := radius / 2
	if sigma <= 0 {
		return src
	}
	size := 2*int(math.Ceil(radius)) + 1
	half := size / 2
	kernel := make([]float64, size)
	var sum float64
	for i := range kernel {
		d := float64(i - half)
		kernel[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}

	tmp := make([]float64, w*h)
	forEachRowParallel(ctx, h, func(y int) {
		for x := 0; x < w; x++ {
			var acc float64
			for k := -half; k <= half; k++ {
				sx := clampInt(x+k, 0, w-1)
				acc += src[y*w+sx] * kernel[k+half]
			}
			tmp[y*w+x] = acc
		}
	})

	out := make([]float64, w*h)
	forEachRowParallel(ctx, h, func(y int) {
		for x := 0; x < w; x++ {
			var acc float64
			for k := -half; k <= half; k++ {
				sy := clampInt(y+k, 0, h-1)
				acc += tmp[sy*w+x] * kernel[k+half]
			}
			out[y*w+x] = acc
		}
	})
	return out
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

func applyContrast(gray []float64, c float64) {
	for i, v := range gray {
		gray[i] = clamp((v-128)*c+128, 0, 255)
	}
}

var sobelGx = [3][3]float64{
	{-1, 0, 1},
	{-2, 0, 2},
	{-1, 0, 1},
}
var sobelGy = [3][3]float64{
	{-1, -2, -1},
	{0, 0, 0},
	{1, 2, 1},
}

func sobelGradients(gray []float64, w, h int) (gx, gy []float64) {
	gx = make([]float64, w*h)
	gy = make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sx, sy float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					px := clampInt(x+kx, 0, w-1)
					py := clampInt(y+ky, 0, h-1)
					v := gray[py*w+px]
					sx += v * sobelGx[ky+1][kx+1]
					sy += v * sobelGy[ky+1][kx+1]
				}
			}
			gx[y*w+x] = sx
			gy[y*w+x] = sy
		}
	}
	return gx, gy
}

func sobel(ctx context.Context, gray []float64, w, h int, sensitivity float64) []float64 {
	gx, gy := sobelGradients(gray, w, h)
	mag := make([]float64, w*h)
	maxMag := 0.0
	for i := range mag {
		m := math.Hypot(gx[i], gy[i])
		mag[i] = m
		if m > maxMag {
			maxMag = m
		}
	}
	if maxMag > 0 {
		for i := range mag {
			mag[i] /= maxMag
		}
	}
	t := (100 - sensitivity) / 100 * 0.3
	forEachRowParallel(ctx, h, func(y int) {
		for x := 0; x < w; x++ {
			i := y*w + x
			if mag[i] < t {
				mag[i] = 0
			}
		}
	})
	return mag
}

// canny implements Sobel gradients, 4-direction non-maximum suppression,
// and two-pass hysteresis thresholding (spec §4.B), returning a binary
// (0/1) edge map.
func canny(ctx context.Context, gray []float64, w, h int, sensitivity float64) []float64 {
	gx, gy := sobelGradients(gray, w, h)
	mag := make([]float64, w*h)
	dir := make([]float64, w*h) // binned angle in degrees: 0, 45, 90, 135
	for i := range mag {
		mag[i] = math.Hypot(gx[i], gy[i])
		angle := math.Atan2(gy[i], gx[i]) * 180 / math.Pi
		if angle < 0 {
			angle += 180
		}
		switch {
		case angle < 22.5 || angle >= 157.5:
			dir[i] = 0
		case angle < 67.5:
			dir[i] = 45
		case angle < 112.5:
			dir[i] = 90
		default:
			dir[i] = 135
		}
	}

	nms := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			var dx1, dy1, dx2, dy2 int
			switch dir[i] {
			case 0:
				dx1, dy1, dx2, dy2 = -1, 0, 1, 0
			case 45:
				dx1, dy1, dx2, dy2 = -1, 1, 1, -1
			case 90:
				dx1, dy1, dx2, dy2 = 0, -1, 0, 1
			default:
				dx1, dy1, dx2, dy2 = -1, -1, 1, 1
			}
			n1 := mag[clampInt(y+dy1, 0, h-1)*w+clampInt(x+dx1, 0, w-1)]
			n2 := mag[clampInt(y+dy2, 0, h-1)*w+clampInt(x+dx2, 0, w-1)]
			if mag[i] >= n1 && mag[i] >= n2 {
				nms[i] = mag[i]
			}
		}
	}

	low := math.Max(5, 50-0.4*sensitivity)
	high := math.Max(20, 100-0.7*sensitivity)

	strong := make([]bool, w*h)
	weak := make([]bool, w*h)
	for i, v := range nms {
		if v >= high {
			strong[i] = true
		} else if v >= low {
			weak[i] = true
		}
	}

	// Iteratively promote weak neighbors of strong pixels to fixed point.
	changed := true
	for changed {
		if ctx.Err() != nil {
			break
		}
		changed = false
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				i := y*w + x
				if !strong[i] && weak[i] {
					for dy := -1; dy <= 1; dy++ {
						for dx := -1; dx <= 1; dx++ {
							if dx == 0 && dy == 0 {
								continue
							}
							nx, ny := x+dx, y+dy
							if nx < 0 || nx >= w || ny < 0 || ny >= h {
								continue
							}
							if strong[ny*w+nx] {
								strong[i] = true
								changed = true
								break
							}
						}
						if strong[i] {
							break
						}
					}
				}
			}
		}
	}

	out := make([]float64, w*h)
	for i, s := range strong {
		if s {
			out[i] = 1
		}
	}
	return out
}
