package colorsample

import "github.com/pineappleboogie/stained-glass/palette"

// quantize runs the spec-exact k-means over raw cell colors: k centroids
// seeded by even stride through the input, 10 iterations, squared-RGB
// distance (spec §4.E). Each color is replaced by its nearest centroid.
//
// This is a from-scratch loop rather than github.com/muesli/kmeans
// because the spec pins the initialization rule and iteration count
// exactly — determinism (spec §8: "identical settings ... produce
// byte-equal documents") requires owning that loop. See SuggestPalette in
// dominant.go for where this module actually uses muesli/kmeans and
// dominantcolor.
func quantize(colors []palette.RGB, k int) []palette.RGB {
	n := len(colors)
	if n == 0 {
		return colors
	}
	if k > n {
		k = n
	}
	if k <= 0 {
		return colors
	}

	centroids := make([][3]float64, k)
	stride := float64(n) / float64(k)
	for i := range centroids {
		idx := int(float64(i) * stride)
		if idx >= n {
			idx = n - 1
		}
		centroids[i] = toVec(colors[idx])
	}

	assign := make([]int, n)
	for iter := 0; iter < 10; iter++ {
		for i, c := range colors {
			v := toVec(c)
			best, bestD := 0, distSq(v, centroids[0])
			for ci := 1; ci < k; ci++ {
				if d := distSq(v, centroids[ci]); d < bestD {
					bestD = d
					best = ci
				}
			}
			assign[i] = best
		}

		sums := make([][3]float64, k)
		counts := make([]int, k)
		for i, c := range colors {
			v := toVec(c)
			ci := assign[i]
			sums[ci][0] += v[0]
			sums[ci][1] += v[1]
			sums[ci][2] += v[2]
			counts[ci]++
		}
		for ci := range centroids {
			if counts[ci] > 0 {
				centroids[ci] = [3]float64{
					sums[ci][0] / float64(counts[ci]),
					sums[ci][1] / float64(counts[ci]),
					sums[ci][2] / float64(counts[ci]),
				}
			}
		}
	}

	out := make([]palette.RGB, n)
	for i := range colors {
		out[i] = fromVec(centroids[assign[i]])
	}
	return out
}

func toVec(c palette.RGB) [3]float64 {
	return [3]float64{float64(c.R), float64(c.G), float64(c.B)}
}

func fromVec(v [3]float64) palette.RGB {
	return palette.RGB{
		R: clampByte(v[0]),
		G: clampByte(v[1]),
		B: clampByte(v[2]),
	}
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}

func distSq(a, b [3]float64) float64 {
	dr := a[0] - b[0]
	dg := a[1] - b[1]
	db := a[2] - b[2]
	return dr*dr + dg*dg + db*db
}
