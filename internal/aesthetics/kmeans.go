package aesthetics

import "math/rand"

const maxIterations = 300

func dist2(a, b rgb) float64 {
	d0, d1, d2 := a[0]-b[0], a[1]-b[1], a[2]-b[2]
	return d0*d0 + d1*d1 + d2*d2
}

// nearest returns the index of the closest center, lowest index on ties.
func nearest(p rgb, centers []rgb) (int, float64) {
	best, bestD := 0, dist2(p, centers[0])
	for i := 1; i < len(centers); i++ {
		if d := dist2(p, centers[i]); d < bestD {
			best, bestD = i, d
		}
	}
	return best, bestD
}

// seedCenters picks k initial centers with k-means++ weighting.
func seedCenters(points []rgb, k int, rng *rand.Rand) []rgb {
	centers := make([]rgb, 0, k)
	centers = append(centers, points[rng.Intn(len(points))])

	d := make([]float64, len(points))
	for len(centers) < k {
		var total float64
		for i, p := range points {
			_, d[i] = nearest(p, centers)
			total += d[i]
		}
		if total == 0 {
			centers = append(centers, points[rng.Intn(len(points))])
			continue
		}
		target := rng.Float64() * total
		pick := len(points) - 1
		for i, w := range d {
			target -= w
			if target < 0 {
				pick = i
				break
			}
		}
		centers = append(centers, points[pick])
	}
	return centers
}

// kmeans partitions points into k clusters with Lloyd iterations and
// returns the centers and their populations. A cluster that loses all of
// its points keeps its previous center.
func kmeans(points []rgb, k int, rng *rand.Rand, maxIter int) ([]rgb, []int) {
	centers := seedCenters(points, k, rng)
	assign := make([]int, len(points))
	for i := range assign {
		assign[i] = -1
	}

	counts := make([]int, k)
	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for i, p := range points {
			c, _ := nearest(p, centers)
			if c != assign[i] {
				assign[i] = c
				changed = true
			}
		}
		if !changed {
			break
		}

		sums := make([]rgb, k)
		for i := range counts {
			counts[i] = 0
		}
		for i, p := range points {
			c := assign[i]
			counts[c]++
			for j := 0; j < 3; j++ {
				sums[c][j] += p[j]
			}
		}
		for c := range centers {
			if counts[c] == 0 {
				continue
			}
			for j := 0; j < 3; j++ {
				centers[c][j] = sums[c][j] / float64(counts[c])
			}
		}
	}

	for i := range counts {
		counts[i] = 0
	}
	for _, c := range assign {
		counts[c]++
	}
	return centers, counts
}
