package predict

import (
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// node is one split or leaf of a regression tree.
type node struct {
	leaf      bool
	value     float64
	feature   int
	threshold float64
	left      *node
	right     *node
}

func (n *node) predict(x []float64) float64 {
	for !n.leaf {
		if x[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

type treeParams struct {
	maxDepth        int // 0 means unlimited
	minSamplesSplit int
}

// growTree fits a CART regression tree minimizing squared error over the
// samples listed in idx. Features are visited in a random order per split
// so equally good splits are broken by the seed.
func growTree(x [][]float64, y []float64, idx []int, depth int, p treeParams, rng *rand.Rand) *node {
	mean, sse := meanSSE(y, idx)
	if len(idx) < p.minSamplesSplit || (p.maxDepth > 0 && depth >= p.maxDepth) || sse <= 0 {
		return &node{leaf: true, value: mean}
	}

	bestFeature, bestThreshold, bestScore := -1, 0.0, sse
	order := make([]int, len(idx))
	for _, f := range rng.Perm(len(x[0])) {
		copy(order, idx)
		sort.SliceStable(order, func(a, b int) bool { return x[order[a]][f] < x[order[b]][f] })

		var total, totalSq float64
		for _, i := range order {
			total += y[i]
			totalSq += y[i] * y[i]
		}
		var leftSum, leftSq float64
		for k := 0; k < len(order)-1; k++ {
			v := y[order[k]]
			leftSum += v
			leftSq += v * v
			cur, next := x[order[k]][f], x[order[k+1]][f]
			if cur == next {
				continue
			}
			nl := float64(k + 1)
			nr := float64(len(order) - k - 1)
			rightSum, rightSq := total-leftSum, totalSq-leftSq
			score := (leftSq - leftSum*leftSum/nl) + (rightSq - rightSum*rightSum/nr)
			if score < bestScore-1e-12 {
				bestFeature, bestThreshold, bestScore = f, (cur+next)/2, score
			}
		}
	}
	if bestFeature < 0 {
		return &node{leaf: true, value: mean}
	}

	var left, right []int
	for _, i := range idx {
		if x[i][bestFeature] <= bestThreshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return &node{
		feature:   bestFeature,
		threshold: bestThreshold,
		left:      growTree(x, y, left, depth+1, p, rng),
		right:     growTree(x, y, right, depth+1, p, rng),
	}
}

// meanSSE returns the mean of the targets in idx and their sum of squared
// deviations from it.
func meanSSE(y []float64, idx []int) (float64, float64) {
	if len(idx) == 0 {
		return 0, 0
	}
	vals := make([]float64, len(idx))
	for k, i := range idx {
		vals[k] = y[i]
	}
	mean, variance := stat.PopMeanVariance(vals, nil)
	return mean, variance * float64(len(vals))
}
