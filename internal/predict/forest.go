// Package predict trains an illustrative random-forest regressor that
// predicts total engagement from a handful of derived post features.
package predict

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/rs/zerolog/log"

	"github.com/runnerr0/instalens/internal/table"
)

// Features and Target of the engagement model.
var Features = []string{"hour", "contains_people", "contains_jewelry", "engagement_rate"}

const Target = "engagement"

// ErrTooFewRows is returned when the data cannot fill both a training and
// a test split.
var ErrTooFewRows = errors.New("need at least two complete rows to train and evaluate")

// Options configure training.
type Options struct {
	Trees           int
	TestFraction    float64
	Seed            int64
	MaxDepth        int // 0 means unlimited
	MinSamplesSplit int
}

// DefaultOptions returns 100 trees, a 20% test split and seed 42.
func DefaultOptions() Options {
	return Options{Trees: 100, TestFraction: 0.2, Seed: 42, MinSamplesSplit: 2}
}

// Forest is a bagged ensemble of regression trees.
type Forest struct {
	trees []*node
}

// Fit trains a forest on rows x with targets y. Each tree sees a bootstrap
// sample of the rows.
func Fit(x [][]float64, y []float64, opts Options) (*Forest, error) {
	if len(x) == 0 || len(x) != len(y) {
		return nil, fmt.Errorf("fit: %d rows for %d targets", len(x), len(y))
	}
	if opts.Trees < 1 {
		opts.Trees = 1
	}
	params := treeParams{maxDepth: opts.MaxDepth, minSamplesSplit: max(2, opts.MinSamplesSplit)}
	rng := rand.New(rand.NewSource(opts.Seed))

	f := &Forest{trees: make([]*node, opts.Trees)}
	for t := range f.trees {
		idx := make([]int, len(x))
		for i := range idx {
			idx[i] = rng.Intn(len(x))
		}
		f.trees[t] = growTree(x, y, idx, 0, params, rng)
	}
	return f, nil
}

// Predict averages the trees' predictions for one row.
func (f *Forest) Predict(row []float64) float64 {
	var sum float64
	for _, t := range f.trees {
		sum += t.predict(row)
	}
	return sum / float64(len(f.trees))
}

// Report summarizes a train/evaluate run.
type Report struct {
	Rows      int // complete rows used
	Dropped   int // rows skipped for a missing feature or target
	TrainRows int
	TestRows  int
	MSE       float64
}

// Split shuffles row indices with seed and holds out ceil(n*testFraction)
// of them for testing.
func Split(n int, testFraction float64, seed int64) (train, test []int) {
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	nTest := int(math.Ceil(float64(n) * testFraction))
	if nTest > n {
		nTest = n
	}
	return perm[nTest:], perm[:nTest]
}

// PredictEngagement trains on Features to predict Target and reports the
// mean squared error on the held-out rows.
func PredictEngagement(t *table.Table, opts Options) (*Report, error) {
	if err := table.Require(t, append(append([]string{}, Features...), Target)...); err != nil {
		return nil, err
	}

	var (
		x [][]float64
		y []float64
	)
	rep := &Report{}
	for i := 0; i < t.Len(); i++ {
		row, ok := features(t, i)
		target, tok := t.Value(i, Target).Numeric()
		if !ok || !tok {
			rep.Dropped++
			continue
		}
		x = append(x, row)
		y = append(y, target)
	}
	rep.Rows = len(x)

	train, test := Split(len(x), opts.TestFraction, opts.Seed)
	if len(train) == 0 || len(test) == 0 {
		return nil, ErrTooFewRows
	}
	rep.TrainRows, rep.TestRows = len(train), len(test)

	forest, err := Fit(pick(x, train), pickY(y, train), opts)
	if err != nil {
		return nil, err
	}

	var sse float64
	for _, i := range test {
		d := y[i] - forest.Predict(x[i])
		sse += d * d
	}
	rep.MSE = sse / float64(len(test))

	log.Debug().Int("train", rep.TrainRows).Int("test", rep.TestRows).Int("dropped", rep.Dropped).
		Float64("mse", rep.MSE).Msg("Trained engagement model")
	return rep, nil
}

func features(t *table.Table, i int) ([]float64, bool) {
	row := make([]float64, len(Features))
	for k, c := range Features {
		f, ok := t.Value(i, c).Numeric()
		if !ok {
			return nil, false
		}
		row[k] = f
	}
	return row, true
}

func pick(x [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for k, i := range idx {
		out[k] = x[i]
	}
	return out
}

func pickY(y []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for k, i := range idx {
		out[k] = y[i]
	}
	return out
}
