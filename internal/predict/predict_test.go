package predict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/instalens/internal/table"
)

func dataset(n int) *table.Table {
	b := table.NewBuilder("hour", "contains_people", "contains_jewelry", "engagement_rate", "engagement")
	for i := 0; i < n; i++ {
		people := int64(i % 2)
		rate := float64(i%10) / 100
		eng := 10 + 40*float64(people) + 1000*rate
		b.Add(table.Int(int64(i%24)), table.Int(people), table.Int(0), table.Float(rate), table.Float(eng))
	}
	return b.Table()
}

func TestSplit(t *testing.T) {
	train, test := Split(10, 0.2, 42)
	assert.Len(t, train, 8)
	assert.Len(t, test, 2)

	seen := map[int]bool{}
	for _, i := range append(append([]int{}, train...), test...) {
		assert.False(t, seen[i])
		seen[i] = true
	}
	assert.Len(t, seen, 10)

	train2, test2 := Split(10, 0.2, 42)
	assert.Equal(t, train, train2)
	assert.Equal(t, test, test2)

	_, test = Split(3, 0.2, 1)
	assert.Len(t, test, 1, "test size rounds up")
}

func TestFitConstantTarget(t *testing.T) {
	x := [][]float64{{1}, {2}, {3}, {4}}
	y := []float64{5, 5, 5, 5}
	f, err := Fit(x, y, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 5.0, f.Predict([]float64{10}))
}

func TestFitLearnsStep(t *testing.T) {
	var x [][]float64
	var y []float64
	for i := 0; i < 40; i++ {
		x = append(x, []float64{float64(i)})
		if i < 20 {
			y = append(y, 0)
		} else {
			y = append(y, 100)
		}
	}
	opts := DefaultOptions()
	opts.Trees = 25
	f, err := Fit(x, y, opts)
	require.NoError(t, err)
	assert.InDelta(t, 0, f.Predict([]float64{2}), 5)
	assert.InDelta(t, 100, f.Predict([]float64{38}), 5)
}

func TestMeanSSE(t *testing.T) {
	y := []float64{2, 4, 4, 4, 5, 5, 7, 9, 100}
	mean, sse := meanSSE(y, []int{0, 1, 2, 3, 4, 5, 6, 7})
	assert.InDelta(t, 5.0, mean, 1e-12)
	assert.InDelta(t, 32.0, sse, 1e-9)

	mean, sse = meanSSE(y, nil)
	assert.Zero(t, mean)
	assert.Zero(t, sse)
}

func TestFitIsSeeded(t *testing.T) {
	var x [][]float64
	var y []float64
	for i := 0; i < 30; i++ {
		x = append(x, []float64{float64(i % 7), float64(i % 3)})
		y = append(y, float64(i%7)*3+float64(i%3))
	}
	opts := DefaultOptions()
	opts.Trees = 10

	a, err := Fit(x, y, opts)
	require.NoError(t, err)
	b, err := Fit(x, y, opts)
	require.NoError(t, err)
	for _, row := range x {
		assert.Equal(t, a.Predict(row), b.Predict(row))
	}
}

func TestFitMaxDepth(t *testing.T) {
	x := [][]float64{{0}, {1}, {2}, {3}}
	y := []float64{0, 10, 20, 30}
	opts := DefaultOptions()
	opts.Trees = 1
	opts.MaxDepth = 1

	f, err := Fit(x, y, opts)
	require.NoError(t, err)
	seen := map[float64]bool{}
	for _, row := range [][]float64{{-5}, {0}, {1}, {2}, {3}, {10}} {
		seen[f.Predict(row)] = true
	}
	assert.LessOrEqual(t, len(seen), 2, "a depth-one tree has at most two leaves")
}

func TestFitRejectsMismatch(t *testing.T) {
	_, err := Fit([][]float64{{1}}, nil, DefaultOptions())
	assert.Error(t, err)
}

func TestPredictEngagement(t *testing.T) {
	rep, err := PredictEngagement(dataset(200), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 200, rep.Rows)
	assert.Equal(t, 160, rep.TrainRows)
	assert.Equal(t, 40, rep.TestRows)
	assert.Less(t, rep.MSE, 50.0)

	again, err := PredictEngagement(dataset(200), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, rep.MSE, again.MSE)
}

func TestPredictEngagementDropsIncompleteRows(t *testing.T) {
	tb := dataset(20).Map("hour", func(v table.Value) table.Value {
		if f, _ := v.Float(); f == 3 {
			return table.Null()
		}
		return v
	})
	rep, err := PredictEngagement(tb, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Dropped)
	assert.Equal(t, 19, rep.Rows)
}

func TestPredictEngagementErrors(t *testing.T) {
	_, err := PredictEngagement(dataset(1), DefaultOptions())
	assert.ErrorIs(t, err, ErrTooFewRows)

	var missing *table.MissingColumnError
	_, err = PredictEngagement(table.New("hour", "engagement"), DefaultOptions())
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "contains_people", missing.Column)
}
