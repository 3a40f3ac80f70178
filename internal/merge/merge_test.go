package merge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/instalens/internal/table"
)

func metric(t *testing.T, tb *table.Table, i int, col string) float64 {
	t.Helper()
	v := tb.Value(i, col)
	require.True(t, v.IsNumeric(), "row %d %s is %v", i, col, v.Kind())
	f, _ := v.Float()
	return f
}

func TestExactKeyJoin(t *testing.T) {
	base := table.NewBuilder("uri", "caption")
	base.Add(table.String("a.jpg"), table.String("one"))
	base.Add(table.String("b.jpg"), table.String("two"))
	base.Add(table.String("c.jpg"), table.String("three"))

	ins := table.NewBuilder("uri", "likes", "comments", "reach")
	ins.Add(table.String("c.jpg"), table.Int(30), table.Int(3), table.Int(300))
	ins.Add(table.String("a.jpg"), table.Int(10), table.Int(1), table.Int(100))

	res := Insights(base.Table(), ins.Table())
	assert.Equal(t, StrategyExact, res.Strategy)
	assert.Equal(t, []string{"uri"}, res.Keys)

	out := res.Table
	require.Equal(t, 3, out.Len())
	for _, m := range Metrics {
		assert.True(t, out.Has(m), m)
	}
	assert.Equal(t, 10.0, metric(t, out, 0, "likes"))
	assert.Equal(t, 100.0, metric(t, out, 0, "reach"))
	assert.Equal(t, 0.0, metric(t, out, 1, "likes"))
	assert.Equal(t, 0.0, metric(t, out, 1, "saves"))
	assert.Equal(t, 30.0, metric(t, out, 2, "likes"))

	caption, _ := out.Value(1, "caption").Str()
	assert.Equal(t, "two", caption)
}

func TestExactJoinUsesEverySharedKey(t *testing.T) {
	ts := table.Time(time.Unix(1700000000, 0))
	base := table.NewBuilder("uri", "creation_timestamp", "title")
	base.Add(table.String("a.jpg"), ts, table.String("x"))
	base.Add(table.String("a.jpg"), ts, table.String("y"))

	ins := table.NewBuilder("uri", "creation_timestamp", "title", "likes")
	ins.Add(table.String("a.jpg"), ts, table.String("y"), table.Int(5))

	res := Insights(base.Table(), ins.Table())
	assert.Equal(t, []string{"uri", "creation_timestamp", "title"}, res.Keys)
	assert.Equal(t, 0.0, metric(t, res.Table, 0, "likes"))
	assert.Equal(t, 5.0, metric(t, res.Table, 1, "likes"))
}

func TestCollidingColumnsGetSuffix(t *testing.T) {
	base := table.NewBuilder("uri", "likes")
	base.Add(table.String("a"), table.Int(1))
	ins := table.NewBuilder("uri", "likes")
	ins.Add(table.String("a"), table.Int(9))

	out := Insights(base.Table(), ins.Table()).Table
	assert.Equal(t, 1.0, metric(t, out, 0, "likes"))
	assert.Equal(t, 9.0, metric(t, out, 0, "likes"+Suffix))
}

func TestNearestTimestampJoin(t *testing.T) {
	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	base := table.NewBuilder("creation_timestamp", "caption")
	base.Add(table.Time(t0.Add(12*time.Hour)), table.String("near"))
	base.Add(table.Time(t0.Add(-36*time.Hour)), table.String("far"))
	base.Add(table.Null(), table.String("undated"))
	base.Add(table.Time(t0.Add(24*time.Hour)), table.String("edge"))

	ins := table.NewBuilder("creation_timestamp", "likes", "saves")
	ins.Add(table.Time(t0), table.Int(50), table.Int(5))

	res := Insights(base.Table(), ins.Table())
	assert.Equal(t, StrategyNearest, res.Strategy)

	out := res.Table
	require.Equal(t, 4, out.Len())
	assert.Equal(t, 50.0, metric(t, out, 0, "likes"))
	assert.Equal(t, 5.0, metric(t, out, 0, "saves"))
	assert.Equal(t, 0.0, metric(t, out, 1, "likes"))
	assert.Equal(t, 0.0, metric(t, out, 2, "likes"))
	assert.Equal(t, 50.0, metric(t, out, 3, "likes"), "tolerance is inclusive")

	caption, _ := out.Value(1, "caption").Str()
	assert.Equal(t, "far", caption)
}

func TestNearestPicksClosestThenEarliest(t *testing.T) {
	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	base := table.NewBuilder("creation_timestamp")
	base.Add(table.Time(t0.Add(5 * time.Hour)))
	base.Add(table.Time(t0.Add(2 * time.Hour)))

	ins := table.NewBuilder("creation_timestamp", "likes")
	ins.Add(table.Time(t0.Add(10*time.Hour)), table.Int(3))
	ins.Add(table.Time(t0), table.Int(1))
	ins.Add(table.Time(t0.Add(3*time.Hour)), table.Int(2))

	out := Insights(base.Table(), ins.Table()).Table
	assert.Equal(t, 2.0, metric(t, out, 0, "likes"))
	assert.Equal(t, 2.0, metric(t, out, 1, "likes"))

	tie := table.NewBuilder("creation_timestamp", "likes")
	tie.Add(table.Time(t0.Add(6*time.Hour)), table.Int(7))
	tie.Add(table.Time(t0.Add(4*time.Hour)), table.Int(4))
	out = Insights(base.Table(), tie.Table()).Table
	assert.Equal(t, 4.0, metric(t, out, 0, "likes"))
}

func TestEmptyInsightsZeroFill(t *testing.T) {
	base := table.NewBuilder("uri", "likes")
	base.Add(table.String("a"), table.Int(12))

	res := Insights(base.Table(), table.New())
	assert.Equal(t, StrategyEmpty, res.Strategy)
	for _, m := range Metrics {
		assert.Equal(t, 0.0, metric(t, res.Table, 0, m), m)
	}
}

func TestNoSharedKeys(t *testing.T) {
	base := table.NewBuilder("caption")
	base.Add(table.String("a"))
	ins := table.NewBuilder("uri", "likes")
	ins.Add(table.String("a"), table.Int(4))

	res := Insights(base.Table(), ins.Table())
	assert.Equal(t, StrategyNone, res.Strategy)
	assert.Equal(t, 0.0, metric(t, res.Table, 0, "likes"))
	assert.False(t, res.Table.Has("uri"))
}

func TestNonNumericMetricsBecomeZero(t *testing.T) {
	base := table.NewBuilder("uri")
	base.Add(table.String("a"))
	base.Add(table.String("b"))
	ins := table.NewBuilder("uri", "likes")
	ins.Add(table.String("a"), table.String("12"))
	ins.Add(table.String("b"), table.String("lots"))

	out := Insights(base.Table(), ins.Table()).Table
	assert.Equal(t, 12.0, metric(t, out, 0, "likes"))
	assert.Equal(t, 0.0, metric(t, out, 1, "likes"))
}
