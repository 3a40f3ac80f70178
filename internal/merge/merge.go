// Package merge attaches externally reported insight metrics to a base
// post table.
package merge

import (
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/runnerr0/instalens/internal/table"
)

// Metrics are the insight columns guaranteed present after a merge.
var Metrics = []string{"likes", "comments", "reach", "impressions", "saves", "shares"}

// JoinKeys are the candidate exact-join keys, in preference order.
var JoinKeys = []string{"uri", "creation_timestamp", "title"}

// Suffix is appended to insight columns that collide with base columns.
const Suffix = "_insights"

// DefaultTolerance bounds the nearest-timestamp join.
const DefaultTolerance = 24 * time.Hour

// Strategy names the join path a merge took.
type Strategy string

const (
	StrategyEmpty   Strategy = "empty-insights"
	StrategyExact   Strategy = "exact"
	StrategyNearest Strategy = "nearest-timestamp"
	StrategyNone    Strategy = "no-keys"
)

// Result is a merged table and the path taken to build it.
type Result struct {
	Table    *table.Table
	Strategy Strategy
	Keys     []string
}

// Insights left-joins insights onto base with a one-day nearest-timestamp
// tolerance. See InsightsWithin.
func Insights(base, insights *table.Table) *Result {
	return InsightsWithin(base, insights, DefaultTolerance)
}

// InsightsWithin left-joins insights onto base. With empty insights the
// metric columns are zero-filled. When the shared keys include uri or
// title, rows are joined on every shared key exactly. When
// creation_timestamp is the only shared key, each base row takes the
// insights row with the closest timestamp no more than tolerance away.
// With no shared key nothing is joined. Every metric column is then
// present and numeric, with gaps filled by 0.
func InsightsWithin(base, insights *table.Table, tolerance time.Duration) *Result {
	res := &Result{Strategy: StrategyNone}

	var shared []string
	for _, k := range JoinKeys {
		if base.Has(k) && insights.Has(k) {
			shared = append(shared, k)
		}
	}

	out := base
	switch {
	case insights.Empty():
		res.Strategy = StrategyEmpty
		for _, m := range Metrics {
			out = out.Fill(m, table.Int(0)).Map(m, func(table.Value) table.Value { return table.Int(0) })
		}
	case len(shared) == 1 && shared[0] == "creation_timestamp":
		res.Strategy = StrategyNearest
		res.Keys = shared
		out = nearestJoin(base, insights, "creation_timestamp", tolerance)
	case len(shared) > 0:
		res.Strategy = StrategyExact
		res.Keys = shared
		out = table.LeftJoin(base, insights, shared, Suffix)
	}

	for _, m := range Metrics {
		out = ensureNumeric(out, m)
	}
	res.Table = out

	log.Debug().Str("strategy", string(res.Strategy)).Strs("keys", res.Keys).
		Int("rows", out.Len()).Msg("Merged insights")
	return res
}

func ensureNumeric(t *table.Table, col string) *table.Table {
	if !t.Has(col) {
		return t.Fill(col, table.Int(0))
	}
	return t.Map(col, func(v table.Value) table.Value {
		if v.IsNumeric() {
			return v
		}
		f, ok := v.Numeric()
		if !ok {
			return table.Int(0)
		}
		return table.Float(f)
	})
}

type stamped struct {
	at  time.Time
	row int
}

// nearestJoin attaches, for each left row, the right row whose key time is
// closest and within tolerance. Ties go to the earlier right row. Right
// columns other than key that collide with left columns get Suffix.
func nearestJoin(left, right *table.Table, key string, tolerance time.Duration) *table.Table {
	var candidates []stamped
	for i := 0; i < right.Len(); i++ {
		if ts, ok := right.Value(i, key).Time(); ok {
			candidates = append(candidates, stamped{at: ts, row: i})
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool { return candidates[a].at.Before(candidates[b].at) })

	var rightCols, outCols []string
	for _, c := range right.Columns() {
		if c == key {
			continue
		}
		rightCols = append(rightCols, c)
		if left.Has(c) {
			outCols = append(outCols, c+Suffix)
		} else {
			outCols = append(outCols, c)
		}
	}

	vals := make([][]table.Value, len(rightCols))
	for k := range vals {
		vals[k] = make([]table.Value, left.Len())
	}
	for i := 0; i < left.Len(); i++ {
		ts, ok := left.Value(i, key).Time()
		if !ok {
			continue
		}
		match, found := closest(candidates, ts, tolerance)
		if !found {
			continue
		}
		for k, c := range rightCols {
			vals[k][i] = right.Value(match, c)
		}
	}

	out := left
	for k, c := range outCols {
		out = out.WithColumn(c, vals[k])
	}
	return out
}

// closest searches sorted candidates for the nearest time to ts.
func closest(candidates []stamped, ts time.Time, tolerance time.Duration) (int, bool) {
	i := sort.Search(len(candidates), func(i int) bool { return !candidates[i].at.Before(ts) })

	best, bestDist := -1, time.Duration(0)
	consider := func(j int) {
		if j < 0 || j >= len(candidates) {
			return
		}
		d := candidates[j].at.Sub(ts)
		if d < 0 {
			d = -d
		}
		if d > tolerance {
			return
		}
		if best < 0 || d < bestDist {
			best, bestDist = j, d
		}
	}
	consider(i - 1)
	consider(i)
	if best < 0 {
		return 0, false
	}
	return candidates[best].row, true
}
