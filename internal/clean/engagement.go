package clean

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/runnerr0/instalens/internal/table"
)

// PrepareEngagementFields makes likes and comments numeric (null or
// unparsable cells become 0) and gives every row a non-zero
// followers_count, substituting defaultFollowers for missing or zero
// values.
func PrepareEngagementFields(t *table.Table, defaultFollowers float64) *table.Table {
	for _, c := range []string{"likes", "comments"} {
		if !t.Has(c) {
			t = t.Fill(c, table.Int(0))
			continue
		}
		t = t.Map(c, numericOrZero)
	}

	def := table.Float(defaultFollowers)
	if !t.Has("followers_count") {
		return t.Fill("followers_count", def)
	}
	return t.Map("followers_count", func(v table.Value) table.Value {
		f, ok := v.Numeric()
		if !ok || f == 0 {
			return def
		}
		return table.Float(f)
	})
}

func numericOrZero(v table.Value) table.Value {
	if v.Kind() == table.KindInt {
		return v
	}
	f, ok := v.Numeric()
	if !ok {
		return table.Int(0)
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return table.Int(int64(f))
	}
	return table.Float(f)
}

// CalculateEngagement adds engagement = likes + comments and
// engagement_rate = engagement / followers_count. A non-finite rate is 0.
func CalculateEngagement(t *table.Table, defaultFollowers float64) *table.Table {
	t = PrepareEngagementFields(t, defaultFollowers)
	t = t.Derive("engagement", func(r table.Row) table.Value {
		likes, _ := r.Get("likes").Float()
		comments, _ := r.Get("comments").Float()
		return numericOrZero(table.Float(likes + comments))
	})
	return t.Derive("engagement_rate", func(r table.Row) table.Value {
		e, _ := r.Get("engagement").Float()
		f, _ := r.Get("followers_count").Float()
		rate := e / f
		if math.IsNaN(rate) || math.IsInf(rate, 0) {
			rate = 0
		}
		return table.Float(rate)
	})
}

// AddLogEngagementRate adds log_engagement_rate = ln(1 + engagement_rate).
// Missing or negative-beyond-domain rates yield null.
func AddLogEngagementRate(t *table.Table) (*table.Table, error) {
	if err := table.Require(t, "engagement_rate"); err != nil {
		return nil, err
	}
	return t.Derive("log_engagement_rate", func(r table.Row) table.Value {
		rate, ok := r.Get("engagement_rate").Numeric()
		if !ok || rate <= -1 {
			return table.Null()
		}
		return table.Float(math.Log1p(rate))
	}), nil
}

// AddCalendarFeatures derives hour (0-23), weekday and month (full English
// names) from creation_timestamp. Rows without a timestamp get nulls.
func AddCalendarFeatures(t *table.Table) (*table.Table, error) {
	if err := table.Require(t, "creation_timestamp"); err != nil {
		return nil, err
	}
	at := func(fn func(time.Time) table.Value) func(table.Row) table.Value {
		return func(r table.Row) table.Value {
			ts, ok := r.Get("creation_timestamp").Time()
			if !ok {
				return table.Null()
			}
			return fn(ts)
		}
	}
	t = t.Derive("hour", at(func(ts time.Time) table.Value { return table.Int(int64(ts.Hour())) }))
	t = t.Derive("weekday", at(func(ts time.Time) table.Value { return table.String(ts.Weekday().String()) }))
	t = t.Derive("month", at(func(ts time.Time) table.Value { return table.String(ts.Month().String()) }))
	return t, nil
}

// AggregateByMonth groups rows by the calendar month of timeCol and
// reports summed likes, comments and engagement plus the mean
// engagement_rate, in chronological order. Without timeCol the result is
// an empty table.
func AggregateByMonth(t *table.Table, timeCol string) (*table.Table, error) {
	if !t.Has(timeCol) {
		return table.New(), nil
	}
	if err := table.Require(t, "likes", "comments", "engagement", "engagement_rate"); err != nil {
		return nil, err
	}
	out := table.NewBuilder("month", "likes", "comments", "engagement", "engagement_rate")

	type bucket struct {
		likes, comments, engagement float64
		rates                       []float64
	}
	buckets := map[string]*bucket{}
	for i := 0; i < t.Len(); i++ {
		r := t.Row(i)
		ts, ok := r.Get(timeCol).Time()
		if !ok {
			continue
		}
		key := ts.Format("2006-01")
		b := buckets[key]
		if b == nil {
			b = &bucket{}
			buckets[key] = b
		}
		b.likes += numberOrZero(r.Get("likes"))
		b.comments += numberOrZero(r.Get("comments"))
		b.engagement += numberOrZero(r.Get("engagement"))
		if rate, ok := r.Get("engagement_rate").Numeric(); ok {
			b.rates = append(b.rates, rate)
		}
	}

	months := make([]string, 0, len(buckets))
	for m := range buckets {
		months = append(months, m)
	}
	sort.Strings(months)
	for _, m := range months {
		b := buckets[m]
		rate := table.Null()
		if len(b.rates) > 0 {
			rate = table.Float(stat.Mean(b.rates, nil))
		}
		out.Add(table.String(m), table.Float(b.likes), table.Float(b.comments), table.Float(b.engagement), rate)
	}
	return out.Table(), nil
}

func numberOrZero(v table.Value) float64 {
	f, ok := v.Numeric()
	if !ok {
		return 0
	}
	return f
}
