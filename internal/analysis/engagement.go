package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/runnerr0/instalens/internal/clean"
	"github.com/runnerr0/instalens/internal/table"
)

// Engagement segments.
const (
	SegmentHigh   = "High"
	SegmentMedium = "Medium"
	SegmentLow    = "Low"
)

// EngagementByHour averages engagement per hour of day derived from
// creation_timestamp.
func EngagementByHour(t *table.Table) (*table.Table, error) {
	if err := table.Require(t, "engagement"); err != nil {
		return nil, err
	}
	withHour, err := clean.AddCalendarFeatures(t)
	if err != nil {
		return nil, err
	}
	return GroupMean(withHour, []string{"hour"}, []string{"engagement"})
}

// EngagementByContentType averages engagement, likes and comments per
// content_type.
func EngagementByContentType(t *table.Table) (*table.Table, error) {
	return GroupMean(t, []string{"content_type"}, []string{"engagement", "likes", "comments"})
}

// PerformanceByPeople averages the engagement metrics with and without
// people in the post.
func PerformanceByPeople(t *table.Table) (*table.Table, error) {
	return GroupMean(t, []string{"contains_people"}, EngagementMetrics)
}

// Quartiles returns the first and third quartile of the finite values of
// col. ok is false when the column has none.
func Quartiles(t *table.Table, col string) (q1, q3 float64, ok bool) {
	vals := sortedFinite(t, col)
	if len(vals) == 0 {
		return 0, 0, false
	}
	return Quantile(0.25, vals), Quantile(0.75, vals), true
}

// Quantile returns the p-quantile of sorted, interpolating linearly between
// the order statistics around (n-1)p. This is R's type 7, the default of
// most dataframe libraries; gonum's LinInterp is type 4 and pins the lower
// quartile of short columns to their minimum.
func Quantile(p float64, sorted []float64) float64 {
	switch n := len(sorted); {
	case n == 0:
		return math.NaN()
	case n == 1 || p <= 0:
		return sorted[0]
	case p >= 1:
		return sorted[n-1]
	}
	h := float64(len(sorted)-1) * p
	lo := math.Floor(h)
	hi := math.Ceil(h)
	return sorted[int(lo)] + (h-lo)*(sorted[int(hi)]-sorted[int(lo)])
}

func sortedFinite(t *table.Table, col string) []float64 {
	var vals []float64
	for _, v := range t.Column(col) {
		if f, ok := v.Numeric(); ok && !math.IsNaN(f) && !math.IsInf(f, 0) {
			vals = append(vals, f)
		}
	}
	sort.Float64s(vals)
	return vals
}

// quartileLabel assigns High at or above q3, Medium at or above q1, Low
// otherwise, and Low for missing values.
func quartileLabel(col string, q1, q3 float64) func(table.Row) table.Value {
	return func(r table.Row) table.Value {
		f, ok := r.Get(col).Numeric()
		switch {
		case !ok:
			return table.String(SegmentLow)
		case f >= q3:
			return table.String(SegmentHigh)
		case f >= q1:
			return table.String(SegmentMedium)
		}
		return table.String(SegmentLow)
	}
}

// LabelEngagementSegments adds engagement_segment from engagement_rate
// quartiles.
func LabelEngagementSegments(t *table.Table) (*table.Table, error) {
	return labelQuartiles(t, "engagement_rate", "engagement_segment")
}

// LabelPerformance adds performance_label_log from log_engagement_rate
// quartiles.
func LabelPerformance(t *table.Table) (*table.Table, error) {
	return labelQuartiles(t, "log_engagement_rate", "performance_label_log")
}

func labelQuartiles(t *table.Table, src, dst string) (*table.Table, error) {
	if err := table.Require(t, src); err != nil {
		return nil, err
	}
	q1, q3, ok := Quartiles(t, src)
	if !ok {
		q1, q3 = math.Inf(1), math.Inf(1)
	}
	return t.Derive(dst, quartileLabel(src, q1, q3)), nil
}

// SegmentByEngagement labels rows by engagement_rate quartile and averages
// the engagement metrics per segment and content_type.
func SegmentByEngagement(t *table.Table) (*table.Table, error) {
	if err := table.Require(t, "engagement_rate", "content_type"); err != nil {
		return nil, err
	}
	labelled, err := LabelEngagementSegments(t)
	if err != nil {
		return nil, err
	}
	return GroupMean(labelled, []string{"engagement_segment", "content_type"}, EngagementMetrics)
}

// AudienceColumns are correlated by AudienceCorrelation.
var AudienceColumns = []string{"engagement", "profile_visits", "follows", "saves"}

// AudienceCorrelation returns the Pearson correlation matrix of
// AudienceColumns over rows where all four are numeric. Undefined
// coefficients, such as those of a constant column, are null.
func AudienceCorrelation(t *table.Table) (*table.Table, error) {
	if err := table.Require(t, AudienceColumns...); err != nil {
		return nil, err
	}
	cols := make([][]float64, len(AudienceColumns))
	for i := 0; i < t.Len(); i++ {
		row := make([]float64, len(AudienceColumns))
		complete := true
		for k, c := range AudienceColumns {
			f, ok := t.Value(i, c).Numeric()
			if !ok {
				complete = false
				break
			}
			row[k] = f
		}
		if !complete {
			continue
		}
		for k := range cols {
			cols[k] = append(cols[k], row[k])
		}
	}

	b := table.NewBuilder(append([]string{"metric"}, AudienceColumns...)...)
	for a, name := range AudienceColumns {
		row := []table.Value{table.String(name)}
		for c := range AudienceColumns {
			row = append(row, correlation(cols[a], cols[c]))
		}
		b.Add(row...)
	}
	return b.Table(), nil
}

func correlation(x, y []float64) table.Value {
	if len(x) < 2 {
		return table.Null()
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return table.Null()
	}
	return table.Float(r)
}
