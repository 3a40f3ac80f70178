// Package clean normalizes flattened export tables: timestamps become
// zone-aware times, text fields get defaults, and engagement metrics and
// calendar features are derived.
package clean

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/runnerr0/instalens/internal/table"
)

// millisThreshold separates epoch seconds from epoch milliseconds.
const millisThreshold = 1e10

// maxEpochSeconds bounds the representable range of converted timestamps.
const maxEpochSeconds = 9.2e9

// textColumns default to the empty string when null.
var textColumns = []string{"title", "top_title", "uri"}

// Options parameterize cleaning.
type Options struct {
	// Location is the civil time zone timestamps are converted into.
	Location *time.Location
	// DefaultFollowers replaces a missing or zero followers_count.
	DefaultFollowers float64
}

// DefaultOptions returns the export's home zone (UTC+7) and a follower
// count of 1000.
func DefaultOptions() Options {
	return Options{
		Location:         FixedZone(7),
		DefaultFollowers: 1000,
	}
}

// FixedZone returns a fixed-offset zone named like "UTC+07:00".
func FixedZone(hours float64) *time.Location {
	secs := int(math.Round(hours * 3600))
	sign := "+"
	abs := secs
	if secs < 0 {
		sign = "-"
		abs = -secs
	}
	return time.FixedZone(fmt.Sprintf("UTC%s%02d:%02d", sign, abs/3600, abs%3600/60), secs)
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}

// EpochTime converts one timestamp cell. Numbers and numeric strings are
// Unix seconds, or milliseconds when larger than 1e10. Time cells are
// re-zoned. Everything else, including out-of-range values, is null.
func EpochTime(v table.Value, loc *time.Location) table.Value {
	if ts, ok := v.Time(); ok {
		return table.Time(ts.In(loc))
	}
	if v.Kind() == table.KindBool {
		return table.Null()
	}
	f, ok := v.Numeric()
	if !ok {
		return table.Null()
	}
	if f > millisThreshold {
		f /= 1000
	}
	if math.Abs(f) > maxEpochSeconds {
		return table.Null()
	}
	sec, frac := math.Modf(f)
	return table.Time(time.Unix(int64(sec), int64(math.Round(frac*1e9))).In(loc))
}

// NormalizeTimestamps converts every column whose name contains
// "timestamp" (any case) with EpochTime.
func NormalizeTimestamps(t *table.Table, loc *time.Location) *table.Table {
	for _, c := range t.Columns() {
		if !strings.Contains(strings.ToLower(c), "timestamp") {
			continue
		}
		t = t.Map(c, func(v table.Value) table.Value { return EpochTime(v, loc) })
	}
	return t
}

// Clean normalizes timestamps, defaults text fields and derives
// creation_date, creation_month and top_creation_date.
func Clean(t *table.Table, opts Options) *table.Table {
	t = NormalizeTimestamps(t, opts.location())

	for _, c := range textColumns {
		if t.Has(c) {
			t = t.Fill(c, table.String(""))
		}
	}

	if t.Has("creation_timestamp") {
		t = t.Derive("creation_date", formatted("creation_timestamp", "2006-01-02"))
		t = t.Derive("creation_month", formatted("creation_timestamp", "2006-01"))
	}
	if t.Has("top_creation_timestamp") {
		t = t.Derive("top_creation_date", formatted("top_creation_timestamp", "2006-01-02"))
	}
	return t
}

func formatted(col, layout string) func(table.Row) table.Value {
	return func(r table.Row) table.Value {
		ts, ok := r.Get(col).Time()
		if !ok {
			return table.Null()
		}
		return table.String(ts.Format(layout))
	}
}
