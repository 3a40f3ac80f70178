// Package flatten turns export entries into flat table rows: one row per
// insights entry, or one row per media item for the raw content export.
package flatten

import (
	"math"
	"strconv"
	"strings"

	"github.com/runnerr0/instalens/internal/export"
	"github.com/runnerr0/instalens/internal/table"
)

// valueOf converts a decoded JSON node into a table cell. Objects and
// arrays are kept as compact JSON text.
func valueOf(n *export.Node) table.Value {
	if n == nil {
		return table.Null()
	}
	switch n.Kind {
	case export.Bool:
		return table.Bool(n.Bool)
	case export.Number:
		if n.IsInt {
			return table.Int(n.Int)
		}
		return table.Float(n.Float)
	case export.String:
		return table.String(n.Str)
	case export.Array, export.Object:
		return table.JSON(n.JSON())
	}
	return table.Null()
}

// ParseIntish coerces an insights metric to an integer. Numbers are
// truncated toward zero; strings have thousands separators removed and are
// parsed as a float then truncated. Anything else, or any value that does
// not parse to a finite number, is 0.
func ParseIntish(n *export.Node) int64 {
	if n == nil {
		return 0
	}
	var f float64
	switch n.Kind {
	case export.Number:
		if n.IsInt {
			return n.Int
		}
		f = n.Float
	case export.Bool:
		if n.Bool {
			return 1
		}
		return 0
	case export.String:
		s := strings.TrimSpace(strings.ReplaceAll(n.Str, ",", ""))
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) >= math.MaxInt64 {
		return 0
	}
	return int64(f)
}
