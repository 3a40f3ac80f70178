package analysis

import (
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/runnerr0/instalens/internal/table"
)

// GroupMean groups rows by the key columns and averages each value column
// over its numeric cells. Rows with a null key are dropped. Groups are
// ordered by key: numerically when every key cell in that position is
// numeric, lexically otherwise.
func GroupMean(t *table.Table, keys, values []string) (*table.Table, error) {
	if err := table.Require(t, append(append([]string{}, keys...), values...)...); err != nil {
		return nil, err
	}

	type group struct {
		key  []table.Value
		vals [][]float64
	}
	groups := map[string]*group{}
	var order []*group
	for i := 0; i < t.Len(); i++ {
		r := t.Row(i)
		kv := make([]table.Value, len(keys))
		parts := make([]string, len(keys))
		skip := false
		for k, c := range keys {
			kv[k] = r.Get(c)
			if kv[k].IsNull() {
				skip = true
				break
			}
			parts[k] = kv[k].Text()
		}
		if skip {
			continue
		}
		id := strings.Join(parts, "\x00")
		g := groups[id]
		if g == nil {
			g = &group{key: kv, vals: make([][]float64, len(values))}
			groups[id] = g
			order = append(order, g)
		}
		for k, c := range values {
			if f, ok := r.Get(c).Numeric(); ok {
				g.vals[k] = append(g.vals[k], f)
			}
		}
	}

	sort.SliceStable(order, func(a, b int) bool {
		for k := range keys {
			if c := compare(order[a].key[k], order[b].key[k]); c != 0 {
				return c < 0
			}
		}
		return false
	})

	b := table.NewBuilder(append(append([]string{}, keys...), values...)...)
	for _, g := range order {
		row := append([]table.Value{}, g.key...)
		for _, v := range g.vals {
			if len(v) == 0 {
				row = append(row, table.Null())
				continue
			}
			row = append(row, table.Float(stat.Mean(v, nil)))
		}
		b.Add(row...)
	}
	return b.Table(), nil
}

func compare(a, b table.Value) int {
	if a.IsNumeric() && b.IsNumeric() {
		x, _ := a.Float()
		y, _ := b.Float()
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}
	return strings.Compare(a.Text(), b.Text())
}
