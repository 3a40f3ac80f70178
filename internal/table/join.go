package table

import "strings"

// LeftJoin keeps every row of left and attaches the cells of each right row
// whose key columns all equal the left row's. A left row with several
// matches is repeated once per match; a left row with none gets null right
// cells. Null keys never match. Right columns whose names collide with a
// left column get suffix appended.
func LeftJoin(left, right *Table, keys []string, suffix string) *Table {
	isKey := make(map[string]bool, len(keys))
	for _, k := range keys {
		isKey[k] = true
	}

	var rightCols []string
	for _, c := range right.columns {
		if !isKey[c] {
			rightCols = append(rightCols, c)
		}
	}

	out := New(left.columns...)
	rightIdx := make([]int, len(rightCols))
	for k, c := range rightCols {
		name := c
		if left.Has(c) {
			name = c + suffix
		}
		out.addColumn(name)
		rightIdx[k] = right.index[c]
	}

	lookup := make(map[string][]int)
	for i := range right.rows {
		if k, ok := joinKey(right, i, keys); ok {
			lookup[k] = append(lookup[k], i)
		}
	}

	width := len(out.columns)
	for i, lr := range left.rows {
		var matches []int
		if k, ok := joinKey(left, i, keys); ok {
			matches = lookup[k]
		}
		if len(matches) == 0 {
			row := make([]Value, width)
			copy(row, lr)
			out.rows = append(out.rows, row)
			continue
		}
		for _, m := range matches {
			row := make([]Value, width)
			copy(row, lr)
			for k, j := range rightIdx {
				row[len(lr)+k] = right.rows[m][j]
			}
			out.rows = append(out.rows, row)
		}
	}
	return out
}

func joinKey(t *Table, i int, keys []string) (string, bool) {
	parts := make([]string, len(keys))
	for k, c := range keys {
		p, ok := t.Value(i, c).key()
		if !ok {
			return "", false
		}
		parts[k] = p
	}
	return strings.Join(parts, "\x00"), true
}

// Concat stacks tables vertically. The result's columns are the union of
// all input columns in first-seen order; absent cells are null.
func Concat(tables ...*Table) *Table {
	out := New()
	for _, t := range tables {
		for _, c := range t.columns {
			out.addColumn(c)
		}
	}
	for _, t := range tables {
		for _, r := range t.rows {
			row := make([]Value, len(out.columns))
			for j, c := range t.columns {
				row[out.index[c]] = r[j]
			}
			out.rows = append(out.rows, row)
		}
	}
	return out
}
