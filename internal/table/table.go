// Package table holds the in-memory tabular model shared by every transform:
// an ordered column set over rows of tagged scalar cells. Transforms never
// mutate a Table; each one returns a new Table.
package table

import (
	"fmt"
)

// Table is an ordered collection of rows sharing a common column set.
// Row order reflects insertion order; no uniqueness is enforced on any column.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]Value
}

// New returns an empty table with the given columns.
func New(columns ...string) *Table {
	t := &Table{index: make(map[string]int, len(columns))}
	for _, c := range columns {
		t.addColumn(c)
	}
	return t
}

func (t *Table) addColumn(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	t.columns = append(t.columns, name)
	t.index[name] = len(t.columns) - 1
	return len(t.columns) - 1
}

// Columns returns a copy of the column names in order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// Has reports whether the table carries the named column.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Empty reports whether the table has no rows or no columns.
func (t *Table) Empty() bool { return len(t.rows) == 0 || len(t.columns) == 0 }

// Value returns the cell at row i in the named column, or null if the
// column does not exist.
func (t *Table) Value(i int, col string) Value {
	j, ok := t.index[col]
	if !ok {
		return Null()
	}
	return t.rows[i][j]
}

// Column returns a copy of the named column's cells. It returns nil when the
// column does not exist.
func (t *Table) Column(name string) []Value {
	j, ok := t.index[name]
	if !ok {
		return nil
	}
	out := make([]Value, len(t.rows))
	for i, r := range t.rows {
		out[i] = r[j]
	}
	return out
}

// Row returns a read-only view of row i.
func (t *Table) Row(i int) Row { return Row{t: t, i: i} }

// Clone returns a copy that shares no row storage with t.
func (t *Table) Clone() *Table {
	out := New(t.columns...)
	out.rows = make([][]Value, len(t.rows))
	for i, r := range t.rows {
		out.rows[i] = append([]Value(nil), r...)
	}
	return out
}

// WithColumn returns a copy of t where the named column holds vals. The
// column is replaced in place when it exists and appended otherwise.
func (t *Table) WithColumn(name string, vals []Value) *Table {
	if len(vals) != len(t.rows) {
		panic(fmt.Sprintf("table: column %q has %d values for %d rows", name, len(vals), len(t.rows)))
	}
	out := t.Clone()
	j := out.addColumn(name)
	for i := range out.rows {
		if j == len(out.rows[i]) {
			out.rows[i] = append(out.rows[i], vals[i])
		} else {
			out.rows[i][j] = vals[i]
		}
	}
	return out
}

// Derive returns a copy of t with the named column computed from each row.
func (t *Table) Derive(name string, fn func(r Row) Value) *Table {
	vals := make([]Value, len(t.rows))
	for i := range t.rows {
		vals[i] = fn(t.Row(i))
	}
	return t.WithColumn(name, vals)
}

// Map returns a copy of t with fn applied to every cell of the named column.
// A missing column yields an unchanged copy.
func (t *Table) Map(name string, fn func(Value) Value) *Table {
	j, ok := t.index[name]
	if !ok {
		return t.Clone()
	}
	out := t.Clone()
	for i := range out.rows {
		out.rows[i][j] = fn(out.rows[i][j])
	}
	return out
}

// Fill returns a copy of t where null cells in the named column are
// replaced with v. Missing columns are created and filled entirely.
func (t *Table) Fill(name string, v Value) *Table {
	if !t.Has(name) {
		vals := make([]Value, len(t.rows))
		for i := range vals {
			vals[i] = v
		}
		return t.WithColumn(name, vals)
	}
	return t.Map(name, func(c Value) Value {
		if c.IsNull() {
			return v
		}
		return c
	})
}

// Drop returns a copy of t without the named columns.
func (t *Table) Drop(names ...string) *Table {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	var keep []string
	for _, c := range t.columns {
		if !drop[c] {
			keep = append(keep, c)
		}
	}
	out, _ := t.Select(keep...)
	return out
}

// Keep returns a copy of t restricted to the named columns in that order.
// Names absent from t are skipped.
func (t *Table) Keep(names ...string) *Table {
	var present []string
	for _, n := range names {
		if t.Has(n) {
			present = append(present, n)
		}
	}
	out, _ := t.Select(present...)
	return out
}

// Select returns a copy of t restricted to the named columns, in that order.
func (t *Table) Select(names ...string) (*Table, error) {
	idx := make([]int, len(names))
	for k, n := range names {
		j, ok := t.index[n]
		if !ok {
			return nil, &MissingColumnError{Column: n}
		}
		idx[k] = j
	}
	out := New(names...)
	out.rows = make([][]Value, len(t.rows))
	for i, r := range t.rows {
		row := make([]Value, len(idx))
		for k, j := range idx {
			row[k] = r[j]
		}
		out.rows[i] = row
	}
	return out, nil
}

// Rename returns a copy of t with columns renamed per mapping. Names absent
// from t are ignored. If a rename collides with an existing column, the
// renamed column wins and the other is dropped.
func (t *Table) Rename(mapping map[string]string) *Table {
	names := make([]string, len(t.columns))
	for j, c := range t.columns {
		if to, ok := mapping[c]; ok {
			names[j] = to
		} else {
			names[j] = c
		}
	}
	out := New()
	src := make([]int, 0, len(names))
	for j, n := range names {
		if k, ok := out.index[n]; ok {
			if _, renamed := mapping[t.columns[j]]; renamed {
				src[k] = j
			}
			continue
		}
		out.addColumn(n)
		src = append(src, j)
	}
	out.rows = make([][]Value, len(t.rows))
	for i, r := range t.rows {
		row := make([]Value, len(src))
		for k, j := range src {
			row[k] = r[j]
		}
		out.rows[i] = row
	}
	return out
}

// Filter returns a copy of t holding only rows for which keep returns true.
func (t *Table) Filter(keep func(r Row) bool) *Table {
	out := New(t.columns...)
	for i, r := range t.rows {
		if keep(t.Row(i)) {
			out.rows = append(out.rows, append([]Value(nil), r...))
		}
	}
	return out
}

// Row is a read-only view of one table row.
type Row struct {
	t *Table
	i int
}

// Get returns the cell in the named column, or null when absent.
func (r Row) Get(col string) Value { return r.t.Value(r.i, col) }

// Index returns the row's position in its table.
func (r Row) Index() int { return r.i }

// Builder accumulates rows for a new Table.
type Builder struct {
	t *Table
}

// NewBuilder starts a table with the given columns.
func NewBuilder(columns ...string) *Builder {
	return &Builder{t: New(columns...)}
}

// Add appends a row. Missing trailing cells are null; extra cells panic.
func (b *Builder) Add(vals ...Value) {
	if len(vals) > len(b.t.columns) {
		panic(fmt.Sprintf("table: row has %d values for %d columns", len(vals), len(b.t.columns)))
	}
	row := make([]Value, len(b.t.columns))
	copy(row, vals)
	b.t.rows = append(b.t.rows, row)
}

// AddRecord appends a record, creating columns for unseen field names in
// first-seen order. Cells absent from the record are null.
func (b *Builder) AddRecord(rec Record) {
	for _, f := range rec.Fields {
		if !b.t.Has(f.Name) {
			b.t.addColumn(f.Name)
			for i := range b.t.rows {
				b.t.rows[i] = append(b.t.rows[i], Null())
			}
		}
	}
	row := make([]Value, len(b.t.columns))
	for _, f := range rec.Fields {
		row[b.t.index[f.Name]] = f.Value
	}
	b.t.rows = append(b.t.rows, row)
}

// Table returns the built table. The builder must not be used afterwards.
func (b *Builder) Table() *Table { return b.t }

// FromRecords builds a table whose column set is the union of all record
// field names in first-seen order.
func FromRecords(records []Record) *Table {
	b := NewBuilder()
	for _, r := range records {
		b.AddRecord(r)
	}
	return b.Table()
}

// Record is an ordered set of named cells, used to assemble rows whose
// shape varies from one source entry to the next.
type Record struct {
	Fields []Field
}

// Field is one named cell of a Record.
type Field struct {
	Name  string
	Value Value
}

// Set assigns name, replacing an existing field in place or appending.
func (r *Record) Set(name string, v Value) {
	for i := range r.Fields {
		if r.Fields[i].Name == name {
			r.Fields[i].Value = v
			return
		}
	}
	r.Fields = append(r.Fields, Field{Name: name, Value: v})
}

// Get returns the named field, or null when absent.
func (r Record) Get(name string) Value {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value
		}
	}
	return Null()
}
