package table

import "fmt"

// MissingColumnError reports a required column that a table does not carry.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing required column %q", e.Column)
}

// Require returns a *MissingColumnError naming the first absent column.
func Require(t *Table, cols ...string) error {
	for _, c := range cols {
		if !t.Has(c) {
			return &MissingColumnError{Column: c}
		}
	}
	return nil
}
