// Package table holds the tabular model shared by every pipeline stage: raw
// uploads as read from delimited text, and normalized column-major tables.
package table

import (
	"fmt"
)

// Cell is a single value. Valid is false for a missing value.
type Cell struct {
	S     string
	Valid bool
}

// Missing is the zero Cell.
var Missing = Cell{}

// Value wraps a present string value.
func Value(s string) Cell { return Cell{S: s, Valid: true} }

// String stringifies the cell; missing values render as "nan" so that the
// null-like filters downstream see the same token for every missing marker.
func (c Cell) String() string {
	if !c.Valid {
		return "nan"
	}
	return c.S
}

// Raw is an uploaded table before header normalization. Headers may repeat.
type Raw struct {
	Name   string
	Header []string
	Rows   [][]Cell
}

// Table is a normalized, column-major table. Column names are unique.
type Table struct {
	Name  string
	cols  []string
	index map[string]int
	data  [][]Cell
	rows  int
}

// Empty returns a table with zero rows and zero columns.
func Empty(name string) *Table {
	return &Table{Name: name, index: map[string]int{}}
}

// New builds a table from column names and per-column cells.
// All columns must have the same length and names must be unique.
func New(name string, cols []string, data [][]Cell) (*Table, error) {
	if len(cols) != len(data) {
		return nil, fmt.Errorf("table %s: %d columns but %d data slices", name, len(cols), len(data))
	}
	t := Empty(name)
	for i, c := range cols {
		if err := t.add(c, data[i]); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Table) add(name string, cells []Cell) error {
	if _, dup := t.index[name]; dup {
		return fmt.Errorf("table %s: duplicate column %q", t.Name, name)
	}
	if len(t.cols) == 0 {
		t.rows = len(cells)
	} else if len(cells) != t.rows {
		return fmt.Errorf("table %s: column %q has %d rows, want %d", t.Name, name, len(cells), t.rows)
	}
	t.index[name] = len(t.cols)
	t.cols = append(t.cols, name)
	t.data = append(t.data, cells)
	return nil
}

// Columns returns the column names in table order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.cols))
	copy(out, t.cols)
	return out
}

// Len is the number of rows.
func (t *Table) Len() int { return t.rows }

// Width is the number of columns.
func (t *Table) Width() int { return len(t.cols) }

// IsEmpty reports whether the table has no rows or no columns.
func (t *Table) IsEmpty() bool { return t.rows == 0 || len(t.cols) == 0 }

// Has reports whether the named column exists.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns the cells of the named column. The slice must not be modified.
func (t *Table) Column(name string) ([]Cell, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.data[i], true
}

// At returns the cell at row i of the named column, or Missing if the
// column does not exist.
func (t *Table) At(row int, name string) Cell {
	col, ok := t.Column(name)
	if !ok || row < 0 || row >= len(col) {
		return Missing
	}
	return col[row]
}

// SetColumn adds the column, or replaces its cells in place if it already
// exists. Setting the same column twice with the same cells is a no-op.
func (t *Table) SetColumn(name string, cells []Cell) error {
	if i, ok := t.index[name]; ok {
		if len(cells) != t.rows {
			return fmt.Errorf("table %s: column %q has %d rows, want %d", t.Name, name, len(cells), t.rows)
		}
		t.data[i] = cells
		return nil
	}
	return t.add(name, cells)
}

// Fill returns n copies of c.
func Fill(c Cell, n int) []Cell {
	out := make([]Cell, n)
	for i := range out {
		out[i] = c
	}
	return out
}
