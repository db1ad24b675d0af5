package table

import (
	"encoding/csv"
	"fmt"
	"io"
)

// WriteCSV encodes the table as delimited text with a header row.
// Missing values are written as empty fields.
func (t *Table) WriteCSV(w io.Writer, delim rune) error {
	cw := csv.NewWriter(w)
	if delim != 0 {
		cw.Comma = delim
	}
	if err := cw.Write(t.cols); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rec := make([]string, len(t.cols))
	for r := 0; r < t.rows; r++ {
		for c := range t.cols {
			cell := t.data[c][r]
			if cell.Valid {
				rec[c] = cell.S
			} else {
				rec[c] = ""
			}
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", r+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
