package table

import "strings"

// NormalizeHeader canonicalizes a column header: trimmed, lowercased, and
// every character outside [a-z0-9_] replaced by '_'.
func NormalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	var b strings.Builder
	b.Grow(len(h))
	for _, r := range h {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Normalize converts a raw upload into a Table with canonical headers.
//
// Headers that normalize to the same name collide and the last one wins,
// taking the position of the last occurrence. Input with no header, no rows,
// or only missing cells yields an empty table.
func Normalize(raw *Raw) *Table {
	if raw == nil {
		return Empty("")
	}
	if len(raw.Header) == 0 || len(raw.Rows) == 0 || allMissing(raw) {
		return Empty(raw.Name)
	}
	return build(raw)
}

// HeaderOnly returns the zero-row table of a header-only upload, keeping its
// normalized columns. Anything else yields an empty table.
func HeaderOnly(raw *Raw) *Table {
	if raw == nil {
		return Empty("")
	}
	if len(raw.Header) == 0 || len(raw.Rows) > 0 {
		return Empty(raw.Name)
	}
	return build(raw)
}

func build(raw *Raw) *Table {
	names := make([]string, len(raw.Header))
	last := make(map[string]int, len(raw.Header))
	for i, h := range raw.Header {
		names[i] = NormalizeHeader(h)
		last[names[i]] = i
	}

	t := Empty(raw.Name)
	t.rows = len(raw.Rows)
	for i, name := range names {
		if last[name] != i {
			continue
		}
		cells := make([]Cell, len(raw.Rows))
		for r, row := range raw.Rows {
			cells[r] = row[i]
		}
		t.index[name] = len(t.cols)
		t.cols = append(t.cols, name)
		t.data = append(t.data, cells)
	}
	return t
}

func allMissing(raw *Raw) bool {
	for _, row := range raw.Rows {
		for _, c := range row {
			if c.Valid {
				return false
			}
		}
	}
	return true
}
