package aggregate

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/surveyboard/internal/table"
)

// Record is one melted cell: the column it came from and its text value.
type Record struct {
	Column string `json:"column"`
	Value  string `json:"value"`
}

// Single computes the distribution of one column. Missing values count as
// NoResponse unless dropMissing is set, in which case they are skipped.
func Single(t *table.Table, column string, dropMissing bool) Result {
	cells, ok := t.Column(column)
	if !ok {
		return NotFound(fmt.Sprintf("column %q not found", column))
	}
	tally := NewTally()
	for _, c := range cells {
		switch {
		case c.Valid:
			tally.Add(c.S)
		case !dropMissing:
			tally.Add(NoResponse)
		}
	}
	return fromTally(tally, fmt.Sprintf("column %q has no responses", column))
}

// Melt unpivots the given columns into records, column by column. Columns
// not present in t are skipped. Missing cells become "nan".
func Melt(t *table.Table, columns []string) []Record {
	out := make([]Record, 0, t.Len()*len(columns))
	for _, col := range columns {
		cells, ok := t.Column(col)
		if !ok {
			continue
		}
		for _, c := range cells {
			out = append(out, Record{Column: col, Value: c.String()})
		}
	}
	return out
}

var nullLike = map[string]struct{}{"": {}, "nan": {}, "none": {}}

// IsNullLike reports whether a value, trimmed and lowercased, is "", "nan" or "none".
func IsNullLike(v string) bool {
	_, ok := nullLike[strings.ToLower(strings.TrimSpace(v))]
	return ok
}

// FilterNullLike drops records with null-like values.
func FilterNullLike(recs []Record) []Record {
	out := make([]Record, 0, len(recs))
	for _, r := range recs {
		if !IsNullLike(r.Value) {
			out = append(out, r)
		}
	}
	return out
}

// FilterEqual keeps records whose trimmed value equals target, ignoring case.
func FilterEqual(recs []Record, target string) []Record {
	target = strings.TrimSpace(target)
	out := make([]Record, 0, len(recs))
	for _, r := range recs {
		if strings.EqualFold(strings.TrimSpace(r.Value), target) {
			out = append(out, r)
		}
	}
	return out
}

// Values counts record values.
func Values(recs []Record) Result {
	tally := NewTally()
	for _, r := range recs {
		tally.Add(r.Value)
	}
	return fromTally(tally, "no responses after filtering")
}

// ByLabel counts records per derived column label. With a same-value
// filter applied first this ranks affirmative answers per column.
func ByLabel(recs []Record, l *Labeler) Result {
	tally := NewTally()
	for _, r := range recs {
		tally.Add(l.Label(r.Column))
	}
	return fromTally(tally, "no matching responses")
}
