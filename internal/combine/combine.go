// Package combine unions demographic columns from several datasets into one
// record set tagged by source dataset.
package combine

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/surveyboard/internal/aggregate"
	"github.com/KaramelBytes/surveyboard/internal/table"
)

// SourceColumn names the provenance field of a combined record.
const SourceColumn = "source_dataset"

// DefaultCandidates are the demographic columns looked for across datasets.
var DefaultCandidates = []string{
	"age_group", "gender", "monthly_income", "household_income", "location", "city", "region",
	"marital_status", "children_under_5",
	"please_select_the_age_group_based_on_your_age", "please_select_your_gender",
}

// Source is one selected, successfully loaded dataset.
type Source struct {
	ID    string
	Table *table.Table
}

// Record is one respondent's contribution. Values only holds the candidate
// columns its source table provides.
type Record struct {
	Source string            `json:"source_dataset"`
	Values map[string]string `json:"values"`
}

// ColumnResult is the combined distribution of one demographic column.
type ColumnResult struct {
	Column string           `json:"column"`
	Result aggregate.Result `json:"result"`
}

// Result is the combined view.
type Result struct {
	// Columns lists candidate columns present in at least one source, in
	// candidate order.
	Columns      []string         `json:"columns"`
	Records      []Record         `json:"records"`
	PerColumn    []ColumnResult   `json:"per_column"`
	SourceCounts aggregate.Result `json:"source_counts"`
	// NoCommon is set when no candidate column exists in any source.
	NoCommon bool   `json:"no_common"`
	Message  string `json:"message,omitempty"`
}

// Column returns the distribution for a demographic column.
func (r *Result) Column(name string) (aggregate.Result, bool) {
	for _, c := range r.PerColumn {
		if c.Column == name {
			return c.Result, true
		}
	}
	return aggregate.Result{}, false
}

// Combine builds the combined demographic view. Sources are processed in
// the given order; nil tables and empty ids are skipped.
func Combine(sources []Source, candidates []string) *Result {
	if candidates == nil {
		candidates = DefaultCandidates
	}
	res := &Result{Columns: []string{}, Records: []Record{}, PerColumn: []ColumnResult{}}

	present := map[string]bool{}
	for _, s := range sources {
		if s.Table == nil || s.ID == "" {
			continue
		}
		for _, c := range candidates {
			if s.Table.Has(c) {
				present[c] = true
			}
		}
	}
	for _, c := range candidates {
		if present[c] {
			res.Columns = append(res.Columns, c)
		}
	}
	if len(res.Columns) == 0 {
		res.NoCommon = true
		res.Message = "no common demographic data found in the selected datasets"
		res.SourceCounts = aggregate.NoData(res.Message)
		return res
	}

	sourceTally := aggregate.NewTally()
	for _, s := range sources {
		if s.Table == nil || s.ID == "" {
			continue
		}
		var own []string
		for _, c := range res.Columns {
			if s.Table.Has(c) {
				own = append(own, c)
			}
		}
		if len(own) == 0 {
			continue
		}
		for row := 0; row < s.Table.Len(); row++ {
			vals := make(map[string]string, len(own))
			for _, c := range own {
				vals[c] = strings.TrimSpace(s.Table.At(row, c).String())
			}
			res.Records = append(res.Records, Record{Source: s.ID, Values: vals})
			sourceTally.Add(s.ID)
		}
	}

	for _, c := range res.Columns {
		tally := aggregate.NewTally()
		for _, rec := range res.Records {
			v, ok := rec.Values[c]
			if !ok || aggregate.IsNullLike(v) {
				continue
			}
			tally.Add(v)
		}
		cr := ColumnResult{Column: c}
		if tally.Len() == 0 {
			cr.Result = aggregate.NoData(fmt.Sprintf("no data for %q across the selected datasets", c))
		} else {
			cr.Result = aggregate.Result{Status: aggregate.StatusOK, Distribution: tally.Distribution()}
		}
		res.PerColumn = append(res.PerColumn, cr)
	}
	if sourceTally.Len() == 0 {
		res.SourceCounts = aggregate.NoData("no records")
	} else {
		res.SourceCounts = aggregate.Result{Status: aggregate.StatusOK, Distribution: sourceTally.Distribution()}
	}
	return res
}
