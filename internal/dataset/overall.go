package dataset

import (
	"github.com/KaramelBytes/surveyboard/internal/aggregate"
	"github.com/KaramelBytes/surveyboard/internal/combine"
	"github.com/KaramelBytes/surveyboard/internal/table"
)

// Loaded is a selected dataset whose upload normalized successfully.
type Loaded struct {
	ID    string
	Table *table.Table
}

// Insight is the representative metric of one dataset.
type Insight struct {
	Dataset string           `json:"dataset"`
	Title   string           `json:"title"`
	Column  string           `json:"column"`
	Result  aggregate.Result `json:"result"`
}

// OverallReport compares demographics across datasets and lists each
// dataset's representative metric.
type OverallReport struct {
	Datasets []string        `json:"datasets"`
	Combined *combine.Result `json:"combined"`
	Insights []Insight       `json:"insights"`
	Warnings []string        `json:"warnings,omitempty"`
}

// Overall builds the cross-dataset view. Datasets are tagged with their
// catalog title; unknown ids are reported as warnings and skipped.
func Overall(cat *Catalog, loaded []Loaded, candidates []string) *OverallReport {
	rep := &OverallReport{Datasets: []string{}, Insights: []Insight{}}
	var sources []combine.Source
	for _, l := range loaded {
		d, ok := cat.Get(l.ID)
		if !ok {
			rep.Warnings = append(rep.Warnings, "unknown dataset "+l.ID)
			continue
		}
		if l.Table == nil || l.Table.IsEmpty() {
			rep.Warnings = append(rep.Warnings, d.Title+" data is empty after processing")
			continue
		}
		rep.Datasets = append(rep.Datasets, d.Title)
		sources = append(sources, combine.Source{ID: d.Title, Table: l.Table})
		rep.Insights = append(rep.Insights, Insight{
			Dataset: d.ID,
			Title:   d.Title,
			Column:  d.Representative,
			Result:  aggregate.Single(l.Table, d.Representative, false),
		})
	}
	rep.Combined = combine.Combine(sources, candidates)
	return rep
}
