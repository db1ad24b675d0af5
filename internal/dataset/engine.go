package dataset

import (
	"fmt"
	"time"

	"github.com/KaramelBytes/surveyboard/internal/aggregate"
	"github.com/KaramelBytes/surveyboard/internal/metrics"
	"github.com/KaramelBytes/surveyboard/internal/pattern"
	"github.com/KaramelBytes/surveyboard/internal/table"
)

// ColumnResult is the distribution of one column with its display label.
type ColumnResult struct {
	Column string           `json:"column"`
	Label  string           `json:"label"`
	Result aggregate.Result `json:"result"`
}

// Section is the outcome of one view. Exactly one of PerColumn,
// Distribution or Cross is populated, depending on Mode.
type Section struct {
	ID           string                 `json:"id"`
	Title        string                 `json:"title"`
	Mode         Mode                   `json:"mode"`
	Chart        string                 `json:"chart,omitempty"`
	Columns      []string               `json:"columns"`
	Status       aggregate.Status       `json:"status"`
	Message      string                 `json:"message,omitempty"`
	PerColumn    []ColumnResult         `json:"per_column,omitempty"`
	Distribution *aggregate.Result      `json:"distribution,omitempty"`
	Cross        *aggregate.CrossResult `json:"cross,omitempty"`
}

// Report is everything shown for one uploaded dataset.
type Report struct {
	Dataset        string       `json:"dataset"`
	Title          string       `json:"title"`
	Source         string       `json:"source"`
	Rows           int          `json:"rows"`
	Columns        int          `json:"columns"`
	Demographics   Section      `json:"demographics"`
	Sections       []Section    `json:"sections"`
	Representative ColumnResult `json:"representative"`
	Warnings       []string     `json:"warnings,omitempty"`
}

// Analyze interprets a descriptor against a normalized table. Absent or
// empty columns become informational sections, never errors.
func Analyze(d *Descriptor, t *table.Table) (*Report, error) {
	start := time.Now()
	defer func() { metrics.ObserveStage("analyze", time.Since(start)) }()

	rep := &Report{
		Dataset:  d.ID,
		Title:    d.Title,
		Source:   t.Name,
		Rows:     t.Len(),
		Columns:  t.Width(),
		Sections: []Section{},
	}
	if t.IsEmpty() {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("%s data is empty after processing", d.Title))
	}

	ix, err := pattern.NewIndex(t, d.Specs())
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", d.ID, err)
	}

	demo := View{ID: demographicsID, Title: "Demographics", Mode: ModeColumns, Match: d.Demographics}
	rep.Demographics, err = runView(t, demo, ix.Group(demographicsID))
	if err != nil {
		return nil, err
	}
	for _, v := range d.Views {
		sec, err := runView(t, v, ix.Group(v.ID))
		if err != nil {
			return nil, err
		}
		rep.Sections = append(rep.Sections, sec)
	}

	rep.Representative = ColumnResult{
		Column: d.Representative,
		Label:  d.Representative,
		Result: aggregate.Single(t, d.Representative, false),
	}
	return rep, nil
}

func runView(t *table.Table, v View, g pattern.Group) (Section, error) {
	sec := Section{ID: v.ID, Title: v.Title, Mode: v.Mode, Chart: v.Chart, Columns: g.Columns}
	l, err := v.Label.Compile()
	if err != nil {
		return sec, fmt.Errorf("view %s: %w", v.ID, err)
	}

	// Exact rules name their columns up front, so each absent one is reported.
	if v.Mode == ModeColumns && v.Match.Kind == pattern.Exact {
		present := map[string]bool{}
		for _, c := range g.Columns {
			present[c] = true
		}
		for _, name := range v.Match.Patterns {
			cr := ColumnResult{Column: name, Label: l.Label(name)}
			if present[name] {
				cr.Result = aggregate.Single(t, name, false)
			} else {
				cr.Result = aggregate.NotFound(fmt.Sprintf("column %q not found", name))
			}
			sec.PerColumn = append(sec.PerColumn, cr)
		}
		sec.Status, sec.Message = rollup(sec.PerColumn)
		return sec, nil
	}

	if g.Empty() {
		sec.Status = aggregate.StatusNotFound
		sec.Message = fmt.Sprintf("no columns found for %s", describe(v.Match))
		return sec, nil
	}

	switch v.Mode {
	case ModeColumns:
		for _, col := range g.Columns {
			sec.PerColumn = append(sec.PerColumn, ColumnResult{
				Column: col,
				Label:  l.Label(col),
				Result: aggregate.Single(t, col, false),
			})
		}
		sec.Status, sec.Message = rollup(sec.PerColumn)
	case ModeMelt:
		res := aggregate.Values(aggregate.FilterNullLike(aggregate.Melt(t, g.Columns)))
		sec.Distribution = &res
		sec.Status, sec.Message = res.Status, res.Message
	case ModeAffirmative:
		target := v.Target
		if target == "" {
			target = "yes"
		}
		res := aggregate.ByLabel(aggregate.FilterEqual(aggregate.Melt(t, g.Columns), target), l)
		if !res.OK() {
			res.Message = fmt.Sprintf("no %q responses found", target)
		}
		sec.Distribution = &res
		sec.Status, sec.Message = res.Status, res.Message
	case ModeCrossTab:
		res := aggregate.CrossScale(aggregate.FilterNullLike(aggregate.Melt(t, g.Columns)), l, v.Scale)
		sec.Cross = &res
		sec.Status, sec.Message = res.Status, res.Message
	default:
		return sec, fmt.Errorf("view %s: unknown mode %q", v.ID, v.Mode)
	}
	return sec, nil
}

// rollup reports OK if any column has data, otherwise the most specific
// informational state.
func rollup(cols []ColumnResult) (aggregate.Status, string) {
	if len(cols) == 0 {
		return aggregate.StatusNotFound, "no columns found"
	}
	noData := false
	for _, c := range cols {
		switch c.Result.Status {
		case aggregate.StatusOK:
			return aggregate.StatusOK, ""
		case aggregate.StatusNoData:
			noData = true
		}
	}
	if noData {
		return aggregate.StatusNoData, "no responses in the matched columns"
	}
	return aggregate.StatusNotFound, "none of the expected columns were found"
}

func describe(r pattern.Rule) string {
	return fmt.Sprintf("%s %v", r.Kind, r.Patterns)
}
