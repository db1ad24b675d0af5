package dataset

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/KaramelBytes/surveyboard/internal/aggregate"
	"github.com/KaramelBytes/surveyboard/internal/utils"
)

// Markdown renders the report. topK limits categories per table; 0 shows all.
func (r *Report) Markdown(topK int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s Survey Report\n\n", r.Title)
	fmt.Fprintf(&b, "- Source: %s\n- Respondents: %d\n- Columns: %d\n\n", r.Source, r.Rows, r.Columns)
	for _, w := range r.Warnings {
		fmt.Fprintf(&b, "> ⚠ %s\n\n", w)
	}
	writeSection(&b, r.Demographics, topK)
	for _, s := range r.Sections {
		writeSection(&b, s, topK)
	}
	b.WriteString("## Key Insight\n\n")
	writeResult(&b, r.Representative.Label, r.Representative.Result, topK)
	return b.String()
}

func writeSection(b *strings.Builder, s Section, topK int) {
	fmt.Fprintf(b, "## %s\n\n", s.Title)
	if s.Status != aggregate.StatusOK && len(s.PerColumn) == 0 {
		fmt.Fprintf(b, "_ℹ %s_\n\n", s.Message)
		return
	}
	switch {
	case len(s.PerColumn) > 0:
		for _, c := range s.PerColumn {
			fmt.Fprintf(b, "### %s\n\n", c.Label)
			writeResult(b, c.Label, c.Result, topK)
		}
	case s.Distribution != nil:
		header := "Response"
		if s.Mode == ModeAffirmative {
			header = "Brand"
		}
		writeResult(b, header, *s.Distribution, topK)
	case s.Cross != nil && s.Cross.Table != nil:
		ct := s.Cross.Table
		header := append([]string{"Label"}, ct.Responses...)
		rows := make([][]string, len(ct.Labels))
		for i, l := range ct.Labels {
			row := []string{l}
			for _, n := range ct.Counts[i] {
				row = append(row, strconv.Itoa(n))
			}
			rows[i] = row
		}
		b.WriteString(utils.MarkdownTable(header, rows))
		fmt.Fprintf(b, "\n_Response order: %s_\n\n", ct.Scale)
	}
}

func writeResult(b *strings.Builder, label string, res aggregate.Result, topK int) {
	if !res.OK() {
		fmt.Fprintf(b, "_ℹ %s_\n\n", res.Message)
		return
	}
	d := res.Distribution.Top(topK)
	rows := make([][]string, 0, len(d.Entries))
	for _, e := range d.Entries {
		rows = append(rows, []string{e.Label, strconv.Itoa(e.Count), utils.Percent(e.Count, d.Total)})
	}
	b.WriteString(utils.MarkdownTable([]string{label, "Count", "Share"}, rows))
	if d.Hidden > 0 {
		fmt.Fprintf(b, "\n_%d more categories not shown_\n", d.Hidden)
	}
	b.WriteString("\n")
}

// Markdown renders the cross-dataset report. displayTop limits demographic
// tables and metricTop limits key insight tables.
func (o *OverallReport) Markdown(displayTop, metricTop int) string {
	var b strings.Builder
	b.WriteString("# Overall Insights\n\n")
	fmt.Fprintf(&b, "- Datasets: %s\n\n", strings.Join(o.Datasets, ", "))
	for _, w := range o.Warnings {
		fmt.Fprintf(&b, "> ⚠ %s\n\n", w)
	}
	b.WriteString("## Demographics Across Datasets\n\n")
	if o.Combined.NoCommon {
		fmt.Fprintf(&b, "_ℹ %s_\n\n", o.Combined.Message)
	} else {
		for _, c := range o.Combined.PerColumn {
			fmt.Fprintf(&b, "### %s\n\n", titleize(c.Column))
			writeResult(&b, titleize(c.Column), c.Result, displayTop)
		}
		b.WriteString("### Records per Source Brand\n\n")
		writeResult(&b, "Source Brand", o.Combined.SourceCounts, displayTop)
	}
	b.WriteString("## Key Insights per Dataset\n\n")
	for _, in := range o.Insights {
		fmt.Fprintf(&b, "### %s: %s\n\n", in.Title, titleize(in.Column))
		writeResult(&b, titleize(in.Column), in.Result, metricTop)
	}
	return b.String()
}

func titleize(col string) string {
	l, _ := aggregate.LabelRule{}.Compile()
	return l.Label(col)
}
