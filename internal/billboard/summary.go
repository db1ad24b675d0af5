package billboard

import (
	"fmt"
	"math"

	"github.com/KaramelBytes/surveyboard/internal/aggregate"
	"github.com/KaramelBytes/surveyboard/internal/table"
)

// CategoryColumns are offered for categorical breakdowns when present.
var CategoryColumns = []string{
	"location", "country", "district", "category", "media_owner", "format", "venue_type", "schedule", ColSourceFile,
}

// NumericColumns are offered for histograms.
var NumericColumns = []string{ColPotentialViews, ColReach, ColReachPct}

// Summary holds the headline metrics. Averages skip missing values and are
// nil when nothing contributes.
type Summary struct {
	Total          int      `json:"total"`
	AvgViews       *float64 `json:"avg_potential_views"`
	AvgReach       *float64 `json:"avg_reach"`
	AvgReachPct    *float64 `json:"avg_reach_pct"`
	GeoValid       int      `json:"geo_valid"`
	ProcessedFiles int      `json:"processed_files"`
	FailedFiles    int      `json:"failed_files"`
	DroppedFiles   int      `json:"dropped_files"`
}

// Summarize computes headline metrics over every merged row.
func (r *Result) Summarize() Summary {
	var views, reach, pct []float64
	for _, rec := range r.Records {
		if rec.PotentialViews != nil {
			views = append(views, *rec.PotentialViews)
		}
		if rec.Reach != nil {
			reach = append(reach, *rec.Reach)
		}
		if rec.ReachPct != nil {
			pct = append(pct, *rec.ReachPct)
		}
	}
	return Summary{
		Total:          len(r.Records),
		AvgViews:       mean(views),
		AvgReach:       mean(reach),
		AvgReachPct:    mean(pct),
		GeoValid:       len(r.Geo()),
		ProcessedFiles: len(r.Processed),
		FailedFiles:    len(r.Failures),
		DroppedFiles:   r.Dropped,
	}
}

func mean(xs []float64) *float64 {
	if len(xs) == 0 {
		return nil
	}
	s := 0.0
	for _, x := range xs {
		s += x
	}
	m := s / float64(len(xs))
	return &m
}

// FormatOptional renders an optional metric, "N/A" when undefined.
func FormatOptional(v *float64, format string) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf(format, *v)
}

// AvailableCategories lists CategoryColumns present in the merged table.
func (r *Result) AvailableCategories() []string {
	out := []string{}
	for _, c := range CategoryColumns {
		if r.Merged.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// CategoryCounts is the full distribution of a categorical column, with
// null-like values removed. Callers apply Top for display.
func (r *Result) CategoryCounts(column string) aggregate.Result {
	if !r.Merged.Has(column) {
		return aggregate.NotFound(fmt.Sprintf("column %q not found in merged data", column))
	}
	res := aggregate.Values(aggregate.FilterNullLike(aggregate.Melt(r.Merged, []string{column})))
	if !res.OK() {
		res.Message = fmt.Sprintf("no values in %q", column)
	}
	return res
}

// Bin is one histogram bucket covering [Lo, Hi); the last bin includes Hi.
type Bin struct {
	Lo    float64 `json:"lo"`
	Hi    float64 `json:"hi"`
	Count int     `json:"count"`
}

// Histogram is an equal-width histogram of a numeric column.
type Histogram struct {
	Column  string           `json:"column"`
	Status  aggregate.Status `json:"status"`
	Message string           `json:"message,omitempty"`
	Bins    []Bin            `json:"bins"`
}

// DefaultBins is the histogram resolution.
const DefaultBins = 10

// Histogram bins the non-missing values of a numeric column of the merged table.
func (r *Result) Histogram(column string, bins int) Histogram {
	h := Histogram{Column: column, Bins: []Bin{}}
	if !r.Merged.Has(column) {
		h.Status, h.Message = aggregate.StatusNotFound, fmt.Sprintf("column %q not found in merged data", column)
		return h
	}
	if bins <= 0 {
		bins = DefaultBins
	}
	cells, _ := r.Merged.Column(column)
	var vals []float64
	for _, c := range cells {
		if !c.Valid {
			continue
		}
		if f, ok := table.ParseNumber(c.S); ok {
			vals = append(vals, f)
		}
	}
	if len(vals) == 0 {
		h.Status, h.Message = aggregate.StatusNoData, fmt.Sprintf("no numeric values in %q", column)
		return h
	}
	lo, hi := vals[0], vals[0]
	for _, v := range vals {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	h.Status = aggregate.StatusOK
	if lo == hi {
		h.Bins = []Bin{{Lo: lo, Hi: hi, Count: len(vals)}}
		return h
	}
	width := (hi - lo) / float64(bins)
	h.Bins = make([]Bin, bins)
	for i := range h.Bins {
		h.Bins[i] = Bin{Lo: lo + float64(i)*width, Hi: lo + float64(i+1)*width}
	}
	h.Bins[bins-1].Hi = hi
	for _, v := range vals {
		i := int((v - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		h.Bins[i].Count++
	}
	return h
}

// GaugeStep is a coloured band of the gauge.
type GaugeStep struct {
	From  float64 `json:"from"`
	To    float64 `json:"to"`
	Color string  `json:"color"`
}

// Gauge shows the average reach percentage against the bucket bands.
type Gauge struct {
	Value *float64    `json:"value"`
	Steps []GaugeStep `json:"steps"`
}

// Gauge clamps the average reach percentage to [0, 100].
func (r *Result) Gauge() Gauge {
	g := Gauge{Steps: []GaugeStep{
		{From: 0, To: 40, Color: BucketRed},
		{From: 40, To: 75, Color: BucketOrange},
		{From: 75, To: 100, Color: BucketGreen},
	}}
	if avg := r.Summarize().AvgReachPct; avg != nil {
		v := math.Max(0, math.Min(*avg, 100))
		g.Value = &v
	}
	return g
}
