// Package billboard merges uploaded billboard inventories, cleans their
// metrics, derives reach percentage and prepares geolocated records.
package billboard

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/KaramelBytes/surveyboard/internal/metrics"
	"github.com/KaramelBytes/surveyboard/internal/table"
)

// DefaultMaxFiles caps how many uploads one merge processes.
const DefaultMaxFiles = 20

// Semantic column names, matched after normalization.
const (
	ColSourceFile     = "source_file"
	ColLatitude       = "latitude"
	ColLongitude      = "longitude"
	ColPotentialViews = "potential_views"
	ColReach          = "reach"
	ColReachPct       = "reach_pct"
)

// Marker colours.
const (
	BucketGreen  = "green"
	BucketOrange = "orange"
	BucketRed    = "red"
	BucketGray   = "gray"
)

// Input is one uploaded file.
type Input struct {
	Name string
	Data []byte
}

// FileError reports an upload that was excluded from the merge.
type FileError struct {
	Name string
	Err  error
}

func (e *FileError) Error() string { return fmt.Sprintf("%s: %v", e.Name, e.Err) }
func (e *FileError) Unwrap() error { return e.Err }

// MarshalText lets failures travel as plain messages in JSON reports.
func (e *FileError) MarshalText() ([]byte, error) { return []byte(e.Error()), nil }

// Options tunes a merge.
type Options struct {
	MaxFiles int
	Read     table.ReadOptions
}

// Record is the per-row view of the merged table used by map and metric consumers.
type Record struct {
	Row            int      `json:"row"`
	SourceFile     string   `json:"source_file"`
	PotentialViews *float64 `json:"potential_views,omitempty"`
	Reach          *float64 `json:"reach,omitempty"`
	ReachPct       *float64 `json:"reach_pct,omitempty"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
	Bucket         string   `json:"bucket"`
}

// GeoValid reports whether both coordinates parsed.
func (r Record) GeoValid() bool { return r.Latitude != nil && r.Longitude != nil }

// Result is one generation of the merged billboard data.
type Result struct {
	// Merged holds every row of every processed file, with cleaned
	// potential_views and reach plus derived reach_pct.
	Merged  *table.Table `json:"-"`
	Records []Record     `json:"-"`

	Processed []string     `json:"processed"`
	Failures  []*FileError `json:"failures"`
	// Dropped counts uploads beyond the file cap.
	Dropped int `json:"dropped"`
	// HasGeo is set when both latitude and longitude columns exist.
	HasGeo bool `json:"has_geo"`
	// HasMetrics is set when both potential_views and reach columns exist.
	HasMetrics bool `json:"has_metrics"`
}

// Geo returns the records with valid coordinates. It is empty when the
// merged data has no coordinate columns.
func (r *Result) Geo() []Record {
	out := []Record{}
	if !r.HasGeo {
		return out
	}
	for _, rec := range r.Records {
		if rec.GeoValid() {
			out = append(out, rec)
		}
	}
	return out
}

// Provenance cleans a file name into a source tag: lowercased, with runs of
// anything other than letters and digits collapsed to a single '_'.
func Provenance(name string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	if b.Len() == 0 {
		return "file"
	}
	return b.String()
}

// Bucket maps a reach percentage to a marker colour.
func Bucket(pct *float64) string {
	switch {
	case pct == nil:
		return BucketGray
	case *pct >= 75:
		return BucketGreen
	case *pct >= 40:
		return BucketOrange
	default:
		return BucketRed
	}
}

// ReachPct computes reach / views * 100 capped at 100. It is undefined
// unless both values are present and views is non-zero.
func ReachPct(views, reach *float64) *float64 {
	if views == nil || reach == nil || *views == 0 {
		return nil
	}
	p := *reach / *views * 100
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return nil
	}
	p = math.Max(0, math.Min(p, 100))
	return &p
}

// Merge runs the pipeline over the uploads in order. Files past the cap are
// dropped and counted; files that fail to parse are reported and skipped.
func Merge(inputs []Input, opt Options) *Result {
	maxFiles := opt.MaxFiles
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}
	res := &Result{Processed: []string{}, Failures: []*FileError{}, Records: []Record{}}
	if len(inputs) > maxFiles {
		res.Dropped = len(inputs) - maxFiles
		inputs = inputs[:maxFiles]
		metrics.AddFiles("billboard", "dropped", res.Dropped)
	}

	var tables []*table.Table
	for _, in := range inputs {
		raw, err := table.Parse(in.Name, in.Data, opt.Read)
		if err != nil {
			res.Failures = append(res.Failures, &FileError{Name: in.Name, Err: err})
			metrics.AddFiles("billboard", "failed", 1)
			continue
		}
		t := table.Normalize(raw)
		if len(raw.Rows) == 0 {
			// Header-only files still add their columns to the union.
			t = table.HeaderOnly(raw)
		}
		if t.Width() == 0 {
			res.Failures = append(res.Failures, &FileError{Name: in.Name, Err: errors.New("no rows")})
			metrics.AddFiles("billboard", "failed", 1)
			continue
		}
		if err := t.SetColumn(ColSourceFile, table.Fill(table.Value(Provenance(in.Name)), t.Len())); err != nil {
			res.Failures = append(res.Failures, &FileError{Name: in.Name, Err: err})
			metrics.AddFiles("billboard", "failed", 1)
			continue
		}
		tables = append(tables, t)
		res.Processed = append(res.Processed, in.Name)
		metrics.AddFiles("billboard", "processed", 1)
	}

	merged, err := concat("merged_billboard_data", tables)
	if err != nil {
		// concat only fails on inconsistent column lengths, which Normalize rules out.
		res.Failures = append(res.Failures, &FileError{Name: "merge", Err: err})
		merged = table.Empty("merged_billboard_data")
	}
	res.Merged = merged
	enrich(res)
	return res
}

// concat unions columns in first-seen order, filling gaps with missing values.
func concat(name string, tables []*table.Table) (*table.Table, error) {
	var cols []string
	seen := map[string]bool{}
	total := 0
	for _, t := range tables {
		for _, c := range t.Columns() {
			if !seen[c] {
				seen[c] = true
				cols = append(cols, c)
			}
		}
		total += t.Len()
	}
	data := make([][]table.Cell, len(cols))
	for i, c := range cols {
		cells := make([]table.Cell, 0, total)
		for _, t := range tables {
			if col, ok := t.Column(c); ok {
				cells = append(cells, col...)
			} else {
				cells = append(cells, table.Fill(table.Missing, t.Len())...)
			}
		}
		data[i] = cells
	}
	return table.New(name, cols, data)
}

// setColumn replaces a derived column of the merged table, reporting a
// length mismatch as a merge failure.
func (res *Result) setColumn(name string, cells []table.Cell) {
	if err := res.Merged.SetColumn(name, cells); err != nil {
		res.Failures = append(res.Failures, &FileError{Name: "merge", Err: err})
	}
}

func enrich(res *Result) {
	t := res.Merged
	n := t.Len()
	res.HasGeo = t.Has(ColLatitude) && t.Has(ColLongitude)
	res.HasMetrics = t.Has(ColPotentialViews) && t.Has(ColReach)

	views := make([]*float64, n)
	reach := make([]*float64, n)
	pct := make([]*float64, n)
	if res.HasMetrics {
		for i := 0; i < n; i++ {
			views[i] = parseCell(t.At(i, ColPotentialViews), table.ParseNumber)
			reach[i] = parseCell(t.At(i, ColReach), table.ParseNumber)
			pct[i] = ReachPct(views[i], reach[i])
		}
		res.setColumn(ColPotentialViews, table.Numbers(views))
		res.setColumn(ColReach, table.Numbers(reach))
	}
	if n > 0 {
		res.setColumn(ColReachPct, table.Numbers(pct))
	}

	res.Records = make([]Record, n)
	for i := 0; i < n; i++ {
		rec := Record{
			Row:            i,
			SourceFile:     t.At(i, ColSourceFile).S,
			PotentialViews: views[i],
			Reach:          reach[i],
			ReachPct:       pct[i],
			Bucket:         Bucket(pct[i]),
		}
		if res.HasGeo {
			rec.Latitude = parseCell(t.At(i, ColLatitude), table.ParseFloat)
			rec.Longitude = parseCell(t.At(i, ColLongitude), table.ParseFloat)
		}
		res.Records[i] = rec
	}
}

func parseCell(c table.Cell, parse func(string) (float64, bool)) *float64 {
	if !c.Valid {
		return nil
	}
	f, ok := parse(c.S)
	if !ok {
		return nil
	}
	return &f
}
