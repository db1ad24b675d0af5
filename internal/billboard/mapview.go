package billboard

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// PopupField is one labelled line of a marker popup.
type PopupField struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Marker is one geolocated billboard.
type Marker struct {
	Point  orb.Point    `json:"point"`
	Bucket string       `json:"bucket"`
	Popup  []PopupField `json:"popup"`
}

// MapView is everything a map widget needs.
type MapView struct {
	Available bool      `json:"available"`
	Message   string    `json:"message,omitempty"`
	Center    orb.Point `json:"center"`
	Bounds    orb.Bound `json:"bounds"`
	Markers   []Marker  `json:"markers"`
}

// Map builds marker data for the geo-valid subset. Points are (lon, lat).
func (r *Result) Map() MapView {
	mv := MapView{Markers: []Marker{}}
	if !r.HasGeo {
		mv.Message = "latitude and longitude columns not found"
		return mv
	}
	geo := r.Geo()
	if len(geo) == 0 {
		mv.Message = "no rows with valid coordinates"
		return mv
	}
	mp := make(orb.MultiPoint, 0, len(geo))
	for _, rec := range geo {
		pt := orb.Point{*rec.Longitude, *rec.Latitude}
		mp = append(mp, pt)
		mv.Markers = append(mv.Markers, Marker{Point: pt, Bucket: rec.Bucket, Popup: r.popup(rec)})
	}
	mv.Available = true
	mv.Center, _ = planar.CentroidArea(mp)
	mv.Bounds = mp.Bound()
	return mv
}

func (r *Result) popup(rec Record) []PopupField {
	text := func(col string) string {
		c := r.Merged.At(rec.Row, col)
		if !c.Valid {
			return "N/A"
		}
		return c.S
	}
	where := text("location")
	if where == "N/A" {
		where = text("country")
	}
	return []PopupField{
		{Label: "Location", Value: where},
		{Label: "District", Value: text("district")},
		{Label: "Reference ID", Value: text("reference_id")},
		{Label: "Source File", Value: rec.SourceFile},
		{Label: "Potential Views", Value: FormatOptional(rec.PotentialViews, "%.0f")},
		{Label: "Reach", Value: FormatOptional(rec.Reach, "%.0f")},
		{Label: "Reach %", Value: FormatOptional(rec.ReachPct, "%.2f%%")},
	}
}
