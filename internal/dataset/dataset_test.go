package dataset

import (
	"strings"
	"testing"

	"github.com/KaramelBytes/surveyboard/internal/aggregate"
	"github.com/KaramelBytes/surveyboard/internal/table"
)

func load(t *testing.T, name, csv string) *table.Table {
	t.Helper()
	raw, err := table.Parse(name, []byte(csv), table.ReadOptions{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return table.Normalize(raw)
}

func builtin(t *testing.T) *Catalog {
	t.Helper()
	c, err := Builtin()
	if err != nil {
		t.Fatalf("builtin catalog: %v", err)
	}
	return c
}

func TestBuiltinCatalog(t *testing.T) {
	c := builtin(t)
	want := "airasia,cheetos,mucilion,rtd,fried_chicken,chocolate,phones,coca_cola,mudah,kfc,panasonic"
	if got := strings.Join(c.IDs(), ","); got != want {
		t.Fatalf("ids = %s", got)
	}
	for _, name := range []string{"KFC", "rtd drinks", "Coca-Cola", " mudah "} {
		if _, ok := c.Get(name); !ok {
			t.Errorf("Get(%q) failed", name)
		}
	}
	if _, ok := c.Get("pepsi"); ok {
		t.Errorf("unknown dataset found")
	}
}

func TestParseCatalog_Invalid(t *testing.T) {
	cases := map[string]string{
		"empty":       "datasets: []",
		"bad mode":    "datasets:\n  - id: x\n    demographics: {kind: exact, patterns: [a]}\n    views:\n      - {id: v, mode: spin, match: {kind: exact, patterns: [a]}}\n",
		"bad kind":    "datasets:\n  - id: x\n    demographics: {kind: glob, patterns: [a]}\n",
		"bad regex":   "datasets:\n  - id: x\n    demographics: {kind: exact, patterns: [a]}\n    views:\n      - {id: v, mode: melt, match: {kind: prefix, patterns: [a]}, label: {strip_pattern: \"(\"}}\n",
		"dup dataset": "datasets:\n  - {id: x, demographics: {kind: exact, patterns: [a]}}\n  - {id: X, demographics: {kind: exact, patterns: [a]}}\n",
		"reserved":    "datasets:\n  - id: x\n    demographics: {kind: exact, patterns: [a]}\n    views:\n      - {id: demographics, mode: melt, match: {kind: prefix, patterns: [a]}}\n",
	}
	for name, y := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseCatalog([]byte(y)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

const rtdCSV = `Gender,Age,Brand Aware Coca Cola,Brand Aware Pepsi,Brand Aware None,Brand Ad Aware Coca Cola C1,Brand Ad Aware Pepsi C1,Brand Ad Aware Pepsi C2
Male,25,Yes,No,No,Yes,No,yes
Female,31,Yes,Yes,,No,Yes,No
`

func TestAnalyze_RTD(t *testing.T) {
	c := builtin(t)
	d, _ := c.Get("rtd")
	rep, err := Analyze(d, load(t, "rtd.csv", rtdCSV))
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if rep.Rows != 2 {
		t.Fatalf("rows = %d", rep.Rows)
	}

	demo := rep.Demographics
	if demo.Status != aggregate.StatusOK || len(demo.PerColumn) != 4 {
		t.Fatalf("demographics = %+v", demo)
	}
	if demo.PerColumn[2].Column != "household_income" || demo.PerColumn[2].Result.Status != aggregate.StatusNotFound {
		t.Errorf("absent demographic should be not_found: %+v", demo.PerColumn[2])
	}

	aware := section(t, rep, "brand_awareness")
	if len(aware.PerColumn) != 2 || aware.PerColumn[1].Label != "Pepsi" {
		t.Errorf("brand awareness = %+v", aware.PerColumn)
	}

	recall := section(t, rep, "ad_recall")
	if recall.Distribution == nil {
		t.Fatalf("ad recall has no distribution")
	}
	if got := recall.Distribution.Distribution; got.Count("Pepsi") != 2 || got.Count("Coca Cola") != 1 {
		t.Errorf("ad recall = %+v", got)
	}

	hot := section(t, rep, "hot_weather")
	if hot.Status != aggregate.StatusNotFound || hot.Message == "" {
		t.Errorf("hot weather = %+v", hot)
	}

	if rep.Representative.Result.Distribution.Count("Yes") != 2 {
		t.Errorf("representative = %+v", rep.Representative)
	}

	md := rep.Markdown(20)
	for _, want := range []string{"# RTD Drinks Survey Report", "## Brand Ad Recall (Yes Responses)", "Pepsi", "_ℹ no columns found for prefix [hot_weather_purchase]_"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

const kfcCSV = `Age Group,Gender,Price Important To You When Choosing,Taste Important To You When Choosing,How Agree Or Disagree Are You With These Following Statements  I Like Spicy,How Often Do You Use The Following Media  TV
18-24,Male,1st,2nd,Agree,Daily
25-34,Female,2nd,1st,Strongly Agree,Weekly
35-44,Female,1st,3rd,Agree,Daily
`

func TestAnalyze_KFCCrossTabs(t *testing.T) {
	d, _ := builtin(t).Get("kfc")
	rep, err := Analyze(d, load(t, "kfc.csv", kfcCSV))
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(rep.Demographics.Columns) != 2 {
		t.Errorf("demographics = %v", rep.Demographics.Columns)
	}

	factors := section(t, rep, "decision_factors").Cross
	if factors == nil || factors.Table == nil {
		t.Fatalf("no decision factor cross-tab")
	}
	ct := factors.Table
	if ct.Scale != aggregate.ScaleRank || strings.Join(ct.Responses, ",") != "1st,2nd,3rd" {
		t.Errorf("factors order = %v (%s)", ct.Responses, ct.Scale)
	}
	if strings.Join(ct.Labels, ",") != "Price,Taste" || ct.Count("Price", "1st") != 2 {
		t.Errorf("factors = %+v", ct)
	}

	psycho := section(t, rep, "psychographics").Cross.Table
	if psycho.Scale != aggregate.ScaleLikert || psycho.Labels[0] != "I Like Spicy" {
		t.Errorf("psychographics = %+v", psycho)
	}
	media := section(t, rep, "media").Cross.Table
	if strings.Join(media.Responses, ",") != "Daily,Weekly" || media.Labels[0] != "Tv" {
		t.Errorf("media = %+v", media)
	}
	if rep.Representative.Result.Status != aggregate.StatusNotFound {
		t.Errorf("representative should be not_found, got %s", rep.Representative.Result.Status)
	}
	if section(t, rep, "brand_visit").Status != aggregate.StatusNotFound {
		t.Errorf("brand_visit should be not_found")
	}
}

func TestAnalyze_EmptyTable(t *testing.T) {
	d, _ := builtin(t).Get("panasonic")
	rep, err := Analyze(d, table.Empty("p.csv"))
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(rep.Warnings) != 1 {
		t.Errorf("warnings = %v", rep.Warnings)
	}
	for _, s := range rep.Sections {
		if s.Status == aggregate.StatusOK {
			t.Errorf("section %s should not have data", s.ID)
		}
	}
}

func TestOverall(t *testing.T) {
	c := builtin(t)
	airasia := load(t, "a.csv", "Age Group,Gender,Brand\n18-24,Male,AirAsia\n25-34,,AirAsia\n")
	kfc := load(t, "k.csv", "Age Group,City,Brand You Visit The Most\n18-24,KL,KFC\n,,\n45-54,None,McD\n")
	rep := Overall(c, []Loaded{{ID: "airasia", Table: airasia}, {ID: "kfc", Table: kfc}, {ID: "nope", Table: kfc}}, nil)

	if strings.Join(rep.Datasets, ",") != "AirAsia,KFC" || len(rep.Warnings) != 1 {
		t.Fatalf("datasets = %v warnings = %v", rep.Datasets, rep.Warnings)
	}
	age, ok := rep.Combined.Column("age_group")
	if !ok || age.Distribution.Count("18-24") != 2 || age.Distribution.Total != 4 {
		t.Errorf("age_group = %+v", age)
	}
	city, _ := rep.Combined.Column("city")
	if city.Distribution.Total != 1 {
		t.Errorf("city = %+v", city)
	}
	if rep.Combined.SourceCounts.Distribution.Count("KFC") != 3 {
		t.Errorf("source counts = %+v", rep.Combined.SourceCounts)
	}
	kfcInsight := rep.Insights[1]
	if kfcInsight.Result.Distribution.Count(aggregate.NoResponse) != 1 {
		t.Errorf("missing answers should show as %q: %+v", aggregate.NoResponse, kfcInsight.Result)
	}
	md := rep.Markdown(20, 15)
	for _, want := range []string{"# Overall Insights", "Source Brand", "### KFC: Brand You Visit The Most", "No Response / N/A"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func section(t *testing.T, rep *Report, id string) Section {
	t.Helper()
	for _, s := range rep.Sections {
		if s.ID == id {
			return s
		}
	}
	t.Fatalf("section %s not found", id)
	return Section{}
}
