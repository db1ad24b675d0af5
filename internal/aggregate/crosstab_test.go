package aggregate

import (
	"reflect"
	"testing"
)

func dist(labels ...string) Distribution {
	tl := NewTally()
	for _, l := range labels {
		tl.Add(l)
	}
	return tl.Distribution()
}

func TestOrderResponses(t *testing.T) {
	cases := []struct {
		name  string
		in    Distribution
		want  []string
		scale Scale
	}{
		{"ranks", dist("3rd", "1st", "1st", "Other", "2nd"), []string{"1st", "2nd", "3rd", "Other"}, ScaleRank},
		{"numeric ranks", dist("2", "1", "1"), []string{"1", "2"}, ScaleRank},
		{"likert", dist("Agree", "Agree", "Strongly Disagree", "Meh"), []string{"Strongly Disagree", "Agree", "Meh"}, ScaleLikert},
		{"frequency", dist("Never", "Daily", "Daily"), []string{"Daily", "Never"}, ScaleFrequency},
		{"counts", dist("b", "a", "a"), []string{"a", "b"}, ScaleCount},
		{"rank wins over likert", dist("Agree", "Top 3"), []string{"Agree", "Top 3"}, ScaleRank},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, scale := OrderResponses(c.in)
			if !reflect.DeepEqual(got, c.want) || scale != c.scale {
				t.Fatalf("got %v (%s), want %v (%s)", got, scale, c.want, c.scale)
			}
		})
	}
}

func TestCrossScale_Auto(t *testing.T) {
	recs := []Record{
		{Column: "how_agree__i_like_kfc", Value: "Agree"},
		{Column: "how_agree__i_like_kfc", Value: "Strongly Agree"},
		{Column: "how_agree__price_matters", Value: "Agree"},
		{Column: "how_agree__price_matters", Value: "Disagree"},
	}
	l, err := LabelRule{AfterLast: "__"}.Compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	res := CrossScale(recs, l, ScaleAuto)
	if res.Status != StatusOK {
		t.Fatalf("status = %s", res.Status)
	}
	ct := res.Table
	if ct.Scale != ScaleLikert {
		t.Errorf("scale = %s", ct.Scale)
	}
	if !reflect.DeepEqual(ct.Responses, []string{"Disagree", "Agree", "Strongly Agree"}) {
		t.Errorf("responses = %v", ct.Responses)
	}
	if !reflect.DeepEqual(ct.Labels, []string{"I Like Kfc", "Price Matters"}) {
		t.Errorf("labels = %v", ct.Labels)
	}
	if ct.Count("Price Matters", "Agree") != 1 || ct.Count("I Like Kfc", "Disagree") != 0 {
		t.Errorf("counts = %v", ct.Counts)
	}
	if res := CrossScale(nil, l, ScaleAuto); res.Status != StatusNoData {
		t.Errorf("empty status = %s", res.Status)
	}
}

func TestOrderBy_FixedScale(t *testing.T) {
	d := dist("1-2 times a week", "Daily", "Daily", "Never")
	got, scale := OrderBy(d, ScaleFrequency)
	if scale != ScaleFrequency || !reflect.DeepEqual(got, []string{"Daily", "Never", "1-2 times a week"}) {
		t.Fatalf("got %v (%s)", got, scale)
	}
	if _, scale := OrderBy(d, ScaleAuto); scale != ScaleRank {
		t.Fatalf("auto should flag the digit as a rank, got %s", scale)
	}
}
