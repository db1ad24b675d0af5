package pattern

import (
	"reflect"
	"testing"

	"github.com/KaramelBytes/surveyboard/internal/table"
)

func mustTable(t *testing.T, cols ...string) *table.Table {
	t.Helper()
	data := make([][]table.Cell, len(cols))
	for i := range data {
		data[i] = []table.Cell{table.Value("x")}
	}
	tb, err := table.New("t", cols, data)
	if err != nil {
		t.Fatalf("new table: %v", err)
	}
	return tb
}

func TestMatch_KindsAndOrder(t *testing.T) {
	tb := mustTable(t, "age_group", "brand_aware_y", "gender", "brand_aware_x", "brand_aware_none", "dyson_likely_to_buy", "recall_ads_tv")
	specs := []Spec{
		{ID: "aware", Rule: Rule{Kind: Prefix, Patterns: []string{"brand_aware_"}, Exclude: []string{"none"}}},
		{ID: "likely", Rule: Rule{Kind: Suffix, Patterns: []string{"_likely_to_buy"}}},
		{ID: "recall", Rule: Rule{Kind: Contains, Patterns: []string{"recall_ads", "advertisement"}}},
		{ID: "demo", Rule: Rule{Kind: Exact, Patterns: []string{"gender", "age_group", "city"}}},
		{ID: "missing", Rule: Rule{Kind: Prefix, Patterns: []string{"nothing_"}}},
	}
	got := Match(tb, specs)
	want := []Group{
		{ID: "aware", Columns: []string{"brand_aware_y", "brand_aware_x"}},
		{ID: "likely", Columns: []string{"dyson_likely_to_buy"}},
		{ID: "recall", Columns: []string{"recall_ads_tv"}},
		{ID: "demo", Columns: []string{"age_group", "gender"}},
		{ID: "missing", Columns: []string{}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v\nwant %+v", got, want)
	}
	if !got[4].Empty() {
		t.Errorf("expected empty group")
	}
}

func TestRule_RequireAndExcludeColumns(t *testing.T) {
	r := Rule{Kind: Suffix, Patterns: []string{"_r1"}, Require: []string{"info", "engaging"}}
	if !r.Matches("ad_is_engaging_r1") || r.Matches("ad_recall_r1") {
		t.Errorf("require filter misbehaves")
	}
	r = Rule{Kind: Prefix, Patterns: []string{"ad_"}, ExcludeColumns: []string{"ad_others_1"}}
	if r.Matches("ad_others_1") || !r.Matches("ad_others_10") {
		t.Errorf("exclude_columns must compare exact names")
	}
}

func TestIndex(t *testing.T) {
	tb := mustTable(t, "a_1", "a_2", "b")
	ix, err := NewIndex(tb, []Spec{{ID: "a", Rule: Rule{Kind: Prefix, Patterns: []string{"a_"}}}})
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	if g := ix.Group("a"); len(g.Columns) != 2 {
		t.Errorf("group a = %+v", g)
	}
	if g := ix.Group("unknown"); !g.Empty() {
		t.Errorf("unknown id should be empty")
	}
	_, err = NewIndex(tb, []Spec{{ID: "a", Rule: Rule{Kind: Exact, Patterns: []string{"b"}}}, {ID: "a", Rule: Rule{Kind: Exact, Patterns: []string{"b"}}}})
	if err == nil {
		t.Fatalf("expected duplicate id error")
	}
}

func TestMatch_EmptyTable(t *testing.T) {
	groups := Match(table.Empty("e"), []Spec{{ID: "x", Rule: Rule{Kind: Prefix, Patterns: []string{"x"}}}})
	if len(groups) != 1 || !groups[0].Empty() {
		t.Fatalf("got %+v", groups)
	}
}

func TestRule_Validate(t *testing.T) {
	if err := (Rule{Kind: "regex", Patterns: []string{"x"}}).Validate(); err == nil {
		t.Errorf("unknown kind accepted")
	}
	if err := (Rule{Kind: Prefix}).Validate(); err == nil {
		t.Errorf("empty patterns accepted")
	}
	if err := (Rule{Kind: Exact, Patterns: []string{"a"}}).Validate(); err != nil {
		t.Errorf("valid rule rejected: %v", err)
	}
}
