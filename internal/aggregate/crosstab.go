package aggregate

import "strings"

// Response scales recognised when ordering a cross-tab's response axis.
var (
	RankOrder      = []string{"1", "1st", "2", "2nd", "3", "3rd", "4", "4th", "5", "5th"}
	LikertOrder    = []string{"Strongly Disagree", "Disagree", "Neutral", "Agree", "Strongly Agree"}
	FrequencyOrder = []string{"Daily", "Weekly", "Monthly", "Less often", "Never", "Prefer not to say"}
)

// rankTokens are matched as substrings of any response to flag a ranking question.
var rankTokens = []string{"1", "2", "3", "4", "5", "1st", "2nd", "3rd", "4th", "5th"}

// Scale names the ordering chosen for the response axis.
type Scale string

const (
	ScaleAuto      Scale = "auto"
	ScaleRank      Scale = "rank"
	ScaleLikert    Scale = "likert"
	ScaleFrequency Scale = "frequency"
	ScaleCount     Scale = "count"
)

// CrossTab counts (label, response) pairs. Counts[i][j] is the count for
// Labels[i] and Responses[j].
type CrossTab struct {
	Labels    []string `json:"labels"`
	Responses []string `json:"responses"`
	Counts    [][]int  `json:"counts"`
	Scale     Scale    `json:"scale"`
}

// Count returns the count for a label and response.
func (c *CrossTab) Count(label, response string) int {
	for i, l := range c.Labels {
		if l != label {
			continue
		}
		for j, r := range c.Responses {
			if r == response {
				return c.Counts[i][j]
			}
		}
	}
	return 0
}

// CrossResult wraps a cross-tab with its status.
type CrossResult struct {
	Status  Status    `json:"status"`
	Message string    `json:"message,omitempty"`
	Table   *CrossTab `json:"table,omitempty"`
}

// CrossScale builds a cross-tab over derived labels and response values.
// Labels keep first-seen order. The response axis follows scale; ScaleAuto
// (or "") picks one with OrderResponses.
func CrossScale(recs []Record, l *Labeler, scale Scale) CrossResult {
	if len(recs) == 0 {
		return CrossResult{Status: StatusNoData, Message: "no responses after filtering"}
	}
	labels := NewTally()
	responses := NewTally()
	pair := map[[2]string]int{}
	for _, r := range recs {
		lab := l.Label(r.Column)
		labels.Add(lab)
		responses.Add(r.Value)
		pair[[2]string{lab, r.Value}]++
	}
	order, scale := OrderBy(responses.Distribution(), scale)
	ct := &CrossTab{Scale: scale, Responses: order}
	for _, e := range labels.entries {
		row := make([]int, len(order))
		for j, resp := range order {
			row[j] = pair[[2]string{e.Label, resp}]
		}
		ct.Labels = append(ct.Labels, e.Label)
		ct.Counts = append(ct.Counts, row)
	}
	return CrossResult{Status: StatusOK, Table: ct}
}

// OrderResponses orders distinct responses for display. If any response
// contains a rank-like token the rank sequence leads; otherwise the Likert
// scale, then the frequency scale, when any of their values are present.
// Responses outside the chosen scale follow by descending count.
//
// The rank check is a substring test, so numeric answers such as "10 mins"
// also flag a ranking question.
func OrderResponses(d Distribution) ([]string, Scale) {
	labels := d.Labels()
	if anyContains(labels, rankTokens) {
		return withScale(labels, RankOrder), ScaleRank
	}
	if anyIn(labels, LikertOrder) {
		return withScale(labels, LikertOrder), ScaleLikert
	}
	if anyIn(labels, FrequencyOrder) {
		return withScale(labels, FrequencyOrder), ScaleFrequency
	}
	return labels, ScaleCount
}

// OrderBy orders responses on a fixed scale, or guesses one for ScaleAuto.
func OrderBy(d Distribution, scale Scale) ([]string, Scale) {
	switch scale {
	case ScaleRank:
		return withScale(d.Labels(), RankOrder), scale
	case ScaleLikert:
		return withScale(d.Labels(), LikertOrder), scale
	case ScaleFrequency:
		return withScale(d.Labels(), FrequencyOrder), scale
	case ScaleCount:
		return d.Labels(), scale
	}
	return OrderResponses(d)
}

func withScale(labels, scale []string) []string {
	present := make(map[string]bool, len(labels))
	for _, l := range labels {
		present[l] = true
	}
	out := make([]string, 0, len(labels))
	used := map[string]bool{}
	for _, s := range scale {
		if present[s] {
			out = append(out, s)
			used[s] = true
		}
	}
	for _, l := range labels {
		if !used[l] {
			out = append(out, l)
		}
	}
	return out
}

func anyContains(labels, tokens []string) bool {
	for _, l := range labels {
		for _, tok := range tokens {
			if strings.Contains(l, tok) {
				return true
			}
		}
	}
	return false
}

func anyIn(labels, scale []string) bool {
	set := make(map[string]struct{}, len(scale))
	for _, s := range scale {
		set[s] = struct{}{}
	}
	for _, l := range labels {
		if _, ok := set[l]; ok {
			return true
		}
	}
	return false
}
