// Package aggregate turns columns and column groups into frequency
// distributions.
package aggregate

import "sort"

// NoResponse labels missing values in single-column distributions.
const NoResponse = "No Response / N/A"

// Status tells callers whether a result carries data.
type Status string

const (
	StatusOK       Status = "ok"
	StatusNotFound Status = "not_found"
	StatusNoData   Status = "no_data"
)

// Entry is one category of a distribution.
type Entry struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Distribution is a frequency table in display order: count descending,
// ties in first-seen order.
type Distribution struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
	// Hidden is the number of entries dropped by Top.
	Hidden int `json:"hidden,omitempty"`
}

// Top keeps the first k entries for display. Total still covers all entries.
func (d Distribution) Top(k int) Distribution {
	if k <= 0 || len(d.Entries) <= k {
		return d
	}
	out := d
	out.Entries = append([]Entry(nil), d.Entries[:k]...)
	out.Hidden = d.Hidden + len(d.Entries) - k
	return out
}

// Count returns the count for label, or 0.
func (d Distribution) Count(label string) int {
	for _, e := range d.Entries {
		if e.Label == label {
			return e.Count
		}
	}
	return 0
}

// Len is the number of entries shown.
func (d Distribution) Len() int { return len(d.Entries) }

// Labels returns entry labels in display order.
func (d Distribution) Labels() []string {
	out := make([]string, len(d.Entries))
	for i, e := range d.Entries {
		out[i] = e.Label
	}
	return out
}

// Tally counts labels, remembering the order they were first seen.
type Tally struct {
	index   map[string]int
	entries []Entry
}

// NewTally returns an empty tally.
func NewTally() *Tally { return &Tally{index: map[string]int{}} }

// Add counts one occurrence of label.
func (t *Tally) Add(label string) { t.AddN(label, 1) }

// AddN counts n occurrences of label.
func (t *Tally) AddN(label string, n int) {
	if i, ok := t.index[label]; ok {
		t.entries[i].Count += n
		return
	}
	t.index[label] = len(t.entries)
	t.entries = append(t.entries, Entry{Label: label, Count: n})
}

// Len is the number of distinct labels.
func (t *Tally) Len() int { return len(t.entries) }

// Distribution returns the tally in display order.
func (t *Tally) Distribution() Distribution {
	entries := append([]Entry(nil), t.entries...)
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Count > entries[j].Count })
	total := 0
	for _, e := range entries {
		total += e.Count
	}
	return Distribution{Entries: entries, Total: total}
}

// Result is a distribution plus the state callers render when there is none.
type Result struct {
	Status       Status       `json:"status"`
	Message      string       `json:"message,omitempty"`
	Distribution Distribution `json:"distribution"`
}

// OK reports whether the result carries data.
func (r Result) OK() bool { return r.Status == StatusOK }

// NotFound builds an informational result for an absent column or group.
func NotFound(msg string) Result {
	return Result{Status: StatusNotFound, Message: msg, Distribution: Distribution{Entries: []Entry{}}}
}

// NoData builds an informational result for a column or group with no usable values.
func NoData(msg string) Result {
	return Result{Status: StatusNoData, Message: msg, Distribution: Distribution{Entries: []Entry{}}}
}

func fromTally(t *Tally, emptyMsg string) Result {
	if t.Len() == 0 {
		return NoData(emptyMsg)
	}
	return Result{Status: StatusOK, Distribution: t.Distribution()}
}
