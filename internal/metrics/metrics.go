// Package metrics records pipeline activity through a pluggable backend.
// The default backend discards everything, so instrumented code never has
// to check whether metrics are enabled.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Metric names understood by backends.
const (
	FilesTotal    = "surveyboard_files_total"
	CacheTotal    = "surveyboard_cache_lookups_total"
	StageDuration = "surveyboard_stage_duration_seconds"
	SessionsTotal = "surveyboard_sessions_total"
)

// Backend receives metric events.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}

var backend Backend = nopBackend{}

// SetBackend installs a backend. Passing nil keeps the current one.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// AddFiles counts uploads by pipeline and outcome
// (processed, failed, dropped).
func AddFiles(pipeline, status string, n int) {
	if n <= 0 {
		return
	}
	backend.IncCounter(FilesTotal, float64(n), Labels{"pipeline": pipeline, "status": status})
}

// CacheLookup counts a memo lookup.
func CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	backend.IncCounter(CacheTotal, 1, Labels{"result": result})
}

// SessionCreated counts a new analysis session.
func SessionCreated() {
	backend.IncCounter(SessionsTotal, 1, nil)
}

// ObserveStage records how long a pipeline stage took.
func ObserveStage(stage string, d time.Duration) {
	backend.ObserveHistogram(StageDuration, d.Seconds(), Labels{"stage": stage})
}
