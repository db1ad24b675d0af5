package prom

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/KaramelBytes/surveyboard/internal/metrics"
)

func TestBackendServesCounters(t *testing.T) {
	b, err := NewBackend()
	if err != nil {
		t.Fatalf("new backend: %v", err)
	}
	b.IncCounter(metrics.FilesTotal, 3, metrics.Labels{"pipeline": "billboard", "status": "processed"})
	b.IncCounter(metrics.CacheTotal, 1, metrics.Labels{"result": "hit"})
	b.IncCounter("unknown_metric", 1, nil)
	b.ObserveHistogram(metrics.StageDuration, 0.01, metrics.Labels{"stage": "merge"})

	srv := httptest.NewServer(b.Handler())
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	text := string(body)
	for _, want := range []string{
		`surveyboard_files_total{pipeline="billboard",status="processed"} 3`,
		`surveyboard_cache_lookups_total{result="hit"} 1`,
		`surveyboard_stage_duration_seconds_count{stage="merge"} 1`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in:\n%s", want, text)
		}
	}
}
