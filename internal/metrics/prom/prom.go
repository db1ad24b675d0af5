// Package prom exposes pipeline metrics to Prometheus over a scrape endpoint.
package prom

import (
	"fmt"
	"net/http"

	"github.com/KaramelBytes/surveyboard/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Backend implements metrics.Backend with client_golang collectors on a
// private registry.
type Backend struct {
	reg      *prometheus.Registry
	files    *prometheus.CounterVec
	cache    *prometheus.CounterVec
	sessions prometheus.Counter
	stages   *prometheus.HistogramVec
}

// NewBackend registers the collectors.
func NewBackend() (*Backend, error) {
	reg := prometheus.NewRegistry()
	b := &Backend{
		reg: reg,
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.FilesTotal,
			Help: "Uploaded files by pipeline and outcome.",
		}, []string{"pipeline", "status"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.CacheTotal,
			Help: "Memoization lookups by result.",
		}, []string{"result"}),
		sessions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metrics.SessionsTotal,
			Help: "Analysis sessions created.",
		}),
		stages: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    metrics.StageDuration,
			Help:    "Pipeline stage duration in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"stage"}),
	}
	for _, c := range []prometheus.Collector{b.files, b.cache, b.sessions, b.stages} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("prom: register collector: %w", err)
		}
	}
	return b, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.FilesTotal:
		b.files.WithLabelValues(labels["pipeline"], labels["status"]).Add(delta)
	case metrics.CacheTotal:
		b.cache.WithLabelValues(labels["result"]).Add(delta)
	case metrics.SessionsTotal:
		b.sessions.Add(delta)
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.StageDuration {
		return
	}
	b.stages.WithLabelValues(labels["stage"]).Observe(value)
}

// Registry exposes the underlying registry, mainly for tests.
func (b *Backend) Registry() *prometheus.Registry { return b.reg }

// Handler serves the registry in the Prometheus text format.
func (b *Backend) Handler() http.Handler {
	return promhttp.HandlerFor(b.reg, promhttp.HandlerOpts{})
}
