// Package telemetry implements C12: process counters and gauges for the
// quantities the engine's design talks about in prose (nodes expanded,
// cache hit rate, frontier size, memory samples) so they're observable
// instead of only inferred from logs. Pulled from osse101-BrandishBot_Go's
// prometheus/client_golang dependency — the teacher repo has no metrics
// library at all.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the engine-wide set of instruments. A fresh Metrics should be
// registered once per process; tests construct their own registry to avoid
// colliding with package-level global state.
type Metrics struct {
	Registry *prometheus.Registry

	NodesExpanded prometheus.Counter
	CacheHits     prometheus.Counter
	CacheMisses   prometheus.Counter
	FrontierSize  prometheus.Gauge
	HeapBytes     prometheus.Gauge
	RunsTotal     *prometheus.CounterVec
	RunDuration   prometheus.Histogram
}

// New builds a fresh, independently-registered Metrics instance.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		NodesExpanded: factory.NewCounter(prometheus.CounterOpts{
			Name: "cropsolver_bfs_nodes_expanded_total",
			Help: "BFS frontier nodes dequeued and expanded.",
		}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "cropsolver_cache_hits_total",
			Help: "Canonical cache presence hits (dedup short-circuits).",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "cropsolver_cache_misses_total",
			Help: "Canonical cache misses (new key inserted).",
		}),
		FrontierSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "cropsolver_bfs_frontier_size",
			Help: "Current BFS frontier queue depth.",
		}),
		HeapBytes: factory.NewGauge(prometheus.GaugeOpts{
			Name: "cropsolver_heap_bytes",
			Help: "Most recent memory-monitor probe reading.",
		}),
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cropsolver_runs_total",
			Help: "Orchestrator runs, labeled by outcome.",
		}, []string{"outcome"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "cropsolver_run_duration_seconds",
			Help:    "Wall-clock duration of a complete orchestrator run.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// Handler exposes the registry over HTTP for an optional --metrics-addr
// CLI flag; the orchestrator itself never imports net/http.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
