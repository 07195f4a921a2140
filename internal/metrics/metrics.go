// Package metrics exposes prometheus counters for fetch sessions.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "repo_context"

// Metrics holds the session counters. A nil *Metrics is a valid no-op.
type Metrics struct {
	registry *prometheus.Registry

	fetches           *prometheus.CounterVec
	rejections        *prometheus.CounterVec
	resolutionMisses  prometheus.Counter
	routeMisses       prometheus.Counter
	selectionPublish  prometheus.Counter
	snapshotFiles     prometheus.Gauge
	providerCacheHits *prometheus.CounterVec
}

// New registers the counters on a fresh registry so several instances
// never collide.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_total",
			Help:      "Completed repository fetches by final status.",
		}, []string{"status"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_rejections_total",
			Help:      "Fetch requests rejected by a session guard.",
		}, []string{"reason"}),
		resolutionMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolution_misses_total",
			Help:      "Import specifiers that did not resolve inside the snapshot.",
		}),
		routeMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "route_misses_total",
			Help:      "Routes without a matching entry file.",
		}),
		selectionPublish: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "selection_publishes_total",
			Help:      "Selection snapshots handed to the consumer.",
		}),
		snapshotFiles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_files",
			Help:      "Files in the most recent snapshot.",
		}),
		providerCacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_cache_lookups_total",
			Help:      "Snapshot cache lookups by result.",
		}, []string{"result"}),
	}
	m.registry.MustRegister(
		m.fetches, m.rejections, m.resolutionMisses, m.routeMisses,
		m.selectionPublish, m.snapshotFiles, m.providerCacheHits,
	)
	return m
}

func (m *Metrics) FetchCompleted(status string, files int) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(status).Inc()
	m.snapshotFiles.Set(float64(files))
}

func (m *Metrics) FetchRejected(reason string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(reason).Inc()
}

func (m *Metrics) ResolutionMisses(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.resolutionMisses.Add(float64(n))
}

func (m *Metrics) RouteMiss() {
	if m == nil {
		return
	}
	m.routeMisses.Inc()
}

func (m *Metrics) SelectionPublished() {
	if m == nil {
		return
	}
	m.selectionPublish.Inc()
}

func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.providerCacheHits.WithLabelValues(result).Inc()
}

// Registry returns the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the /metrics scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
