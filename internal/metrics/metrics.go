// Package metrics exposes Prometheus instrumentation for regulation lookups.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rag"

// Query outcomes.
const (
	OutcomeFound    = "found"
	OutcomeEmpty    = "empty"
	OutcomeNoIndex  = "no_index"
	OutcomeError    = "error"
	OutcomeCacheHit = "cache_hit"
)

// Metrics holds the service collectors and the registry they live in.
type Metrics struct {
	registry *prometheus.Registry

	queries        *prometheus.CounterVec
	queryDuration  prometheus.Histogram
	termRetrievals *prometheus.CounterVec
	termsPerQuery  prometheus.Histogram
	cacheLookups   *prometheus.CounterVec
	indexLoads     *prometheus.CounterVec
	indexNodes     prometheus.Gauge
}

// New registers all collectors on a fresh registry, along with the Go runtime
// and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		queries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Regulation lookups by outcome",
		}, []string{"outcome"}),
		queryDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "End-to-end regulation lookup latency",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		termRetrievals: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "term_retrievals_total",
			Help:      "Per-term retrieval calls by result",
		}, []string{"result"}),
		termsPerQuery: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "terms_attempted",
			Help:      "Expanded terms queried before selection stopped",
			Buckets:   []float64{1, 2, 3, 4, 5, 6, 8},
		}),
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Outcome cache lookups by result",
		}, []string{"result"}),
		indexLoads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_loads_total",
			Help:      "Index load attempts by result",
		}, []string{"result"}),
		indexNodes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_nodes",
			Help:      "Nodes in the loaded index",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveQuery records one facade call.
func (m *Metrics) ObserveQuery(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.queries.WithLabelValues(outcome).Inc()
	m.queryDuration.Observe(elapsed.Seconds())
}

// ObserveTerm records one term retrieval. result is "hit", "empty" or "error".
func (m *Metrics) ObserveTerm(result string) {
	if m == nil {
		return
	}
	m.termRetrievals.WithLabelValues(result).Inc()
}

// ObserveTermsAttempted records how many terms a selection queried.
func (m *Metrics) ObserveTermsAttempted(n int) {
	if m == nil {
		return
	}
	m.termsPerQuery.Observe(float64(n))
}

// ObserveCache records an outcome cache lookup. result is "hit", "miss" or "error".
func (m *Metrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveIndexLoad records an index load attempt and, on success, its size.
func (m *Metrics) ObserveIndexLoad(err error, nodes int) {
	if m == nil {
		return
	}
	if err != nil {
		m.indexLoads.WithLabelValues("error").Inc()
		return
	}
	m.indexLoads.WithLabelValues("ok").Inc()
	m.indexNodes.Set(float64(nodes))
}
