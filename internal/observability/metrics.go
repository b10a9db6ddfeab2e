package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the search proxy and the
// dashboard coordinator.
type Metrics struct {
	// Proxy metrics.
	SearchRequests   *prometheus.CounterVec   // labels: index, outcome={success,invalid,error}
	ProviderDuration *prometheus.HistogramVec // labels: index
	SearchHits       prometheus.Histogram
	IndexCache       *prometheus.CounterVec // labels: result={hit,miss}
	AuditEvents      *prometheus.CounterVec // labels: outcome={queued,error}
	ProxyDraining    prometheus.Gauge

	// Dashboard metrics.
	CollectionFetches  *prometheus.CounterVec // labels: collection, outcome={success,error}
	DiscardedResponses *prometheus.CounterVec // labels: collection
	CollectionItems    *prometheus.GaugeVec   // labels: collection
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.SearchRequests,
		m.ProviderDuration,
		m.SearchHits,
		m.IndexCache,
		m.AuditEvents,
		m.ProxyDraining,
		m.CollectionFetches,
		m.DiscardedResponses,
		m.CollectionItems,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		SearchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "firewatch",
			Name:      "search_requests_total",
			Help:      "Proxied search requests by index and outcome.",
		}, []string{"index", "outcome"}),
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "firewatch",
			Name:      "provider_request_duration_seconds",
			Help:      "Search provider request duration in seconds, retries included.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"index"}),
		SearchHits: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "firewatch",
			Name:      "search_hits",
			Help:      "Number of hits per successful search response.",
			Buckets:   []float64{0, 1, 10, 50, 100, 250, 500, 1000},
		}),
		IndexCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "firewatch",
			Name:      "index_handle_cache_total",
			Help:      "Index handle lookups by result.",
		}, []string{"result"}),
		AuditEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "firewatch",
			Name:      "audit_events_total",
			Help:      "Search audit events handed to the audit topic by outcome.",
		}, []string{"outcome"}),
		ProxyDraining: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "firewatch",
			Name:      "proxy_draining",
			Help:      "1 once the proxy has begun shutting down.",
		}),
		CollectionFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "firewatch",
			Name:      "dashboard_fetches_total",
			Help:      "Dashboard collection fetches by collection and outcome.",
		}, []string{"collection", "outcome"}),
		DiscardedResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "firewatch",
			Name:      "dashboard_discarded_responses_total",
			Help:      "Responses dropped because a newer fetch was already applied.",
		}, []string{"collection"}),
		CollectionItems: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "firewatch",
			Name:      "dashboard_collection_items",
			Help:      "Records currently rendered per collection.",
		}, []string{"collection"}),
	}
}
