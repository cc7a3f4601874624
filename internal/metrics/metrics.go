package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the site.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPDurationSeconds *prometheus.HistogramVec

	CMSFetchesTotal *prometheus.CounterVec
	CMSCacheHits    *prometheus.CounterVec
	CMSCacheMisses  *prometheus.CounterVec
	EventsTotal     *prometheus.CounterVec
	EventFailures   *prometheus.CounterVec
	DismissalsTotal *prometheus.CounterVec
}

// New registers all collectors on registry, including the Go runtime and
// process collectors.
func New(registry *prometheus.Registry) *Metrics {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "etalage_http_requests_total",
				Help: "HTTP requests by route, method and status code",
			},
			[]string{"route", "method", "status"},
		),
		HTTPDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "etalage_http_request_duration_seconds",
				Help:    "HTTP request latency by route",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"route"},
		),
		CMSFetchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "etalage_cms_fetches_total",
				Help: "CMS document fetches by document, source and result",
			},
			[]string{"document", "source", "result"}, // result: ok, not_found, error
		),
		CMSCacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "etalage_cms_cache_hits_total",
				Help: "CMS cache hits by document",
			},
			[]string{"document"},
		),
		CMSCacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "etalage_cms_cache_misses_total",
				Help: "CMS cache misses by document",
			},
			[]string{"document"},
		),
		EventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "etalage_analytics_events_total",
				Help: "Analytics events accepted by name",
			},
			[]string{"name"},
		),
		EventFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "etalage_analytics_publish_failures_total",
				Help: "Analytics events that could not be published, by sink",
			},
			[]string{"sink"},
		),
		DismissalsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "etalage_dismissals_total",
				Help: "Announcement and popup dismissals by kind",
			},
			[]string{"kind"}, // kind: announcement, popup
		),
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRequest records one completed HTTP request.
func (m *Metrics) ObserveRequest(route, method string, status int, latency time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.HTTPDurationSeconds.WithLabelValues(route).Observe(latency.Seconds())
}

// ObserveFetch records a CMS source fetch.
func (m *Metrics) ObserveFetch(document, source, result string) {
	m.CMSFetchesTotal.WithLabelValues(document, source, result).Inc()
}

// ObserveCache records a CMS cache lookup.
func (m *Metrics) ObserveCache(document string, hit bool) {
	if hit {
		m.CMSCacheHits.WithLabelValues(document).Inc()
		return
	}
	m.CMSCacheMisses.WithLabelValues(document).Inc()
}

// ObserveEvent records an accepted analytics event.
func (m *Metrics) ObserveEvent(name string) {
	m.EventsTotal.WithLabelValues(name).Inc()
}

// ObservePublishFailure records an analytics event lost by sink.
func (m *Metrics) ObservePublishFailure(sink string) {
	m.EventFailures.WithLabelValues(sink).Inc()
}

// ObserveDismissal records a dismissal of kind.
func (m *Metrics) ObserveDismissal(kind string) {
	m.DismissalsTotal.WithLabelValues(kind).Inc()
}
