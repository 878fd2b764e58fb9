package metrics

import (
	"net/http"
	"property-browser-service/internal/core/port"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "property_browser"

// PrometheusMetrics реализует MetricsPort на собственном реестре
type PrometheusMetrics struct {
	registry        *prometheus.Registry
	backendRequests *prometheus.CounterVec
	backendLatency  *prometheus.HistogramVec
	mapBatches      *prometheus.CounterVec
	droppedFetches  *prometheus.CounterVec
	activeSessions  prometheus.Gauge
	httpRequests    *prometheus.CounterVec
}

var _ port.MetricsPort = (*PrometheusMetrics)(nil)

func NewPrometheusMetrics(collectRuntime bool) *PrometheusMetrics {
	m := &PrometheusMetrics{
		registry: prometheus.NewRegistry(),
		backendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Requests to the property backend by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		backendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Latency of property backend requests.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"endpoint"}),
		mapBatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "map_batches_total",
			Help:      "Map loader batches by outcome.",
		}, []string{"outcome"}),
		droppedFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_fetches_total",
			Help:      "Fetch triggers dropped because a request was already in flight.",
		}, []string{"view"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Browse sessions held in memory.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Handled REST requests by route pattern and status.",
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(
		m.backendRequests,
		m.backendLatency,
		m.mapBatches,
		m.droppedFetches,
		m.activeSessions,
		m.httpRequests,
	)
	if collectRuntime {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return m
}

func (m *PrometheusMetrics) ObserveBackendRequest(endpoint, outcome string, duration time.Duration) {
	m.backendRequests.WithLabelValues(endpoint, outcome).Inc()
	m.backendLatency.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *PrometheusMetrics) IncMapBatch(outcome string) {
	m.mapBatches.WithLabelValues(outcome).Inc()
}

func (m *PrometheusMetrics) IncDroppedFetch(view string) {
	m.droppedFetches.WithLabelValues(view).Inc()
}

func (m *PrometheusMetrics) SetActiveSessions(n int) {
	m.activeSessions.Set(float64(n))
}

// ObserveHTTPRequest - счетчик REST-запросов, route - шаблон маршрута chi
func (m *PrometheusMetrics) ObserveHTTPRequest(method, route, status string) {
	m.httpRequests.WithLabelValues(method, route, status).Inc()
}

// Handler отдает метрики в формате Prometheus
func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
