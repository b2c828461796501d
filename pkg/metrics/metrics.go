// Package metrics defines the Prometheus collectors of the order service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "orders"

// HTTPMetrics counts requests per route template and status.
type HTTPMetrics struct {
	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec
}

func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "route", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"method", "route"})

	reg.MustRegister(requests, latency)
	return &HTTPMetrics{Requests: requests, LatencyMS: latency}
}

// OrderMetrics tracks engine outcomes. A nil *OrderMetrics records nothing.
type OrderMetrics struct {
	Created       *prometheus.CounterVec
	EventsApplied *prometheus.CounterVec
	Replays       *prometheus.CounterVec
	Rejections    *prometheus.CounterVec
	Allocations   prometheus.Counter
}

func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	m := &OrderMetrics{
		Created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "created_total",
			Help:      "Orders created, by channel.",
		}, []string{"channel"}),
		EventsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_applied_total",
			Help:      "Lifecycle events applied, by resulting status.",
		}, []string{"status"}),
		Replays: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "idempotent_replays_total",
			Help:      "Requests answered from an earlier identical write.",
		}, []string{"operation"}),
		Rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejections_total",
			Help:      "Requests refused by the engine, by error code.",
		}, []string{"operation", "code"}),
		Allocations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ids_allocated_total",
			Help:      "Order ids handed out by the sequence allocator.",
		}),
	}
	reg.MustRegister(m.Created, m.EventsApplied, m.Replays, m.Rejections, m.Allocations)
	return m
}

func (m *OrderMetrics) OrderCreated(channel string) {
	if m == nil {
		return
	}
	m.Created.WithLabelValues(channel).Inc()
}

func (m *OrderMetrics) EventApplied(status string) {
	if m == nil {
		return
	}
	m.EventsApplied.WithLabelValues(status).Inc()
}

func (m *OrderMetrics) Replayed(operation string) {
	if m == nil {
		return
	}
	m.Replays.WithLabelValues(operation).Inc()
}

func (m *OrderMetrics) Rejected(operation, code string) {
	if m == nil {
		return
	}
	m.Rejections.WithLabelValues(operation, code).Inc()
}

func (m *OrderMetrics) IDAllocated() {
	if m == nil {
		return
	}
	m.Allocations.Inc()
}

// NewRegistry returns a registry with the Go and process collectors attached.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
