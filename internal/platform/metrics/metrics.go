// Package metrics holds transport-level Prometheus metrics shared by all
// HTTP routes. Feature-level metrics live next to their features.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds HTTP transport metrics.
type Metrics struct {
	RequestLatency *prometheus.HistogramVec
	RequestsTotal  *prometheus.CounterVec
}

// New creates and registers the transport metrics.
func New() *Metrics {
	return &Metrics{
		RequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hirefunnel_http_request_duration_seconds",
			Help:    "HTTP request duration by route and method",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"route", "method"}),

		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hirefunnel_http_requests_total",
			Help: "HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
	}
}

// ObserveRequest records one completed HTTP request.
func (m *Metrics) ObserveRequest(route, method, status string, seconds float64) {
	if m != nil {
		m.RequestLatency.WithLabelValues(route, method).Observe(seconds)
		m.RequestsTotal.WithLabelValues(route, method, status).Inc()
	}
}
