// Package metrics provides observability for command dispatch.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks dispatch outcomes and collaborator latency.
type Metrics struct {
	// Dispatch results by command type and result
	DispatchResult *prometheus.CounterVec

	// Commands skipped because their dedup key was already claimed
	DuplicatesSuppressed prometheus.Counter

	// Collaborator call latency by command type
	CollaboratorLatency *prometheus.HistogramVec
}

// New creates a Metrics instance with all dispatch metrics registered.
func New() *Metrics {
	return &Metrics{
		DispatchResult: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hirefunnel_dispatch_results_total",
			Help: "Total dispatch attempts by command type and result",
		}, []string{"command_type", "result"}),

		DuplicatesSuppressed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hirefunnel_dispatch_duplicates_suppressed_total",
			Help: "Commands skipped because their dedup key was already claimed",
		}),

		CollaboratorLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hirefunnel_dispatch_collaborator_duration_seconds",
			Help:    "Duration of collaborator calls by command type",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"command_type"}),
	}
}

// IncrementResult records one dispatch attempt outcome.
func (m *Metrics) IncrementResult(commandType, result string) {
	if m != nil {
		m.DispatchResult.WithLabelValues(commandType, result).Inc()
	}
}

// IncrementDuplicate records a suppressed duplicate command.
func (m *Metrics) IncrementDuplicate() {
	if m != nil {
		m.DuplicatesSuppressed.Inc()
	}
}

// ObserveCollaboratorLatency records the duration of one collaborator call.
func (m *Metrics) ObserveCollaboratorLatency(commandType string, d time.Duration) {
	if m != nil {
		m.CollaboratorLatency.WithLabelValues(commandType).Observe(d.Seconds())
	}
}
