// Package metrics provides observability for funnel orchestration.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks event handling outcomes across the funnel.
type Metrics struct {
	// Committed transitions by event type and resulting stage
	Transitions *prometheus.CounterVec

	// Events rejected as inapplicable to the record's stage
	StaleEvents *prometheus.CounterVec

	// Redelivered events absorbed by the dedup log
	DuplicateEvents prometheus.Counter

	// Optimistic-concurrency conflicts that triggered a replay
	ConflictRetries prometheus.Counter

	// End-to-end event handling latency
	HandleLatency prometheus.Histogram
}

// New creates a Metrics instance with all funnel metrics registered.
func New() *Metrics {
	return &Metrics{
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hirefunnel_transitions_total",
			Help: "Committed funnel transitions by event type and resulting stage",
		}, []string{"event_type", "to_stage"}),

		StaleEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hirefunnel_stale_events_total",
			Help: "Events rejected as inapplicable to the record's current stage",
		}, []string{"event_type"}),

		DuplicateEvents: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hirefunnel_duplicate_events_total",
			Help: "Redelivered events absorbed by the per-record dedup log",
		}),

		ConflictRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hirefunnel_conflict_retries_total",
			Help: "Version conflicts that caused an event to be replayed",
		}),

		HandleLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "hirefunnel_handle_event_duration_seconds",
			Help:    "Duration of event handling including storage commit",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementTransition records one committed transition.
func (m *Metrics) IncrementTransition(eventType, toStage string) {
	if m != nil {
		m.Transitions.WithLabelValues(eventType, toStage).Inc()
	}
}

// IncrementStale records a stale-event rejection.
func (m *Metrics) IncrementStale(eventType string) {
	if m != nil {
		m.StaleEvents.WithLabelValues(eventType).Inc()
	}
}

// IncrementDuplicate records an absorbed redelivery.
func (m *Metrics) IncrementDuplicate() {
	if m != nil {
		m.DuplicateEvents.Inc()
	}
}

// IncrementConflictRetry records a replay after a version conflict.
func (m *Metrics) IncrementConflictRetry() {
	if m != nil {
		m.ConflictRetries.Inc()
	}
}

// ObserveHandleLatency records the duration of one HandleEvent call.
func (m *Metrics) ObserveHandleLatency(d time.Duration) {
	if m != nil {
		m.HandleLatency.Observe(d.Seconds())
	}
}
