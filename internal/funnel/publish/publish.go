// Package publish emits applied transitions to Kafka for downstream
// consumers (analytics, audit). Publishing is best-effort; the record and its
// outbox commands are already committed when this runs.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"hirefunnel/internal/funnel/models"
	"hirefunnel/internal/platform/kafka/producer"
)

// transitionEnvelope is the wire shape of one applied transition.
type transitionEnvelope struct {
	CandidateID string       `json:"candidate_id"`
	JobID       string       `json:"job_id"`
	EventType   string       `json:"event_type"`
	EventID     string       `json:"event_id,omitempty"`
	Stage       models.Stage `json:"stage"`
	Version     int64        `json:"version"`
	OccurredAt  time.Time    `json:"occurred_at"`
}

// Publisher writes transition envelopes to a single topic, keyed by
// candidate so per-candidate ordering is preserved.
type Publisher struct {
	producer *producer.Producer
	topic    string
}

func New(p *producer.Producer, topic string) *Publisher {
	return &Publisher{producer: p, topic: topic}
}

// PublishTransition emits the post-transition record state.
func (p *Publisher) PublishTransition(ctx context.Context, rec *models.CandidateRecord, ev models.Event) error {
	env := transitionEnvelope{
		CandidateID: rec.ID.String(),
		JobID:       rec.JobID.String(),
		EventType:   string(ev.Type),
		EventID:     ev.ID,
		Stage:       rec.Stage,
		Version:     rec.Version,
		OccurredAt:  ev.OccurredAt,
	}
	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal transition envelope: %w", err)
	}
	return p.producer.Publish(ctx, p.topic, []byte(rec.ID.String()), value)
}
