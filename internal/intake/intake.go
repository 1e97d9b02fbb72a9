// Package intake consumes funnel events from Kafka and feeds them to the
// funnel service. Delivery is at-least-once; the engine's dedup keys make
// replays safe, so handling errors are logged rather than retried here.
package intake

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	dErrors "hirefunnel/pkg/domain-errors"
	"hirefunnel/internal/funnel/models"
	"hirefunnel/internal/funnel/service"
	"hirefunnel/internal/platform/kafka/consumer"
)

// EventHandler decodes event records and submits them to the funnel service.
type EventHandler struct {
	svc    *service.Service
	logger *slog.Logger
}

func NewEventHandler(svc *service.Service, logger *slog.Logger) *EventHandler {
	return &EventHandler{svc: svc, logger: logger}
}

// Handle processes one event record. Stale and malformed events are logged
// and dropped; redelivering them cannot succeed. Transient failures are
// returned so the caller can surface them.
func (h *EventHandler) Handle(ctx context.Context, msg *consumer.Message) error {
	var ev models.Event
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		h.logger.ErrorContext(ctx, "dropping undecodable event",
			"topic", msg.Topic,
			"offset", msg.Offset,
			"error", err)
		return nil
	}

	result, err := h.svc.HandleEvent(ctx, ev)
	if err != nil {
		switch {
		case dErrors.HasCode(err, dErrors.CodeStaleEvent):
			h.logger.WarnContext(ctx, "dropping stale event",
				"event_type", ev.Type,
				"candidate_id", ev.CandidateID,
				"error", err)
			return nil
		case dErrors.HasCode(err, dErrors.CodeValidation),
			dErrors.HasCode(err, dErrors.CodeNotFound):
			h.logger.WarnContext(ctx, "dropping unprocessable event",
				"event_type", ev.Type,
				"candidate_id", ev.CandidateID,
				"error", err)
			return nil
		default:
			return fmt.Errorf("handle event %s for %s: %w", ev.Type, ev.CandidateID, err)
		}
	}

	if !result.Applied {
		h.logger.InfoContext(ctx, "duplicate event absorbed",
			"event_type", ev.Type,
			"candidate_id", ev.CandidateID)
	}
	return nil
}
