// Package outbox implements the transactional outbox for engine commands.
//
// Commands are appended in the same database transaction that commits the
// candidate record, then delivered asynchronously by the relay. A crash after
// commit loses nothing: pending entries are replayed, and the dispatcher's
// dedup keys keep the replay from producing duplicate side effects.
package outbox

import (
	"time"

	"github.com/google/uuid"

	"hirefunnel/internal/funnel/models"
)

// Status tracks an entry through its delivery lifecycle.
type Status string

const (
	StatusPending   Status = "pending"
	StatusDelivered Status = "delivered"
	StatusFailed    Status = "failed"
)

// Entry is one persisted command awaiting delivery.
type Entry struct {
	ID            uuid.UUID      `json:"id"`
	Command       models.Command `json:"command"`
	DedupKey      string         `json:"dedup_key"`
	Status        Status         `json:"status"`
	Attempts      int            `json:"attempts"`
	NextAttemptAt time.Time      `json:"next_attempt_at"`
	CreatedAt     time.Time      `json:"created_at"`
	LastError     string         `json:"last_error,omitempty"`
}

// NewEntry wraps a command for its first delivery attempt at readyAt.
func NewEntry(cmd models.Command, readyAt time.Time) *Entry {
	return &Entry{
		ID:            uuid.New(),
		Command:       cmd,
		DedupKey:      cmd.DedupKey(),
		Status:        StatusPending,
		NextAttemptAt: readyAt,
		CreatedAt:     readyAt,
	}
}
