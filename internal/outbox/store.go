package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store persists outbox entries. Append honors an ambient SQL transaction so
// the entry commits atomically with the candidate record that produced it.
type Store interface {
	Append(ctx context.Context, entries []*Entry) error

	// Due returns up to limit pending entries whose next attempt time has
	// passed, oldest first.
	Due(ctx context.Context, now time.Time, limit int) ([]*Entry, error)

	MarkDelivered(ctx context.Context, entryID uuid.UUID) error

	// Reschedule records a failed attempt and pushes the next one out.
	Reschedule(ctx context.Context, entryID uuid.UUID, attempts int, nextAttemptAt time.Time, lastError string) error

	// MarkFailed parks the entry permanently; it will not be retried.
	MarkFailed(ctx context.Context, entryID uuid.UUID, lastError string) error
}
