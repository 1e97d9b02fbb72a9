package outbox

import (
	"context"
	"log/slog"
	"time"

	"hirefunnel/internal/funnel/models"
	"hirefunnel/pkg/requestcontext"
)

// Dispatcher delivers one command to its collaborator.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd models.Command) (models.DispatchResult, error)
}

// Escalator is notified when an entry exhausts its retry budget. The funnel
// service implements it by holding the candidate and notifying HR.
type Escalator interface {
	EscalateDeliveryFailure(ctx context.Context, cmd models.Command, cause error)
}

// Relay polls the outbox and hands pending entries to the dispatcher.
// Transient failures are retried with exponential backoff until the attempt
// budget runs out, then the entry is parked and escalated.
type Relay struct {
	store      Store
	dispatcher Dispatcher
	escalator  Escalator
	logger     *slog.Logger

	interval    time.Duration
	batchSize   int
	maxAttempts int
	backoffBase time.Duration
	backoffCap  time.Duration
}

// RelayOption configures the Relay.
type RelayOption func(*Relay)

func WithInterval(d time.Duration) RelayOption {
	return func(r *Relay) { r.interval = d }
}

func WithBatchSize(n int) RelayOption {
	return func(r *Relay) { r.batchSize = n }
}

func WithMaxAttempts(n int) RelayOption {
	return func(r *Relay) { r.maxAttempts = n }
}

func WithBackoff(base, cap time.Duration) RelayOption {
	return func(r *Relay) {
		r.backoffBase = base
		r.backoffCap = cap
	}
}

func WithEscalator(e Escalator) RelayOption {
	return func(r *Relay) { r.escalator = e }
}

func NewRelay(store Store, dispatcher Dispatcher, logger *slog.Logger, opts ...RelayOption) *Relay {
	r := &Relay{
		store:       store,
		dispatcher:  dispatcher,
		logger:      logger,
		interval:    time.Second,
		batchSize:   64,
		maxAttempts: 5,
		backoffBase: 2 * time.Second,
		backoffCap:  5 * time.Minute,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run polls until ctx is cancelled. A failing tick is logged, not fatal; the
// next tick retries from persisted state.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.Tick(ctx); err != nil {
				r.logger.WarnContext(ctx, "outbox tick failed", "error", err)
			}
		}
	}
}

// Tick processes one batch of due entries. Exported so tests drive the relay
// without the ticker.
func (r *Relay) Tick(ctx context.Context) error {
	now := requestcontext.Now(ctx)
	due, err := r.store.Due(ctx, now, r.batchSize)
	if err != nil {
		return err
	}
	for _, entry := range due {
		r.deliver(ctx, entry, now)
	}
	return nil
}

func (r *Relay) deliver(ctx context.Context, entry *Entry, now time.Time) {
	result, err := r.dispatcher.Dispatch(ctx, entry.Command)

	switch result {
	case models.DispatchDelivered:
		if markErr := r.store.MarkDelivered(ctx, entry.ID); markErr != nil {
			// The side effect happened; the dispatcher's dedup key absorbs
			// the redelivery on the next tick.
			r.logger.WarnContext(ctx, "outbox entry delivered but not marked",
				"entry_id", entry.ID, "error", markErr)
		}
	case models.DispatchRetryLater:
		attempts := entry.Attempts + 1
		if attempts >= r.maxAttempts {
			r.park(ctx, entry, err)
			return
		}
		next := now.Add(r.backoff(attempts))
		if schedErr := r.store.Reschedule(ctx, entry.ID, attempts, next, errString(err)); schedErr != nil {
			r.logger.WarnContext(ctx, "outbox entry not rescheduled",
				"entry_id", entry.ID, "error", schedErr)
		}
		r.logger.InfoContext(ctx, "outbox entry rescheduled",
			"entry_id", entry.ID,
			"command_type", entry.Command.Type,
			"attempts", attempts,
			"next_attempt_at", next,
		)
	default:
		r.park(ctx, entry, err)
	}
}

func (r *Relay) park(ctx context.Context, entry *Entry, cause error) {
	if err := r.store.MarkFailed(ctx, entry.ID, errString(cause)); err != nil {
		r.logger.WarnContext(ctx, "outbox entry not marked failed",
			"entry_id", entry.ID, "error", err)
	}
	r.logger.ErrorContext(ctx, "outbox entry permanently failed",
		"entry_id", entry.ID,
		"command_type", entry.Command.Type,
		"candidate_id", entry.Command.CandidateID,
		"error", errString(cause),
	)
	if r.escalator != nil {
		r.escalator.EscalateDeliveryFailure(ctx, entry.Command, cause)
	}
}

func (r *Relay) backoff(attempts int) time.Duration {
	d := r.backoffBase
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= r.backoffCap {
			return r.backoffCap
		}
	}
	if d > r.backoffCap {
		return r.backoffCap
	}
	return d
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
