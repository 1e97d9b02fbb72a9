// Package dispatch executes engine commands against collaborators with
// at-most-once semantics. Every command's dedup key is claimed before the
// collaborator call; a replayed command finds the claim and is suppressed.
package dispatch

import (
	"context"
	"log/slog"
	"time"

	"hirefunnel/internal/collaborators"
	"hirefunnel/internal/dispatch/dedup"
	"hirefunnel/internal/dispatch/metrics"
	"hirefunnel/internal/funnel/models"
	dErrors "hirefunnel/pkg/domain-errors"
	"hirefunnel/pkg/requestcontext"
)

// EventSink receives the follow-up events some commands produce, closing the
// loop back into the funnel. Implemented by the funnel service.
type EventSink interface {
	SubmitEvent(ctx context.Context, ev models.Event) error
}

// Dispatcher routes commands to collaborators by type.
type Dispatcher struct {
	claims       dedup.Store
	generation   collaborators.Generation
	notification collaborators.Notification
	calendar     collaborators.Calendar
	events       EventSink
	logger       *slog.Logger
	metrics      *metrics.Metrics

	// claimTTL bounds how long a claim blocks redelivery. Long enough to
	// cover the outbox retry horizon.
	claimTTL time.Duration
}

// Option configures the Dispatcher.
type Option func(*Dispatcher)

func WithClaimTTL(d time.Duration) Option {
	return func(dp *Dispatcher) { dp.claimTTL = d }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(dp *Dispatcher) { dp.metrics = m }
}

func WithEventSink(sink EventSink) Option {
	return func(dp *Dispatcher) { dp.events = sink }
}

func New(
	claims dedup.Store,
	generation collaborators.Generation,
	notification collaborators.Notification,
	calendar collaborators.Calendar,
	logger *slog.Logger,
	opts ...Option,
) *Dispatcher {
	d := &Dispatcher{
		claims:       claims,
		generation:   generation,
		notification: notification,
		calendar:     calendar,
		logger:       logger,
		claimTTL:     24 * time.Hour,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch delivers one command. The verdict tells the outbox relay what to
// do with the entry; the error carries detail for logging and escalation.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd models.Command) (models.DispatchResult, error) {
	key := cmd.DedupKey()

	acquired, err := d.claims.Acquire(ctx, key, d.claimTTL)
	if err != nil {
		// Claim-store outage: nothing was sent, safe to retry.
		d.metrics.IncrementResult(string(cmd.Type), string(models.DispatchRetryLater))
		return models.DispatchRetryLater, dErrors.Wrap(err, dErrors.CodeTransient, "claim dedup key")
	}
	if !acquired {
		d.metrics.IncrementDuplicate()
		d.logger.InfoContext(ctx, "duplicate command suppressed",
			"command_type", cmd.Type,
			"dedup_key", key,
		)
		return models.DispatchDelivered, nil
	}

	start := time.Now()
	execErr := d.execute(ctx, cmd)
	d.metrics.ObserveCollaboratorLatency(string(cmd.Type), time.Since(start))

	if execErr == nil {
		d.metrics.IncrementResult(string(cmd.Type), string(models.DispatchDelivered))
		return models.DispatchDelivered, nil
	}

	if dErrors.HasCode(execErr, dErrors.CodePermanent) {
		d.metrics.IncrementResult(string(cmd.Type), string(models.DispatchPermanentlyFailed))
		return models.DispatchPermanentlyFailed, execErr
	}

	// Transient or unclassified: free the claim so the retry is not
	// suppressed as a duplicate.
	if relErr := d.claims.Release(ctx, key); relErr != nil {
		d.logger.WarnContext(ctx, "dedup claim not released",
			"dedup_key", key, "error", relErr)
	}
	d.metrics.IncrementResult(string(cmd.Type), string(models.DispatchRetryLater))
	return models.DispatchRetryLater, execErr
}

func (d *Dispatcher) execute(ctx context.Context, cmd models.Command) error {
	switch cmd.Type {
	case models.CommandSendEmail:
		return d.sendEmail(ctx, cmd)
	case models.CommandProposeSlots:
		return d.proposeSlots(ctx, cmd)
	case models.CommandNotifyHR:
		return d.notification.NotifyHR(ctx, cmd.DedupKey(),
			"candidate "+cmd.CandidateID.String()+" needs attention", cmd.Note)
	case models.CommandRecordDecision:
		// The decision already lives on the committed record; this export is
		// the HR-facing notification of it.
		return d.notification.NotifyHR(ctx, cmd.DedupKey(),
			"decision recorded for candidate "+cmd.CandidateID.String(),
			"decision="+string(cmd.Decision)+" "+cmd.Note)
	default:
		return dErrors.Newf(dErrors.CodePermanent, "unknown command type %q", cmd.Type)
	}
}

func (d *Dispatcher) sendEmail(ctx context.Context, cmd models.Command) error {
	msg, err := d.generation.Render(ctx, cmd.TemplateKind, cmd.CandidateID, cmd.JobID)
	if err != nil {
		return err
	}
	return d.notification.SendEmail(ctx, cmd.DedupKey(), cmd.Recipient, msg)
}

// proposeSlots asks the calendar for windows and feeds the result back into
// the funnel as a slots_proposed event carrying the command's event ID, so
// repeated reschedules stay distinguishable from redeliveries.
func (d *Dispatcher) proposeSlots(ctx context.Context, cmd models.Command) error {
	slots, err := d.calendar.ProposeSlots(ctx, cmd.CandidateID, cmd.JobID)
	if err != nil {
		return err
	}
	if d.events == nil {
		d.logger.WarnContext(ctx, "slots proposed with no event sink wired",
			"candidate_id", cmd.CandidateID)
		return nil
	}
	return d.events.SubmitEvent(ctx, models.Event{
		Type:        models.EventSlotsProposed,
		CandidateID: cmd.CandidateID,
		ID:          cmd.EventID,
		OccurredAt:  requestcontext.Now(ctx),
		Slots:       slots,
	})
}
