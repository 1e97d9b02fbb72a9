// Package service orchestrates funnel event handling: load record, run the
// transition engine, commit with optimistic concurrency, and hand derived
// commands to the outbox in the same transaction.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"hirefunnel/internal/collaborators"
	"hirefunnel/internal/funnel/engine"
	funnelmetrics "hirefunnel/internal/funnel/metrics"
	"hirefunnel/internal/funnel/models"
	"hirefunnel/internal/funnel/store"
	jobstore "hirefunnel/internal/job/store"
	"hirefunnel/internal/outbox"
	"hirefunnel/internal/scoring"
	id "hirefunnel/pkg/domain"
	dErrors "hirefunnel/pkg/domain-errors"
	"hirefunnel/pkg/platform/sentinel"
	"hirefunnel/pkg/requestcontext"
)

// maxCommitAttempts bounds replays after version conflicts. Contention on a
// single candidate is rare; exceeding this means something is livelocking.
const maxCommitAttempts = 5

// holdReasonDeliveryFailure freezes a record whose side effect could not be
// delivered after the full retry budget.
const holdReasonDeliveryFailure = "delivery_failure"

// TransitionPublisher announces committed transitions to downstream
// consumers. Publishing is best-effort: a failure is logged, never rolled
// back, because the outbox already guarantees the side effects.
type TransitionPublisher interface {
	PublishTransition(ctx context.Context, rec *models.CandidateRecord, ev models.Event) error
}

// Service coordinates stores, the transition engine and the outbox.
type Service struct {
	candidates store.CandidateStore
	criteria   jobstore.CriteriaStore
	outbox     outbox.Store
	tx         TxRunner

	extraction collaborators.Extraction
	publisher  TransitionPublisher
	logger     *slog.Logger
	metrics    *funnelmetrics.Metrics
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *funnelmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithTxRunner(tx TxRunner) Option {
	return func(s *Service) { s.tx = tx }
}

func WithExtraction(e collaborators.Extraction) Option {
	return func(s *Service) { s.extraction = e }
}

func WithTransitionPublisher(p TransitionPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// New constructs a Service.
func New(candidates store.CandidateStore, criteria jobstore.CriteriaStore, commandOutbox outbox.Store, opts ...Option) *Service {
	s := &Service{
		candidates: candidates,
		criteria:   criteria,
		outbox:     commandOutbox,
		tx:         noTx{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateCandidateParams is the input for candidate submission.
type CreateCandidateParams struct {
	JobID id.JobID
	Name  string
	Email string
	// RawProfile, when present, is handed to the extraction service and the
	// resulting profile applied immediately.
	RawProfile string
}

// CreateCandidate registers a new candidate at the sourced stage. When a raw
// profile is supplied and extraction succeeds, the record advances straight
// to screened.
func (s *Service) CreateCandidate(ctx context.Context, params CreateCandidateParams) (*models.CandidateRecord, error) {
	params.Name = strings.TrimSpace(params.Name)
	params.Email = strings.TrimSpace(params.Email)
	if params.Name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "candidate name is required")
	}
	if params.Email == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "candidate email is required")
	}
	if params.JobID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "job_id is required")
	}
	if _, err := s.criteria.FindByJob(ctx, params.JobID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "job not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load job criteria")
	}

	now := requestcontext.Now(ctx)
	rec := &models.CandidateRecord{
		ID:               id.NewCandidateID(),
		JobID:            params.JobID,
		Name:             params.Name,
		Email:            params.Email,
		Stage:            models.StageSourced,
		Eligibility:      models.Eligibility{Verdict: models.VerdictPending},
		SubmittedAt:      now,
		LastTransitionAt: now,
	}
	if err := s.candidates.Create(ctx, rec); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "candidate already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create candidate")
	}
	s.logger.InfoContext(ctx, "candidate created",
		"candidate_id", rec.ID, "job_id", rec.JobID)

	if params.RawProfile == "" || s.extraction == nil {
		return rec, nil
	}

	profile, err := s.extraction.Extract(ctx, params.RawProfile)
	if err != nil {
		// The record stays at sourced; extraction can be replayed later.
		s.logger.WarnContext(ctx, "profile extraction failed",
			"candidate_id", rec.ID, "error", err)
		return rec, nil
	}
	if _, err := s.HandleEvent(ctx, models.Event{
		Type:        models.EventExtractionCompleted,
		CandidateID: rec.ID,
		OccurredAt:  now,
		Profile:     profile,
	}); err != nil {
		return nil, err
	}
	return s.GetCandidate(ctx, rec.ID)
}

// GetCandidate returns one record by ID.
func (s *Service) GetCandidate(ctx context.Context, candidateID id.CandidateID) (*models.CandidateRecord, error) {
	rec, err := s.candidates.FindByID(ctx, candidateID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "candidate not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load candidate")
	}
	return rec, nil
}

// ListCandidatesByJob returns a job's records in submission order.
func (s *Service) ListCandidatesByJob(ctx context.Context, jobID id.JobID) ([]*models.CandidateRecord, error) {
	recs, err := s.candidates.ListByJob(ctx, jobID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list candidates")
	}
	return recs, nil
}

// HandleResult reports what one event application did.
type HandleResult struct {
	// Applied is false when the event was a redelivery absorbed by the
	// dedup log.
	Applied  bool
	Record   *models.CandidateRecord
	Commands []models.Command
}

// HandleEvent applies one event to its candidate record and returns the
// commands derived by the transition. A version conflict triggers a fresh
// read and replay of the same event; the per-record dedup log makes the
// replay safe.
func (s *Service) HandleEvent(ctx context.Context, ev models.Event) (*HandleResult, error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveHandleLatency(time.Since(start))
	}()

	for attempt := 0; attempt < maxCommitAttempts; attempt++ {
		rec, err := s.GetCandidate(ctx, ev.CandidateID)
		if err != nil {
			return nil, err
		}
		criteria, err := s.criteria.FindByJob(ctx, rec.JobID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load job criteria")
		}

		next, commands, err := engine.Transition(rec, ev, *criteria)
		if err != nil {
			if dErrors.HasCode(err, dErrors.CodeStaleEvent) {
				s.metrics.IncrementStale(string(ev.Type))
			}
			return nil, err
		}
		if next == rec {
			s.metrics.IncrementDuplicate()
			s.logger.InfoContext(ctx, "duplicate event absorbed",
				"candidate_id", ev.CandidateID,
				"event_type", ev.Type,
			)
			return &HandleResult{Applied: false, Record: rec}, nil
		}

		now := requestcontext.Now(ctx)
		entries := make([]*outbox.Entry, 0, len(commands))
		for _, cmd := range commands {
			entries = append(entries, outbox.NewEntry(cmd, now))
		}

		err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
			if err := s.candidates.Update(txCtx, next, rec.Version); err != nil {
				return err
			}
			if len(entries) > 0 {
				return s.outbox.Append(txCtx, entries)
			}
			return nil
		})
		if errors.Is(err, sentinel.ErrConflict) {
			s.metrics.IncrementConflictRetry()
			continue
		}
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to commit transition")
		}

		s.metrics.IncrementTransition(string(ev.Type), string(next.Stage))
		s.logger.InfoContext(ctx, "transition committed",
			"candidate_id", next.ID,
			"event_type", ev.Type,
			"from_stage", rec.Stage,
			"to_stage", next.Stage,
			"commands", len(commands),
		)
		s.publishTransition(ctx, next, ev)
		return &HandleResult{Applied: true, Record: next, Commands: commands}, nil
	}
	return nil, dErrors.Newf(dErrors.CodeConflict,
		"event %s for candidate %s lost %d commit races", ev.Type, ev.CandidateID, maxCommitAttempts)
}

// SubmitEvent adapts HandleEvent to the dispatch.EventSink interface for
// commands that feed follow-up events back into the funnel.
func (s *Service) SubmitEvent(ctx context.Context, ev models.Event) error {
	_, err := s.HandleEvent(ctx, ev)
	return err
}

// EvaluateShortlist runs the shortlist cut over the job's ranked cohort and
// applies the per-candidate outcomes. Records already pushed past ranked, or
// frozen by a hold, are outside the cohort.
func (s *Service) EvaluateShortlist(ctx context.Context, jobID id.JobID) ([]scoring.ShortlistDecision, error) {
	criteria, err := s.criteria.FindByJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "job not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load job criteria")
	}
	recs, err := s.ListCandidatesByJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	// recs arrive in submission order, which is the tie-break for equal
	// scores inside the cut.
	cohort := make([]*models.CandidateRecord, 0, len(recs))
	for _, rec := range recs {
		if rec.Stage == models.StageRanked && !rec.Held() {
			cohort = append(cohort, rec)
		}
	}
	decisions := scoring.Shortlist(cohort, *criteria)

	// Each evaluation round carries its own ID so a candidate held in one
	// round and released later is not deduplicated out of the next round.
	round := uuid.NewString()
	now := requestcontext.Now(ctx)
	for _, decision := range decisions {
		_, err := s.HandleEvent(ctx, models.Event{
			ID:               round,
			Type:             models.EventShortlistEvaluated,
			CandidateID:      decision.CandidateID,
			OccurredAt:       now,
			ShortlistOutcome: decision.Outcome,
		})
		if err != nil {
			return nil, err
		}
	}
	return decisions, nil
}

// EscalateDeliveryFailure freezes a candidate whose side effect exhausted its
// retry budget and queues an HR notification. Implements outbox.Escalator.
func (s *Service) EscalateDeliveryFailure(ctx context.Context, cmd models.Command, cause error) {
	s.logger.ErrorContext(ctx, "command delivery escalated",
		"candidate_id", cmd.CandidateID,
		"command_type", cmd.Type,
		"error", cause,
	)

	for attempt := 0; attempt < maxCommitAttempts; attempt++ {
		rec, err := s.candidates.FindByID(ctx, cmd.CandidateID)
		if err != nil {
			s.logger.WarnContext(ctx, "escalation target not loaded",
				"candidate_id", cmd.CandidateID, "error", err)
			return
		}
		if rec.Stage.Terminal() || rec.HoldReason == holdReasonDeliveryFailure {
			break
		}
		held := rec.Clone()
		held.HoldReason = holdReasonDeliveryFailure
		err = s.candidates.Update(ctx, held, rec.Version)
		if errors.Is(err, sentinel.ErrConflict) {
			continue
		}
		if err != nil {
			s.logger.WarnContext(ctx, "escalation hold not committed",
				"candidate_id", cmd.CandidateID, "error", err)
			return
		}
		break
	}

	reason := "unspecified failure"
	if cause != nil {
		reason = cause.Error()
	}
	now := requestcontext.Now(ctx)
	notify := models.Command{
		Type:        models.CommandNotifyHR,
		CandidateID: cmd.CandidateID,
		JobID:       cmd.JobID,
		Stage:       cmd.Stage,
		EventID:     "escalation/" + cmd.DedupKey(),
		Note:        "command " + string(cmd.Type) + " permanently failed: " + reason,
	}
	if err := s.outbox.Append(ctx, []*outbox.Entry{outbox.NewEntry(notify, now)}); err != nil {
		s.logger.ErrorContext(ctx, "escalation notification not queued",
			"candidate_id", cmd.CandidateID, "error", err)
	}
}

func (s *Service) publishTransition(ctx context.Context, rec *models.CandidateRecord, ev models.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTransition(ctx, rec, ev); err != nil {
		s.logger.WarnContext(ctx, "transition publish failed",
			"candidate_id", rec.ID, "event_type", ev.Type, "error", err)
	}
}
