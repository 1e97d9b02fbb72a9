package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"hirefunnel/internal/collaborators/dev"
	"hirefunnel/internal/funnel/engine"
	"hirefunnel/internal/funnel/models"
	"hirefunnel/internal/funnel/store"
	jobmodels "hirefunnel/internal/job/models"
	jobstore "hirefunnel/internal/job/store"
	"hirefunnel/internal/outbox"
	id "hirefunnel/pkg/domain"
	dErrors "hirefunnel/pkg/domain-errors"
	"hirefunnel/pkg/platform/sentinel"
	"hirefunnel/pkg/requestcontext"
)

// conflictingStore injects version conflicts on the first N updates to
// exercise the commit-retry loop.
type conflictingStore struct {
	store.CandidateStore
	conflicts int
	updates   int
}

func (c *conflictingStore) Update(ctx context.Context, rec *models.CandidateRecord, expectedVersion int64) error {
	c.updates++
	if c.conflicts > 0 {
		c.conflicts--
		return sentinel.ErrConflict
	}
	return c.CandidateStore.Update(ctx, rec, expectedVersion)
}

type ServiceSuite struct {
	suite.Suite
	candidates *store.MemoryStore
	criteria   *jobstore.MemoryStore
	outbox     *outbox.MemoryStore
	svc        *Service
	ctx        context.Context
	jobID      id.JobID
	now        time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.candidates = store.NewMemory()
	s.criteria = jobstore.NewMemory()
	s.outbox = outbox.NewMemory()
	s.now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)

	s.jobID = id.NewJobID()
	s.Require().NoError(s.criteria.Create(context.Background(), &jobmodels.JobCriteria{
		JobID:         s.jobID,
		Title:         "Backend Engineer",
		ShortlistSize: 1,
		Mandatory: []jobmodels.MandatoryCriterion{
			{Name: "exp", Kind: jobmodels.KindMinExperienceYears, MinYears: 3},
		},
		Preferred: []jobmodels.PreferredCriterion{
			{Name: "exp", Kind: jobmodels.KindMinExperienceYears, Weight: 1, TargetYears: 10},
		},
		ScoreThreshold: 0.3,
		CreatedAt:      s.now,
	}))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.svc = New(s.candidates, s.criteria, s.outbox,
		WithLogger(logger),
		WithExtraction(dev.NewExtraction()),
	)
}

func (s *ServiceSuite) createCandidate() *models.CandidateRecord {
	rec, err := s.svc.CreateCandidate(s.ctx, CreateCandidateParams{
		JobID: s.jobID,
		Name:  "Ada Example",
		Email: "ada@example.com",
	})
	s.Require().NoError(err)
	return rec
}

func (s *ServiceSuite) pendingOutbox() []*outbox.Entry {
	due, err := s.outbox.Due(context.Background(), s.now.Add(time.Hour), 100)
	s.Require().NoError(err)
	return due
}

func (s *ServiceSuite) TestCreateCandidate() {
	s.Run("creates at sourced with pending eligibility", func() {
		rec := s.createCandidate()
		s.Equal(models.StageSourced, rec.Stage)
		s.Equal(models.VerdictPending, rec.Eligibility.Verdict)
		s.Equal(int64(1), rec.Version)
		s.Equal(s.now, rec.SubmittedAt)
	})

	s.Run("rejects unknown jobs", func() {
		_, err := s.svc.CreateCandidate(s.ctx, CreateCandidateParams{
			JobID: id.NewJobID(),
			Name:  "Ada",
			Email: "ada@example.com",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("rejects missing fields", func() {
		_, err := s.svc.CreateCandidate(s.ctx, CreateCandidateParams{JobID: s.jobID, Email: "a@b.c"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		_, err = s.svc.CreateCandidate(s.ctx, CreateCandidateParams{JobID: s.jobID, Name: "Ada"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("raw profile is extracted and applied immediately", func() {
		rec, err := s.svc.CreateCandidate(s.ctx, CreateCandidateParams{
			JobID:      s.jobID,
			Name:       "Grace Example",
			Email:      "grace@example.com",
			RawProfile: `{"skills":["Go"],"experience_years":7}`,
		})
		s.Require().NoError(err)
		s.Equal(models.StageScreened, rec.Stage)
		s.Require().NotNil(rec.Profile)
		s.Equal(7.0, rec.Profile.ExperienceYears)
	})

	s.Run("failed extraction leaves the record at sourced", func() {
		rec, err := s.svc.CreateCandidate(s.ctx, CreateCandidateParams{
			JobID:      s.jobID,
			Name:       "Mal Formed",
			Email:      "mal@example.com",
			RawProfile: "not json at all",
		})
		s.Require().NoError(err)
		s.Equal(models.StageSourced, rec.Stage)
	})
}

func (s *ServiceSuite) TestHandleEvent() {
	s.Run("commits the transition and queues derived commands", func() {
		rec := s.createCandidate()
		result, err := s.svc.HandleEvent(s.ctx, models.Event{
			Type:        models.EventExtractionCompleted,
			CandidateID: rec.ID,
			OccurredAt:  s.now,
			Profile:     &models.StructuredProfile{ExperienceYears: 1},
		})
		s.Require().NoError(err)
		s.True(result.Applied)
		s.Equal(models.StageScreened, result.Record.Stage)
		s.Equal(int64(2), result.Record.Version)

		// Assessment fails the mandatory criterion and queues the rejection.
		result, err = s.svc.HandleEvent(s.ctx, models.Event{
			Type:        models.EventAssessmentRequested,
			CandidateID: rec.ID,
			OccurredAt:  s.now,
		})
		s.Require().NoError(err)
		s.Equal(models.StageRejected, result.Record.Stage)
		s.Require().Len(result.Commands, 1)

		entries := s.pendingOutbox()
		s.Require().Len(entries, 1)
		s.Equal(models.CommandSendEmail, entries[0].Command.Type)
		s.Equal(result.Commands[0].DedupKey(), entries[0].DedupKey)
	})

	s.Run("redelivered event reports not applied and queues nothing", func() {
		rec := s.createCandidate()
		s.advanceWithExperience(rec, 6)

		// shortlist_evaluated(held) keeps the record at ranked, so its dedup
		// key matches on redelivery.
		ev := models.Event{
			Type:             models.EventShortlistEvaluated,
			CandidateID:      rec.ID,
			OccurredAt:       s.now,
			ShortlistOutcome: models.ShortlistHeld,
		}
		result, err := s.svc.HandleEvent(s.ctx, ev)
		s.Require().NoError(err)
		s.True(result.Applied)
		before := len(s.pendingOutbox())

		result, err = s.svc.HandleEvent(s.ctx, ev)
		s.Require().NoError(err)
		s.False(result.Applied)
		s.Empty(result.Commands)
		s.Len(s.pendingOutbox(), before)
	})

	s.Run("unknown candidate is not found", func() {
		_, err := s.svc.HandleEvent(s.ctx, models.Event{
			Type:        models.EventAssessmentRequested,
			CandidateID: id.NewCandidateID(),
			OccurredAt:  s.now,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("stale event does not mutate the record", func() {
		rec := s.createCandidate()
		_, err := s.svc.HandleEvent(s.ctx, models.Event{
			Type:        models.EventDecisionRecorded,
			CandidateID: rec.ID,
			OccurredAt:  s.now,
			Decision:    models.DecisionAdvanced,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeStaleEvent))

		stored, err := s.svc.GetCandidate(s.ctx, rec.ID)
		s.Require().NoError(err)
		s.Equal(models.StageSourced, stored.Stage)
		s.Equal(int64(1), stored.Version)
	})
}

func (s *ServiceSuite) TestCommitRaceIsReplayed() {
	rec := s.createCandidate()

	wrapped := &conflictingStore{CandidateStore: s.candidates, conflicts: 2}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := New(wrapped, s.criteria, s.outbox, WithLogger(logger))

	result, err := svc.HandleEvent(s.ctx, models.Event{
		Type:        models.EventExtractionCompleted,
		CandidateID: rec.ID,
		OccurredAt:  s.now,
		Profile:     &models.StructuredProfile{ExperienceYears: 6},
	})
	s.Require().NoError(err)
	s.True(result.Applied)
	s.Equal(3, wrapped.updates)
	s.Equal(models.StageScreened, result.Record.Stage)
}

func (s *ServiceSuite) TestCommitRaceBudgetExhausted() {
	rec := s.createCandidate()

	wrapped := &conflictingStore{CandidateStore: s.candidates, conflicts: maxCommitAttempts}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := New(wrapped, s.criteria, s.outbox, WithLogger(logger))

	_, err := svc.HandleEvent(s.ctx, models.Event{
		Type:        models.EventExtractionCompleted,
		CandidateID: rec.ID,
		OccurredAt:  s.now,
		Profile:     &models.StructuredProfile{ExperienceYears: 6},
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ServiceSuite) TestEvaluateShortlist() {
	// Three ranked candidates scoring 0.6, 0.4 and 0.45; capacity 1,
	// threshold 0.3, so one slot and two holds.
	high := s.createCandidate()
	s.advanceWithExperience(high, 6)
	mid, err := s.svc.CreateCandidate(s.ctx, CreateCandidateParams{JobID: s.jobID, Name: "Mid", Email: "mid@example.com"})
	s.Require().NoError(err)
	s.advanceWithExperience(mid, 4)
	low, err := s.svc.CreateCandidate(s.ctx, CreateCandidateParams{JobID: s.jobID, Name: "Low", Email: "low@example.com"})
	s.Require().NoError(err)
	s.advanceWithExperience(low, 4.5)

	decisions, err := s.svc.EvaluateShortlist(s.ctx, s.jobID)
	s.Require().NoError(err)
	s.Require().Len(decisions, 3)

	outcomes := map[id.CandidateID]models.ShortlistOutcome{}
	for _, d := range decisions {
		outcomes[d.CandidateID] = d.Outcome
	}
	s.Equal(models.ShortlistIncluded, outcomes[high.ID])
	s.Equal(models.ShortlistHeld, outcomes[mid.ID])
	s.Equal(models.ShortlistHeld, outcomes[low.ID])

	includedRec, err := s.svc.GetCandidate(s.ctx, high.ID)
	s.Require().NoError(err)
	s.Equal(models.StageShortlisted, includedRec.Stage)

	heldRec, err := s.svc.GetCandidate(s.ctx, mid.ID)
	s.Require().NoError(err)
	s.Equal(models.StageRanked, heldRec.Stage)
	s.Equal(engine.HoldReasonOverCapacity, heldRec.HoldReason)

	// A second evaluation sees an empty cohort: the held records are frozen
	// until a hold_released event re-admits them.
	decisions, err = s.svc.EvaluateShortlist(s.ctx, s.jobID)
	s.Require().NoError(err)
	s.Empty(decisions)
}

func (s *ServiceSuite) TestShortlistRejoinAfterHoldRelease() {
	// Capacity 1: the stronger candidate takes the slot, the other is held.
	winner := s.createCandidate()
	s.advanceWithExperience(winner, 6)
	held, err := s.svc.CreateCandidate(s.ctx, CreateCandidateParams{JobID: s.jobID, Name: "Held", Email: "held@example.com"})
	s.Require().NoError(err)
	s.advanceWithExperience(held, 4)

	_, err = s.svc.EvaluateShortlist(s.ctx, s.jobID)
	s.Require().NoError(err)

	// The slot frees up and the hold is lifted.
	for _, ev := range []models.Event{
		{Type: models.EventCandidateWithdrew, CandidateID: winner.ID, OccurredAt: s.now},
		{Type: models.EventHoldReleased, CandidateID: held.ID, OccurredAt: s.now},
	} {
		_, err := s.svc.HandleEvent(s.ctx, ev)
		s.Require().NoError(err)
	}

	// The released candidate must rejoin the next round, not be absorbed as
	// a redelivery of the first round's outcome.
	decisions, err := s.svc.EvaluateShortlist(s.ctx, s.jobID)
	s.Require().NoError(err)
	s.Require().Len(decisions, 1)
	s.Equal(held.ID, decisions[0].CandidateID)
	s.Equal(models.ShortlistIncluded, decisions[0].Outcome)

	rejoined, err := s.svc.GetCandidate(s.ctx, held.ID)
	s.Require().NoError(err)
	s.Equal(models.StageShortlisted, rejoined.Stage)
	s.False(rejoined.Held())
}

func (s *ServiceSuite) advanceWithExperience(rec *models.CandidateRecord, years float64) {
	for _, ev := range []models.Event{
		{Type: models.EventExtractionCompleted, Profile: &models.StructuredProfile{ExperienceYears: years}},
		{Type: models.EventAssessmentRequested},
		{Type: models.EventRankingRequested},
	} {
		ev.CandidateID = rec.ID
		ev.OccurredAt = s.now
		_, err := s.svc.HandleEvent(s.ctx, ev)
		s.Require().NoError(err)
	}
}

func (s *ServiceSuite) TestEscalateDeliveryFailure() {
	rec := s.createCandidate()

	cmd := models.Command{
		Type:        models.CommandSendEmail,
		CandidateID: rec.ID,
		JobID:       s.jobID,
		Stage:       models.StageSourced,
	}
	s.svc.EscalateDeliveryFailure(s.ctx, cmd, dErrors.New(dErrors.CodeTransient, "smtp down"))

	held, err := s.svc.GetCandidate(s.ctx, rec.ID)
	s.Require().NoError(err)
	s.Equal(holdReasonDeliveryFailure, held.HoldReason)
	s.True(held.Held())

	entries := s.pendingOutbox()
	s.Require().Len(entries, 1)
	s.Equal(models.CommandNotifyHR, entries[0].Command.Type)
	s.Contains(entries[0].Command.Note, "permanently failed")

	// Escalating again neither re-holds nor is blocked; the notification for
	// the same command shares its dedup key for the dispatcher to absorb.
	s.svc.EscalateDeliveryFailure(s.ctx, cmd, nil)
	entries = s.pendingOutbox()
	s.Require().Len(entries, 2)
	s.Equal(entries[0].DedupKey, entries[1].DedupKey)
}
