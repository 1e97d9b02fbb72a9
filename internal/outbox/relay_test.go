package outbox

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"hirefunnel/internal/funnel/models"
	id "hirefunnel/pkg/domain"
	"hirefunnel/pkg/requestcontext"
)

type fakeDispatcher struct {
	results []models.DispatchResult
	errs    []error
	calls   []models.Command
}

func (d *fakeDispatcher) Dispatch(_ context.Context, cmd models.Command) (models.DispatchResult, error) {
	i := len(d.calls)
	d.calls = append(d.calls, cmd)
	if i >= len(d.results) {
		i = len(d.results) - 1
	}
	var err error
	if i < len(d.errs) {
		err = d.errs[i]
	}
	return d.results[i], err
}

type fakeEscalator struct {
	commands []models.Command
	causes   []error
}

func (e *fakeEscalator) EscalateDeliveryFailure(_ context.Context, cmd models.Command, cause error) {
	e.commands = append(e.commands, cmd)
	e.causes = append(e.causes, cause)
}

type RelaySuite struct {
	suite.Suite
	store *MemoryStore
	now   time.Time
}

func TestRelaySuite(t *testing.T) {
	suite.Run(t, new(RelaySuite))
}

func (s *RelaySuite) SetupTest() {
	s.store = NewMemory()
	s.now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
}

func (s *RelaySuite) ctxAt(t time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), t)
}

func (s *RelaySuite) appendEntry() *Entry {
	e := NewEntry(models.Command{
		Type:        models.CommandSendEmail,
		CandidateID: id.NewCandidateID(),
		Stage:       models.StageShortlisted,
	}, s.now)
	s.Require().NoError(s.store.Append(context.Background(), []*Entry{e}))
	return e
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *RelaySuite) TestDeliveredEntryIsMarked() {
	dispatcher := &fakeDispatcher{results: []models.DispatchResult{models.DispatchDelivered}}
	relay := NewRelay(s.store, dispatcher, discard())
	e := s.appendEntry()

	s.Require().NoError(relay.Tick(s.ctxAt(s.now)))

	s.Len(dispatcher.calls, 1)
	stored, ok := s.store.Find(e.ID)
	s.Require().True(ok)
	s.Equal(StatusDelivered, stored.Status)
}

func (s *RelaySuite) TestTransientFailureBacksOffExponentially() {
	dispatcher := &fakeDispatcher{
		results: []models.DispatchResult{models.DispatchRetryLater},
		errs:    []error{errors.New("smtp unavailable")},
	}
	relay := NewRelay(s.store, dispatcher, discard(),
		WithMaxAttempts(5), WithBackoff(2*time.Second, time.Minute))
	e := s.appendEntry()

	s.Require().NoError(relay.Tick(s.ctxAt(s.now)))
	stored, _ := s.store.Find(e.ID)
	s.Equal(1, stored.Attempts)
	s.Equal(s.now.Add(2*time.Second), stored.NextAttemptAt)
	s.Equal("smtp unavailable", stored.LastError)

	// Not due again until the backoff elapses.
	s.Require().NoError(relay.Tick(s.ctxAt(s.now.Add(time.Second))))
	s.Len(dispatcher.calls, 1)

	// Second failure doubles the delay.
	s.Require().NoError(relay.Tick(s.ctxAt(s.now.Add(2 * time.Second))))
	stored, _ = s.store.Find(e.ID)
	s.Equal(2, stored.Attempts)
	s.Equal(s.now.Add(2*time.Second).Add(4*time.Second), stored.NextAttemptAt)
}

func (s *RelaySuite) TestBackoffIsCapped() {
	relay := NewRelay(s.store, &fakeDispatcher{}, discard(),
		WithBackoff(2*time.Second, 10*time.Second))
	s.Equal(2*time.Second, relay.backoff(1))
	s.Equal(4*time.Second, relay.backoff(2))
	s.Equal(8*time.Second, relay.backoff(3))
	s.Equal(10*time.Second, relay.backoff(4))
	s.Equal(10*time.Second, relay.backoff(20))
}

func (s *RelaySuite) TestExhaustedRetriesParkAndEscalate() {
	dispatcher := &fakeDispatcher{
		results: []models.DispatchResult{models.DispatchRetryLater},
		errs:    []error{errors.New("still down")},
	}
	escalator := &fakeEscalator{}
	relay := NewRelay(s.store, dispatcher, discard(),
		WithMaxAttempts(2), WithBackoff(time.Second, time.Minute), WithEscalator(escalator))
	e := s.appendEntry()

	s.Require().NoError(relay.Tick(s.ctxAt(s.now)))
	stored, _ := s.store.Find(e.ID)
	s.Equal(StatusPending, stored.Status)
	s.Empty(escalator.commands)

	s.Require().NoError(relay.Tick(s.ctxAt(s.now.Add(time.Minute))))
	stored, _ = s.store.Find(e.ID)
	s.Equal(StatusFailed, stored.Status)
	s.Require().Len(escalator.commands, 1)
	s.Equal(e.Command.CandidateID, escalator.commands[0].CandidateID)
}

func (s *RelaySuite) TestPermanentFailureParksImmediately() {
	dispatcher := &fakeDispatcher{
		results: []models.DispatchResult{models.DispatchPermanentlyFailed},
		errs:    []error{errors.New("unknown template")},
	}
	escalator := &fakeEscalator{}
	relay := NewRelay(s.store, dispatcher, discard(), WithEscalator(escalator))
	e := s.appendEntry()

	s.Require().NoError(relay.Tick(s.ctxAt(s.now)))

	stored, _ := s.store.Find(e.ID)
	s.Equal(StatusFailed, stored.Status)
	s.Equal("unknown template", stored.LastError)
	s.Len(escalator.commands, 1)
}

func (s *RelaySuite) TestTickRespectsBatchSize() {
	dispatcher := &fakeDispatcher{results: []models.DispatchResult{models.DispatchDelivered}}
	relay := NewRelay(s.store, dispatcher, discard(), WithBatchSize(2))
	for i := 0; i < 3; i++ {
		s.appendEntry()
	}

	s.Require().NoError(relay.Tick(s.ctxAt(s.now)))
	s.Len(dispatcher.calls, 2)

	s.Require().NoError(relay.Tick(s.ctxAt(s.now)))
	s.Len(dispatcher.calls, 3)
}
