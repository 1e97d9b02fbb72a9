package dispatch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"hirefunnel/internal/collaborators"
	"hirefunnel/internal/dispatch/dedup"
	"hirefunnel/internal/funnel/models"
	id "hirefunnel/pkg/domain"
	dErrors "hirefunnel/pkg/domain-errors"
	"hirefunnel/pkg/requestcontext"
)

func requestTimeCtx(t time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), t)
}

type fakeGeneration struct {
	err     error
	renders int
}

func (f *fakeGeneration) Render(_ context.Context, kind models.TemplateKind, _ id.CandidateID, _ id.JobID) (collaborators.RenderedMessage, error) {
	f.renders++
	if f.err != nil {
		return collaborators.RenderedMessage{}, f.err
	}
	return collaborators.RenderedMessage{Subject: "re: " + string(kind), Body: "hello"}, nil
}

type fakeNotification struct {
	emailErr error
	emails   []string
	hrNotes  []string
}

func (f *fakeNotification) SendEmail(_ context.Context, messageID, recipient string, _ collaborators.RenderedMessage) error {
	if f.emailErr != nil {
		return f.emailErr
	}
	f.emails = append(f.emails, messageID+"->"+recipient)
	return nil
}

func (f *fakeNotification) NotifyHR(_ context.Context, _, _, note string) error {
	f.hrNotes = append(f.hrNotes, note)
	return nil
}

type fakeCalendar struct {
	err   error
	calls int
}

func (f *fakeCalendar) ProposeSlots(_ context.Context, _ id.CandidateID, _ id.JobID) ([]models.InterviewSlot, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []models.InterviewSlot{{Status: models.SlotProposed}}, nil
}

type fakeSink struct {
	events []models.Event
	err    error
}

func (f *fakeSink) SubmitEvent(_ context.Context, ev models.Event) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

type DispatcherSuite struct {
	suite.Suite
	claims       *dedup.MemoryStore
	generation   *fakeGeneration
	notification *fakeNotification
	calendar     *fakeCalendar
	sink         *fakeSink
	dispatcher   *Dispatcher
	ctx          context.Context
}

func TestDispatcherSuite(t *testing.T) {
	suite.Run(t, new(DispatcherSuite))
}

func (s *DispatcherSuite) SetupTest() {
	s.claims = dedup.NewMemory()
	s.generation = &fakeGeneration{}
	s.notification = &fakeNotification{}
	s.calendar = &fakeCalendar{}
	s.sink = &fakeSink{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.dispatcher = New(s.claims, s.generation, s.notification, s.calendar, logger,
		WithEventSink(s.sink))
	s.ctx = context.Background()
}

func (s *DispatcherSuite) emailCommand() models.Command {
	return models.Command{
		Type:         models.CommandSendEmail,
		CandidateID:  id.NewCandidateID(),
		JobID:        id.NewJobID(),
		Stage:        models.StageShortlisted,
		TemplateKind: models.TemplateInitialContact,
		Recipient:    "ada@example.com",
	}
}

func (s *DispatcherSuite) TestSendEmail() {
	result, err := s.dispatcher.Dispatch(s.ctx, s.emailCommand())
	s.Require().NoError(err)
	s.Equal(models.DispatchDelivered, result)
	s.Equal(1, s.generation.renders)
	s.Len(s.notification.emails, 1)
}

func (s *DispatcherSuite) TestEmailRedeliveryIsSuppressed() {
	cmd := s.emailCommand()
	_, err := s.dispatcher.Dispatch(s.ctx, cmd)
	s.Require().NoError(err)

	result, err := s.dispatcher.Dispatch(s.ctx, cmd)
	s.Require().NoError(err)
	s.Equal(models.DispatchDelivered, result)
	// The collaborator was called exactly once across both deliveries.
	s.Len(s.notification.emails, 1)
}

func (s *DispatcherSuite) TestTransientFailureReleasesClaim() {
	s.notification.emailErr = dErrors.New(dErrors.CodeTransient, "smtp unavailable")
	cmd := s.emailCommand()

	result, err := s.dispatcher.Dispatch(s.ctx, cmd)
	s.Require().Error(err)
	s.Equal(models.DispatchRetryLater, result)

	// The retry must not be suppressed as a duplicate.
	s.notification.emailErr = nil
	result, err = s.dispatcher.Dispatch(s.ctx, cmd)
	s.Require().NoError(err)
	s.Equal(models.DispatchDelivered, result)
	s.Len(s.notification.emails, 1)
}

func (s *DispatcherSuite) TestUnclassifiedErrorIsRetried() {
	s.notification.emailErr = errors.New("connection reset")

	result, err := s.dispatcher.Dispatch(s.ctx, s.emailCommand())
	s.Require().Error(err)
	s.Equal(models.DispatchRetryLater, result)
}

func (s *DispatcherSuite) TestPermanentFailureKeepsClaim() {
	s.generation.err = dErrors.New(dErrors.CodePermanent, "unknown template")
	cmd := s.emailCommand()

	result, err := s.dispatcher.Dispatch(s.ctx, cmd)
	s.Require().Error(err)
	s.Equal(models.DispatchPermanentlyFailed, result)

	// A later redelivery is absorbed rather than re-executed.
	s.generation.err = nil
	result, err = s.dispatcher.Dispatch(s.ctx, cmd)
	s.Require().NoError(err)
	s.Equal(models.DispatchDelivered, result)
	s.Equal(1, s.generation.renders)
}

func (s *DispatcherSuite) TestProposeSlots() {
	cmd := models.Command{
		Type:        models.CommandProposeSlots,
		CandidateID: id.NewCandidateID(),
		JobID:       id.NewJobID(),
		Stage:       models.StageOutreachSent,
		EventID:     "msg-42",
	}

	result, err := s.dispatcher.Dispatch(s.ctx, cmd)
	s.Require().NoError(err)
	s.Equal(models.DispatchDelivered, result)

	s.Require().Len(s.sink.events, 1)
	ev := s.sink.events[0]
	s.Equal(models.EventSlotsProposed, ev.Type)
	s.Equal(cmd.CandidateID, ev.CandidateID)
	// The loopback event carries the command's delivery identity so a second
	// reschedule stays distinguishable from a redelivery.
	s.Equal("msg-42", ev.ID)
	s.NotEmpty(ev.Slots)
}

func (s *DispatcherSuite) TestNotifyHR() {
	cmd := models.Command{
		Type:        models.CommandNotifyHR,
		CandidateID: id.NewCandidateID(),
		Stage:       models.StageResponded,
		Note:        "reply requires human review: ambiguous",
	}

	result, err := s.dispatcher.Dispatch(s.ctx, cmd)
	s.Require().NoError(err)
	s.Equal(models.DispatchDelivered, result)
	s.Require().Len(s.notification.hrNotes, 1)
	s.Contains(s.notification.hrNotes[0], "human review")
}

func (s *DispatcherSuite) TestRecordDecision() {
	cmd := models.Command{
		Type:        models.CommandRecordDecision,
		CandidateID: id.NewCandidateID(),
		Stage:       models.StageInterviewCompleted,
		Decision:    models.DecisionAdvanced,
	}

	result, err := s.dispatcher.Dispatch(s.ctx, cmd)
	s.Require().NoError(err)
	s.Equal(models.DispatchDelivered, result)
	s.Require().Len(s.notification.hrNotes, 1)
	s.Contains(s.notification.hrNotes[0], "decision=advanced")
}

func (s *DispatcherSuite) TestUnknownCommandIsPermanent() {
	cmd := models.Command{Type: "teleport_candidate", CandidateID: id.NewCandidateID()}

	result, err := s.dispatcher.Dispatch(s.ctx, cmd)
	s.Require().Error(err)
	s.Equal(models.DispatchPermanentlyFailed, result)
	s.True(dErrors.HasCode(err, dErrors.CodePermanent))
}

func (s *DispatcherSuite) TestClaimExpiryAllowsRedispatch() {
	dispatcher := New(s.claims, s.generation, s.notification, s.calendar,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		WithClaimTTL(time.Minute))
	cmd := s.emailCommand()

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	ctx := requestTimeCtx(now)
	_, err := dispatcher.Dispatch(ctx, cmd)
	s.Require().NoError(err)
	s.Len(s.notification.emails, 1)

	// Within the TTL the redelivery is suppressed; after it the claim is gone.
	_, err = dispatcher.Dispatch(requestTimeCtx(now.Add(30*time.Second)), cmd)
	s.Require().NoError(err)
	s.Len(s.notification.emails, 1)

	_, err = dispatcher.Dispatch(requestTimeCtx(now.Add(2*time.Minute)), cmd)
	s.Require().NoError(err)
	s.Len(s.notification.emails, 2)
}
