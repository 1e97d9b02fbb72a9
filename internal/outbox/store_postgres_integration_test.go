//go:build integration

package outbox_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"hirefunnel/internal/funnel/models"
	"hirefunnel/internal/outbox"
	id "hirefunnel/pkg/domain"
	platformtx "hirefunnel/pkg/platform/tx"
	"hirefunnel/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	ctx   context.Context
	pg    *containers.PostgresContainer
	store *outbox.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.store = outbox.NewPostgres(s.pg.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(s.ctx, "outbox"))
}

func (s *PostgresStoreSuite) entry(readyAt time.Time) *outbox.Entry {
	return outbox.NewEntry(models.Command{
		Type:        models.CommandSendEmail,
		CandidateID: id.NewCandidateID(),
		JobID:       id.NewJobID(),
		Stage:       models.StageShortlisted,
		Recipient:   "ada@example.com",
	}, readyAt)
}

func (s *PostgresStoreSuite) TestAppendAndDue() {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	ready := s.entry(now.Add(-time.Minute))
	boundary := s.entry(now)
	future := s.entry(now.Add(time.Minute))
	s.Require().NoError(s.store.Append(s.ctx, []*outbox.Entry{ready, boundary, future}))

	due, err := s.store.Due(s.ctx, now, 10)
	s.Require().NoError(err)
	s.Require().Len(due, 2)
	s.Equal(ready.ID, due[0].ID)
	s.Equal(boundary.ID, due[1].ID)

	s.Run("command payload survives the round trip", func() {
		s.Equal(ready.Command.Recipient, due[0].Command.Recipient)
		s.Equal(ready.Command.CandidateID, due[0].Command.CandidateID)
		s.Equal(ready.DedupKey, due[0].DedupKey)
	})

	s.Run("limit bounds the batch", func() {
		due, err := s.store.Due(s.ctx, now, 1)
		s.Require().NoError(err)
		s.Require().Len(due, 1)
		s.Equal(ready.ID, due[0].ID)
	})
}

func (s *PostgresStoreSuite) TestDeliveryLifecycle() {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	e := s.entry(now)
	s.Require().NoError(s.store.Append(s.ctx, []*outbox.Entry{e}))

	s.Run("reschedule keeps the entry pending with attempt state", func() {
		s.Require().NoError(s.store.Reschedule(s.ctx, e.ID, 1, now.Add(2*time.Second), "smtp timeout"))

		due, err := s.store.Due(s.ctx, now.Add(2*time.Second), 10)
		s.Require().NoError(err)
		s.Require().Len(due, 1)
		s.Equal(1, due[0].Attempts)
		s.Equal("smtp timeout", due[0].LastError)

		due, err = s.store.Due(s.ctx, now, 10)
		s.Require().NoError(err)
		s.Empty(due)
	})

	s.Run("delivered entries leave the due set", func() {
		s.Require().NoError(s.store.MarkDelivered(s.ctx, e.ID))
		due, err := s.store.Due(s.ctx, now.Add(time.Hour), 10)
		s.Require().NoError(err)
		s.Empty(due)
	})
}

func (s *PostgresStoreSuite) TestMarkFailedParksEntry() {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	e := s.entry(now)
	s.Require().NoError(s.store.Append(s.ctx, []*outbox.Entry{e}))

	s.Require().NoError(s.store.MarkFailed(s.ctx, e.ID, "unknown command type"))

	due, err := s.store.Due(s.ctx, now.Add(time.Hour), 10)
	s.Require().NoError(err)
	s.Empty(due)
}

// Append must share the caller's transaction so a rolled-back candidate
// commit never leaves an orphaned command.
func (s *PostgresStoreSuite) TestAppendJoinsAmbientTransaction() {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	tx, err := s.pg.DB.BeginTx(s.ctx, nil)
	s.Require().NoError(err)
	txCtx := platformtx.WithTx(s.ctx, tx)

	e := s.entry(now)
	s.Require().NoError(s.store.Append(txCtx, []*outbox.Entry{e}))
	s.Require().NoError(tx.Rollback())

	due, err := s.store.Due(s.ctx, now.Add(time.Hour), 10)
	s.Require().NoError(err)
	s.Empty(due)
}

func (s *PostgresStoreSuite) TestDuplicateDedupKeysAreAllowed() {
	// Escalation legitimately re-appends a command with the same dedup key;
	// the dispatcher's claim absorbs the second delivery.
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	first := s.entry(now)
	second := outbox.NewEntry(first.Command, now)
	s.NotEqual(first.ID, second.ID)
	s.Equal(first.DedupKey, second.DedupKey)

	s.Require().NoError(s.store.Append(s.ctx, []*outbox.Entry{first, second}))

	due, err := s.store.Due(s.ctx, now, 10)
	s.Require().NoError(err)
	s.Len(due, 2)
}
