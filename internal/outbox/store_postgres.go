package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	platformtx "hirefunnel/pkg/platform/tx"
)

// PostgresStore persists outbox entries in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := platformtx.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, entries []*Entry) error {
	for _, e := range entries {
		payload, err := json.Marshal(e.Command)
		if err != nil {
			return fmt.Errorf("marshal outbox command: %w", err)
		}
		_, err = s.execer(ctx).ExecContext(ctx, `
			INSERT INTO outbox (id, dedup_key, command, status, attempts, next_attempt_at, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			e.ID, e.DedupKey, payload, string(e.Status), e.Attempts, e.NextAttemptAt, e.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert outbox entry: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) Due(ctx context.Context, now time.Time, limit int) ([]*Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, dedup_key, command, status, attempts, next_attempt_at, created_at, last_error
		FROM outbox
		WHERE status = $1 AND next_attempt_at <= $2
		ORDER BY next_attempt_at
		LIMIT $3`,
		string(StatusPending), now, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query due outbox entries: %w", err)
	}
	defer rows.Close()

	var due []*Entry
	for rows.Next() {
		var (
			e       Entry
			status  string
			payload []byte
			lastErr sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.DedupKey, &payload, &status, &e.Attempts, &e.NextAttemptAt, &e.CreatedAt, &lastErr); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		if err := json.Unmarshal(payload, &e.Command); err != nil {
			return nil, fmt.Errorf("unmarshal outbox command: %w", err)
		}
		e.Status = Status(status)
		e.LastError = lastErr.String
		due = append(due, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox entries: %w", err)
	}
	return due, nil
}

func (s *PostgresStore) MarkDelivered(ctx context.Context, entryID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE outbox SET status = $2, last_error = NULL WHERE id = $1`,
		entryID, string(StatusDelivered),
	)
	if err != nil {
		return fmt.Errorf("mark outbox entry delivered: %w", err)
	}
	return nil
}

func (s *PostgresStore) Reschedule(ctx context.Context, entryID uuid.UUID, attempts int, nextAttemptAt time.Time, lastError string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE outbox SET attempts = $2, next_attempt_at = $3, last_error = $4
		WHERE id = $1`,
		entryID, attempts, nextAttemptAt, lastError,
	)
	if err != nil {
		return fmt.Errorf("reschedule outbox entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) MarkFailed(ctx context.Context, entryID uuid.UUID, lastError string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE outbox SET status = $2, last_error = $3 WHERE id = $1`,
		entryID, string(StatusFailed), lastError,
	)
	if err != nil {
		return fmt.Errorf("mark outbox entry failed: %w", err)
	}
	return nil
}
