package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"hirefunnel/internal/funnel/models"
	id "hirefunnel/pkg/domain"
	"hirefunnel/pkg/platform/sentinel"
	platformtx "hirefunnel/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresStore persists candidate records in PostgreSQL. The full record is
// stored as a JSONB document with version, stage and submission time broken
// out into columns for concurrency control and ordered listing.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// q returns the ambient transaction when the caller opened one, so candidate
// updates and outbox appends can share a commit.
func (s *PostgresStore) q(ctx context.Context) querier {
	if tx, ok := platformtx.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Create(ctx context.Context, rec *models.CandidateRecord) error {
	stored := rec.Clone()
	stored.Version = 1
	doc, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("marshal candidate record: %w", err)
	}

	_, err = s.q(ctx).ExecContext(ctx, `
		INSERT INTO candidates (id, job_id, stage, version, submitted_at, doc)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.UUID(stored.ID), uuid.UUID(stored.JobID), string(stored.Stage),
		stored.Version, stored.SubmittedAt, doc,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert candidate: %w", err)
	}
	rec.Version = stored.Version
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, candidateID id.CandidateID) (*models.CandidateRecord, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
		SELECT doc, version FROM candidates WHERE id = $1`,
		uuid.UUID(candidateID),
	)
	return scanCandidate(row)
}

func (s *PostgresStore) ListByJob(ctx context.Context, jobID id.JobID) ([]*models.CandidateRecord, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT doc, version FROM candidates
		WHERE job_id = $1
		ORDER BY submitted_at, seq`,
		uuid.UUID(jobID),
	)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	var out []*models.CandidateRecord
	for rows.Next() {
		var doc []byte
		var version int64
		if err := rows.Scan(&doc, &version); err != nil {
			return nil, fmt.Errorf("scan candidate row: %w", err)
		}
		rec, err := unmarshalCandidate(doc, version)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Update(ctx context.Context, rec *models.CandidateRecord, expectedVersion int64) error {
	stored := rec.Clone()
	stored.Version = expectedVersion + 1
	doc, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("marshal candidate record: %w", err)
	}

	res, err := s.q(ctx).ExecContext(ctx, `
		UPDATE candidates
		SET doc = $3, stage = $4, version = version + 1
		WHERE id = $1 AND version = $2`,
		uuid.UUID(stored.ID), expectedVersion, doc, string(stored.Stage),
	)
	if err != nil {
		return fmt.Errorf("update candidate: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update candidate rows affected: %w", err)
	}
	if affected == 0 {
		// Distinguish a lost race from a missing record.
		var exists bool
		err := s.q(ctx).QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM candidates WHERE id = $1)`,
			uuid.UUID(stored.ID),
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check candidate existence: %w", err)
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrConflict
	}
	rec.Version = stored.Version
	return nil
}

func scanCandidate(row *sql.Row) (*models.CandidateRecord, error) {
	var doc []byte
	var version int64
	if err := row.Scan(&doc, &version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan candidate: %w", err)
	}
	return unmarshalCandidate(doc, version)
}

func unmarshalCandidate(doc []byte, version int64) (*models.CandidateRecord, error) {
	var rec models.CandidateRecord
	if err := json.Unmarshal(doc, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal candidate record: %w", err)
	}
	// The column is authoritative; the document copy can lag within a
	// transaction.
	rec.Version = version
	return &rec, nil
}
