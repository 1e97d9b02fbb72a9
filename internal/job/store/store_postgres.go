package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"hirefunnel/internal/job/models"
	id "hirefunnel/pkg/domain"
	"hirefunnel/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// PostgresStore persists job criteria in PostgreSQL as JSONB documents.
// There is no Update: criteria rows are insert-once.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, criteria *models.JobCriteria) error {
	doc, err := json.Marshal(criteria)
	if err != nil {
		return fmt.Errorf("marshal job criteria: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO job_criteria (job_id, created_at, doc)
		VALUES ($1, $2, $3)`,
		uuid.UUID(criteria.JobID), criteria.CreatedAt, doc,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert job criteria: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByJob(ctx context.Context, jobID id.JobID) (*models.JobCriteria, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM job_criteria WHERE job_id = $1`,
		uuid.UUID(jobID),
	).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find job criteria: %w", err)
	}
	return unmarshalCriteria(doc)
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.JobCriteria, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT doc FROM job_criteria ORDER BY created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("list job criteria: %w", err)
	}
	defer rows.Close()

	var out []*models.JobCriteria
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan job criteria row: %w", err)
		}
		criteria, err := unmarshalCriteria(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, criteria)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate job criteria: %w", err)
	}
	return out, nil
}

func unmarshalCriteria(doc []byte) (*models.JobCriteria, error) {
	var criteria models.JobCriteria
	if err := json.Unmarshal(doc, &criteria); err != nil {
		return nil, fmt.Errorf("unmarshal job criteria: %w", err)
	}
	return &criteria, nil
}
