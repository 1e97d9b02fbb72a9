// Package store persists candidate funnel records.
//
// All implementations share optimistic concurrency semantics: Update commits
// only if the stored version still equals expectedVersion, and on success the
// stored version becomes expectedVersion+1. Concurrent writers lose with
// sentinel.ErrConflict and must re-read and replay.
package store

import (
	"context"

	"hirefunnel/internal/funnel/models"
	id "hirefunnel/pkg/domain"
)

// CandidateStore is the persistence boundary for candidate records.
type CandidateStore interface {
	// Create inserts a new record. Returns sentinel.ErrConflict if a record
	// with the same ID already exists.
	Create(ctx context.Context, rec *models.CandidateRecord) error

	// FindByID returns the record or sentinel.ErrNotFound.
	FindByID(ctx context.Context, candidateID id.CandidateID) (*models.CandidateRecord, error)

	// ListByJob returns all records for a job ordered by submission time,
	// oldest first, with insertion order breaking timestamp ties.
	ListByJob(ctx context.Context, jobID id.JobID) ([]*models.CandidateRecord, error)

	// Update replaces the record if its stored version equals
	// expectedVersion, bumping the version by one. Returns
	// sentinel.ErrConflict on a version mismatch and sentinel.ErrNotFound if
	// the record does not exist.
	Update(ctx context.Context, rec *models.CandidateRecord, expectedVersion int64) error
}
