// Package store persists job criteria. Criteria are immutable once created:
// scoring stays reproducible because the inputs for a job never change after
// candidates start flowing.
package store

import (
	"context"

	"hirefunnel/internal/job/models"
	id "hirefunnel/pkg/domain"
)

// CriteriaStore is the persistence boundary for job criteria.
type CriteriaStore interface {
	// Create inserts criteria for a new job. Returns sentinel.ErrConflict if
	// the job already has criteria.
	Create(ctx context.Context, criteria *models.JobCriteria) error

	// FindByJob returns the criteria or sentinel.ErrNotFound.
	FindByJob(ctx context.Context, jobID id.JobID) (*models.JobCriteria, error)

	// List returns all job criteria ordered by creation time.
	List(ctx context.Context) ([]*models.JobCriteria, error)
}
