// Package service manages job criteria. Criteria are validated once at
// creation and immutable afterwards.
package service

import (
	"context"
	"errors"
	"log/slog"

	"hirefunnel/internal/job/models"
	"hirefunnel/internal/job/store"
	id "hirefunnel/pkg/domain"
	dErrors "hirefunnel/pkg/domain-errors"
	"hirefunnel/pkg/platform/sentinel"
	"hirefunnel/pkg/requestcontext"
)

// Service coordinates job criteria storage.
type Service struct {
	criteria store.CriteriaStore
	logger   *slog.Logger
}

// New constructs a job Service.
func New(criteria store.CriteriaStore, logger *slog.Logger) *Service {
	return &Service{criteria: criteria, logger: logger}
}

// CreateJob validates and stores criteria for a new job, assigning its ID.
func (s *Service) CreateJob(ctx context.Context, criteria models.JobCriteria) (*models.JobCriteria, error) {
	criteria.JobID = id.NewJobID()
	criteria.CreatedAt = requestcontext.Now(ctx)
	if err := criteria.Validate(); err != nil {
		return nil, err
	}
	if err := s.criteria.Create(ctx, &criteria); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "job already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create job")
	}
	s.logger.InfoContext(ctx, "job created",
		"job_id", criteria.JobID,
		"title", criteria.Title,
		"shortlist_size", criteria.ShortlistSize,
	)
	return &criteria, nil
}

// GetJob returns one job's criteria.
func (s *Service) GetJob(ctx context.Context, jobID id.JobID) (*models.JobCriteria, error) {
	criteria, err := s.criteria.FindByJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "job not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load job")
	}
	return criteria, nil
}

// ListJobs returns all jobs in creation order.
func (s *Service) ListJobs(ctx context.Context) ([]*models.JobCriteria, error) {
	jobs, err := s.criteria.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list jobs")
	}
	return jobs, nil
}
