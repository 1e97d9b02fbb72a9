package store

import (
	"context"
	"sort"
	"sync"

	"hirefunnel/internal/job/models"
	id "hirefunnel/pkg/domain"
	"hirefunnel/pkg/platform/sentinel"
)

// MemoryStore keeps job criteria in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	criteria map[id.JobID]*models.JobCriteria
}

func NewMemory() *MemoryStore {
	return &MemoryStore{criteria: make(map[id.JobID]*models.JobCriteria)}
}

func (s *MemoryStore) Create(_ context.Context, criteria *models.JobCriteria) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.criteria[criteria.JobID]; ok {
		return sentinel.ErrConflict
	}
	s.criteria[criteria.JobID] = cloneCriteria(criteria)
	return nil
}

func (s *MemoryStore) FindByJob(_ context.Context, jobID id.JobID) (*models.JobCriteria, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	criteria, ok := s.criteria[jobID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneCriteria(criteria), nil
}

func (s *MemoryStore) List(_ context.Context) ([]*models.JobCriteria, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.JobCriteria, 0, len(s.criteria))
	for _, criteria := range s.criteria {
		out = append(out, cloneCriteria(criteria))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func cloneCriteria(criteria *models.JobCriteria) *models.JobCriteria {
	cloned := *criteria
	cloned.Mandatory = append([]models.MandatoryCriterion(nil), criteria.Mandatory...)
	cloned.Preferred = append([]models.PreferredCriterion(nil), criteria.Preferred...)
	return &cloned
}
