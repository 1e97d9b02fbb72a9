package store

import (
	"context"
	"sync"

	"hirefunnel/internal/funnel/models"
	id "hirefunnel/pkg/domain"
	"hirefunnel/pkg/platform/sentinel"
)

// MemoryStore keeps candidate records in process memory. Used by unit tests
// and local development.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[id.CandidateID]*models.CandidateRecord
	// byJob preserves submission order per job.
	byJob map[id.JobID][]id.CandidateID
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		records: make(map[id.CandidateID]*models.CandidateRecord),
		byJob:   make(map[id.JobID][]id.CandidateID),
	}
}

func (s *MemoryStore) Create(_ context.Context, rec *models.CandidateRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.ID]; ok {
		return sentinel.ErrConflict
	}
	stored := rec.Clone()
	stored.Version = 1
	s.records[rec.ID] = stored
	s.byJob[rec.JobID] = append(s.byJob[rec.JobID], rec.ID)
	rec.Version = stored.Version
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, candidateID id.CandidateID) (*models.CandidateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[candidateID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *MemoryStore) ListByJob(_ context.Context, jobID id.JobID) ([]*models.CandidateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byJob[jobID]
	out := make([]*models.CandidateRecord, 0, len(ids))
	for _, cid := range ids {
		if rec, ok := s.records[cid]; ok {
			out = append(out, rec.Clone())
		}
	}
	return out, nil
}

func (s *MemoryStore) Update(_ context.Context, rec *models.CandidateRecord, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.records[rec.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Version != expectedVersion {
		return sentinel.ErrConflict
	}
	stored := rec.Clone()
	stored.Version = expectedVersion + 1
	s.records[rec.ID] = stored
	rec.Version = stored.Version
	return nil
}
