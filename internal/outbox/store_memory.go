package outbox

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"hirefunnel/pkg/platform/sentinel"
)

// MemoryStore keeps outbox entries in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*Entry
	order   []uuid.UUID
}

func NewMemory() *MemoryStore {
	return &MemoryStore{entries: make(map[uuid.UUID]*Entry)}
}

func (s *MemoryStore) Append(_ context.Context, entries []*Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		copied := *e
		s.entries[e.ID] = &copied
		s.order = append(s.order, e.ID)
	}
	return nil
}

func (s *MemoryStore) Due(_ context.Context, now time.Time, limit int) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var due []*Entry
	for _, entryID := range s.order {
		e := s.entries[entryID]
		if e.Status == StatusPending && !e.NextAttemptAt.After(now) {
			copied := *e
			due = append(due, &copied)
		}
	}
	sort.SliceStable(due, func(i, j int) bool {
		return due[i].NextAttemptAt.Before(due[j].NextAttemptAt)
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (s *MemoryStore) MarkDelivered(_ context.Context, entryID uuid.UUID) error {
	return s.mutate(entryID, func(e *Entry) {
		e.Status = StatusDelivered
		e.LastError = ""
	})
}

func (s *MemoryStore) Reschedule(_ context.Context, entryID uuid.UUID, attempts int, nextAttemptAt time.Time, lastError string) error {
	return s.mutate(entryID, func(e *Entry) {
		e.Attempts = attempts
		e.NextAttemptAt = nextAttemptAt
		e.LastError = lastError
	})
}

func (s *MemoryStore) MarkFailed(_ context.Context, entryID uuid.UUID, lastError string) error {
	return s.mutate(entryID, func(e *Entry) {
		e.Status = StatusFailed
		e.LastError = lastError
	})
}

// Find returns a snapshot of one entry. Test helper.
func (s *MemoryStore) Find(entryID uuid.UUID) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[entryID]
	if !ok {
		return nil, false
	}
	copied := *e
	return &copied, true
}

func (s *MemoryStore) mutate(entryID uuid.UUID, fn func(*Entry)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[entryID]
	if !ok {
		return sentinel.ErrNotFound
	}
	fn(e)
	return nil
}
