package dedup

import (
	"context"
	"sync"
	"time"

	"hirefunnel/pkg/requestcontext"
)

// MemoryStore keeps claims in process memory.
type MemoryStore struct {
	mu     sync.Mutex
	claims map[string]time.Time
}

func NewMemory() *MemoryStore {
	return &MemoryStore{claims: make(map[string]time.Time)}
}

func (s *MemoryStore) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	now := requestcontext.Now(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	if expiry, ok := s.claims[key]; ok && expiry.After(now) {
		return false, nil
	}
	s.claims[key] = now.Add(ttl)
	return true, nil
}

func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.claims, key)
	return nil
}
