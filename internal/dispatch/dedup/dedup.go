// Package dedup claims command dedup keys so each side effect executes at
// most once, even when the outbox replays a command after a crash.
package dedup

import (
	"context"
	"time"
)

// Store claims dedup keys. Acquire is atomic: exactly one caller per key
// observes true within the TTL window.
type Store interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release frees a claimed key so a failed delivery can be retried.
	Release(ctx context.Context, key string) error
}
