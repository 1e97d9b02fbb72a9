package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const claimKeyPrefix = "dispatch:claim:"

// RedisStore shares dedup claims across instances. SETNX makes a claim
// atomic cluster-wide, which is what keeps at-most-once delivery when more
// than one relay is running.
type RedisStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	acquired, err := s.client.SetNX(ctx, claimKeyPrefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire dedup claim: %w", err)
	}
	return acquired, nil
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, claimKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("release dedup claim: %w", err)
	}
	return nil
}
