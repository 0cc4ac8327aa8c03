package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/parishyparijal/MenonMobility-sub001/pkg/kafka"
)

const eventKeyPrefix = "search:event:"

// IdempotencyStore implements kafka.IdempotencyStore using Redis so that
// processed event IDs survive restarts and are shared by every replica.
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ kafka.IdempotencyStore = (*IdempotencyStore)(nil)

// NewIdempotencyStore creates a Redis-backed idempotency store.
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: ttl}
}

// Contains reports whether eventID was recorded and has not expired.
func (s *IdempotencyStore) Contains(ctx context.Context, eventID string) (bool, error) {
	n, err := s.client.Exists(ctx, eventKeyPrefix+eventID).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists event: %w", err)
	}
	return n > 0, nil
}

// Add records eventID with the configured TTL.
func (s *IdempotencyStore) Add(ctx context.Context, eventID string) error {
	if err := s.client.Set(ctx, eventKeyPrefix+eventID, 1, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set event: %w", err)
	}
	return nil
}
