package cache

import (
	"context"
	"time"

	"github.com/artbay/artbay-api/internal/usecase"
	"github.com/redis/go-redis/v9"
)

// RedisEventStore remembers which provider event ids were already applied.
// Ids are written only after the reconciliation transaction commits, so a
// redelivery of an event whose transaction failed still reaches the database.
type RedisEventStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisEventStore(rdb *redis.Client, ttl time.Duration) *RedisEventStore {
	return &RedisEventStore{rdb: rdb, ttl: ttl}
}

func (s *RedisEventStore) AlreadyApplied(ctx context.Context, eventID string) (bool, error) {
	n, err := s.rdb.Exists(ctx, key(eventID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisEventStore) MarkApplied(ctx context.Context, eventID string) error {
	return s.rdb.Set(ctx, key(eventID), "1", s.ttl).Err()
}

func key(eventID string) string {
	return "webhook:event:" + eventID
}

var _ usecase.EventDeduper = (*RedisEventStore)(nil)
