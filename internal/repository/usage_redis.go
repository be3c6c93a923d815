package repository

import (
	"context"
	"fmt"
	"time"

	"membership-platform/backend/shared/redis"
)

// RedisUsageStore keeps counters in redis keyed by user, feature and period start.
// Keys expire at the end of their period.
type RedisUsageStore struct {
	client *redis.RedisClient
	prefix string
}

func NewRedisUsageStore(client *redis.RedisClient) *RedisUsageStore {
	return &RedisUsageStore{client: client, prefix: "usage"}
}

func (s *RedisUsageStore) key(userID uint, feature string, periodStart time.Time) string {
	return fmt.Sprintf("%s:%s:%d:%s", s.prefix, feature, userID, periodStart.Format("2006-01-02"))
}

func (s *RedisUsageStore) Get(ctx context.Context, userID uint, feature string, periodStart time.Time) (int, error) {
	return s.client.GetInt(ctx, s.key(userID, feature, periodStart))
}

func (s *RedisUsageStore) Increment(ctx context.Context, userID uint, feature string, periodStart, periodEnd time.Time) error {
	_, err := s.client.IncrUntil(ctx, s.key(userID, feature, periodStart), periodEnd)
	return err
}

func (s *RedisUsageStore) Decrement(ctx context.Context, userID uint, feature string, periodStart time.Time) error {
	return s.client.DecrFloor(ctx, s.key(userID, feature, periodStart))
}
