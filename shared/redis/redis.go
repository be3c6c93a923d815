package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options configure the shared client
type Options struct {
	Addr     string
	Password string
	DB       int
}

type RedisClient struct {
	client redis.UniversalClient
}

func NewRedisClient(opts Options) *RedisClient {
	if opts.Addr == "" {
		opts.Addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return &RedisClient{client: client}
}

// Wrap builds a RedisClient around an existing go-redis client.
func Wrap(client redis.UniversalClient) *RedisClient {
	return &RedisClient{client: client}
}

func (r *RedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return r.client.Set(ctx, key, value, expiration).Err()
}

func (r *RedisClient) Get(ctx context.Context, key string) (string, error) {
	return r.client.Get(ctx, key).Result()
}

// GetInt reads an integer counter; a missing key reads as zero.
func (r *RedisClient) GetInt(ctx context.Context, key string) (int, error) {
	v, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(v)
}

// IncrUntil increments key and sets it to expire at the given instant, atomically.
func (r *RedisClient) IncrUntil(ctx context.Context, key string, expireAt time.Time) (int64, error) {
	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireAt(ctx, key, expireAt)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// decrFloor only touches keys holding a positive count, so a missing or
// expired counter is never recreated without a TTL.
var decrFloor = redis.NewScript(`
local v = tonumber(redis.call('GET', KEYS[1]))
if v and v > 0 then
	return redis.call('DECR', KEYS[1])
end
return 0
`)

// DecrFloor decrements key without letting it go below zero.
func (r *RedisClient) DecrFloor(ctx context.Context, key string) error {
	return decrFloor.Run(ctx, r.client, []string{key}).Err()
}

func (r *RedisClient) Del(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *RedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}
