package offline

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisKV stores values in Redis, for deployments where several tools on
// one machine share a queue. Values never expire on the Redis side; the
// engine owns eviction.
type RedisKV struct {
	rdb *redis.Client
}

// NewRedisKV wraps an already-configured client.
func NewRedisKV(rdb *redis.Client) *RedisKV {
	return &RedisKV{rdb: rdb}
}

func (s *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &StoreError{Op: "get", Key: key, Err: err}
	}
	return v, true, nil
}

func (s *RedisKV) Set(ctx context.Context, key, value string) error {
	if err := s.rdb.Set(ctx, key, value, 0).Err(); err != nil {
		return &StoreError{Op: "set", Key: key, Err: err}
	}
	return nil
}

func (s *RedisKV) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return &StoreError{Op: "delete", Key: key, Err: err}
	}
	return nil
}
