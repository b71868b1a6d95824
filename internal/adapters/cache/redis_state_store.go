package cache

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisStateStore holds the engine's learned state as plain JSON values.
// Keys already carry the scoring namespace; no further prefixing happens here.
type RedisStateStore struct {
	client *redis.Client
}

func NewRedisStateStore(client *redis.Client) *RedisStateStore {
	return &RedisStateStore{client: client}
}

func (s *RedisStateStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (s *RedisStateStore) Set(ctx context.Context, key string, value []byte) error {
	// Learned state never expires; undo history is the recovery path.
	return s.client.Set(ctx, key, value, 0).Err()
}

func (s *RedisStateStore) Remove(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}
