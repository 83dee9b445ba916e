package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/pkordes/mapty/internal/domain"
)

// redisKVStore is the Redis implementation of KVStore.
// Values are stored as plain strings with no expiry.
type redisKVStore struct {
	client redis.Cmdable
}

// NewRedisKVStore constructs a KVStore backed by a Redis client.
func NewRedisKVStore(client redis.Cmdable) KVStore {
	return &redisKVStore{client: client}
}

func (s *redisKVStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", fmt.Errorf("repo.KVStore.Get: %w", domain.ErrNotFound)
		}
		return "", fmt.Errorf("repo.KVStore.Get: %w", err)
	}
	return value, nil
}

func (s *redisKVStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("repo.KVStore.Set: %w", err)
	}
	return nil
}

func (s *redisKVStore) Delete(ctx context.Context, key string) error {
	n, err := s.client.Del(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("repo.KVStore.Delete: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("repo.KVStore.Delete: %w", domain.ErrNotFound)
	}
	return nil
}
