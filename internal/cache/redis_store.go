package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by a Store when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Store is a shared byte cache sitting behind the in-memory query cache.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type redisStore struct {
	redisClient *redis.Client
}

func NewRedisStore(redisClient *redis.Client) Store {
	return &redisStore{
		redisClient: redisClient,
	}
}

func (s *redisStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.redisClient.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("failed to get cached query %s: %w", key, err)
	}
	return val, nil
}

func (s *redisStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := s.redisClient.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache query %s: %w", key, err)
	}
	return nil
}

func (s *redisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.redisClient.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete cached queries: %w", err)
	}
	return nil
}
