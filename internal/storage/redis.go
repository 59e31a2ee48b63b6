package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisSlot keeps the value under a single redis key. It does not implement
// Watcher; cross-context change detection is only available with the file
// backend, so a redis-backed deployment runs with single-context consistency.
type RedisSlot struct {
	client *redis.Client
	key    string
}

func NewRedisSlot(client *redis.Client, key string) *RedisSlot {
	return &RedisSlot{client: client, key: key}
}

func (r *RedisSlot) Get(ctx context.Context) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return data, nil
}

func (r *RedisSlot) Set(ctx context.Context, value []byte) error {
	if err := r.client.Set(ctx, r.key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisSlot) Remove(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}
