package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// RedisSlot stores values as plain redis strings.
type RedisSlot struct {
	client *redis.Client
}

// NewRedisSlot connects lazily to the redis server at addr
func NewRedisSlot(addr string) *RedisSlot {
	return NewRedisSlotFromClient(redis.NewClient(&redis.Options{Addr: addr}))
}

func NewRedisSlotFromClient(client *redis.Client) *RedisSlot {
	return &RedisSlot{client: client}
}

func (s *RedisSlot) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrAbsent
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return b, nil
}

// Put replaces the value with a single SET, which redis applies atomically.
func (s *RedisSlot) Put(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisSlot) Close() error {
	return s.client.Close()
}
