package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	Key      string
}

// RedisSlot stores the document under a single Redis key
type RedisSlot struct {
	client *redis.Client
	key    string
}

// NewRedisSlot connects to Redis and verifies the connection
func NewRedisSlot(ctx context.Context, cfg RedisConfig) (*RedisSlot, error) {
	if cfg.Key == "" {
		return nil, fmt.Errorf("slot key is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisSlot{client: client, key: cfg.Key}, nil
}

// Load reads the document
func (s *RedisSlot) Load(ctx context.Context) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSlotEmpty
		}
		return nil, fmt.Errorf("failed to get slot: %w", err)
	}
	return data, nil
}

// Store overwrites the document. SET is atomic on the server.
func (s *RedisSlot) Store(ctx context.Context, data []byte) error {
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set slot: %w", err)
	}
	return nil
}

// Ping verifies Redis connectivity
func (s *RedisSlot) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *RedisSlot) Close() error {
	return s.client.Close()
}
