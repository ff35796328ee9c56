package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds connection settings for RedisStorage.
type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	TTL         time.Duration
	DialTimeout time.Duration
}

// RedisStorage caches solutions as JSON values in Redis.
type RedisStorage struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStorage connects to Redis and verifies the connection with PING.
func NewRedisStorage(ctx context.Context, cfg RedisConfig) (*RedisStorage, error) {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", cfg.Addr, err)
	}
	return &RedisStorage{client: client, ttl: ttl}, nil
}

// Get fetches and decodes a cached solution.
func (s *RedisStorage) Get(ctx context.Context, key string) (Solution, bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Solution{}, false, nil
	}
	if err != nil {
		return Solution{}, false, fmt.Errorf("redis get: %w", err)
	}

	var solution Solution
	if err := json.Unmarshal(data, &solution); err != nil {
		return Solution{}, false, fmt.Errorf("decode cached solution: %w", err)
	}
	return solution, true, nil
}

// Set encodes and stores a solution with the configured TTL.
func (s *RedisStorage) Set(ctx context.Context, key string, solution Solution) error {
	data, err := json.Marshal(solution)
	if err != nil {
		return fmt.Errorf("encode solution: %w", err)
	}
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *RedisStorage) Close() error {
	return s.client.Close()
}
