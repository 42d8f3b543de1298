package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hrops-ai/copilot/pipeline"
)

const redisKeyPrefix = "hrcopilot:answer:"

// RedisConfig holds Redis connection settings for the shared answer cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// DefaultRedisConfig returns defaults for local development.
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr: "127.0.0.1:6379",
		TTL:  24 * time.Hour,
	}
}

// Redis is a Redis-backed answer cache. Results are stored as JSON under a
// prefixed key per normalized question.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(ctx context.Context, cfg *RedisConfig) (*Redis, error) {
	if cfg == nil {
		cfg = DefaultRedisConfig()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Redis{client: client, ttl: cfg.TTL}, nil
}

// Get implements pipeline.Cache.
func (r *Redis) Get(ctx context.Context, question string) (*pipeline.Result, bool, error) {
	data, err := r.client.Get(ctx, redisKeyPrefix+question).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var result pipeline.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false, fmt.Errorf("decode cached result: %w", err)
	}
	return &result, true, nil
}

// Set implements pipeline.Cache.
func (r *Redis) Set(ctx context.Context, question string, result *pipeline.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := r.client.Set(ctx, redisKeyPrefix+question, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}
