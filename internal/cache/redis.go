// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ManuGH/mediagate/internal/resilience"
)

// KeyPrefix namespaces every key this cache writes so Clear never touches
// foreign keys in a shared database.
const KeyPrefix = "mediagate:plan:"

const (
	opTimeout = 2 * time.Second

	breakerName      = "redis_plan_cache"
	breakerThreshold = 3
	breakerReset     = 30 * time.Second
)

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Redis is a Cache backed by a Redis server. Errors degrade to misses, and
// after repeated failures a circuit breaker skips Redis for a while.
type Redis struct {
	client  *redis.Client
	breaker *resilience.CircuitBreaker
	logger  zerolog.Logger
	stats   counters
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(ctx context.Context, cfg RedisConfig, logger zerolog.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.Info().
		Str("addr", cfg.Addr).
		Int("db", cfg.DB).
		Msg("connected to Redis plan cache")

	return newRedisWithClient(client, logger), nil
}

func newRedisWithClient(client *redis.Client, logger zerolog.Logger) *Redis {
	return &Redis{
		client:  client,
		breaker: resilience.NewCircuitBreaker(breakerName, breakerThreshold, breakerReset),
		logger:  logger,
	}
}

func isMiss(err error) bool { return errors.Is(err, redis.Nil) }

// warn logs a failed operation. Rejections by the open breaker are only
// logged at debug level.
func (c *Redis) warn(err error, op, key string) {
	ev := c.logger.Warn()
	if errors.Is(err, resilience.ErrCircuitOpen) {
		ev = c.logger.Debug()
	}
	ev.Err(err).Str("op", op).Str("key", key).Msg("redis operation failed")
}

func (c *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var val []byte
	err := c.breaker.Execute(func() error {
		var err error
		val, err = c.client.Get(ctx, KeyPrefix+key).Bytes()
		return err
	}, isMiss)
	if err != nil {
		if !isMiss(err) {
			c.warn(err, "get", key)
		}
		c.stats.misses.Add(1)
		return nil, false
	}
	c.stats.hits.Add(1)
	return val, true
}

func (c *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	err := c.breaker.Execute(func() error {
		return c.client.Set(ctx, KeyPrefix+key, value, ttl).Err()
	})
	if err != nil {
		c.warn(err, "set", key)
		return
	}
	c.stats.sets.Add(1)
}

func (c *Redis) Delete(ctx context.Context, key string) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	err := c.breaker.Execute(func() error {
		return c.client.Del(ctx, KeyPrefix+key).Err()
	})
	if err != nil {
		c.warn(err, "delete", key)
	}
}

// Clear removes every key under KeyPrefix.
func (c *Redis) Clear(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	keys, err := c.keys(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("redis scan failed")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("redis clear failed")
	}
}

func (c *Redis) Stats(ctx context.Context) Stats {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	keys, err := c.keys(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("redis scan failed")
	}
	return c.stats.snapshot(len(keys))
}

func (c *Redis) keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := c.client.Scan(ctx, 0, KeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	return keys, iter.Err()
}

// Ping checks that Redis is reachable. It bypasses the breaker so health
// checks see the server's real state.
func (c *Redis) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Redis) Close() error {
	return c.client.Close()
}
