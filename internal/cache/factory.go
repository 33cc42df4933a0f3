// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package cache

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// DefaultCleanupInterval is how often the memory cache evicts expired plans.
const DefaultCleanupInterval = time.Minute

// Open picks the backend: NoOp when ttl is zero, Redis when an address is
// configured, memory otherwise.
func Open(ctx context.Context, ttl time.Duration, redisCfg RedisConfig, logger zerolog.Logger) (Cache, error) {
	switch {
	case ttl <= 0:
		return NoOp{}, nil
	case redisCfg.Addr != "":
		return NewRedis(ctx, redisCfg, logger)
	default:
		return NewMemory(DefaultCleanupInterval), nil
	}
}
