// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package cache stores encoded negotiation plans with a TTL, in memory or
// in Redis.
package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Cache is a TTL byte cache. Implementations are safe for concurrent use.
type Cache interface {
	// Get returns the value stored under key unless it is missing or expired.
	Get(ctx context.Context, key string) ([]byte, bool)
	// Set stores value under key for ttl. A non-positive ttl is a no-op.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
	Clear(ctx context.Context)
	Stats(ctx context.Context) Stats
	Close() error
}

// Stats holds cache counters.
type Stats struct {
	Hits        int64 `json:"hits"`
	Misses      int64 `json:"misses"`
	Sets        int64 `json:"sets"`
	Evictions   int64 `json:"evictions"`
	CurrentSize int   `json:"current_size"`
}

type counters struct {
	hits, misses, sets, evictions atomic.Int64
}

func (c *counters) snapshot(size int) Stats {
	return Stats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Sets:        c.sets.Load(),
		Evictions:   c.evictions.Load(),
		CurrentSize: size,
	}
}

type entry struct {
	value      []byte
	expiration time.Time
}

func (e entry) expired(now time.Time) bool {
	return now.After(e.expiration)
}

// Memory is an in-process Cache with optional periodic eviction.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
	stats   counters

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewMemory creates a memory cache. A positive cleanupInterval starts a
// janitor goroutine that Close stops.
func NewMemory(cleanupInterval time.Duration) *Memory {
	c := &Memory{entries: make(map[string]entry)}
	if cleanupInterval > 0 {
		c.stop = make(chan struct{})
		c.done = make(chan struct{})
		go c.janitor(cleanupInterval)
	}
	return c
}

func (c *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	e, found := c.entries[key]
	c.mu.RUnlock()

	if !found || e.expired(time.Now()) {
		c.stats.misses.Add(1)
		return nil, false
	}
	c.stats.hits.Add(1)
	return e.value, true
}

func (c *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[key] = entry{value: append([]byte(nil), value...), expiration: time.Now().Add(ttl)}
	c.mu.Unlock()
	c.stats.sets.Add(1)
}

func (c *Memory) Delete(_ context.Context, key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

func (c *Memory) Clear(_ context.Context) {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

func (c *Memory) Stats(_ context.Context) Stats {
	c.mu.RLock()
	size := len(c.entries)
	c.mu.RUnlock()
	return c.stats.snapshot(size)
}

// Close stops the janitor, if any, and waits for it to exit.
func (c *Memory) Close() error {
	if c.stop == nil {
		return nil
	}
	c.stopOnce.Do(func() { close(c.stop) })
	<-c.done
	return nil
}

// deleteExpired removes expired entries and returns how many it removed.
func (c *Memory) deleteExpired() int {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
			count++
		}
	}
	c.stats.evictions.Add(int64(count))
	return count
}

func (c *Memory) janitor(interval time.Duration) {
	defer close(c.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.deleteExpired()
		case <-c.stop:
			return
		}
	}
}

// NoOp caches nothing. It stands in when the plan TTL is zero.
type NoOp struct{}

func (NoOp) Get(context.Context, string) ([]byte, bool)         { return nil, false }
func (NoOp) Set(context.Context, string, []byte, time.Duration) {}
func (NoOp) Delete(context.Context, string)                     {}
func (NoOp) Clear(context.Context)                              {}
func (NoOp) Stats(context.Context) Stats                        { return Stats{} }
func (NoOp) Close() error                                       { return nil }
