// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryCache keeps entries in a plain map guarded by a mutex. Payloads
// are copied on the way in and out so a caller cannot mutate cached
// state through a retained slice.
type MemoryCache struct {
	defaultTTL time.Duration
	maxEntries int

	mu      sync.Mutex
	entries map[string]memoryEntry
	closed  bool

	stop chan struct{}
}

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// MemoryCacheOptions configures the memory backend.
type MemoryCacheOptions struct {
	DefaultTTL      time.Duration
	MaxEntries      int           // 0 = unbounded
	CleanupInterval time.Duration // 0 disables the background sweep
}

// NewMemoryCache creates a memory backend. With a cleanup interval set,
// a janitor goroutine sweeps expired entries until Close.
func NewMemoryCache(opts MemoryCacheOptions) *MemoryCache {
	c := &MemoryCache{
		defaultTTL: opts.DefaultTTL,
		maxEntries: opts.MaxEntries,
		entries:    make(map[string]memoryEntry),
		stop:       make(chan struct{}),
	}
	if opts.CleanupInterval > 0 {
		go c.janitor(opts.CleanupInterval)
	}
	return c
}

// NewSimpleMemoryCache creates an unbounded memory backend with the
// given default TTL and a one-minute sweep.
func NewSimpleMemoryCache(ttl time.Duration) *MemoryCache {
	return NewMemoryCache(MemoryCacheOptions{
		DefaultTTL:      ttl,
		CleanupInterval: time.Minute,
	})
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}

	entry, ok := c.entries[key]
	if !ok {
		return nil, ErrMiss
	}
	if time.Now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, ErrMiss
	}

	payload := make([]byte, len(entry.payload))
	copy(payload, entry.payload)
	return payload, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	payload := make([]byte, len(value))
	copy(payload, value)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	if c.maxEntries > 0 {
		if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
			c.evictLocked()
		}
	}

	c.entries[key] = memoryEntry{
		payload:   payload,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	delete(c.entries, key)
	return nil
}

func (c *MemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.entries = make(map[string]memoryEntry)
	return nil
}

func (c *MemoryCache) Has(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false, ErrClosed
	}

	entry, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	if time.Now().After(entry.expiresAt) {
		delete(c.entries, key)
		return false, nil
	}
	return true, nil
}

// Close stops the janitor and rejects further operations. Closing twice
// is a no-op.
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.entries = nil
	close(c.stop)
	return nil
}

// evictLocked makes room for one more entry: expired entries go first,
// then one arbitrary entry. Cached stacks are cheap to re-resolve, so
// eviction order does not need to be precise.
func (c *MemoryCache) evictLocked() {
	now := time.Now()
	removed := false
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
			removed = true
		}
	}
	if removed {
		return
	}
	for key := range c.entries {
		delete(c.entries, key)
		return
	}
}

func (c *MemoryCache) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			if c.closed {
				c.mu.Unlock()
				return
			}
			for key, entry := range c.entries {
				if now.After(entry.expiresAt) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		case <-c.stop:
			return
		}
	}
}

var _ Cacher = (*MemoryCache)(nil)
