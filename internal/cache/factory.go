// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"fmt"
	"net/url"
	"time"
)

// CacheBackend identifies which backend a factory call produced.
type CacheBackend string

const (
	CacheBackendMemory CacheBackend = "memory"
	CacheBackendRedis  CacheBackend = "redis"
)

// CacheConfig selects and configures a cache backend at startup.
type CacheConfig struct {
	// Type is "memory" or "redis".
	Type string

	// RedisURL is the connection URL for the redis type, for example
	// redis://localhost:6379/0.
	RedisURL string

	// Prefix namespaces keys on a shared Redis server.
	Prefix string

	// FallbackToMemory makes a failed Redis connection fall back to the
	// memory backend instead of failing startup.
	FallbackToMemory bool

	DefaultTTL time.Duration

	// MaxSize bounds the memory backend (0 = unbounded).
	MaxSize int

	CleanupInterval time.Duration
}

// CacheResult reports the backend a factory call actually produced,
// which can differ from the requested one when the fallback kicks in.
type CacheResult struct {
	Cache       Cacher
	BackendType CacheBackend
	IsFallback  bool
}

// NewCacheWithInfo builds the configured backend.
func NewCacheWithInfo(cfg CacheConfig) (CacheResult, error) {
	if cfg.Type == "redis" {
		redisCache, err := NewRedisCache(cfg.RedisURL, cfg.Prefix, cfg.DefaultTTL)
		if err == nil {
			return CacheResult{Cache: redisCache, BackendType: CacheBackendRedis}, nil
		}
		if !cfg.FallbackToMemory {
			return CacheResult{}, fmt.Errorf("connecting to redis at %s: %w", SanitizeRedisURL(cfg.RedisURL), err)
		}
	}

	memory := NewMemoryCache(MemoryCacheOptions{
		DefaultTTL:      cfg.DefaultTTL,
		MaxEntries:      cfg.MaxSize,
		CleanupInterval: cfg.CleanupInterval,
	})
	return CacheResult{
		Cache:       memory,
		BackendType: CacheBackendMemory,
		IsFallback:  cfg.Type == "redis",
	}, nil
}

// SanitizeRedisURL replaces any password in a Redis URL so it can be
// logged.
func SanitizeRedisURL(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "[invalid URL]"
	}
	if u.User != nil {
		if _, hasPassword := u.User.Password(); hasPassword {
			u.User = url.UserPassword(u.User.Username(), "***")
		}
	}
	return u.String()
}
