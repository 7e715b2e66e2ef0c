// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package cache holds the byte-value backends behind the resolved page
// layer cache: an in-process memory backend for single-node deployments
// and a Redis backend so several instances can share resolved stacks.
package cache

import (
	"context"
	"time"
)

// Cacher is the backend contract. Values are opaque byte payloads; the
// typed wrapper in typed.go handles serialization. A ttl of zero on Set
// means the backend's default TTL.
type Cacher interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Has(ctx context.Context, key string) (bool, error)
	Clear(ctx context.Context) error
	Close() error
}

// Error is a sentinel cache error.
type Error string

func (e Error) Error() string { return string(e) }

const (
	// ErrMiss reports that a key is absent or expired. A miss is a normal
	// outcome for callers, not a failure.
	ErrMiss = Error("cache miss")

	// ErrClosed reports an operation on a closed backend.
	ErrClosed = Error("cache closed")
)
