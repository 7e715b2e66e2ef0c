// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"encoding/json"
	"time"
)

// TypedCache stores values of one type as JSON on any backend. It is
// how resolved layer stacks travel through the byte-value Cacher.
type TypedCache[T any] struct {
	backend    Cacher
	defaultTTL time.Duration
}

// NewTypedCache wraps a backend with JSON serialization for T.
func NewTypedCache[T any](backend Cacher, defaultTTL time.Duration) *TypedCache[T] {
	return &TypedCache[T]{
		backend:    backend,
		defaultTTL: defaultTTL,
	}
}

// Get reports the cached value and whether it was found. A payload that
// no longer decodes (a deploy changed the shape) counts as a miss.
func (c *TypedCache[T]) Get(ctx context.Context, key string) (*T, bool) {
	payload, err := c.backend.Get(ctx, key)
	if err != nil {
		return nil, false
	}

	var value T
	if err := json.Unmarshal(payload, &value); err != nil {
		return nil, false
	}
	return &value, true
}

// Set stores the value with the default TTL.
func (c *TypedCache[T]) Set(ctx context.Context, key string, value *T) error {
	return c.SetWithTTL(ctx, key, value, c.defaultTTL)
}

// SetWithTTL stores the value with an explicit TTL.
func (c *TypedCache[T]) SetWithTTL(ctx context.Context, key string, value *T, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.backend.Set(ctx, key, payload, ttl)
}

// Delete removes the key from the backend.
func (c *TypedCache[T]) Delete(ctx context.Context, key string) error {
	return c.backend.Delete(ctx, key)
}
