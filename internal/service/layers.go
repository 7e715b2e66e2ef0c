// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/crmkit/crmkit/internal/cache"
)

// LayersCache caches resolved page layer stacks keyed by portal and URI.
// Any page mutation in a portal invalidates every cached stack of that
// portal, since a master edit can change stacks of pages that were not
// themselves touched.
type LayersCache struct {
	cache *cache.TypedCache[PageLayers]

	mu           sync.Mutex
	keysByPortal map[int64][]string
}

// NewLayersCache creates a layers cache on top of any cache backend.
func NewLayersCache(c cache.Cacher, ttl time.Duration) *LayersCache {
	return &LayersCache{
		cache:        cache.NewTypedCache[PageLayers](c, ttl),
		keysByPortal: make(map[int64][]string),
	}
}

func layersKey(portalID int64, uri string) string {
	return fmt.Sprintf("layers:%d:%s", portalID, uri)
}

// GetOrResolve returns the cached stack for (portal, uri) or resolves and
// caches it. Empty resolutions are cached too; a missing page is a normal
// outcome and gets the same request pattern as a hit.
func (c *LayersCache) GetOrResolve(ctx context.Context, portalID int64, uri string, resolve func() (PageLayers, error)) (PageLayers, error) {
	key := layersKey(portalID, uri)
	if cached, ok := c.cache.Get(ctx, key); ok {
		return *cached, nil
	}

	layers, err := resolve()
	if err != nil {
		return PageLayers{}, err
	}

	if err := c.cache.Set(ctx, key, &layers); err == nil {
		c.mu.Lock()
		c.keysByPortal[portalID] = append(c.keysByPortal[portalID], key)
		c.mu.Unlock()
	}
	return layers, nil
}

// InvalidatePortal drops every cached stack of a portal.
func (c *LayersCache) InvalidatePortal(ctx context.Context, portalID int64) {
	c.mu.Lock()
	keys := c.keysByPortal[portalID]
	delete(c.keysByPortal, portalID)
	c.mu.Unlock()

	for _, key := range keys {
		_ = c.cache.Delete(ctx, key)
	}
}
