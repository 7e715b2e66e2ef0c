// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// Payloads mirror what the layer cache stores: JSON stacks keyed by
// portal and URI.
var (
	pricingStack = []byte(`{"content_page":{"id":3,"uri":"/pricing"},"master_pages":[{"id":1}]}`)
	landingStack = []byte(`{"content_page":{"id":7,"uri":"/"},"master_pages":[]}`)
)

func TestMemoryCacheStoresResolvedStacks(t *testing.T) {
	c := NewSimpleMemoryCache(time.Minute)
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	if err := c.Set(ctx, "layers:1:/pricing", pricingStack, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := c.Get(ctx, "layers:1:/pricing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != string(pricingStack) {
		t.Errorf("payload = %s", got)
	}

	has, err := c.Has(ctx, "layers:1:/pricing")
	if err != nil || !has {
		t.Errorf("Has = %v, %v, want true", has, err)
	}

	if err := c.Delete(ctx, "layers:1:/pricing"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := c.Get(ctx, "layers:1:/pricing"); !errors.Is(err, ErrMiss) {
		t.Errorf("Get after Delete = %v, want ErrMiss", err)
	}
}

func TestMemoryCacheMissIsASentinel(t *testing.T) {
	c := NewSimpleMemoryCache(time.Minute)
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	if _, err := c.Get(ctx, "layers:1:/nope"); !errors.Is(err, ErrMiss) {
		t.Errorf("Get = %v, want ErrMiss", err)
	}
	has, err := c.Has(ctx, "layers:1:/nope")
	if err != nil || has {
		t.Errorf("Has = %v, %v, want false", has, err)
	}
}

func TestMemoryCacheExpiresEntries(t *testing.T) {
	c := NewMemoryCache(MemoryCacheOptions{DefaultTTL: 30 * time.Millisecond})
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	if err := c.Set(ctx, "layers:1:/", landingStack, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := c.Get(ctx, "layers:1:/"); err != nil {
		t.Fatalf("Get before expiry: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	if _, err := c.Get(ctx, "layers:1:/"); !errors.Is(err, ErrMiss) {
		t.Errorf("Get after expiry = %v, want ErrMiss", err)
	}
}

func TestMemoryCachePerEntryTTLOverridesDefault(t *testing.T) {
	c := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Hour})
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	if err := c.Set(ctx, "short", landingStack, 30*time.Millisecond); err != nil {
		t.Fatalf("Set short: %v", err)
	}
	if err := c.Set(ctx, "long", pricingStack, 0); err != nil {
		t.Fatalf("Set long: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	if _, err := c.Get(ctx, "short"); !errors.Is(err, ErrMiss) {
		t.Errorf("short entry survived its TTL: %v", err)
	}
	if _, err := c.Get(ctx, "long"); err != nil {
		t.Errorf("long entry expired early: %v", err)
	}
}

func TestMemoryCacheClear(t *testing.T) {
	c := NewSimpleMemoryCache(time.Minute)
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	for _, key := range []string{"layers:1:/", "layers:1:/pricing", "layers:2:/"} {
		if err := c.Set(ctx, key, landingStack, 0); err != nil {
			t.Fatalf("Set %s: %v", key, err)
		}
	}
	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	for _, key := range []string{"layers:1:/", "layers:1:/pricing", "layers:2:/"} {
		if _, err := c.Get(ctx, key); !errors.Is(err, ErrMiss) {
			t.Errorf("Get %s after Clear = %v, want ErrMiss", key, err)
		}
	}
}

func TestMemoryCacheEvictsWhenFull(t *testing.T) {
	c := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Hour, MaxEntries: 2})
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	// An expired entry makes room without touching live ones.
	if err := c.Set(ctx, "stale", landingStack, time.Nanosecond); err != nil {
		t.Fatalf("Set stale: %v", err)
	}
	if err := c.Set(ctx, "live", pricingStack, 0); err != nil {
		t.Fatalf("Set live: %v", err)
	}
	time.Sleep(time.Millisecond)
	if err := c.Set(ctx, "new", landingStack, 0); err != nil {
		t.Fatalf("Set new: %v", err)
	}
	if has, _ := c.Has(ctx, "live"); !has {
		t.Error("live entry was evicted while a stale one existed")
	}
	if has, _ := c.Has(ctx, "new"); !has {
		t.Error("new entry missing after eviction")
	}

	// With only live entries, an arbitrary one goes but the write lands.
	if err := c.Set(ctx, "another", pricingStack, 0); err != nil {
		t.Fatalf("Set another: %v", err)
	}
	if has, _ := c.Has(ctx, "another"); !has {
		t.Error("write was dropped instead of evicting")
	}
}

func TestMemoryCacheCopiesPayloads(t *testing.T) {
	c := NewSimpleMemoryCache(time.Minute)
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	original := []byte(`{"content_page":{"id":3}}`)
	if err := c.Set(ctx, "layers:1:/about", original, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	original[2] = 'X'

	got, err := c.Get(ctx, "layers:1:/about")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got[2] == 'X' {
		t.Error("cached payload shares memory with the caller's slice")
	}

	got[3] = 'Y'
	again, _ := c.Get(ctx, "layers:1:/about")
	if again[3] == 'Y' {
		t.Error("returned payload shares memory with the cached copy")
	}
}

func TestMemoryCacheClose(t *testing.T) {
	c := NewSimpleMemoryCache(time.Minute)
	ctx := context.Background()

	_ = c.Set(ctx, "layers:1:/", landingStack, 0)
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := c.Get(ctx, "layers:1:/"); !errors.Is(err, ErrClosed) {
		t.Errorf("Get after Close = %v, want ErrClosed", err)
	}
	if err := c.Set(ctx, "layers:1:/", landingStack, 0); !errors.Is(err, ErrClosed) {
		t.Errorf("Set after Close = %v, want ErrClosed", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close = %v, want nil", err)
	}
}

func TestMemoryCacheConcurrentAccess(t *testing.T) {
	c := NewSimpleMemoryCache(time.Minute)
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				_ = c.Set(ctx, "layers:1:/pricing", pricingStack, 0)
				_, _ = c.Get(ctx, "layers:1:/pricing")
			}
		}()
	}
	wg.Wait()

	got, err := c.Get(ctx, "layers:1:/pricing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != string(pricingStack) {
		t.Errorf("payload = %s", got)
	}
}
