// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

// redisTestCache connects to the server named by CRMKIT_TEST_REDIS_URL
// or skips the test.
func redisTestCache(t *testing.T, prefix string) *RedisCache {
	t.Helper()
	url := os.Getenv("CRMKIT_TEST_REDIS_URL")
	if url == "" {
		t.Skip("CRMKIT_TEST_REDIS_URL not set")
	}
	c, err := NewRedisCache(url, prefix, time.Minute)
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	t.Cleanup(func() {
		_ = c.Clear(context.Background())
		_ = c.Close()
	})
	return c
}

func TestRedisCacheStoresResolvedStacks(t *testing.T) {
	c := redisTestCache(t, "crmkit-test:")
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

func TestRedisCacheMissIsASentinel(t *testing.T) {
	c := redisTestCache(t, "crmkit-test:")

	if _, err := c.Get(context.Background(), "layers:1:/nope"); !errors.Is(err, ErrMiss) {
		t.Errorf("Get = %v, want ErrMiss", err)
	}
}

func TestRedisCacheExpiresEntries(t *testing.T) {
	c := redisTestCache(t, "crmkit-test:")
	ctx := context.Background()

	if err := c.Set(ctx, "layers:1:/", landingStack, 100*time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := c.Get(ctx, "layers:1:/"); err != nil {
		t.Fatalf("Get before expiry: %v", err)
	}
	time.Sleep(200 * time.Millisecond)
	if _, err := c.Get(ctx, "layers:1:/"); !errors.Is(err, ErrMiss) {
		t.Errorf("Get after expiry = %v, want ErrMiss", err)
	}
}

func TestRedisCacheClearHonorsPrefix(t *testing.T) {
	mine := redisTestCache(t, "crmkit-test:")
	other := redisTestCache(t, "crmkit-other:")
	ctx := context.Background()

	if err := mine.Set(ctx, "layers:1:/", landingStack, 0); err != nil {
		t.Fatalf("Set mine: %v", err)
	}
	if err := other.Set(ctx, "layers:1:/", landingStack, 0); err != nil {
		t.Fatalf("Set other: %v", err)
	}

	if err := mine.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := mine.Get(ctx, "layers:1:/"); !errors.Is(err, ErrMiss) {
		t.Errorf("own key survived Clear: %v", err)
	}
	if _, err := other.Get(ctx, "layers:1:/"); err != nil {
		t.Errorf("Clear crossed into another prefix: %v", err)
	}
}

func TestRedisCacheClose(t *testing.T) {
	url := os.Getenv("CRMKIT_TEST_REDIS_URL")
	if url == "" {
		t.Skip("CRMKIT_TEST_REDIS_URL not set")
	}
	c, err := NewRedisCache(url, "crmkit-test:", time.Minute)
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}

	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := c.Get(context.Background(), "layers:1:/"); !errors.Is(err, ErrClosed) {
		t.Errorf("Get after Close = %v, want ErrClosed", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close = %v, want nil", err)
	}
}

func TestNewRedisCacheRejectsBadURLs(t *testing.T) {
	if _, err := NewRedisCache("", "crmkit:", time.Minute); err == nil {
		t.Error("empty URL should fail")
	}
	if _, err := NewRedisCache("not-a-url", "crmkit:", time.Minute); err == nil {
		t.Error("unparseable URL should fail")
	}
}
