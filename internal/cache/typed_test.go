// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"testing"
	"time"
)

// layerStack stands in for the resolved stacks the service layer caches.
type layerStack struct {
	ContentID int64   `json:"content_id"`
	MasterIDs []int64 `json:"master_ids"`
}

func TestTypedCacheRoundTrip(t *testing.T) {
	backend := NewSimpleMemoryCache(time.Minute)
	defer func() { _ = backend.Close() }()
	c := NewTypedCache[layerStack](backend, time.Minute)
	ctx := context.Background()

	stack := &layerStack{ContentID: 3, MasterIDs: []int64{1, 2}}
	if err := c.Set(ctx, "layers:1:/pricing", stack); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, ok := c.Get(ctx, "layers:1:/pricing")
	if !ok {
		t.Fatal("Get did not find the stored stack")
	}
	if got.ContentID != 3 || len(got.MasterIDs) != 2 {
		t.Errorf("got = %+v", got)
	}
}

func TestTypedCacheMissAndDelete(t *testing.T) {
	backend := NewSimpleMemoryCache(time.Minute)
	defer func() { _ = backend.Close() }()
	c := NewTypedCache[layerStack](backend, time.Minute)
	ctx := context.Background()

	if _, ok := c.Get(ctx, "layers:1:/unknown"); ok {
		t.Error("Get reported a hit for an absent key")
	}

	_ = c.Set(ctx, "layers:1:/", &layerStack{ContentID: 7})
	if err := c.Delete(ctx, "layers:1:/"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := c.Get(ctx, "layers:1:/"); ok {
		t.Error("Get reported a hit after Delete")
	}
}

func TestTypedCacheExplicitTTL(t *testing.T) {
	backend := NewSimpleMemoryCache(time.Hour)
	defer func() { _ = backend.Close() }()
	c := NewTypedCache[layerStack](backend, time.Hour)
	ctx := context.Background()

	if err := c.SetWithTTL(ctx, "layers:1:/", &layerStack{ContentID: 7}, 30*time.Millisecond); err != nil {
		t.Fatalf("SetWithTTL: %v", err)
	}
	if _, ok := c.Get(ctx, "layers:1:/"); !ok {
		t.Fatal("stack missing right after SetWithTTL")
	}
	time.Sleep(50 * time.Millisecond)
	if _, ok := c.Get(ctx, "layers:1:/"); ok {
		t.Error("stack survived its TTL")
	}
}

func TestTypedCacheTreatsCorruptPayloadAsMiss(t *testing.T) {
	backend := NewSimpleMemoryCache(time.Minute)
	defer func() { _ = backend.Close() }()
	c := NewTypedCache[layerStack](backend, time.Minute)
	ctx := context.Background()

	// A payload written by an older build may no longer decode.
	if err := backend.Set(ctx, "layers:1:/", []byte(`{"content_id":"not-a-number"`), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok := c.Get(ctx, "layers:1:/"); ok {
		t.Error("corrupt payload should read as a miss")
	}
}
