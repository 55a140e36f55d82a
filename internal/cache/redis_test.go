// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

// skipIfNoRedis skips the test unless UNIBLOG_TEST_REDIS_URL is set.
func skipIfNoRedis(t *testing.T) string {
	t.Helper()
	url := os.Getenv("UNIBLOG_TEST_REDIS_URL")
	if url == "" {
		t.Skip("Skipping Redis tests: UNIBLOG_TEST_REDIS_URL not set")
	}
	return url
}

func newTestRedisCache(t *testing.T, prefix string) *RedisCache {
	t.Helper()
	url := skipIfNoRedis(t)

	c, err := NewRedisCacheFromURL(url, prefix, time.Minute)
	if err != nil {
		t.Fatalf("NewRedisCacheFromURL: %v", err)
	}
	_ = c.Clear(context.Background())
	t.Cleanup(func() {
		_ = c.Clear(context.Background())
		_ = c.Close()
	})
	return c
}

func TestRedisCache_Basic(t *testing.T) {
	c := newTestRedisCache(t, "uniblog-test:basic:")
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := c.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Fatalf("Get = %q, %v; want v", got, err)
	}
	if has, _ := c.Has(ctx, "k"); !has {
		t.Error("expected key to exist")
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get after Delete = %v, want ErrCacheMiss", err)
	}
	if s := c.Stats(); s.Hits != 1 || s.Misses != 1 || s.Sets != 1 {
		t.Errorf("Stats = %+v", s)
	}
}

func TestRedisCache_ClearIsScopedToPrefix(t *testing.T) {
	a := newTestRedisCache(t, "uniblog-test:a:")
	b := newTestRedisCache(t, "uniblog-test:b:")
	ctx := context.Background()

	_ = a.Set(ctx, "post:1", []byte("1"), 0)
	_ = a.Set(ctx, "user:1", []byte("1"), 0)
	_ = b.Set(ctx, "post:1", []byte("1"), 0)

	if err := a.DeleteByPrefix(ctx, "post:"); err != nil {
		t.Fatalf("DeleteByPrefix: %v", err)
	}
	if has, _ := a.Has(ctx, "user:1"); !has {
		t.Error("DeleteByPrefix removed an unrelated key")
	}

	if err := a.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if has, _ := b.Has(ctx, "post:1"); !has {
		t.Error("Clear removed keys under another prefix")
	}
}

func TestRedisCache_Close(t *testing.T) {
	url := skipIfNoRedis(t)
	c, err := NewRedisCacheFromURL(url, "uniblog-test:close:", time.Minute)
	if err != nil {
		t.Fatalf("NewRedisCacheFromURL: %v", err)
	}

	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := c.Ping(context.Background()); !errors.Is(err, ErrCacheClosed) {
		t.Errorf("Ping after Close = %v, want ErrCacheClosed", err)
	}
}

func TestRedisCache_BadURL(t *testing.T) {
	if _, err := NewRedisCacheFromURL("", "x:", time.Minute); err == nil {
		t.Error("expected error for empty URL")
	}
	if _, err := NewRedisCacheFromURL("invalid-url", "x:", time.Minute); err == nil {
		t.Error("expected error for invalid URL")
	}
}
