// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// MemoryCache is a thread-safe in-process cache.
type MemoryCache struct {
	data       sync.Map
	defaultTTL time.Duration
	maxSize    int // 0 = unlimited
	now        func() time.Time
	stopCh     chan struct{}
	closed     atomic.Bool

	hits   atomic.Int64
	misses atomic.Int64
	sets   atomic.Int64
	size   atomic.Int64 // approximate, in bytes
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCacheOptions configures the memory cache.
type MemoryCacheOptions struct {
	DefaultTTL      time.Duration
	MaxSize         int           // Maximum number of entries (0 = unlimited)
	CleanupInterval time.Duration // 0 disables background cleanup
}

// NewMemoryCache creates a new memory cache with the given options.
func NewMemoryCache(opts MemoryCacheOptions) *MemoryCache {
	c := &MemoryCache{
		defaultTTL: opts.DefaultTTL,
		maxSize:    opts.MaxSize,
		now:        time.Now,
		stopCh:     make(chan struct{}),
	}
	if opts.CleanupInterval > 0 {
		go c.cleanupLoop(opts.CleanupInterval)
	}
	return c
}

// Get retrieves a copy of the stored value.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrCacheClosed
	}

	val, ok := c.data.Load(key)
	if !ok {
		c.misses.Add(1)
		return nil, ErrCacheMiss
	}
	entry := val.(*memoryEntry)
	if c.expired(entry) {
		c.deleteEntry(key, entry)
		c.misses.Add(1)
		return nil, ErrCacheMiss
	}

	c.hits.Add(1)
	return append([]byte(nil), entry.value...), nil
}

// Set stores a copy of value.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	if c.maxSize > 0 && c.count() >= c.maxSize {
		c.removeExpired()
		if _, exists := c.data.Load(key); !exists && c.count() >= c.maxSize {
			c.evictOne()
		}
	}

	entry := &memoryEntry{
		value:     append([]byte(nil), value...),
		expiresAt: c.now().Add(ttl),
	}
	if old, loaded := c.data.Swap(key, entry); loaded {
		c.size.Add(-int64(len(old.(*memoryEntry).value)))
	}
	c.size.Add(int64(len(entry.value)))
	c.sets.Add(1)
	return nil
}

// Delete removes a key from the cache.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}
	if val, loaded := c.data.LoadAndDelete(key); loaded {
		c.size.Add(-int64(len(val.(*memoryEntry).value)))
	}
	return nil
}

// DeleteByPrefix removes all keys starting with prefix.
func (c *MemoryCache) DeleteByPrefix(_ context.Context, prefix string) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}
	c.data.Range(func(key, value any) bool {
		if k := key.(string); strings.HasPrefix(k, prefix) {
			c.deleteEntry(k, value.(*memoryEntry))
		}
		return true
	})
	return nil
}

// Clear removes all entries from the cache.
func (c *MemoryCache) Clear(_ context.Context) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}
	c.data.Clear()
	c.size.Store(0)
	return nil
}

// Has reports whether an unexpired entry exists for key.
func (c *MemoryCache) Has(_ context.Context, key string) (bool, error) {
	if c.closed.Load() {
		return false, ErrCacheClosed
	}
	val, ok := c.data.Load(key)
	if !ok {
		return false, nil
	}
	entry := val.(*memoryEntry)
	if c.expired(entry) {
		c.deleteEntry(key, entry)
		return false, nil
	}
	return true, nil
}

// Close stops the cleanup goroutine. Further calls fail with ErrCacheClosed.
func (c *MemoryCache) Close() error {
	if c.closed.CompareAndSwap(false, true) {
		close(c.stopCh)
	}
	return nil
}

// Stats returns current cache statistics.
func (c *MemoryCache) Stats() Stats {
	hits, misses := c.hits.Load(), c.misses.Load()
	return Stats{
		Hits:    hits,
		Misses:  misses,
		Sets:    c.sets.Load(),
		Items:   c.count(),
		HitRate: hitRate(hits, misses),
		Size:    c.size.Load(),
	}
}

// ResetStats resets the cache statistics.
func (c *MemoryCache) ResetStats() {
	c.hits.Store(0)
	c.misses.Store(0)
	c.sets.Store(0)
}

func (c *MemoryCache) expired(e *memoryEntry) bool {
	return !c.now().Before(e.expiresAt)
}

func (c *MemoryCache) count() int {
	n := 0
	c.data.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (c *MemoryCache) deleteEntry(key string, entry *memoryEntry) {
	if c.data.CompareAndDelete(key, entry) {
		c.size.Add(-int64(len(entry.value)))
	}
}

func (c *MemoryCache) removeExpired() {
	c.data.Range(func(key, value any) bool {
		if entry := value.(*memoryEntry); c.expired(entry) {
			c.deleteEntry(key.(string), entry)
		}
		return true
	})
}

// evictOne drops the entry closest to expiry.
func (c *MemoryCache) evictOne() {
	var (
		victim string
		entry  *memoryEntry
	)
	c.data.Range(func(key, value any) bool {
		e := value.(*memoryEntry)
		if entry == nil || e.expiresAt.Before(entry.expiresAt) {
			victim, entry = key.(string), e
		}
		return true
	})
	if entry != nil {
		c.deleteEntry(victim, entry)
	}
}

func (c *MemoryCache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stopCh:
			return
		}
	}
}

var (
	_ Cacher        = (*MemoryCache)(nil)
	_ StatsProvider = (*MemoryCache)(nil)
)
