// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"log/slog"
	"net/url"
	"time"
)

// Backend names a cache implementation.
type Backend string

// Cache backends
const (
	BackendMemory Backend = "memory"
	BackendRedis  Backend = "redis"
)

// Config holds configuration for cache creation.
type Config struct {
	// RedisURL selects the Redis backend when set.
	RedisURL string

	// Prefix is the Redis key prefix.
	Prefix string

	DefaultTTL      time.Duration
	MaxSize         int // memory only, 0 = unlimited
	CleanupInterval time.Duration

	// FallbackToMemory uses a memory cache when Redis is unreachable.
	FallbackToMemory bool
}

// Result is a created cache and the backend actually in use.
type Result struct {
	Cache      Cacher
	Backend    Backend
	IsFallback bool

	// Redis is set when Backend is BackendRedis.
	Redis *RedisCache
}

// New creates a cache from cfg. Without a Redis URL a memory cache is
// returned. If Redis cannot be reached and FallbackToMemory is set, a memory
// cache is returned instead of an error.
func New(cfg Config, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.RedisURL != "" {
		rc, err := NewRedisCacheFromURL(cfg.RedisURL, cfg.Prefix, cfg.DefaultTTL)
		if err == nil {
			logger.Info("using redis cache", "url", SanitizeRedisURL(cfg.RedisURL), "prefix", rc.prefix)
			return Result{Cache: rc, Backend: BackendRedis, Redis: rc}, nil
		}
		if !cfg.FallbackToMemory {
			return Result{}, err
		}
		logger.Warn("redis unavailable, falling back to memory cache",
			"url", SanitizeRedisURL(cfg.RedisURL), "error", err)
		return Result{Cache: newMemory(cfg), Backend: BackendMemory, IsFallback: true}, nil
	}

	return Result{Cache: newMemory(cfg), Backend: BackendMemory}, nil
}

func newMemory(cfg Config) *MemoryCache {
	return NewMemoryCache(MemoryCacheOptions{
		DefaultTTL:      cfg.DefaultTTL,
		MaxSize:         cfg.MaxSize,
		CleanupInterval: cfg.CleanupInterval,
	})
}

// SanitizeRedisURL masks the password in a Redis URL for logging.
func SanitizeRedisURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "[invalid URL]"
	}
	if u.User == nil {
		return raw
	}
	if _, hasPassword := u.User.Password(); hasPassword {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}
