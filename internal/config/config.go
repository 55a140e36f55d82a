// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads uniblog's configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// DefaultAdminPassword is the seeded admin password used when none is configured.
const DefaultAdminPassword = "changeme"

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"UNIBLOG_DB_PATH" envDefault:"./data/uniblog.db"`
	SessionSecret string `env:"UNIBLOG_SESSION_SECRET,required"`
	ServerHost    string `env:"UNIBLOG_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"UNIBLOG_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"UNIBLOG_ENV" envDefault:"development"`
	LogLevel      string `env:"UNIBLOG_LOG_LEVEL" envDefault:"info"`

	// Cache configuration
	RedisURL         string `env:"UNIBLOG_REDIS_URL"`
	CachePrefix      string `env:"UNIBLOG_CACHE_PREFIX" envDefault:"uniblog:"`
	CacheTTL         int    `env:"UNIBLOG_CACHE_TTL" envDefault:"300"`    // seconds
	CacheMaxSize     int    `env:"UNIBLOG_CACHE_MAX_SIZE" envDefault:"10000"`
	CacheFallback    bool   `env:"UNIBLOG_CACHE_FALLBACK" envDefault:"true"`
	SettingsCacheTTL int    `env:"UNIBLOG_SETTINGS_TTL" envDefault:"300"` // seconds

	// Notifications
	WebhookURL    string `env:"UNIBLOG_WEBHOOK_URL"`
	WebhookSecret string `env:"UNIBLOG_WEBHOOK_SECRET"`
	NotifyChannel string `env:"UNIBLOG_NOTIFY_CHANNEL" envDefault:"uniblog:notifications"`

	CORSOrigins []string `env:"UNIBLOG_CORS_ORIGINS" envSeparator:"," envDefault:"*"`

	// Seeding configuration
	AdminEmail    string `env:"UNIBLOG_ADMIN_EMAIL" envDefault:"admin@example.edu"`
	AdminPassword string `env:"UNIBLOG_ADMIN_PASSWORD" envDefault:"changeme"`
	DoSeed        bool   `env:"UNIBLOG_DO_SEED" envDefault:"true"`

	EventRetentionDays int `env:"UNIBLOG_EVENT_RETENTION_DAYS" envDefault:"30"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedis returns true if Redis is configured.
func (c Config) UseRedis() bool {
	return c.RedisURL != ""
}

// WebhookEnabled returns true if a notification webhook is configured.
func (c Config) WebhookEnabled() bool {
	return c.WebhookURL != ""
}

// PostCacheTTL returns the published-post cache TTL.
func (c Config) PostCacheTTL() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// SettingsTTL returns the settings cache TTL.
func (c Config) SettingsTTL() time.Duration {
	return time.Duration(c.SettingsCacheTTL) * time.Second
}

// EventRetention returns how long audit events are kept.
func (c Config) EventRetention() time.Duration {
	return time.Duration(c.EventRetentionDays) * 24 * time.Hour
}

// SlogLevel maps LogLevel to a slog level. Unknown values mean info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// MinSessionSecretLength is the minimum required length for the session secret.
// AES-256 requires 32 bytes minimum for secure encryption.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	return parse(env.Options{})
}

// LoadFrom parses configuration from the given variables instead of the
// process environment.
func LoadFrom(environ map[string]string) (*Config, error) {
	return parse(env.Options{Environment: environ})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("UNIBLOG_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}
	if cfg.DoSeed && cfg.AdminPassword == DefaultAdminPassword && !cfg.IsDevelopment() {
		slog.Warn("seeding the admin account with the default password; set UNIBLOG_ADMIN_PASSWORD")
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.SessionSecret) < MinSessionSecretLength {
		return fmt.Errorf("UNIBLOG_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(c.SessionSecret))
	}
	for _, weak := range knownWeakSecrets {
		if c.SessionSecret == weak {
			return errors.New("UNIBLOG_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	switch c.Env {
	case "development", "production":
	default:
		return fmt.Errorf("UNIBLOG_ENV must be development or production, got %q", c.Env)
	}
	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return fmt.Errorf("UNIBLOG_SERVER_PORT out of range: %d", c.ServerPort)
	}
	if c.CacheTTL < 1 || c.SettingsCacheTTL < 1 {
		return errors.New("UNIBLOG_CACHE_TTL and UNIBLOG_SETTINGS_TTL must be positive")
	}
	if c.EventRetentionDays < 1 {
		return errors.New("UNIBLOG_EVENT_RETENTION_DAYS must be positive")
	}
	if (c.WebhookURL == "") != (c.WebhookSecret == "") {
		return errors.New("UNIBLOG_WEBHOOK_URL and UNIBLOG_WEBHOOK_SECRET must be set together")
	}
	return nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
