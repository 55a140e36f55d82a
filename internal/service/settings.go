// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/olegiv/uniblog/internal/apperror"
	"github.com/olegiv/uniblog/internal/model"
)

// DefaultSettingsTTL is how long fetched settings are served from memory.
const DefaultSettingsTTL = 5 * time.Minute

// SettingsLoader reads the persisted settings.
type SettingsLoader interface {
	GetSettings(ctx context.Context) (model.Settings, error)
}

// SettingsStore reads and writes the persisted settings.
type SettingsStore interface {
	SettingsLoader
	UpdateSettings(ctx context.Context, s model.Settings) error
}

type settingsEntry struct {
	value     model.Settings
	fetchedAt time.Time
}

// SettingsCache serves the site settings from memory for a fixed TTL.
//
// Reads and refreshes do not lock. Two requests that find the entry stale
// may both hit the store; the last one to finish wins.
type SettingsCache struct {
	loader SettingsLoader
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time

	entry atomic.Pointer[settingsEntry]
	loads atomic.Int64
}

// NewSettingsCache creates a cache over loader. A non-positive ttl uses
// DefaultSettingsTTL.
func NewSettingsCache(loader SettingsLoader, ttl time.Duration, logger *slog.Logger) *SettingsCache {
	if ttl <= 0 {
		ttl = DefaultSettingsTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SettingsCache{
		loader: loader,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// Get returns the cached settings when they are younger than the TTL and
// forceRefresh is false. Otherwise it reads the store. If the read fails the
// built-in defaults are returned and nothing is cached.
func (c *SettingsCache) Get(ctx context.Context, forceRefresh bool) model.Settings {
	if !forceRefresh {
		if e := c.entry.Load(); e != nil && c.now().Sub(e.fetchedAt) < c.ttl {
			return e.value
		}
	}

	c.loads.Add(1)
	s, err := c.loader.GetSettings(ctx)
	if err != nil {
		c.logger.Warn("failed to load settings, using defaults", "error", err)
		return model.DefaultSettings()
	}

	c.entry.Store(&settingsEntry{value: s, fetchedAt: c.now()})
	return s
}

// Clear drops the cached settings so the next Get reads the store.
func (c *SettingsCache) Clear() {
	c.entry.Store(nil)
}

// Loads returns how many times the store has been read.
func (c *SettingsCache) Loads() int64 {
	return c.loads.Load()
}

// SettingsInput holds the admin-editable flags.
type SettingsInput struct {
	MaintenanceMode     bool `json:"maintenance_mode"`
	RegistrationAllowed bool `json:"registration_allowed"`
	ApprovalRequired    bool `json:"approval_required"`
	AutoPublish         bool `json:"auto_publish"`
}

// SettingsService reads and updates the site settings.
type SettingsService struct {
	store  SettingsStore
	cache  *SettingsCache
	logger *slog.Logger
}

// NewSettingsService creates a settings service. Reads go through cache.
func NewSettingsService(store SettingsStore, cache *SettingsCache, logger *slog.Logger) *SettingsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SettingsService{store: store, cache: cache, logger: logger}
}

// Get returns the current settings.
func (s *SettingsService) Get(ctx context.Context) model.Settings {
	return s.cache.Get(ctx, false)
}

// Update replaces the settings. Only admins may change them.
func (s *SettingsService) Update(ctx context.Context, actor model.Actor, in SettingsInput) (model.Settings, error) {
	if !actor.IsAuthenticated() {
		return model.Settings{}, apperror.AuthenticationRequired("authentication required")
	}
	if !actor.IsAdmin() {
		s.logger.Warn("settings update denied", "actor_id", actor.ID)
		return model.Settings{}, apperror.Denied("only administrators can change settings")
	}

	updated := model.Settings{
		MaintenanceMode:     in.MaintenanceMode,
		RegistrationAllowed: in.RegistrationAllowed,
		ApprovalRequired:    in.ApprovalRequired,
		AutoPublish:         in.AutoPublish,
		UpdatedAt:           utcNow(),
	}
	updated.UpdatedBy.String, updated.UpdatedBy.Valid = actor.ID, true

	if err := s.store.UpdateSettings(ctx, updated); err != nil {
		return model.Settings{}, apperror.Unavailable("saving settings", err)
	}
	s.cache.Clear()

	s.logger.Info("settings updated",
		"actor_id", actor.ID,
		"maintenance_mode", updated.MaintenanceMode,
		"registration_allowed", updated.RegistrationAllowed,
		"approval_required", updated.ApprovalRequired,
		"auto_publish", updated.AutoPublish)

	return updated, nil
}
