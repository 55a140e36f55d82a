// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/olegiv/uniblog/internal/model"
)

// SettingsSource returns the current site settings.
type SettingsSource interface {
	Get(ctx context.Context, forceRefresh bool) model.Settings
}

// Maintenance path rules
const (
	apiPrefix     = "/api/"
	authAPIPrefix = "/api/v1/auth/"
)

// Maintenance answers 503 for API requests while maintenance mode is on.
// Auth routes and administrators pass through. It must run after LoadActor.
func Maintenance(settings SettingsSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if !strings.HasPrefix(path, apiPrefix) || strings.HasPrefix(path, authAPIPrefix) {
				next.ServeHTTP(w, r)
				return
			}
			if GetActor(r).IsAdmin() {
				next.ServeHTTP(w, r)
				return
			}
			if settings.Get(r.Context(), false).MaintenanceMode {
				w.Header().Set("Retry-After", "300")
				WriteAPIError(w, http.StatusServiceUnavailable, "maintenance", "The site is under maintenance. Please try again later.", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
