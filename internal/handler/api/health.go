// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"net/http"
	"time"
)

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Version  string `json:"version,omitempty"`
}

// healthTimeout bounds the database ping.
const healthTimeout = 2 * time.Second

// Health handles GET /health. It answers 503 when the database is
// unreachable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if h.db == nil {
		WriteJSON(w, http.StatusOK, HealthStatus{Status: "healthy", Database: "unchecked", Version: h.version})
		return
	}
	if err := h.db.PingContext(ctx); err != nil {
		h.logger.Error("health check failed", "error", err)
		WriteJSON(w, http.StatusServiceUnavailable, HealthStatus{Status: "degraded", Database: "unreachable", Version: h.version})
		return
	}
	WriteJSON(w, http.StatusOK, HealthStatus{Status: "healthy", Database: "ok", Version: h.version})
}
