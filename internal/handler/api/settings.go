// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/olegiv/uniblog/internal/middleware"
	"github.com/olegiv/uniblog/internal/service"
)

// GetSettings handles GET /api/v1/settings.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, settingsToResponse(h.settings.Get(r.Context())), nil)
}

// UpdateSettings handles PUT /api/v1/settings. The request replaces every
// flag.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req service.SettingsInput
	if !decodeJSON(w, r, &req) {
		return
	}

	s, err := h.settings.Update(r.Context(), middleware.GetActor(r), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, settingsToResponse(s), nil)
}
