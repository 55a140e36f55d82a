// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/uniblog/internal/middleware"
)

// ListPendingUsers handles GET /api/v1/users/pending.
func (h *Handler) ListPendingUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListPending(r.Context(), middleware.GetActor(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	resp := make([]UserResponse, 0, len(users))
	for i := range users {
		resp = append(resp, userToResponse(&users[i]))
	}
	WriteSuccess(w, resp, nil)
}

// ApproveUser handles POST /api/v1/users/{id}/approve.
func (h *Handler) ApproveUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Approve(r.Context(), middleware.GetActor(r), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, userToResponse(u), nil)
}
