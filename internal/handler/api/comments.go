// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/uniblog/internal/middleware"
	"github.com/olegiv/uniblog/internal/service"
)

// ListComments handles GET /api/v1/posts/{id}/comments.
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.comments.List(r.Context(), middleware.GetActor(r), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	resp := make([]CommentResponse, 0, len(comments))
	for i := range comments {
		resp = append(resp, commentToResponse(&comments[i]))
	}
	WriteSuccess(w, resp, nil)
}

// CreateComment handles POST /api/v1/posts/{id}/comments.
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	var req service.CommentInput
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := h.comments.Create(r.Context(), middleware.GetActor(r), chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteCreated(w, commentToResponse(c))
}

// ApproveComment handles POST /api/v1/comments/{id}/approve.
func (h *Handler) ApproveComment(w http.ResponseWriter, r *http.Request) {
	if err := h.comments.Approve(r.Context(), middleware.GetActor(r), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteNoContent(w)
}

// DeleteComment handles DELETE /api/v1/comments/{id}.
func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	if err := h.comments.Delete(r.Context(), middleware.GetActor(r), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteNoContent(w)
}
