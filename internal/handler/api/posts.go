// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/uniblog/internal/apperror"
	"github.com/olegiv/uniblog/internal/middleware"
	"github.com/olegiv/uniblog/internal/model"
	"github.com/olegiv/uniblog/internal/service"
	"github.com/olegiv/uniblog/internal/util"
)

// RejectRequest is the body of POST /posts/{id}/reject.
type RejectRequest struct {
	Reason string `json:"reason"`
}

// withAuthor resolves the author of p for the response. Lookup failures
// leave the author unresolved.
func (h *Handler) withAuthor(ctx context.Context, p *model.Post) PostResponse {
	ref, err := h.users.ResolveAuthor(ctx, p.Author)
	if err != nil {
		h.logger.Debug("post author not resolved", "post_id", p.ID, "author_id", p.AuthorID(), "error", err)
	} else {
		p.Author = ref
	}
	return postToResponse(p)
}

func (h *Handler) writePostList(w http.ResponseWriter, list *service.PostList) {
	WriteSuccess(w, postsToResponse(list.Posts), pageMeta(list.Page))
}

// ListPosts handles GET /api/v1/posts.
// Query parameters: category, page, per_page.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	page, perPage := parsePagination(r)
	list, err := h.posts.ListPublished(r.Context(), page, perPage, r.URL.Query().Get("category"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writePostList(w, list)
}

// ListMyPosts handles GET /api/v1/posts/mine.
// Query parameters: status, page, per_page.
func (h *Handler) ListMyPosts(w http.ResponseWriter, r *http.Request) {
	page, perPage := parsePagination(r)
	list, err := h.posts.ListMine(r.Context(), middleware.GetActor(r), r.URL.Query().Get("status"), page, perPage)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writePostList(w, list)
}

// ListPendingPosts handles GET /api/v1/posts/pending.
func (h *Handler) ListPendingPosts(w http.ResponseWriter, r *http.Request) {
	page, perPage := parsePagination(r)
	list, err := h.posts.ListPending(r.Context(), middleware.GetActor(r), page, perPage)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writePostList(w, list)
}

// GetPost handles GET /api/v1/posts/{id}.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	p, err := h.posts.Get(r.Context(), middleware.GetActor(r), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, h.withAuthor(r.Context(), p), nil)
}

// GetPostBySlug handles GET /api/v1/posts/slug/{slug}. Anonymous reads are
// served from the published-post cache.
func (h *Handler) GetPostBySlug(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.GetActor(r)
	slug := chi.URLParam(r, "slug")
	if !util.IsValidSlug(slug) {
		WriteError(w, http.StatusNotFound, string(apperror.KindNotFound), "Post not found", nil)
		return
	}

	load := func(ctx context.Context) (*model.Post, error) {
		return h.posts.GetBySlug(ctx, actor, slug)
	}

	var (
		p   *model.Post
		err error
	)
	if h.postCache != nil && !actor.IsAuthenticated() {
		p, err = h.postCache.GetOrLoad(ctx, slug, load)
	} else {
		p, err = load(ctx)
	}
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, h.withAuthor(ctx, p), nil)
}

// CreatePost handles POST /api/v1/posts.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req service.PostInput
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.posts.Create(r.Context(), middleware.GetActor(r), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteCreated(w, postToResponse(p))
}

// UpdatePost handles PUT /api/v1/posts/{id}. Editing a published post sends
// it back to review.
func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	var req service.PostInput
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.posts.Update(r.Context(), middleware.GetActor(r), chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, postToResponse(p), nil)
}

// DeletePost handles DELETE /api/v1/posts/{id}.
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	if err := h.posts.Delete(r.Context(), middleware.GetActor(r), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteNoContent(w)
}

// transition runs a workflow operation on the post named in the URL.
func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, actor model.Actor, id string) (*model.Post, error)) {
	p, err := op(r.Context(), middleware.GetActor(r), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, postToResponse(p), nil)
}

// SubmitPost handles POST /api/v1/posts/{id}/submit.
func (h *Handler) SubmitPost(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.posts.Submit)
}

// ApprovePost handles POST /api/v1/posts/{id}/approve.
func (h *Handler) ApprovePost(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.posts.Approve)
}

// RejectPost handles POST /api/v1/posts/{id}/reject.
func (h *Handler) RejectPost(w http.ResponseWriter, r *http.Request) {
	var req RejectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.transition(w, r, func(ctx context.Context, actor model.Actor, id string) (*model.Post, error) {
		return h.posts.Reject(ctx, actor, id, req.Reason)
	})
}

// PostVersions handles GET /api/v1/posts/{id}/versions.
func (h *Handler) PostVersions(w http.ResponseWriter, r *http.Request) {
	versions, err := h.posts.Versions(r.Context(), middleware.GetActor(r), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, versions, nil)
}
