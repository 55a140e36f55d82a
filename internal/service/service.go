// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service implements the blog's business rules: the post review
// workflow, slug assignment, comments, user registration and the cached
// site settings.
package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/uniblog/internal/apperror"
	"github.com/olegiv/uniblog/internal/model"
	"github.com/olegiv/uniblog/internal/notify"
	"github.com/olegiv/uniblog/internal/store"
)

// PostStore persists posts and their history.
type PostStore interface {
	SlugChecker
	CreatePost(ctx context.Context, p model.Post) error
	UpdatePost(ctx context.Context, p model.Post) error
	GetPost(ctx context.Context, id string) (model.Post, error)
	GetPostBySlug(ctx context.Context, slug string) (model.Post, error)
	DeletePost(ctx context.Context, id string) error
	ListPosts(ctx context.Context, arg store.ListPostsParams) ([]model.Post, error)
	CountPosts(ctx context.Context, arg store.ListPostsParams) (int64, error)
	UpdatePostWithVersion(ctx context.Context, p model.Post, v model.PostVersion) error
	ListPostVersions(ctx context.Context, postID string) ([]model.PostVersion, error)
}

// UserStore persists users.
type UserStore interface {
	CreateUser(ctx context.Context, u model.User) error
	GetUserByID(ctx context.Context, id string) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	ListPendingUsers(ctx context.Context) ([]model.User, error)
	ApproveUser(ctx context.Context, id string, at time.Time) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}

// CommentStore persists comments.
type CommentStore interface {
	CreateComment(ctx context.Context, c model.Comment) error
	GetComment(ctx context.Context, id string) (model.Comment, error)
	ListComments(ctx context.Context, postID string, includeUnapproved bool) ([]model.Comment, error)
	ApproveComment(ctx context.Context, id string) error
	DeleteComment(ctx context.Context, id string) error
}

// SettingsProvider returns the current site settings.
type SettingsProvider interface {
	Get(ctx context.Context, forceRefresh bool) model.Settings
}

// PostCacheInvalidator drops cached copies of a published post.
type PostCacheInvalidator interface {
	InvalidatePost(ctx context.Context, slug string)
}

// Compile-time checks that the SQLite store satisfies the service interfaces.
var (
	_ PostStore     = (*store.Queries)(nil)
	_ UserStore     = (*store.Queries)(nil)
	_ CommentStore  = (*store.Queries)(nil)
	_ SettingsStore = (*store.Queries)(nil)
)

func newID() string {
	return uuid.NewString()
}

func utcNow() time.Time {
	return time.Now().UTC()
}

// storeError classifies a store failure. Missing rows become NotFound for
// entity; everything else is an upstream failure.
func storeError(entity string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.NotFound(entity)
	}
	return apperror.Unavailable("loading "+entity, err)
}

// deliver sends n and logs a failure. Notifications never fail a transition.
func deliver(ctx context.Context, logger *slog.Logger, notifier notify.Notifier, n notify.Notification) {
	if notifier == nil {
		return
	}
	if err := notifier.Notify(ctx, n); err != nil {
		logger.Warn("notification delivery failed",
			"type", n.Type,
			"recipient_id", n.RecipientID,
			"post_id", n.PostID,
			"error", err)
	}
}

// Page describes a page of results.
type Page struct {
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
}

// Pagination limits
const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// NormalizePage clamps page and perPage to valid values.
func NormalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return page, perPage
}
