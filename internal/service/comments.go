// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/olegiv/uniblog/internal/apperror"
	"github.com/olegiv/uniblog/internal/authz"
	"github.com/olegiv/uniblog/internal/model"
	"github.com/olegiv/uniblog/internal/util"
)

// CommentInput is a new comment.
type CommentInput struct {
	Content  string `json:"content"`
	ParentID string `json:"parent_id,omitempty"`
}

// PostReader loads posts by id.
type PostReader interface {
	GetPost(ctx context.Context, id string) (model.Post, error)
}

// UserReader loads users by id.
type UserReader interface {
	GetUserByID(ctx context.Context, id string) (model.User, error)
}

// CommentService manages reader comments.
type CommentService struct {
	comments CommentStore
	posts    PostReader
	users    UserReader
	settings SettingsProvider
	logger   *slog.Logger
	now      func() time.Time
}

// NewCommentService creates a comment service.
func NewCommentService(comments CommentStore, posts PostReader, users UserReader, settings SettingsProvider, logger *slog.Logger) *CommentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommentService{
		comments: comments,
		posts:    posts,
		users:    users,
		settings: settings,
		logger:   logger,
		now:      utcNow,
	}
}

// Create adds a comment to a published post. The post, the commenting user
// and the parent comment, if any, must exist; the parent must belong to the
// same post. Comments by admins, or made while approval is not required,
// are approved immediately.
func (s *CommentService) Create(ctx context.Context, actor model.Actor, postID string, in CommentInput) (*model.Comment, error) {
	if !actor.IsAuthenticated() {
		return nil, apperror.AuthenticationRequired("authentication required")
	}

	post, err := s.posts.GetPost(ctx, postID)
	if err != nil {
		return nil, storeError("post", err)
	}
	facts := authz.Facts(&post)
	if !authz.CanView(actor, facts) {
		return nil, apperror.NotFound("post")
	}
	if !authz.CanComment(actor, facts) {
		s.logger.Warn("comment denied", "post_id", post.ID, "status", post.Status, "actor_id", actor.ID)
		if !actor.Approved {
			return nil, apperror.Denied("your account is awaiting approval")
		}
		return nil, apperror.Denied("comments are only allowed on published posts")
	}

	if _, err := s.users.GetUserByID(ctx, actor.ID); err != nil {
		return nil, storeError("user", err)
	}

	content := util.SanitizeHTML(in.Content)
	switch {
	case content == "":
		return nil, apperror.FieldError("content", "Comment cannot be empty")
	case utf8.RuneCountInString(content) > model.MaxCommentLength:
		return nil, apperror.FieldError("content", "Comment must be at most 2000 characters")
	}

	c := &model.Comment{
		ID:         newID(),
		PostID:     post.ID,
		AuthorID:   actor.ID,
		Content:    content,
		IsApproved: actor.IsAdmin() || !s.settings.Get(ctx, false).ApprovalRequired,
		CreatedAt:  s.now(),
	}

	if parentID := strings.TrimSpace(in.ParentID); parentID != "" {
		parent, err := s.comments.GetComment(ctx, parentID)
		if err != nil {
			return nil, storeError("parent comment", err)
		}
		// Unapproved comments are hidden from everyone but admins.
		if !parent.IsApproved && !actor.IsAdmin() {
			return nil, apperror.NotFound("parent comment")
		}
		if parent.PostID != post.ID {
			return nil, apperror.FieldError("parent_id", "Parent comment belongs to a different post")
		}
		c.ParentID = sql.NullString{String: parent.ID, Valid: true}
	}

	if err := s.comments.CreateComment(ctx, *c); err != nil {
		return nil, apperror.Unavailable("saving comment", err)
	}
	s.logger.Info("comment created",
		"comment_id", c.ID,
		"post_id", c.PostID,
		"actor_id", actor.ID,
		"approved", c.IsApproved)
	return c, nil
}

// List returns the comments of a post the actor can view. Unapproved
// comments are shown to admins only.
func (s *CommentService) List(ctx context.Context, actor model.Actor, postID string) ([]model.Comment, error) {
	post, err := s.posts.GetPost(ctx, postID)
	if err != nil {
		return nil, storeError("post", err)
	}
	if !authz.CanView(actor, authz.Facts(&post)) {
		return nil, apperror.NotFound("post")
	}

	comments, err := s.comments.ListComments(ctx, post.ID, actor.IsAdmin())
	if err != nil {
		return nil, apperror.Unavailable("listing comments", err)
	}
	if comments == nil {
		comments = []model.Comment{}
	}
	return comments, nil
}

func requireModerator(actor model.Actor) error {
	if !actor.IsAuthenticated() {
		return apperror.AuthenticationRequired("authentication required")
	}
	if !authz.CanModerate(actor) {
		return apperror.Denied("only administrators can moderate comments")
	}
	return nil
}

// Approve makes a comment visible. Admin only.
func (s *CommentService) Approve(ctx context.Context, actor model.Actor, id string) error {
	if err := requireModerator(actor); err != nil {
		return err
	}
	if err := s.comments.ApproveComment(ctx, id); err != nil {
		return storeError("comment", err)
	}
	s.logger.Info("comment approved", "comment_id", id, "actor_id", actor.ID)
	return nil
}

// Delete removes a comment and its replies. Admin only.
func (s *CommentService) Delete(ctx context.Context, actor model.Actor, id string) error {
	if err := requireModerator(actor); err != nil {
		return err
	}
	if err := s.comments.DeleteComment(ctx, id); err != nil {
		return storeError("comment", err)
	}
	s.logger.Info("comment deleted", "comment_id", id, "actor_id", actor.ID)
	return nil
}
