// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/olegiv/uniblog/internal/apperror"
	"github.com/olegiv/uniblog/internal/authz"
	"github.com/olegiv/uniblog/internal/model"
	"github.com/olegiv/uniblog/internal/notify"
	"github.com/olegiv/uniblog/internal/store"
	"github.com/olegiv/uniblog/internal/util"
)

// Content limits
const (
	MaxTitleLength        = 200
	MaxCategoryLength     = 64
	MaxRejectReasonLength = 500
)

// PostInput is the author-editable content of a post.
type PostInput struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	Category string `json:"category"`
	// Submit sends a new post straight to review.
	Submit bool `json:"submit"`
}

// normalize trims and sanitizes the input and validates it.
func (in PostInput) normalize() (PostInput, error) {
	out := PostInput{
		Title:    strings.TrimSpace(in.Title),
		Body:     util.SanitizeHTML(in.Body),
		Category: strings.ToLower(strings.TrimSpace(in.Category)),
		Submit:   in.Submit,
	}

	fields := make(map[string]string)
	switch {
	case out.Title == "":
		fields["title"] = "Title is required"
	case utf8.RuneCountInString(out.Title) > MaxTitleLength:
		fields["title"] = "Title must be at most 200 characters"
	}
	if out.Body == "" {
		fields["body"] = "Body is required"
	}
	if utf8.RuneCountInString(out.Category) > MaxCategoryLength {
		fields["category"] = "Category must be at most 64 characters"
	}

	if len(fields) > 0 {
		return PostInput{}, apperror.Validation("Invalid post", fields)
	}
	return out, nil
}

// PostList is a page of posts.
type PostList struct {
	Posts []model.Post `json:"posts"`
	Page
}

// PostService owns every change to a post's status.
type PostService struct {
	posts       PostStore
	slugs       *SlugResolver
	settings    SettingsProvider
	notifier    notify.Notifier
	invalidator PostCacheInvalidator
	logger      *slog.Logger
	now         func() time.Time
}

// NewPostService creates the post workflow.
func NewPostService(posts PostStore, settings SettingsProvider, notifier notify.Notifier, logger *slog.Logger) *PostService {
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = notify.Nop
	}
	return &PostService{
		posts:    posts,
		slugs:    NewSlugResolver(posts),
		settings: settings,
		notifier: notifier,
		logger:   logger,
		now:      utcNow,
	}
}

// SetCacheInvalidator registers a cache to purge when published content changes.
func (s *PostService) SetCacheInvalidator(inv PostCacheInvalidator) {
	s.invalidator = inv
}

func (s *PostService) invalidate(ctx context.Context, slug string) {
	if s.invalidator != nil && slug != "" {
		s.invalidator.InvalidatePost(ctx, slug)
	}
}

func (s *PostService) logTransition(p *model.Post, from string, actor model.Actor) {
	s.logger.Info("post status changed",
		"post_id", p.ID,
		"from", from,
		"to", p.Status,
		"actor_id", actor.ID)
}

func (s *PostService) deny(action, postID string, actor model.Actor, format string, args ...any) error {
	s.logger.Warn("post transition denied",
		"action", action,
		"post_id", postID,
		"actor_id", actor.ID)
	return apperror.Denied(format, args...)
}

// load fetches a post the actor is allowed to see. Posts the actor cannot
// view are reported as missing.
func (s *PostService) load(ctx context.Context, actor model.Actor, id string) (*model.Post, error) {
	p, err := s.posts.GetPost(ctx, id)
	if err != nil {
		return nil, storeError("post", err)
	}
	if !authz.CanView(actor, authz.Facts(&p)) {
		return nil, apperror.NotFound("post")
	}
	return &p, nil
}

func requireAuthor(actor model.Actor) error {
	if !actor.IsAuthenticated() {
		return apperror.AuthenticationRequired("authentication required")
	}
	if !actor.Approved {
		return apperror.Denied("your account is awaiting approval")
	}
	return nil
}

// autoPublishes reports whether submitted posts skip moderation.
func (s *PostService) autoPublishes(ctx context.Context) bool {
	settings := s.settings.Get(ctx, false)
	return settings.AutoPublish && !settings.ApprovalRequired
}

// Create stores a new post owned by the actor. The post starts as a draft,
// or pending when in.Submit is set. With auto-publish on and approval not
// required a submitted post is published immediately.
func (s *PostService) Create(ctx context.Context, actor model.Actor, in PostInput) (*model.Post, error) {
	if err := requireAuthor(actor); err != nil {
		return nil, err
	}
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}

	now := s.now()
	p := &model.Post{
		ID:        newID(),
		Title:     in.Title,
		Body:      in.Body,
		Category:  in.Category,
		Status:    model.PostStatusDraft,
		Author:    model.AuthorByID(actor.ID),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Submit {
		p.Status = model.PostStatusPending
	}

	if err := s.posts.CreatePost(ctx, *p); err != nil {
		return nil, apperror.Unavailable("saving post", err)
	}
	s.logger.Info("post created", "post_id", p.ID, "status", p.Status, "actor_id", actor.ID)

	if p.IsPending() {
		deliver(ctx, s.logger, s.notifier, notify.Notification{
			Type:        notify.TypePostSubmitted,
			RecipientID: actor.ID,
			ActorID:     actor.ID,
			PostID:      p.ID,
			PostTitle:   p.Title,
			CreatedAt:   now,
		})
		if s.autoPublishes(ctx) {
			if err := s.publish(ctx, p, actor); err != nil {
				return nil, err
			}
		}
	}

	return p, nil
}

// Get returns a post by id. Posts hidden from the actor are not found.
func (s *PostService) Get(ctx context.Context, actor model.Actor, id string) (*model.Post, error) {
	return s.load(ctx, actor, id)
}

// GetBySlug returns a post by slug. Posts hidden from the actor are not found.
func (s *PostService) GetBySlug(ctx context.Context, actor model.Actor, slug string) (*model.Post, error) {
	p, err := s.posts.GetPostBySlug(ctx, slug)
	if err != nil {
		return nil, storeError("post", err)
	}
	if !authz.CanView(actor, authz.Facts(&p)) {
		return nil, apperror.NotFound("post")
	}
	return &p, nil
}

// Update replaces the content of a post. Editing a published post sends it
// back to review through RequestReview. The slug is never changed here.
func (s *PostService) Update(ctx context.Context, actor model.Actor, id string, in PostInput) (*model.Post, error) {
	if !actor.IsAuthenticated() {
		return nil, apperror.AuthenticationRequired("authentication required")
	}
	p, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanEdit(actor, authz.Facts(p)) {
		return nil, s.deny("edit", p.ID, actor, "you cannot edit this post")
	}
	if p.IsPublished() {
		return s.requestReview(ctx, actor, p, in)
	}

	in, err = in.normalize()
	if err != nil {
		return nil, err
	}
	p.Title = in.Title
	p.Body = in.Body
	p.Category = in.Category
	p.UpdatedAt = s.now()

	if err := s.posts.UpdatePost(ctx, *p); err != nil {
		return nil, apperror.Unavailable("saving post", err)
	}
	s.logger.Info("post updated", "post_id", p.ID, "actor_id", actor.ID)
	return p, nil
}

// Submit moves a draft or rejected post to pending. Only the approved
// owning author may submit.
func (s *PostService) Submit(ctx context.Context, actor model.Actor, id string) (*model.Post, error) {
	if !actor.IsAuthenticated() {
		return nil, apperror.AuthenticationRequired("authentication required")
	}
	p, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !actor.Is(p.AuthorID()) || !actor.Approved {
		return nil, s.deny("submit", p.ID, actor, "only the author can submit this post")
	}
	if !authz.CanSubmit(actor, authz.Facts(p)) {
		return nil, apperror.Conflict("cannot submit a %s post", p.Status)
	}

	from := p.Status
	p.Status = model.PostStatusPending
	p.RejectReason = ""
	p.UpdatedAt = s.now()
	if err := s.posts.UpdatePost(ctx, *p); err != nil {
		return nil, apperror.Unavailable("saving post", err)
	}
	s.logTransition(p, from, actor)

	deliver(ctx, s.logger, s.notifier, notify.Notification{
		Type:        notify.TypePostSubmitted,
		RecipientID: p.AuthorID(),
		ActorID:     actor.ID,
		PostID:      p.ID,
		PostTitle:   p.Title,
		CreatedAt:   p.UpdatedAt,
	})

	if s.autoPublishes(ctx) {
		if err := s.publish(ctx, p, actor); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Approve publishes a pending post. Admin only. A slug is assigned when the
// post has none, and the author is notified.
func (s *PostService) Approve(ctx context.Context, actor model.Actor, id string) (*model.Post, error) {
	if !actor.IsAuthenticated() {
		return nil, apperror.AuthenticationRequired("authentication required")
	}
	if !authz.CanModerate(actor) {
		return nil, s.deny("approve", id, actor, "only administrators can approve posts")
	}
	p, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !p.IsPending() {
		return nil, apperror.Conflict("cannot approve a %s post", p.Status)
	}

	if err := s.publish(ctx, p, actor); err != nil {
		return nil, err
	}
	return p, nil
}

// publish moves a pending post to published, assigning a slug if needed.
// On failure p is left as it was.
func (s *PostService) publish(ctx context.Context, p *model.Post, actor model.Actor) error {
	before := *p
	now := s.now()

	p.Status = model.PostStatusPublished
	p.RejectReason = ""
	p.UpdatedAt = now
	if !p.PublishedAt.Valid {
		p.PublishedAt = util.NullTimeFromValue(now)
	}

	var err error
	if p.HasSlug() {
		err = s.posts.UpdatePost(ctx, *p)
	} else {
		_, err = s.slugs.Assign(ctx, p, func(ctx context.Context, slug string) error {
			p.Slug = slug
			return s.posts.UpdatePost(ctx, *p)
		})
	}
	if err != nil {
		*p = before
		if apperror.KindOf(err) == apperror.KindInternal {
			return apperror.Unavailable("publishing post", err)
		}
		return err
	}

	s.logTransition(p, before.Status, actor)
	s.invalidate(ctx, p.Slug)

	deliver(ctx, s.logger, s.notifier, notify.Notification{
		Type:        notify.TypePostApproved,
		RecipientID: p.AuthorID(),
		ActorID:     actor.ID,
		PostID:      p.ID,
		PostTitle:   p.Title,
		Slug:        p.Slug,
		CreatedAt:   now,
	})
	return nil
}

// Reject moves a pending post to rejected. Admin only; the author is
// notified with reason.
func (s *PostService) Reject(ctx context.Context, actor model.Actor, id, reason string) (*model.Post, error) {
	if !actor.IsAuthenticated() {
		return nil, apperror.AuthenticationRequired("authentication required")
	}
	if !authz.CanModerate(actor) {
		return nil, s.deny("reject", id, actor, "only administrators can reject posts")
	}
	p, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	reason = strings.TrimSpace(reason)
	switch {
	case reason == "":
		return nil, apperror.FieldError("reason", "Reason is required")
	case utf8.RuneCountInString(reason) > MaxRejectReasonLength:
		return nil, apperror.FieldError("reason", "Reason must be at most 500 characters")
	}
	if !p.IsPending() {
		return nil, apperror.Conflict("cannot reject a %s post", p.Status)
	}

	from := p.Status
	p.Status = model.PostStatusRejected
	p.RejectReason = reason
	p.UpdatedAt = s.now()
	if err := s.posts.UpdatePost(ctx, *p); err != nil {
		return nil, apperror.Unavailable("saving post", err)
	}
	s.logTransition(p, from, actor)

	deliver(ctx, s.logger, s.notifier, notify.Notification{
		Type:        notify.TypePostRejected,
		RecipientID: p.AuthorID(),
		ActorID:     actor.ID,
		PostID:      p.ID,
		PostTitle:   p.Title,
		Reason:      reason,
		CreatedAt:   p.UpdatedAt,
	})
	return p, nil
}

// RequestReview applies new content to a published post and sends it back
// to pending. The pre-edit content is appended to the post's history in the
// same transaction as the edit.
// Admins and the owning author may request review.
func (s *PostService) RequestReview(ctx context.Context, actor model.Actor, id string, in PostInput) (*model.Post, error) {
	if !actor.IsAuthenticated() {
		return nil, apperror.AuthenticationRequired("authentication required")
	}
	p, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanEdit(actor, authz.Facts(p)) {
		return nil, s.deny("request_review", p.ID, actor, "you cannot edit this post")
	}
	return s.requestReview(ctx, actor, p, in)
}

func (s *PostService) requestReview(ctx context.Context, actor model.Actor, p *model.Post, in PostInput) (*model.Post, error) {
	if !p.IsPublished() {
		return nil, apperror.Conflict("cannot request review of a %s post", p.Status)
	}
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}

	now := s.now()
	version := p.Snapshot(actor.ID, now)
	version.ID = newID()

	edited := *p
	edited.Title = in.Title
	edited.Body = in.Body
	edited.Category = in.Category
	edited.Status = model.PostStatusPending
	edited.UpdatedAt = now
	if err := s.posts.UpdatePostWithVersion(ctx, edited, version); err != nil {
		return nil, apperror.Unavailable("saving post", err)
	}
	from := p.Status
	*p = edited
	s.logTransition(p, from, actor)
	s.invalidate(ctx, p.Slug)

	deliver(ctx, s.logger, s.notifier, notify.Notification{
		Type:        notify.TypePostReviewRequested,
		RecipientID: p.AuthorID(),
		ActorID:     actor.ID,
		PostID:      p.ID,
		PostTitle:   p.Title,
		Slug:        p.Slug,
		CreatedAt:   now,
	})
	return p, nil
}

// Delete removes a post. Admins may delete anything; authors may delete
// their own posts until they are published.
func (s *PostService) Delete(ctx context.Context, actor model.Actor, id string) error {
	if !actor.IsAuthenticated() {
		return apperror.AuthenticationRequired("authentication required")
	}
	p, err := s.load(ctx, actor, id)
	if err != nil {
		return err
	}
	if !authz.CanDelete(actor, authz.Facts(p)) {
		return s.deny("delete", p.ID, actor, "you cannot delete this post")
	}

	if err := s.posts.DeletePost(ctx, p.ID); err != nil {
		return storeError("post", err)
	}
	s.logger.Info("post deleted", "post_id", p.ID, "status", p.Status, "actor_id", actor.ID)
	s.invalidate(ctx, p.Slug)
	return nil
}

// Versions returns the edit history of a post, oldest first.
func (s *PostService) Versions(ctx context.Context, actor model.Actor, id string) ([]model.PostVersion, error) {
	if !actor.IsAuthenticated() {
		return nil, apperror.AuthenticationRequired("authentication required")
	}
	p, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanEdit(actor, authz.Facts(p)) {
		return nil, apperror.Denied("you cannot view the history of this post")
	}

	versions, err := s.posts.ListPostVersions(ctx, p.ID)
	if err != nil {
		return nil, apperror.Unavailable("loading post history", err)
	}
	if versions == nil {
		versions = []model.PostVersion{}
	}
	return versions, nil
}

func (s *PostService) list(ctx context.Context, arg store.ListPostsParams, page, perPage int) (*PostList, error) {
	page, perPage = NormalizePage(page, perPage)
	arg.Limit = int64(perPage)
	arg.Offset = int64((page - 1) * perPage)

	total, err := s.posts.CountPosts(ctx, arg)
	if err != nil {
		return nil, apperror.Unavailable("counting posts", err)
	}
	posts, err := s.posts.ListPosts(ctx, arg)
	if err != nil {
		return nil, apperror.Unavailable("listing posts", err)
	}
	if posts == nil {
		posts = []model.Post{}
	}

	return &PostList{
		Posts: posts,
		Page:  Page{Page: page, PerPage: perPage, Total: total},
	}, nil
}

// ListPublished returns published posts, newest first, optionally filtered
// by category.
func (s *PostService) ListPublished(ctx context.Context, page, perPage int, category string) (*PostList, error) {
	return s.list(ctx, store.ListPostsParams{
		Status:   model.PostStatusPublished,
		Category: strings.ToLower(strings.TrimSpace(category)),
	}, page, perPage)
}

// ListMine returns the actor's own posts, optionally filtered by status.
func (s *PostService) ListMine(ctx context.Context, actor model.Actor, status string, page, perPage int) (*PostList, error) {
	if !actor.IsAuthenticated() {
		return nil, apperror.AuthenticationRequired("authentication required")
	}
	if status != "" && !model.IsValidPostStatus(status) {
		return nil, apperror.FieldError("status", "Unknown status")
	}
	return s.list(ctx, store.ListPostsParams{AuthorID: actor.ID, Status: status}, page, perPage)
}

// ListPending returns posts awaiting review. Admin only.
func (s *PostService) ListPending(ctx context.Context, actor model.Actor, page, perPage int) (*PostList, error) {
	if !actor.IsAuthenticated() {
		return nil, apperror.AuthenticationRequired("authentication required")
	}
	if !authz.CanModerate(actor) {
		return nil, apperror.Denied("only administrators can review posts")
	}
	return s.list(ctx, store.ListPostsParams{Status: model.PostStatusPending}, page, perPage)
}
