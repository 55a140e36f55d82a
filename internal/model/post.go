// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"time"
)

// Post statuses
const (
	PostStatusDraft     = "draft"
	PostStatusPending   = "pending"
	PostStatusPublished = "published"
	PostStatusRejected  = "rejected"
)

// PostStatuses lists every valid post status.
var PostStatuses = []string{
	PostStatusDraft,
	PostStatusPending,
	PostStatusPublished,
	PostStatusRejected,
}

// IsValidPostStatus reports whether s is a known post status.
func IsValidPostStatus(s string) bool {
	for _, status := range PostStatuses {
		if status == s {
			return true
		}
	}
	return false
}

// Post represents a blog post.
// Status is only ever changed by the post workflow.
type Post struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Body         string       `json:"body"`
	Status       string       `json:"status"`
	Slug         string       `json:"slug,omitempty"` // empty until assigned
	Author       AuthorRef    `json:"-"`
	Category     string       `json:"category,omitempty"`
	RejectReason string       `json:"reject_reason,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	PublishedAt  sql.NullTime `json:"-"`
}

// AuthorID returns the identity of the owning user.
func (p *Post) AuthorID() string {
	return p.Author.ID()
}

// HasSlug returns true if a slug has been assigned.
func (p *Post) HasSlug() bool {
	return p.Slug != ""
}

// IsPublished returns true if the post is published.
func (p *Post) IsPublished() bool {
	return p.Status == PostStatusPublished
}

// IsPending returns true if the post awaits review.
func (p *Post) IsPending() bool {
	return p.Status == PostStatusPending
}

// IsDraft returns true if the post is a draft.
func (p *Post) IsDraft() bool {
	return p.Status == PostStatusDraft
}

// IsRejected returns true if the post was rejected by a moderator.
func (p *Post) IsRejected() bool {
	return p.Status == PostStatusRejected
}

// Snapshot captures the editable content of the post as a history entry.
func (p *Post) Snapshot(editedBy string, at time.Time) PostVersion {
	return PostVersion{
		PostID:    p.ID,
		Title:     p.Title,
		Body:      p.Body,
		Category:  p.Category,
		Status:    p.Status,
		EditedBy:  editedBy,
		CreatedAt: at,
	}
}

// PostVersion represents a prior version of a post.
// Versions are append-only.
type PostVersion struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Category  string    `json:"category,omitempty"`
	Status    string    `json:"status"`
	EditedBy  string    `json:"edited_by"`
	CreatedAt time.Time `json:"created_at"`
}
