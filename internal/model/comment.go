// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"time"
)

// MaxCommentLength is the maximum comment length in characters.
const MaxCommentLength = 2000

// Comment represents a reader comment on a post, optionally nested under
// another comment of the same post.
type Comment struct {
	ID         string         `json:"id"`
	PostID     string         `json:"post_id"`
	AuthorID   string         `json:"author_id"`
	ParentID   sql.NullString `json:"-"`
	Content    string         `json:"content"`
	IsApproved bool           `json:"is_approved"`
	CreatedAt  time.Time      `json:"created_at"`
}

// IsReply returns true if the comment has a parent comment.
func (c *Comment) IsReply() bool {
	return c.ParentID.Valid && c.ParentID.String != ""
}
