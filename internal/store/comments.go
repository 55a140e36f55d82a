// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"

	"github.com/olegiv/uniblog/internal/model"
)

const commentColumns = `id, post_id, author_id, parent_id, content, is_approved, created_at`

func scanComment(row interface{ Scan(...any) error }) (model.Comment, error) {
	var c model.Comment
	err := row.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.ParentID, &c.Content, &c.IsApproved, &c.CreatedAt)
	return c, err
}

// CreateComment inserts a comment.
func (q *Queries) CreateComment(ctx context.Context, c model.Comment) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO comments (id, post_id, author_id, parent_id, content, is_approved, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.PostID, c.AuthorID, c.ParentID, c.Content, c.IsApproved, c.CreatedAt,
	)
	return err
}

// GetComment returns the comment with the given id.
func (q *Queries) GetComment(ctx context.Context, id string) (model.Comment, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = ?`, id)
	return scanComment(row)
}

// ListComments returns the post's comments in posting order.
// Unapproved comments are included only when includeUnapproved is set.
func (q *Queries) ListComments(ctx context.Context, postID string, includeUnapproved bool) ([]model.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE post_id = ?`
	if !includeUnapproved {
		query += ` AND is_approved = 1`
	}
	query += ` ORDER BY created_at, rowid`

	rows, err := q.db.QueryContext(ctx, query, postID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var comments []model.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// ApproveComment marks the comment approved.
func (q *Queries) ApproveComment(ctx context.Context, id string) error {
	res, err := q.db.ExecContext(ctx, `UPDATE comments SET is_approved = 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRows(res)
}

// DeleteComment removes the comment and its replies.
func (q *Queries) DeleteComment(ctx context.Context, id string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRows(res)
}
