// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/olegiv/uniblog/internal/model"
	"github.com/olegiv/uniblog/internal/util"
)

const postColumns = `id, title, body, status, slug, author_id, category, reject_reason, created_at, updated_at, published_at`

func scanPost(row interface{ Scan(...any) error }) (model.Post, error) {
	var (
		p        model.Post
		slug     sql.NullString
		authorID string
	)
	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Body,
		&p.Status,
		&slug,
		&authorID,
		&p.Category,
		&p.RejectReason,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.PublishedAt,
	)
	if err != nil {
		return model.Post{}, err
	}
	p.Slug = slug.String
	p.Author = model.AuthorByID(authorID)
	return p, nil
}

func slugError(slug string, err error) error {
	if IsUniqueViolation(err, "posts.slug") {
		return fmt.Errorf("saving slug %q: %w", slug, ErrSlugTaken)
	}
	return err
}

// CreatePost inserts a post. An empty slug is stored as NULL.
func (q *Queries) CreatePost(ctx context.Context, p model.Post) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO posts (id, title, body, status, slug, author_id, category, reject_reason, created_at, updated_at, published_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.Body, p.Status, util.NullStringFromValue(p.Slug), p.AuthorID(),
		p.Category, p.RejectReason, p.CreatedAt, p.UpdatedAt, p.PublishedAt,
	)
	return slugError(p.Slug, err)
}

// UpdatePost writes every mutable column of the post.
// It returns ErrSlugTaken when the slug is held by another post.
func (q *Queries) UpdatePost(ctx context.Context, p model.Post) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE posts
		SET title = ?, body = ?, status = ?, slug = ?, category = ?, reject_reason = ?, updated_at = ?, published_at = ?
		WHERE id = ?`,
		p.Title, p.Body, p.Status, util.NullStringFromValue(p.Slug), p.Category, p.RejectReason, p.UpdatedAt, p.PublishedAt,
		p.ID,
	)
	if err != nil {
		return slugError(p.Slug, err)
	}
	return requireRows(res)
}

// GetPost returns the post with the given id.
func (q *Queries) GetPost(ctx context.Context, id string) (model.Post, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id = ?`, id)
	return scanPost(row)
}

// GetPostBySlug returns the post holding slug.
func (q *Queries) GetPostBySlug(ctx context.Context, slug string) (model.Post, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE slug = ?`, slug)
	return scanPost(row)
}

// DeletePost removes a post with its versions and comments.
func (q *Queries) DeletePost(ctx context.Context, id string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRows(res)
}

// SlugTaken reports whether a post other than excludeID holds slug.
func (q *Queries) SlugTaken(ctx context.Context, slug, excludeID string) (bool, error) {
	var taken bool
	err := q.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM posts WHERE slug = ? AND id != ?)`, slug, excludeID,
	).Scan(&taken)
	return taken, err
}

// ListPostsParams filters a post listing. Empty fields do not filter.
type ListPostsParams struct {
	Status   string
	AuthorID string
	Category string
	Limit    int64
	Offset   int64
}

func (p ListPostsParams) where() (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if p.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, p.Status)
	}
	if p.AuthorID != "" {
		clauses = append(clauses, "author_id = ?")
		args = append(args, p.AuthorID)
	}
	if p.Category != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, p.Category)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// ListPosts returns posts matching the filter, most recently updated first.
func (q *Queries) ListPosts(ctx context.Context, arg ListPostsParams) ([]model.Post, error) {
	where, args := arg.where()
	args = append(args, arg.Limit, arg.Offset)

	rows, err := q.db.QueryContext(ctx,
		`SELECT `+postColumns+` FROM posts`+where+` ORDER BY COALESCE(published_at, updated_at) DESC, id LIMIT ? OFFSET ?`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var posts []model.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// CountPosts counts posts matching the filter. Limit and Offset are ignored.
func (q *Queries) CountPosts(ctx context.Context, arg ListPostsParams) (int64, error) {
	where, args := arg.where()
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`+where, args...).Scan(&n)
	return n, err
}

// CreatePostVersion appends a history entry.
func (q *Queries) CreatePostVersion(ctx context.Context, v model.PostVersion) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO post_versions (id, post_id, title, body, category, status, edited_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.PostID, v.Title, v.Body, v.Category, v.Status, v.EditedBy, v.CreatedAt,
	)
	return err
}

// UpdatePostWithVersion appends v to the post's history and saves p in one
// transaction. Neither write lands if the other fails.
func (q *Queries) UpdatePostWithVersion(ctx context.Context, p model.Post, v model.PostVersion) error {
	save := func(tx *Queries) error {
		if err := tx.CreatePostVersion(ctx, v); err != nil {
			return fmt.Errorf("saving post history: %w", err)
		}
		return tx.UpdatePost(ctx, p)
	}

	db, ok := q.db.(*sql.DB)
	if !ok {
		// Already running inside a caller's transaction.
		return save(q)
	}
	return InTx(ctx, db, save)
}

// ListPostVersions returns the post's history, oldest first.
func (q *Queries) ListPostVersions(ctx context.Context, postID string) ([]model.PostVersion, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, post_id, title, body, category, status, edited_by, created_at
		FROM post_versions
		WHERE post_id = ?
		ORDER BY created_at, rowid`, postID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var versions []model.PostVersion
	for rows.Next() {
		var v model.PostVersion
		if err := rows.Scan(&v.ID, &v.PostID, &v.Title, &v.Body, &v.Category, &v.Status, &v.EditedBy, &v.CreatedAt); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}
