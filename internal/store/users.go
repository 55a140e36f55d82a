// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/olegiv/uniblog/internal/model"
	"github.com/olegiv/uniblog/internal/util"
)

const userColumns = `id, email, password_hash, name, role, department, is_approved, created_at, updated_at, last_login_at`

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Name,
		&u.Role,
		&u.Department,
		&u.IsApproved,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.LastLoginAt,
	)
	return u, err
}

// CreateUser inserts a user. It returns ErrEmailTaken on a duplicate email.
func (q *Queries) CreateUser(ctx context.Context, u model.User) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, name, role, department, is_approved, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, strings.ToLower(u.Email), u.PasswordHash, u.Name, u.Role, u.Department, u.IsApproved, u.CreatedAt, u.UpdatedAt,
	)
	if IsUniqueViolation(err, "users.email") {
		return fmt.Errorf("creating user %s: %w", u.Email, ErrEmailTaken)
	}
	return err
}

// GetUserByID returns the user with the given id.
func (q *Queries) GetUserByID(ctx context.Context, id string) (model.User, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByEmail returns the user with the given email, ignoring case.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, strings.ToLower(email))
	return scanUser(row)
}

// ListPendingUsers returns users awaiting approval, oldest first.
func (q *Queries) ListPendingUsers(ctx context.Context) ([]model.User, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE is_approved = 0
		ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ApproveUser marks the user approved.
func (q *Queries) ApproveUser(ctx context.Context, id string, at time.Time) error {
	res, err := q.db.ExecContext(ctx, `UPDATE users SET is_approved = 1, updated_at = ? WHERE id = ?`, at, id)
	if err != nil {
		return err
	}
	return requireRows(res)
}

// UpdateLastLogin records a successful login.
func (q *Queries) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := q.db.ExecContext(ctx, `UPDATE users SET last_login_at = ? WHERE id = ?`, util.NullTimeFromValue(at), id)
	return err
}

// CountUsers returns the number of users.
func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}
