// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain models and types used throughout the application
// including Post, User, Comment, Settings and the request Actor.
package model

import (
	"database/sql"
	"time"
)

// User roles
const (
	RoleAuthor = "author"
	RoleAdmin  = "admin"
)

// IsValidRole reports whether role is a known user role.
func IsValidRole(role string) bool {
	return role == RoleAuthor || role == RoleAdmin
}

// User represents a registered member of the university.
type User struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"` // Never expose in JSON
	Name         string       `json:"name"`
	Role         string       `json:"role"`
	Department   string       `json:"department,omitempty"`
	IsApproved   bool         `json:"is_approved"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	LastLoginAt  sql.NullTime `json:"-"`
}

// IsAdmin returns true if the user has admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
