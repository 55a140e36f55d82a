// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/uniblog/internal/auth"
	"github.com/olegiv/uniblog/internal/model"
)

// DefaultAdminName is the display name of the seeded administrator.
const DefaultAdminName = "Administrator"

// SeedAdmin creates the initial administrator if no user with email exists.
func SeedAdmin(ctx context.Context, db *sql.DB, email, password string) error {
	queries := New(db)
	email = strings.ToLower(strings.TrimSpace(email))

	_, err := queries.GetUserByEmail(ctx, email)
	if err == nil {
		slog.Info("admin user already exists, skipping seed")
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking for admin user: %w", err)
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now().UTC()
	admin := model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		Name:         DefaultAdminName,
		Role:         model.RoleAdmin,
		IsApproved:   true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := queries.CreateUser(ctx, admin); err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	slog.Info("created default admin user", "id", admin.ID, "email", admin.Email)
	return nil
}
