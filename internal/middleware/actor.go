// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for actor loading,
// authorization guards, and request protection.
package middleware

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/uniblog/internal/model"
	"github.com/olegiv/uniblog/internal/session"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// Context keys
const (
	ContextKeyActor ContextKey = "actor"
	ContextKeyUser  ContextKey = "user"
)

// UserLoader loads users by id.
type UserLoader interface {
	GetUserByID(ctx context.Context, id string) (model.User, error)
}

// LoadActor creates middleware that resolves the session user into a
// model.Actor stored in the request context. Requests without a session, or
// whose user no longer exists, continue as anonymous.
func LoadActor(sm *scs.SessionManager, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			userID := sm.GetString(ctx, session.KeyUserID)
			if userID == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.GetUserByID(ctx, userID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					// Stale session for a deleted user
					if derr := sm.Destroy(ctx); derr != nil {
						slog.Error("failed to destroy stale session", "error", derr)
					}
				} else {
					slog.Error("failed to load session user", "user_id", userID, "error", err)
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx = context.WithValue(ctx, ContextKeyUser, &user)
			ctx = context.WithValue(ctx, ContextKeyActor, model.ActorFromUser(&user))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ActorFrom returns the actor stored in ctx, or the anonymous actor.
func ActorFrom(ctx context.Context) model.Actor {
	if actor, ok := ctx.Value(ContextKeyActor).(model.Actor); ok {
		return actor
	}
	return model.Anonymous()
}

// GetActor returns the actor of the request.
func GetActor(r *http.Request) model.Actor {
	return ActorFrom(r.Context())
}

// GetUser returns the authenticated user of the request, if any.
func GetUser(r *http.Request) *model.User {
	if user, ok := r.Context().Value(ContextKeyUser).(*model.User); ok {
		return user
	}
	return nil
}

// WithActor returns a copy of ctx carrying actor.
func WithActor(ctx context.Context, actor model.Actor) context.Context {
	return context.WithValue(ctx, ContextKeyActor, actor)
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !GetActor(r).IsAuthenticated() {
			WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects anonymous requests with 401 and non-admins with 403.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := GetActor(r)
		if !actor.IsAuthenticated() {
			WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
			return
		}
		if !actor.IsAdmin() {
			slog.Warn("admin access denied",
				"actor_id", actor.ID,
				"role", actor.Role,
				"path", r.URL.Path,
			)
			WriteAPIError(w, http.StatusForbidden, "forbidden", "Administrator access required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
