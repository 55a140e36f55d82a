// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session configures the cookie session manager.
package session

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
)

// Session keys
const (
	KeyUserID = "user_id"
)

// Lifetime is the absolute session lifetime; IdleTimeout logs out
// inactive sessions earlier.
const (
	Lifetime    = 24 * time.Hour
	IdleTimeout = 2 * time.Hour
)

// Cookie names. The __Host- prefix requires Secure and Path=/, so it is only
// used outside development.
const (
	CookieName       = "uniblog_session"
	SecureCookieName = "__Host-uniblog_session"
)

// New creates a session manager backed by the sessions table in db.
func New(db *sql.DB, isDev bool) *scs.SessionManager {
	sm := scs.New()
	sm.Store = sqlite3store.NewWithCleanupInterval(db, 0)

	sm.Lifetime = Lifetime
	sm.IdleTimeout = IdleTimeout
	sm.Cookie.Name = CookieName
	sm.Cookie.Path = "/"
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = !isDev
	if !isDev {
		sm.Cookie.Name = SecureCookieName
	}

	return sm
}
