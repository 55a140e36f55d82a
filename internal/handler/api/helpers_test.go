// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/uniblog/internal/auth"
	"github.com/olegiv/uniblog/internal/cache"
	"github.com/olegiv/uniblog/internal/middleware"
	"github.com/olegiv/uniblog/internal/model"
	"github.com/olegiv/uniblog/internal/notify"
	"github.com/olegiv/uniblog/internal/service"
	"github.com/olegiv/uniblog/internal/session"
	"github.com/olegiv/uniblog/internal/store"
	"github.com/olegiv/uniblog/internal/testutil"
)

const testPassword = "correct-horse-battery"

// testEnv is a running API server over a fresh database.
type testEnv struct {
	t         *testing.T
	db        *sql.DB
	queries   *store.Queries
	srv       *httptest.Server
	postCache *cache.PostCache
	lp        *middleware.LoginProtection
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	logger := testutil.TestLoggerSilent()
	queries := store.New(db)

	settingsCache := service.NewSettingsCache(queries, time.Minute, logger)
	settings := service.NewSettingsService(queries, settingsCache, logger)

	mem := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = mem.Close() })
	postCache := cache.NewPostCache(mem, time.Minute, logger)

	posts := service.NewPostService(queries, settingsCache, notify.NewLogNotifier(logger), logger)
	posts.SetCacheInvalidator(postCache)

	lp := middleware.NewLoginProtection(middleware.LoginProtectionConfig{
		IPRateLimit:       1000,
		IPBurst:           1000,
		MaxFailedAttempts: 3,
		LockoutDuration:   time.Minute,
		AttemptWindow:     time.Minute,
	})
	t.Cleanup(lp.Stop)

	sm := session.New(db, true)
	h := NewHandler(Deps{
		DB:              db,
		Sessions:        sm,
		Posts:           posts,
		Comments:        service.NewCommentService(queries, queries, queries, settingsCache, logger),
		Users:           service.NewUserService(queries, settingsCache, nil, logger),
		Settings:        settings,
		PostCache:       postCache,
		LoginProtection: lp,
		Logger:          logger,
	})

	r := chi.NewRouter()
	r.Get("/health", h.Health)
	r.Group(func(r chi.Router) {
		r.Use(sm.LoadAndSave)
		r.Use(middleware.LoadActor(sm, queries))
		r.Use(middleware.Maintenance(settingsCache))
		r.Mount("/api/v1", h.Routes())
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &testEnv{
		t:         t,
		db:        db,
		queries:   queries,
		srv:       srv,
		postCache: postCache,
		lp:        lp,
	}
}

// createUser inserts a user that can log in with testPassword.
func (e *testEnv) createUser(email, role string, approved bool) model.User {
	e.t.Helper()

	hash, err := auth.HashPassword(testPassword)
	require.NoError(e.t, err)

	now := time.Now().UTC()
	u := model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Name:         "User " + email,
		Role:         role,
		Department:   "Physics",
		IsApproved:   approved,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(e.t, e.queries.CreateUser(context.Background(), u))
	return u
}

// client is an HTTP client with its own session cookie.
type client struct {
	t    *testing.T
	base string
	http *http.Client
}

func (e *testEnv) client() *client {
	e.t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(e.t, err)
	return &client{
		t:    e.t,
		base: e.srv.URL,
		http: &http.Client{Jar: jar},
	}
}

// loggedIn returns a client with an authenticated session for email.
func (e *testEnv) loggedIn(email string) *client {
	e.t.Helper()
	c := e.client()
	resp := c.do(http.MethodPost, "/api/v1/auth/login", LoginRequest{Email: email, Password: testPassword})
	require.Equal(e.t, http.StatusOK, resp.status, "login %s: %s", email, resp.body)
	return c
}

type response struct {
	status int
	header http.Header
	body   []byte
}

func (c *client) do(method, path string, body any) response {
	c.t.Helper()

	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(c.t, err)
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.base+path, rd)
	require.NoError(c.t, err)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer func() { _ = res.Body.Close() }()

	data, err := io.ReadAll(res.Body)
	require.NoError(c.t, err)
	return response{status: res.StatusCode, header: res.Header, body: data}
}

// envelope is a decoded success response.
type envelope[T any] struct {
	Data T     `json:"data"`
	Meta *Meta `json:"meta"`
}

func decodeData[T any](t *testing.T, r response) envelope[T] {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.Unmarshal(r.body, &env), "body: %s", r.body)
	return env
}

func decodeError(t *testing.T, r response) ErrorDetail {
	t.Helper()
	var env ErrorResponse
	require.NoError(t, json.Unmarshal(r.body, &env), "body: %s", r.body)
	return env.Error
}
