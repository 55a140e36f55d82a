// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package logging

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/uniblog/internal/model"
	"github.com/olegiv/uniblog/internal/store"
	"github.com/olegiv/uniblog/internal/testutil"
)

// discardHandler is a slog.Handler that discards all logs.
type discardHandler struct{}

func (h discardHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (h discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return h }
func (h discardHandler) WithGroup(string) slog.Handler             { return h }

func listEvents(t *testing.T, q *store.Queries) []model.Event {
	t.Helper()
	events, err := q.ListEvents(context.Background(), 50, 0)
	require.NoError(t, err)
	return events
}

func TestEventLogHandler_RecordsWarningsAndErrors(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	logger := slog.New(NewEventLogHandler(discardHandler{}, db))
	logger.Info("routine message")
	logger.Debug("noise")
	logger.Error("database connection failed", "host", "localhost", "port", 5432)

	events := listEvents(t, store.New(db))
	require.Len(t, events, 1)

	e := events[0]
	assert.Equal(t, model.EventLevelError, e.Level)
	assert.Equal(t, model.EventCategorySystem, e.Category)
	assert.Equal(t, "database connection failed", e.Message)
	assert.JSONEq(t, `{"host":"localhost","port":5432}`, e.Metadata)
	assert.False(t, e.UserID.Valid)
}

func TestEventLogHandler_CategoryAndUser(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	logger := slog.New(NewEventLogHandler(discardHandler{}, db))
	logger.Warn("post transition denied", "action", "approve", "post_id", "p-1", "actor_id", "u-7")
	logger.Warn("something odd", AttrCategory, model.EventCategorySettings)

	events := listEvents(t, store.New(db))
	require.Len(t, events, 2)

	byMessage := map[string]model.Event{}
	for _, e := range events {
		byMessage[e.Message] = e
	}

	denied := byMessage["post transition denied"]
	assert.Equal(t, model.EventLevelWarning, denied.Level)
	assert.Equal(t, model.EventCategoryPost, denied.Category)
	assert.Equal(t, "u-7", denied.UserID.String)
	assert.Contains(t, denied.Metadata, `"post_id":"p-1"`)

	odd := byMessage["something odd"]
	assert.Equal(t, model.EventCategorySettings, odd.Category)
	assert.Equal(t, "{}", odd.Metadata)
}

func TestEventLogHandler_WithAttrsAndGroup(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	logger := slog.New(NewEventLogHandler(discardHandler{}, db)).
		With("user_id", "u-1").
		WithGroup("req").
		With("path", "/api/v1/posts")
	logger.Error("handler failed", "status", 500)

	events := listEvents(t, store.New(db))
	require.Len(t, events, 1)
	assert.Equal(t, "u-1", events[0].UserID.String)
	assert.JSONEq(t, `{"user_id":"u-1","req.path":"/api/v1/posts","req.status":500}`, events[0].Metadata)
}

func TestEventLogHandler_CustomLevel(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	logger := slog.New(NewEventLogHandlerWithLevel(discardHandler{}, db, slog.LevelError))
	logger.Warn("login failed")
	logger.Error("login backend down")

	events := listEvents(t, store.New(db))
	require.Len(t, events, 1)
	assert.Equal(t, model.EventCategoryAuth, events[0].Category)
}

func TestInferCategory(t *testing.T) {
	tests := map[string]string{
		"Login failed":               model.EventCategoryAuth,
		"invalid CSRF token":         model.EventCategoryAuth,
		"comment denied":             model.EventCategoryComment,
		"post status changed":        model.EventCategoryPost,
		"user approved":              model.EventCategoryUser,
		"settings load failed":       model.EventCategorySettings,
		"server listening":           model.EventCategorySystem,
		"notification delivery fail": model.EventCategorySystem,
	}
	for msg, want := range tests {
		assert.Equal(t, want, inferCategory(msg), msg)
	}
}
