// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging provides a slog handler that mirrors warnings and errors
// into the events table for auditing.
package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/olegiv/uniblog/internal/model"
	"github.com/olegiv/uniblog/internal/store"
)

// Attribute keys with special meaning to the event log.
const (
	AttrCategory = "category"
	AttrUserID   = "user_id"
	AttrActorID  = "actor_id"
)

// EventLogHandler wraps another handler and also writes records at or above
// its level to the events table.
type EventLogHandler struct {
	inner   slog.Handler
	queries *store.Queries
	level   slog.Level
	attrs   []slog.Attr
	group   string
}

// NewEventLogHandler creates a handler that records WARN and above.
func NewEventLogHandler(inner slog.Handler, db *sql.DB) *EventLogHandler {
	return NewEventLogHandlerWithLevel(inner, db, slog.LevelWarn)
}

// NewEventLogHandlerWithLevel creates a handler with a custom minimum level.
func NewEventLogHandlerWithLevel(inner slog.Handler, db *sql.DB, level slog.Level) *EventLogHandler {
	return &EventLogHandler{
		inner:   inner,
		queries: store.New(db),
		level:   level,
	}
}

// Enabled implements slog.Handler.
func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}
	if r.Level >= h.level {
		h.writeEvent(r)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.inner = h.inner.WithAttrs(attrs)
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), h.qualify(attrs)...)
	return &clone
}

// WithGroup implements slog.Handler.
func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.inner = h.inner.WithGroup(name)
	clone.group = h.qualifyKey(name)
	return &clone
}

func (h *EventLogHandler) qualifyKey(key string) string {
	if h.group == "" {
		return key
	}
	return h.group + "." + key
}

func (h *EventLogHandler) qualify(attrs []slog.Attr) []slog.Attr {
	if h.group == "" {
		return attrs
	}
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = slog.Attr{Key: h.qualifyKey(a.Key), Value: a.Value}
	}
	return out
}

// writeEvent stores r. The event is written with a background context so it
// survives request cancellation; failures are dropped to avoid recursion.
func (h *EventLogHandler) writeEvent(r slog.Record) {
	attrs := append([]slog.Attr(nil), h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, slog.Attr{Key: h.qualifyKey(a.Key), Value: a.Value})
		return true
	})

	category, userID, metadata := splitAttrs(attrs)
	if category == "" {
		category = inferCategory(r.Message)
	}

	_, _ = h.queries.CreateEvent(context.Background(), store.CreateEventParams{
		Level:     eventLevel(r.Level),
		Category:  category,
		Message:   r.Message,
		UserID:    sql.NullString{String: userID, Valid: userID != ""},
		Metadata:  metadata,
		CreatedAt: r.Time.UTC(),
	})
}

func eventLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return model.EventLevelError
	case level >= slog.LevelWarn:
		return model.EventLevelWarning
	default:
		return model.EventLevelInfo
	}
}

// splitAttrs pulls the category and user out of attrs and encodes the rest
// as a JSON object.
func splitAttrs(attrs []slog.Attr) (category, userID, metadata string) {
	meta := make(map[string]any, len(attrs))
	for _, a := range attrs {
		v := a.Value.Resolve()
		switch a.Key {
		case AttrCategory:
			category = v.String()
			continue
		case AttrUserID, AttrActorID:
			if userID == "" {
				userID = v.String()
			}
		}
		meta[a.Key] = attrValue(v)
	}

	if len(meta) == 0 {
		return category, userID, "{}"
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return category, userID, "{}"
	}
	return category, userID, string(b)
}

func attrValue(v slog.Value) any {
	switch v.Kind() {
	case slog.KindBool:
		return v.Bool()
	case slog.KindInt64:
		return v.Int64()
	case slog.KindUint64:
		return v.Uint64()
	case slog.KindFloat64:
		return v.Float64()
	case slog.KindGroup:
		group := make(map[string]any)
		for _, a := range v.Group() {
			group[a.Key] = attrValue(a.Value.Resolve())
		}
		return group
	default:
		return v.String()
	}
}

// inferCategory guesses a category from the log message.
func inferCategory(msg string) string {
	msg = strings.ToLower(msg)
	switch {
	case strings.Contains(msg, "auth") || strings.Contains(msg, "login") ||
		strings.Contains(msg, "logout") || strings.Contains(msg, "password") ||
		strings.Contains(msg, "csrf"):
		return model.EventCategoryAuth
	case strings.Contains(msg, "comment"):
		return model.EventCategoryComment
	case strings.Contains(msg, "post") || strings.Contains(msg, "slug"):
		return model.EventCategoryPost
	case strings.Contains(msg, "user") || strings.Contains(msg, "account"):
		return model.EventCategoryUser
	case strings.Contains(msg, "setting") || strings.Contains(msg, "maintenance"):
		return model.EventCategorySettings
	default:
		return model.EventCategorySystem
	}
}
