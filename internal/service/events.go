// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/olegiv/uniblog/internal/model"
	"github.com/olegiv/uniblog/internal/store"
	"github.com/olegiv/uniblog/internal/util"
)

// EventService writes the audit log.
type EventService struct {
	queries *store.Queries
	logger  *slog.Logger
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB, logger *slog.Logger) *EventService {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventService{
		queries: store.New(db),
		logger:  logger,
	}
}

// LogEvent creates a new event log entry. An empty userID is stored as NULL.
func (s *EventService) LogEvent(ctx context.Context, level, category, message, userID string, metadata map[string]any) error {
	metadataJSON := "{}"
	if metadata != nil {
		if b, err := json.Marshal(metadata); err == nil {
			metadataJSON = string(b)
		}
	}

	_, err := s.queries.CreateEvent(ctx, store.CreateEventParams{
		Level:     level,
		Category:  category,
		Message:   message,
		UserID:    util.NullStringFromValue(userID),
		Metadata:  metadataJSON,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		s.logger.Error("failed to log event", "category", category, "error", err)
		return err
	}
	return nil
}

// LogAuthEvent logs an authentication-related event.
func (s *EventService) LogAuthEvent(ctx context.Context, level, message, userID string, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.EventCategoryAuth, message, userID, metadata)
}

// List returns recent events, newest first.
func (s *EventService) List(ctx context.Context, limit, offset int64) ([]model.Event, error) {
	return s.queries.ListEvents(ctx, limit, offset)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *EventService) DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	return s.queries.DeleteEventsBefore(ctx, cutoff)
}
