// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/olegiv/uniblog/internal/model"
)

// CreateEventParams holds the columns of a new audit event.
type CreateEventParams struct {
	Level     string
	Category  string
	Message   string
	UserID    sql.NullString
	Metadata  string
	CreatedAt time.Time
}

// CreateEvent inserts an audit event and returns its id.
func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (int64, error) {
	if arg.Metadata == "" {
		arg.Metadata = "{}"
	}
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO events (level, category, message, user_id, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		arg.Level, arg.Category, arg.Message, arg.UserID, arg.Metadata, arg.CreatedAt,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListEvents returns events newest first.
func (q *Queries) ListEvents(ctx context.Context, limit, offset int64) ([]model.Event, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, level, category, message, user_id, metadata, created_at
		FROM events
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.UserID, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// DeleteEventsBefore removes events created before cutoff and returns how many were removed.
func (q *Queries) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM events WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
