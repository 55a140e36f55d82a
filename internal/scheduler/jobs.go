// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Job names
const (
	JobPurgeEvents   = "purge_events"
	JobPurgeSessions = "purge_sessions"
)

// EventPurger deletes audit events older than a duration.
type EventPurger interface {
	DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error)
}

// SessionPurger deletes expired sessions.
type SessionPurger interface {
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

// PurgeEventsJob removes events older than retention once a day.
func PurgeEventsJob(events EventPurger, retention time.Duration, logger *slog.Logger) Job {
	return Job{
		Name:        JobPurgeEvents,
		Description: "Delete audit events past the retention period",
		Schedule:    "@daily",
		Run: func(ctx context.Context) error {
			n, err := events.DeleteOldEvents(ctx, retention)
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("purged old events", "count", n, "retention", retention)
			}
			return nil
		},
	}
}

// PurgeSessionsJob removes expired sessions every hour.
func PurgeSessionsJob(sessions SessionPurger, logger *slog.Logger) Job {
	return Job{
		Name:        JobPurgeSessions,
		Description: "Delete expired login sessions",
		Schedule:    "@hourly",
		Run: func(ctx context.Context) error {
			n, err := sessions.DeleteExpiredSessions(ctx)
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("purged expired sessions", "count", n)
			}
			return nil
		},
	}
}
