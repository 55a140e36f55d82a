// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"time"
)

// Event levels
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event categories
const (
	EventCategoryAuth     = "auth"
	EventCategoryPost     = "post"
	EventCategoryComment  = "comment"
	EventCategoryUser     = "user"
	EventCategorySettings = "settings"
	EventCategorySystem   = "system"
)

// Event represents an audit log entry.
type Event struct {
	ID        int64
	Level     string
	Category  string
	Message   string
	UserID    sql.NullString
	Metadata  string // JSON string
	CreatedAt time.Time
}
