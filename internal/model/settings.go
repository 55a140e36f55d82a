// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"time"
)

// Settings holds the process-wide site flags. There is exactly one row.
type Settings struct {
	MaintenanceMode     bool           `json:"maintenance_mode"`
	RegistrationAllowed bool           `json:"registration_allowed"`
	ApprovalRequired    bool           `json:"approval_required"`
	AutoPublish         bool           `json:"auto_publish"`
	UpdatedAt           time.Time      `json:"updated_at"`
	UpdatedBy           sql.NullString `json:"-"`
}

// DefaultSettings returns the settings used when none are stored or the
// store cannot be read.
func DefaultSettings() Settings {
	return Settings{
		MaintenanceMode:     false,
		RegistrationAllowed: true,
		ApprovalRequired:    true,
		AutoPublish:         false,
	}
}
