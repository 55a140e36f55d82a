// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/olegiv/uniblog/internal/model"
)

// GetSettings returns the settings row, creating it with defaults on first use.
func (q *Queries) GetSettings(ctx context.Context) (model.Settings, error) {
	d := model.DefaultSettings()
	if _, err := q.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO settings (id, maintenance_mode, registration_allowed, approval_required, auto_publish, updated_at)
		VALUES (1, ?, ?, ?, ?, ?)`,
		d.MaintenanceMode, d.RegistrationAllowed, d.ApprovalRequired, d.AutoPublish, time.Now().UTC(),
	); err != nil {
		return model.Settings{}, fmt.Errorf("creating default settings: %w", err)
	}

	var s model.Settings
	err := q.db.QueryRowContext(ctx, `
		SELECT maintenance_mode, registration_allowed, approval_required, auto_publish, updated_at, updated_by
		FROM settings WHERE id = 1`,
	).Scan(&s.MaintenanceMode, &s.RegistrationAllowed, &s.ApprovalRequired, &s.AutoPublish, &s.UpdatedAt, &s.UpdatedBy)
	return s, err
}

// UpdateSettings replaces the settings row.
func (q *Queries) UpdateSettings(ctx context.Context, s model.Settings) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO settings (id, maintenance_mode, registration_allowed, approval_required, auto_publish, updated_at, updated_by)
		VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			maintenance_mode = excluded.maintenance_mode,
			registration_allowed = excluded.registration_allowed,
			approval_required = excluded.approval_required,
			auto_publish = excluded.auto_publish,
			updated_at = excluded.updated_at,
			updated_by = excluded.updated_by`,
		s.MaintenanceMode, s.RegistrationAllowed, s.ApprovalRequired, s.AutoPublish, s.UpdatedAt, s.UpdatedBy,
	)
	return err
}
