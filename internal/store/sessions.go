// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import "context"

// DeleteExpiredSessions removes sessions past their expiry. Expiry is stored
// as a Julian day number by the session store.
func (q *Queries) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM sessions WHERE expiry < julianday('now')`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
