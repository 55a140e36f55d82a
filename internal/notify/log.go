// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package notify

import (
	"context"
	"log/slog"
)

// LogNotifier writes notifications to a structured logger.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier. A nil logger uses slog.Default.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// Notify logs n at INFO.
func (l *LogNotifier) Notify(ctx context.Context, n Notification) error {
	attrs := []any{
		"type", n.Type,
		"recipient_id", n.RecipientID,
	}
	if n.PostID != "" {
		attrs = append(attrs, "post_id", n.PostID)
	}
	if n.Slug != "" {
		attrs = append(attrs, "slug", n.Slug)
	}
	if n.Reason != "" {
		attrs = append(attrs, "reason", n.Reason)
	}
	l.logger.InfoContext(ctx, "notification", attrs...)
	return nil
}
