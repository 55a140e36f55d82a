// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package notify delivers workflow notifications to authors and to external
// systems. Delivery is best effort: callers log failures and carry on.
package notify

import (
	"context"
	"errors"
	"time"
)

// Notification types
const (
	TypePostSubmitted       = "post.submitted"
	TypePostApproved        = "post.approved"
	TypePostRejected        = "post.rejected"
	TypePostReviewRequested = "post.review_requested"
	TypeUserApproved        = "user.approved"
)

// Notification describes a state change that concerns a user.
type Notification struct {
	Type        string    `json:"type"`
	RecipientID string    `json:"recipient_id"`
	ActorID     string    `json:"actor_id,omitempty"`
	PostID      string    `json:"post_id,omitempty"`
	PostTitle   string    `json:"post_title,omitempty"`
	Slug        string    `json:"slug,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Notifier delivers notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, n Notification) error

// Notify calls f(ctx, n).
func (f NotifierFunc) Notify(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

// Multi fans a notification out to several notifiers.
// Every notifier is called; failures are joined.
type Multi []Notifier

// Notify delivers n to every notifier.
func (m Multi) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, notifier := range m {
		if notifier == nil {
			continue
		}
		if err := notifier.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards notifications.
var Nop Notifier = NotifierFunc(func(context.Context, Notification) error { return nil })
