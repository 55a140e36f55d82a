// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/olegiv/uniblog/internal/model"
	"github.com/olegiv/uniblog/internal/notify"
	"github.com/olegiv/uniblog/internal/store"
	"github.com/olegiv/uniblog/internal/testutil"
)

// staticSettings always returns the same settings.
type staticSettings model.Settings

func (s *staticSettings) Get(context.Context, bool) model.Settings {
	return model.Settings(*s)
}

// recordingNotifier keeps every notification it receives.
type recordingNotifier struct {
	mu  sync.Mutex
	got []notify.Notification
	err error
}

func (r *recordingNotifier) Notify(_ context.Context, n notify.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
	return r.err
}

func (r *recordingNotifier) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.got))
	for _, n := range r.got {
		out = append(out, n.Type)
	}
	return out
}

func (r *recordingNotifier) last() notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.got) == 0 {
		return notify.Notification{}
	}
	return r.got[len(r.got)-1]
}

// recordingInvalidator keeps every invalidated slug.
type recordingInvalidator struct {
	slugs []string
}

func (r *recordingInvalidator) InvalidatePost(_ context.Context, slug string) {
	r.slugs = append(r.slugs, slug)
}

// fixture wires the services over a fresh database.
type fixture struct {
	db          *sql.DB
	queries     *store.Queries
	settings    *staticSettings
	notifier    *recordingNotifier
	invalidator *recordingInvalidator
	posts       *PostService
	comments    *CommentService
	users       *UserService

	author model.Actor
	other  model.Actor
	admin  model.Actor
	reader model.Actor // authenticated but not approved
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	settings := staticSettings(model.DefaultSettings())
	f := &fixture{
		db:          db,
		queries:     store.New(db),
		settings:    &settings,
		notifier:    &recordingNotifier{},
		invalidator: &recordingInvalidator{},
	}

	logger := testutil.TestLoggerSilent()
	f.posts = NewPostService(f.queries, f.settings, f.notifier, logger)
	f.posts.SetCacheInvalidator(f.invalidator)
	f.comments = NewCommentService(f.queries, f.queries, f.queries, f.settings, logger)
	f.users = NewUserService(f.queries, f.settings, f.notifier, logger)

	f.author = testutil.ActorFor(testutil.CreateUser(t, db, "author@example.edu", model.RoleAuthor, true))
	f.other = testutil.ActorFor(testutil.CreateUser(t, db, "other@example.edu", model.RoleAuthor, true))
	f.admin = testutil.ActorFor(testutil.CreateUser(t, db, "admin@example.edu", model.RoleAdmin, true))
	f.reader = testutil.ActorFor(testutil.CreateUser(t, db, "pending@example.edu", model.RoleAuthor, false))
	return f
}

// storedStatus reads the post's status straight from the database.
func (f *fixture) storedStatus(t *testing.T, id string) string {
	t.Helper()
	p, err := f.queries.GetPost(context.Background(), id)
	if err != nil {
		t.Fatalf("GetPost: %v", err)
	}
	return p.Status
}

// published creates a post by the author and approves it.
func (f *fixture) published(t *testing.T, title string) *model.Post {
	t.Helper()
	ctx := context.Background()

	p, err := f.posts.Create(ctx, f.author, PostInput{Title: title, Body: "<p>body</p>", Submit: true})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	p, err = f.posts.Approve(ctx, f.admin, p.ID)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	return p
}
