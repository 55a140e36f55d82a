// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/uniblog/internal/model"
)

// testDB creates a temporary migrated test database.
func testDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "uniblog-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	_ = f.Close()

	db, err := NewDB(dbPath)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}

	if err := Migrate(db); err != nil {
		_ = db.Close()
		t.Fatalf("Migrate: %v", err)
	}

	return db, func() { _ = db.Close() }
}

func createUser(t *testing.T, q *Queries, email, role string, approved bool) model.User {
	t.Helper()

	now := time.Now().UTC()
	u := model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: "hash",
		Name:         "Test User",
		Role:         role,
		Department:   "Physics",
		IsApproved:   approved,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := q.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

func createPost(t *testing.T, q *Queries, authorID, status, slug string) model.Post {
	t.Helper()

	now := time.Now().UTC()
	p := model.Post{
		ID:        uuid.NewString(),
		Title:     "Title " + slug,
		Body:      "<p>Body</p>",
		Status:    status,
		Slug:      slug,
		Author:    model.AuthorByID(authorID),
		Category:  "news",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if status == model.PostStatusPublished {
		p.PublishedAt = sql.NullTime{Time: now, Valid: true}
	}
	if err := q.CreatePost(context.Background(), p); err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	return p
}

func TestCreateAndGetUser(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	created := createUser(t, q, "Test@Example.edu", model.RoleAuthor, false)

	found, err := q.GetUserByEmail(ctx, "TEST@example.EDU")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("ID = %q, want %q", found.ID, created.ID)
	}
	if found.Email != "test@example.edu" {
		t.Errorf("Email = %q, want lower-cased", found.Email)
	}
	if found.Department != "Physics" {
		t.Errorf("Department = %q, want Physics", found.Department)
	}
	if found.IsApproved {
		t.Error("IsApproved = true, want false")
	}

	byID, err := q.GetUserByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if byID.Email != found.Email {
		t.Errorf("GetUserByID Email = %q, want %q", byID.Email, found.Email)
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	q := New(db)
	createUser(t, q, "dup@example.edu", model.RoleAuthor, true)

	now := time.Now().UTC()
	err := q.CreateUser(context.Background(), model.User{
		ID:        uuid.NewString(),
		Email:     "DUP@example.edu",
		Role:      model.RoleAuthor,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("CreateUser duplicate err = %v, want ErrEmailTaken", err)
	}
}

func TestGetUser_NotFound(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	_, err := New(db).GetUserByEmail(context.Background(), "nobody@example.edu")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestPendingUsersAndApprove(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	pending := createUser(t, q, "pending@example.edu", model.RoleAuthor, false)
	createUser(t, q, "ok@example.edu", model.RoleAuthor, true)

	users, err := q.ListPendingUsers(ctx)
	if err != nil {
		t.Fatalf("ListPendingUsers: %v", err)
	}
	if len(users) != 1 || users[0].ID != pending.ID {
		t.Fatalf("ListPendingUsers = %+v, want only %s", users, pending.ID)
	}

	if err := q.ApproveUser(ctx, pending.ID, time.Now().UTC()); err != nil {
		t.Fatalf("ApproveUser: %v", err)
	}
	users, err = q.ListPendingUsers(ctx)
	if err != nil {
		t.Fatalf("ListPendingUsers: %v", err)
	}
	if len(users) != 0 {
		t.Errorf("len(pending) = %d, want 0", len(users))
	}

	if err := q.ApproveUser(ctx, "missing", time.Now().UTC()); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("ApproveUser(missing) err = %v, want sql.ErrNoRows", err)
	}
}

func TestUpdateLastLogin(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	u := createUser(t, q, "login@example.edu", model.RoleAuthor, true)

	if err := q.UpdateLastLogin(ctx, u.ID, time.Now().UTC()); err != nil {
		t.Fatalf("UpdateLastLogin: %v", err)
	}
	found, err := q.GetUserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if !found.LastLoginAt.Valid {
		t.Error("LastLoginAt should be set")
	}
}

func TestPostCRUD(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	author := createUser(t, q, "author@example.edu", model.RoleAuthor, true)

	p := createPost(t, q, author.ID, model.PostStatusDraft, "")

	got, err := q.GetPost(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPost: %v", err)
	}
	if got.HasSlug() {
		t.Errorf("Slug = %q, want empty", got.Slug)
	}
	if got.AuthorID() != author.ID {
		t.Errorf("AuthorID = %q, want %q", got.AuthorID(), author.ID)
	}
	if got.PublishedAt.Valid {
		t.Error("PublishedAt should be NULL for drafts")
	}

	got.Status = model.PostStatusPublished
	got.Slug = "first-post"
	got.PublishedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}
	if err := q.UpdatePost(ctx, got); err != nil {
		t.Fatalf("UpdatePost: %v", err)
	}

	bySlug, err := q.GetPostBySlug(ctx, "first-post")
	if err != nil {
		t.Fatalf("GetPostBySlug: %v", err)
	}
	if bySlug.ID != p.ID || !bySlug.IsPublished() {
		t.Errorf("GetPostBySlug = %+v", bySlug)
	}

	if err := q.DeletePost(ctx, p.ID); err != nil {
		t.Fatalf("DeletePost: %v", err)
	}
	if _, err := q.GetPost(ctx, p.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetPost after delete err = %v, want sql.ErrNoRows", err)
	}
	if err := q.DeletePost(ctx, p.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("DeletePost twice err = %v, want sql.ErrNoRows", err)
	}
}

func TestPostSlugUniqueness(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	author := createUser(t, q, "slug@example.edu", model.RoleAuthor, true)

	first := createPost(t, q, author.ID, model.PostStatusPublished, "hello-world-2024")
	second := createPost(t, q, author.ID, model.PostStatusPending, "")
	// Multiple NULL slugs are allowed.
	createPost(t, q, author.ID, model.PostStatusDraft, "")

	taken, err := q.SlugTaken(ctx, "hello-world-2024", second.ID)
	if err != nil {
		t.Fatalf("SlugTaken: %v", err)
	}
	if !taken {
		t.Error("SlugTaken for another post = false, want true")
	}

	taken, err = q.SlugTaken(ctx, "hello-world-2024", first.ID)
	if err != nil {
		t.Fatalf("SlugTaken: %v", err)
	}
	if taken {
		t.Error("SlugTaken excluding owner = true, want false")
	}

	second.Slug = "hello-world-2024"
	err = q.UpdatePost(ctx, second)
	if !errors.Is(err, ErrSlugTaken) {
		t.Errorf("UpdatePost duplicate slug err = %v, want ErrSlugTaken", err)
	}
}

func TestListAndCountPosts(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	a := createUser(t, q, "a@example.edu", model.RoleAuthor, true)
	b := createUser(t, q, "b@example.edu", model.RoleAuthor, true)

	createPost(t, q, a.ID, model.PostStatusPublished, "a-1")
	createPost(t, q, a.ID, model.PostStatusPublished, "a-2")
	createPost(t, q, a.ID, model.PostStatusDraft, "")
	createPost(t, q, b.ID, model.PostStatusPublished, "b-1")
	createPost(t, q, b.ID, model.PostStatusPending, "")

	tests := []struct {
		name string
		arg  ListPostsParams
		want int64
	}{
		{"all", ListPostsParams{}, 5},
		{"published", ListPostsParams{Status: model.PostStatusPublished}, 3},
		{"author a", ListPostsParams{AuthorID: a.ID}, 3},
		{"published by b", ListPostsParams{Status: model.PostStatusPublished, AuthorID: b.ID}, 1},
		{"category", ListPostsParams{Category: "news"}, 5},
		{"unknown category", ListPostsParams{Category: "sports"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := q.CountPosts(ctx, tt.arg)
			if err != nil {
				t.Fatalf("CountPosts: %v", err)
			}
			if n != tt.want {
				t.Errorf("CountPosts = %d, want %d", n, tt.want)
			}

			arg := tt.arg
			arg.Limit = 100
			posts, err := q.ListPosts(ctx, arg)
			if err != nil {
				t.Fatalf("ListPosts: %v", err)
			}
			if int64(len(posts)) != tt.want {
				t.Errorf("len(ListPosts) = %d, want %d", len(posts), tt.want)
			}
		})
	}

	page, err := q.ListPosts(ctx, ListPostsParams{Limit: 2, Offset: 4})
	if err != nil {
		t.Fatalf("ListPosts page: %v", err)
	}
	if len(page) != 1 {
		t.Errorf("len(last page) = %d, want 1", len(page))
	}
}

func TestPostVersions(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	author := createUser(t, q, "v@example.edu", model.RoleAuthor, true)
	p := createPost(t, q, author.ID, model.PostStatusPublished, "versioned")

	for i := 0; i < 3; i++ {
		v := p.Snapshot(author.ID, time.Now().UTC())
		v.ID = uuid.NewString()
		v.Title = "Title " + string(rune('A'+i))
		if err := q.CreatePostVersion(ctx, v); err != nil {
			t.Fatalf("CreatePostVersion: %v", err)
		}
	}

	versions, err := q.ListPostVersions(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListPostVersions: %v", err)
	}
	if len(versions) != 3 {
		t.Fatalf("len(versions) = %d, want 3", len(versions))
	}
	if versions[0].Title != "Title A" || versions[2].Title != "Title C" {
		t.Errorf("versions out of order: %q .. %q", versions[0].Title, versions[2].Title)
	}
}

func TestComments(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	author := createUser(t, q, "c@example.edu", model.RoleAuthor, true)
	p := createPost(t, q, author.ID, model.PostStatusPublished, "commented")

	now := time.Now().UTC()
	parent := model.Comment{ID: uuid.NewString(), PostID: p.ID, AuthorID: author.ID, Content: "first", IsApproved: true, CreatedAt: now}
	reply := model.Comment{
		ID:        uuid.NewString(),
		PostID:    p.ID,
		AuthorID:  author.ID,
		ParentID:  sql.NullString{String: parent.ID, Valid: true},
		Content:   "reply",
		CreatedAt: now.Add(time.Second),
	}
	for _, c := range []model.Comment{parent, reply} {
		if err := q.CreateComment(ctx, c); err != nil {
			t.Fatalf("CreateComment: %v", err)
		}
	}

	approved, err := q.ListComments(ctx, p.ID, false)
	if err != nil {
		t.Fatalf("ListComments: %v", err)
	}
	if len(approved) != 1 {
		t.Errorf("len(approved) = %d, want 1", len(approved))
	}

	all, err := q.ListComments(ctx, p.ID, true)
	if err != nil {
		t.Fatalf("ListComments: %v", err)
	}
	if len(all) != 2 || !all[1].IsReply() {
		t.Fatalf("ListComments(all) = %+v", all)
	}

	if err := q.ApproveComment(ctx, reply.ID); err != nil {
		t.Fatalf("ApproveComment: %v", err)
	}
	got, err := q.GetComment(ctx, reply.ID)
	if err != nil {
		t.Fatalf("GetComment: %v", err)
	}
	if !got.IsApproved {
		t.Error("IsApproved = false after ApproveComment")
	}

	// Deleting the parent removes the reply.
	if err := q.DeleteComment(ctx, parent.ID); err != nil {
		t.Fatalf("DeleteComment: %v", err)
	}
	if _, err := q.GetComment(ctx, reply.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("reply after parent delete err = %v, want sql.ErrNoRows", err)
	}
}

func TestSettingsLazyDefaults(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	s, err := q.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	d := model.DefaultSettings()
	if s.MaintenanceMode != d.MaintenanceMode || s.RegistrationAllowed != d.RegistrationAllowed ||
		s.ApprovalRequired != d.ApprovalRequired || s.AutoPublish != d.AutoPublish {
		t.Errorf("GetSettings = %+v, want defaults %+v", s, d)
	}

	s.MaintenanceMode = true
	s.AutoPublish = true
	s.UpdatedAt = time.Now().UTC()
	s.UpdatedBy = sql.NullString{String: "admin", Valid: true}
	if err := q.UpdateSettings(ctx, s); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}

	got, err := q.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if !got.MaintenanceMode || !got.AutoPublish {
		t.Errorf("GetSettings after update = %+v", got)
	}
	if got.UpdatedBy.String != "admin" {
		t.Errorf("UpdatedBy = %q, want admin", got.UpdatedBy.String)
	}
}

func TestEvents(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	old := time.Now().UTC().Add(-48 * time.Hour)
	for _, at := range []time.Time{old, time.Now().UTC()} {
		if _, err := q.CreateEvent(ctx, CreateEventParams{
			Level:     model.EventLevelWarning,
			Category:  model.EventCategoryAuth,
			Message:   "login failed",
			CreatedAt: at,
		}); err != nil {
			t.Fatalf("CreateEvent: %v", err)
		}
	}

	n, err := q.DeleteEventsBefore(ctx, time.Now().UTC().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteEventsBefore: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}

	events, err := q.ListEvents(ctx, 10, 0)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 1 || events[0].Metadata != "{}" {
		t.Errorf("ListEvents = %+v", events)
	}
}

func TestUpdatePostWithVersion(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	author := createUser(t, q, "hist@example.edu", model.RoleAuthor, true)
	p := createPost(t, q, author.ID, model.PostStatusPublished, "history")

	v := p.Snapshot(author.ID, time.Now().UTC())
	v.ID = uuid.NewString()
	edited := p
	edited.Title = "Edited"
	edited.Status = model.PostStatusPending
	if err := q.UpdatePostWithVersion(ctx, edited, v); err != nil {
		t.Fatalf("UpdatePostWithVersion: %v", err)
	}

	got, err := q.GetPost(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPost: %v", err)
	}
	if got.Title != "Edited" || got.Status != model.PostStatusPending {
		t.Errorf("post = %q/%q, want Edited/pending", got.Title, got.Status)
	}
	versions, err := q.ListPostVersions(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListPostVersions: %v", err)
	}
	if len(versions) != 1 || versions[0].Title != p.Title {
		t.Fatalf("versions = %+v, want one snapshot of %q", versions, p.Title)
	}

	// A failing update rolls the history entry back with it.
	if _, err := db.ExecContext(ctx, `
		CREATE TRIGGER posts_read_only BEFORE UPDATE ON posts
		BEGIN SELECT RAISE(ABORT, 'disk full'); END`); err != nil {
		t.Fatalf("creating trigger: %v", err)
	}
	v2 := got.Snapshot(author.ID, time.Now().UTC())
	v2.ID = uuid.NewString()
	edited.Title = "Edited again"
	if err := q.UpdatePostWithVersion(ctx, edited, v2); err == nil {
		t.Fatal("UpdatePostWithVersion succeeded, want trigger failure")
	}

	versions, err = q.ListPostVersions(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListPostVersions: %v", err)
	}
	if len(versions) != 1 {
		t.Errorf("len(versions) = %d after failed update, want 1", len(versions))
	}
}

func TestInTx_Rollback(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	boom := errors.New("boom")
	err := InTx(ctx, db, func(q *Queries) error {
		createUser(t, q, "tx@example.edu", model.RoleAuthor, true)
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("InTx err = %v, want boom", err)
	}

	n, err := New(db).CountUsers(ctx)
	if err != nil {
		t.Fatalf("CountUsers: %v", err)
	}
	if n != 0 {
		t.Errorf("count = %d, want 0 after rollback", n)
	}
}

func TestSeedAdmin(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	if err := SeedAdmin(ctx, db, "Admin@Example.edu", "changeme-please"); err != nil {
		t.Fatalf("SeedAdmin: %v", err)
	}

	admin, err := q.GetUserByEmail(ctx, "admin@example.edu")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if admin.Role != model.RoleAdmin || !admin.IsApproved {
		t.Errorf("admin = %+v, want approved admin", admin)
	}

	if err := SeedAdmin(ctx, db, "admin@example.edu", "changeme-please"); err != nil {
		t.Fatalf("second SeedAdmin: %v", err)
	}
	count, err := q.CountUsers(ctx)
	if err != nil {
		t.Fatalf("CountUsers: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1 (seed should skip if exists)", count)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		column string
		want   bool
	}{
		{"nil", nil, "", false},
		{"other error", errors.New("disk I/O error"), "", false},
		{"any column", errors.New("constraint failed: UNIQUE constraint failed: posts.slug (2067)"), "", true},
		{"matching column", errors.New("UNIQUE constraint failed: posts.slug"), "posts.slug", true},
		{"other column", errors.New("UNIQUE constraint failed: users.email"), "posts.slug", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUniqueViolation(tt.err, tt.column); got != tt.want {
				t.Errorf("IsUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDSN(t *testing.T) {
	got := dsn("/tmp/x.db")
	if !strings.HasPrefix(got, "/tmp/x.db?_pragma=") {
		t.Errorf("dsn() = %q", got)
	}
	if !strings.Contains(got, "_pragma=foreign_keys(1)") {
		t.Errorf("dsn() = %q, missing foreign_keys", got)
	}
	if got := dsn("file:x.db?mode=rwc"); !strings.HasPrefix(got, "file:x.db?mode=rwc&_pragma=") {
		t.Errorf("dsn() with query = %q", got)
	}
}

func TestDeleteExpiredSessions(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `INSERT INTO sessions (token, data, expiry) VALUES
		('old', x'00', julianday('now') - 1),
		('live', x'00', julianday('now') + 1)`)
	if err != nil {
		t.Fatalf("insert sessions: %v", err)
	}

	n, err := New(db).DeleteExpiredSessions(ctx)
	if err != nil {
		t.Fatalf("DeleteExpiredSessions: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted %d sessions, want 1", n)
	}

	var token string
	if err := db.QueryRowContext(ctx, `SELECT token FROM sessions`).Scan(&token); err != nil {
		t.Fatalf("select: %v", err)
	}
	if token != "live" {
		t.Errorf("remaining token = %q, want live", token)
	}
}
