// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"time"

	"github.com/olegiv/uniblog/internal/model"
)

// DefaultPostTTL is how long a published post is served from cache.
const DefaultPostTTL = 5 * time.Minute

const postKeyPrefix = "post:slug:"

// cachedPost is the stored form of a published post. model.Post hides the
// author and publish time from JSON, so they are carried explicitly.
type cachedPost struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	Slug        string     `json:"slug"`
	AuthorID    string     `json:"author_id"`
	Category    string     `json:"category,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

func toCached(p *model.Post) *cachedPost {
	c := &cachedPost{
		ID:        p.ID,
		Title:     p.Title,
		Body:      p.Body,
		Slug:      p.Slug,
		AuthorID:  p.AuthorID(),
		Category:  p.Category,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if p.PublishedAt.Valid {
		t := p.PublishedAt.Time
		c.PublishedAt = &t
	}
	return c
}

func (c *cachedPost) post() *model.Post {
	p := &model.Post{
		ID:        c.ID,
		Title:     c.Title,
		Body:      c.Body,
		Status:    model.PostStatusPublished,
		Slug:      c.Slug,
		Author:    model.AuthorByID(c.AuthorID),
		Category:  c.Category,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if c.PublishedAt != nil {
		p.PublishedAt = sql.NullTime{Time: *c.PublishedAt, Valid: true}
	}
	return p
}

// PostCache serves published posts by slug. Only published posts are
// stored; the workflow invalidates an entry whenever the post leaves the
// published state or is deleted.
type PostCache struct {
	posts  *TypedCache[cachedPost]
	logger *slog.Logger

	// gens counts invalidations per slug. A load that started before an
	// invalidation must not store its result.
	mu   sync.Mutex
	gens map[string]uint64
}

// NewPostCache creates a post cache over c. A zero ttl uses DefaultPostTTL.
func NewPostCache(c Cacher, ttl time.Duration, logger *slog.Logger) *PostCache {
	if ttl <= 0 {
		ttl = DefaultPostTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostCache{
		posts:  NewTypedCache[cachedPost](c, ttl),
		logger: logger,
		gens:   make(map[string]uint64),
	}
}

func postKey(slug string) string {
	return postKeyPrefix + slug
}

// Get returns the cached published post for slug.
func (pc *PostCache) Get(ctx context.Context, slug string) (*model.Post, bool) {
	c, ok := pc.posts.Get(ctx, postKey(slug))
	if !ok {
		return nil, false
	}
	return c.post(), true
}

// Put caches p if it is published and has a slug.
func (pc *PostCache) Put(ctx context.Context, p *model.Post) {
	if p == nil || !p.IsPublished() || !p.HasSlug() {
		return
	}
	if err := pc.posts.Set(ctx, postKey(p.Slug), toCached(p)); err != nil {
		pc.logger.Warn("failed to cache post", "slug", p.Slug, "error", err)
	}
}

// GetOrLoad returns the cached post for slug or calls load and caches the
// result when it is published. Load errors are returned unchanged. If the
// slug is invalidated while load runs, the loaded post is returned but not
// cached.
func (pc *PostCache) GetOrLoad(ctx context.Context, slug string, load func(context.Context) (*model.Post, error)) (*model.Post, error) {
	if p, ok := pc.Get(ctx, slug); ok {
		return p, nil
	}

	pc.mu.Lock()
	gen := pc.gens[slug]
	pc.mu.Unlock()

	p, err := load(ctx)
	if err != nil {
		return nil, err
	}

	pc.mu.Lock()
	defer pc.mu.Unlock()
	if pc.gens[slug] == gen && p != nil && p.Slug == slug {
		pc.Put(ctx, p)
	}
	return p, nil
}

// InvalidatePost drops the cached copy of the post with slug.
func (pc *PostCache) InvalidatePost(ctx context.Context, slug string) {
	if slug == "" {
		return
	}

	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.gens[slug]++
	if err := pc.posts.Delete(ctx, postKey(slug)); err != nil {
		pc.logger.Warn("failed to invalidate cached post", "slug", slug, "error", err)
	}
}
