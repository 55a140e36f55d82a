// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/olegiv/uniblog/internal/apperror"
	"github.com/olegiv/uniblog/internal/model"
	"github.com/olegiv/uniblog/internal/store"
	"github.com/olegiv/uniblog/internal/util"
)

// MaxSlugAttempts bounds how many times Assign retries a write that lost a
// slug race to a concurrent writer.
const MaxSlugAttempts = 5

// SlugChecker reports slug usage.
type SlugChecker interface {
	// SlugTaken reports whether a post other than excludeID holds slug.
	SlugTaken(ctx context.Context, slug, excludeID string) (bool, error)
}

// SlugResolver finds collision-free slugs.
type SlugResolver struct {
	checker SlugChecker
}

// NewSlugResolver creates a resolver over checker.
func NewSlugResolver(checker SlugChecker) *SlugResolver {
	return &SlugResolver{checker: checker}
}

// Resolve returns base when no other post holds it, otherwise base-N for the
// smallest free N >= 1. The post excludeID never collides with itself.
func (r *SlugResolver) Resolve(ctx context.Context, base, excludeID string) (string, error) {
	slug, _, err := r.resolveFrom(ctx, base, excludeID, 0)
	return slug, err
}

// resolveFrom searches candidates starting at suffix n (0 meaning base
// itself) and returns the slug with the suffix it used.
func (r *SlugResolver) resolveFrom(ctx context.Context, base, excludeID string, n int) (string, int, error) {
	for ; ; n++ {
		if err := ctx.Err(); err != nil {
			return "", n, err
		}

		candidate := withSuffix(base, n)
		taken, err := r.checker.SlugTaken(ctx, candidate, excludeID)
		if err != nil {
			return "", n, fmt.Errorf("checking slug %q: %w", candidate, err)
		}
		if !taken {
			return candidate, n, nil
		}
	}
}

// withSuffix appends -n to base, trimming base so the result fits
// util.MaxSlugLength. n == 0 returns base.
func withSuffix(base string, n int) string {
	if n == 0 {
		return base
	}
	suffix := "-" + strconv.Itoa(n)
	if len(base)+len(suffix) > util.MaxSlugLength {
		base = strings.TrimRight(base[:util.MaxSlugLength-len(suffix)], "-")
	}
	return base + suffix
}

// Assign resolves a slug for p from its title and hands it to write.
// When write fails because the slug index already holds the candidate, the
// search resumes at the next suffix. After MaxSlugAttempts lost races a
// retryable Conflict is returned.
func (r *SlugResolver) Assign(ctx context.Context, p *model.Post, write func(ctx context.Context, slug string) error) (string, error) {
	base := util.FallbackSlug(p.Title, p.ID)

	var (
		next    int
		lastErr error
	)
	for attempt := 0; attempt < MaxSlugAttempts; attempt++ {
		slug, n, err := r.resolveFrom(ctx, base, p.ID, next)
		if err != nil {
			return "", apperror.Unavailable("resolving slug", err)
		}

		err = write(ctx, slug)
		if err == nil {
			return slug, nil
		}
		if !errors.Is(err, store.ErrSlugTaken) {
			return "", err
		}
		lastErr = err
		next = n + 1
	}

	return "", apperror.RetryableConflict(
		fmt.Sprintf("could not reserve a unique slug for %q after %d attempts", base, MaxSlugAttempts),
		lastErr,
	)
}
