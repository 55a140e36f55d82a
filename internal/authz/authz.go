// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package authz decides what an actor may do with a post.
//
// Every function is pure: the decision depends only on the actor's role,
// identity and approval flag and on the post's status and author.
package authz

import "github.com/olegiv/uniblog/internal/model"

// PostFacts is the subset of a post the gate looks at.
type PostFacts struct {
	Status   string
	AuthorID string
}

// Facts extracts the gate-relevant fields of a post.
func Facts(p *model.Post) PostFacts {
	return PostFacts{Status: p.Status, AuthorID: p.AuthorID()}
}

// CanView reports whether the actor may read the post.
// Published posts are public; anything else is visible to its author and admins.
func CanView(a model.Actor, p PostFacts) bool {
	if p.Status == model.PostStatusPublished {
		return true
	}
	return a.IsAdmin() || a.Is(p.AuthorID)
}

// CanEdit reports whether the actor may change the post's content.
// Admins may edit in any state. Approved authors may edit their own posts;
// an edit to a published post sends it back to review.
func CanEdit(a model.Actor, p PostFacts) bool {
	if a.IsAdmin() {
		return true
	}
	if !a.Is(p.AuthorID) || !a.Approved {
		return false
	}
	switch p.Status {
	case model.PostStatusDraft, model.PostStatusPending,
		model.PostStatusRejected, model.PostStatusPublished:
		return true
	}
	return false
}

// CanModerate reports whether the actor may approve, reject or force-publish.
func CanModerate(a model.Actor) bool {
	return a.IsAdmin()
}

// CanComment reports whether the actor may comment on the post.
func CanComment(a model.Actor, p PostFacts) bool {
	return a.IsAuthenticated() && a.Approved && p.Status == model.PostStatusPublished
}

// CanSubmit reports whether the actor may send the post to review.
// Only the approved owning author submits, from draft or rejected.
func CanSubmit(a model.Actor, p PostFacts) bool {
	if !a.Is(p.AuthorID) || !a.Approved {
		return false
	}
	return p.Status == model.PostStatusDraft || p.Status == model.PostStatusRejected
}

// CanDelete reports whether the actor may delete the post.
// Authors can delete their own posts until they are published.
func CanDelete(a model.Actor, p PostFacts) bool {
	if a.IsAdmin() {
		return true
	}
	return a.Is(p.AuthorID) && p.Status != model.PostStatusPublished
}
