// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// AuthorRef references the author of a post either by identity alone or
// with the user record already loaded.
type AuthorRef struct {
	id   string
	user *User
}

// AuthorByID returns an unresolved reference.
func AuthorByID(id string) AuthorRef {
	return AuthorRef{id: id}
}

// AuthorFromUser returns a resolved reference.
func AuthorFromUser(u User) AuthorRef {
	return AuthorRef{id: u.ID, user: &u}
}

// ID returns the author identity. It is valid for both forms.
func (a AuthorRef) ID() string {
	return a.id
}

// User returns the loaded user, or false if the reference is unresolved.
func (a AuthorRef) User() (*User, bool) {
	if a.user == nil {
		return nil, false
	}
	return a.user, true
}

// IsResolved returns true if the user record is attached.
func (a AuthorRef) IsResolved() bool {
	return a.user != nil
}
