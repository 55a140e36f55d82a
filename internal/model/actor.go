// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Actor is the identity on whose behalf an operation runs.
// The zero value is the anonymous actor.
type Actor struct {
	ID       string
	Role     string
	Approved bool
}

// Anonymous returns the unauthenticated actor.
func Anonymous() Actor {
	return Actor{}
}

// ActorFromUser builds an actor from a loaded user. A nil user is anonymous.
func ActorFromUser(u *User) Actor {
	if u == nil {
		return Anonymous()
	}
	return Actor{
		ID:       u.ID,
		Role:     u.Role,
		Approved: u.IsApproved,
	}
}

// IsAuthenticated returns true if the actor carries an identity.
func (a Actor) IsAuthenticated() bool {
	return a.ID != ""
}

// IsAdmin returns true for authenticated admins.
func (a Actor) IsAdmin() bool {
	return a.IsAuthenticated() && a.Role == RoleAdmin
}

// Is returns true if the actor is the user with the given id.
func (a Actor) Is(userID string) bool {
	return a.IsAuthenticated() && a.ID == userID
}
