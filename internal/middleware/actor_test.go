// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/uniblog/internal/model"
	"github.com/olegiv/uniblog/internal/session"
)

// simpleOKHandler returns an http.Handler that writes 200 OK.
var simpleOKHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

type fakeUsers map[string]model.User

func (f fakeUsers) GetUserByID(_ context.Context, id string) (model.User, error) {
	u, ok := f[id]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

// sessionChain runs next behind a session that holds userID.
func sessionChain(sm *scs.SessionManager, userID string, next http.Handler) http.Handler {
	put := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID != "" {
			sm.Put(r.Context(), session.KeyUserID, userID)
		}
		next.ServeHTTP(w, r)
	})
	return sm.LoadAndSave(put)
}

func decodeAPIError(t *testing.T, rr *httptest.ResponseRecorder) APIError {
	t.Helper()
	var resp APIError
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return resp
}

func TestLoadActor(t *testing.T) {
	users := fakeUsers{
		"u-author": {ID: "u-author", Role: model.RoleAuthor, IsApproved: true},
		"u-admin":  {ID: "u-admin", Role: model.RoleAdmin, IsApproved: true},
	}

	tests := []struct {
		name       string
		userID     string
		wantID     string
		wantRole   string
		wantUser   bool
		wantAuthed bool
	}{
		{name: "anonymous", userID: ""},
		{name: "author", userID: "u-author", wantID: "u-author", wantRole: model.RoleAuthor, wantUser: true, wantAuthed: true},
		{name: "admin", userID: "u-admin", wantID: "u-admin", wantRole: model.RoleAdmin, wantUser: true, wantAuthed: true},
		{name: "deleted user", userID: "u-gone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := scs.New()

			var got model.Actor
			var gotUser *model.User
			final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = GetActor(r)
				gotUser = GetUser(r)
				w.WriteHeader(http.StatusOK)
			})

			h := sessionChain(sm, tt.userID, LoadActor(sm, users)(final))
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/posts", nil))

			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
			}
			if got.ID != tt.wantID {
				t.Errorf("actor ID = %q, want %q", got.ID, tt.wantID)
			}
			if got.Role != tt.wantRole {
				t.Errorf("actor Role = %q, want %q", got.Role, tt.wantRole)
			}
			if got.IsAuthenticated() != tt.wantAuthed {
				t.Errorf("IsAuthenticated() = %v, want %v", got.IsAuthenticated(), tt.wantAuthed)
			}
			if (gotUser != nil) != tt.wantUser {
				t.Errorf("user present = %v, want %v", gotUser != nil, tt.wantUser)
			}
		})
	}
}

func TestActorFromEmptyContext(t *testing.T) {
	actor := ActorFrom(context.Background())
	if actor.IsAuthenticated() {
		t.Errorf("expected anonymous actor, got %+v", actor)
	}

	ctx := WithActor(context.Background(), model.Actor{ID: "u1", Role: model.RoleAdmin, Approved: true})
	if !ActorFrom(ctx).IsAdmin() {
		t.Error("expected admin actor from context")
	}
}

func TestRequireAuth(t *testing.T) {
	tests := []struct {
		name       string
		actor      model.Actor
		wantStatus int
	}{
		{"anonymous", model.Anonymous(), http.StatusUnauthorized},
		{"unapproved author", model.Actor{ID: "u1", Role: model.RoleAuthor}, http.StatusOK},
		{"admin", model.Actor{ID: "u2", Role: model.RoleAdmin, Approved: true}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
			req = req.WithContext(WithActor(req.Context(), tt.actor))
			rr := httptest.NewRecorder()

			RequireAuth(simpleOKHandler).ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusUnauthorized {
				if resp := decodeAPIError(t, rr); resp.Error.Code != "unauthorized" {
					t.Errorf("code = %q, want unauthorized", resp.Error.Code)
				}
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name       string
		actor      model.Actor
		wantStatus int
		wantCode   string
	}{
		{"anonymous", model.Anonymous(), http.StatusUnauthorized, "unauthorized"},
		{"author", model.Actor{ID: "u1", Role: model.RoleAuthor, Approved: true}, http.StatusForbidden, "forbidden"},
		{"admin", model.Actor{ID: "u2", Role: model.RoleAdmin, Approved: true}, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/posts/p1/approve", nil)
			req = req.WithContext(WithActor(req.Context(), tt.actor))
			rr := httptest.NewRecorder()

			RequireAdmin(simpleOKHandler).ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if tt.wantCode != "" {
				if resp := decodeAPIError(t, rr); resp.Error.Code != tt.wantCode {
					t.Errorf("code = %q, want %q", resp.Error.Code, tt.wantCode)
				}
			}
		})
	}
}
