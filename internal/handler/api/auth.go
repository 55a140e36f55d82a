// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/olegiv/uniblog/internal/apperror"
	"github.com/olegiv/uniblog/internal/middleware"
	"github.com/olegiv/uniblog/internal/service"
	"github.com/olegiv/uniblog/internal/session"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /api/v1/auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.users.Register(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	WriteCreated(w, userToResponse(user))
}

// Login handles POST /api/v1/auth/login. Repeated failures lock the account
// for a growing period.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		WriteError(w, http.StatusBadRequest, string(apperror.KindValidation), "Email and password are required", nil)
		return
	}

	if h.lp != nil {
		if locked, remaining := h.lp.IsAccountLocked(email); locked {
			h.logger.Warn("login attempt on locked account", "email", email)
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(remaining.Seconds()))))
			WriteError(w, http.StatusTooManyRequests, "account_locked", "Too many failed attempts. Please try again later.", nil)
			return
		}
	}

	user, err := h.users.Authenticate(r.Context(), email, req.Password)
	if err != nil {
		if apperror.Is(err, apperror.KindAuthenticationRequired) && h.lp != nil {
			h.lp.RecordFailedAttempt(email)
		}
		h.logger.Warn("login failed", "email", email, "reason", apperror.MessageOf(err))
		h.writeServiceError(w, r, err)
		return
	}

	if h.lp != nil {
		h.lp.RecordSuccessfulLogin(email)
	}

	if err := h.sm.RenewToken(r.Context()); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.sm.Put(r.Context(), session.KeyUserID, user.ID)

	h.logger.Info("user logged in", "user_id", user.ID)
	WriteSuccess(w, userToResponse(user), nil)
}

// Logout handles POST /api/v1/auth/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r)
	if err := h.sm.Destroy(r.Context()); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if actor.IsAuthenticated() {
		h.logger.Info("user logged out", "user_id", actor.ID)
	}
	WriteNoContent(w)
}

// Me handles GET /api/v1/auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteError(w, http.StatusUnauthorized, string(apperror.KindAuthenticationRequired), "Authentication required", nil)
		return
	}
	WriteSuccess(w, userToResponse(user), nil)
}
