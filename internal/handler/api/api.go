// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the JSON REST handlers of the blog.
package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/uniblog/internal/apperror"
	"github.com/olegiv/uniblog/internal/cache"
	"github.com/olegiv/uniblog/internal/middleware"
	"github.com/olegiv/uniblog/internal/service"
)

// maxBodyBytes limits JSON request bodies.
const maxBodyBytes = 1 << 20

// Deps are the collaborators of the API handlers. PostCache and
// LoginProtection are optional.
type Deps struct {
	DB              *sql.DB
	Sessions        *scs.SessionManager
	Posts           *service.PostService
	Comments        *service.CommentService
	Users           *service.UserService
	Settings        *service.SettingsService
	PostCache       *cache.PostCache
	LoginProtection *middleware.LoginProtection
	Logger          *slog.Logger
	Version         string
}

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	db        *sql.DB
	sm        *scs.SessionManager
	posts     *service.PostService
	comments  *service.CommentService
	users     *service.UserService
	settings  *service.SettingsService
	postCache *cache.PostCache
	lp        *middleware.LoginProtection
	logger    *slog.Logger
	version   string
}

// NewHandler creates the API handler.
func NewHandler(d Deps) *Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		db:        d.DB,
		sm:        d.Sessions,
		posts:     d.Posts,
		comments:  d.Comments,
		users:     d.Users,
		settings:  d.Settings,
		postCache: d.PostCache,
		lp:        d.LoginProtection,
		logger:    logger,
		version:   d.Version,
	}
}

// Response is the standard API response wrapper.
type Response struct {
	Data any   `json:"data"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta contains pagination metadata.
type Meta struct {
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Pages   int   `json:"pages"`
}

// ErrorResponse is the standard API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a 200 response.
func WriteSuccess(w http.ResponseWriter, data any, meta *Meta) {
	WriteJSON(w, http.StatusOK, Response{Data: data, Meta: meta})
}

// WriteCreated writes a 201 response.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{Data: data})
}

// WriteNoContent writes a 204 response.
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteError writes an error response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// WriteBadRequest writes a 400 response.
func WriteBadRequest(w http.ResponseWriter, message string, details map[string]string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message, details)
}

// writeServiceError maps a service error onto the response. Internal and
// upstream failures are logged and their cause is not exposed.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperror.KindOf(err)
	status := apperror.HTTPStatus(kind)

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"kind", string(kind),
			"error", err)
	}

	message := apperror.MessageOf(err)
	if kind == apperror.KindUpstreamUnavailable {
		message = "Service temporarily unavailable"
	}

	var details map[string]string
	if fields := apperror.FieldsOf(err); len(fields) > 0 {
		details = fields
	}
	if apperror.IsRetryable(err) {
		if details == nil {
			details = map[string]string{}
		}
		details["retryable"] = "true"
	}

	WriteError(w, status, string(kind), message, details)
}

// decodeJSON reads the request body into dst. It writes a 400 response and
// returns false when the body is not valid JSON for dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			WriteBadRequest(w, "Request body is required", nil)
		case errors.As(err, &maxErr):
			WriteError(w, http.StatusRequestEntityTooLarge, "request_too_large", "Request body is too large", nil)
		default:
			WriteBadRequest(w, "Invalid JSON body", nil)
		}
		return false
	}
	return true
}

// parsePagination reads page and per_page query parameters.
func parsePagination(r *http.Request) (page, perPage int) {
	q := r.URL.Query()
	page, _ = strconv.Atoi(q.Get("page"))
	perPage, _ = strconv.Atoi(q.Get("per_page"))
	return service.NormalizePage(page, perPage)
}

func pageMeta(p service.Page) *Meta {
	pages := 0
	if p.PerPage > 0 {
		pages = int((p.Total + int64(p.PerPage) - 1) / int64(p.PerPage))
	}
	return &Meta{
		Total:   p.Total,
		Page:    p.Page,
		PerPage: p.PerPage,
		Pages:   pages,
	}
}
