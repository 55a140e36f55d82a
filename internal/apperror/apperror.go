// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package apperror defines the error kinds reported by the blog core and
// their mapping onto HTTP status codes.
package apperror

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error.
type Kind string

// Error kinds
const (
	KindValidation             Kind = "validation_error"
	KindAuthenticationRequired Kind = "unauthorized"
	KindAuthorizationDenied    Kind = "forbidden"
	KindNotFound               Kind = "not_found"
	KindConflict               Kind = "conflict"
	KindUpstreamUnavailable    Kind = "upstream_unavailable"
	KindInternal               Kind = "internal_error"
)

// Error is a classified error. Fields carries per-field validation messages.
type Error struct {
	Kind      Kind
	Message   string
	Fields    map[string]string
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation reports malformed or missing input.
func Validation(message string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

// FieldError reports a single invalid field.
func FieldError(field, message string) *Error {
	return Validation(message, map[string]string{field: message})
}

// AuthenticationRequired reports a missing actor identity.
func AuthenticationRequired(message string) *Error {
	return &Error{Kind: KindAuthenticationRequired, Message: message}
}

// Denied reports an actor lacking permission.
func Denied(format string, args ...any) *Error {
	return &Error{Kind: KindAuthorizationDenied, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing entity.
func NotFound(entity string) *Error {
	return &Error{Kind: KindNotFound, Message: entity + " not found"}
}

// Conflict reports a state conflict such as an invalid transition.
func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// RetryableConflict reports a conflict the client may retry.
func RetryableConflict(message string, err error) *Error {
	return &Error{Kind: KindConflict, Message: message, Retryable: true, Err: err}
}

// Unavailable wraps a store or sink failure.
func Unavailable(message string, err error) *Error {
	return &Error{Kind: KindUpstreamUnavailable, Message: message, Err: err}
}

// KindOf returns the kind of err. Unclassified errors are internal;
// sql.ErrNoRows anywhere in the chain is treated as not found.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, sql.ErrNoRows) {
		return KindNotFound
	}
	return KindInternal
}

// Is reports whether err is of the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// IsRetryable reports whether err is a retryable conflict.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable
}

// FieldsOf returns the validation details of err, if any.
func FieldsOf(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}

// MessageOf returns a client-safe message for err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	if errors.Is(err, sql.ErrNoRows) {
		return "Not found"
	}
	return "Internal Server Error"
}

// HTTPStatus maps an error kind to a response status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthenticationRequired:
		return http.StatusUnauthorized
	case KindAuthorizationDenied:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUpstreamUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
