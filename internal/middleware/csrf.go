// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"filippo.io/csrf/gorilla"
)

// CSRFConfig holds configuration for CSRF protection.
// filippo.io/csrf/gorilla checks Fetch metadata and Origin headers, so no
// token cookie is involved.
type CSRFConfig struct {
	// AuthKey is a 32-byte key; the session secret is used.
	AuthKey []byte

	// ErrorHandler is called when validation fails. Defaults to a JSON 403.
	ErrorHandler http.Handler

	// TrustedOrigins are host values allowed to make cross-origin requests.
	TrustedOrigins []string
}

// DefaultCSRFConfig returns the CSRF configuration for the environment.
// allowedOrigins are CORS origins; full URLs are reduced to their host and
// the wildcard is ignored.
func DefaultCSRFConfig(authKey []byte, isDev bool, allowedOrigins []string) CSRFConfig {
	cfg := CSRFConfig{AuthKey: authKey}

	if isDev {
		cfg.TrustedOrigins = append(cfg.TrustedOrigins, "localhost:8080", "127.0.0.1:8080")
	}
	for _, origin := range allowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "" || origin == "*" {
			continue
		}
		if i := strings.Index(origin, "://"); i >= 0 {
			origin = origin[i+3:]
		}
		cfg.TrustedOrigins = append(cfg.TrustedOrigins, strings.TrimSuffix(origin, "/"))
	}

	return cfg
}

// CSRF returns CSRF protection middleware.
func CSRF(cfg CSRFConfig) func(http.Handler) http.Handler {
	var opts []csrf.Option

	if cfg.ErrorHandler != nil {
		opts = append(opts, csrf.ErrorHandler(cfg.ErrorHandler))
	} else {
		opts = append(opts, csrf.ErrorHandler(http.HandlerFunc(csrfErrorHandler)))
	}

	if len(cfg.TrustedOrigins) > 0 {
		opts = append(opts, csrf.TrustedOrigins(cfg.TrustedOrigins))
	}

	return csrf.Protect(cfg.AuthKey, opts...)
}

func csrfErrorHandler(w http.ResponseWriter, r *http.Request) {
	reason := "unknown"
	if err := csrf.FailureReason(r); err != nil {
		reason = err.Error()
	}
	slog.Warn("CSRF validation failed",
		"reason", reason,
		"method", r.Method,
		"path", r.URL.Path,
		"origin", r.Header.Get("Origin"),
		"sec_fetch_site", r.Header.Get("Sec-Fetch-Site"),
	)
	WriteAPIError(w, http.StatusForbidden, "csrf_failed", "Forbidden - CSRF validation failed", nil)
}

// SkipCSRF skips CSRF protection for the given paths. It must run before CSRF.
func SkipCSRF(paths ...string) func(http.Handler) http.Handler {
	skipPaths := make(map[string]bool, len(paths))
	for _, p := range paths {
		skipPaths[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipPaths[r.URL.Path] {
				r = csrf.UnsafeSkipCheck(r)
			}
			next.ServeHTTP(w, r)
		})
	}
}
