// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ugcPolicy allows safe formatting tags in post bodies and comments.
var ugcPolicy = bluemonday.UGCPolicy()

// SanitizeHTML removes scripts, event handlers and other unsafe markup
// from user-generated HTML.
func SanitizeHTML(s string) string {
	return strings.TrimSpace(ugcPolicy.Sanitize(s))
}
