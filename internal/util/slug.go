// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util provides general-purpose utility functions including
// URL slug generation, validation and content sanitizing.
package util

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxSlugLength is the maximum length of a generated slug.
const MaxSlugLength = 50

var (
	// slugRegex matches everything except lowercase alphanumerics, whitespace and hyphens
	slugRegex = regexp.MustCompile(`[^a-z0-9\s-]+`)
	// separatorRuns matches runs of whitespace and hyphens
	separatorRuns = regexp.MustCompile(`[\s-]+`)
)

// GenerateSlug converts a title to a URL slug candidate.
// It lowercases the title, drops every character outside [a-z0-9], whitespace
// and hyphens, collapses whitespace and hyphen runs to a single hyphen,
// truncates to MaxSlugLength and trims hyphens from both ends.
// The result is empty when the title has no usable characters.
func GenerateSlug(title string) string {
	result := strings.ToLower(title)
	result = slugRegex.ReplaceAllString(result, "")
	result = separatorRuns.ReplaceAllString(result, "-")
	result = strings.TrimLeft(result, "-")

	if len(result) > MaxSlugLength {
		result = result[:MaxSlugLength]
	}

	return strings.TrimRight(result, "-")
}

// FallbackSlug produces a slug for titles where GenerateSlug yields nothing.
// Accents are stripped and non-Latin scripts transliterated first; when that
// still produces nothing the slug is derived from the post id.
func FallbackSlug(title, postID string) string {
	if slug := GenerateSlug(title); slug != "" {
		return slug
	}

	if slug := GenerateSlug(Transliterate(title)); slug != "" {
		return slug
	}

	id := GenerateSlug(postID)
	if len(id) > 8 {
		id = id[:8]
	}
	id = strings.Trim(id, "-")
	if id == "" {
		return "post"
	}
	return "post-" + id
}

// Transliterate converts s to plain ASCII.
// Combining marks are removed before transliteration so "Café" becomes "Cafe".
func Transliterate(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		result = s
	}
	return unidecode.Unidecode(result)
}

// IsValidSlug checks if a string is a valid slug.
func IsValidSlug(s string) bool {
	if s == "" || len(s) > MaxSlugLength {
		return false
	}

	// Check if it only contains lowercase letters, numbers, and hyphens
	for _, r := range s {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-') {
			return false
		}
	}

	if s[0] == '-' || s[len(s)-1] == '-' {
		return false
	}

	return !strings.Contains(s, "--")
}
