// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"time"

	"github.com/olegiv/uniblog/internal/model"
)

// PostResponse represents a post in API responses.
type PostResponse struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Body         string          `json:"body"`
	Status       string          `json:"status"`
	Slug         string          `json:"slug,omitempty"`
	Category     string          `json:"category,omitempty"`
	RejectReason string          `json:"reject_reason,omitempty"`
	AuthorID     string          `json:"author_id"`
	Author       *AuthorResponse `json:"author,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	PublishedAt  *time.Time      `json:"published_at,omitempty"`
}

// AuthorResponse is the public view of a post author.
type AuthorResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Department string `json:"department,omitempty"`
}

// CommentResponse represents a comment in API responses.
type CommentResponse struct {
	ID         string    `json:"id"`
	PostID     string    `json:"post_id"`
	AuthorID   string    `json:"author_id"`
	ParentID   string    `json:"parent_id,omitempty"`
	Content    string    `json:"content"`
	IsApproved bool      `json:"is_approved"`
	CreatedAt  time.Time `json:"created_at"`
}

// UserResponse is a user account as seen by the user or an administrator.
type UserResponse struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Role        string     `json:"role"`
	Department  string     `json:"department,omitempty"`
	IsApproved  bool       `json:"is_approved"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// SettingsResponse is the public view of the site settings.
type SettingsResponse struct {
	MaintenanceMode     bool      `json:"maintenance_mode"`
	RegistrationAllowed bool      `json:"registration_allowed"`
	ApprovalRequired    bool      `json:"approval_required"`
	AutoPublish         bool      `json:"auto_publish"`
	UpdatedAt           time.Time `json:"updated_at,omitzero"`
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func postToResponse(p *model.Post) PostResponse {
	resp := PostResponse{
		ID:           p.ID,
		Title:        p.Title,
		Body:         p.Body,
		Status:       p.Status,
		Slug:         p.Slug,
		Category:     p.Category,
		RejectReason: p.RejectReason,
		AuthorID:     p.AuthorID(),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
		PublishedAt:  nullTimePtr(p.PublishedAt),
	}
	if u, ok := p.Author.User(); ok {
		resp.Author = &AuthorResponse{
			ID:         u.ID,
			Name:       u.Name,
			Department: u.Department,
		}
	}
	return resp
}

func postsToResponse(posts []model.Post) []PostResponse {
	out := make([]PostResponse, 0, len(posts))
	for i := range posts {
		out = append(out, postToResponse(&posts[i]))
	}
	return out
}

func commentToResponse(c *model.Comment) CommentResponse {
	resp := CommentResponse{
		ID:         c.ID,
		PostID:     c.PostID,
		AuthorID:   c.AuthorID,
		Content:    c.Content,
		IsApproved: c.IsApproved,
		CreatedAt:  c.CreatedAt,
	}
	if c.IsReply() {
		resp.ParentID = c.ParentID.String
	}
	return resp
}

func userToResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        u.Role,
		Department:  u.Department,
		IsApproved:  u.IsApproved,
		CreatedAt:   u.CreatedAt,
		LastLoginAt: nullTimePtr(u.LastLoginAt),
	}
}

func settingsToResponse(s model.Settings) SettingsResponse {
	return SettingsResponse{
		MaintenanceMode:     s.MaintenanceMode,
		RegistrationAllowed: s.RegistrationAllowed,
		ApprovalRequired:    s.ApprovalRequired,
		AutoPublish:         s.AutoPublish,
		UpdatedAt:           s.UpdatedAt,
	}
}
