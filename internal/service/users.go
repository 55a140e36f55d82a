// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/olegiv/uniblog/internal/apperror"
	"github.com/olegiv/uniblog/internal/auth"
	"github.com/olegiv/uniblog/internal/model"
	"github.com/olegiv/uniblog/internal/notify"
	"github.com/olegiv/uniblog/internal/store"
)

// Account limits
const (
	MinPasswordLength = 8
	MaxPasswordLength = 256
	MaxNameLength     = 100
)

// RegisterInput is a self-registration request.
type RegisterInput struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Name       string `json:"name"`
	Department string `json:"department"`
}

func (in RegisterInput) normalize() (RegisterInput, error) {
	out := RegisterInput{
		Email:      strings.ToLower(strings.TrimSpace(in.Email)),
		Password:   in.Password,
		Name:       strings.TrimSpace(in.Name),
		Department: strings.TrimSpace(in.Department),
	}

	fields := make(map[string]string)
	if out.Email == "" {
		fields["email"] = "Email is required"
	} else if addr, err := mail.ParseAddress(out.Email); err != nil || addr.Address != out.Email {
		fields["email"] = "Invalid email format"
	}

	switch n := utf8.RuneCountInString(out.Password); {
	case n < MinPasswordLength:
		fields["password"] = "Password must be at least 8 characters"
	case n > MaxPasswordLength:
		fields["password"] = "Password is too long"
	}

	if out.Name == "" {
		fields["name"] = "Name is required"
	} else if utf8.RuneCountInString(out.Name) > MaxNameLength {
		fields["name"] = "Name must be at most 100 characters"
	}
	if utf8.RuneCountInString(out.Department) > MaxNameLength {
		fields["department"] = "Department must be at most 100 characters"
	}

	if len(fields) > 0 {
		return RegisterInput{}, apperror.Validation("Invalid registration", fields)
	}
	return out, nil
}

// UserService handles registration, login and account approval.
type UserService struct {
	users    UserStore
	settings SettingsProvider
	notifier notify.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewUserService creates a user service.
func NewUserService(users UserStore, settings SettingsProvider, notifier notify.Notifier, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = notify.Nop
	}
	return &UserService{
		users:    users,
		settings: settings,
		notifier: notifier,
		logger:   logger,
		now:      utcNow,
	}
}

// Register creates an author account. Registration can be switched off in
// settings. New accounts need admin approval while approval is required.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	settings := s.settings.Get(ctx, false)
	if !settings.RegistrationAllowed {
		return nil, apperror.Denied("registration is closed")
	}

	in, err := in.normalize()
	if err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	u := &model.User{
		ID:           newID(),
		Email:        in.Email,
		PasswordHash: hash,
		Name:         in.Name,
		Role:         model.RoleAuthor,
		Department:   in.Department,
		IsApproved:   !settings.ApprovalRequired,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, *u); err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			return nil, apperror.Conflict("an account with this email already exists")
		}
		return nil, apperror.Unavailable("saving user", err)
	}

	s.logger.Info("user registered", "user_id", u.ID, "approved", u.IsApproved)
	return u, nil
}

// Authenticate checks credentials. Unknown users and wrong passwords are
// reported identically; unapproved accounts are denied.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	invalid := apperror.AuthenticationRequired("invalid email or password")

	u, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, invalid
	}
	if err != nil {
		return nil, apperror.Unavailable("loading user", err)
	}

	ok, err := auth.CheckPassword(password, u.PasswordHash)
	if err != nil {
		s.logger.Error("stored password hash is unreadable", "user_id", u.ID, "error", err)
		return nil, invalid
	}
	if !ok {
		return nil, invalid
	}
	if !u.IsApproved {
		return nil, apperror.Denied("your account is awaiting approval")
	}

	if err := s.users.UpdateLastLogin(ctx, u.ID, s.now()); err != nil {
		s.logger.Warn("failed to record last login", "user_id", u.ID, "error", err)
	}
	return &u, nil
}

// Get returns a user by id.
func (s *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	u, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, storeError("user", err)
	}
	return &u, nil
}

// ResolveAuthor loads the user behind ref. Resolved references are returned
// unchanged.
func (s *UserService) ResolveAuthor(ctx context.Context, ref model.AuthorRef) (model.AuthorRef, error) {
	if ref.IsResolved() {
		return ref, nil
	}
	u, err := s.Get(ctx, ref.ID())
	if err != nil {
		return ref, err
	}
	return model.AuthorFromUser(*u), nil
}

// Approve activates a pending account. Admin only.
func (s *UserService) Approve(ctx context.Context, actor model.Actor, id string) (*model.User, error) {
	if err := requireAdmin(actor, "only administrators can approve users"); err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.users.ApproveUser(ctx, id, now); err != nil {
		return nil, storeError("user", err)
	}
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user approved", "user_id", id, "actor_id", actor.ID)
	deliver(ctx, s.logger, s.notifier, notify.Notification{
		Type:        notify.TypeUserApproved,
		RecipientID: id,
		ActorID:     actor.ID,
		CreatedAt:   now,
	})
	return u, nil
}

// ListPending returns accounts awaiting approval. Admin only.
func (s *UserService) ListPending(ctx context.Context, actor model.Actor) ([]model.User, error) {
	if err := requireAdmin(actor, "only administrators can review users"); err != nil {
		return nil, err
	}
	users, err := s.users.ListPendingUsers(ctx)
	if err != nil {
		return nil, apperror.Unavailable("listing users", err)
	}
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

func requireAdmin(actor model.Actor, message string) error {
	if !actor.IsAuthenticated() {
		return apperror.AuthenticationRequired("authentication required")
	}
	if !actor.IsAdmin() {
		return apperror.Denied("%s", message)
	}
	return nil
}
