// ABOUTME: User operations: registration, login, profile management
// ABOUTME: Registration and login are the only unauthenticated operations

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/larpforge/larpd/internal/auth"
	"github.com/larpforge/larpd/internal/rules"
	"github.com/larpforge/larpd/internal/store"
)

// RegisterInput carries the fields for a new account
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Phone    string
}

// Register creates a new user account. Open to anonymous callers.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*store.User, error) {
	if !emailRegex.MatchString(in.Email) {
		return nil, &ValidationError{Field: "email", Reason: "malformed address"}
	}
	if len(in.Password) < auth.MinPasswordLength {
		return nil, &ValidationError{Field: "password", Reason: fmt.Sprintf("must be at least %d characters", auth.MinPasswordLength)}
	}
	if in.Name == "" {
		return nil, &ValidationError{Field: "name", Reason: "required"}
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	u := &store.User{
		ID:           s.newID(),
		Email:        in.Email,
		PasswordHash: hash,
		Name:         in.Name,
		Phone:        in.Phone,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, mapStoreErr(err, "user", u.ID)
	}

	s.logger.Info("registered user", "id", u.ID, "email", u.Email)
	return u, nil
}

// Login verifies credentials and mints an access token.
// A wrong email and a wrong password both produce the same error so the
// endpoint cannot be used to probe for registered addresses.
func (s *Service) Login(ctx context.Context, email, password string) (token string, user *store.User, err error) {
	u, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return "", nil, &ValidationError{Field: "credentials", Reason: "invalid email or password"}
	}
	if err != nil {
		return "", nil, err
	}

	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrWrongPassword) {
			return "", nil, &ValidationError{Field: "credentials", Reason: "invalid email or password"}
		}
		return "", nil, err
	}

	token, err = s.verifier.Generate(u.ID, s.tokenTTL)
	if err != nil {
		return "", nil, fmt.Errorf("minting token: %w", err)
	}

	s.logger.Info("user logged in", "id", u.ID)
	return token, u, nil
}

// GetUser returns a user record. Readable by the user themself and by GMs
// of games the user plays in.
func (s *Service) GetUser(ctx context.Context, id string) (*store.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err, "user", id)
	}

	if err := enforce(s.rules.CanUser(ctx, principal(ctx), rules.ActionRead, id)); err != nil {
		return nil, err
	}
	return u, nil
}

// UpdateUserInput carries the mutable profile fields; nil means unchanged
type UpdateUserInput struct {
	Email *string
	Name  *string
	Phone *string
}

// UpdateUser updates a user's profile. Only the user themself may write.
func (s *Service) UpdateUser(ctx context.Context, id string, in UpdateUserInput) (*store.User, error) {
	if err := enforce(s.rules.CanUser(ctx, principal(ctx), rules.ActionWrite, id)); err != nil {
		return nil, err
	}

	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err, "user", id)
	}

	if in.Email != nil {
		if !emailRegex.MatchString(*in.Email) {
			return nil, &ValidationError{Field: "email", Reason: "malformed address"}
		}
		u.Email = *in.Email
	}
	if in.Name != nil {
		if *in.Name == "" {
			return nil, &ValidationError{Field: "name", Reason: "required"}
		}
		u.Name = *in.Name
	}
	if in.Phone != nil {
		u.Phone = *in.Phone
	}
	u.UpdatedAt = s.now()

	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, mapStoreErr(err, "user", id)
	}
	return u, nil
}

// ChangePassword replaces the caller's password after verifying the old one
func (s *Service) ChangePassword(ctx context.Context, id, oldPassword, newPassword string) error {
	if err := enforce(s.rules.CanUser(ctx, principal(ctx), rules.ActionWrite, id)); err != nil {
		return err
	}

	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return mapStoreErr(err, "user", id)
	}

	if err := auth.CheckPassword(u.PasswordHash, oldPassword); err != nil {
		if errors.Is(err, auth.ErrWrongPassword) {
			return &ValidationError{Field: "old_password", Reason: "does not match"}
		}
		return err
	}
	if len(newPassword) < auth.MinPasswordLength {
		return &ValidationError{Field: "new_password", Reason: fmt.Sprintf("must be at least %d characters", auth.MinPasswordLength)}
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.UpdatedAt = s.now()

	if err := s.store.UpdateUser(ctx, u); err != nil {
		return mapStoreErr(err, "user", id)
	}

	s.logger.Info("password changed", "id", id)
	return nil
}

// ListUsers returns a page of users. Principals holding a GM role anywhere
// see the full directory; everyone else sees only their own record.
func (s *Service) ListUsers(ctx context.Context, filter store.UserFilter, page Page) ([]*store.User, *PageInfo, error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, nil, err
	}

	isGM, err := s.store.IsGMAnywhere(ctx, p.UserID)
	if err != nil {
		return nil, nil, err
	}
	if !isGM {
		u, err := s.store.GetUser(ctx, p.UserID)
		if err != nil {
			return nil, nil, mapStoreErr(err, "user", p.UserID)
		}
		_, info := page.options()
		info.fill(1)
		return []*store.User{u}, info, nil
	}

	opts, info := page.options()
	users, total, err := s.store.ListUsers(ctx, filter, opts)
	if err != nil {
		return nil, nil, err
	}
	info.fill(total)
	return users, info, nil
}

// DeleteUser removes an account and its memberships. Only the user themself.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	if err := enforce(s.rules.CanUser(ctx, principal(ctx), rules.ActionWrite, id)); err != nil {
		return err
	}

	if err := s.store.DeleteUser(ctx, id); err != nil {
		return mapStoreErr(err, "user", id)
	}
	return nil
}
