package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"review-platform/internal/apperr"
)

// Store is the slice of the user repository the service needs. Absent rows
// surface sql.ErrNoRows; the service decides the error kind.
type Store interface {
	FindByID(ctx context.Context, id string) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	UpdateProfile(ctx context.Context, id, email, name string) (User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetBanned(ctx context.Context, id string, banned bool) error
}

type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// SessionRevoker invalidates every stored refresh token for an account.
// Implemented by the auth session store.
type SessionRevoker interface {
	DeleteRefreshTokensForUser(ctx context.Context, userID string) error
}

type Service struct {
	store    Store
	hasher   PasswordHasher
	sessions SessionRevoker
}

func NewService(store Store, hasher PasswordHasher, sessions SessionRevoker) *Service {
	return &Service{store: store, hasher: hasher, sessions: sessions}
}

func (s *Service) GetProfile(ctx context.Context, userID string) (Profile, error) {
	u, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Profile{}, apperr.NotFound("User not found")
		}
		return Profile{}, err
	}

	return u.Profile(), nil
}

// UpdateProfile applies non-empty fields. A changed email must not collide
// with another account.
func (s *Service) UpdateProfile(ctx context.Context, userID, email, name string) (Profile, error) {
	u, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Profile{}, apperr.NotFound("User not found")
		}
		return Profile{}, err
	}

	if email == "" {
		email = u.Email
	}
	if name == "" {
		name = u.Name
	}

	if email != u.Email {
		if _, err := s.store.FindByEmail(ctx, email); err == nil {
			return Profile{}, apperr.Validation("Email already in use")
		} else if !errors.Is(err, sql.ErrNoRows) {
			return Profile{}, err
		}
	}

	updated, err := s.store.UpdateProfile(ctx, userID, email, name)
	if err != nil {
		return Profile{}, err
	}

	return updated.Profile(), nil
}

// UpdatePassword verifies the current password, stores the new hash, and
// revokes every refresh token so other sessions must log in again.
func (s *Service) UpdatePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	u, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("User not found")
		}
		return err
	}

	if !s.hasher.Verify(currentPassword, u.PasswordHash) {
		return apperr.Unauthorized("Current password is incorrect")
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.store.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}

	return s.sessions.DeleteRefreshTokensForUser(ctx, userID)
}

// Ban flips the banned flag and revokes refresh tokens so the account cannot
// mint new access tokens.
func (s *Service) Ban(ctx context.Context, userID string) error {
	if err := s.setBanned(ctx, userID, true); err != nil {
		return err
	}

	return s.sessions.DeleteRefreshTokensForUser(ctx, userID)
}

func (s *Service) Unban(ctx context.Context, userID string) error {
	return s.setBanned(ctx, userID, false)
}

func (s *Service) setBanned(ctx context.Context, userID string, banned bool) error {
	if _, err := s.store.FindByID(ctx, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("User not found")
		}
		return err
	}

	if err := s.store.SetBanned(ctx, userID, banned); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("User not found")
		}
		return err
	}

	return nil
}
