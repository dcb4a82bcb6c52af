package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"review-platform/internal/apperr"
	"review-platform/internal/user"
)

const (
	defaultVerificationTTL = 24 * time.Hour
	defaultResetTTL        = time.Hour
	opaqueTokenBytes       = 32
)

// UserStore is the slice of the account repository the lifecycle manager
// needs. Absent rows surface sql.ErrNoRows.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (user.User, error)
	FindByID(ctx context.Context, id string) (user.User, error)
	Create(ctx context.Context, email, passwordHash, name string) (user.User, error)
	MarkVerified(ctx context.Context, email string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// SessionStore persists the three token kinds. It is the single source of
// truth for refresh-token revocation.
type SessionStore interface {
	SaveRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error
	FindRefreshToken(ctx context.Context, token string) (RefreshTokenRecord, error)
	DeleteRefreshToken(ctx context.Context, token string) error
	DeleteRefreshTokensForUser(ctx context.Context, userID string) error

	SaveVerificationToken(ctx context.Context, email, token string, expiresAt time.Time) error
	FindVerificationToken(ctx context.Context, token string) (VerificationTokenRecord, error)
	DeleteVerificationToken(ctx context.Context, token string) error

	SavePasswordResetToken(ctx context.Context, userID, token string, expiresAt time.Time) error
	FindPasswordResetToken(ctx context.Context, token string) (PasswordResetTokenRecord, error)
	DeletePasswordResetToken(ctx context.Context, token string) error
	DeletePasswordResetTokensForUser(ctx context.Context, userID string) error
}

type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// Mailer delivers account email synchronously; a failure fails the request.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, email, token string) error
	SendPasswordResetEmail(ctx context.Context, email, token string) error
}

// Service drives the account lifecycle: register, login, refresh, logout,
// verify, forgot and reset password. It holds no token state of its own.
type Service struct {
	users           UserStore
	sessions        SessionStore
	codec           *TokenCodec
	hasher          PasswordHasher
	mailer          Mailer
	verificationTTL time.Duration
	resetTTL        time.Duration
}

func NewService(users UserStore, sessions SessionStore, codec *TokenCodec, hasher PasswordHasher, mailer Mailer) *Service {
	return &Service{
		users:           users,
		sessions:        sessions,
		codec:           codec,
		hasher:          hasher,
		mailer:          mailer,
		verificationTTL: defaultVerificationTTL,
		resetTTL:        defaultResetTTL,
	}
}

func (s *Service) WithTokenTTLs(verificationTTL, resetTTL time.Duration) {
	if verificationTTL > 0 {
		s.verificationTTL = verificationTTL
	}
	if resetTTL > 0 {
		s.resetTTL = resetTTL
	}
}

// Register creates an unverified account and emails a verification token.
// The account row is not rolled back if delivery fails.
func (s *Service) Register(ctx context.Context, email, password, name string) (user.Profile, error) {
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return user.Profile{}, apperr.Validation("Email already in use")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return user.Profile{}, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return user.Profile{}, err
	}

	created, err := s.users.Create(ctx, email, hash, name)
	if err != nil {
		return user.Profile{}, err
	}

	token, err := GenerateOpaqueToken(opaqueTokenBytes)
	if err != nil {
		return user.Profile{}, err
	}

	expiresAt := time.Now().UTC().Add(s.verificationTTL)
	if err := s.sessions.SaveVerificationToken(ctx, created.Email, token, expiresAt); err != nil {
		return user.Profile{}, err
	}

	if err := s.mailer.SendVerificationEmail(ctx, created.Email, token); err != nil {
		return user.Profile{}, fmt.Errorf("send verification email: %w", err)
	}

	return created.Profile(), nil
}

// Login issues an access/refresh pair. Verification is not required to log
// in; a banned account is rejected even with correct credentials.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	account, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LoginResult{}, apperr.Unauthorized("Invalid credentials")
		}
		return LoginResult{}, err
	}

	if account.IsBanned {
		return LoginResult{}, apperr.Forbidden("Account has been banned")
	}

	if !s.hasher.Verify(password, account.PasswordHash) {
		return LoginResult{}, apperr.Unauthorized("Invalid credentials")
	}

	payload := TokenPayload{UserID: account.ID, Email: account.Email, Role: account.Role}

	accessToken, err := s.codec.SignAccess(payload)
	if err != nil {
		return LoginResult{}, err
	}

	refreshToken, err := s.codec.SignRefresh(payload)
	if err != nil {
		return LoginResult{}, err
	}

	expiresAt := time.Now().UTC().Add(s.codec.RefreshTTL())
	if err := s.sessions.SaveRefreshToken(ctx, account.ID, refreshToken, expiresAt); err != nil {
		return LoginResult{}, err
	}

	return LoginResult{
		Tokens: Tokens{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			TokenType:    "Bearer",
			ExpiresIn:    int64(s.codec.AccessTTL().Seconds()),
		},
		User: account.Profile(),
	}, nil
}

// Refresh exchanges a stored refresh token for a new access token. The
// refresh token itself is not rotated. The store, not the token's signature,
// decides validity, so revocation by deletion always wins; an expired row is
// deleted on the way out and later attempts fail identically.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Tokens, error) {
	record, err := s.sessions.FindRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Tokens{}, apperr.Unauthorized("Invalid refresh token")
		}
		return Tokens{}, err
	}

	if record.ExpiresAt.Before(time.Now().UTC()) {
		if err := s.sessions.DeleteRefreshToken(ctx, refreshToken); err != nil {
			return Tokens{}, err
		}
		return Tokens{}, apperr.Unauthorized("Refresh token expired")
	}

	account, err := s.users.FindByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Tokens{}, apperr.Unauthorized("Invalid refresh token")
		}
		return Tokens{}, err
	}

	accessToken, err := s.codec.SignAccess(TokenPayload{UserID: account.ID, Email: account.Email, Role: account.Role})
	if err != nil {
		return Tokens{}, err
	}

	return Tokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.codec.AccessTTL().Seconds()),
	}, nil
}

// Logout deletes the refresh token row; absent rows are a no-op.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	return s.sessions.DeleteRefreshToken(ctx, refreshToken)
}

// VerifyEmail redeems a verification token and marks the account verified.
// An expired token is deleted before the error so retries fail as invalid.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	record, err := s.sessions.FindVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.Validation("Invalid verification token")
		}
		return err
	}

	if record.ExpiresAt.Before(time.Now().UTC()) {
		if err := s.sessions.DeleteVerificationToken(ctx, token); err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return apperr.Validation("Verification token expired")
	}

	if err := s.users.MarkVerified(ctx, record.Email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.Validation("Invalid verification token")
		}
		return err
	}

	if err := s.sessions.DeleteVerificationToken(ctx, token); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	return nil
}

// ForgotPassword emails a reset token. An unknown email is a visible 404;
// the existence leak is documented, not silently fixed.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	account, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("User not found")
		}
		return err
	}

	token, err := GenerateOpaqueToken(opaqueTokenBytes)
	if err != nil {
		return err
	}

	expiresAt := time.Now().UTC().Add(s.resetTTL)
	if err := s.sessions.SavePasswordResetToken(ctx, account.ID, token, expiresAt); err != nil {
		return err
	}

	if err := s.mailer.SendPasswordResetEmail(ctx, account.Email, token); err != nil {
		return fmt.Errorf("send password reset email: %w", err)
	}

	return nil
}

// ResetPassword redeems a reset token at most once: the token row is deleted
// before the password is touched, so of two concurrent redemptions exactly
// one reaches the update. All reset and refresh tokens for the account are
// dropped afterwards, forcing re-login everywhere.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	record, err := s.sessions.FindPasswordResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.Validation("Invalid reset token")
		}
		return err
	}

	if record.ExpiresAt.Before(time.Now().UTC()) {
		if err := s.sessions.DeletePasswordResetToken(ctx, token); err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return apperr.Validation("Reset token expired")
	}

	if err := s.sessions.DeletePasswordResetToken(ctx, token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.Validation("Invalid reset token")
		}
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	if err := s.users.UpdatePassword(ctx, record.UserID, hash); err != nil {
		return err
	}

	if err := s.sessions.DeletePasswordResetTokensForUser(ctx, record.UserID); err != nil {
		return err
	}

	return s.sessions.DeleteRefreshTokensForUser(ctx, record.UserID)
}
