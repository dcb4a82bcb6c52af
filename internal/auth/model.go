package auth

import (
	"time"

	"review-platform/internal/user"
)

type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// LoginResult pairs the issued tokens with the authenticated profile.
type LoginResult struct {
	Tokens
	User user.Profile `json:"user"`
}

// RefreshTokenRecord is a stored refresh token. The opaque token string is
// the primary key; revocation is deletion.
type RefreshTokenRecord struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

// VerificationTokenRecord targets an email rather than a user id, so a
// registration can be verified independently of other account linkage.
type VerificationTokenRecord struct {
	Token     string
	Email     string
	ExpiresAt time.Time
}

type PasswordResetTokenRecord struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}
