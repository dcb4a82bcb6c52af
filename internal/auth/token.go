package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// TokenPayload is the identity embedded in signed tokens, so access-token
// validation needs no store lookup.
type TokenPayload struct {
	UserID string
	Email  string
	Role   string
}

type tokenClaims struct {
	jwt.RegisteredClaims
	UserID    string `json:"uid"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	TokenType string `json:"typ"`
}

// TokenCodec signs and verifies bearer tokens. Access and refresh tokens use
// distinct secrets: a leaked access secret cannot forge refresh tokens.
type TokenCodec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenCodec(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenCodec {
	return &TokenCodec{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func (c *TokenCodec) AccessTTL() time.Duration {
	return c.accessTTL
}

func (c *TokenCodec) RefreshTTL() time.Duration {
	return c.refreshTTL
}

func (c *TokenCodec) SignAccess(payload TokenPayload) (string, error) {
	return c.sign(payload, tokenTypeAccess, c.accessSecret, c.accessTTL)
}

func (c *TokenCodec) SignRefresh(payload TokenPayload) (string, error) {
	return c.sign(payload, tokenTypeRefresh, c.refreshSecret, c.refreshTTL)
}

func (c *TokenCodec) sign(payload TokenPayload, tokenType string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:    payload.UserID,
		Email:     payload.Email,
		Role:      payload.Role,
		TokenType: tokenType,
	})

	encoded, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}

	return encoded, nil
}

// VerifyAccess rejects malformed, tampered, expired, and non-access tokens
// with ErrInvalidToken.
func (c *TokenCodec) VerifyAccess(tokenString string) (TokenPayload, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return c.accessSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return TokenPayload{}, ErrInvalidToken
	}
	if claims.TokenType != tokenTypeAccess {
		return TokenPayload{}, ErrInvalidToken
	}

	return TokenPayload{UserID: claims.UserID, Email: claims.Email, Role: claims.Role}, nil
}

// GenerateOpaqueToken returns a URL-safe hex string of byteLength random
// bytes, for the store-checked verification and reset tokens.
func GenerateOpaqueToken(byteLength int) (string, error) {
	b := make([]byte, byteLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate opaque token: %w", err)
	}

	return hex.EncodeToString(b), nil
}
