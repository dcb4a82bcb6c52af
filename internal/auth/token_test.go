package auth

import (
	"strings"
	"testing"
	"time"
)

func newTestCodec() *TokenCodec {
	return NewTokenCodec("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
}

func TestSignAndVerifyAccess(t *testing.T) {
	t.Parallel()

	codec := newTestCodec()
	payload := TokenPayload{UserID: "u1", Email: "a@x.com", Role: "USER"}

	token, err := codec.SignAccess(payload)
	if err != nil {
		t.Fatalf("SignAccess error: %v", err)
	}

	got, err := codec.VerifyAccess(token)
	if err != nil {
		t.Fatalf("VerifyAccess error: %v", err)
	}
	if got != payload {
		t.Fatalf("payload mismatch: got %+v want %+v", got, payload)
	}
}

func TestVerifyAccess_RejectsRefreshToken(t *testing.T) {
	t.Parallel()

	codec := newTestCodec()
	refresh, err := codec.SignRefresh(TokenPayload{UserID: "u1", Email: "a@x.com", Role: "USER"})
	if err != nil {
		t.Fatalf("SignRefresh error: %v", err)
	}

	if _, err := codec.VerifyAccess(refresh); err == nil {
		t.Fatal("expected error for refresh token on access verification")
	}
}

func TestVerifyAccess_Expired(t *testing.T) {
	t.Parallel()

	codec := NewTokenCodec("access-secret", "refresh-secret", -time.Minute, time.Hour)
	token, err := codec.SignAccess(TokenPayload{UserID: "u1"})
	if err != nil {
		t.Fatalf("SignAccess error: %v", err)
	}

	if _, err := codec.VerifyAccess(token); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestVerifyAccess_WrongSecret(t *testing.T) {
	t.Parallel()

	codec := newTestCodec()
	token, err := codec.SignAccess(TokenPayload{UserID: "u1"})
	if err != nil {
		t.Fatalf("SignAccess error: %v", err)
	}

	other := NewTokenCodec("different-secret", "refresh-secret", 15*time.Minute, time.Hour)
	if _, err := other.VerifyAccess(token); err == nil {
		t.Fatal("expected error for token signed with another secret")
	}
}

func TestVerifyAccess_Malformed(t *testing.T) {
	t.Parallel()

	codec := newTestCodec()
	for _, tokenString := range []string{"", "garbage", "not.a.jwt"} {
		if _, err := codec.VerifyAccess(tokenString); err == nil {
			t.Fatalf("expected error for malformed token %q", tokenString)
		}
	}
}

func TestGenerateOpaqueToken(t *testing.T) {
	t.Parallel()

	first, err := GenerateOpaqueToken(32)
	if err != nil {
		t.Fatalf("GenerateOpaqueToken error: %v", err)
	}
	if len(first) != 64 {
		t.Fatalf("token length: got %d want 64", len(first))
	}
	if strings.ToLower(first) != first {
		t.Fatalf("expected lowercase hex, got %q", first)
	}

	second, err := GenerateOpaqueToken(32)
	if err != nil {
		t.Fatalf("GenerateOpaqueToken error: %v", err)
	}
	if first == second {
		t.Fatal("two generated tokens are identical")
	}
}
