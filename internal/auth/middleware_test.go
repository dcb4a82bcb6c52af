package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"review-platform/internal/httpx"
	"review-platform/internal/user"
)

func identityEcho(t *testing.T, captured *httpx.Identity) http.Handler {
	t.Helper()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := httpx.IdentityFrom(r.Context())
		require.True(t, ok, "identity missing from context")
		*captured = identity
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthenticate_ValidToken(t *testing.T) {
	codec := newTestCodec()
	token, err := codec.SignAccess(TokenPayload{UserID: "u1", Email: "a@x.com", Role: user.RoleUser})
	require.NoError(t, err)

	var captured httpx.Identity
	handler := Authenticate(codec, identityEcho(t, &captured))

	req := httptest.NewRequest(http.MethodGet, "/user/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, httpx.Identity{UserID: "u1", Email: "a@x.com", Role: user.RoleUser}, captured)
}

func TestAuthenticate_MissingOrMalformedHeader(t *testing.T) {
	codec := newTestCodec()
	handler := Authenticate(codec, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler should not run")
	}))

	for _, header := range []string{"", "Bearer", "Token abc"} {
		req := httptest.NewRequest(http.MethodGet, "/user/profile", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
		assert.Contains(t, rec.Body.String(), "No token provided")
	}
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	codec := newTestCodec()
	handler := Authenticate(codec, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler should not run")
	}))

	other := NewTokenCodec("other-secret", "refresh-secret", codec.AccessTTL(), codec.RefreshTTL())
	forged, err := other.SignAccess(TokenPayload{UserID: "u1"})
	require.NoError(t, err)

	for _, token := range []string{"garbage", forged} {
		req := httptest.NewRequest(http.MethodGet, "/user/profile", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid or expired token")
	}
}

func TestAuthenticate_RejectsRefreshTokenAsBearer(t *testing.T) {
	codec := newTestCodec()
	refresh, err := codec.SignRefresh(TokenPayload{UserID: "u1"})
	require.NoError(t, err)

	handler := Authenticate(codec, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/user/profile", nil)
	req.Header.Set("Authorization", "Bearer "+refresh)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	codec := newTestCodec()

	var captured httpx.Identity
	handler := Authenticate(codec, RequireRole(user.RoleAdmin, identityEcho(t, &captured)))

	adminToken, err := codec.SignAccess(TokenPayload{UserID: "u1", Email: "admin@x.com", Role: user.RoleAdmin})
	require.NoError(t, err)
	userToken, err := codec.SignAccess(TokenPayload{UserID: "u2", Email: "a@x.com", Role: user.RoleUser})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/admin/products", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/admin/products", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Admin access required")
}

func TestRequireRole_WithoutIdentity(t *testing.T) {
	handler := RequireRole(user.RoleAdmin, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler should not run")
	}))

	req := httptest.NewRequest(http.MethodPost, "/admin/products", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Authentication required")
}
