package auth

import (
	"net/http"
	"strings"

	"review-platform/internal/httpx"
)

// Authenticate validates the bearer access token and attaches the identity
// to the request context. Validation is signature-only: no store lookup.
func Authenticate(codec *TokenCodec, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if header == "" {
			httpx.FailMessage(w, http.StatusUnauthorized, "No token provided")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			httpx.FailMessage(w, http.StatusUnauthorized, "No token provided")
			return
		}

		payload, err := codec.VerifyAccess(strings.TrimSpace(parts[1]))
		if err != nil {
			httpx.FailMessage(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		ctx := httpx.ContextWithIdentity(r.Context(), httpx.Identity{
			UserID: payload.UserID,
			Email:  payload.Email,
			Role:   payload.Role,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole runs after Authenticate: 401 without an identity, 403 when the
// role does not match.
func RequireRole(role string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := httpx.IdentityFrom(r.Context())
		if !ok {
			httpx.FailMessage(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		if identity.Role != role {
			httpx.FailMessage(w, http.StatusForbidden, "Admin access required")
			return
		}

		next.ServeHTTP(w, r)
	})
}
