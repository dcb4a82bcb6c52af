package httpx

import (
	"context"
	"net/http"
)

// Identity is the authenticated caller attached to the request context by
// the auth gate.
type Identity struct {
	UserID string
	Email  string
	Role   string
}

type identityKey struct{}

func ContextWithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(Identity)
	return identity, ok
}

// RequireIdentity fetches the identity or writes a 401.
func RequireIdentity(w http.ResponseWriter, r *http.Request) (Identity, bool) {
	identity, ok := IdentityFrom(r.Context())
	if !ok {
		FailMessage(w, http.StatusUnauthorized, "Authentication required")
	}
	return identity, ok
}
