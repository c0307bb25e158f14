package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/thuan734655/DACS3-Server/internal/domain"
)

type contextKey string

const identityKey contextKey = "identity"

// Authenticator resolves a bearer token to the caller's identity.
type Authenticator interface {
	Verify(ctx context.Context, token string) (domain.Identity, error)
}

// Auth returns middleware that validates the Bearer JWT and injects the caller's identity into context.
func Auth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeJSONError(w, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}
			identity, err := auth.Verify(r.Context(), strings.TrimPrefix(authHeader, "Bearer "))
			if errors.Is(err, domain.ErrUnauthorized) {
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			if err != nil {
				slog.Error("auth middleware: verify", "err", err)
				writeJSONError(w, http.StatusServiceUnavailable, "authentication unavailable")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

func WithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext extracts the authenticated caller from the request context.
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(identityKey).(domain.Identity)
	return id, ok
}
