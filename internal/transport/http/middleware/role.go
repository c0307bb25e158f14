package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/thuan734655/DACS3-Server/internal/domain"
)

const roleKey contextKey = "workspace_role"

// RoleResolver looks up the caller's role in a workspace; RoleNone means not a member.
type RoleResolver interface {
	RoleOf(ctx context.Context, workspaceID, userID string) (domain.Role, error)
}

// RequireWorkspaceMember returns middleware that admits only members of the workspace
// named by the {param} URL parameter, optionally restricted to the allowed roles. The
// resolved role is stored in context.
func RequireWorkspaceMember(roles RoleResolver, param string, allowed ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			workspaceID := chi.URLParam(r, param)
			role, err := roles.RoleOf(r.Context(), workspaceID, identity.UserID)
			if err != nil {
				slog.Error("role middleware: resolve role", "workspace_id", workspaceID, "user_id", identity.UserID, "err", err)
				writeJSONError(w, http.StatusInternalServerError, "could not verify membership")
				return
			}
			if role == domain.RoleNone {
				writeJSONError(w, http.StatusForbidden, "you are not a member of this workspace")
				return
			}
			if len(allowed) > 0 && !hasRole(allowed, role) {
				writeJSONError(w, http.StatusForbidden, "your role does not allow this action")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), roleKey, role)))
		})
	}
}

// RoleFromContext returns the workspace role resolved by RequireWorkspaceMember.
func RoleFromContext(ctx context.Context) (domain.Role, bool) {
	role, ok := ctx.Value(roleKey).(domain.Role)
	return role, ok
}

func hasRole(allowed []domain.Role, role domain.Role) bool {
	for _, a := range allowed {
		if a == role {
			return true
		}
	}
	return false
}
