package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/thuan734655/DACS3-Server/internal/application/membership"
	"github.com/thuan734655/DACS3-Server/internal/domain"
	"github.com/thuan734655/DACS3-Server/internal/transport/http/middleware"
)

// RoleEnvelope describes the caller's standing in a workspace.
type RoleEnvelope struct {
	WorkspaceID string              `json:"workspace_id"`
	Role        domain.Role         `json:"role"`
	Actions     []membership.Action `json:"actions"`
}

// MyRole reports the caller's workspace role and the actions it permits, so clients can
// hide controls the server would reject. Requires RequireWorkspaceMember upstream.
func MyRole(w http.ResponseWriter, r *http.Request) {
	role, ok := middleware.RoleFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	actions := membership.Permitted(role)
	if actions == nil {
		actions = []membership.Action{}
	}
	writeJSON(w, http.StatusOK, RoleEnvelope{
		WorkspaceID: chi.URLParam(r, "id"),
		Role:        role,
		Actions:     actions,
	})
}
