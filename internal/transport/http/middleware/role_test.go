package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/thuan734655/DACS3-Server/internal/domain"
)

type mockRoles struct{ mock.Mock }

func (m *mockRoles) RoleOf(ctx context.Context, workspaceID, userID string) (domain.Role, error) {
	args := m.Called(ctx, workspaceID, userID)
	return args.Get(0).(domain.Role), args.Error(1)
}

func serveWorkspace(roles RoleResolver, identity *domain.Identity, next http.HandlerFunc, allowed ...domain.Role) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.With(RequireWorkspaceMember(roles, "id", allowed...)).Get("/workspaces/{id}", next)
	req := httptest.NewRequest(http.MethodGet, "/workspaces/w1", nil)
	if identity != nil {
		req = req.WithContext(WithIdentity(req.Context(), *identity))
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestRequireWorkspaceMember_NoIdentity(t *testing.T) {
	rr := serveWorkspace(&mockRoles{}, nil, okHandler)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireWorkspaceMember_NotMember(t *testing.T) {
	roles := &mockRoles{}
	roles.On("RoleOf", mock.Anything, "w1", "u1").Return(domain.RoleNone, nil)

	rr := serveWorkspace(roles, &domain.Identity{UserID: "u1"}, okHandler)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.JSONEq(t, `{"error":"you are not a member of this workspace","error_code":403}`, rr.Body.String())
}

func TestRequireWorkspaceMember_WrongRole(t *testing.T) {
	roles := &mockRoles{}
	roles.On("RoleOf", mock.Anything, "w1", "u1").Return(domain.RoleMember, nil)

	rr := serveWorkspace(roles, &domain.Identity{UserID: "u1"}, okHandler, domain.RoleLeader, domain.RoleManager)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRequireWorkspaceMember_StoresRole(t *testing.T) {
	roles := &mockRoles{}
	roles.On("RoleOf", mock.Anything, "w1", "u1").Return(domain.RoleManager, nil)

	var got domain.Role
	rr := serveWorkspace(roles, &domain.Identity{UserID: "u1"}, func(w http.ResponseWriter, r *http.Request) {
		got, _ = RoleFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}, domain.RoleLeader, domain.RoleManager)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, domain.RoleManager, got)
}

func TestRequireWorkspaceMember_StoreFailure(t *testing.T) {
	roles := &mockRoles{}
	roles.On("RoleOf", mock.Anything, "w1", "u1").Return(domain.RoleNone, errors.New("boom"))

	rr := serveWorkspace(roles, &domain.Identity{UserID: "u1"}, okHandler)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
