package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/thuan734655/DACS3-Server/internal/application/membership"
	"github.com/thuan734655/DACS3-Server/internal/domain"
)

func workspaceRouter(members *mockMembershipSvc, act *mockActivitySvc) http.Handler {
	h := NewWorkspaceHandler(members, act)
	return newTestRouter(ann, func(r chi.Router) {
		r.Route("/workspaces/{id}", func(r chi.Router) {
			r.Post("/authorize", h.Authorize)
			r.Post("/activity", h.Activity)
			r.Post("/members", h.AddMember)
			r.Delete("/members/{userId}", h.RemoveMember)
			r.Delete("/", h.Delete)
		})
	})
}

func TestWorkspaceHandler_Authorize_Allowed(t *testing.T) {
	members := &mockMembershipSvc{}
	members.On("Require", mock.Anything, "w1", "u1", membership.ActionCreateChannel).Return(domain.RoleManager, nil)

	rr := post(workspaceRouter(members, &mockActivitySvc{}), "/workspaces/w1/authorize", `{"action":"create_channel"}`)

	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestWorkspaceHandler_Authorize_DeniedCarriesReason(t *testing.T) {
	members := &mockMembershipSvc{}
	members.On("Require", mock.Anything, "w1", "u1", membership.Action("create_task")).
		Return(domain.RoleMember, domain.Deny("create_task", "only Leader or Manager can create task"))

	rr := post(workspaceRouter(members, &mockActivitySvc{}), "/workspaces/w1/authorize", `{"action":"create_task"}`)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.JSONEq(t, `{"error":"only Leader or Manager can create task","error_code":403}`, rr.Body.String())
}

func TestWorkspaceHandler_Authorize_WithTarget(t *testing.T) {
	members := &mockMembershipSvc{}
	members.On("RequireOver", mock.Anything, "w1", "u1", "u2", membership.ActionRemoveMember).
		Return(domain.RoleManager, domain.RoleManager, domain.Deny("remove_member", "a Manager cannot remove a Manager"))

	rr := post(workspaceRouter(members, &mockActivitySvc{}), "/workspaces/w1/authorize",
		`{"action":"remove_member","target_user_id":"u2"}`)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	members.AssertNotCalled(t, "Require", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWorkspaceHandler_Authorize_UnknownAction(t *testing.T) {
	rr := post(workspaceRouter(&mockMembershipSvc{}, &mockActivitySvc{}), "/workspaces/w1/authorize", `{"action":"launch_rocket"}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestWorkspaceHandler_Activity(t *testing.T) {
	act := &mockActivitySvc{}
	act.On("WorkItem", mock.Anything, ann, mock.MatchedBy(func(ev domain.WorkItemEvent) bool {
		return ev.WorkspaceID == "w1" && ev.Kind == domain.KindTask && ev.Action == domain.ActionCreated &&
			ev.AssigneeID != nil && *ev.AssigneeID == "u2"
	})).Return([]*domain.Notification{{NotificationID: "n1"}}, nil)

	rr := post(workspaceRouter(&mockMembershipSvc{}, act), "/workspaces/w1/activity",
		`{"kind":"task","action":"created","entity_id":"t1","title":"Fix login","assignee_id":"u2"}`)

	assert.Equal(t, http.StatusAccepted, rr.Code)
	assert.Contains(t, rr.Body.String(), `"n1"`)
}

func TestWorkspaceHandler_Activity_Denied(t *testing.T) {
	act := &mockActivitySvc{}
	act.On("WorkItem", mock.Anything, ann, mock.Anything).
		Return(nil, domain.Deny("create_task", "only Leader or Manager can create task"))

	rr := post(workspaceRouter(&mockMembershipSvc{}, act), "/workspaces/w1/activity",
		`{"kind":"task","action":"created","entity_id":"t1","title":"Fix login"}`)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestWorkspaceHandler_Activity_InvalidKind(t *testing.T) {
	act := &mockActivitySvc{}

	rr := post(workspaceRouter(&mockMembershipSvc{}, act), "/workspaces/w1/activity",
		`{"kind":"meeting","action":"created","entity_id":"t1","title":"x"}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	act.AssertNotCalled(t, "WorkItem", mock.Anything, mock.Anything, mock.Anything)
}

func TestWorkspaceHandler_AddMember(t *testing.T) {
	act := &mockActivitySvc{}
	act.On("AddMember", mock.Anything, ann, "w1", domain.AddMemberRequest{UserID: "u2", Role: domain.RoleMember}).Return(nil)

	rr := post(workspaceRouter(&mockMembershipSvc{}, act), "/workspaces/w1/members", `{"user_id":"u2","role":"Member"}`)

	assert.Equal(t, http.StatusCreated, rr.Code)
}

func TestWorkspaceHandler_RemoveMember(t *testing.T) {
	act := &mockActivitySvc{}
	act.On("RemoveMember", mock.Anything, ann, "w1", "u2").Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/workspaces/w1/members/u2", nil)
	rr := httptest.NewRecorder()
	workspaceRouter(&mockMembershipSvc{}, act).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestWorkspaceHandler_Delete_NotFound(t *testing.T) {
	act := &mockActivitySvc{}
	act.On("DeleteWorkspace", mock.Anything, ann, "w1").Return(domain.ErrNotFound)

	req := httptest.NewRequest(http.MethodDelete, "/workspaces/w1/", nil)
	rr := httptest.NewRecorder()
	workspaceRouter(&mockMembershipSvc{}, act).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
