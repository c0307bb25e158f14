package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/thuan734655/DACS3-Server/internal/application/activity"
	"github.com/thuan734655/DACS3-Server/internal/application/membership"
	"github.com/thuan734655/DACS3-Server/internal/domain"
)

// WorkspaceHandler exposes authorization checks and membership-changing fan-out for a
// workspace. Routes are expected under /workspaces/{id}.
type WorkspaceHandler struct {
	members  membership.Service
	activity activity.Service
}

func NewWorkspaceHandler(members membership.Service, activity activity.Service) *WorkspaceHandler {
	return &WorkspaceHandler{members: members, activity: activity}
}

// Authorize is the pre-mutation check for the CRUD layer: 204 when the caller may
// perform action, 403 with the reason otherwise.
func (h *WorkspaceHandler) Authorize(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}
	var req domain.AuthorizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	action := membership.Action(req.Action)
	if !membership.Known(action) {
		writeError(w, http.StatusBadRequest, "unknown action")
		return
	}
	workspaceID := chi.URLParam(r, "id")

	var err error
	if req.TargetUserID != nil {
		_, _, err = h.members.RequireOver(r.Context(), workspaceID, identity.UserID, *req.TargetUserID, action)
	} else {
		_, err = h.members.Require(r.Context(), workspaceID, identity.UserID, action)
	}
	if err != nil {
		httpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Activity fans out a committed work-item mutation.
func (h *WorkspaceHandler) Activity(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}
	var ev domain.WorkItemEvent
	if !decodeJSON(w, r, &ev) {
		return
	}
	ev.WorkspaceID = chi.URLParam(r, "id")
	notifications, err := h.activity.WorkItem(r.Context(), identity, ev)
	if err != nil {
		httpError(w, err)
		return
	}
	if notifications == nil {
		notifications = []*domain.Notification{}
	}
	writeJSON(w, http.StatusAccepted, map[string]interface{}{"notifications": notifications})
}

func (h *WorkspaceHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}
	var req domain.AddMemberRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.activity.AddMember(r.Context(), identity, chi.URLParam(r, "id"), req); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, MessageEnvelope{Message: "member added"})
}

func (h *WorkspaceHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}
	if err := h.activity.RemoveMember(r.Context(), identity, chi.URLParam(r, "id"), chi.URLParam(r, "userId")); err != nil {
		httpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *WorkspaceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}
	if err := h.activity.DeleteWorkspace(r.Context(), identity, chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
