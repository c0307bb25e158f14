package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/thuan734655/DACS3-Server/internal/application/notification"
	"github.com/thuan734655/DACS3-Server/internal/domain"
)

// NotificationHandler serves the notification pull API clients use to catch up on
// anything pushed while they were offline.
type NotificationHandler struct {
	svc notification.Service
}

func NewNotificationHandler(svc notification.Service) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

// List returns a newest-first page. Query: page, limit, workspace_id, type.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	filter := domain.NotificationFilter{
		WorkspaceID: q.Get("workspace_id"),
		Type:        domain.NotificationType(q.Get("type")),
	}
	if filter.Type != "" && !filter.Type.Valid() {
		writeError(w, http.StatusBadRequest, "unknown notification type")
		return
	}
	result, err := h.svc.List(r.Context(), identity.UserID, filter, page, limit)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *NotificationHandler) ListUnread(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}
	notifications, err := h.svc.ListUnread(r.Context(), identity.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notifications)
}

func (h *NotificationHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}
	n, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"), identity.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *NotificationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}
	n, err := h.svc.MarkAsRead(r.Context(), chi.URLParam(r, "id"), identity.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// MarkAllAsRead accepts an optional workspace_id query parameter.
func (h *NotificationHandler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}
	n, err := h.svc.MarkAllAsRead(r.Context(), identity.UserID, r.URL.Query().Get("workspace_id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CountEnvelope{Count: n})
}

func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id"), identity.UserID); err != nil {
		httpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
