package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/thuan734655/DACS3-Server/internal/application/notification"
	"github.com/thuan734655/DACS3-Server/internal/domain"
	"github.com/thuan734655/DACS3-Server/internal/realtime/room"
)

// Broadcaster pushes an event to a single room.
type Broadcaster interface {
	Broadcast(ctx context.Context, event string, kind room.Kind, id string, payload any) (int, error)
}

// MembershipChecker answers whether a user belongs to the group behind a room.
type MembershipChecker interface {
	IsMember(ctx context.Context, kind room.Kind, groupID, userID string) (bool, error)
}

// EventHandler is the entry point the CRUD layer uses to record notifications and push
// events after it commits a change.
type EventHandler struct {
	notifications notification.Service
	fan           Broadcaster
	members       MembershipChecker
}

// Event names and notification types this server emits on its own. Clients of the
// events API cannot forge them.
var (
	reservedPrefixes = []string{"notification:", "presence:", "error:", "room:"}
	reservedEvents   = map[string]struct{}{
		"workspace:joined": {}, "workspace:removed": {}, "workspace:deleted": {},
		"workspace:memberAdded": {}, "workspace:memberRemoved": {}, "channel:memberAdded": {},
	}
	serverTypes = map[domain.NotificationType]struct{}{
		domain.NotifWorkspaceAdded: {}, domain.NotifWorkspaceRemoved: {},
		domain.NotifWorkspaceDeleted: {}, domain.NotifChannelJoin: {},
	}
)

func reservedEvent(name string) bool {
	if _, ok := reservedEvents[name]; ok {
		return true
	}
	for _, p := range reservedPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

func NewEventHandler(notifications notification.Service, fan Broadcaster, members MembershipChecker) *EventHandler {
	return &EventHandler{notifications: notifications, fan: fan, members: members}
}

// Notify records one notification for the recipient and pushes it live.
func (h *EventHandler) Notify(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}
	var req domain.NotifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.canNotify(r.Context(), identity.UserID, req); err != nil {
		httpError(w, err)
		return
	}
	n, err := h.notifications.Record(r.Context(), notification.Record{
		Type:        req.Type,
		RecipientID: req.RecipientID,
		TypeID:      req.TypeID,
		WorkspaceID: req.WorkspaceID,
		Content:     req.Content,
		ActorID:     identity.UserID,
	})
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

// Broadcast pushes an arbitrary event to a room the caller belongs to. User rooms are
// limited to the caller's own.
func (h *EventHandler) Broadcast(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}
	var req domain.BroadcastRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if reservedEvent(req.Event) {
		httpError(w, domain.Deny("broadcast", fmt.Sprintf("event %q is reserved for the server", req.Event)))
		return
	}
	kind := room.Kind(req.RoomKind)
	member, err := h.members.IsMember(r.Context(), kind, req.RoomID, identity.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	if !member {
		httpError(w, domain.Deny("broadcast", "you are not a member of this "+req.RoomKind))
		return
	}
	n, err := h.fan.Broadcast(r.Context(), req.Event, kind, req.RoomID, req.Payload)
	if err != nil {
		writeError(w, http.StatusBadRequest, "payload cannot be encoded")
		return
	}
	writeJSON(w, http.StatusAccepted, DeliveryEnvelope{Delivered: n})
}

// canNotify allows a caller to notify themself, or another user of a workspace they
// both belong to.
func (h *EventHandler) canNotify(ctx context.Context, callerID string, req domain.NotifyRequest) error {
	if _, ok := serverTypes[req.Type]; ok {
		return domain.Deny("notify", fmt.Sprintf("%s notifications are issued by the server", req.Type))
	}
	if req.WorkspaceID == nil || *req.WorkspaceID == "" {
		if req.RecipientID == callerID {
			return nil
		}
		return domain.Deny("notify", "notifying another user requires a shared workspace_id")
	}
	for _, uid := range []string{callerID, req.RecipientID} {
		ok, err := h.members.IsMember(ctx, room.Workspace, *req.WorkspaceID, uid)
		if err != nil {
			return err
		}
		if !ok {
			if uid == callerID {
				return domain.Deny("notify", "you are not a member of this workspace")
			}
			return domain.Deny("notify", "the recipient is not a member of this workspace")
		}
	}
	return nil
}
