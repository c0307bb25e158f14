package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/thuan734655/DACS3-Server/internal/application/notification"
	"github.com/thuan734655/DACS3-Server/internal/domain"
	"github.com/thuan734655/DACS3-Server/internal/realtime/room"
)

func eventRouter(notifs *mockNotificationSvc, fan *mockBroadcaster, members *mockMembershipSvc) http.Handler {
	h := NewEventHandler(notifs, fan, members)
	return newTestRouter(ann, func(r chi.Router) {
		r.Post("/events/notify", h.Notify)
		r.Post("/events/broadcast", h.Broadcast)
	})
}

func post(router http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestEventHandler_Notify(t *testing.T) {
	notifs := &mockNotificationSvc{}
	notifs.On("Record", mock.Anything, mock.MatchedBy(func(in notification.Record) bool {
		return in.Type == domain.NotifTaskAssigned && in.RecipientID == "u2" && in.TypeID == "t1" &&
			in.ActorID == "u1" && in.WorkspaceID != nil && *in.WorkspaceID == "w1"
	})).Return(&domain.Notification{NotificationID: "n1"}, nil)
	members := &mockMembershipSvc{}
	members.On("IsMember", mock.Anything, room.Workspace, "w1", "u1").Return(true, nil)
	members.On("IsMember", mock.Anything, room.Workspace, "w1", "u2").Return(true, nil)

	rr := post(eventRouter(notifs, &mockBroadcaster{}, members), "/events/notify",
		`{"type":"task_assigned","recipient_id":"u2","type_id":"t1","workspace_id":"w1","content":"You were assigned Fix login"}`)

	assert.Equal(t, http.StatusCreated, rr.Code)
	notifs.AssertExpectations(t)
}

func TestEventHandler_Notify_MissingFields(t *testing.T) {
	notifs := &mockNotificationSvc{}

	rr := post(eventRouter(notifs, &mockBroadcaster{}, &mockMembershipSvc{}), "/events/notify", `{"type":"task_assigned"}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	notifs.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
}

func TestEventHandler_Notify_PersistenceFailure(t *testing.T) {
	notifs := &mockNotificationSvc{}
	notifs.On("Record", mock.Anything, mock.Anything).Return(nil, domain.ErrPersistence)

	rr := post(eventRouter(notifs, &mockBroadcaster{}, &mockMembershipSvc{}), "/events/notify",
		`{"type":"task_assigned","recipient_id":"u1","type_id":"t1","content":"x"}`)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestEventHandler_Notify_RecipientOutsideWorkspace(t *testing.T) {
	notifs := &mockNotificationSvc{}
	members := &mockMembershipSvc{}
	members.On("IsMember", mock.Anything, room.Workspace, "w1", "u1").Return(true, nil)
	members.On("IsMember", mock.Anything, room.Workspace, "w1", "stranger").Return(false, nil)

	rr := post(eventRouter(notifs, &mockBroadcaster{}, members), "/events/notify",
		`{"type":"task_assigned","recipient_id":"stranger","type_id":"t1","workspace_id":"w1","content":"x"}`)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.JSONEq(t, `{"error":"the recipient is not a member of this workspace","error_code":403}`, rr.Body.String())
	notifs.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
}

func TestEventHandler_Notify_CallerOutsideWorkspace(t *testing.T) {
	notifs := &mockNotificationSvc{}
	members := &mockMembershipSvc{}
	members.On("IsMember", mock.Anything, room.Workspace, "w9", "u1").Return(false, nil)

	rr := post(eventRouter(notifs, &mockBroadcaster{}, members), "/events/notify",
		`{"type":"task_assigned","recipient_id":"u2","type_id":"t1","workspace_id":"w9","content":"x"}`)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	notifs.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
	members.AssertNotCalled(t, "IsMember", mock.Anything, room.Workspace, "w9", "u2")
}

func TestEventHandler_Notify_OtherUserWithoutWorkspace(t *testing.T) {
	notifs := &mockNotificationSvc{}

	rr := post(eventRouter(notifs, &mockBroadcaster{}, &mockMembershipSvc{}), "/events/notify",
		`{"type":"message_mention","recipient_id":"u2","type_id":"m1","content":"x"}`)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	notifs.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
}

func TestEventHandler_Notify_ServerOwnedType(t *testing.T) {
	notifs := &mockNotificationSvc{}

	rr := post(eventRouter(notifs, &mockBroadcaster{}, &mockMembershipSvc{}), "/events/notify",
		`{"type":"workspace_deleted","recipient_id":"u2","type_id":"w1","workspace_id":"w1","content":"x"}`)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	notifs.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
}

func TestEventHandler_Broadcast(t *testing.T) {
	fan := &mockBroadcaster{}
	members := &mockMembershipSvc{}
	members.On("IsMember", mock.Anything, room.Channel, "c1", "u1").Return(true, nil)
	fan.On("Broadcast", mock.Anything, "message:new", room.Channel, "c1", mock.Anything).Return(4, nil)

	rr := post(eventRouter(&mockNotificationSvc{}, fan, members), "/events/broadcast",
		`{"event":"message:new","room_kind":"channel","room_id":"c1","payload":{"id":"m1"}}`)

	assert.Equal(t, http.StatusAccepted, rr.Code)
	assert.JSONEq(t, `{"delivered":4}`, rr.Body.String())
}

func TestEventHandler_Broadcast_NonMember(t *testing.T) {
	fan := &mockBroadcaster{}
	members := &mockMembershipSvc{}
	members.On("IsMember", mock.Anything, room.Workspace, "w9", "u1").Return(false, nil)

	rr := post(eventRouter(&mockNotificationSvc{}, fan, members), "/events/broadcast",
		`{"event":"task:created","room_kind":"workspace","room_id":"w9"}`)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), "you are not a member of this workspace")
	fan.AssertNotCalled(t, "Broadcast", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEventHandler_Broadcast_BadRoomKind(t *testing.T) {
	rr := post(eventRouter(&mockNotificationSvc{}, &mockBroadcaster{}, &mockMembershipSvc{}), "/events/broadcast",
		`{"event":"x","room_kind":"galaxy","room_id":"g1"}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestEventHandler_Broadcast_ReservedEvent(t *testing.T) {
	for _, event := range []string{"notification:new", "presence:offline", "error:authorization", "room:joined", "workspace:deleted", "channel:memberAdded"} {
		t.Run(event, func(t *testing.T) {
			fan := &mockBroadcaster{}
			members := &mockMembershipSvc{}

			rr := post(eventRouter(&mockNotificationSvc{}, fan, members), "/events/broadcast",
				`{"event":"`+event+`","room_kind":"workspace","room_id":"w1"}`)

			assert.Equal(t, http.StatusForbidden, rr.Code)
			fan.AssertNotCalled(t, "Broadcast", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			members.AssertNotCalled(t, "IsMember", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}
