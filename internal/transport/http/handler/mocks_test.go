package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/thuan734655/DACS3-Server/internal/application/membership"
	"github.com/thuan734655/DACS3-Server/internal/application/notification"
	"github.com/thuan734655/DACS3-Server/internal/domain"
	"github.com/thuan734655/DACS3-Server/internal/realtime/room"
	"github.com/thuan734655/DACS3-Server/internal/transport/http/middleware"
)

// --- mocks ---

type mockNotificationSvc struct{ mock.Mock }

func (m *mockNotificationSvc) Record(ctx context.Context, in notification.Record) (*domain.Notification, error) {
	args := m.Called(ctx, in)
	if n, _ := args.Get(0).(*domain.Notification); n != nil {
		return n, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockNotificationSvc) List(ctx context.Context, userID string, filter domain.NotificationFilter, page, limit int) (*domain.NotificationPage, error) {
	args := m.Called(ctx, userID, filter, page, limit)
	if p, _ := args.Get(0).(*domain.NotificationPage); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockNotificationSvc) ListUnread(ctx context.Context, userID string) ([]domain.Notification, error) {
	args := m.Called(ctx, userID)
	v, _ := args.Get(0).([]domain.Notification)
	return v, args.Error(1)
}

func (m *mockNotificationSvc) Get(ctx context.Context, notificationID, userID string) (*domain.Notification, error) {
	args := m.Called(ctx, notificationID, userID)
	if n, _ := args.Get(0).(*domain.Notification); n != nil {
		return n, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockNotificationSvc) MarkAsRead(ctx context.Context, notificationID, userID string) (*domain.Notification, error) {
	args := m.Called(ctx, notificationID, userID)
	if n, _ := args.Get(0).(*domain.Notification); n != nil {
		return n, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockNotificationSvc) MarkAllAsRead(ctx context.Context, userID string, workspaceID string) (int, error) {
	args := m.Called(ctx, userID, workspaceID)
	return args.Int(0), args.Error(1)
}

func (m *mockNotificationSvc) Delete(ctx context.Context, notificationID, userID string) error {
	return m.Called(ctx, notificationID, userID).Error(0)
}

func (m *mockNotificationSvc) DeleteByWorkspace(ctx context.Context, workspaceID string) (int, error) {
	args := m.Called(ctx, workspaceID)
	return args.Int(0), args.Error(1)
}

type mockMembershipSvc struct{ mock.Mock }

func (m *mockMembershipSvc) IsMember(ctx context.Context, kind room.Kind, groupID, userID string) (bool, error) {
	args := m.Called(ctx, kind, groupID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockMembershipSvc) RoleOf(ctx context.Context, workspaceID, userID string) (domain.Role, error) {
	args := m.Called(ctx, workspaceID, userID)
	return args.Get(0).(domain.Role), args.Error(1)
}

func (m *mockMembershipSvc) Require(ctx context.Context, workspaceID, userID string, action membership.Action) (domain.Role, error) {
	args := m.Called(ctx, workspaceID, userID, action)
	return args.Get(0).(domain.Role), args.Error(1)
}

func (m *mockMembershipSvc) RequireOver(ctx context.Context, workspaceID, actorID, targetID string, action membership.Action) (domain.Role, domain.Role, error) {
	args := m.Called(ctx, workspaceID, actorID, targetID, action)
	return args.Get(0).(domain.Role), args.Get(1).(domain.Role), args.Error(2)
}

func (m *mockMembershipSvc) Members(ctx context.Context, workspaceID string) ([]domain.Membership, error) {
	args := m.Called(ctx, workspaceID)
	v, _ := args.Get(0).([]domain.Membership)
	return v, args.Error(1)
}

func (m *mockMembershipSvc) Workspace(ctx context.Context, workspaceID string) (*domain.Workspace, error) {
	args := m.Called(ctx, workspaceID)
	if v, _ := args.Get(0).(*domain.Workspace); v != nil {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockMembershipSvc) Channel(ctx context.Context, channelID string) (*domain.Channel, error) {
	args := m.Called(ctx, channelID)
	if v, _ := args.Get(0).(*domain.Channel); v != nil {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockMembershipSvc) Channels(ctx context.Context, workspaceID string) ([]domain.Channel, error) {
	args := m.Called(ctx, workspaceID)
	v, _ := args.Get(0).([]domain.Channel)
	return v, args.Error(1)
}

func (m *mockMembershipSvc) GrantChannel(ctx context.Context, ch *domain.Channel, userID string) (bool, error) {
	args := m.Called(ctx, ch, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockMembershipSvc) AddMember(ctx context.Context, workspaceID, userID string, role domain.Role) error {
	return m.Called(ctx, workspaceID, userID, role).Error(0)
}

func (m *mockMembershipSvc) RemoveMember(ctx context.Context, workspaceID, userID string) error {
	return m.Called(ctx, workspaceID, userID).Error(0)
}

func (m *mockMembershipSvc) DeleteWorkspace(ctx context.Context, workspaceID string) error {
	return m.Called(ctx, workspaceID).Error(0)
}

type mockActivitySvc struct{ mock.Mock }

func (m *mockActivitySvc) WorkItem(ctx context.Context, actor domain.Identity, ev domain.WorkItemEvent) ([]*domain.Notification, error) {
	args := m.Called(ctx, actor, ev)
	v, _ := args.Get(0).([]*domain.Notification)
	return v, args.Error(1)
}

func (m *mockActivitySvc) AddMember(ctx context.Context, actor domain.Identity, workspaceID string, req domain.AddMemberRequest) error {
	return m.Called(ctx, actor, workspaceID, req).Error(0)
}

func (m *mockActivitySvc) RemoveMember(ctx context.Context, actor domain.Identity, workspaceID, targetID string) error {
	return m.Called(ctx, actor, workspaceID, targetID).Error(0)
}

func (m *mockActivitySvc) DeleteWorkspace(ctx context.Context, actor domain.Identity, workspaceID string) error {
	return m.Called(ctx, actor, workspaceID).Error(0)
}

type mockBroadcaster struct{ mock.Mock }

func (m *mockBroadcaster) Broadcast(ctx context.Context, event string, kind room.Kind, id string, payload any) (int, error) {
	args := m.Called(ctx, event, kind, id, payload)
	return args.Int(0), args.Error(1)
}

// --- helpers ---

var ann = domain.Identity{UserID: "u1", DisplayName: "Ann"}

// asCaller injects identity the way the Auth middleware would.
func asCaller(identity domain.Identity) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithIdentity(r.Context(), identity)))
		})
	}
}

func newTestRouter(identity domain.Identity, mount func(r chi.Router)) http.Handler {
	r := chi.NewRouter()
	r.Use(asCaller(identity))
	mount(r)
	return r
}
