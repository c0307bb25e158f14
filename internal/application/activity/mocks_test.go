package activity

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/thuan734655/DACS3-Server/internal/application/membership"
	"github.com/thuan734655/DACS3-Server/internal/application/notification"
	"github.com/thuan734655/DACS3-Server/internal/domain"
	"github.com/thuan734655/DACS3-Server/internal/realtime/room"
)

type mockAuthority struct{ mock.Mock }

func (m *mockAuthority) IsMember(ctx context.Context, kind room.Kind, groupID, userID string) (bool, error) {
	args := m.Called(ctx, kind, groupID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockAuthority) RoleOf(ctx context.Context, workspaceID, userID string) (domain.Role, error) {
	args := m.Called(ctx, workspaceID, userID)
	return args.Get(0).(domain.Role), args.Error(1)
}
func (m *mockAuthority) Require(ctx context.Context, workspaceID, userID string, action membership.Action) (domain.Role, error) {
	args := m.Called(ctx, workspaceID, userID, action)
	return args.Get(0).(domain.Role), args.Error(1)
}
func (m *mockAuthority) RequireOver(ctx context.Context, workspaceID, actorID, targetID string, action membership.Action) (domain.Role, domain.Role, error) {
	args := m.Called(ctx, workspaceID, actorID, targetID, action)
	return args.Get(0).(domain.Role), args.Get(1).(domain.Role), args.Error(2)
}
func (m *mockAuthority) Members(ctx context.Context, workspaceID string) ([]domain.Membership, error) {
	args := m.Called(ctx, workspaceID)
	v, _ := args.Get(0).([]domain.Membership)
	return v, args.Error(1)
}
func (m *mockAuthority) Workspace(ctx context.Context, workspaceID string) (*domain.Workspace, error) {
	args := m.Called(ctx, workspaceID)
	if w, _ := args.Get(0).(*domain.Workspace); w != nil {
		return w, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAuthority) Channels(ctx context.Context, workspaceID string) ([]domain.Channel, error) {
	args := m.Called(ctx, workspaceID)
	v, _ := args.Get(0).([]domain.Channel)
	return v, args.Error(1)
}
func (m *mockAuthority) AddMember(ctx context.Context, workspaceID, userID string, role domain.Role) error {
	return m.Called(ctx, workspaceID, userID, role).Error(0)
}
func (m *mockAuthority) RemoveMember(ctx context.Context, workspaceID, userID string) error {
	return m.Called(ctx, workspaceID, userID).Error(0)
}
func (m *mockAuthority) DeleteWorkspace(ctx context.Context, workspaceID string) error {
	return m.Called(ctx, workspaceID).Error(0)
}

type mockRecorder struct{ mock.Mock }

func (m *mockRecorder) Record(ctx context.Context, in notification.Record) (*domain.Notification, error) {
	args := m.Called(ctx, in)
	if n, _ := args.Get(0).(*domain.Notification); n != nil {
		return n, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockRecorder) DeleteByWorkspace(ctx context.Context, workspaceID string) (int, error) {
	args := m.Called(ctx, workspaceID)
	return args.Int(0), args.Error(1)
}

type mockDispatcher struct{ mock.Mock }

func (m *mockDispatcher) Broadcast(ctx context.Context, event string, kind room.Kind, id string, payload any) (int, error) {
	args := m.Called(ctx, event, kind, id, payload)
	return args.Int(0), args.Error(1)
}

type mockEvictor struct{ mock.Mock }

func (m *mockEvictor) Evict(userID, r string) []string {
	v, _ := m.Called(userID, r).Get(0).([]string)
	return v
}
func (m *mockEvictor) EvictRoom(r string) []string {
	v, _ := m.Called(r).Get(0).([]string)
	return v
}
func (m *mockEvictor) RoomsOfUser(userID string) []string {
	v, _ := m.Called(userID).Get(0).([]string)
	return v
}

type fixture struct {
	auth *mockAuthority
	rec  *mockRecorder
	disp *mockDispatcher
	evic *mockEvictor
	svc  Service
}

func newFixture() *fixture {
	f := &fixture{auth: &mockAuthority{}, rec: &mockRecorder{}, disp: &mockDispatcher{}, evic: &mockEvictor{}}
	f.svc = NewService(ServiceDeps{Authority: f.auth, Recorder: f.rec, Dispatcher: f.disp, Evictor: f.evic})
	return f
}

// expectRecord matches a Record call by type and recipient, and echoes it back as a notification.
func (f *fixture) expectRecord(t domain.NotificationType, recipient string) *mock.Call {
	return f.rec.On("Record", mock.Anything, mock.MatchedBy(func(in notification.Record) bool {
		return in.Type == t && in.RecipientID == recipient
	})).Return(&domain.Notification{Type: t, UserID: recipient}, nil)
}

func strPtr(s string) *string { return &s }
