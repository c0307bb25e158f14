package membership

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
	"github.com/thuan734655/DACS3-Server/internal/domain"
)

type mockMembershipStore struct{ mock.Mock }

func (m *mockMembershipStore) Get(ctx context.Context, kind domain.GroupKind, groupID, userID string) (*domain.Membership, error) {
	args := m.Called(ctx, kind, groupID, userID)
	if v, _ := args.Get(0).(*domain.Membership); v != nil {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockMembershipStore) Put(ctx context.Context, v *domain.Membership) error {
	return m.Called(ctx, v).Error(0)
}
func (m *mockMembershipStore) Delete(ctx context.Context, kind domain.GroupKind, groupID, userID string) error {
	return m.Called(ctx, kind, groupID, userID).Error(0)
}
func (m *mockMembershipStore) ListGroup(ctx context.Context, kind domain.GroupKind, groupID string) ([]domain.Membership, error) {
	args := m.Called(ctx, kind, groupID)
	v, _ := args.Get(0).([]domain.Membership)
	return v, args.Error(1)
}
func (m *mockMembershipStore) DeleteGroup(ctx context.Context, kind domain.GroupKind, groupID string) error {
	return m.Called(ctx, kind, groupID).Error(0)
}

type mockMessageStore struct{ mock.Mock }

func (m *mockMessageStore) Get(ctx context.Context, messageID string) (*domain.Message, error) {
	args := m.Called(ctx, messageID)
	if v, _ := args.Get(0).(*domain.Message); v != nil {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockChannelStore struct{ mock.Mock }

func (m *mockChannelStore) Get(ctx context.Context, id string) (*domain.Channel, error) {
	args := m.Called(ctx, id)
	if v, _ := args.Get(0).(*domain.Channel); v != nil {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockChannelStore) ListByWorkspace(ctx context.Context, workspaceID string) ([]domain.Channel, error) {
	args := m.Called(ctx, workspaceID)
	v, _ := args.Get(0).([]domain.Channel)
	return v, args.Error(1)
}

type mockWorkspaceStore struct{ mock.Mock }

func (m *mockWorkspaceStore) Get(ctx context.Context, id string) (*domain.Workspace, error) {
	args := m.Called(ctx, id)
	if v, _ := args.Get(0).(*domain.Workspace); v != nil {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockWorkspaceStore) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// memStore is an in-memory MembershipStore for end-to-end flows.
type memStore struct {
	mu   sync.Mutex
	rows map[string]map[string]domain.Membership
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[string]map[string]domain.Membership)}
}

func (s *memStore) Get(_ context.Context, kind domain.GroupKind, groupID, userID string) (*domain.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.rows[domain.GroupKey(kind, groupID)][userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &m, nil
}
func (s *memStore) Put(_ context.Context, m *domain.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rows[m.GroupKey] == nil {
		s.rows[m.GroupKey] = make(map[string]domain.Membership)
	}
	s.rows[m.GroupKey][m.UserID] = *m
	return nil
}
func (s *memStore) Delete(_ context.Context, kind domain.GroupKind, groupID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows[domain.GroupKey(kind, groupID)], userID)
	return nil
}
func (s *memStore) ListGroup(_ context.Context, kind domain.GroupKind, groupID string) ([]domain.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Membership
	for _, m := range s.rows[domain.GroupKey(kind, groupID)] {
		out = append(out, m)
	}
	return out, nil
}
func (s *memStore) DeleteGroup(_ context.Context, kind domain.GroupKind, groupID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, domain.GroupKey(kind, groupID))
	return nil
}

func member(role domain.Role) *domain.Membership {
	return &domain.Membership{Role: role}
}

func strPtr(s string) *string { return &s }
