// Package membership answers who belongs to which group and what they may do there.
// Every answer is read live from the store; nothing is cached between calls.
package membership

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thuan734655/DACS3-Server/internal/domain"
	"github.com/thuan734655/DACS3-Server/internal/realtime/room"
)

type MembershipStore interface {
	Get(ctx context.Context, kind domain.GroupKind, groupID, userID string) (*domain.Membership, error)
	Put(ctx context.Context, m *domain.Membership) error
	Delete(ctx context.Context, kind domain.GroupKind, groupID, userID string) error
	ListGroup(ctx context.Context, kind domain.GroupKind, groupID string) ([]domain.Membership, error)
	DeleteGroup(ctx context.Context, kind domain.GroupKind, groupID string) error
}

type ChannelStore interface {
	Get(ctx context.Context, channelID string) (*domain.Channel, error)
	ListByWorkspace(ctx context.Context, workspaceID string) ([]domain.Channel, error)
}

type MessageStore interface {
	Get(ctx context.Context, messageID string) (*domain.Message, error)
}

type WorkspaceStore interface {
	Get(ctx context.Context, workspaceID string) (*domain.Workspace, error)
	Delete(ctx context.Context, workspaceID string) error
}

type Service interface {
	IsMember(ctx context.Context, kind room.Kind, groupID, userID string) (bool, error)
	RoleOf(ctx context.Context, workspaceID, userID string) (domain.Role, error)
	// Require resolves the caller's role and checks it against action. Denials are
	// *domain.AuthorizationError.
	Require(ctx context.Context, workspaceID, userID string, action Action) (domain.Role, error)
	RequireOver(ctx context.Context, workspaceID, actorID, targetID string, action Action) (actor, target domain.Role, err error)
	Members(ctx context.Context, workspaceID string) ([]domain.Membership, error)
	Workspace(ctx context.Context, workspaceID string) (*domain.Workspace, error)
	Channel(ctx context.Context, channelID string) (*domain.Channel, error)
	Channels(ctx context.Context, workspaceID string) ([]domain.Channel, error)
	// GrantChannel adds userID to an open channel of a workspace they belong to.
	// It reports whether a new membership was written.
	GrantChannel(ctx context.Context, ch *domain.Channel, userID string) (bool, error)
	AddMember(ctx context.Context, workspaceID, userID string, role domain.Role) error
	// RemoveMember drops the workspace record and the user's records in its channels.
	RemoveMember(ctx context.Context, workspaceID, userID string) error
	// DeleteWorkspace drops the workspace, its memberships and its channels' memberships.
	DeleteWorkspace(ctx context.Context, workspaceID string) error
}

type ServiceDeps struct {
	Memberships MembershipStore
	Workspaces  WorkspaceStore
	Channels    ChannelStore
	Messages    MessageStore
}

type service struct {
	memberships MembershipStore
	workspaces  WorkspaceStore
	channels    ChannelStore
	messages    MessageStore
	now         func() time.Time
}

func NewService(deps ServiceDeps) Service {
	return &service{
		memberships: deps.Memberships,
		workspaces:  deps.Workspaces,
		channels:    deps.Channels,
		messages:    deps.Messages,
		now:         time.Now,
	}
}

func (s *service) IsMember(ctx context.Context, kind room.Kind, groupID, userID string) (bool, error) {
	switch kind {
	case room.User:
		return groupID == userID, nil
	case room.Workspace:
		return s.hasRecord(ctx, domain.GroupWorkspace, groupID, userID)
	case room.Channel:
		return s.inChannel(ctx, groupID, userID)
	case room.Thread:
		return s.inThread(ctx, groupID, userID)
	}
	return false, nil
}

func (s *service) RoleOf(ctx context.Context, workspaceID, userID string) (domain.Role, error) {
	m, err := s.memberships.Get(ctx, domain.GroupWorkspace, workspaceID, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.RoleNone, nil
	}
	if err != nil {
		return domain.RoleNone, err
	}
	if !m.Role.Valid() {
		return domain.RoleNone, nil
	}
	return m.Role, nil
}

func (s *service) Require(ctx context.Context, workspaceID, userID string, action Action) (domain.Role, error) {
	role, err := s.RoleOf(ctx, workspaceID, userID)
	if err != nil {
		return domain.RoleNone, err
	}
	if role == domain.RoleNone {
		return role, domain.Deny(string(action), "you are not a member of this workspace")
	}
	if !Authorize(action, role) {
		return role, denyRole(action)
	}
	return role, nil
}

func (s *service) RequireOver(ctx context.Context, workspaceID, actorID, targetID string, action Action) (domain.Role, domain.Role, error) {
	actor, err := s.Require(ctx, workspaceID, actorID, action)
	if err != nil {
		return actor, domain.RoleNone, err
	}
	target, err := s.RoleOf(ctx, workspaceID, targetID)
	if err != nil {
		return actor, domain.RoleNone, err
	}
	if !AuthorizeOver(action, actor, target) {
		return actor, target, denyTarget(action, actor, target)
	}
	return actor, target, nil
}

func (s *service) Members(ctx context.Context, workspaceID string) ([]domain.Membership, error) {
	return s.memberships.ListGroup(ctx, domain.GroupWorkspace, workspaceID)
}

func (s *service) Workspace(ctx context.Context, workspaceID string) (*domain.Workspace, error) {
	return s.workspaces.Get(ctx, workspaceID)
}

func (s *service) Channel(ctx context.Context, channelID string) (*domain.Channel, error) {
	return s.channels.Get(ctx, channelID)
}

func (s *service) Channels(ctx context.Context, workspaceID string) ([]domain.Channel, error) {
	return s.channels.ListByWorkspace(ctx, workspaceID)
}

func (s *service) GrantChannel(ctx context.Context, ch *domain.Channel, userID string) (bool, error) {
	if ch.IsPrivate {
		return false, domain.Deny("join_channel", "this channel is private")
	}
	inWorkspace, err := s.hasRecord(ctx, domain.GroupWorkspace, ch.WorkspaceID, userID)
	if err != nil {
		return false, err
	}
	if !inWorkspace {
		return false, domain.Deny("join_channel", "you are not a member of this workspace")
	}
	already, err := s.hasRecord(ctx, domain.GroupChannel, ch.ChannelID, userID)
	if err != nil {
		return false, err
	}
	if already {
		return false, nil
	}
	m := &domain.Membership{
		GroupKey: domain.GroupKey(domain.GroupChannel, ch.ChannelID),
		UserID:   userID,
		Role:     domain.RoleMember,
		JoinedAt: s.now().UTC(),
	}
	if err := s.memberships.Put(ctx, m); err != nil {
		return false, fmt.Errorf("grant channel membership: %w", err)
	}
	return true, nil
}

func (s *service) AddMember(ctx context.Context, workspaceID, userID string, role domain.Role) error {
	if role == domain.RoleNone {
		role = domain.RoleMember
	}
	return s.memberships.Put(ctx, &domain.Membership{
		GroupKey: domain.GroupKey(domain.GroupWorkspace, workspaceID),
		UserID:   userID,
		Role:     role,
		JoinedAt: s.now().UTC(),
	})
}

// The workspace record goes first: channel access also requires it, so a failure part
// way through never leaves the user with channel access.
func (s *service) RemoveMember(ctx context.Context, workspaceID, userID string) error {
	if err := s.memberships.Delete(ctx, domain.GroupWorkspace, workspaceID, userID); err != nil {
		return err
	}
	channels, err := s.channels.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return err
	}
	for _, ch := range channels {
		if err := s.memberships.Delete(ctx, domain.GroupChannel, ch.ChannelID, userID); err != nil {
			return fmt.Errorf("delete channel %s membership: %w", ch.ChannelID, err)
		}
	}
	return nil
}

func (s *service) DeleteWorkspace(ctx context.Context, workspaceID string) error {
	channels, err := s.channels.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return err
	}
	if err := s.memberships.DeleteGroup(ctx, domain.GroupWorkspace, workspaceID); err != nil {
		return fmt.Errorf("delete workspace memberships: %w", err)
	}
	for _, ch := range channels {
		if err := s.memberships.DeleteGroup(ctx, domain.GroupChannel, ch.ChannelID); err != nil {
			return fmt.Errorf("delete channel %s memberships: %w", ch.ChannelID, err)
		}
	}
	return s.workspaces.Delete(ctx, workspaceID)
}

func (s *service) hasRecord(ctx context.Context, kind domain.GroupKind, groupID, userID string) (bool, error) {
	_, err := s.memberships.Get(ctx, kind, groupID, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// inChannel requires both the channel record and live membership of the channel's
// workspace. A missing channel reads as "not a member".
func (s *service) inChannel(ctx context.Context, channelID, userID string) (bool, error) {
	ok, err := s.hasRecord(ctx, domain.GroupChannel, channelID, userID)
	if err != nil || !ok {
		return false, err
	}
	ch, err := s.channels.Get(ctx, channelID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return s.hasRecord(ctx, domain.GroupWorkspace, ch.WorkspaceID, userID)
}

// inThread resolves a thread through its parent message: channel threads follow channel
// membership, direct-message threads are visible to the two participants.
func (s *service) inThread(ctx context.Context, messageID, userID string) (bool, error) {
	msg, err := s.messages.Get(ctx, messageID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if msg.ChannelID != nil {
		return s.inChannel(ctx, *msg.ChannelID, userID)
	}
	if msg.SenderID == userID {
		return true, nil
	}
	return msg.ReceiverID != nil && *msg.ReceiverID == userID, nil
}
