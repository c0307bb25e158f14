// Package activity turns committed domain mutations into notifications and live
// updates. Authorization runs first; a denial leaves no trace.
package activity

import (
	"context"
	"fmt"

	"github.com/thuan734655/DACS3-Server/internal/application/membership"
	"github.com/thuan734655/DACS3-Server/internal/application/notification"
	"github.com/thuan734655/DACS3-Server/internal/domain"
	"github.com/thuan734655/DACS3-Server/internal/realtime/room"
)

type Authority interface {
	IsMember(ctx context.Context, kind room.Kind, groupID, userID string) (bool, error)
	RoleOf(ctx context.Context, workspaceID, userID string) (domain.Role, error)
	Require(ctx context.Context, workspaceID, userID string, action membership.Action) (domain.Role, error)
	RequireOver(ctx context.Context, workspaceID, actorID, targetID string, action membership.Action) (domain.Role, domain.Role, error)
	Members(ctx context.Context, workspaceID string) ([]domain.Membership, error)
	Workspace(ctx context.Context, workspaceID string) (*domain.Workspace, error)
	Channels(ctx context.Context, workspaceID string) ([]domain.Channel, error)
	AddMember(ctx context.Context, workspaceID, userID string, role domain.Role) error
	RemoveMember(ctx context.Context, workspaceID, userID string) error
	DeleteWorkspace(ctx context.Context, workspaceID string) error
}

type Recorder interface {
	Record(ctx context.Context, in notification.Record) (*domain.Notification, error)
	DeleteByWorkspace(ctx context.Context, workspaceID string) (int, error)
}

type Dispatcher interface {
	Broadcast(ctx context.Context, event string, kind room.Kind, id string, payload any) (int, error)
}

// Evictor removes live connections from rooms they are no longer entitled to.
type Evictor interface {
	Evict(userID, room string) []string
	EvictRoom(room string) []string
	RoomsOfUser(userID string) []string
}

type Service interface {
	WorkItem(ctx context.Context, actor domain.Identity, ev domain.WorkItemEvent) ([]*domain.Notification, error)
	AddMember(ctx context.Context, actor domain.Identity, workspaceID string, req domain.AddMemberRequest) error
	RemoveMember(ctx context.Context, actor domain.Identity, workspaceID, targetID string) error
	DeleteWorkspace(ctx context.Context, actor domain.Identity, workspaceID string) error
}

type ServiceDeps struct {
	Authority  Authority
	Recorder   Recorder
	Dispatcher Dispatcher
	Evictor    Evictor
}

type service struct {
	authority  Authority
	recorder   Recorder
	dispatcher Dispatcher
	evictor    Evictor
}

func NewService(deps ServiceDeps) Service {
	return &service{
		authority:  deps.Authority,
		recorder:   deps.Recorder,
		dispatcher: deps.Dispatcher,
		evictor:    deps.Evictor,
	}
}

func (s *service) AddMember(ctx context.Context, actor domain.Identity, workspaceID string, req domain.AddMemberRequest) error {
	ws, err := s.authority.Workspace(ctx, workspaceID)
	if err != nil {
		return err
	}
	if req.Role == domain.RoleNone {
		req.Role = domain.RoleMember
	}
	actorRole, err := s.authority.Require(ctx, workspaceID, actor.UserID, membership.ActionAddMember)
	if err != nil {
		return err
	}
	if !membership.AuthorizeOver(membership.ActionAddMember, actorRole, req.Role) {
		return domain.Deny(string(membership.ActionAddMember), fmt.Sprintf("a %s can only add members with role %s", actorRole, domain.RoleMember))
	}
	current, err := s.authority.RoleOf(ctx, workspaceID, req.UserID)
	if err != nil {
		return err
	}
	if current != domain.RoleNone {
		return fmt.Errorf("user is already a member: %w", domain.ErrConflict)
	}

	if err := s.authority.AddMember(ctx, workspaceID, req.UserID, req.Role); err != nil {
		return fmt.Errorf("add member: %w: %w", domain.ErrPersistence, err)
	}
	if _, err := s.recorder.Record(ctx, notification.Record{
		Type:        domain.NotifWorkspaceAdded,
		RecipientID: req.UserID,
		TypeID:      workspaceID,
		WorkspaceID: &workspaceID,
		Content:     fmt.Sprintf("%s added you to workspace %s", actor.DisplayName, ws.Name),
		ActorID:     actor.UserID,
	}); err != nil {
		return err
	}
	s.broadcast(ctx, "workspace:joined", room.User, req.UserID, map[string]any{"workspaceId": workspaceID, "role": req.Role})
	s.broadcast(ctx, "workspace:memberAdded", room.Workspace, workspaceID, map[string]any{"workspaceId": workspaceID, "userId": req.UserID, "role": req.Role})
	return nil
}

func (s *service) RemoveMember(ctx context.Context, actor domain.Identity, workspaceID, targetID string) error {
	ws, err := s.authority.Workspace(ctx, workspaceID)
	if err != nil {
		return err
	}
	if targetID == ws.CreatedBy {
		return domain.Deny(string(membership.ActionRemoveMember), "the workspace creator cannot be removed")
	}
	_, target, err := s.authority.RequireOver(ctx, workspaceID, actor.UserID, targetID, membership.ActionRemoveMember)
	if err != nil {
		return err
	}
	if target == domain.RoleNone {
		return fmt.Errorf("user is not a member of this workspace: %w", domain.ErrNotFound)
	}
	channels, err := s.authority.Channels(ctx, workspaceID)
	if err != nil {
		return err
	}

	if err := s.authority.RemoveMember(ctx, workspaceID, targetID); err != nil {
		return fmt.Errorf("remove member: %w: %w", domain.ErrPersistence, err)
	}
	if _, err := s.recorder.Record(ctx, notification.Record{
		Type:        domain.NotifWorkspaceRemoved,
		RecipientID: targetID,
		TypeID:      workspaceID,
		Content:     fmt.Sprintf("You were removed from workspace %s", ws.Name),
		ActorID:     actor.UserID,
	}); err != nil {
		return err
	}
	s.broadcast(ctx, "workspace:removed", room.User, targetID, map[string]any{"workspaceId": workspaceID})
	s.evictor.Evict(targetID, room.ForWorkspace(workspaceID))
	for _, ch := range channels {
		s.evictor.Evict(targetID, room.For(room.Channel, ch.ChannelID))
	}
	s.evictThreads(ctx, targetID)
	s.broadcast(ctx, "workspace:memberRemoved", room.Workspace, workspaceID, map[string]any{"workspaceId": workspaceID, "userId": targetID})
	return nil
}

func (s *service) DeleteWorkspace(ctx context.Context, actor domain.Identity, workspaceID string) error {
	ws, err := s.authority.Workspace(ctx, workspaceID)
	if err != nil {
		return err
	}
	if _, err := s.authority.Require(ctx, workspaceID, actor.UserID, membership.ActionDeleteWorkspace); err != nil {
		return err
	}
	members, err := s.authority.Members(ctx, workspaceID)
	if err != nil {
		return err
	}
	channels, err := s.authority.Channels(ctx, workspaceID)
	if err != nil {
		return err
	}

	if _, err := s.recorder.DeleteByWorkspace(ctx, workspaceID); err != nil {
		return err
	}
	if err := s.authority.DeleteWorkspace(ctx, workspaceID); err != nil {
		return fmt.Errorf("delete workspace: %w: %w", domain.ErrPersistence, err)
	}
	for _, m := range members {
		if m.UserID == actor.UserID {
			continue
		}
		if _, err := s.recorder.Record(ctx, notification.Record{
			Type:        domain.NotifWorkspaceDeleted,
			RecipientID: m.UserID,
			TypeID:      workspaceID,
			Content:     fmt.Sprintf("Workspace %s was deleted", ws.Name),
			ActorID:     actor.UserID,
		}); err != nil {
			return err
		}
	}
	for _, m := range members {
		s.broadcast(ctx, "workspace:deleted", room.User, m.UserID, map[string]any{"workspaceId": workspaceID})
	}
	s.evictor.EvictRoom(room.ForWorkspace(workspaceID))
	for _, ch := range channels {
		s.evictor.EvictRoom(room.For(room.Channel, ch.ChannelID))
	}
	for _, m := range members {
		s.evictThreads(ctx, m.UserID)
	}
	return nil
}

// evictThreads drops userID from joined thread rooms it can no longer see. A failed
// check evicts too; the client can join again.
func (s *service) evictThreads(ctx context.Context, userID string) {
	for _, name := range s.evictor.RoomsOfUser(userID) {
		kind, id, err := room.Parse(name)
		if err != nil || kind != room.Thread {
			continue
		}
		if ok, err := s.authority.IsMember(ctx, room.Thread, id, userID); err == nil && ok {
			continue
		}
		s.evictor.Evict(userID, name)
	}
}

func (s *service) broadcast(ctx context.Context, event string, kind room.Kind, id string, payload any) {
	// payloads are plain maps; encoding cannot fail
	_, _ = s.dispatcher.Broadcast(ctx, event, kind, id, payload)
}
