// Package notification records durable notifications and serves them back for
// catch-up. Every record is written before any live push goes out.
package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/thuan734655/DACS3-Server/internal/domain"
	"github.com/thuan734655/DACS3-Server/internal/pkg/id"
	"github.com/thuan734655/DACS3-Server/internal/realtime/room"
)

// Server-to-client event names emitted by this package.
const (
	EventNew     = "notification:new"
	EventUpdated = "notification:updated"
	EventAllRead = "notification:allRead"
	EventDeleted = "notification:deleted"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

type NotificationStore interface {
	Put(ctx context.Context, n *domain.Notification) error
	Get(ctx context.Context, notificationID string) (*domain.Notification, error)
	ListByUser(ctx context.Context, userID string, filter domain.NotificationFilter) ([]domain.Notification, error)
	ListUnread(ctx context.Context, userID string) ([]domain.Notification, error)
	MarkAsRead(ctx context.Context, notificationID string) (*domain.Notification, error)
	Delete(ctx context.Context, notificationID string) error
	DeleteByWorkspace(ctx context.Context, workspaceID string) (int, error)
}

// Dispatcher is the slice of the fan-out engine this package pushes through.
type Dispatcher interface {
	Broadcast(ctx context.Context, event string, kind room.Kind, id string, payload any) (int, error)
}

// Record is the input of a single notify call.
type Record struct {
	Type        domain.NotificationType
	RecipientID string
	TypeID      string
	WorkspaceID *string
	Content     string
	ActorID     string
}

type Service interface {
	// Record persists one notification and then pushes it to the recipient's user room.
	// A failed write is returned wrapped in domain.ErrPersistence and nothing is pushed.
	Record(ctx context.Context, in Record) (*domain.Notification, error)
	List(ctx context.Context, userID string, filter domain.NotificationFilter, page, limit int) (*domain.NotificationPage, error)
	ListUnread(ctx context.Context, userID string) ([]domain.Notification, error)
	Get(ctx context.Context, notificationID, userID string) (*domain.Notification, error)
	MarkAsRead(ctx context.Context, notificationID, userID string) (*domain.Notification, error)
	MarkAllAsRead(ctx context.Context, userID string, workspaceID string) (int, error)
	Delete(ctx context.Context, notificationID, userID string) error
	DeleteByWorkspace(ctx context.Context, workspaceID string) (int, error)
}

type ServiceDeps struct {
	Repo       NotificationStore
	Dispatcher Dispatcher
	Logger     *slog.Logger
}

type service struct {
	repo       NotificationStore
	dispatcher Dispatcher
	log        *slog.Logger
	now        func() time.Time
}

func NewService(deps ServiceDeps) Service {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &service{repo: deps.Repo, dispatcher: deps.Dispatcher, log: log, now: time.Now}
}

func (s *service) Record(ctx context.Context, in Record) (*domain.Notification, error) {
	if !in.Type.Valid() {
		return nil, fmt.Errorf("unknown notification type %q: %w", in.Type, domain.ErrBadRequest)
	}
	if in.RecipientID == "" {
		return nil, fmt.Errorf("recipient is required: %w", domain.ErrBadRequest)
	}
	now := s.now().UTC()
	n := &domain.Notification{
		NotificationID: id.NewAt(now),
		UserID:         in.RecipientID,
		Type:           in.Type,
		TypeID:         in.TypeID,
		WorkspaceID:    in.WorkspaceID,
		Content:        in.Content,
		RelatedID:      in.ActorID,
		IsRead:         false,
		CreatedAt:      now,
	}
	if err := s.repo.Put(ctx, n); err != nil {
		return nil, fmt.Errorf("record %s for %s: %w: %w", n.Type, n.UserID, domain.ErrPersistence, err)
	}
	s.push(ctx, EventNew, n.UserID, n)
	return n, nil
}

func (s *service) List(ctx context.Context, userID string, filter domain.NotificationFilter, page, limit int) (*domain.NotificationPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	all, err := s.repo.ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	start := (page - 1) * limit
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return &domain.NotificationPage{Items: all[start:end], Total: len(all), Page: page, Limit: limit}, nil
}

func (s *service) ListUnread(ctx context.Context, userID string) ([]domain.Notification, error) {
	return s.repo.ListUnread(ctx, userID)
}

func (s *service) Get(ctx context.Context, notificationID, userID string) (*domain.Notification, error) {
	n, err := s.repo.Get(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		return nil, fmt.Errorf("not your notification: %w", domain.ErrForbidden)
	}
	return n, nil
}

func (s *service) MarkAsRead(ctx context.Context, notificationID, userID string) (*domain.Notification, error) {
	n, err := s.Get(ctx, notificationID, userID)
	if err != nil {
		return nil, err
	}
	if n.IsRead {
		return n, nil
	}
	updated, err := s.repo.MarkAsRead(ctx, notificationID)
	if err != nil {
		return nil, fmt.Errorf("mark read: %w: %w", domain.ErrPersistence, err)
	}
	s.push(ctx, EventUpdated, userID, updated)
	return updated, nil
}

func (s *service) MarkAllAsRead(ctx context.Context, userID string, workspaceID string) (int, error) {
	unread, err := s.repo.ListUnread(ctx, userID)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, n := range unread {
		if workspaceID != "" && (n.WorkspaceID == nil || *n.WorkspaceID != workspaceID) {
			continue
		}
		if _, err := s.repo.MarkAsRead(ctx, n.NotificationID); err != nil {
			return count, fmt.Errorf("mark all read: %w: %w", domain.ErrPersistence, err)
		}
		count++
	}
	payload := map[string]any{"workspaceId": nil, "count": count}
	if workspaceID != "" {
		payload["workspaceId"] = workspaceID
	}
	s.push(ctx, EventAllRead, userID, payload)
	return count, nil
}

func (s *service) Delete(ctx context.Context, notificationID, userID string) error {
	if _, err := s.Get(ctx, notificationID, userID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, notificationID); err != nil {
		return fmt.Errorf("delete notification: %w: %w", domain.ErrPersistence, err)
	}
	s.push(ctx, EventDeleted, userID, map[string]string{"notificationId": notificationID})
	return nil
}

func (s *service) DeleteByWorkspace(ctx context.Context, workspaceID string) (int, error) {
	n, err := s.repo.DeleteByWorkspace(ctx, workspaceID)
	if err != nil {
		return n, fmt.Errorf("delete workspace notifications: %w: %w", domain.ErrPersistence, err)
	}
	return n, nil
}

// push is best-effort: no live connection is the common case and the stored record
// remains the recovery path.
func (s *service) push(ctx context.Context, event, userID string, payload any) {
	if _, err := s.dispatcher.Broadcast(ctx, event, room.User, userID, payload); err != nil {
		s.log.Warn("notification push failed", "event", event, "user_id", userID, "err", err)
	}
}
