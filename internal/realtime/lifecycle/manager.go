// Package lifecycle drives one connection from handshake to disconnect: it verifies the
// token, registers the connection, serves join/leave and ephemeral events, and tears
// the registry entry down exactly once.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/thuan734655/DACS3-Server/internal/application/notification"
	"github.com/thuan734655/DACS3-Server/internal/domain"
	"github.com/thuan734655/DACS3-Server/internal/pkg/id"
	"github.com/thuan734655/DACS3-Server/internal/realtime/registry"
	"github.com/thuan734655/DACS3-Server/internal/realtime/room"
)

type Authenticator interface {
	Verify(ctx context.Context, token string) (domain.Identity, error)
}

// Authority is consulted live on every join.
type Authority interface {
	IsMember(ctx context.Context, kind room.Kind, groupID, userID string) (bool, error)
	Channel(ctx context.Context, channelID string) (*domain.Channel, error)
	GrantChannel(ctx context.Context, ch *domain.Channel, userID string) (bool, error)
}

type Recorder interface {
	Record(ctx context.Context, in notification.Record) (*domain.Notification, error)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, event string, rooms []string, payload any) (int, error)
	DispatchExcept(ctx context.Context, event string, rooms []string, except string, payload any) (int, error)
}

type Deps struct {
	Registry   *registry.Registry
	Auth       Authenticator
	Authority  Authority
	Recorder   Recorder
	Dispatcher Dispatcher
	Logger     *slog.Logger
}

type Manager struct {
	reg       *registry.Registry
	auth      Authenticator
	authority Authority
	recorder  Recorder
	fan       Dispatcher
	log       *slog.Logger
	newID     func() string
}

func NewManager(deps Deps) *Manager {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		reg:       deps.Registry,
		auth:      deps.Auth,
		authority: deps.Authority,
		recorder:  deps.Recorder,
		fan:       deps.Dispatcher,
		log:       log,
		newID:     id.New,
	}
}

// Authenticate verifies token and returns a session in the Authenticated state. On
// failure nothing is registered and the caller must refuse the connection.
func (m *Manager) Authenticate(ctx context.Context, token string) (*Session, error) {
	s := &Session{m: m, connID: m.newID(), state: Connecting}
	identity, err := m.auth.Verify(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	s.identity = identity
	if err := s.transition(Authenticated); err != nil {
		return nil, err
	}
	return s, nil
}

// Connections returns the number of live registered connections on this node.
func (m *Manager) Connections() int { return m.reg.Len() }
