package http

import (
	"log/slog"

	"github.com/thuan734655/DACS3-Server/internal/application/activity"
	"github.com/thuan734655/DACS3-Server/internal/application/auth"
	"github.com/thuan734655/DACS3-Server/internal/application/membership"
	"github.com/thuan734655/DACS3-Server/internal/application/notification"
	"github.com/thuan734655/DACS3-Server/internal/infrastructure/dynamo"
	jwtinfra "github.com/thuan734655/DACS3-Server/internal/infrastructure/jwt"
	"github.com/thuan734655/DACS3-Server/internal/realtime/fanout"
	"github.com/thuan734655/DACS3-Server/internal/realtime/lifecycle"
	"github.com/thuan734655/DACS3-Server/internal/realtime/registry"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo         *dynamo.UserRepo
	WorkspaceRepo    *dynamo.WorkspaceRepo
	ChannelRepo      *dynamo.ChannelRepo
	MessageRepo      *dynamo.MessageRepo
	MembershipRepo   *dynamo.MembershipRepo
	NotificationRepo *dynamo.NotificationRepo
	JWTProvider      *jwtinfra.Provider
	Registry         *registry.Registry
	Engine           *fanout.Engine
	Logger           *slog.Logger
}

// services is the application layer assembled from Deps.
type services struct {
	auth          auth.Service
	membership    membership.Service
	notifications notification.Service
	activity      activity.Service
	lifecycle     *lifecycle.Manager
}

func buildServices(deps *Deps) *services {
	authSvc := auth.NewService(auth.ServiceDeps{Tokens: deps.JWTProvider, Users: deps.UserRepo})
	memberSvc := membership.NewService(membership.ServiceDeps{
		Memberships: deps.MembershipRepo,
		Workspaces:  deps.WorkspaceRepo,
		Channels:    deps.ChannelRepo,
		Messages:    deps.MessageRepo,
	})
	notifSvc := notification.NewService(notification.ServiceDeps{
		Repo:       deps.NotificationRepo,
		Dispatcher: deps.Engine,
		Logger:     deps.Logger,
	})
	return &services{
		auth:          authSvc,
		membership:    memberSvc,
		notifications: notifSvc,
		activity: activity.NewService(activity.ServiceDeps{
			Authority:  memberSvc,
			Recorder:   notifSvc,
			Dispatcher: deps.Engine,
			Evictor:    deps.Registry,
		}),
		lifecycle: lifecycle.NewManager(lifecycle.Deps{
			Registry:   deps.Registry,
			Auth:       authSvc,
			Authority:  memberSvc,
			Recorder:   notifSvc,
			Dispatcher: deps.Engine,
			Logger:     deps.Logger,
		}),
	}
}
