package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/thuan734655/DACS3-Server/internal/config"
	"github.com/thuan734655/DACS3-Server/internal/transport/http/handler"
	appmiddleware "github.com/thuan734655/DACS3-Server/internal/transport/http/middleware"
	"github.com/thuan734655/DACS3-Server/internal/transport/ws"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	svc := buildServices(deps)
	authMw := appmiddleware.Auth(svc.auth)

	// Upgrades are expensive (token check + user lookup); 5/s per IP, burst 10.
	upgradeRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10, appmiddleware.ByIP)
	// The CRUD layer calls the event API once per committed change; 50/s per caller.
	eventsRL := appmiddleware.NewRateLimiter(rate.Limit(50), 100, appmiddleware.ByUser)

	healthH := handler.NewHealthHandler(svc.lifecycle)
	notifH := handler.NewNotificationHandler(svc.notifications)
	eventH := handler.NewEventHandler(svc.notifications, deps.Engine, svc.membership)
	workspaceH := handler.NewWorkspaceHandler(svc.membership, svc.activity)
	wsH := ws.NewHandler(svc.lifecycle, cfg, deps.Logger)

	r.With(upgradeRL.Limit).Get("/ws", wsH.ServeHTTP)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/notifications", notifH.List)
			r.Get("/notifications/unread", notifH.ListUnread)
			r.Put("/notifications/read-all", notifH.MarkAllAsRead)
			r.Get("/notifications/{id}", notifH.Get)
			r.Put("/notifications/{id}/read", notifH.MarkAsRead)
			r.Delete("/notifications/{id}", notifH.Delete)

			r.Group(func(r chi.Router) {
				r.Use(eventsRL.Limit)

				r.Post("/events/notify", eventH.Notify)
				r.Post("/events/broadcast", eventH.Broadcast)
			})

			// Workspace members only
			r.Route("/workspaces/{id}", func(r chi.Router) {
				r.Use(appmiddleware.RequireWorkspaceMember(svc.membership, "id"))

				r.Get("/role", handler.MyRole)
				r.Post("/authorize", workspaceH.Authorize)
				r.With(eventsRL.Limit).Post("/activity", workspaceH.Activity)
				r.Post("/members", workspaceH.AddMember)
				r.Delete("/members/{userId}", workspaceH.RemoveMember)
				r.Delete("/", workspaceH.Delete)
			})
		})
	})

	return r
}
