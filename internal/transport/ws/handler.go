// Package ws upgrades HTTP requests to websocket connections and pumps frames between
// the socket and a lifecycle session.
package ws

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/thuan734655/DACS3-Server/internal/config"
	"github.com/thuan734655/DACS3-Server/internal/domain"
	"github.com/thuan734655/DACS3-Server/internal/realtime/fanout"
	"github.com/thuan734655/DACS3-Server/internal/realtime/lifecycle"
)

type Handler struct {
	manager  *lifecycle.Manager
	cfg      config.WebSocket
	origins  []string
	upgrader websocket.Upgrader
	log      *slog.Logger
}

func NewHandler(manager *lifecycle.Manager, cfg *config.Config, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	h := &Handler{
		manager: manager,
		cfg:     cfg.WS,
		origins: cfg.AllowedOrigins,
		log:     log,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// ServeHTTP authenticates before upgrading, so a bad token is answered with a plain 401
// and no connection is ever registered.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	session, err := h.manager.Authenticate(r.Context(), token(r))
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		h.log.Error("ws: handshake failed", "err", err)
		writeError(w, http.StatusServiceUnavailable, "authentication unavailable")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		session.Close()
		h.log.Warn("ws: upgrade failed", "err", err)
		return
	}

	outbox := fanout.NewOutbox(h.cfg.OutboxSize)
	if err := session.Activate(outbox); err != nil {
		h.log.Error("ws: activate", "conn_id", session.ID(), "err", err)
		session.Close()
		_ = conn.Close()
		return
	}

	c := newClient(conn, session, outbox, h.cfg, h.log)
	go c.writePump()
	go c.readPump()
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range h.origins {
		o = strings.TrimSpace(o)
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

// token reads the bearer token from the Authorization header, then the token query
// parameter for browser clients that cannot set headers on a websocket request.
func token(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

// handshakeError matches the HTTP API's error body.
type handshakeError struct {
	Error     string `json:"error"`
	ErrorCode int    `json:"error_code"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(handshakeError{Error: msg, ErrorCode: status})
}
