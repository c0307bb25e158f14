package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ConnectionCounter reports how many websocket connections this node holds.
type ConnectionCounter interface {
	Connections() int
}

// HealthHandler handles health-check endpoints.
type HealthHandler struct {
	conns ConnectionCounter
}

func NewHealthHandler(conns ConnectionCounter) *HealthHandler { return &HealthHandler{conns: conns} }

func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	switch chi.URLParam(r, "action") {
	case "ping":
		writeJSON(w, http.StatusOK, MessageEnvelope{Message: "pong"})
	case "connections":
		writeJSON(w, http.StatusOK, map[string]int{"connections": h.conns.Connections()})
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
	}
}
