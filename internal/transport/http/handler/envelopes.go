package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/thuan734655/DACS3-Server/internal/domain"
	"github.com/thuan734655/DACS3-Server/internal/pkg/validate"
	"github.com/thuan734655/DACS3-Server/internal/transport/http/middleware"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}

// DeliveryEnvelope reports how many live connections a push reached on this node.
type DeliveryEnvelope struct {
	Delivered int `json:"delivered"`
}

// CountEnvelope wraps bulk mutation results.
type CountEnvelope struct {
	Count int `json:"count"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps domain sentinel errors to status codes. Authorization denials keep
// their reason; anything unrecognised is logged and reported as a 500.
func httpError(w http.ResponseWriter, err error) {
	var authErr *domain.AuthorizationError
	switch {
	case errors.As(err, &authErr):
		writeJSON(w, http.StatusForbidden, MessageEnvelope{Error: authErr.Reason, ErrorCode: http.StatusForbidden})
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		slog.Error("handler: unexpected error", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON reads and validates a request body into dst, answering 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// caller returns the authenticated identity or answers 401.
func caller(w http.ResponseWriter, r *http.Request) (domain.Identity, bool) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
	}
	return identity, ok
}
