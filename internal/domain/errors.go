package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
	// ErrPersistence marks a failed durable write. It must reach the caller: a lost
	// notification record breaks pull-based recovery.
	ErrPersistence = errors.New("persistence failure")
)

// AuthorizationError is a role or membership denial with a reason that is safe to show
// to the requesting user. It unwraps to ErrForbidden.
type AuthorizationError struct {
	Action string
	Reason string
}

func (e *AuthorizationError) Error() string { return e.Reason }

func (e *AuthorizationError) Unwrap() error { return ErrForbidden }

// Deny builds an AuthorizationError for action.
func Deny(action, reason string) error {
	return &AuthorizationError{Action: action, Reason: reason}
}
