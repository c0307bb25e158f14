// Package auth turns bearer tokens into identities for both the HTTP API and the
// websocket handshake.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/thuan734655/DACS3-Server/internal/domain"
	jwtinfra "github.com/thuan734655/DACS3-Server/internal/infrastructure/jwt"
)

type TokenVerifier interface {
	Verify(token string) (*jwtinfra.Claims, error)
}

type UserStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type Service interface {
	// Verify checks the token signature and expiry, then confirms the user still exists.
	// Every failure is reported as domain.ErrUnauthorized.
	Verify(ctx context.Context, token string) (domain.Identity, error)
}

type ServiceDeps struct {
	Tokens TokenVerifier
	Users  UserStore
}

type service struct {
	tokens TokenVerifier
	users  UserStore
}

func NewService(deps ServiceDeps) Service {
	return &service{tokens: deps.Tokens, users: deps.Users}
}

func (s *service) Verify(ctx context.Context, token string) (domain.Identity, error) {
	if token == "" {
		return domain.Identity{}, fmt.Errorf("missing token: %w", domain.ErrUnauthorized)
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("invalid or expired token: %w", domain.ErrUnauthorized)
	}
	u, err := s.users.Get(ctx, claims.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Identity{}, fmt.Errorf("unknown user: %w", domain.ErrUnauthorized)
	}
	if err != nil {
		slog.Error("auth: user lookup failed", "user_id", claims.UserID, "err", err)
		return domain.Identity{}, fmt.Errorf("user lookup: %w", err)
	}
	name := u.Name
	if name == "" {
		name = claims.Name
	}
	return domain.Identity{UserID: u.UserID, DisplayName: name}, nil
}
