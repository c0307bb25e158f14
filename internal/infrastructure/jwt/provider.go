package jwtinfra

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/thuan734655/DACS3-Server/internal/config"
)

// ErrInvalidClaims is returned for a well-signed token that does not name a user.
var ErrInvalidClaims = errors.New("invalid token claims")

// Clock skew tolerated between the issuing service and this node.
const leeway = 30 * time.Second

// Claims carries the caller identity. Tokens minted elsewhere may set only sub.
type Claims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Provider signs and verifies RS256 access tokens.
type Provider struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	expiry     time.Duration
	issuer     string
	parser     *jwt.Parser
}

func NewProvider(cfg *config.Config) (*Provider, error) {
	privKey, err := loadKey(cfg.JWTPrivateKeyPath, "private", jwt.ParseRSAPrivateKeyFromPEM)
	if err != nil {
		return nil, err
	}
	pubKey, err := loadKey(cfg.JWTPublicKeyPath, "public", jwt.ParseRSAPublicKeyFromPEM)
	if err != nil {
		return nil, err
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(leeway),
	}
	if cfg.JWTIssuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.JWTIssuer))
	}
	return &Provider{
		privateKey: privKey,
		publicKey:  pubKey,
		expiry:     cfg.JWTExpiry,
		issuer:     cfg.JWTIssuer,
		parser:     jwt.NewParser(opts...),
	}, nil
}

func loadKey[K any](path, kind string, parse func([]byte) (K, error)) (K, error) {
	var zero K
	raw, err := os.ReadFile(path)
	if err != nil {
		return zero, fmt.Errorf("read %s key: %w", kind, err)
	}
	key, err := parse(raw)
	if err != nil {
		return zero, fmt.Errorf("parse %s key: %w", kind, err)
	}
	return key, nil
}

// Sign issues a token for userID. Used by cmd/devtoken and tests; production tokens come
// from the CRUD service holding the same key pair.
func (p *Provider) Sign(userID, name string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Name:   name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    p.issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(p.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(p.privateKey)
}

func (p *Provider) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	_, err := p.parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return p.publicKey, nil
	})
	if err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	if claims.UserID == "" {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}
