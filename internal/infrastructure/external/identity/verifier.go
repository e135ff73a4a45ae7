// Package identity implements the boundary contract with the identity
// provider: a bearer credential comes in, a verified identity projection
// comes out. Tokens are JWTs signed with the provider's key; role claims, if
// present, are ignored — roles belong to the user directory.
package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/sbkim/settlement-flow/internal/application/port"
)

// Config holds identity verification configuration
type Config struct {
	SigningKey string
	Issuer     string
}

// Verifier validates provider-issued JWTs.
type Verifier struct {
	key    []byte
	issuer string
	logger *zap.Logger
}

// NewVerifier creates a new token verifier
func NewVerifier(cfg Config, logger *zap.Logger) *Verifier {
	return &Verifier{
		key:    []byte(cfg.SigningKey),
		issuer: cfg.Issuer,
		logger: logger,
	}
}

type providerClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// Verify parses and validates the token and returns the identity it asserts.
func (v *Verifier) Verify(_ context.Context, token string) (*port.Identity, error) {
	claims := &providerClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.key, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if v.issuer != "" && claims.Issuer != v.issuer {
		return nil, fmt.Errorf("unexpected issuer %q", claims.Issuer)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}

	name := claims.Name
	if name == "" {
		// Same fallback the provider applies: the mailbox part of the email.
		if at := strings.Index(claims.Email, "@"); at > 0 {
			name = claims.Email[:at]
		} else {
			name = claims.Subject
		}
	}

	return &port.Identity{
		ID:    claims.Subject,
		Email: claims.Email,
		Name:  name,
	}, nil
}

var _ port.TokenVerifier = (*Verifier)(nil)
