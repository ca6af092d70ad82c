// Package auth supplies bearer credentials for the handshake and wraps the
// backend's REST login/logout endpoints.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUnauthenticated is returned when no active identity can produce a
// credential. It is a distinct error class from transport failure: the
// connection manager surfaces it to the caller instead of entering the
// reconnect loop.
var ErrUnauthenticated = errors.New("user not authenticated")

// CredentialSupplier produces a current Authorization header value on
// demand.
type CredentialSupplier interface {
	// AuthHeader returns "Bearer <credential>" or ErrUnauthenticated.
	AuthHeader(ctx context.Context) (string, error)
}

// TokenSource returns a raw bearer token for the active identity. The
// identity provider (Firebase in the hosted deployment) is external; this
// is its only contract.
type TokenSource func(ctx context.Context) (string, error)

// BearerSupplier adapts a TokenSource into a CredentialSupplier. Tokens are
// JWTs issued by the identity provider; BearerSupplier inspects the expiry
// claim (without verifying the signature, which only the backend can do)
// and refuses to hand out a token that is already dead.
type BearerSupplier struct {
	source TokenSource
	parser *jwt.Parser
}

func NewBearerSupplier(source TokenSource) *BearerSupplier {
	return &BearerSupplier{
		source: source,
		parser: jwt.NewParser(jwt.WithoutClaimsValidation()),
	}
}

func (s *BearerSupplier) AuthHeader(ctx context.Context) (string, error) {
	if s.source == nil {
		return "", ErrUnauthenticated
	}
	token, err := s.source(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if token == "" {
		return "", ErrUnauthenticated
	}
	if expired(s.parser, token) {
		return "", fmt.Errorf("%w: credential expired", ErrUnauthenticated)
	}
	return "Bearer " + token, nil
}

func expired(parser *jwt.Parser, token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		// Opaque (non-JWT) credentials pass through untouched; the
		// backend is the authority either way.
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}

// StaticSupplier serves a fixed header value. Used in tests and for
// long-lived API tokens.
type StaticSupplier string

func (s StaticSupplier) AuthHeader(ctx context.Context) (string, error) {
	if s == "" {
		return "", ErrUnauthenticated
	}
	return string(s), nil
}
