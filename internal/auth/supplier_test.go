package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": "user-1"}
	if !expiresAt.IsZero() {
		claims["exp"] = expiresAt.Unix()
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestBearerSupplier(t *testing.T) {
	t.Run("valid token gets the bearer prefix", func(t *testing.T) {
		tok := signedToken(t, time.Now().Add(time.Hour))
		s := NewBearerSupplier(func(context.Context) (string, error) { return tok, nil })

		header, err := s.AuthHeader(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Bearer "+tok, header)
	})

	t.Run("expired token is rejected locally", func(t *testing.T) {
		tok := signedToken(t, time.Now().Add(-time.Minute))
		s := NewBearerSupplier(func(context.Context) (string, error) { return tok, nil })

		_, err := s.AuthHeader(context.Background())
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("token without exp claim passes", func(t *testing.T) {
		tok := signedToken(t, time.Time{})
		s := NewBearerSupplier(func(context.Context) (string, error) { return tok, nil })

		_, err := s.AuthHeader(context.Background())
		assert.NoError(t, err)
	})

	t.Run("opaque credential passes through", func(t *testing.T) {
		s := NewBearerSupplier(func(context.Context) (string, error) { return "opaque-api-key", nil })

		header, err := s.AuthHeader(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Bearer opaque-api-key", header)
	})

	t.Run("empty credential is unauthenticated", func(t *testing.T) {
		s := NewBearerSupplier(func(context.Context) (string, error) { return "", nil })

		_, err := s.AuthHeader(context.Background())
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("source failure is unauthenticated", func(t *testing.T) {
		s := NewBearerSupplier(func(context.Context) (string, error) { return "", errors.New("provider down") })

		_, err := s.AuthHeader(context.Background())
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("nil source is unauthenticated", func(t *testing.T) {
		s := NewBearerSupplier(nil)

		_, err := s.AuthHeader(context.Background())
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})
}

func TestStaticSupplier(t *testing.T) {
	header, err := StaticSupplier("Bearer fixed").AuthHeader(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer fixed", header)

	_, err = StaticSupplier("").AuthHeader(context.Background())
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
