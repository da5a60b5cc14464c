package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_LoginAndValidate(t *testing.T) {
	t.Parallel()

	auth := NewAuthService("admin@boulangerie.com", "admin123", "secret", time.Hour)
	token, expiresAt, err := auth.Login(" Admin@Boulangerie.com ", "admin123")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	subject, err := auth.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "admin@boulangerie.com", subject)
}

func TestAuthService_BadCredentials(t *testing.T) {
	t.Parallel()

	auth := NewAuthService("admin@boulangerie.com", "admin123", "secret", 0)
	_, _, err := auth.Login("admin@boulangerie.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = auth.Login("someone@else.com", "admin123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_RejectsForeignAndExpiredTokens(t *testing.T) {
	t.Parallel()

	auth := NewAuthService("admin@boulangerie.com", "admin123", "secret", time.Hour)
	other := NewAuthService("admin@boulangerie.com", "admin123", "other-secret", time.Hour)

	foreign, _, err := other.Login("admin@boulangerie.com", "admin123")
	require.NoError(t, err)
	_, err = auth.Validate(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	token, _, err := auth.Login("admin@boulangerie.com", "admin123")
	require.NoError(t, err)
	auth.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = auth.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = auth.Validate("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_RejectsNonAdminRole(t *testing.T) {
	t.Parallel()

	auth := NewAuthService("admin@boulangerie.com", "admin123", "secret", time.Hour)
	claims := adminClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin@boulangerie.com",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: "customer",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = auth.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
