package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuerRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	token, err := issuer.Issue(&User{ID: "user-1", Role: RoleAgent})
	require.NoError(t, err)

	actor, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, Actor{ID: "user-1", Role: RoleAgent}, actor)
	assert.False(t, actor.IsAdmin())
}

func TestTokenIssuerRejectsWrongSecret(t *testing.T) {
	token, err := NewTokenIssuer("secret", time.Hour).Issue(&User{ID: "user-1", Role: RoleAdmin})
	require.NoError(t, err)

	_, err = NewTokenIssuer("other", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuerRejectsExpired(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Minute)
	issued := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	issuer.now = func() time.Time { return issued }
	token, err := issuer.Issue(&User{ID: "user-1", Role: RoleAgent})
	require.NoError(t, err)

	issuer.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuerRejectsUnknownRole(t *testing.T) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: "superuser",
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewTokenIssuer("secret", time.Hour).Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuerWithoutSecret(t *testing.T) {
	issuer := NewTokenIssuer("", 0)
	_, err := issuer.Issue(&User{ID: "user-1", Role: RoleAgent})
	assert.Error(t, err)
	_, err = issuer.Verify("anything")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
