package auth

import (
	"strings"
	"testing"
	"time"

	"torres_backend/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("StrongPass1")
	require.NoError(t, err)

	assert.NotEqual(t, "StrongPass1", hash)
	assert.True(t, strings.HasPrefix(hash, "$2a$"))
	assert.True(t, CheckPasswordHash("StrongPass1", hash))
	assert.False(t, CheckPasswordHash("WrongPass1", hash))

	_, err = HashPassword(strings.Repeat("a", 73))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	cfg := config.Default()
	issuer, err := NewTokenIssuer(cfg)
	require.NoError(t, err)

	token, expiresAt, err := issuer.Issue("user-1", "admin@example.com", true)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), expiresAt, 5*time.Second)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "admin@example.com", claims.Subject)
	assert.True(t, claims.IsAdmin)
}

func TestTokenIssuer_Expired(t *testing.T) {
	issuer, err := NewTokenIssuer(config.Default())
	require.NoError(t, err)

	issuer.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, _, err := issuer.Issue("user-1", "a@example.com", false)
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestTokenIssuer_WrongSecret(t *testing.T) {
	issuer, err := NewTokenIssuer(config.Default())
	require.NoError(t, err)
	token, _, err := issuer.Issue("user-1", "a@example.com", false)
	require.NoError(t, err)

	other := config.Default()
	other.Security.SecretKey = "another-secret"
	otherIssuer, err := NewTokenIssuer(other)
	require.NoError(t, err)

	_, err = otherIssuer.Parse(token)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestNewTokenIssuer_RejectsAsymmetricAlgorithm(t *testing.T) {
	cfg := config.Default()
	cfg.Security.Algorithm = "RS256"
	_, err := NewTokenIssuer(cfg)
	assert.Error(t, err)

	cfg.Security.Algorithm = "nope"
	_, err = NewTokenIssuer(cfg)
	assert.Error(t, err)
}
