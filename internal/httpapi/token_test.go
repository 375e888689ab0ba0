package httpapi

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkSigner(t *testing.T) {
	s := NewLinkSigner("secret", time.Hour)
	now := time.Date(2026, 1, 12, 10, 0, 0, 0, time.UTC)

	token, err := s.Issue(now)
	require.NoError(t, err)

	assert.NoError(t, s.Verify(token, now.Add(30*time.Minute)))
	assert.ErrorIs(t, s.Verify(token, now.Add(2*time.Hour)), ErrInvalidToken)
	assert.ErrorIs(t, NewLinkSigner("other", time.Hour).Verify(token, now), ErrInvalidToken)

	other, err := s.Issue(now)
	require.NoError(t, err)
	assert.NotEqual(t, token, other, "each link has its own id")
}

func TestLinkSigner_RejectsOtherSubject(t *testing.T) {
	now := time.Date(2026, 1, 12, 10, 0, 0, 0, time.UTC)
	claims := jwt.RegisteredClaims{
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	assert.ErrorIs(t, NewLinkSigner("secret", time.Hour).Verify(token, now), ErrInvalidToken)
}

func TestLinkSigner_DefaultTTL(t *testing.T) {
	s := NewLinkSigner("secret", 0)
	now := time.Date(2026, 1, 12, 10, 0, 0, 0, time.UTC)
	token, err := s.Issue(now)
	require.NoError(t, err)
	assert.NoError(t, s.Verify(token, now.Add(DefaultLinkTTL-time.Minute)))
}
