package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/financeflow/backend/src/config"
)

func newTestAuthService() *AuthService {
	config.Cfg = &config.AppConfig{
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 7 * 24 * time.Hour,
	}
	return NewAuthService("test-secret-key-that-is-long-enough-123")
}

func TestTokenRoundTrip(t *testing.T) {
	auth := newTestAuthService()

	token, err := auth.GenerateToken("42")
	require.NoError(t, err)

	subject, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "42", subject)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	auth := newTestAuthService()
	token, err := auth.GenerateToken("42")
	require.NoError(t, err)

	other := NewAuthService("a-completely-different-secret-key-456")
	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	auth := newTestAuthService()
	_, err := auth.ValidateToken("not-a-jwt")
	assert.Error(t, err)
}

func TestRefreshTokensAreUnique(t *testing.T) {
	auth := newTestAuthService()

	first, err := auth.GenerateRefreshToken()
	require.NoError(t, err)
	second, err := auth.GenerateRefreshToken()
	require.NoError(t, err)

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}
