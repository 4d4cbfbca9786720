package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecretKey = "test-secret-key-at-least-32-characters"

func newTestTokenService(t *testing.T, accessTTL, refreshTTL time.Duration) TokenService {
	t.Helper()

	svc, err := NewTokenService(accessTTL, refreshTTL, "test-issuer", "test-audience", false, "", "", testSecretKey, NewMemoryRevocationStore())
	require.NoError(t, err)
	return svc
}

func TestGenerateAndValidateTokens(t *testing.T) {
	svc := newTestTokenService(t, 1*time.Hour, 24*time.Hour)

	accessToken, refreshToken, err := svc.GenerateTokens(42, "caspian.cafe", "owner@example.com", []string{"Business"})
	require.NoError(t, err)
	require.NotEmpty(t, accessToken)
	require.NotEmpty(t, refreshToken)
	assert.NotEqual(t, accessToken, refreshToken)

	claims, err := svc.ValidateToken(context.Background(), accessToken)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.AccountID)
	assert.Equal(t, "caspian.cafe", claims.Username)
	assert.Equal(t, "owner@example.com", claims.Email)
	assert.Equal(t, []string{"Business"}, claims.Roles)
	assert.Equal(t, "access", claims.TokenType)
	assert.NotEmpty(t, claims.TokenID)
	assert.True(t, claims.ExpiresAt.After(time.Now()))
	assert.True(t, claims.HasRole("Business"))
	assert.False(t, claims.HasRole("Admin"))

	refreshClaims, err := svc.ValidateToken(context.Background(), refreshToken)
	require.NoError(t, err)
	assert.Equal(t, "refresh", refreshClaims.TokenType)
	assert.NotEqual(t, claims.TokenID, refreshClaims.TokenID)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := newTestTokenService(t, 1*time.Hour, 24*time.Hour)

	_, err := svc.ValidateToken(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	svc := newTestTokenService(t, -1*time.Minute, 24*time.Hour)

	accessToken, _, err := svc.GenerateTokens(1, "someone", "someone@example.com", []string{"RegularUser"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(context.Background(), accessToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidateTokenRejectsWrongKey(t *testing.T) {
	svc := newTestTokenService(t, 1*time.Hour, 24*time.Hour)

	other, err := NewTokenService(1*time.Hour, 24*time.Hour, "test-issuer", "test-audience", false, "", "", "another-secret-key-with-32-characters", nil)
	require.NoError(t, err)

	accessToken, _, err := svc.GenerateTokens(1, "someone", "someone@example.com", []string{"RegularUser"})
	require.NoError(t, err)

	_, err = other.ValidateToken(context.Background(), accessToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestRevokeToken(t *testing.T) {
	svc := newTestTokenService(t, 1*time.Hour, 24*time.Hour)

	accessToken, _, err := svc.GenerateTokens(7, "someone", "someone@example.com", []string{"RegularUser"})
	require.NoError(t, err)

	// Valid before revocation
	_, err = svc.ValidateToken(context.Background(), accessToken)
	require.NoError(t, err)

	require.NoError(t, svc.RevokeToken(context.Background(), accessToken))

	_, err = svc.ValidateToken(context.Background(), accessToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	// Revoking an already revoked token is a no-op
	assert.NoError(t, svc.RevokeToken(context.Background(), accessToken))
}

func TestRefreshTokenRotation(t *testing.T) {
	svc := newTestTokenService(t, 1*time.Hour, 24*time.Hour)

	_, refreshToken, err := svc.GenerateTokens(7, "someone", "someone@example.com", []string{"RegularUser"})
	require.NoError(t, err)

	newAccess, newRefresh, err := svc.RefreshToken(context.Background(), refreshToken, "someone", "someone@example.com", []string{"RegularUser"})
	require.NoError(t, err)
	require.NotEmpty(t, newAccess)
	require.NotEmpty(t, newRefresh)

	// New tokens carry the original account identity
	claims, err := svc.ValidateToken(context.Background(), newAccess)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.AccountID)
	assert.Equal(t, "access", claims.TokenType)

	// The exchanged refresh token is dead
	_, _, err = svc.RefreshToken(context.Background(), refreshToken, "someone", "someone@example.com", []string{"RegularUser"})
	assert.Error(t, err)
}

func TestRefreshTokenRejectsAccessToken(t *testing.T) {
	svc := newTestTokenService(t, 1*time.Hour, 24*time.Hour)

	accessToken, _, err := svc.GenerateTokens(7, "someone", "someone@example.com", []string{"RegularUser"})
	require.NoError(t, err)

	_, _, err = svc.RefreshToken(context.Background(), accessToken, "someone", "someone@example.com", []string{"RegularUser"})
	assert.Error(t, err)
}

func TestMemoryRevocationStore(t *testing.T) {
	store := NewMemoryRevocationStore()

	revoked, err := store.IsRevoked(context.Background(), "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(context.Background(), "jti-1", 1*time.Hour))

	revoked, err = store.IsRevoked(context.Background(), "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	// Non-positive TTL means the token already expired on its own
	require.NoError(t, store.Revoke(context.Background(), "jti-2", 0))
	revoked, err = store.IsRevoked(context.Background(), "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}
