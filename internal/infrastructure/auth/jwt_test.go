package auth

import (
	"context"
	"testing"
	"time"

	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:          "test-secret-key-with-enough-length",
		TokenExpiration: time.Hour,
		Issuer:          "storefront-test",
	})
}

func newTestUser(t *testing.T) *identity.User {
	t.Helper()
	u, err := identity.NewConfirmedUser("buyer@example.com", "longenoughpassword")
	require.NoError(t, err)
	return u
}

func TestJWTService_GenerateAndValidate(t *testing.T) {
	svc := newTestService()
	user := newTestUser(t)

	token, expiresAt, err := svc.GenerateToken(user)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Second)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.UserID)
	assert.Equal(t, "buyer@example.com", claims.Email)
	assert.Equal(t, identity.RoleCustomer, claims.Role)
	assert.NotEmpty(t, claims.ID, "token must carry a JTI")
}

func TestJWTService_ValidateToken_Errors(t *testing.T) {
	svc := newTestService()
	user := newTestUser(t)

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects token signed with another secret", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{
			Secret:          "a-completely-different-secret-key",
			TokenExpiration: time.Hour,
			Issuer:          "storefront-test",
		})
		token, _, err := other.GenerateToken(user)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects expired token", func(t *testing.T) {
		expired := NewJWTService(config.JWTConfig{
			Secret:          "test-secret-key-with-enough-length",
			TokenExpiration: -time.Minute,
			Issuer:          "storefront-test",
		})
		token, _, err := expired.GenerateToken(user)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("rejects wrong issuer", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{
			Secret:          "test-secret-key-with-enough-length",
			TokenExpiration: time.Hour,
			Issuer:          "someone-else",
		})
		token, _, err := other.GenerateToken(user)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})
}

func TestClaims_RemainingValidity(t *testing.T) {
	svc := newTestService()
	token, _, err := svc.GenerateToken(newTestUser(t))
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)

	remaining := claims.RemainingValidity()
	assert.Greater(t, remaining, 59*time.Minute)
	assert.LessOrEqual(t, remaining, time.Hour)
}

func TestInMemoryTokenBlacklist(t *testing.T) {
	ctx := context.Background()
	bl := NewInMemoryTokenBlacklist()

	blacklisted, err := bl.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, blacklisted)

	require.NoError(t, bl.Add(ctx, "jti-1", time.Minute))
	blacklisted, err = bl.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, blacklisted)

	// Expired entries fall off.
	require.NoError(t, bl.Add(ctx, "jti-2", time.Nanosecond))
	time.Sleep(time.Millisecond)
	blacklisted, err = bl.IsBlacklisted(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, blacklisted)

	// Zero TTL is a no-op.
	require.NoError(t, bl.Add(ctx, "jti-3", 0))
	blacklisted, err = bl.IsBlacklisted(ctx, "jti-3")
	require.NoError(t, err)
	assert.False(t, blacklisted)
}
