package identity

import (
	"errors"
	"testing"
	"time"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmailOTP(t *testing.T) {
	otp, err := NewEmailOTP("Buyer@Example.com")
	require.NoError(t, err)

	assert.Equal(t, "buyer@example.com", otp.Email)
	assert.Len(t, otp.Code, 6)
	for _, c := range otp.Code {
		assert.True(t, c >= '0' && c <= '9', "code must be numeric, got %q", otp.Code)
	}
	assert.False(t, otp.Used)
	assert.WithinDuration(t, time.Now().Add(OTPValidity), otp.ExpiresAt, time.Second)
}

func TestEmailOTP_Validate(t *testing.T) {
	t.Run("fresh code passes", func(t *testing.T) {
		otp, err := NewEmailOTP("buyer@example.com")
		require.NoError(t, err)
		assert.NoError(t, otp.Validate())
	})

	t.Run("used code is rejected", func(t *testing.T) {
		otp, err := NewEmailOTP("buyer@example.com")
		require.NoError(t, err)
		otp.Used = true
		assert.True(t, errors.Is(otp.Validate(), shared.ErrCodeUsed))
	})

	t.Run("expired code is rejected", func(t *testing.T) {
		otp, err := NewEmailOTP("buyer@example.com")
		require.NoError(t, err)
		otp.ExpiresAt = time.Now().Add(-time.Minute)
		assert.True(t, errors.Is(otp.Validate(), shared.ErrCodeExpired))
	})

	t.Run("used wins over expired", func(t *testing.T) {
		otp, err := NewEmailOTP("buyer@example.com")
		require.NoError(t, err)
		otp.Used = true
		otp.ExpiresAt = time.Now().Add(-time.Minute)
		assert.True(t, errors.Is(otp.Validate(), shared.ErrCodeUsed))
	})
}
