package identity

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/storefront/backend/internal/domain/shared"
)

// OTPValidity is how long a verification code stays valid
const OTPValidity = 10 * time.Minute

// EmailOTP is a single-use email verification code. A code may be consumed
// by at most one flow (verify-existing-user or create-account); consumption
// happens through a conditional update in the repository, never a
// read-then-write.
type EmailOTP struct {
	shared.BaseEntity
	Email     string    `gorm:"type:varchar(255);not null;index"`
	Code      string    `gorm:"type:varchar(6);not null"`
	ExpiresAt time.Time `gorm:"not null"`
	Used      bool      `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (EmailOTP) TableName() string {
	return "email_otps"
}

// NewEmailOTP creates a fresh OTP for the given email with a random 6-digit
// code and the standard validity window
func NewEmailOTP(email string) (*EmailOTP, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}

	code, err := generateCode()
	if err != nil {
		return nil, shared.NewDomainError("OTP_GENERATION_ERROR", "Failed to generate verification code")
	}

	return &EmailOTP{
		BaseEntity: shared.NewBaseEntity(),
		Email:      email,
		Code:       code,
		ExpiresAt:  time.Now().Add(OTPValidity),
		Used:       false,
	}, nil
}

// IsExpired reports whether the code is past its expiry
func (o *EmailOTP) IsExpired() bool {
	return time.Now().After(o.ExpiresAt)
}

// Validate checks whether the code can still be redeemed. Used codes are
// rejected before expired ones so a consumed code always reads as used.
func (o *EmailOTP) Validate() error {
	if o.Used {
		return shared.ErrCodeUsed
	}
	if o.IsExpired() {
		return shared.ErrCodeExpired
	}
	return nil
}

// generateCode returns a random zero-padded 6-digit numeric code
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
