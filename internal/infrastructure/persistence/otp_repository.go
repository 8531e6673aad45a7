package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormOTPRepository implements identity.OTPRepository using GORM
type GormOTPRepository struct {
	db *gorm.DB
}

// NewGormOTPRepository creates a new GormOTPRepository
func NewGormOTPRepository(db *gorm.DB) *GormOTPRepository {
	return &GormOTPRepository{db: db}
}

// Save persists a new OTP record
func (r *GormOTPRepository) Save(ctx context.Context, otp *identity.EmailOTP) error {
	return r.db.WithContext(ctx).Save(otp).Error
}

// FindLatest returns the most recently created record for the email/code pair
func (r *GormOTPRepository) FindLatest(ctx context.Context, email, code string) (*identity.EmailOTP, error) {
	var otp identity.EmailOTP
	if err := r.db.WithContext(ctx).
		Where("email = ? AND code = ?", email, code).
		Order("created_at DESC").
		First(&otp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &otp, nil
}

// Consume marks the record used via a single conditional update. The
// used = false predicate makes consumption exactly-once: of two concurrent
// callers only one sees an affected row.
func (r *GormOTPRepository) Consume(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&identity.EmailOTP{}).
		Where("id = ? AND used = ?", id, false).
		Update("used", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Ensure GormOTPRepository implements OTPRepository
var _ identity.OTPRepository = (*GormOTPRepository)(nil)
