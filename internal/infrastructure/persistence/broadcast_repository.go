package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/broadcast"
	"github.com/storefront/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormBroadcastRepository implements broadcast.Repository using GORM
type GormBroadcastRepository struct {
	db *gorm.DB
}

// NewGormBroadcastRepository creates a new GormBroadcastRepository
func NewGormBroadcastRepository(db *gorm.DB) *GormBroadcastRepository {
	return &GormBroadcastRepository{db: db}
}

// FindByID finds a broadcast by ID
func (r *GormBroadcastRepository) FindByID(ctx context.Context, id uuid.UUID) (*broadcast.Broadcast, error) {
	var b broadcast.Broadcast
	if err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// FindActive returns all active broadcasts, newest first
func (r *GormBroadcastRepository) FindActive(ctx context.Context) ([]broadcast.Broadcast, error) {
	var broadcasts []broadcast.Broadcast
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("created_at DESC").
		Find(&broadcasts).Error; err != nil {
		return nil, err
	}
	return broadcasts, nil
}

// Save creates or updates a broadcast
func (r *GormBroadcastRepository) Save(ctx context.Context, b *broadcast.Broadcast) error {
	return r.db.WithContext(ctx).Save(b).Error
}

// Ensure GormBroadcastRepository implements broadcast.Repository
var _ broadcast.Repository = (*GormBroadcastRepository)(nil)
