package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shopping"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCartRepository implements shopping.CartRepository using GORM
type GormCartRepository struct {
	db *gorm.DB
}

// NewGormCartRepository creates a new GormCartRepository
func NewGormCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// FindByUser returns all cart items for a user with their products preloaded
func (r *GormCartRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]shopping.CartItem, error) {
	var items []shopping.CartItem
	if err := r.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// FindItem returns the cart item for a (user, product) pair
func (r *GormCartRepository) FindItem(ctx context.Context, userID, productID uuid.UUID) (*shopping.CartItem, error) {
	var item shopping.CartItem
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// Save creates or updates a cart item. The (user_id, product_id) unique index
// turns a concurrent double-add into an upsert instead of a duplicate row.
func (r *GormCartRepository) Save(ctx context.Context, item *shopping.CartItem) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
		}).
		Create(item).Error
}

// Remove deletes the cart item for a (user, product) pair
func (r *GormCartRepository) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Delete(&shopping.CartItem{}, "user_id = ? AND product_id = ?", userID, productID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Clear deletes all cart items for a user
func (r *GormCartRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&shopping.CartItem{}, "user_id = ?", userID).Error
}

// FindIdleUserIDs returns users whose most recent cart change predates the cutoff
func (r *GormCartRepository) FindIdleUserIDs(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	var userIDs []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&shopping.CartItem{}).
		Select("user_id").
		Group("user_id").
		Having("MAX(updated_at) < ?", cutoff).
		Find(&userIDs).Error; err != nil {
		return nil, err
	}
	return userIDs, nil
}

// Ensure GormCartRepository implements CartRepository
var _ shopping.CartRepository = (*GormCartRepository)(nil)
