package shopping

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CartRepository defines the interface for cart persistence
type CartRepository interface {
	// FindByUser returns all cart items for a user, with products loaded,
	// ordered by creation time
	FindByUser(ctx context.Context, userID uuid.UUID) ([]CartItem, error)

	// FindItem returns the cart item for a (user, product) pair
	FindItem(ctx context.Context, userID, productID uuid.UUID) (*CartItem, error)

	// Save creates or updates a cart item
	Save(ctx context.Context, item *CartItem) error

	// Remove deletes the cart item for a (user, product) pair
	Remove(ctx context.Context, userID, productID uuid.UUID) error

	// Clear deletes all cart items for a user
	Clear(ctx context.Context, userID uuid.UUID) error

	// FindIdleUserIDs returns the IDs of users whose newest cart activity is
	// older than the cutoff. Used by the abandoned-cart job.
	FindIdleUserIDs(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error)
}
