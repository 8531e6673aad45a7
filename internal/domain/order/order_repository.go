package order

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// Repository defines the interface for order persistence
type Repository interface {
	// FindByID finds an order by its ID, with items loaded
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByUser finds all orders for a user, with items loaded
	FindByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]Order, error)

	// FindAll finds all orders matching the filter (admin listing)
	FindAll(ctx context.Context, filter shared.Filter) ([]Order, error)

	// Count counts orders matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Create persists a new order together with its items in one transaction
	Create(ctx context.Context, order *Order) error

	// Update persists changes to an existing order's own columns
	Update(ctx context.Context, order *Order) error
}
