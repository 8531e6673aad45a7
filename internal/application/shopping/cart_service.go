package shopping

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shopping"
)

// CartService handles cart operations for authenticated users. Every
// mutation returns the refreshed cart so clients never render from a
// stale read.
type CartService struct {
	cartRepo    shopping.CartRepository
	productRepo catalog.ProductRepository
}

// NewCartService creates a new CartService
func NewCartService(cartRepo shopping.CartRepository, productRepo catalog.ProductRepository) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// Get returns the user's cart with products and totals
func (s *CartService) Get(ctx context.Context, userID uuid.UUID) (*CartResponse, error) {
	return s.load(ctx, userID)
}

// AddItem adds a product to the cart. Adding a product already in the
// cart raises its quantity instead of creating a second line.
func (s *CartService) AddItem(ctx context.Context, userID uuid.UUID, req AddItemRequest) (*CartResponse, error) {
	if _, err := s.productRepo.FindByID(ctx, req.ProductID); err != nil {
		return nil, err
	}

	quantity := req.Quantity
	if quantity < 1 {
		quantity = 1
	}

	item, err := s.cartRepo.FindItem(ctx, userID, req.ProductID)
	switch {
	case err == nil:
		if err := item.SetQuantity(item.Quantity + quantity); err != nil {
			return nil, err
		}
	case errors.Is(err, shared.ErrNotFound):
		item, err = shopping.NewCartItem(userID, req.ProductID)
		if err != nil {
			return nil, err
		}
		if err := item.SetQuantity(quantity); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	if err := s.cartRepo.Save(ctx, item); err != nil {
		return nil, err
	}
	return s.load(ctx, userID)
}

// UpdateItem replaces a line's quantity. Quantity zero removes the line.
func (s *CartService) UpdateItem(ctx context.Context, userID, productID uuid.UUID, req UpdateItemRequest) (*CartResponse, error) {
	if req.Quantity == 0 {
		return s.RemoveItem(ctx, userID, productID)
	}

	item, err := s.cartRepo.FindItem(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if err := item.SetQuantity(req.Quantity); err != nil {
		return nil, err
	}
	if err := s.cartRepo.Save(ctx, item); err != nil {
		return nil, err
	}
	return s.load(ctx, userID)
}

// RemoveItem deletes a line from the cart
func (s *CartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*CartResponse, error) {
	if err := s.cartRepo.Remove(ctx, userID, productID); err != nil {
		return nil, err
	}
	return s.load(ctx, userID)
}

// Clear empties the cart
func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) (*CartResponse, error) {
	if err := s.cartRepo.Clear(ctx, userID); err != nil {
		return nil, err
	}
	return s.load(ctx, userID)
}

func (s *CartService) load(ctx context.Context, userID uuid.UUID) (*CartResponse, error) {
	items, err := s.cartRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	cart := &shopping.Cart{UserID: userID, Items: items}
	return ToCartResponse(cart), nil
}
