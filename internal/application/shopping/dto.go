package shopping

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/application/catalog"
	"github.com/storefront/backend/internal/domain/shopping"
)

// AddItemRequest represents a request to add a product to the cart
type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"omitempty,min=1,max=999"`
}

// UpdateItemRequest represents a request to change a line's quantity.
// Quantity zero removes the line.
type UpdateItemRequest struct {
	Quantity int `json:"quantity" binding:"min=0,max=999"`
}

// CartItemResponse represents one cart line in API responses
type CartItemResponse struct {
	ProductID uuid.UUID                `json:"product_id"`
	Quantity  int                      `json:"quantity"`
	LineTotal decimal.Decimal          `json:"line_total"`
	Product   *catalog.ProductResponse `json:"product,omitempty"`
}

// CartResponse represents the full cart with derived totals
type CartResponse struct {
	Items    []CartItemResponse `json:"items"`
	Count    int                `json:"count"`
	Subtotal decimal.Decimal    `json:"subtotal"`
}

// ToCartResponse converts a domain Cart to CartResponse
func ToCartResponse(cart *shopping.Cart) *CartResponse {
	items := make([]CartItemResponse, len(cart.Items))
	for i := range cart.Items {
		item := &cart.Items[i]
		items[i] = CartItemResponse{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal(),
		}
		if item.Product != nil {
			items[i].Product = catalog.ToProductResponse(item.Product)
		}
	}
	return &CartResponse{
		Items:    items,
		Count:    cart.Count(),
		Subtotal: cart.Subtotal(),
	}
}
