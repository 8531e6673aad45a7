package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/order"
)

// OrderItemResponse represents one order line in API responses
type OrderItemResponse struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID              uuid.UUID           `json:"id"`
	UserID          uuid.UUID           `json:"user_id"`
	Items           []OrderItemResponse `json:"items"`
	Subtotal        decimal.Decimal     `json:"subtotal"`
	ShippingFee     decimal.Decimal     `json:"shipping_fee"`
	Tax             decimal.Decimal     `json:"tax"`
	Total           decimal.Decimal     `json:"total"`
	Currency        string              `json:"currency"`
	Status          string              `json:"status"`
	ShippingStage   string              `json:"shipping_stage"`
	ShippingAddress string              `json:"shipping_address"`
	ContactEmail    string              `json:"contact_email"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// OrderListFilter represents filter options for order listings
type OrderListFilter struct {
	Status        string `form:"status" binding:"omitempty,oneof=pending processing completed cancelled refunded"`
	ShippingStage string `form:"shipping_stage" binding:"omitempty,oneof=ordered preparing shipped delivered"`
	Page          int    `form:"page" binding:"omitempty,min=1"`
	PageSize      int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// AdminUpdateOrderRequest represents an admin's partial order update.
// Both fields are optional; absent fields keep their current values.
type AdminUpdateOrderRequest struct {
	Status        *string `json:"status" binding:"omitempty,oneof=pending processing completed cancelled refunded"`
	ShippingStage *string `json:"shipping_stage" binding:"omitempty,oneof=ordered preparing shipped delivered"`
}

// ToOrderResponse converts a domain Order to OrderResponse
func ToOrderResponse(o *order.Order) *OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i := range o.Items {
		item := &o.Items[i]
		items[i] = OrderItemResponse{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal(),
		}
	}
	return &OrderResponse{
		ID:              o.ID,
		UserID:          o.UserID,
		Items:           items,
		Subtotal:        o.Subtotal,
		ShippingFee:     o.ShippingFee,
		Tax:             o.Tax,
		Total:           o.Total,
		Currency:        string(o.Currency),
		Status:          o.Status.String(),
		ShippingStage:   o.ShippingStage.String(),
		ShippingAddress: o.ShippingAddress,
		ContactEmail:    o.ContactEmail,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

// ToOrderResponses converts a slice of domain Orders
func ToOrderResponses(orders []order.Order) []OrderResponse {
	responses := make([]OrderResponse, len(orders))
	for i := range orders {
		responses[i] = *ToOrderResponse(&orders[i])
	}
	return responses
}
