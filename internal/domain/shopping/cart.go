package shopping

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
)

// CartItem represents one product line in a user's cart.
// There is exactly one row per (user, product) pair.
type CartItem struct {
	shared.BaseEntity
	UserID    uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_cart_user_product,priority:1"`
	ProductID uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_cart_user_product,priority:2"`
	Quantity  int              `gorm:"not null;default:1"`
	Product   *catalog.Product `gorm:"foreignKey:ProductID;references:ID"`
}

// TableName returns the table name for GORM
func (CartItem) TableName() string {
	return "cart_items"
}

// NewCartItem creates a cart item for the given user and product with quantity 1
func NewCartItem(userID, productID uuid.UUID) (*CartItem, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	return &CartItem{
		BaseEntity: shared.NewBaseEntity(),
		UserID:     userID,
		ProductID:  productID,
		Quantity:   1,
	}, nil
}

// Increment adds one to the item quantity
func (i *CartItem) Increment() {
	i.Quantity++
	i.UpdatedAt = time.Now()
}

// SetQuantity replaces the item quantity. Quantities below one are invalid
// at the entity level; callers remove the row instead.
func (i *CartItem) SetQuantity(quantity int) error {
	if quantity < 1 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be at least 1")
	}
	i.Quantity = quantity
	i.UpdatedAt = time.Now()
	return nil
}

// LineTotal returns price * quantity for this line, using the live product
// price. Returns zero when the product association is not loaded.
func (i *CartItem) LineTotal() decimal.Decimal {
	if i.Product == nil {
		return decimal.Zero
	}
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is a read model over a user's cart items with derived totals
type Cart struct {
	UserID uuid.UUID
	Items  []CartItem
}

// Count returns the total number of units across all lines
func (c *Cart) Count() int {
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// Subtotal returns the sum of all line totals, rounded to 2 decimal places
func (c *Cart) Subtotal() decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range c.Items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	return subtotal.Round(2)
}

// IsEmpty reports whether the cart has no items
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}
