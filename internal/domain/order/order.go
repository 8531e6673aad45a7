package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// Status represents the commercial status of an order
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
)

// IsValid checks if the status is a known Status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// IsTerminal reports whether the status ends the order's lifecycle.
// Terminal statuses freeze the shipping stage.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// ShippingStage tracks physical fulfillment progress, independent of Status
type ShippingStage string

const (
	StageOrdered   ShippingStage = "ordered"
	StagePreparing ShippingStage = "preparing"
	StageShipped   ShippingStage = "shipped"
	StageDelivered ShippingStage = "delivered"
)

// IsValid checks if the stage is a known ShippingStage
func (s ShippingStage) IsValid() bool {
	switch s {
	case StageOrdered, StagePreparing, StageShipped, StageDelivered:
		return true
	}
	return false
}

// String returns the string representation of ShippingStage
func (s ShippingStage) String() string {
	return string(s)
}

// Item represents a line item in an order. Unit price is a snapshot of the
// product price at order time and never re-read from the catalog.
type Item struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null"`
	ProductName string          `gorm:"type:varchar(200);not null"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CreatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (Item) TableName() string {
	return "order_items"
}

// LineTotal returns unit price * quantity
func (i *Item) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order is the aggregate root for the checkout/fulfillment workflow
type Order struct {
	shared.BaseEntity
	UserID          uuid.UUID           `gorm:"type:uuid;not null;index"`
	Items           []Item              `gorm:"foreignKey:OrderID;references:ID"`
	Subtotal        decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0"`
	ShippingFee     decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0"`
	Tax             decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0"`
	Total           decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0"`
	Currency        valueobject.Currency `gorm:"type:varchar(3);not null;default:'USD'"`
	Status          Status              `gorm:"type:varchar(20);not null;default:'pending';index"`
	ShippingStage   ShippingStage       `gorm:"type:varchar(20);not null;default:'ordered'"`
	ShippingAddress string              `gorm:"type:text"`
	ContactEmail    string              `gorm:"type:varchar(255)"`
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// NewOrder creates a pending order for a user
func NewOrder(userID uuid.UUID, shippingAddress, contactEmail string) (*Order, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if shippingAddress == "" {
		return nil, shared.NewDomainError("INVALID_ADDRESS", "Shipping address cannot be empty")
	}

	return &Order{
		BaseEntity:      shared.NewBaseEntity(),
		UserID:          userID,
		Subtotal:        decimal.Zero,
		ShippingFee:     decimal.Zero,
		Tax:             decimal.Zero,
		Total:           decimal.Zero,
		Currency:        valueobject.DefaultCurrency,
		Status:          StatusPending,
		ShippingStage:   StageOrdered,
		ShippingAddress: shippingAddress,
		ContactEmail:    contactEmail,
	}, nil
}

// AddItem appends a snapshot-priced line item
func (o *Order) AddItem(productID uuid.UUID, productName string, quantity int, unitPrice valueobject.Money) (*Item, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if productName == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if quantity < 1 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be at least 1")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	item := Item{
		ID:          uuid.New(),
		OrderID:     o.ID,
		ProductID:   productID,
		ProductName: productName,
		Quantity:    quantity,
		UnitPrice:   unitPrice.Amount().Round(2),
		CreatedAt:   time.Now(),
	}
	o.Items = append(o.Items, item)
	return &o.Items[len(o.Items)-1], nil
}

// SetTotals records the computed checkout totals
func (o *Order) SetTotals(subtotal, shippingFee, tax, total decimal.Decimal) {
	o.Subtotal = subtotal.Round(2)
	o.ShippingFee = shippingFee.Round(2)
	o.Tax = tax.Round(2)
	o.Total = total.Round(2)
	o.UpdatedAt = time.Now()
}

// ChangeStatus moves the order to the given status. Any status may follow
// any other; cross-field coupling lives in ChangeShippingStage.
func (o *Order) ChangeStatus(status Status) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Unknown order status: "+status.String())
	}
	o.Status = status
	o.UpdatedAt = time.Now()
	return nil
}

// ChangeShippingStage moves the order to the given shipping stage.
// Stage edits are rejected once the status is terminal.
func (o *Order) ChangeShippingStage(stage ShippingStage) error {
	if !stage.IsValid() {
		return shared.NewDomainError("INVALID_STAGE", "Unknown shipping stage: "+stage.String())
	}
	if o.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE",
			"Shipping stage cannot change after the order is "+o.Status.String())
	}
	o.ShippingStage = stage
	o.UpdatedAt = time.Now()
	return nil
}

// ItemCount returns the total number of units across all line items
func (o *Order) ItemCount() int {
	count := 0
	for _, item := range o.Items {
		count += item.Quantity
	}
	return count
}
