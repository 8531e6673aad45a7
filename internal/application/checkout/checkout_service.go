package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/application/orders"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shopping"
	"github.com/storefront/backend/internal/infrastructure/mail"
	"github.com/storefront/backend/internal/infrastructure/notify"
	"github.com/storefront/backend/internal/infrastructure/payment"
	"go.uber.org/zap"
)

// CheckoutService converts a cart into an order. The charge happens
// before anything is persisted; the order and its items then land in one
// transaction, and only after that is the cart cleared. Confirmation
// email and the ops notification are best effort.
type CheckoutService struct {
	cartRepo    shopping.CartRepository
	orderRepo   order.Repository
	userRepo    identity.UserRepository
	productRepo catalog.ProductRepository
	calculator  *Calculator
	gateway     payment.Gateway
	mailer      mail.Sender
	notifier    notify.Notifier
	logger      *zap.Logger
}

// NewCheckoutService creates a new CheckoutService
func NewCheckoutService(
	cartRepo shopping.CartRepository,
	orderRepo order.Repository,
	userRepo identity.UserRepository,
	productRepo catalog.ProductRepository,
	calculator *Calculator,
	gateway payment.Gateway,
	mailer mail.Sender,
	notifier notify.Notifier,
	logger *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		cartRepo:    cartRepo,
		orderRepo:   orderRepo,
		userRepo:    userRepo,
		productRepo: productRepo,
		calculator:  calculator,
		gateway:     gateway,
		mailer:      mailer,
		notifier:    notifier,
		logger:      logger,
	}
}

// Checkout places an order from the user's current cart
func (s *CheckoutService) Checkout(ctx context.Context, userID uuid.UUID, req CheckoutRequest) (*orders.OrderResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	items, err := s.cartRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, shared.ErrEmptyCart
	}

	o, err := order.NewOrder(userID, req.ShippingAddress, user.Email)
	if err != nil {
		return nil, err
	}

	// Snapshot names and prices from the live catalog, not from whatever
	// the cart rows were preloaded with. A product deleted since it was
	// added leaves a dangling cart line; the checkout fails rather than
	// charging for an unknown price.
	ids := make([]uuid.UUID, 0, len(items))
	for i := range items {
		ids = append(ids, items[i].ProductID)
	}
	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*catalog.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	subtotal := decimal.Zero
	for i := range items {
		item := &items[i]
		p, ok := byID[item.ProductID]
		if !ok {
			return nil, shared.NewDomainError("PRODUCT_UNAVAILABLE",
				"A product in the cart is no longer available")
		}
		if _, err := o.AddItem(item.ProductID, p.Name, item.Quantity, p.PriceAsMoney()); err != nil {
			return nil, err
		}
		subtotal = subtotal.Add(p.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	totals := s.calculator.Compute(subtotal.Round(2))
	o.SetTotals(totals.Subtotal, totals.ShippingFee, totals.Tax, totals.Total)

	charge, err := s.gateway.Charge(ctx, payment.ChargeInput{
		OrderID:      o.ID,
		Amount:       o.Total,
		Currency:     string(o.Currency),
		PaymentToken: req.PaymentToken,
		ReceiptEmail: user.Email,
		Description:  fmt.Sprintf("Order %s", o.ID),
	})
	if err != nil {
		s.logger.Warn("payment declined",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return nil, shared.NewDomainError("PAYMENT_FAILED", "Payment could not be processed")
	}

	if err := s.orderRepo.Create(ctx, o); err != nil {
		return nil, err
	}

	if err := s.cartRepo.Clear(ctx, userID); err != nil {
		// The order exists; a cart that failed to clear is an annoyance,
		// not a reason to fail the checkout.
		s.logger.Warn("failed to clear cart after checkout",
			zap.String("user_id", userID.String()),
			zap.Error(err))
	}

	s.sendConfirmationEmail(ctx, o)
	s.notifyOrderPlaced(ctx, o, charge)

	return orders.ToOrderResponse(o), nil
}

func (s *CheckoutService) sendConfirmationEmail(ctx context.Context, o *order.Order) {
	if s.mailer == nil {
		return
	}

	var lines strings.Builder
	for _, item := range o.Items {
		fmt.Fprintf(&lines, "  %dx %s at %s\n", item.Quantity, item.ProductName, item.UnitPrice.StringFixed(2))
	}
	body := fmt.Sprintf("Thanks for your order!\n\n%s\nSubtotal: %s\nShipping: %s\nTax: %s\nTotal: %s %s\n",
		lines.String(),
		o.Subtotal.StringFixed(2), o.ShippingFee.StringFixed(2),
		o.Tax.StringFixed(2), o.Total.StringFixed(2), o.Currency)

	err := s.mailer.Send(ctx, mail.Message{
		To:      o.ContactEmail,
		Subject: fmt.Sprintf("Order confirmation %s", o.ID),
		Body:    body,
	})
	if err != nil {
		s.logger.Warn("failed to send order confirmation email",
			zap.String("order_id", o.ID.String()),
			zap.Error(err))
	}
}

func (s *CheckoutService) notifyOrderPlaced(ctx context.Context, o *order.Order, charge *payment.ChargeResult) {
	if s.notifier == nil {
		return
	}

	event := notify.OrderPlacedEvent{
		OrderID:       o.ID.String(),
		CustomerEmail: o.ContactEmail,
		Total:         fmt.Sprintf("%s %s", o.Total.StringFixed(2), o.Currency),
		ItemCount:     o.ItemCount(),
	}
	if charge != nil {
		event.Payment = notify.PaymentSummary{
			CardBrand: charge.CardBrand,
			CardLast4: charge.CardLast4,
		}
	}

	if err := s.notifier.NotifyOrderPlaced(ctx, event); err != nil {
		s.logger.Warn("failed to notify order placement",
			zap.String("order_id", o.ID.String()),
			zap.Error(err))
	}
}
