package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/mail"
	"go.uber.org/zap"
)

// OrderService handles order reads for customers and order updates for
// admins. Order creation lives in the checkout service.
type OrderService struct {
	orderRepo order.Repository
	mailer    mail.Sender
	logger    *zap.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(orderRepo order.Repository, mailer mail.Sender, logger *zap.Logger) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		mailer:    mailer,
		logger:    logger,
	}
}

// GetForUser returns one of the user's own orders. Requesting another
// user's order reads the same as a missing one.
func (s *OrderService) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, shared.ErrNotFound
	}
	return ToOrderResponse(o), nil
}

// ListForUser returns the user's orders, newest first
func (s *OrderService) ListForUser(ctx context.Context, userID uuid.UUID, filter OrderListFilter) ([]OrderResponse, error) {
	domainFilter := s.toDomainFilter(filter)
	list, err := s.orderRepo.FindByUser(ctx, userID, domainFilter)
	if err != nil {
		return nil, err
	}
	return ToOrderResponses(list), nil
}

// ListAll returns all orders matching the filter with the total count.
// Admin only; the HTTP layer enforces the role.
func (s *OrderService) ListAll(ctx context.Context, filter OrderListFilter) ([]OrderResponse, int64, error) {
	domainFilter := s.toDomainFilter(filter)
	list, err := s.orderRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.orderRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToOrderResponses(list), total, nil
}

// AdminUpdate applies a partial update to an order's status and shipping
// stage. The shipping stage is applied first so an admin can advance both
// in one request; once a terminal status lands, the stage is frozen.
func (s *OrderService) AdminUpdate(ctx context.Context, orderID uuid.UUID, req AdminUpdateOrderRequest) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if req.ShippingStage != nil {
		if err := o.ChangeShippingStage(order.ShippingStage(*req.ShippingStage)); err != nil {
			return nil, err
		}
	}
	if req.Status != nil {
		if err := o.ChangeStatus(order.Status(*req.Status)); err != nil {
			return nil, err
		}
	}

	if err := s.orderRepo.Update(ctx, o); err != nil {
		return nil, err
	}

	// Any applied update notifies the customer, a stage-only change
	// included ("your order shipped" is the mail people actually want).
	if req.Status != nil || req.ShippingStage != nil {
		s.sendUpdateEmail(ctx, o)
	}
	return ToOrderResponse(o), nil
}

// sendUpdateEmail notifies the customer about the order's new status and
// shipping stage. Delivery failures are logged, never surfaced to the
// admin.
func (s *OrderService) sendUpdateEmail(ctx context.Context, o *order.Order) {
	if s.mailer == nil || o.ContactEmail == "" {
		return
	}
	msg := mail.Message{
		To:      o.ContactEmail,
		Subject: fmt.Sprintf("Update on your order %s", o.ID),
		Body: fmt.Sprintf("Order %s has been updated.\n\nStatus: %s\nShipping: %s\n",
			o.ID, o.Status, o.ShippingStage),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Warn("failed to send order update email",
			zap.String("order_id", o.ID.String()),
			zap.Error(err))
	}
}

func (s *OrderService) toDomainFilter(filter OrderListFilter) shared.Filter {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	if filter.ShippingStage != "" {
		domainFilter.Filters["shipping_stage"] = filter.ShippingStage
	}
	return domainFilter
}
