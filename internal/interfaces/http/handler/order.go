package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	ordersapp "github.com/storefront/backend/internal/application/orders"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// OrderHandler handles order endpoints for customers and admins
type OrderHandler struct {
	BaseHandler
	orderService *ordersapp.OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService *ordersapp.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// List returns the authenticated user's orders
func (h *OrderHandler) List(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var filter ordersapp.OrderListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	orders, err := h.orderService.ListForUser(c.Request.Context(), userID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, orders)
}

// GetByID returns one of the authenticated user's orders.
// Orders belonging to other users are indistinguishable from missing ones.
func (h *OrderHandler) GetByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}
	orderID := uuid.MustParse(uri.ID)

	order, err := h.orderService.GetForUser(c.Request.Context(), userID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// AdminList returns all orders with optional status/stage filters
func (h *OrderHandler) AdminList(c *gin.Context) {
	var filter ordersapp.OrderListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if filter.Page == 0 {
		filter.Page = 1
	}
	if filter.PageSize == 0 {
		filter.PageSize = 20
	}

	orders, total, err := h.orderService.ListAll(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, orders, total, filter.Page, filter.PageSize)
}

// AdminUpdate applies a partial status/shipping-stage update to an order
func (h *OrderHandler) AdminUpdate(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}
	orderID := uuid.MustParse(uri.ID)

	var req ordersapp.AdminUpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if req.Status == nil && req.ShippingStage == nil {
		h.BadRequest(c, "At least one of status or shipping_stage is required")
		return
	}

	order, err := h.orderService.AdminUpdate(c.Request.Context(), orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}
