package handler

import (
	"github.com/gin-gonic/gin"
	maintenanceapp "github.com/storefront/backend/internal/application/maintenance"
)

// CronHandler handles scheduled maintenance endpoints
type CronHandler struct {
	BaseHandler
	abandonedCartService *maintenanceapp.AbandonedCartService
}

// NewCronHandler creates a new CronHandler
func NewCronHandler(abandonedCartService *maintenanceapp.AbandonedCartService) *CronHandler {
	return &CronHandler{abandonedCartService: abandonedCartService}
}

// AbandonedCarts emails reminders to users with idle carts
func (h *CronHandler) AbandonedCarts(c *gin.Context) {
	sent, err := h.abandonedCartService.Run(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"sent": sent})
}
