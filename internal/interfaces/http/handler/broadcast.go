package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	broadcastapp "github.com/storefront/backend/internal/application/broadcast"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// BroadcastHandler handles site-wide announcement endpoints
type BroadcastHandler struct {
	BaseHandler
	broadcastService *broadcastapp.Service
}

// NewBroadcastHandler creates a new BroadcastHandler
func NewBroadcastHandler(broadcastService *broadcastapp.Service) *BroadcastHandler {
	return &BroadcastHandler{broadcastService: broadcastService}
}

// ListActive returns broadcasts currently shown to visitors
func (h *BroadcastHandler) ListActive(c *gin.Context) {
	broadcasts, err := h.broadcastService.ListActive(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, broadcasts)
}

// Create publishes a new broadcast
func (h *BroadcastHandler) Create(c *gin.Context) {
	var req broadcastapp.CreateBroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	broadcast, err := h.broadcastService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, broadcast)
}

// Cancel deactivates a broadcast without deleting it
func (h *BroadcastHandler) Cancel(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid broadcast ID")
		return
	}
	id := uuid.MustParse(uri.ID)

	broadcast, err := h.broadcastService.Cancel(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, broadcast)
}
