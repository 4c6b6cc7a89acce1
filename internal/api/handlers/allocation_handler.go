package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"example.com/bloodbank/services/bank/internal/services"
	"example.com/bloodbank/services/bank/internal/tracing"
)

// AllocationHandler exposes the request-fulfillment entry point
type AllocationHandler struct {
	allocations *services.AllocationService
	tracer      tracing.Tracer
}

// NewAllocationHandler creates a new allocation handler
func NewAllocationHandler(allocations *services.AllocationService, tracer tracing.Tracer) *AllocationHandler {
	return &AllocationHandler{
		allocations: allocations,
		tracer:      tracer,
	}
}

// FulfillRequest represents the fulfill payload
type FulfillRequest struct {
	ItemID uuid.UUID `json:"item_id" binding:"required"`
}

// HandleFulfill matches a pending request to a specific inventory item
func (h *AllocationHandler) HandleFulfill(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-fulfill")
	defer h.tracer.EndTransaction(txn)

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return
	}

	var req FulfillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fulfilled, err := h.allocations.Fulfill(c.Request.Context(), requestID, req.ItemID)
	if err != nil {
		log.Warn().
			Err(err).
			Str("request_id", requestID.String()).
			Str("item_id", req.ItemID.String()).
			Msg("fulfillment failed")
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, fulfilled)
}

// RegisterRoutes registers the handler's routes
func (h *AllocationHandler) RegisterRoutes(router *gin.Engine) {
	router.POST("/api/requests/:id/fulfill", h.HandleFulfill)
}
