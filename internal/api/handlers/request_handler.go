package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"example.com/bloodbank/services/bank/internal/models"
	"example.com/bloodbank/services/bank/internal/services"
)

// RequestHandler handles recipient request endpoints
type RequestHandler struct {
	requests *services.RequestService
}

// NewRequestHandler creates a new request handler
func NewRequestHandler(requests *services.RequestService) *RequestHandler {
	return &RequestHandler{requests: requests}
}

// CreateRequest represents the create payload
type CreateRequest struct {
	RecipientID uuid.UUID `json:"recipient_id" binding:"required"`
	HospitalID  uuid.UUID `json:"hospital_id" binding:"required"`
	RequestType string    `json:"request_type" binding:"required,oneof=Blood Organ"`
}

// HandleList lists all requests
func (h *RequestHandler) HandleList(c *gin.Context) {
	items, err := h.requests.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// HandleListPending lists requests still awaiting fulfillment
func (h *RequestHandler) HandleListPending(c *gin.Context) {
	items, err := h.requests.ListPending(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// HandleGet fetches a single request
func (h *RequestHandler) HandleGet(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return
	}

	item, err := h.requests.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// HandleCreate registers a new request for a recipient
func (h *RequestHandler) HandleCreate(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.requests.Create(c.Request.Context(), req.RecipientID, req.HospitalID, models.RequestType(req.RequestType))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// HandleCancel cancels a pending request
func (h *RequestHandler) HandleCancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return
	}

	if err := h.requests.Cancel(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

// HandleDelete removes a request record
func (h *RequestHandler) HandleDelete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return
	}

	if err := h.requests.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// RegisterRoutes registers the handler's routes
func (h *RequestHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/api/requests", h.HandleList)
	router.GET("/api/requests/pending", h.HandleListPending)
	router.GET("/api/requests/:id", h.HandleGet)
	router.POST("/api/requests", h.HandleCreate)
	router.POST("/api/requests/:id/cancel", h.HandleCancel)
	router.DELETE("/api/requests/:id", h.HandleDelete)
}
