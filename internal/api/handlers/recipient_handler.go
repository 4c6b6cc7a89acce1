package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"example.com/bloodbank/services/bank/internal/models"
	"example.com/bloodbank/services/bank/internal/repositories"
	"example.com/bloodbank/services/bank/internal/services"
)

// RecipientHandler handles recipient registry endpoints
type RecipientHandler struct {
	recipients *repositories.RecipientRepository
	requests   *services.RequestService
}

// NewRecipientHandler creates a new recipient handler
func NewRecipientHandler(recipients *repositories.RecipientRepository, requests *services.RequestService) *RecipientHandler {
	return &RecipientHandler{recipients: recipients, requests: requests}
}

// RecipientRequest represents the recipient create/update payload
type RecipientRequest struct {
	Name          string `json:"name" binding:"required"`
	Age           int    `json:"age" binding:"required,gt=0"`
	Gender        string `json:"gender"`
	BloodGroup    string `json:"blood_group" binding:"required,bloodgroup"`
	OrganRequired string `json:"organ_required"`
	Contact       string `json:"contact"`
}

// HandleList lists all recipients
func (h *RecipientHandler) HandleList(c *gin.Context) {
	recipients, err := h.recipients.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipients)
}

// HandleGet fetches a single recipient
func (h *RecipientHandler) HandleGet(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipient id"})
		return
	}

	recipient, err := h.recipients.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipient)
}

// HandleCreate registers a new recipient
func (h *RecipientHandler) HandleCreate(c *gin.Context) {
	var req RecipientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recipient := &models.Recipient{
		ID:            uuid.New(),
		Name:          req.Name,
		Age:           req.Age,
		Gender:        req.Gender,
		BloodGroup:    req.BloodGroup,
		OrganRequired: req.OrganRequired,
		Contact:       req.Contact,
	}
	if err := h.recipients.Create(c.Request.Context(), recipient); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, recipient)
}

// HandleUpdate updates recipient fields
func (h *RecipientHandler) HandleUpdate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipient id"})
		return
	}

	var req RecipientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recipient := &models.Recipient{
		ID:            id,
		Name:          req.Name,
		Age:           req.Age,
		Gender:        req.Gender,
		BloodGroup:    req.BloodGroup,
		OrganRequired: req.OrganRequired,
		Contact:       req.Contact,
	}
	if err := h.recipients.Update(c.Request.Context(), recipient); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipient)
}

// HandleDelete removes a recipient without requests on record
func (h *RecipientHandler) HandleDelete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipient id"})
		return
	}

	if err := h.recipients.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// HandlePendingCount reports how many of the recipient's requests are pending
func (h *RecipientHandler) HandlePendingCount(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipient id"})
		return
	}

	count, err := h.requests.PendingCountForRecipient(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipient_id": id, "pending_requests": count})
}

// RegisterRoutes registers the handler's routes
func (h *RecipientHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/api/recipients", h.HandleList)
	router.GET("/api/recipients/:id", h.HandleGet)
	router.POST("/api/recipients", h.HandleCreate)
	router.PUT("/api/recipients/:id", h.HandleUpdate)
	router.DELETE("/api/recipients/:id", h.HandleDelete)
	router.GET("/api/recipients/:id/pending_count", h.HandlePendingCount)
}
