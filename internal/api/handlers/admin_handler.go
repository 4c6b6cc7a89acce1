package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"example.com/bloodbank/services/bank/internal/models"
	"example.com/bloodbank/services/bank/internal/repositories"
)

// AdminHandler handles admin registry endpoints
type AdminHandler struct {
	admins *repositories.AdminRepository
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(admins *repositories.AdminRepository) *AdminHandler {
	return &AdminHandler{admins: admins}
}

// AdminRequest represents the admin create payload
type AdminRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

// HandleList lists all admins
func (h *AdminHandler) HandleList(c *gin.Context) {
	admins, err := h.admins.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, admins)
}

// HandleCreate registers a new admin
func (h *AdminHandler) HandleCreate(c *gin.Context) {
	var req AdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	admin := &models.Admin{
		ID:    uuid.New(),
		Name:  req.Name,
		Email: req.Email,
	}
	if err := h.admins.Create(c.Request.Context(), admin); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, admin)
}

// RegisterRoutes registers the handler's routes
func (h *AdminHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/api/admins", h.HandleList)
	router.POST("/api/admins", h.HandleCreate)
}
