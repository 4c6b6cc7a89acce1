package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"example.com/bloodbank/services/bank/internal/models"
	"example.com/bloodbank/services/bank/internal/repositories"
)

// HospitalHandler handles hospital registry endpoints
type HospitalHandler struct {
	hospitals *repositories.HospitalRepository
}

// NewHospitalHandler creates a new hospital handler
func NewHospitalHandler(hospitals *repositories.HospitalRepository) *HospitalHandler {
	return &HospitalHandler{hospitals: hospitals}
}

// HospitalRequest represents the hospital create payload
type HospitalRequest struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
	Contact string `json:"contact"`
}

// HandleList lists all hospitals
func (h *HospitalHandler) HandleList(c *gin.Context) {
	hospitals, err := h.hospitals.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, hospitals)
}

// HandleGet fetches a single hospital
func (h *HospitalHandler) HandleGet(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid hospital id"})
		return
	}

	hospital, err := h.hospitals.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, hospital)
}

// HandleCreate registers a new hospital
func (h *HospitalHandler) HandleCreate(c *gin.Context) {
	var req HospitalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hospital := &models.Hospital{
		ID:      uuid.New(),
		Name:    req.Name,
		Address: req.Address,
		Contact: req.Contact,
	}
	if err := h.hospitals.Create(c.Request.Context(), hospital); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, hospital)
}

// RegisterRoutes registers the handler's routes
func (h *HospitalHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/api/hospitals", h.HandleList)
	router.GET("/api/hospitals/:id", h.HandleGet)
	router.POST("/api/hospitals", h.HandleCreate)
}
