package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"example.com/bloodbank/services/bank/internal/models"
	"example.com/bloodbank/services/bank/internal/repositories"
)

// DonorHandler handles donor registry endpoints
type DonorHandler struct {
	donors *repositories.DonorRepository
}

// NewDonorHandler creates a new donor handler
func NewDonorHandler(donors *repositories.DonorRepository) *DonorHandler {
	return &DonorHandler{donors: donors}
}

// DonorRequest represents the donor create/update payload
type DonorRequest struct {
	Name           string `json:"name" binding:"required"`
	Age            int    `json:"age" binding:"required,gte=18,lte=65"`
	Gender         string `json:"gender"`
	BloodGroup     string `json:"blood_group" binding:"required,bloodgroup"`
	Contact        string `json:"contact"`
	MedicalHistory string `json:"medical_history"`
}

// HandleList lists all donors
func (h *DonorHandler) HandleList(c *gin.Context) {
	donors, err := h.donors.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, donors)
}

// HandleGet fetches a single donor
func (h *DonorHandler) HandleGet(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid donor id"})
		return
	}

	donor, err := h.donors.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, donor)
}

// HandleCreate registers a new donor
func (h *DonorHandler) HandleCreate(c *gin.Context) {
	var req DonorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	donor := &models.Donor{
		ID:             uuid.New(),
		Name:           req.Name,
		Age:            req.Age,
		Gender:         req.Gender,
		BloodGroup:     req.BloodGroup,
		Contact:        req.Contact,
		MedicalHistory: req.MedicalHistory,
	}
	if err := h.donors.Create(c.Request.Context(), donor); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, donor)
}

// HandleUpdate updates donor fields
func (h *DonorHandler) HandleUpdate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid donor id"})
		return
	}

	var req DonorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	donor := &models.Donor{
		ID:             id,
		Name:           req.Name,
		Age:            req.Age,
		Gender:         req.Gender,
		BloodGroup:     req.BloodGroup,
		Contact:        req.Contact,
		MedicalHistory: req.MedicalHistory,
	}
	if err := h.donors.Update(c.Request.Context(), donor); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, donor)
}

// HandleDelete removes a donor without donations on record
func (h *DonorHandler) HandleDelete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid donor id"})
		return
	}

	if err := h.donors.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// RegisterRoutes registers the handler's routes
func (h *DonorHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/api/donors", h.HandleList)
	router.GET("/api/donors/:id", h.HandleGet)
	router.POST("/api/donors", h.HandleCreate)
	router.PUT("/api/donors/:id", h.HandleUpdate)
	router.DELETE("/api/donors/:id", h.HandleDelete)
}
