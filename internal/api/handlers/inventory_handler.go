package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"example.com/bloodbank/services/bank/internal/models"
	"example.com/bloodbank/services/bank/internal/services"
)

// InventoryHandler handles donation and organ inventory endpoints
type InventoryHandler struct {
	inventory *services.InventoryService
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(inventory *services.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventory: inventory}
}

// IntakeDonationRequest represents the donation intake payload
type IntakeDonationRequest struct {
	DonorID    uuid.UUID `json:"donor_id" binding:"required"`
	QuantityML int       `json:"quantity_ml" binding:"required,gt=0"`
	DonatedAt  time.Time `json:"donated_at"`
}

// IntakeOrganRequest represents the organ intake payload
type IntakeOrganRequest struct {
	DonorID   uuid.UUID `json:"donor_id" binding:"required"`
	OrganType string    `json:"organ_type" binding:"required"`
}

// HandleListDonations lists all donation units
func (h *InventoryHandler) HandleListDonations(c *gin.Context) {
	units, err := h.inventory.ListUnits(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, units)
}

// HandleListOrgans lists all organs
func (h *InventoryHandler) HandleListOrgans(c *gin.Context) {
	organs, err := h.inventory.ListOrgans(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, organs)
}

// HandleAvailableDonations lists usable units compatible with a recipient group
func (h *InventoryHandler) HandleAvailableDonations(c *gin.Context) {
	group := c.Query("blood_group")
	if group == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "blood_group query parameter is required"})
		return
	}

	units, err := h.inventory.ListAvailableUnits(c.Request.Context(), group, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, units)
}

// HandleAvailableOrgans lists available organs of a given type
func (h *InventoryHandler) HandleAvailableOrgans(c *gin.Context) {
	organType := c.Query("organ_type")
	if organType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "organ_type query parameter is required"})
		return
	}

	organs, err := h.inventory.ListAvailableOrgans(c.Request.Context(), organType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, organs)
}

// HandleIntakeDonation records a new donation unit
func (h *InventoryHandler) HandleIntakeDonation(c *gin.Context) {
	var req IntakeDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	donatedAt := req.DonatedAt
	if donatedAt.IsZero() {
		donatedAt = time.Now()
	}

	unit, err := h.inventory.IntakeDonation(c.Request.Context(), req.DonorID, req.QuantityML, donatedAt)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, unit)
}

// HandleIntakeOrgan records a new donated organ
func (h *InventoryHandler) HandleIntakeOrgan(c *gin.Context) {
	var req IntakeOrganRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	organ, err := h.inventory.IntakeOrgan(c.Request.Context(), req.DonorID, req.OrganType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, organ)
}

// HandleCheckExpiry reports whether a single unit is past its shelf life
func (h *InventoryHandler) HandleCheckExpiry(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid donation id"})
		return
	}

	expired, err := h.inventory.CheckUnitExpiry(c.Request.Context(), id, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "expired": expired})
}

// HandleExpireStale sweeps availables past their shelf life
func (h *InventoryHandler) HandleExpireStale(c *gin.Context) {
	count, err := h.inventory.ExpireStale(c.Request.Context(), time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expired": count})
}

// HandleRemoveDonation discards a donation unit
func (h *InventoryHandler) HandleRemoveDonation(c *gin.Context) {
	h.remove(c, models.ItemKindDonationUnit, "invalid donation id")
}

// HandleRemoveOrgan discards an organ
func (h *InventoryHandler) HandleRemoveOrgan(c *gin.Context) {
	h.remove(c, models.ItemKindOrgan, "invalid organ id")
}

func (h *InventoryHandler) remove(c *gin.Context, kind models.ItemKind, badIDMsg string) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": badIDMsg})
		return
	}

	if err := h.inventory.Remove(c.Request.Context(), kind, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "discarded"})
}

// RegisterRoutes registers the handler's routes
func (h *InventoryHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/api/donations", h.HandleListDonations)
	router.GET("/api/donations/available", h.HandleAvailableDonations)
	router.POST("/api/donations", h.HandleIntakeDonation)
	router.GET("/api/donations/:id/check_expiry", h.HandleCheckExpiry)
	router.DELETE("/api/donations/:id", h.HandleRemoveDonation)
	router.POST("/api/donations/expire", h.HandleExpireStale)

	router.GET("/api/organs", h.HandleListOrgans)
	router.GET("/api/organs/available", h.HandleAvailableOrgans)
	router.POST("/api/organs", h.HandleIntakeOrgan)
	router.DELETE("/api/organs/:id", h.HandleRemoveOrgan)
}
