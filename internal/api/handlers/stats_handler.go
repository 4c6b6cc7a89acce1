package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"example.com/bloodbank/services/bank/internal/search"
	"example.com/bloodbank/services/bank/internal/services"
)

// StatsHandler handles dashboard statistics and allocation search
type StatsHandler struct {
	stats   *services.StatsService
	elastic *search.ElasticClient
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(stats *services.StatsService, elastic *search.ElasticClient) *StatsHandler {
	return &StatsHandler{stats: stats, elastic: elastic}
}

// HandleStats returns aggregate bank counters
func (h *StatsHandler) HandleStats(c *gin.Context) {
	stats, err := h.stats.GetStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// HandleSearchAllocations searches indexed allocation records
func (h *StatsHandler) HandleSearchAllocations(c *gin.Context) {
	if h.elastic == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "allocation search is not configured"})
		return
	}

	query := map[string]interface{}{"query": map[string]interface{}{"match_all": map[string]interface{}{}}}
	if group := c.Query("blood_group"); group != "" {
		query["query"] = map[string]interface{}{
			"term": map[string]interface{}{"blood_group": group},
		}
	}

	hits, err := h.elastic.SearchAllocations(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"allocations": hits})
}

// RegisterRoutes registers the handler's routes
func (h *StatsHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/api/stats", h.HandleStats)
	router.GET("/api/allocations/search", h.HandleSearchAllocations)
}
