package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"example.com/bloodbank/services/bank/internal/metrics"
)

// MetricsHandler exposes service metrics and health
type MetricsHandler struct {
	metrics *metrics.Metrics
}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler(m *metrics.Metrics) *MetricsHandler {
	return &MetricsHandler{metrics: m}
}

// HandleMetrics returns all counters, gauges and health checks
func (h *MetricsHandler) HandleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.metrics.GetAllMetrics())
}

// HandleHealth returns overall service health
func (h *MetricsHandler) HandleHealth(c *gin.Context) {
	checks := h.metrics.GetHealthChecks()
	healthy := true
	for _, ok := range checks {
		if !ok {
			healthy = false
			break
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"healthy": healthy,
		"checks":  checks,
		"uptime":  h.metrics.GetUptimeSeconds(),
	})
}

// RegisterRoutes registers the handler's routes
func (h *MetricsHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/metrics", h.HandleMetrics)
	router.GET("/health", h.HandleHealth)
}
