package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/bloodbank/services/bank/config"
	"example.com/bloodbank/services/bank/internal/api/handlers"
	"example.com/bloodbank/services/bank/internal/domain"
	"example.com/bloodbank/services/bank/internal/metrics"
	"example.com/bloodbank/services/bank/internal/repositories"
	"example.com/bloodbank/services/bank/internal/search"
	"example.com/bloodbank/services/bank/internal/services"
	"example.com/bloodbank/services/bank/internal/tracing"
)

// Deps carries everything the HTTP server exposes
type Deps struct {
	Allocations *services.AllocationService
	Inventory   *services.InventoryService
	Requests    *services.RequestService
	Stats       *services.StatsService
	Donors      *repositories.DonorRepository
	Recipients  *repositories.RecipientRepository
	Hospitals   *repositories.HospitalRepository
	Admins      *repositories.AdminRepository
	Elastic     *search.ElasticClient
	Metrics     *metrics.Metrics
	Tracer      tracing.Tracer
}

// Server represents the HTTP server
type Server struct {
	config     config.Config
	router     *gin.Engine
	httpServer *http.Server
	deps       Deps
}

// NewServer creates a new HTTP server
func NewServer(cfg config.Config, deps Deps) *Server {
	server := &Server{
		config: cfg,
		deps:   deps,
	}

	registerValidators()

	router := server.setupRouter()
	server.router = router

	httpServer := &http.Server{
		Addr:    cfg.ServerAddress,
		Handler: router,
	}
	server.httpServer = httpServer

	return server
}

// registerValidators wires custom binding validators into gin's validator
func registerValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("bloodgroup", func(fl validator.FieldLevel) bool {
			return domain.IsValidBloodGroup(fl.Field().String())
		})
	}
}

// setupRouter configures the HTTP router
func (s *Server) setupRouter() *gin.Engine {
	router := gin.Default()

	// Recovery middleware
	router.Use(gin.Recovery())

	handlers.NewAllocationHandler(s.deps.Allocations, s.deps.Tracer).RegisterRoutes(router)
	handlers.NewInventoryHandler(s.deps.Inventory).RegisterRoutes(router)
	handlers.NewRequestHandler(s.deps.Requests).RegisterRoutes(router)
	handlers.NewDonorHandler(s.deps.Donors).RegisterRoutes(router)
	handlers.NewRecipientHandler(s.deps.Recipients, s.deps.Requests).RegisterRoutes(router)
	handlers.NewHospitalHandler(s.deps.Hospitals).RegisterRoutes(router)
	handlers.NewAdminHandler(s.deps.Admins).RegisterRoutes(router)
	handlers.NewStatsHandler(s.deps.Stats, s.deps.Elastic).RegisterRoutes(router)
	handlers.NewMetricsHandler(s.deps.Metrics).RegisterRoutes(router)

	return router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Info().Str("address", s.config.ServerAddress).Msg("Starting HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "HTTP server error")
	}

	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "HTTP server shutdown error")
	}

	log.Info().Msg("HTTP server shut down successfully")
	return nil
}
