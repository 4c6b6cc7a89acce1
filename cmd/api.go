package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"example.com/bloodbank/services/bank/config"
	"example.com/bloodbank/services/bank/internal/api"
	"example.com/bloodbank/services/bank/internal/cache"
	"example.com/bloodbank/services/bank/internal/messaging"
	"example.com/bloodbank/services/bank/internal/metrics"
	"example.com/bloodbank/services/bank/internal/models"
	"example.com/bloodbank/services/bank/internal/repositories"
	"example.com/bloodbank/services/bank/internal/search"
	"example.com/bloodbank/services/bank/internal/services"
	"example.com/bloodbank/services/bank/internal/tracing"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long:  `Start the HTTP API server handling registry, inventory and allocation endpoints`,
	RunE:  runAPI,
}

func init() {
	rootCmd.AddCommand(apiCmd)
}

func runAPI(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.LoadConfig(cfgDir)
	if err != nil {
		return err
	}

	// Configure logging
	if cfg.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Initialize database connections
	db, readOnlyDB, err := initDatabases(cfg)
	if err != nil {
		return err
	}

	// Initialize cache
	redisCache, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Redis cache, continuing without caching")
	}

	// Initialize tracer
	tracer, err := tracing.NewTracer(cfg.Tracing)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
	}

	// Initialize Elasticsearch client
	elasticClient, err := search.NewElasticClient(cfg.Elastic)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Elasticsearch client, continuing without search functionality")
	}

	// Initialize Service Bus publisher
	publisher, err := messaging.NewPublisher(cfg.ServiceBus)
	if err != nil {
		return err
	}
	defer publisher.Close()

	// Initialize metrics
	metricsCollector := metrics.NewMetrics()

	// Initialize repositories
	inventoryRepo := repositories.NewInventoryRepository(db, readOnlyDB)
	requestRepo := repositories.NewRequestRepository(db, readOnlyDB)
	donorRepo := repositories.NewDonorRepository(db, readOnlyDB)
	recipientRepo := repositories.NewRecipientRepository(db, readOnlyDB)
	hospitalRepo := repositories.NewHospitalRepository(db, readOnlyDB)
	adminRepo := repositories.NewAdminRepository(db, readOnlyDB)

	// Initialize services
	allocationService := services.NewAllocationService(
		inventoryRepo, requestRepo, publisher, elasticClient, metricsCollector, tracer)
	inventoryService := services.NewInventoryService(
		inventoryRepo, donorRepo, publisher, metricsCollector, cfg.Inventory.ShelfLife)
	requestService := services.NewRequestService(requestRepo, recipientRepo, hospitalRepo)
	statsService := services.NewStatsService(
		inventoryRepo, requestRepo, donorRepo, recipientRepo, redisCache, cfg.Inventory.StatsCacheTTL)

	// Initialize and start the server
	server := api.NewServer(cfg, api.Deps{
		Allocations: allocationService,
		Inventory:   inventoryService,
		Requests:    requestService,
		Stats:       statsService,
		Donors:      donorRepo,
		Recipients:  recipientRepo,
		Hospitals:   hospitalRepo,
		Admins:      adminRepo,
		Elastic:     elasticClient,
		Metrics:     metricsCollector,
		Tracer:      tracer,
	})

	// Start the server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Error().Err(err).Msg("Server error")
		}
	}()

	// Wait for termination signal
	<-ctx.Done()

	// Shutdown the server
	if err := server.Shutdown(context.Background()); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	log.Info().Msg("Shutting down API server")
	return nil
}

func initDatabases(cfg config.Config) (*gorm.DB, *gorm.DB, error) {
	// Initialize write database
	db, err := gorm.Open(postgres.Open(cfg.DB.DSN), &gorm.Config{})
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to connect to write database")
	}

	// Initialize read-only database
	readOnlyDB, err := gorm.Open(postgres.Open(cfg.DB.ReadOnlyDSN), &gorm.Config{})
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to connect to read-only database")
	}

	// Auto-migrate only the write database
	if err := models.SetupModels(db); err != nil {
		return nil, nil, errors.Wrap(err, "failed to run migrations")
	}

	// Configure connection pools for both databases
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to get underlying write DB connection")
	}
	sqlDB.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)

	readSqlDB, err := readOnlyDB.DB()
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to get underlying read-only DB connection")
	}

	// Higher limits for read operations
	readSqlDB.SetMaxIdleConns(cfg.DB.MaxIdleConns * 2)
	readSqlDB.SetMaxOpenConns(cfg.DB.MaxOpenConns * 2)
	readSqlDB.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)

	return db, readOnlyDB, nil
}
