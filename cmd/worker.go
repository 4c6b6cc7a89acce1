package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"example.com/bloodbank/services/bank/config"
	"example.com/bloodbank/services/bank/internal/messaging"
	"example.com/bloodbank/services/bank/internal/metrics"
	"example.com/bloodbank/services/bank/internal/repositories"
	"example.com/bloodbank/services/bank/internal/services"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background worker",
	Long:  `Start the background worker that periodically expires donation units past their shelf life`,
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
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

	// Create an error group to manage goroutines
	g, ctx := errgroup.WithContext(ctx)

	// Initialize database connections
	db, readOnlyDB, err := initDatabases(cfg)
	if err != nil {
		return err
	}

	// Initialize Service Bus publisher
	publisher, err := messaging.NewPublisher(cfg.ServiceBus)
	if err != nil {
		return err
	}
	defer publisher.Close()

	// Initialize metrics
	metricsCollector := metrics.NewMetrics()

	// Initialize the inventory service
	inventoryRepo := repositories.NewInventoryRepository(db, readOnlyDB)
	donorRepo := repositories.NewDonorRepository(db, readOnlyDB)
	inventoryService := services.NewInventoryService(
		inventoryRepo, donorRepo, publisher, metricsCollector, cfg.Inventory.ShelfLife)

	// Start the expiry sweep cron job
	g.Go(func() error {
		log.Info().
			Dur("interval", cfg.Inventory.SweepInterval).
			Msg("Starting expiry sweep cron job")

		scheduler, err := gocron.NewScheduler()
		if err != nil {
			return err
		}

		_, err = scheduler.NewJob(
			gocron.DurationJob(cfg.Inventory.SweepInterval),
			gocron.NewTask(func() {
				count, err := inventoryService.ExpireStale(ctx, time.Now())
				if err != nil {
					log.Error().Err(err).Msg("Failed to expire stale donation units")
					return
				}
				if count > 0 {
					log.Info().Int64("count", count).Msg("Expired stale donation units")
				}
			}),
		)
		if err != nil {
			return err
		}

		scheduler.Start()

		// Wait for context cancellation
		<-ctx.Done()

		return scheduler.Shutdown()
	})

	// Wait for any goroutine to exit
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Worker error")
		return err
	}

	log.Info().Msg("Worker shutting down gracefully")
	return nil
}
