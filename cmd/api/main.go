package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/timi233/channel-target-api/internal/auth"
	"github.com/timi233/channel-target-api/internal/config"
	"github.com/timi233/channel-target-api/internal/database"
	"github.com/timi233/channel-target-api/internal/http/handler"
	"github.com/timi233/channel-target-api/internal/http/middleware"
	"github.com/timi233/channel-target-api/internal/http/router"
	"github.com/timi233/channel-target-api/internal/jobs"
	"github.com/timi233/channel-target-api/internal/logger"
	"github.com/timi233/channel-target-api/internal/repository"
	"github.com/timi233/channel-target-api/internal/service"
	"go.uber.org/zap"
)

// @title Channel Target API
// @version 1.0
// @description Target allocation and completion aggregation for channel sales

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&cfg.Logging, &cfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Environment),
		zap.Int("port", cfg.App.Port),
	)

	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Repositories
	distributorRepo := repository.NewDistributorRepository(db)
	targetRepo := repository.NewTargetRepository(db)
	allocationRepo := repository.NewAllocationRepository(db)

	// Services
	weightResolver := service.NewWeightResolver(&cfg.Allocation)
	distributorService := service.NewDistributorService(distributorRepo, log)
	targetService := service.NewTargetService(targetRepo, log)
	allocationService := service.NewAllocationService(
		targetRepo, allocationRepo, distributorRepo, weightResolver, log, db)

	// Middleware
	authMiddleware := auth.NewMiddleware(cfg, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	// Handlers
	targetHandler := handler.NewTargetHandler(targetService, log)
	allocationHandler := handler.NewAllocationHandler(allocationService, log)
	distributorHandler := handler.NewDistributorHandler(distributorService, log)

	rt := router.NewRouter(
		cfg,
		log,
		db,
		authMiddleware,
		rateLimiter,
		targetHandler,
		allocationHandler,
		distributorHandler,
	)

	// Background reconciliation
	var scheduler *jobs.Scheduler
	if cfg.Jobs.ReconcileEnabled {
		scheduler = jobs.NewScheduler(log)
		reconcileJob := jobs.NewReconcileJob(targetRepo, allocationService, &cfg.Jobs, log)
		if err := reconcileJob.Register(scheduler); err != nil {
			log.Error("Failed to register reconcile job", zap.Error(err))
		} else {
			scheduler.Start()
			log.Info("Scheduler started",
				zap.String("cron_expr", cfg.Jobs.ReconcileCron),
				zap.Duration("timeout", cfg.Jobs.ReconcileTimeoutDuration()),
			)
		}
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		if scheduler != nil {
			ctx := scheduler.Stop()
			<-ctx.Done()
			log.Info("Scheduler stopped")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
