package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/verdant-ops/gardenledger/internal/auth"
	"github.com/verdant-ops/gardenledger/internal/config"
	"github.com/verdant-ops/gardenledger/internal/database"
	"github.com/verdant-ops/gardenledger/internal/http/handler"
	"github.com/verdant-ops/gardenledger/internal/http/middleware"
	"github.com/verdant-ops/gardenledger/internal/http/router"
	"github.com/verdant-ops/gardenledger/internal/jobs"
	"github.com/verdant-ops/gardenledger/internal/logger"
	"github.com/verdant-ops/gardenledger/internal/repository"
	"github.com/verdant-ops/gardenledger/internal/service"
	"github.com/verdant-ops/gardenledger/internal/storage"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	// In staging/production with USE_AZURE_KEY_VAULT=true secrets come from Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	db, err := database.NewDatabase(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		log.Info("Database schema auto-migrated", zap.String("driver", cfg.Database.Driver))
	}

	photoStorage, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	incomeCategoryID, err := optionalUUID(cfg.Maintenance.IncomeCategoryID)
	if err != nil {
		return fmt.Errorf("invalid maintenance.incomeCategoryId: %w", err)
	}
	expenseCategoryID, err := optionalUUID(cfg.Maintenance.ExpenseCategoryID)
	if err != nil {
		return fmt.Errorf("invalid maintenance.expenseCategoryId: %w", err)
	}

	// Repositories
	planRepo := repository.NewPlanRepository(db)
	executionRepo := repository.NewExecutionRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)

	// Services
	clock := service.SystemClock{}
	storeTimeout := cfg.Maintenance.StoreTimeoutDuration()

	planService := service.NewPlanService(planRepo, storeTimeout, log)
	executionService := service.NewExecutionService(planRepo, executionRepo, clock, storeTimeout, log)
	schedulerService := service.NewSchedulerService(
		planRepo,
		executionRepo,
		clock,
		cfg.Maintenance.OverdueThresholdDays,
		cfg.Maintenance.SummaryWindowMonths,
		storeTimeout,
		log,
	)
	closureService := service.NewClosureService(ledgerRepo, executionService, clock, incomeCategoryID, storeTimeout, log)
	reconciliationService := service.NewReconciliationService(ledgerRepo, storeTimeout, log)
	inventoryService := service.NewInventoryService(movementRepo, ledgerRepo, reconciliationService, clock, expenseCategoryID, storeTimeout, log)
	photoService := service.NewPhotoService(photoStorage, executionService, log)

	// HTTP
	rt := router.NewRouter(
		cfg,
		log,
		auth.NewMiddleware(cfg, log),
		middleware.NewAccountScopeMiddleware(log),
		middleware.NewRateLimiter(&cfg.RateLimit, log),
		router.Handlers{
			Health:    handler.NewHealthHandler(db, log),
			Plan:      handler.NewPlanHandler(planService, schedulerService, log),
			Execution: handler.NewExecutionHandler(executionService, log),
			Closure:   handler.NewClosureHandler(closureService, log),
			Inventory: handler.NewInventoryHandler(inventoryService, log),
			Photo:     handler.NewPhotoHandler(photoService, cfg.Storage.MaxUploadSizeMB, log),
		},
	)

	// Background jobs
	var scheduler *jobs.Scheduler
	if cfg.Maintenance.DigestEnabled {
		scheduler = jobs.NewScheduler(log, time.UTC, 5*time.Minute)
		if err := scheduler.Add(cfg.Maintenance.DigestCron, jobs.NewOverdueDigestJob(schedulerService, log)); err != nil {
			log.Error("Failed to register overdue digest job", zap.Error(err))
			scheduler = nil
		} else {
			scheduler.Start()
		}
	} else {
		log.Info("Overdue digest disabled")
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
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		if scheduler != nil {
			<-scheduler.Stop().Done()
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

func optionalUUID(raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
