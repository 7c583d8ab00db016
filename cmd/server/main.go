// Package main is the entry point for the tailrisk estimation service.
// The service estimates quantile-based risk measures (VaR, CVaR, EVaR)
// over analytic return distributions, using either classical Monte Carlo
// sampling or iterative amplitude estimation, and records cost-scaling
// sweeps that compare the two.
//
// Startup sequence:
// 1. Load configuration from environment variables
// 2. Initialize structured logging
// 3. Open the estimates database and apply module schemas
// 4. Wire repositories, the event broadcaster, and services
// 5. Register scheduled jobs (nightly calibration sweep, DB maintenance)
// 6. Start the HTTP server and wait for a shutdown signal
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aristath/tailrisk/internal/config"
	"github.com/aristath/tailrisk/internal/database"
	"github.com/aristath/tailrisk/internal/events"
	"github.com/aristath/tailrisk/internal/modules/risk"
	"github.com/aristath/tailrisk/internal/modules/sweep"
	"github.com/aristath/tailrisk/internal/scheduler"
	"github.com/aristath/tailrisk/internal/server"
	"github.com/aristath/tailrisk/pkg/logger"
)

func main() {
	// Load configuration first to get log level
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Str("data_dir", cfg.DataDir).Msg("Starting tailrisk")

	// Open the estimates database
	db, err := database.New(database.Config{
		Path: filepath.Join(cfg.DataDir, "estimates.db"),
		Name: "estimates",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open estimates database")
	}
	defer db.Close()

	// Each module owns its schema
	if err := risk.InitSchema(db.Conn()); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize risk schema")
	}
	if err := sweep.InitSchema(db.Conn()); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize sweep schema")
	}

	// Wire repositories, event broadcaster and services
	eventBus := events.NewBroadcaster(log)
	riskRepo := risk.NewRepository(db.Conn(), log)
	defaults := risk.Defaults{
		Epsilon:    cfg.Estimation.DefaultEpsilon,
		Confidence: cfg.Estimation.DefaultConfidence,
		Shots:      cfg.Estimation.ShotsPerRound,
		MaxSamples: cfg.Estimation.MaxClassicalSamples,
	}
	riskService := risk.NewService(riskRepo, eventBus, log)
	riskService.SetDefaults(defaults)
	sweepRepo := sweep.NewRepository(db.Conn(), log)
	sweepService := sweep.NewService(sweepRepo, eventBus, log)
	sweepService.SetRiskDefaults(defaults)

	// Scheduled jobs: nightly calibration sweep and WAL maintenance
	sched := scheduler.New(log)
	if cfg.Sweep.Enabled {
		calibration := sweep.NewCalibrationJob(sweepService, log)
		calibration.SetWorkers(cfg.Sweep.Workers)
		if err := sched.AddJob(cfg.Sweep.Schedule, calibration); err != nil {
			log.Fatal().Err(err).Msg("Failed to register calibration sweep job")
		}
	}
	if err := sched.AddJob("0 30 3 * * *", database.NewMaintenanceJob(db, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register database maintenance job")
	}
	sched.Start()

	// Initialize HTTP server
	srv := server.New(server.Config{
		Port:         cfg.Port,
		Log:          log,
		DB:           db,
		Config:       cfg,
		DevMode:      cfg.DevMode,
		RiskService:  riskService,
		SweepService: sweepService,
		EventBus:     eventBus,
		Scheduler:    sched,
	})

	// Start server in goroutine so shutdown handling stays on the main thread
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	sched.Stop()

	// Give the HTTP server up to 10 seconds to finish in-flight requests
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
