package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"net/http"
	"time"

	"nsePaperTracker/config"
	"nsePaperTracker/internal/adapters/logger"
	"nsePaperTracker/internal/adapters/sqlite"
	"nsePaperTracker/internal/adapters/yahoo"
	"nsePaperTracker/internal/app"
	"nsePaperTracker/internal/engine"
	"nsePaperTracker/internal/metrics"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Initialize Trade Store (Database Adapter)
	store, err := sqlite.NewStore(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize trade store")
		log.Fatalf("FATAL: Failed to initialize trade store: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			appLogger.Error(context.Background(), err, "Error closing trade store")
		}
	}()
	appLogger.Info(context.Background(), "Trade store initialized", map[string]interface{}{"path": cfg.DBPath})

	// 4. Initialize Market Data Provider (Yahoo Finance Adapter)
	provider, err := yahoo.New(yahoo.Config{
		BaseURL:       cfg.ProviderBaseURL,
		Logger:        appLogger,
		Timeout:       cfg.ProviderTimeout,
		MaxAttempts:   cfg.MaxAttempts,
		MinRetryDelay: cfg.MinRetryDelay,
		MaxRetryDelay: cfg.MaxRetryDelay,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize market data provider")
		log.Fatalf("FATAL: Failed to initialize market data provider: %v", err)
	}
	appLogger.Info(context.Background(), "Market data provider initialized")

	// 5. Initialize Metrics
	trackerMetrics := metrics.New()
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", trackerMetrics.Handler())
		metricsServer := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				appLogger.Error(context.Background(), err, "Metrics server stopped")
			}
		}()
		appLogger.Info(context.Background(), "Metrics endpoint listening", map[string]interface{}{"addr": cfg.MetricsAddr})
	}

	// 6. Initialize Lifecycle Engine
	lifecycleEngine, err := engine.New(engine.Config{
		Provider:             provider,
		Store:                store,
		Logger:               appLogger,
		Metrics:              trackerMetrics,
		MaxConcurrentFetches: cfg.MaxConcurrentFetches,
		SwingEntrySessions:   cfg.SwingEntrySessions,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize lifecycle engine")
		log.Fatalf("FATAL: Failed to initialize lifecycle engine: %v", err)
	}
	appLogger.Info(context.Background(), "Lifecycle engine initialized")

	// 7. Initialize Application Service
	trackerService, err := app.NewTrackerService(app.Config{
		Logger:       appLogger,
		Store:        store,
		Engine:       lifecycleEngine,
		PollInterval: cfg.PollInterval,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize tracker service")
		log.Fatalf("FATAL: Failed to initialize tracker service: %v", err)
	}
	appLogger.Info(context.Background(), "Tracker service initialized")

	// 8. Start the Service
	if err := trackerService.Start(context.Background()); err != nil {
		appLogger.Error(context.Background(), err, "Tracker service exited with error")
		log.Fatalf("FATAL: Tracker service exited with error: %v", err)
	}

	appLogger.Info(context.Background(), "Application finished gracefully.")
}
