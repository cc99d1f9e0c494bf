package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up

	"volumeBreakoutBot/config"
	"volumeBreakoutBot/internal/adapters/binanceclient"
	"volumeBreakoutBot/internal/adapters/logger"
	"volumeBreakoutBot/internal/adapters/sqlite"
	"volumeBreakoutBot/internal/app"
	"volumeBreakoutBot/internal/positions"
	"volumeBreakoutBot/internal/strategy/breakout"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Initialize Repository (Database Adapter)
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize database repository")
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(context.Background(), err, "Error closing database repository")
		}
	}()
	appLogger.Info(context.Background(), "Database repository initialized")

	// 4. Initialize Exchange Client (Binance Adapter)
	binanceClient, err := binanceclient.New(binanceclient.Config{
		APIKey:               cfg.APIKey,
		SecretKey:            cfg.SecretKey,
		UseTestnet:           cfg.IsTestnet,
		Logger:               appLogger,
		ReconnectDelay:       cfg.ReconnectDelay,
		MaxReconnectAttempts: cfg.MaxReconnectAttempts,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize Binance client")
		log.Fatalf("FATAL: Failed to initialize Binance client: %v", err)
	}
	appLogger.Info(context.Background(), "Binance client initialized")

	// 5. Initialize Breakout Detector
	detector, err := breakout.NewDetector(cfg.Strategy, appLogger)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize breakout detector")
		log.Fatalf("FATAL: Failed to initialize breakout detector: %v", err)
	}
	appLogger.Info(context.Background(), "Breakout detector initialized")

	// 6. Initialize Position Manager
	manager, err := positions.NewManager(positions.Config{
		Detector:  detector,
		Logger:    appLogger,
		Exchange:  binanceClient,
		TradeRepo: repo,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize position manager")
		log.Fatalf("FATAL: Failed to initialize position manager: %v", err)
	}
	appLogger.Info(context.Background(), "Position manager initialized")

	// 7. Initialize Application Service
	tradingService, err := app.NewTradingService(cfg, appLogger, binanceClient, detector, manager)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize trading service")
		log.Fatalf("FATAL: Failed to initialize trading service: %v", err)
	}
	appLogger.Info(context.Background(), "Trading service initialized")

	// 8. Start the Service
	if err := tradingService.Start(context.Background()); err != nil {
		appLogger.Error(context.Background(), err, "Trading service exited with error")
		log.Fatalf("FATAL: Trading service exited with error: %v", err)
	}

	appLogger.Info(context.Background(), "Application finished gracefully.")
}
