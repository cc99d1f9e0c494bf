package main

import (
	"context"
	"flag"
	"log"
	"time"

	"volumeBreakoutBot/config"
	"volumeBreakoutBot/internal/adapters/logger"
	"volumeBreakoutBot/internal/adapters/simulated"
	"volumeBreakoutBot/internal/adapters/sqlite"
	"volumeBreakoutBot/internal/app"
	"volumeBreakoutBot/internal/positions"
	"volumeBreakoutBot/internal/strategy/breakout"
)

// papertrader runs the full strategy loop against a synthetic market, so the
// breakout rules and position lifecycle can be observed without API keys or
// network access. One synthetic kline is emitted per tick.
func main() {
	symbol := flag.String("symbol", "BTCUSDT", "Symbol label for the synthetic market")
	startPrice := flag.Float64("start-price", 100000, "Initial price of the synthetic market")
	baseVolume := flag.Float64("base-volume", 1000, "Typical per-kline volume")
	balance := flag.Float64("balance", 10000, "Starting quote balance")
	tick := flag.Duration("tick", time.Second, "Wall-clock time between synthetic klines")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	dbPath := flag.String("db", "./data/paper_trading.db", "SQLite path for the trade history")
	logLevel := flag.String("log-level", "INFO", "Log level (DEBUG, INFO, WARN, ERROR)")

	volumePeriod := flag.Int("volume-period", 30, "Rolling window for the volume average")
	volumeMultiplier := flag.Float64("volume-multiplier", 2.0, "Volume breakout threshold")
	priceChange := flag.Float64("price-change", 1.5, "Price breakout threshold in percent")
	capitalUsage := flag.Float64("capital-usage", 10.0, "Percent of balance per entry/add")
	addThreshold := flag.Float64("add-threshold", 2.0, "Percent gain that triggers a scale-in")
	stopLoss := flag.Float64("stop-loss", 3.0, "Trailing stop in percent from the peak")
	maxPositions := flag.Int("max-positions", 3, "Concurrent open-position cap")
	flag.Parse()

	appLogger := logger.NewStdLogger(logger.ParseLevel(*logLevel))
	ctx := context.Background()

	params := breakout.Params{
		VolumePeriod:         *volumePeriod,
		VolumeMultiplier:     *volumeMultiplier,
		PriceChangeThreshold: *priceChange,
		CapitalUsagePercent:  *capitalUsage,
		AddPositionThreshold: *addThreshold,
		StopLossThreshold:    *stopLoss,
		MaxPositions:         *maxPositions,
		MinOrderSize:         0.0001,
		MaxOrderSize:         1.0,
	}

	repo, err := sqlite.NewRepository(sqlite.Config{DBPath: *dbPath, Logger: appLogger})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize trade repository: %v", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(ctx, err, "Error closing trade repository")
		}
	}()

	exchange, err := simulated.New(simulated.Config{
		Logger:       appLogger,
		StartPrice:   *startPrice,
		BaseVolume:   *baseVolume,
		QuoteAsset:   "USDT",
		QuoteBalance: *balance,
		TickInterval: *tick,
		Seed:         *seed,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize simulated exchange: %v", err)
	}

	detector, err := breakout.NewDetector(params, appLogger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize breakout detector: %v", err)
	}

	manager, err := positions.NewManager(positions.Config{
		Detector:  detector,
		Logger:    appLogger,
		Exchange:  exchange,
		TradeRepo: repo,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize position manager: %v", err)
	}

	cfg := &config.Config{
		Symbol:         *symbol,
		Interval:       "1m",
		QuoteAsset:     "USDT",
		Strategy:       params,
		StatusInterval: 30 * time.Second,
	}

	service, err := app.NewTradingService(cfg, appLogger, exchange, detector, manager)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize trading service: %v", err)
	}
	// Paper positions have no value once the process exits
	service.SetCloseOnStop(true)

	appLogger.Info(ctx, "Paper trader starting", map[string]interface{}{
		"symbol":     *symbol,
		"startPrice": *startPrice,
		"balance":    *balance,
		"tick":       tick.String(),
	})
	if err := service.Start(ctx); err != nil {
		log.Fatalf("FATAL: Paper trader exited with error: %v", err)
	}

	pnl, err := repo.TotalRealizedPNL(ctx)
	if err != nil {
		appLogger.Error(ctx, err, "Failed to read total realized PNL")
		return
	}
	appLogger.Info(ctx, "Paper trader finished", map[string]interface{}{"totalRealizedPNL": pnl})
}
