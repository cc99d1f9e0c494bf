package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"volumeBreakoutBot/config"
	"volumeBreakoutBot/internal/adapters/binanceclient"
	"volumeBreakoutBot/internal/adapters/logger"
	"volumeBreakoutBot/internal/strategy/indicators"
	"volumeBreakoutBot/internal/utils"
)

// fetch_klines pulls recent klines for the configured symbol, annotates them
// with the volume-breakout indicators, and writes the result to CSV. Useful
// for eyeballing how often the thresholds would have fired before running
// the strategy live.
func main() {
	limit := flag.Int("limit", 500, "Number of recent klines to fetch (max 1000)")
	out := flag.String("out", "", "Output CSV path (default data/<symbol>_<interval>_<date>.csv)")
	flag.Parse()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Initialize Exchange Client (Binance Adapter)
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

	klines, err := binanceClient.GetKlines(context.Background(), cfg.Symbol, cfg.Interval, *limit)
	if err != nil {
		appLogger.Error(context.Background(), err, "Error fetching klines")
		log.Fatalf("Error fetching klines: %v", err)
	}
	appLogger.Info(context.Background(), "Fetched klines", map[string]interface{}{"symbol": cfg.Symbol, "count": len(klines)})

	points, err := indicators.Compute(klines, cfg.Strategy.VolumePeriod)
	if err != nil {
		appLogger.Error(context.Background(), err, "Error computing indicators")
		log.Fatalf("Error computing indicators: %v", err)
	}

	// Count how many klines would have fired both breakout rules
	breakouts := 0
	for i, p := range points {
		if p.Defined() && p.VolumeRatio >= cfg.Strategy.VolumeMultiplier && p.PriceChangePct >= cfg.Strategy.PriceChangeThreshold {
			breakouts++
			appLogger.Info(context.Background(), "Breakout candle", map[string]interface{}{
				"closeTime":   klines[i].CloseTime,
				"close":       klines[i].Close,
				"volumeRatio": p.VolumeRatio,
				"priceChange": p.PriceChangePct,
			})
		}
	}
	appLogger.Info(context.Background(), "Scan complete", map[string]interface{}{"breakouts": breakouts, "scanned": len(klines)})

	filename := *out
	if filename == "" {
		filename = fmt.Sprintf("data/%s_%s_%s.csv", cfg.Symbol, cfg.Interval, time.Now().Format("20060102"))
	}
	if err := utils.WriteAnnotatedKlinesToCSV(klines, points, filename); err != nil {
		appLogger.Error(context.Background(), err, "Error writing CSV")
		log.Fatalf("Error writing CSV: %v", err)
	}
	appLogger.Info(context.Background(), "Saved annotated klines", map[string]interface{}{"filename": filename})
}
