package main

import (
	"context"
	"flag"
	"log"

	"volumeBreakoutBot/config"
	"volumeBreakoutBot/internal/adapters/logger"
	"volumeBreakoutBot/internal/adapters/sqlite"
	"volumeBreakoutBot/internal/strategy/analytics"
)

// report prints performance metrics computed from the recorded trade history.
func main() {
	limit := flag.Int("limit", 1000, "Maximum number of recent trades to analyze")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	appLogger := logger.NewStdLogger(cfg.LogLevel)
	ctx := context.Background()

	repo, err := sqlite.NewRepository(sqlite.Config{DBPath: cfg.DBPath, Logger: appLogger})
	if err != nil {
		log.Fatalf("FATAL: Failed to open trade repository: %v", err)
	}
	defer repo.Close()

	trades, err := repo.FindBySymbol(ctx, cfg.Symbol, *limit)
	if err != nil {
		appLogger.Error(ctx, err, "Failed to load trade history")
		log.Fatalf("FATAL: Failed to load trade history: %v", err)
	}
	if len(trades) == 0 {
		appLogger.Info(ctx, "No recorded trades for symbol", map[string]interface{}{"symbol": cfg.Symbol})
		return
	}

	metrics := analytics.AnalyzeTrades(trades)
	appLogger.Info(ctx, "Trade performance", map[string]interface{}{
		"symbol":           cfg.Symbol,
		"totalTrades":      metrics.TotalTrades,
		"winRate":          metrics.WinRate,
		"totalPNL":         metrics.TotalPNL,
		"profitFactor":     metrics.ProfitFactor,
		"expectancy":       metrics.Expectancy,
		"avgWin":           metrics.AverageWin,
		"avgLoss":          metrics.AverageLoss,
		"maxWinStreak":     metrics.MaxConsecutiveWins,
		"maxLossStreak":    metrics.MaxConsecutiveLosses,
		"avgHoldingPeriod": metrics.AverageTradeDuration.String(),
	})
	for reason, pnl := range metrics.PNLByCloseReason {
		appLogger.Info(ctx, "PNL by close reason", map[string]interface{}{
			"reason": reason,
			"pnl":    pnl,
		})
	}

	total, err := repo.TotalRealizedPNL(ctx)
	if err != nil {
		appLogger.Error(ctx, err, "Failed to compute total realized PNL")
		return
	}
	appLogger.Info(ctx, "Total realized PNL across all symbols", map[string]interface{}{"pnl": total})
}
