package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"volumeBreakoutBot/config"
	"volumeBreakoutBot/internal/domain"
	"volumeBreakoutBot/internal/ports"
	"volumeBreakoutBot/internal/positions"
	"volumeBreakoutBot/internal/strategy/breakout"
	"volumeBreakoutBot/internal/strategy/indicators"
)

const (
	maxKlineCacheSize = 200 // Limit cache size to avoid memory issues
)

// TradingService orchestrates the bot: it keeps the kline cache warm, feeds
// each final kline through the breakout detector, and drives the position
// manager's entry/add/exit cycle.
type TradingService struct {
	cfg      *config.Config
	logger   ports.Logger
	exchange ports.ExchangeClient
	detector *breakout.Detector
	manager  *positions.Manager

	// State fields
	mu            sync.Mutex // Protects access to state fields below
	klineCache    []*domain.Kline
	lastPrice     float64
	closeOnStop   bool
	cyclesSkipped int
}

// NewTradingService creates a new application service instance.
func NewTradingService(
	cfg *config.Config,
	logger ports.Logger,
	exchange ports.ExchangeClient,
	detector *breakout.Detector,
	manager *positions.Manager,
) (*TradingService, error) {
	if cfg == nil || logger == nil || exchange == nil || detector == nil || manager == nil {
		return nil, fmt.Errorf("missing required dependencies for TradingService")
	}

	return &TradingService{
		cfg:        cfg,
		logger:     logger,
		exchange:   exchange,
		detector:   detector,
		manager:    manager,
		klineCache: make([]*domain.Kline, 0, maxKlineCacheSize),
	}, nil
}

// SetCloseOnStop makes the service liquidate all open positions during
// graceful shutdown instead of leaving them on the venue.
func (s *TradingService) SetCloseOnStop(enabled bool) {
	s.closeOnStop = enabled
}

// Start begins the trading bot's main loop. It blocks until the context is
// canceled, a shutdown signal arrives, or the kline stream dies for good.
func (s *TradingService) Start(ctx context.Context) error {
	s.logger.Info(ctx, "Starting Trading Service...", map[string]interface{}{
		"symbol":   s.cfg.Symbol,
		"interval": s.cfg.Interval,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			s.logger.Info(ctx, "Received shutdown signal", map[string]interface{}{"signal": sig.String()})
			cancel()
		case <-ctx.Done():
		}
	}()

	// --- Initialization Steps ---
	// 1. Set server time (important for signed API calls)
	if err := s.exchange.SetServerTime(ctx); err != nil {
		s.logger.Error(ctx, err, "Failed to synchronize server time")
		return fmt.Errorf("failed to set server time: %w", err)
	}
	s.logger.Info(ctx, "Server time synchronized")

	// 2. Load initial klines so the volume average is defined from the start
	requiredPoints := s.detector.RequiredDataPoints()
	warmup := requiredPoints
	if warmup > maxKlineCacheSize {
		warmup = maxKlineCacheSize
	}
	s.logger.Info(ctx, "Loading initial klines", map[string]interface{}{"requiredPoints": requiredPoints})
	initialKlines, err := s.exchange.GetKlines(ctx, s.cfg.Symbol, s.cfg.Interval, warmup)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to load initial klines")
		return fmt.Errorf("failed to load initial klines: %w", err)
	}
	if len(initialKlines) < requiredPoints {
		// Not fatal: the entry rule simply stays undefined until the cache
		// fills up from the live stream.
		s.logger.Warn(ctx, "Insufficient historical data, entry signals deferred until warm", map[string]interface{}{
			"loaded":   len(initialKlines),
			"required": requiredPoints,
		})
	}
	s.klineCache = append(s.klineCache, initialKlines...)
	s.logger.Info(ctx, "Loaded initial klines", map[string]interface{}{"count": len(s.klineCache)})

	// --- Start WebSocket Stream ---
	wsDoneCh, wsStopCh, err := s.exchange.StreamKlines(ctx, s.cfg.Symbol, s.cfg.Interval, s.handleKlineEvent, s.handleWsError)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to start kline stream")
		return fmt.Errorf("failed to start kline stream: %w", err)
	}
	s.logger.Info(ctx, "Kline stream started", map[string]interface{}{"symbol": s.cfg.Symbol, "interval": s.cfg.Interval})

	// --- Periodic status reporting ---
	var statusC <-chan time.Time
	if s.cfg.StatusInterval > 0 {
		ticker := time.NewTicker(s.cfg.StatusInterval)
		defer ticker.Stop()
		statusC = ticker.C
	}

	// --- Main Loop ---
	// The real work happens in handleKlineEvent; here we only wait for
	// shutdown or the stream dying.
	for {
		select {
		case <-statusC:
			s.logStatus(ctx)
		case <-ctx.Done():
			s.logger.Info(ctx, "Main context cancelled, initiating shutdown...")
			select {
			case wsStopCh <- struct{}{}:
				s.logger.Info(ctx, "Stop signal sent to kline stream")
			default:
				s.logger.Warn(ctx, "Failed to send stop signal to kline stream (already closed?)")
			}
			select {
			case <-wsDoneCh:
				s.logger.Info(ctx, "Kline stream shut down gracefully")
			case <-time.After(5 * time.Second):
				s.logger.Warn(ctx, "Timeout waiting for kline stream to shut down")
			}
			s.shutdownPositions()
			s.logger.Info(ctx, "Trading Service stopped.")
			return nil
		case <-wsDoneCh:
			// Stream closed unexpectedly (e.g., max reconnect attempts failed)
			s.logger.Error(ctx, fmt.Errorf("kline stream closed unexpectedly"), "Kline stream stopped")
			return fmt.Errorf("kline stream stopped unexpectedly")
		}
	}
}

// handleKlineEvent processes incoming kline data from the stream.
// This is the core logic loop triggered by new price data.
func (s *TradingService) handleKlineEvent(kline *domain.Kline) {
	// Use a background context for handlers; the stream outlives any request
	ctx := context.Background()
	currentPrice := kline.Close

	s.logger.Debug(ctx, "Received kline event", map[string]interface{}{
		"symbol":    kline.Symbol,
		"interval":  kline.Interval,
		"closeTime": kline.CloseTime,
		"close":     currentPrice,
		"isFinal":   kline.IsFinal,
	})

	// Only act on final klines to avoid evaluating incomplete volume data
	if !kline.IsFinal {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Update kline cache, keep the most recent maxKlineCacheSize elements
	s.klineCache = append(s.klineCache, kline)
	if len(s.klineCache) > maxKlineCacheSize {
		s.klineCache = s.klineCache[len(s.klineCache)-maxKlineCacheSize:]
	}
	s.lastPrice = currentPrice

	ind, err := indicators.Latest(s.klineCache, s.detector.Params().VolumePeriod)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to compute indicators, skipping cycle")
		return
	}

	// A transient balance failure skips this cycle; positions are re-evaluated
	// on the next kline with fresh data.
	balance, err := s.exchange.GetAccountBalance(ctx, s.cfg.QuoteAsset)
	if err != nil {
		s.cyclesSkipped++
		s.logger.Warn(ctx, "Failed to fetch account balance, skipping cycle", map[string]interface{}{
			"asset":         s.cfg.QuoteAsset,
			"cyclesSkipped": s.cyclesSkipped,
		})
		return
	}

	// --- Check Entry Conditions ---
	if signal := s.detector.DetectEntry(ctx, kline, ind); signal != nil {
		s.logger.Info(ctx, "Entry signal detected", map[string]interface{}{
			"symbol":      signal.Symbol,
			"price":       signal.Price,
			"volumeRatio": signal.VolumeRatio,
			"priceChange": signal.PriceChangePct,
		})
		if _, err := s.manager.Open(ctx, signal, balance); err != nil {
			s.logger.Error(ctx, err, "Failed to open position from entry signal")
			// Order failure leaves state unchanged; the next kline re-evaluates.
		}
	}

	// --- Maintain Open Positions ---
	s.manager.UpdateAll(ctx, currentPrice, balance)
}

// handleWsError handles errors reported by the kline stream. Reconnection is
// the adapter's job; this is for errors surfaced during a live connection.
func (s *TradingService) handleWsError(err error) {
	ctx := context.Background()
	s.logger.Error(ctx, err, "Kline stream error reported")
}

// logStatus emits a periodic snapshot of the position book.
func (s *TradingService) logStatus(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastPrice == 0 {
		s.logger.Debug(ctx, "No price observed yet, skipping status report")
		return
	}
	status := s.manager.Status(s.lastPrice)
	fields := map[string]interface{}{
		"positions":     status.PositionsCount,
		"totalInvested": status.TotalInvested,
		"totalPNL":      status.TotalPNL,
		"pnlPercent":    status.PNLPercent,
		"lastPrice":     s.lastPrice,
	}
	s.logger.Info(ctx, "Status report", fields)
	for _, p := range status.Positions {
		s.logger.Info(ctx, "Open position", map[string]interface{}{
			"symbol":        p.Symbol,
			"entryPrice":    p.EntryPrice,
			"quantity":      p.Quantity,
			"highestPrice":  p.HighestPrice,
			"stopLossPrice": p.StopLossPrice,
			"unrealizedPNL": p.UnrealizedPNL,
			"pnlPercent":    p.PNLPercent,
		})
	}
}

// shutdownPositions optionally liquidates the book on graceful stop. Uses a
// fresh context since the main one is already canceled.
func (s *TradingService) shutdownPositions() {
	ctx := context.Background()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.manager.Count() == 0 {
		return
	}
	if !s.closeOnStop {
		s.logger.Warn(ctx, "Shutting down with open positions left on the venue", map[string]interface{}{
			"positions": s.manager.Count(),
		})
		return
	}
	if s.lastPrice == 0 {
		s.logger.Warn(ctx, "No price observed, cannot close positions on shutdown")
		return
	}
	s.logger.Info(ctx, "Closing all open positions on shutdown", map[string]interface{}{"positions": s.manager.Count()})
	s.manager.CloseAll(ctx, s.lastPrice, domain.CloseReasonShutdown)
}
