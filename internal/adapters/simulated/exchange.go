package simulated

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"volumeBreakoutBot/internal/domain"
	"volumeBreakoutBot/internal/ports"
)

// Exchange is an in-memory paper venue implementing ports.ExchangeClient.
// It feeds a synthetic random-walk kline stream with occasional volume spikes
// and fills market orders instantly against its own last price, so the whole
// strategy loop can run end to end without touching a real exchange.
type Exchange struct {
	logger ports.Logger

	mu           sync.Mutex
	rng          *rand.Rand
	lastPrice    float64
	baseVolume   float64
	quoteAsset   string
	quoteBalance float64
	baseBalance  float64
	orderSeq     int64
	tick         time.Duration
}

// Config holds the simulator settings.
type Config struct {
	Logger ports.Logger

	StartPrice   float64       // Initial price of the synthetic market
	BaseVolume   float64       // Typical per-kline volume
	QuoteAsset   string        // Asset the starting balance is denominated in
	QuoteBalance float64       // Starting balance
	TickInterval time.Duration // Wall-clock time between synthetic klines
	Seed         int64         // RNG seed, 0 means time-based
}

// New creates a paper exchange.
func New(cfg Config) (*Exchange, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for simulated exchange")
	}
	if cfg.StartPrice <= 0 {
		cfg.StartPrice = 100000
	}
	if cfg.BaseVolume <= 0 {
		cfg.BaseVolume = 1000
	}
	if cfg.QuoteAsset == "" {
		cfg.QuoteAsset = "USDT"
	}
	if cfg.QuoteBalance <= 0 {
		cfg.QuoteBalance = 10000
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Exchange{
		logger:       cfg.Logger,
		rng:          rand.New(rand.NewSource(seed)),
		lastPrice:    cfg.StartPrice,
		baseVolume:   cfg.BaseVolume,
		quoteAsset:   cfg.QuoteAsset,
		quoteBalance: cfg.QuoteBalance,
		tick:         cfg.TickInterval,
	}, nil
}

// SetServerTime is a no-op for the simulator.
func (e *Exchange) SetServerTime(ctx context.Context) error { return nil }

// Ping is a no-op for the simulator.
func (e *Exchange) Ping(ctx context.Context) error { return nil }

// GetTickerPrice returns the simulator's last traded price.
func (e *Exchange) GetTickerPrice(ctx context.Context, symbol string) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastPrice, nil
}

// GetAccountBalance returns the paper balance for the given asset.
func (e *Exchange) GetAccountBalance(ctx context.Context, asset string) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if asset == e.quoteAsset {
		return e.quoteBalance, nil
	}
	return e.baseBalance, nil
}

// GetKlines synthesizes a historical series ending at the current price.
// The series is generated backwards-consistent: its final close equals the
// simulator's live price so the stream continues seamlessly.
func (e *Exchange) GetKlines(ctx context.Context, symbol string, interval string, limit int) ([]*domain.Kline, error) {
	step, err := intervalDuration(interval)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	klines := make([]*domain.Kline, limit)
	closeTime := time.Now().UTC().Truncate(step)
	price := e.lastPrice
	// Walk backwards so the newest kline closes at the live price
	for i := limit - 1; i >= 0; i-- {
		open := price / (1 + e.priceDriftLocked())
		klines[i] = e.klineLocked(symbol, interval, closeTime.Add(-step), closeTime, open, price, e.volumeLocked(false))
		price = open
		closeTime = closeTime.Add(-step)
	}
	return klines, nil
}

// StreamKlines emits one final synthetic kline per tick interval. The
// doneCh/stopCh contract matches the live adapter: stopCh ends the stream,
// doneCh closes when the generator goroutine exits.
func (e *Exchange) StreamKlines(ctx context.Context, symbol, interval string, handler func(kline *domain.Kline), errHandler func(err error)) (doneCh chan struct{}, stopCh chan struct{}, err error) {
	doneCh = make(chan struct{})
	stopCh = make(chan struct{})

	go func() {
		defer close(doneCh)
		ticker := time.NewTicker(e.tick)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				e.logger.Info(ctx, "Simulated stream stopped by context", map[string]interface{}{"symbol": symbol})
				return
			case <-stopCh:
				e.logger.Info(ctx, "Simulated stream stopped", map[string]interface{}{"symbol": symbol})
				return
			case <-ticker.C:
				handler(e.nextKline(symbol, interval))
			}
		}
	}()

	e.logger.Info(ctx, "Simulated kline stream started", map[string]interface{}{
		"symbol":   symbol,
		"interval": interval,
		"tick":     e.tick.String(),
	})
	return doneCh, stopCh, nil
}

// PlaceMarketOrder fills instantly at the last price and adjusts the paper
// balances. A buy that exceeds the quote balance or a sell that exceeds the
// base balance is rejected the way a real venue would reject it.
func (e *Exchange) PlaceMarketOrder(ctx context.Context, symbol string, side domain.OrderSide, quantity string) (*ports.OrderResponse, error) {
	qty, err := strconv.ParseFloat(quantity, 64)
	if err != nil || qty <= 0 {
		return nil, fmt.Errorf("%w: invalid quantity %q", ports.ErrInvalidRequest, quantity)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	price := e.lastPrice
	cost := price * qty
	switch side {
	case domain.Buy:
		if cost > e.quoteBalance {
			return nil, fmt.Errorf("%w: need %.2f %s, have %.2f", ports.ErrInsufficientFunds, cost, e.quoteAsset, e.quoteBalance)
		}
		e.quoteBalance -= cost
		e.baseBalance += qty
	case domain.Sell:
		if qty > e.baseBalance {
			return nil, fmt.Errorf("%w: need %.6f base, have %.6f", ports.ErrInsufficientFunds, qty, e.baseBalance)
		}
		e.baseBalance -= qty
		e.quoteBalance += cost
	default:
		return nil, fmt.Errorf("%w: unknown order side %q", ports.ErrInvalidRequest, side)
	}

	e.orderSeq++
	e.logger.Debug(ctx, "Simulated order filled", map[string]interface{}{
		"symbol":   symbol,
		"side":     side,
		"quantity": qty,
		"price":    price,
		"quote":    e.quoteBalance,
		"base":     e.baseBalance,
	})
	return &ports.OrderResponse{
		OrderID:      e.orderSeq,
		Symbol:       symbol,
		AvgPrice:     price,
		OrigQuantity: qty,
		ExecutedQty:  qty,
		Status:       "FILLED",
		Side:         string(side),
		Timestamp:    time.Now().UTC(),
	}, nil
}

// nextKline advances the random walk by one kline.
func (e *Exchange) nextKline(symbol, interval string) *domain.Kline {
	step, err := intervalDuration(interval)
	if err != nil {
		step = time.Minute
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	spike := e.rng.Float64() < 0.15
	open := e.lastPrice
	var drift float64
	if spike {
		// Breakout candle: strong body with a matching volume surge
		drift = 0.015 + e.rng.Float64()*0.015
	} else {
		drift = e.priceDriftLocked()
	}
	closePrice := open * (1 + drift)
	e.lastPrice = closePrice

	closeTime := time.Now().UTC()
	return e.klineLocked(symbol, interval, closeTime.Add(-step), closeTime, open, closePrice, e.volumeLocked(spike))
}

// priceDriftLocked returns a small symmetric per-kline return.
func (e *Exchange) priceDriftLocked() float64 {
	return (e.rng.Float64() - 0.5) * 0.004 // +-0.2%
}

// volumeLocked returns a per-kline volume, surged 3x-8x on spike candles.
func (e *Exchange) volumeLocked(spike bool) float64 {
	vol := e.baseVolume * (0.8 + e.rng.Float64()*0.4)
	if spike {
		vol = e.baseVolume * (3 + e.rng.Float64()*5)
	}
	return vol
}

func (e *Exchange) klineLocked(symbol, interval string, openTime, closeTime time.Time, open, closePrice, volume float64) *domain.Kline {
	high := open
	if closePrice > high {
		high = closePrice
	}
	low := open
	if closePrice < low {
		low = closePrice
	}
	return &domain.Kline{
		OpenTime:  openTime,
		CloseTime: closeTime,
		Symbol:    symbol,
		Interval:  interval,
		Open:      open,
		High:      high * 1.0005,
		Low:       low * 0.9995,
		Close:     closePrice,
		Volume:    volume,
		IsFinal:   true,
	}
}

// intervalDuration maps a Binance-style interval string to a duration.
func intervalDuration(interval string) (time.Duration, error) {
	if interval == "" {
		return 0, fmt.Errorf("%w: empty interval", ports.ErrInvalidRequest)
	}
	n, err := strconv.Atoi(interval[:len(interval)-1])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: invalid interval %q", ports.ErrInvalidRequest, interval)
	}
	switch interval[len(interval)-1] {
	case 's':
		return time.Duration(n) * time.Second, nil
	case 'm':
		return time.Duration(n) * time.Minute, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("%w: invalid interval %q", ports.ErrInvalidRequest, interval)
	}
}
