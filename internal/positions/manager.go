package positions

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"volumeBreakoutBot/internal/domain"
	"volumeBreakoutBot/internal/ports"
	"volumeBreakoutBot/internal/strategy/breakout"
)

// Manager owns the open-position book for one strategy instance. All entries,
// scale-ins and exits go through it: it sizes orders from the account balance,
// places them on the exchange, and only mutates the book after a successful
// fill, so a failed order never leaves partial state behind.
type Manager struct {
	detector  *breakout.Detector
	logger    ports.Logger
	exchange  ports.ExchangeClient
	tradeRepo ports.TradeRepository

	positions []*domain.Position
}

// Config holds the dependencies for a position manager.
type Config struct {
	Detector  *breakout.Detector
	Logger    ports.Logger
	Exchange  ports.ExchangeClient
	TradeRepo ports.TradeRepository
}

// NewManager creates a position manager. The trade repository is required so
// every realized trade leaves a durable record.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Detector == nil || cfg.Logger == nil || cfg.Exchange == nil || cfg.TradeRepo == nil {
		return nil, fmt.Errorf("missing required dependencies for position manager")
	}
	return &Manager{
		detector:  cfg.Detector,
		logger:    cfg.Logger,
		exchange:  cfg.Exchange,
		tradeRepo: cfg.TradeRepo,
	}, nil
}

// Count returns the number of open positions.
func (m *Manager) Count() int {
	return len(m.positions)
}

// Size computes the order quantity for one entry or add: the configured
// percentage of the account balance converted to base asset at the current
// price, clamped to the configured order-size bounds. Lot-size rounding is
// left to the execution venue.
func (m *Manager) Size(accountBalance, currentPrice float64) float64 {
	p := m.detector.Params()
	quantity := accountBalance * (p.CapitalUsagePercent / 100) / currentPrice
	if quantity < p.MinOrderSize {
		quantity = p.MinOrderSize
	}
	if quantity > p.MaxOrderSize {
		quantity = p.MaxOrderSize
	}
	return quantity
}

// Open enters a new position from an entry signal. Returns false without error
// when the open-position cap is reached (a normal no-op, not a fault). The
// position is appended only after the entry order fills; an order failure
// leaves the book unchanged.
func (m *Manager) Open(ctx context.Context, signal *domain.Signal, accountBalance float64) (bool, error) {
	op := "Open"
	p := m.detector.Params()

	if len(m.positions) >= p.MaxPositions {
		m.logger.Info(ctx, op+": Max open positions reached, signal skipped", map[string]interface{}{
			"symbol":       signal.Symbol,
			"maxPositions": p.MaxPositions,
		})
		return false, nil
	}

	quantity := m.Size(accountBalance, signal.Price)
	order, err := m.exchange.PlaceMarketOrder(ctx, signal.Symbol, domain.Buy, formatQuantity(quantity))
	if err != nil {
		m.logger.Error(ctx, err, op+": Entry order failed", map[string]interface{}{"symbol": signal.Symbol})
		return false, fmt.Errorf("entry market order failed: %w", err)
	}

	fillPrice, fillQty := fillOrFallback(order, signal.Price, quantity)
	position := domain.NewPosition(signal.Symbol, fillPrice, fillQty, signal.Time, p.StopLossThreshold)
	m.positions = append(m.positions, position)

	m.logger.Info(ctx, op+": Position opened", map[string]interface{}{
		"symbol":      position.Symbol,
		"entryPrice":  position.EntryPrice,
		"quantity":    position.Quantity,
		"stopLoss":    position.StopLossPrice,
		"volumeRatio": signal.VolumeRatio,
		"priceChange": signal.PriceChangePct,
	})
	return true, nil
}

// Add scales into an existing position at the current price. The cap on open
// positions does not gate adds: it bounds concurrent positions, not fills into
// one of them; MaxOrderSize still clamps each individual add. A position that
// was already closed is silently skipped.
func (m *Manager) Add(ctx context.Context, position *domain.Position, currentPrice, accountBalance float64) (bool, error) {
	op := "Add"
	if !m.tracks(position) {
		m.logger.Debug(ctx, op+": Position no longer open, skipping add", map[string]interface{}{"symbol": position.Symbol})
		return false, nil
	}

	quantity := m.Size(accountBalance, currentPrice)
	order, err := m.exchange.PlaceMarketOrder(ctx, position.Symbol, domain.Buy, formatQuantity(quantity))
	if err != nil {
		m.logger.Error(ctx, err, op+": Add order failed", map[string]interface{}{"symbol": position.Symbol})
		return false, fmt.Errorf("add market order failed: %w", err)
	}

	fillPrice, fillQty := fillOrFallback(order, currentPrice, quantity)
	position.AddFill(fillPrice, fillQty)

	m.logger.Info(ctx, op+": Position scaled in", map[string]interface{}{
		"symbol":        position.Symbol,
		"addPrice":      fillPrice,
		"addQuantity":   fillQty,
		"newEntryPrice": position.EntryPrice,
		"totalQuantity": position.Quantity,
	})
	return true, nil
}

// Close exits a position entirely at the current price and returns the
// realized PnL. The position stays in the book if the closing order fails.
// Closing is terminal: the position is removed and never resurrected.
func (m *Manager) Close(ctx context.Context, position *domain.Position, currentPrice float64, reason domain.CloseReason) (float64, error) {
	op := "Close"
	order, err := m.exchange.PlaceMarketOrder(ctx, position.Symbol, domain.Sell, formatQuantity(position.Quantity))
	if err != nil {
		m.logger.Error(ctx, err, op+": Closing order failed, position kept open", map[string]interface{}{"symbol": position.Symbol})
		return 0, fmt.Errorf("closing market order failed: %w", err)
	}

	exitPrice, _ := fillOrFallback(order, currentPrice, position.Quantity)
	pnl := position.UnrealizedPNL(exitPrice)
	pnlPct := position.UnrealizedPNLPercent(exitPrice)
	m.remove(position)

	m.logger.Info(ctx, op+": Position closed", map[string]interface{}{
		"symbol":     position.Symbol,
		"exitPrice":  exitPrice,
		"entryPrice": position.EntryPrice,
		"quantity":   position.Quantity,
		"pnl":        pnl,
		"pnlPercent": pnlPct,
		"reason":     reason,
	})

	trade := &domain.Trade{
		Symbol:        position.Symbol,
		EntryPrice:    position.EntryPrice,
		ExitPrice:     exitPrice,
		Quantity:      position.Quantity,
		TotalInvested: position.TotalInvested,
		PNL:           pnl,
		PNLPercent:    pnlPct,
		EntryTime:     position.EntryTime,
		ExitTime:      time.Now().UTC(),
		CloseReason:   reason,
	}
	if _, err := m.tradeRepo.CreateTrade(ctx, trade); err != nil {
		// The exit already executed on the venue; a missing history row must
		// not bring the strategy down.
		m.logger.Error(ctx, err, op+": Failed to persist closed trade", map[string]interface{}{"symbol": position.Symbol})
	}

	return pnl, nil
}

// UpdateAll runs one price cycle over every open position: refresh the
// high-water mark and derived stop, scale in when the add threshold is met,
// then exit when the trailing stop fires against the refreshed peak. Both may
// trigger in the same cycle; the close runs last and removes the position.
func (m *Manager) UpdateAll(ctx context.Context, currentPrice, accountBalance float64) {
	open := make([]*domain.Position, len(m.positions))
	copy(open, m.positions)

	for _, position := range open {
		position.MarkPrice(currentPrice)

		if m.detector.ShouldAdd(position, currentPrice) {
			if _, err := m.Add(ctx, position, currentPrice, accountBalance); err != nil {
				m.logger.Warn(ctx, "UpdateAll: add failed, continuing cycle", map[string]interface{}{"symbol": position.Symbol})
			}
		}

		if m.detector.ShouldExit(position, currentPrice) {
			if _, err := m.Close(ctx, position, currentPrice, domain.CloseReasonTrailingStop); err != nil {
				m.logger.Warn(ctx, "UpdateAll: close failed, position retained", map[string]interface{}{"symbol": position.Symbol})
			}
		}
	}
}

// CloseAll force-closes every open position, e.g. on shutdown.
func (m *Manager) CloseAll(ctx context.Context, currentPrice float64, reason domain.CloseReason) {
	open := make([]*domain.Position, len(m.positions))
	copy(open, m.positions)
	for _, position := range open {
		if _, err := m.Close(ctx, position, currentPrice, reason); err != nil {
			m.logger.Error(ctx, err, "CloseAll: failed to close position", map[string]interface{}{"symbol": position.Symbol})
		}
	}
}

// PositionStatus is a read-only snapshot of one open position.
type PositionStatus struct {
	Symbol        string
	EntryPrice    float64
	Quantity      float64
	HighestPrice  float64
	StopLossPrice float64
	UnrealizedPNL float64
	PNLPercent    float64
}

// Status is an aggregate snapshot of the position book at a given price.
type Status struct {
	PositionsCount int
	TotalPNL       float64
	TotalInvested  float64
	PNLPercent     float64
	Positions      []PositionStatus
}

// Status returns a snapshot of the book marked at the given price. Safe to
// call at any time; it never mutates the positions.
func (m *Manager) Status(currentPrice float64) Status {
	status := Status{
		PositionsCount: len(m.positions),
		Positions:      make([]PositionStatus, 0, len(m.positions)),
	}
	for _, p := range m.positions {
		pnl := p.UnrealizedPNL(currentPrice)
		status.TotalPNL += pnl
		status.TotalInvested += p.TotalInvested
		status.Positions = append(status.Positions, PositionStatus{
			Symbol:        p.Symbol,
			EntryPrice:    p.EntryPrice,
			Quantity:      p.Quantity,
			HighestPrice:  p.HighestPrice,
			StopLossPrice: p.StopLossPrice,
			UnrealizedPNL: pnl,
			PNLPercent:    p.UnrealizedPNLPercent(currentPrice),
		})
	}
	if status.TotalInvested > 0 {
		status.PNLPercent = status.TotalPNL / status.TotalInvested * 100
	}
	return status
}

func (m *Manager) tracks(position *domain.Position) bool {
	for _, p := range m.positions {
		if p == position {
			return true
		}
	}
	return false
}

func (m *Manager) remove(position *domain.Position) {
	for i, p := range m.positions {
		if p == position {
			m.positions = append(m.positions[:i], m.positions[i+1:]...)
			return
		}
	}
}

// fillOrFallback extracts the fill price and quantity from an order response,
// falling back to the requested values when the venue did not report them.
func fillOrFallback(order *ports.OrderResponse, price, quantity float64) (float64, float64) {
	fillPrice := price
	if order.AvgPrice > 0 {
		fillPrice = order.AvgPrice
	}
	fillQty := quantity
	if order.ExecutedQty > 0 {
		fillQty = order.ExecutedQty
	}
	return fillPrice, fillQty
}

// formatQuantity formats a quantity for the exchange API.
func formatQuantity(quantity float64) string {
	return strconv.FormatFloat(quantity, 'f', 6, 64)
}
