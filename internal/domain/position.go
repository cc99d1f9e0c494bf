package domain

import "time"

// Position represents one open long exposure. All mutation goes through the
// methods below so the bookkeeping invariants hold by construction:
//
//   - StopLossPrice == HighestPrice * (1 - trailingStopPct/100)
//   - EntryPrice * Quantity == TotalInvested (weighted-average cost)
//   - HighestPrice is monotonically non-decreasing and >= EntryPrice
type Position struct {
	Symbol        string
	Side          OrderSide
	EntryPrice    float64   // quantity-weighted average cost
	Quantity      float64   // cumulative base-asset size
	EntryTime     time.Time // time of the first fill
	HighestPrice  float64   // high-water mark since entry
	StopLossPrice float64   // trailing stop derived from HighestPrice
	TotalInvested float64   // cumulative quote-currency cost basis

	trailingStopPct float64 // drawdown-from-peak percentage that triggers an exit
}

// NewPosition creates a position from its first fill. The high-water mark
// starts at the fill price and the stop is derived from it immediately.
func NewPosition(symbol string, price, quantity float64, at time.Time, trailingStopPct float64) *Position {
	return &Position{
		Symbol:          symbol,
		Side:            Buy,
		EntryPrice:      price,
		Quantity:        quantity,
		EntryTime:       at,
		HighestPrice:    price,
		StopLossPrice:   price * (1 - trailingStopPct/100),
		TotalInvested:   price * quantity,
		trailingStopPct: trailingStopPct,
	}
}

// MarkPrice advances the high-water mark when the price makes a new peak and
// recomputes the trailing stop from it. Lower prices leave both untouched.
func (p *Position) MarkPrice(price float64) {
	if price > p.HighestPrice {
		p.HighestPrice = price
		p.StopLossPrice = p.HighestPrice * (1 - p.trailingStopPct/100)
	}
}

// AddFill folds an additional fill into the position, recomputing the entry
// price as the quantity-weighted average cost. The high-water mark and stop
// track price, not cost, so they are deliberately left alone here.
func (p *Position) AddFill(price, quantity float64) {
	p.Quantity += quantity
	p.TotalInvested += price * quantity
	p.EntryPrice = p.TotalInvested / p.Quantity
}

// DrawdownPct returns the percentage drop of price from the high-water mark.
func (p *Position) DrawdownPct(price float64) float64 {
	return (p.HighestPrice - price) / p.HighestPrice * 100
}

// UnrealizedPNL returns the open profit/loss at the given price.
func (p *Position) UnrealizedPNL(price float64) float64 {
	return (price - p.EntryPrice) * p.Quantity
}

// UnrealizedPNLPercent returns the open profit/loss relative to entry price.
func (p *Position) UnrealizedPNLPercent(price float64) float64 {
	return (price - p.EntryPrice) / p.EntryPrice * 100
}
