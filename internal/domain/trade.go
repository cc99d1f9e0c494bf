package domain

import "time"

// Trade represents a completed (closed) position.
type Trade struct {
	ID            int64       // Unique identifier for the trade (usually from DB)
	Symbol        string      // Trading symbol (e.g., "BTCUSDT")
	EntryPrice    float64     // Weighted-average price at which the position was built
	ExitPrice     float64     // Price at which the position was closed
	Quantity      float64     // Size of the position at close
	TotalInvested float64     // Cumulative quote-currency cost basis
	PNL           float64     // Realized profit and loss
	PNLPercent    float64     // Realized profit and loss relative to entry price
	EntryTime     time.Time   // Timestamp of the first fill
	ExitTime      time.Time   // Timestamp of the close
	CloseReason   CloseReason // Reason why the position was closed
}
