package ports

import (
	"context"

	"volumeBreakoutBot/internal/domain"
)

// TradeRepository defines the interface for storing and retrieving completed trades.
// Open positions are owned in memory by the position manager; only terminal
// trades are made durable.
type TradeRepository interface {
	// CreateTrade saves a new trade record and returns its assigned ID.
	CreateTrade(ctx context.Context, trade *domain.Trade) (int64, error)
	// FindBySymbol retrieves the most recent trades for a given symbol, up to a limit.
	FindBySymbol(ctx context.Context, symbol string, limit int) ([]*domain.Trade, error)
	// TotalRealizedPNL calculates the sum of PNL over all recorded trades.
	TotalRealizedPNL(ctx context.Context) (float64, error)
}
