package ports

import (
	"context"
	"time"

	"volumeBreakoutBot/internal/domain"
)

// OrderResponse represents the essential details returned after placing an order.
type OrderResponse struct {
	OrderID      int64     // Exchange's order ID
	Symbol       string    // Symbol for the order
	AvgPrice     float64   // Average filled price (0 if the exchange did not report fills)
	OrigQuantity float64   // Original quantity requested
	ExecutedQty  float64   // Quantity filled
	Status       string    // Order status (e.g., NEW, FILLED)
	Side         string    // Order side (BUY, SELL)
	Timestamp    time.Time // Time the order response was generated
}

// ExchangeClient defines the interface the strategy core uses to talk to a
// market venue. Implementations may be a real exchange or a paper simulator;
// the core does not know the difference.
type ExchangeClient interface {
	// SetServerTime synchronizes the client's time with the server's time.
	SetServerTime(ctx context.Context) error

	// Ping checks the connectivity to the venue API.
	Ping(ctx context.Context) error

	// GetTickerPrice retrieves the last ticker price for a given symbol.
	GetTickerPrice(ctx context.Context, symbol string) (float64, error)

	// GetAccountBalance retrieves the available balance for a quote asset (e.g., "USDT").
	GetAccountBalance(ctx context.Context, asset string) (float64, error)

	// GetKlines retrieves historical klines/candlestick data for the given symbol.
	GetKlines(ctx context.Context, symbol string, interval string, limit int) ([]*domain.Kline, error)

	// StreamKlines starts a stream of kline/candlestick data.
	// It takes handlers for processing domain.Kline events and errors.
	// Returns channels to control the stream (doneCh, stopCh) or an error if connection fails.
	StreamKlines(ctx context.Context, symbol, interval string, handler func(kline *domain.Kline), errHandler func(err error)) (doneCh chan struct{}, stopCh chan struct{}, err error)

	// PlaceMarketOrder places a market order and reports the fill.
	PlaceMarketOrder(ctx context.Context, symbol string, side domain.OrderSide, quantity string) (*OrderResponse, error)
}
