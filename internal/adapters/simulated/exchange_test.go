package simulated

import (
	"context"
	"errors"
	"testing"
	"time"

	"volumeBreakoutBot/internal/domain"
	"volumeBreakoutBot/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func newTestExchange(t *testing.T) *Exchange {
	t.Helper()
	e, err := New(Config{
		Logger:       &mockLogger{},
		StartPrice:   100000,
		BaseVolume:   1000,
		QuoteAsset:   "USDT",
		QuoteBalance: 10000,
		TickInterval: time.Millisecond,
		Seed:         42,
	})
	require.NoError(t, err)
	return e
}

func TestPlaceMarketOrder_BalanceAccounting(t *testing.T) {
	e := newTestExchange(t)
	ctx := context.Background()

	resp, err := e.PlaceMarketOrder(ctx, "BTCUSDT", domain.Buy, "0.02")
	require.NoError(t, err)
	assert.Equal(t, 100000.0, resp.AvgPrice)
	assert.Equal(t, 0.02, resp.ExecutedQty)
	assert.Equal(t, "FILLED", resp.Status)

	quote, err := e.GetAccountBalance(ctx, "USDT")
	require.NoError(t, err)
	assert.InDelta(t, 8000.0, quote, 0.0001) // 10000 - 0.02*100000

	base, err := e.GetAccountBalance(ctx, "BTC")
	require.NoError(t, err)
	assert.InDelta(t, 0.02, base, 1e-9)

	// Selling returns the proceeds at the current price
	_, err = e.PlaceMarketOrder(ctx, "BTCUSDT", domain.Sell, "0.02")
	require.NoError(t, err)
	quote, err = e.GetAccountBalance(ctx, "USDT")
	require.NoError(t, err)
	assert.InDelta(t, 10000.0, quote, 0.0001)
}

func TestPlaceMarketOrder_Rejections(t *testing.T) {
	e := newTestExchange(t)
	ctx := context.Background()

	// Buy exceeding the quote balance
	_, err := e.PlaceMarketOrder(ctx, "BTCUSDT", domain.Buy, "1.0")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ports.ErrInsufficientFunds))

	// Sell with no base holdings
	_, err = e.PlaceMarketOrder(ctx, "BTCUSDT", domain.Sell, "0.01")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ports.ErrInsufficientFunds))

	// Garbage quantity
	_, err = e.PlaceMarketOrder(ctx, "BTCUSDT", domain.Buy, "abc")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ports.ErrInvalidRequest))
}

func TestGetKlines_SeriesShape(t *testing.T) {
	e := newTestExchange(t)
	ctx := context.Background()

	klines, err := e.GetKlines(ctx, "BTCUSDT", "1m", 30)
	require.NoError(t, err)
	require.Len(t, klines, 30)

	price, err := e.GetTickerPrice(ctx, "BTCUSDT")
	require.NoError(t, err)
	// The newest kline closes at the live price
	assert.InDelta(t, price, klines[len(klines)-1].Close, 0.0001)

	for i, k := range klines {
		assert.True(t, k.IsFinal, "historical klines are final")
		assert.Greater(t, k.Volume, 0.0)
		if i > 0 {
			assert.True(t, k.CloseTime.After(klines[i-1].CloseTime), "klines are time-ordered")
			// Contiguous: each open equals the previous close
			assert.InDelta(t, klines[i-1].Close, k.Open, 0.0001)
		}
	}
}

func TestStreamKlines_StopCloses(t *testing.T) {
	e := newTestExchange(t)
	ctx := context.Background()

	received := make(chan *domain.Kline, 16)
	doneCh, stopCh, err := e.StreamKlines(ctx, "BTCUSDT", "1m", func(k *domain.Kline) {
		received <- k
	}, func(err error) {})
	require.NoError(t, err)

	select {
	case k := <-received:
		assert.True(t, k.IsFinal)
		assert.Equal(t, "BTCUSDT", k.Symbol)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a synthetic kline")
	}

	close(stopCh)
	select {
	case <-doneCh:
	case <-time.After(time.Second):
		t.Fatal("stream did not stop after stop signal")
	}
}
