package app

import (
	"context"
	"strconv"
	"testing"
	"time"

	"volumeBreakoutBot/config"
	"volumeBreakoutBot/internal/domain"
	"volumeBreakoutBot/internal/ports"
	"volumeBreakoutBot/internal/positions"
	"volumeBreakoutBot/internal/strategy/breakout"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct {
	warnMsgs  []string
	errorMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.warnMsgs = append(m.warnMsgs, msg)
}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	m.errorMsgs = append(m.errorMsgs, msg)
}

// mockExchange implements ports.ExchangeClient for testing
type mockExchange struct {
	balance    float64
	balanceErr error
	fillPrice  float64
	orderCount int
}

func (m *mockExchange) SetServerTime(ctx context.Context) error { return nil }
func (m *mockExchange) Ping(ctx context.Context) error          { return nil }
func (m *mockExchange) GetTickerPrice(ctx context.Context, symbol string) (float64, error) {
	return m.fillPrice, nil
}
func (m *mockExchange) GetAccountBalance(ctx context.Context, asset string) (float64, error) {
	if m.balanceErr != nil {
		return 0, m.balanceErr
	}
	return m.balance, nil
}
func (m *mockExchange) GetKlines(ctx context.Context, symbol string, interval string, limit int) ([]*domain.Kline, error) {
	return nil, nil
}
func (m *mockExchange) StreamKlines(ctx context.Context, symbol, interval string, handler func(kline *domain.Kline), errHandler func(err error)) (chan struct{}, chan struct{}, error) {
	return nil, nil, nil
}
func (m *mockExchange) PlaceMarketOrder(ctx context.Context, symbol string, side domain.OrderSide, quantity string) (*ports.OrderResponse, error) {
	qty, err := strconv.ParseFloat(quantity, 64)
	if err != nil {
		return nil, err
	}
	m.orderCount++
	return &ports.OrderResponse{
		OrderID:     int64(m.orderCount),
		Symbol:      symbol,
		AvgPrice:    m.fillPrice,
		ExecutedQty: qty,
		Status:      "FILLED",
		Side:        string(side),
		Timestamp:   time.Now(),
	}, nil
}

// mockTradeRepo implements ports.TradeRepository for testing
type mockTradeRepo struct {
	trades []*domain.Trade
}

func (m *mockTradeRepo) CreateTrade(ctx context.Context, trade *domain.Trade) (int64, error) {
	m.trades = append(m.trades, trade)
	return int64(len(m.trades)), nil
}
func (m *mockTradeRepo) FindBySymbol(ctx context.Context, symbol string, limit int) ([]*domain.Trade, error) {
	return m.trades, nil
}
func (m *mockTradeRepo) TotalRealizedPNL(ctx context.Context) (float64, error) { return 0, nil }

func testConfig() *config.Config {
	return &config.Config{
		Symbol:     "BTCUSDT",
		Interval:   "1m",
		QuoteAsset: "USDT",
		Strategy: breakout.Params{
			VolumePeriod:         30,
			VolumeMultiplier:     2.0,
			PriceChangeThreshold: 1.5,
			CapitalUsagePercent:  10.0,
			AddPositionThreshold: 2.0,
			StopLossThreshold:    3.0,
			MaxPositions:         3,
			MinOrderSize:         0.0001,
			MaxOrderSize:         1.0,
		},
	}
}

func newTestService(t *testing.T, exchange *mockExchange) (*TradingService, *positions.Manager) {
	t.Helper()
	cfg := testConfig()
	log := &mockLogger{}
	detector, err := breakout.NewDetector(cfg.Strategy, log)
	require.NoError(t, err)
	manager, err := positions.NewManager(positions.Config{
		Detector:  detector,
		Logger:    log,
		Exchange:  exchange,
		TradeRepo: &mockTradeRepo{},
	})
	require.NoError(t, err)
	svc, err := NewTradingService(cfg, log, exchange, detector, manager)
	require.NoError(t, err)
	return svc, manager
}

// warmKlines returns a steady series that keeps the volume average defined
// without tripping any threshold.
func warmKlines(count int, price, volume float64) []*domain.Kline {
	now := time.Now().UTC()
	klines := make([]*domain.Kline, count)
	for i := range klines {
		klines[i] = &domain.Kline{
			OpenTime:  now.Add(time.Duration(i-count) * time.Minute),
			CloseTime: now.Add(time.Duration(i-count+1) * time.Minute),
			Symbol:    "BTCUSDT",
			Interval:  "1m",
			Open:      price,
			High:      price,
			Low:       price,
			Close:     price,
			Volume:    volume,
			IsFinal:   true,
		}
	}
	return klines
}

func breakoutKline(open, close, volume float64) *domain.Kline {
	now := time.Now().UTC()
	return &domain.Kline{
		OpenTime:  now.Add(-time.Minute),
		CloseTime: now,
		Symbol:    "BTCUSDT",
		Interval:  "1m",
		Open:      open,
		High:      close,
		Low:       open,
		Close:     close,
		Volume:    volume,
		IsFinal:   true,
	}
}

func TestNewTradingService_MissingDependencies(t *testing.T) {
	_, err := NewTradingService(nil, nil, nil, nil, nil)
	assert.Error(t, err)
}

func TestHandleKlineEvent_IgnoresNonFinal(t *testing.T) {
	exchange := &mockExchange{balance: 10000, fillPrice: 102000}
	svc, manager := newTestService(t, exchange)
	svc.klineCache = warmKlines(30, 100000, 1000)

	k := breakoutKline(100000, 102000, 2500)
	k.IsFinal = false
	svc.handleKlineEvent(k)

	assert.Equal(t, 0, manager.Count())
	assert.Equal(t, 0, exchange.orderCount)
	assert.Len(t, svc.klineCache, 30, "non-final klines must not enter the cache")
}

func TestHandleKlineEvent_OpensOnBreakout(t *testing.T) {
	exchange := &mockExchange{balance: 10000, fillPrice: 102000}
	svc, manager := newTestService(t, exchange)
	svc.klineCache = warmKlines(30, 100000, 1000)

	// Volume 2500 vs ~1050 average and a 2% body: both rules fire
	svc.handleKlineEvent(breakoutKline(100000, 102000, 2500))

	assert.Equal(t, 1, manager.Count())
	assert.Equal(t, 1, exchange.orderCount)
}

func TestHandleKlineEvent_NoSignalNoOrder(t *testing.T) {
	exchange := &mockExchange{balance: 10000, fillPrice: 100500}
	svc, manager := newTestService(t, exchange)
	svc.klineCache = warmKlines(30, 100000, 1000)

	// Ordinary candle: volume at the average, 0.5% body
	svc.handleKlineEvent(breakoutKline(100000, 100500, 1000))

	assert.Equal(t, 0, manager.Count())
	assert.Equal(t, 0, exchange.orderCount)
}

func TestHandleKlineEvent_BalanceFailureSkipsCycle(t *testing.T) {
	exchange := &mockExchange{balance: 10000, fillPrice: 102000, balanceErr: ports.ErrExchangeUnavailable}
	svc, manager := newTestService(t, exchange)
	svc.klineCache = warmKlines(30, 100000, 1000)

	svc.handleKlineEvent(breakoutKline(100000, 102000, 2500))

	// Signal conditions were met, but the cycle was skipped
	assert.Equal(t, 0, manager.Count())
	assert.Equal(t, 0, exchange.orderCount)

	// Once the balance is back the next kline acts normally
	exchange.balanceErr = nil
	svc.handleKlineEvent(breakoutKline(100000, 102000, 2500))
	assert.Equal(t, 1, manager.Count())
}

func TestHandleKlineEvent_UpdatesPositionsAfterEntryCheck(t *testing.T) {
	exchange := &mockExchange{balance: 10000, fillPrice: 102000}
	svc, manager := newTestService(t, exchange)
	svc.klineCache = warmKlines(30, 100000, 1000)

	svc.handleKlineEvent(breakoutKline(100000, 102000, 2500))
	require.Equal(t, 1, manager.Count())

	// Price collapses 3.5% below the peak on an ordinary candle: the
	// trailing stop closes the position in the update pass.
	exchange.fillPrice = 98430
	svc.handleKlineEvent(breakoutKline(102000, 98430, 1000))
	assert.Equal(t, 0, manager.Count())
}

func TestHandleKlineEvent_CacheBounded(t *testing.T) {
	exchange := &mockExchange{balance: 10000, fillPrice: 100000}
	svc, _ := newTestService(t, exchange)
	svc.klineCache = warmKlines(maxKlineCacheSize, 100000, 1000)

	for i := 0; i < 10; i++ {
		svc.handleKlineEvent(breakoutKline(100000, 100000, 1000))
	}
	assert.Len(t, svc.klineCache, maxKlineCacheSize)
}
