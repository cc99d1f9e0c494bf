package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"volumeBreakoutBot/internal/domain"

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

// setupTestDB creates a temporary database for testing
func setupTestDB(t *testing.T) (*Repository, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "trading-bot-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")
	repo, err := NewRepository(Config{
		DBPath: dbPath,
		Logger: &mockLogger{},
	})
	require.NoError(t, err)

	cleanup := func() {
		repo.Close()
		os.RemoveAll(tmpDir)
	}

	return repo, cleanup
}

func sampleTrade(symbol string, pnl float64, entryTime time.Time) *domain.Trade {
	return &domain.Trade{
		Symbol:        symbol,
		EntryPrice:    50000,
		ExitPrice:     51000,
		Quantity:      0.02,
		TotalInvested: 1000,
		PNL:           pnl,
		PNLPercent:    pnl / 1000 * 100,
		EntryTime:     entryTime,
		ExitTime:      entryTime.Add(30 * time.Minute),
		CloseReason:   domain.CloseReasonTrailingStop,
	}
}

func TestRepository_CreateTrade(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	trade := sampleTrade("BTCUSDT", 20, time.Now().UTC())
	id, err := repo.CreateTrade(ctx, trade)
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))
	assert.Equal(t, id, trade.ID)
}

func TestRepository_FindBySymbol(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	base := time.Now().UTC().Add(-3 * time.Hour)
	for i, pnl := range []float64{10, -5, 30} {
		_, err := repo.CreateTrade(ctx, sampleTrade("BTCUSDT", pnl, base.Add(time.Duration(i)*time.Hour)))
		require.NoError(t, err)
	}
	_, err := repo.CreateTrade(ctx, sampleTrade("ETHUSDT", 99, base))
	require.NoError(t, err)

	trades, err := repo.FindBySymbol(ctx, "BTCUSDT", 10)
	require.NoError(t, err)
	require.Len(t, trades, 3)
	// Most recent first
	assert.Equal(t, 30.0, trades[0].PNL)
	assert.Equal(t, domain.CloseReasonTrailingStop, trades[0].CloseReason)

	// Limit applies
	trades, err = repo.FindBySymbol(ctx, "BTCUSDT", 2)
	require.NoError(t, err)
	assert.Len(t, trades, 2)

	// Unknown symbol returns an empty slice, not an error
	trades, err = repo.FindBySymbol(ctx, "XRPUSDT", 10)
	require.NoError(t, err)
	assert.Empty(t, trades)
}

func TestRepository_TotalRealizedPNL(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	// Empty table sums to zero
	total, err := repo.TotalRealizedPNL(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.0, total)

	now := time.Now().UTC()
	for _, pnl := range []float64{10, -5, 30} {
		_, err := repo.CreateTrade(ctx, sampleTrade("BTCUSDT", pnl, now))
		require.NoError(t, err)
	}

	total, err = repo.TotalRealizedPNL(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 35.0, total, 0.0001)
}
