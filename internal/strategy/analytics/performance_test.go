package analytics

import (
	"testing"
	"time"

	"volumeBreakoutBot/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trade(pnl float64, reason domain.CloseReason, entry time.Time, holding time.Duration) *domain.Trade {
	return &domain.Trade{
		Symbol:      "BTCUSDT",
		PNL:         pnl,
		CloseReason: reason,
		EntryTime:   entry,
		ExitTime:    entry.Add(holding),
	}
}

func TestAnalyzeTrades_Empty(t *testing.T) {
	metrics := AnalyzeTrades(nil)
	assert.Equal(t, 0, metrics.TotalTrades)
	assert.Equal(t, 0.0, metrics.WinRate)
	assert.Empty(t, metrics.PNLByCloseReason)
}

func TestAnalyzeTrades(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	trades := []*domain.Trade{
		trade(100, domain.CloseReasonTrailingStop, base, time.Hour),
		trade(50, domain.CloseReasonTrailingStop, base.Add(1*time.Hour), time.Hour),
		trade(-30, domain.CloseReasonTrailingStop, base.Add(2*time.Hour), 2*time.Hour),
		trade(-20, domain.CloseReasonManual, base.Add(3*time.Hour), time.Hour),
		trade(40, domain.CloseReasonShutdown, base.Add(4*time.Hour), time.Hour),
	}

	metrics := AnalyzeTrades(trades)

	assert.Equal(t, 5, metrics.TotalTrades)
	assert.Equal(t, 3, metrics.WinningTrades)
	assert.Equal(t, 2, metrics.LosingTrades)
	assert.InDelta(t, 60.0, metrics.WinRate, 0.0001)
	assert.InDelta(t, 140.0, metrics.TotalPNL, 0.0001)
	assert.InDelta(t, 190.0/3, metrics.AverageWin, 0.0001)
	assert.InDelta(t, -25.0, metrics.AverageLoss, 0.0001)
	assert.InDelta(t, 190.0/50.0, metrics.ProfitFactor, 0.0001)
	assert.InDelta(t, 28.0, metrics.Expectancy, 0.0001)
	assert.Equal(t, 2, metrics.MaxConsecutiveWins)
	assert.Equal(t, 2, metrics.MaxConsecutiveLosses)
	assert.Equal(t, time.Duration(float64(6*time.Hour)/5), metrics.AverageTradeDuration)

	require.Len(t, metrics.PNLByCloseReason, 3)
	assert.InDelta(t, 120.0, metrics.PNLByCloseReason[domain.CloseReasonTrailingStop], 0.0001)
	assert.InDelta(t, -20.0, metrics.PNLByCloseReason[domain.CloseReasonManual], 0.0001)
	assert.InDelta(t, 40.0, metrics.PNLByCloseReason[domain.CloseReasonShutdown], 0.0001)
}

func TestAnalyzeTrades_SortsBeforeStreaks(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	// Deliberately unordered: sorted by entry time the sequence is
	// win, win, win, loss.
	trades := []*domain.Trade{
		trade(-10, domain.CloseReasonTrailingStop, base.Add(3*time.Hour), time.Hour),
		trade(10, domain.CloseReasonTrailingStop, base.Add(1*time.Hour), time.Hour),
		trade(10, domain.CloseReasonTrailingStop, base, time.Hour),
		trade(10, domain.CloseReasonTrailingStop, base.Add(2*time.Hour), time.Hour),
	}

	metrics := AnalyzeTrades(trades)
	assert.Equal(t, 3, metrics.MaxConsecutiveWins)
	assert.Equal(t, 1, metrics.MaxConsecutiveLosses)
	// Input order is preserved
	assert.InDelta(t, -10.0, trades[0].PNL, 0.0001)
}

func TestAnalyzeTrades_BreakEven(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	trades := []*domain.Trade{
		trade(10, domain.CloseReasonTrailingStop, base, time.Hour),
		trade(0, domain.CloseReasonManual, base.Add(time.Hour), time.Hour),
		trade(10, domain.CloseReasonTrailingStop, base.Add(2*time.Hour), time.Hour),
	}

	metrics := AnalyzeTrades(trades)
	// Break-even counts against the win rate but resets both streaks
	assert.Equal(t, 2, metrics.WinningTrades)
	assert.Equal(t, 1, metrics.LosingTrades)
	assert.Equal(t, 1, metrics.MaxConsecutiveWins)
	assert.Equal(t, 0, metrics.MaxConsecutiveLosses)
	assert.Equal(t, 0.0, metrics.AverageLoss)
	assert.Equal(t, 0.0, metrics.ProfitFactor)
}
