package analytics

import (
	"sort"
	"time"

	"volumeBreakoutBot/internal/domain"
)

// PerformanceMetrics summarizes the realized trade history of a strategy.
type PerformanceMetrics struct {
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       float64 // winning / total, in percent
	TotalPNL      float64
	AverageWin    float64
	AverageLoss   float64 // negative value
	ProfitFactor  float64 // gross profit / gross loss (0 when no losses)
	Expectancy    float64 // average PNL per trade

	MaxConsecutiveWins   int
	MaxConsecutiveLosses int
	AverageTradeDuration time.Duration

	// Realized PNL split by close reason (trailing stop, manual, shutdown)
	PNLByCloseReason map[domain.CloseReason]float64
}

// AnalyzeTrades calculates performance metrics from a realized trade history.
// Break-even trades count as losses for the win rate but do not extend either
// streak. The input slice is not modified.
func AnalyzeTrades(trades []*domain.Trade) *PerformanceMetrics {
	metrics := &PerformanceMetrics{
		PNLByCloseReason: make(map[domain.CloseReason]float64),
	}
	if len(trades) == 0 {
		return metrics
	}

	ordered := make([]*domain.Trade, len(trades))
	copy(ordered, trades)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].EntryTime.Before(ordered[j].EntryTime)
	})

	var grossProfit, grossLoss float64
	var losingCount int
	var totalDuration time.Duration
	var consecutiveWins, consecutiveLosses int

	for _, trade := range ordered {
		metrics.TotalTrades++
		metrics.TotalPNL += trade.PNL
		metrics.PNLByCloseReason[trade.CloseReason] += trade.PNL
		totalDuration += trade.ExitTime.Sub(trade.EntryTime)

		switch {
		case trade.PNL > 0:
			metrics.WinningTrades++
			grossProfit += trade.PNL
			consecutiveWins++
			consecutiveLosses = 0
			if consecutiveWins > metrics.MaxConsecutiveWins {
				metrics.MaxConsecutiveWins = consecutiveWins
			}
		case trade.PNL < 0:
			metrics.LosingTrades++
			losingCount++
			grossLoss += -trade.PNL
			consecutiveLosses++
			consecutiveWins = 0
			if consecutiveLosses > metrics.MaxConsecutiveLosses {
				metrics.MaxConsecutiveLosses = consecutiveLosses
			}
		default:
			metrics.LosingTrades++
			consecutiveWins = 0
			consecutiveLosses = 0
		}
	}

	metrics.WinRate = float64(metrics.WinningTrades) / float64(metrics.TotalTrades) * 100
	metrics.Expectancy = metrics.TotalPNL / float64(metrics.TotalTrades)
	metrics.AverageTradeDuration = totalDuration / time.Duration(metrics.TotalTrades)
	if metrics.WinningTrades > 0 {
		metrics.AverageWin = grossProfit / float64(metrics.WinningTrades)
	}
	if losingCount > 0 {
		metrics.AverageLoss = -grossLoss / float64(losingCount)
	}
	if grossLoss > 0 {
		metrics.ProfitFactor = grossProfit / grossLoss
	}

	return metrics
}
