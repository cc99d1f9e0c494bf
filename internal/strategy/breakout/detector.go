package breakout

import (
	"context"
	"fmt"

	"volumeBreakoutBot/internal/domain"
	"volumeBreakoutBot/internal/ports"
	"volumeBreakoutBot/internal/strategy/indicators"
)

// Detector evaluates the breakout rules. It is stateless over the parameters:
// all position state lives in the Position entity, which the exit check
// refreshes before evaluating the trailing stop.
type Detector struct {
	params Params
	logger ports.Logger
}

// NewDetector creates a detector for a validated parameter set.
func NewDetector(params Params, logger ports.Logger) (*Detector, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for breakout detector")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Detector{params: params, logger: logger}, nil
}

// Params returns the parameter set the detector was built with.
func (d *Detector) Params() Params {
	return d.params
}

// RequiredDataPoints returns the minimum number of klines needed before the
// volume average, and therefore the entry rule, is defined.
func (d *Detector) RequiredDataPoints() int {
	return d.params.VolumePeriod
}

// DetectEntry returns an entry signal when the kline shows both a volume
// breakout (ratio >= multiplier) and a price breakout (body gain >= threshold).
// Exact equality counts as a breakout. Undefined indicators never fire.
func (d *Detector) DetectEntry(ctx context.Context, kline *domain.Kline, ind indicators.Point) *domain.Signal {
	if !ind.Defined() {
		d.logger.Debug(ctx, "Indicators not yet defined, skipping entry evaluation", map[string]interface{}{
			"symbol": kline.Symbol,
			"close":  kline.Close,
		})
		return nil
	}

	volumeBreakout := ind.VolumeRatio >= d.params.VolumeMultiplier
	priceBreakout := ind.PriceChangePct >= d.params.PriceChangeThreshold
	if !volumeBreakout || !priceBreakout {
		return nil
	}

	return &domain.Signal{
		Type:           domain.SignalEntry,
		Symbol:         kline.Symbol,
		Price:          kline.Close,
		Volume:         kline.Volume,
		VolumeRatio:    ind.VolumeRatio,
		PriceChangePct: ind.PriceChangePct,
		Time:           kline.CloseTime,
	}
}

// ShouldAdd reports whether the price has gained enough over the position's
// average entry price to justify a scale-in. It does not mutate the position.
func (d *Detector) ShouldAdd(position *domain.Position, currentPrice float64) bool {
	gainPct := (currentPrice - position.EntryPrice) / position.EntryPrice * 100
	return gainPct >= d.params.AddPositionThreshold
}

// ShouldExit refreshes the position's high-water mark (and derived stop) for
// the current price, then reports whether the drawdown from the peak has
// reached the trailing-stop threshold.
func (d *Detector) ShouldExit(position *domain.Position, currentPrice float64) bool {
	position.MarkPrice(currentPrice)
	return position.DrawdownPct(currentPrice) >= d.params.StopLossThreshold
}
