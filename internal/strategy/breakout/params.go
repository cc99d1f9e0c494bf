package breakout

import (
	"fmt"
	"strings"

	"volumeBreakoutBot/internal/ports"
)

// Params holds the volume+price breakout strategy parameters. They are
// validated once at startup and treated as immutable afterwards.
type Params struct {
	VolumePeriod         int     // rolling window (klines) for the volume average
	VolumeMultiplier     float64 // volume breakout threshold, multiple of the average
	PriceChangeThreshold float64 // kline body gain in percent that triggers an entry
	CapitalUsagePercent  float64 // percent of account balance committed per entry/add
	AddPositionThreshold float64 // percent gain over entry price that triggers a scale-in
	StopLossThreshold    float64 // percent drawdown from the high-water mark that triggers an exit
	MaxPositions         int     // concurrent open-position cap
	MinOrderSize         float64 // lower clamp on computed order quantity
	MaxOrderSize         float64 // upper clamp on computed order quantity
}

// Validate checks every parameter against its allowed range. It collects all
// violations so a misconfigured deployment reports everything at once.
func (p Params) Validate() error {
	var errs []string

	if p.VolumePeriod < 1 || p.VolumePeriod > 200 {
		errs = append(errs, fmt.Sprintf("volume period must be between 1 and 200, got %d", p.VolumePeriod))
	}
	if p.VolumeMultiplier <= 0 || p.VolumeMultiplier > 10 {
		errs = append(errs, fmt.Sprintf("volume multiplier must be in (0, 10], got %g", p.VolumeMultiplier))
	}
	if p.PriceChangeThreshold < 0 || p.PriceChangeThreshold > 50 {
		errs = append(errs, fmt.Sprintf("price change threshold must be between 0 and 50, got %g", p.PriceChangeThreshold))
	}
	if p.CapitalUsagePercent <= 0 || p.CapitalUsagePercent > 100 {
		errs = append(errs, fmt.Sprintf("capital usage percent must be in (0, 100], got %g", p.CapitalUsagePercent))
	}
	if p.AddPositionThreshold <= 0 {
		errs = append(errs, fmt.Sprintf("add position threshold must be positive, got %g", p.AddPositionThreshold))
	}
	if p.StopLossThreshold <= 0 {
		errs = append(errs, fmt.Sprintf("stop loss threshold must be positive, got %g", p.StopLossThreshold))
	}
	if p.MaxPositions < 1 || p.MaxPositions > 20 {
		errs = append(errs, fmt.Sprintf("max positions must be between 1 and 20, got %d", p.MaxPositions))
	}
	if p.MinOrderSize > p.MaxOrderSize {
		errs = append(errs, fmt.Sprintf("min order size %g must not exceed max order size %g", p.MinOrderSize, p.MaxOrderSize))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ports.ErrConfigurationError, strings.Join(errs, "; "))
	}
	return nil
}
