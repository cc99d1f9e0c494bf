package indicators

import (
	"fmt"
	"math"

	"volumeBreakoutBot/internal/domain"
)

// Point holds the derived indicator values for a single kline.
// VolumeMA and VolumeRatio are NaN while the rolling window is not yet full
// (or when the average volume is zero); callers must treat NaN as "no value"
// and never evaluate signals on it.
type Point struct {
	VolumeMA       float64 // simple moving average of volume over the trailing window
	VolumeRatio    float64 // volume / VolumeMA
	PriceChangePct float64 // (close - open) / open * 100
}

// Defined reports whether the volume indicators carry usable values.
func (p Point) Defined() bool {
	return !math.IsNaN(p.VolumeMA) && !math.IsNaN(p.VolumeRatio)
}

// Compute annotates an ordered kline series with volume-breakout indicators.
// The result has one Point per input kline, index-aligned. The function is
// pure: recomputing over an extended series reproduces all prior values.
func Compute(klines []*domain.Kline, period int) ([]Point, error) {
	if period < 1 {
		return nil, fmt.Errorf("volume period must be positive, got %d", period)
	}

	points := make([]Point, len(klines))
	var windowSum float64
	for i, k := range klines {
		windowSum += k.Volume
		if i >= period {
			windowSum -= klines[i-period].Volume
		}

		p := Point{
			VolumeMA:       math.NaN(),
			VolumeRatio:    math.NaN(),
			PriceChangePct: (k.Close - k.Open) / k.Open * 100,
		}
		if i >= period-1 {
			p.VolumeMA = windowSum / float64(period)
			if p.VolumeMA > 0 {
				p.VolumeRatio = k.Volume / p.VolumeMA
			}
		}
		points[i] = p
	}
	return points, nil
}

// Latest computes the indicator point for the newest kline only.
func Latest(klines []*domain.Kline, period int) (Point, error) {
	if period < 1 {
		return Point{}, fmt.Errorf("volume period must be positive, got %d", period)
	}
	if len(klines) == 0 {
		return Point{}, fmt.Errorf("no klines to compute indicators over")
	}

	last := klines[len(klines)-1]
	p := Point{
		VolumeMA:       math.NaN(),
		VolumeRatio:    math.NaN(),
		PriceChangePct: (last.Close - last.Open) / last.Open * 100,
	}
	if len(klines) < period {
		return p, nil
	}

	var sum float64
	for _, k := range klines[len(klines)-period:] {
		sum += k.Volume
	}
	p.VolumeMA = sum / float64(period)
	if p.VolumeMA > 0 {
		p.VolumeRatio = last.Volume / p.VolumeMA
	}
	return p, nil
}
