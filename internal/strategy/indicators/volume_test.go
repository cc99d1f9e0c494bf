package indicators

import (
	"math"
	"testing"
	"time"

	"volumeBreakoutBot/internal/domain"
)

func makeKlines(volumes []float64, open, close float64) []*domain.Kline {
	now := time.Now()
	klines := make([]*domain.Kline, len(volumes))
	for i, v := range volumes {
		klines[i] = &domain.Kline{
			OpenTime:  now.Add(time.Duration(i-len(volumes)) * time.Minute),
			CloseTime: now.Add(time.Duration(i-len(volumes)+1) * time.Minute),
			Open:      open,
			Close:     close,
			Volume:    v,
		}
	}
	return klines
}

func TestCompute_WarmupUndefined(t *testing.T) {
	klines := makeKlines([]float64{100, 200, 300, 400, 500}, 100, 101)

	points, err := Compute(klines, 3)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(points) != len(klines) {
		t.Fatalf("Expected %d points, got %d", len(klines), len(points))
	}

	// The first period-1 points carry no volume values
	for i := 0; i < 2; i++ {
		if !math.IsNaN(points[i].VolumeMA) || !math.IsNaN(points[i].VolumeRatio) {
			t.Errorf("Point %d: expected NaN volume indicators during warmup", i)
		}
		if points[i].Defined() {
			t.Errorf("Point %d: expected Defined() to be false during warmup", i)
		}
	}
	for i := 2; i < len(points); i++ {
		if !points[i].Defined() {
			t.Errorf("Point %d: expected Defined() to be true after warmup", i)
		}
	}
}

func TestCompute_ExactValues(t *testing.T) {
	klines := makeKlines([]float64{100, 200, 300, 400, 500}, 100, 102)

	points, err := Compute(klines, 3)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	tests := []struct {
		index         int
		expectedMA    float64
		expectedRatio float64
	}{
		{index: 2, expectedMA: 200, expectedRatio: 1.5},  // (100+200+300)/3
		{index: 3, expectedMA: 300, expectedRatio: 400.0 / 300.0},
		{index: 4, expectedMA: 400, expectedRatio: 1.25}, // (300+400+500)/3
	}
	for _, tt := range tests {
		p := points[tt.index]
		if math.Abs(p.VolumeMA-tt.expectedMA) > 0.0001 {
			t.Errorf("Point %d: expected MA %f, got %f", tt.index, tt.expectedMA, p.VolumeMA)
		}
		if math.Abs(p.VolumeRatio-tt.expectedRatio) > 0.0001 {
			t.Errorf("Point %d: expected ratio %f, got %f", tt.index, tt.expectedRatio, p.VolumeRatio)
		}
		// (102 - 100) / 100 * 100 = 2%
		if math.Abs(p.PriceChangePct-2.0) > 0.0001 {
			t.Errorf("Point %d: expected price change 2.0, got %f", tt.index, p.PriceChangePct)
		}
	}
}

func TestCompute_ZeroAverageVolume(t *testing.T) {
	klines := makeKlines([]float64{0, 0, 0, 100}, 100, 101)

	points, err := Compute(klines, 3)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Window [0,0,0]: average is zero, ratio must stay undefined
	if !math.IsNaN(points[2].VolumeRatio) {
		t.Errorf("Expected NaN ratio for zero average volume, got %f", points[2].VolumeRatio)
	}
	if points[2].Defined() {
		t.Error("Expected Defined() to be false when the ratio is undefined")
	}
	// Window [0,0,100]: average 33.33, ratio 3.0
	if math.Abs(points[3].VolumeRatio-3.0) > 0.0001 {
		t.Errorf("Expected ratio 3.0, got %f", points[3].VolumeRatio)
	}
}

func TestCompute_Idempotent(t *testing.T) {
	volumes := []float64{150, 250, 350, 450, 550, 650}
	full := makeKlines(volumes, 100, 101)
	prefix := full[:4]

	fullPoints, err := Compute(full, 3)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	prefixPoints, err := Compute(prefix, 3)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Extending the series must not change earlier values
	for i := 2; i < len(prefixPoints); i++ {
		if math.Abs(fullPoints[i].VolumeMA-prefixPoints[i].VolumeMA) > 0.0001 {
			t.Errorf("Point %d: MA changed after extension: %f vs %f", i, prefixPoints[i].VolumeMA, fullPoints[i].VolumeMA)
		}
		if math.Abs(fullPoints[i].VolumeRatio-prefixPoints[i].VolumeRatio) > 0.0001 {
			t.Errorf("Point %d: ratio changed after extension: %f vs %f", i, prefixPoints[i].VolumeRatio, fullPoints[i].VolumeRatio)
		}
	}
}

func TestCompute_InvalidPeriod(t *testing.T) {
	klines := makeKlines([]float64{100, 200}, 100, 101)
	if _, err := Compute(klines, 0); err == nil {
		t.Error("Expected error for non-positive period")
	}
}

func TestLatest(t *testing.T) {
	tests := []struct {
		name          string
		volumes       []float64
		period        int
		expectDefined bool
		expectedMA    float64
		expectedRatio float64
	}{
		{
			name:          "full window",
			volumes:       []float64{100, 200, 300},
			period:        3,
			expectDefined: true,
			expectedMA:    200,
			expectedRatio: 1.5,
		},
		{
			name:          "window not yet full",
			volumes:       []float64{100, 200},
			period:        3,
			expectDefined: false,
		},
		{
			name:          "longer history uses trailing window",
			volumes:       []float64{999, 999, 100, 200, 300},
			period:        3,
			expectDefined: true,
			expectedMA:    200,
			expectedRatio: 1.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			klines := makeKlines(tt.volumes, 100, 101)
			p, err := Latest(klines, tt.period)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if p.Defined() != tt.expectDefined {
				t.Fatalf("Expected Defined() %v, got %v", tt.expectDefined, p.Defined())
			}
			if !tt.expectDefined {
				return
			}
			if math.Abs(p.VolumeMA-tt.expectedMA) > 0.0001 {
				t.Errorf("Expected MA %f, got %f", tt.expectedMA, p.VolumeMA)
			}
			if math.Abs(p.VolumeRatio-tt.expectedRatio) > 0.0001 {
				t.Errorf("Expected ratio %f, got %f", tt.expectedRatio, p.VolumeRatio)
			}
		})
	}
}

func TestLatest_Empty(t *testing.T) {
	if _, err := Latest(nil, 3); err == nil {
		t.Error("Expected error for empty kline series")
	}
}
