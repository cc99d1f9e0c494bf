package domain

import "time"

// Signal is the immutable value object emitted by the breakout detector.
// It carries the kline close as the proposed entry price together with the
// indicator values that triggered it.
type Signal struct {
	Type           SignalType
	Symbol         string
	Price          float64 // kline close at detection time
	Volume         float64
	VolumeRatio    float64 // volume / rolling volume average
	PriceChangePct float64 // intra-kline body change in percent
	Time           time.Time
}
