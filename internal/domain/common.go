package domain

// OrderSide represents the side of an order (BUY or SELL).
type OrderSide string

const (
	Buy  OrderSide = "BUY"
	Sell OrderSide = "SELL"
)

// SignalType identifies the kind of trading signal emitted by the detector.
type SignalType string

const (
	SignalEntry SignalType = "ENTRY"
)

// CloseReason indicates why a position was closed.
type CloseReason string

const (
	CloseReasonTrailingStop CloseReason = "TRAILING_STOP"
	CloseReasonManual       CloseReason = "MANUAL"
	CloseReasonShutdown     CloseReason = "SHUTDOWN"
	CloseReasonUnknown      CloseReason = "UNKNOWN"
)
