package core

import "time"

// Signal represents a discrete trading signal for a bar
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalNone Signal = "NONE"
)

// Position represents the running position state derived from signals
type Position string

const (
	PositionFlat Position = "FLAT"
	PositionLong Position = "LONG"
)

// Side represents the side of an executed trade
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// PriceBar represents one OHLCV candlestick. Bars form an ordered,
// timestamp-unique sequence and are immutable once ingested.
type PriceBar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume,omitempty"`
}

// IsValid checks the basic OHLC consistency invariants
func (b PriceBar) IsValid() bool {
	if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
		return false
	}
	if b.High < b.Low {
		return false
	}
	if b.High < b.Open || b.High < b.Close {
		return false
	}
	if b.Low > b.Open || b.Low > b.Close {
		return false
	}
	return true
}

// SignaledBar is a PriceBar extended with the EMA channel bands, the
// generated signal and the derived position state. Produced once per run
// by the signal generator and read-only afterward.
type SignaledBar struct {
	PriceBar

	EMAUpper float64  `json:"ema_upper"`
	EMALower float64  `json:"ema_lower"`
	Signal   Signal   `json:"signal"`
	Position Position `json:"position"`

	// Pointwise channel indicators derived from close and the bands.
	ChannelWidth   float64 `json:"channel_width"`
	PricePosition  float64 `json:"price_position"`
	ChannelMid     float64 `json:"channel_mid"`
	PriceDeviation float64 `json:"price_deviation"`
}

// Trade is one executed order. Trades are created only by the simulator
// at the moment of execution and are immutable after creation.
type Trade struct {
	ID         int       `json:"id"`
	Time       time.Time `json:"time"`
	Side       Side      `json:"side"`
	Price      float64   `json:"price"`
	Quantity   float64   `json:"quantity"`
	Commission float64   `json:"commission"`
	Value      float64   `json:"value"` // Price * Quantity
}

// EquitySample is one point of the equity curve, recorded per input bar
// before any trade triggered at that bar takes effect.
type EquitySample struct {
	Time          time.Time `json:"time"`
	Equity        float64   `json:"equity"`
	Cash          float64   `json:"cash"`
	Holdings      float64   `json:"holdings"`
	PositionValue float64   `json:"position_value"`
	Price         float64   `json:"price"`
}
