package strategy

import (
	"fmt"

	"github.com/Kong-F/backtest/internal/core"
	"github.com/Kong-F/backtest/internal/indicator"
	"go.uber.org/zap"
)

// ChannelGenerator derives trading signals from an EMA channel: the
// upper band is the EMA of highs, the lower band the EMA of lows. A
// close crossing above the upper band fires a buy, a close crossing
// below the lower band fires a sell.
type ChannelGenerator struct {
	period int
	log    *zap.Logger
}

// NewChannelGenerator creates a generator for the given EMA period.
func NewChannelGenerator(period int, log *zap.Logger) (*ChannelGenerator, error) {
	if period <= 0 {
		return nil, core.WrapError(core.ErrInvalidParameter,
			fmt.Errorf("channel period must be positive, got %d", period))
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ChannelGenerator{period: period, log: log}, nil
}

// Period returns the configured EMA period.
func (g *ChannelGenerator) Period() int {
	return g.period
}

// Name returns a short identifier for the configured generator.
func (g *ChannelGenerator) Name() string {
	return fmt.Sprintf("ema_channel_%d", g.period)
}

// Generate computes the channel bands and signals for an ordered bar
// sequence. The first bar can never signal, having no predecessor.
func (g *ChannelGenerator) Generate(bars []core.PriceBar) ([]core.SignaledBar, error) {
	if len(bars) == 0 {
		return nil, core.WrapError(core.ErrInvalidInput,
			fmt.Errorf("no price bars supplied"))
	}

	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	for i, b := range bars {
		if b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
			return nil, core.WrapError(core.ErrInvalidInput,
				fmt.Errorf("bar %d missing high/low/close", i))
		}
		highs[i] = b.High
		lows[i] = b.Low
	}

	g.log.Debug("computing EMA channel",
		zap.Int("period", g.period),
		zap.Int("bars", len(bars)))

	upper := indicator.EMA(highs, g.period)
	lower := indicator.EMA(lows, g.period)

	out := make([]core.SignaledBar, len(bars))
	position := core.PositionFlat

	for i, b := range bars {
		sb := core.SignaledBar{
			PriceBar: b,
			EMAUpper: upper[i],
			EMALower: lower[i],
			Signal:   core.SignalNone,
		}

		if i > 0 {
			prevClose := bars[i-1].Close
			switch {
			case b.Close > upper[i] && prevClose <= upper[i-1]:
				sb.Signal = core.SignalBuy
			case b.Close < lower[i] && prevClose >= lower[i-1]:
				sb.Signal = core.SignalSell
			}
		}

		switch sb.Signal {
		case core.SignalBuy:
			position = core.PositionLong
		case core.SignalSell:
			position = core.PositionFlat
		}
		sb.Position = position

		fillIndicators(&sb)
		out[i] = sb
	}

	if err := Validate(out); err != nil {
		return nil, err
	}

	g.log.Info("signals generated",
		zap.Int("bars", len(out)),
		zap.Int("period", g.period))

	return out, nil
}

// fillIndicators computes the pointwise channel indicators. They are
// pure functions of close and the bands with no state.
func fillIndicators(sb *core.SignaledBar) {
	width := sb.EMAUpper - sb.EMALower
	sb.ChannelWidth = safeDiv(width, sb.Close)
	sb.PricePosition = safeDiv(sb.Close-sb.EMALower, width)
	sb.ChannelMid = (sb.EMAUpper + sb.EMALower) / 2
	sb.PriceDeviation = safeDiv(sb.Close-sb.ChannelMid, sb.ChannelMid)
}

// Validate checks the generator's postconditions on a produced
// sequence: bands ordered, signal and position values in range. A
// failure here indicates a bug, not a recoverable condition.
func Validate(bars []core.SignaledBar) error {
	for i, sb := range bars {
		if sb.EMAUpper < sb.EMALower {
			return core.WrapError(core.ErrSignalInvalid,
				fmt.Errorf("bar %d: upper band %f below lower band %f", i, sb.EMAUpper, sb.EMALower))
		}
		switch sb.Signal {
		case core.SignalBuy, core.SignalSell, core.SignalNone:
		default:
			return core.WrapError(core.ErrSignalInvalid,
				fmt.Errorf("bar %d: unknown signal %q", i, sb.Signal))
		}
		switch sb.Position {
		case core.PositionFlat, core.PositionLong:
		default:
			return core.WrapError(core.ErrSignalInvalid,
				fmt.Errorf("bar %d: unknown position %q", i, sb.Position))
		}
	}
	return nil
}

func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
