package strategy

import (
	"time"

	"github.com/Kong-F/backtest/internal/core"
)

// SignalSummary aggregates counts and spacing of generated signals.
type SignalSummary struct {
	TotalSignals    int     `json:"total_signals"`
	BuySignals      int     `json:"buy_signals"`
	SellSignals     int     `json:"sell_signals"`
	SignalFrequency float64 `json:"signal_frequency"`
	AvgIntervalDays float64 `json:"avg_signal_interval_days"`
	MaxIntervalDays int     `json:"max_signal_interval_days"`
	MinIntervalDays int     `json:"min_signal_interval_days"`
}

// Summarize computes signal statistics over a signaled sequence.
func Summarize(bars []core.SignaledBar) SignalSummary {
	var s SignalSummary
	var signalTimes []time.Time

	for _, sb := range bars {
		switch sb.Signal {
		case core.SignalBuy:
			s.BuySignals++
			signalTimes = append(signalTimes, sb.Time)
		case core.SignalSell:
			s.SellSignals++
			signalTimes = append(signalTimes, sb.Time)
		}
	}
	s.TotalSignals = s.BuySignals + s.SellSignals

	if len(bars) > 0 {
		s.SignalFrequency = float64(s.TotalSignals) / float64(len(bars))
	}

	if len(signalTimes) > 1 {
		var sum int
		for i := 1; i < len(signalTimes); i++ {
			days := int(signalTimes[i].Sub(signalTimes[i-1]).Hours() / 24)
			sum += days
			if i == 1 || days > s.MaxIntervalDays {
				s.MaxIntervalDays = days
			}
			if i == 1 || days < s.MinIntervalDays {
				s.MinIntervalDays = days
			}
		}
		s.AvgIntervalDays = float64(sum) / float64(len(signalTimes)-1)
	}

	return s
}
