package analysis

import (
	"time"

	"github.com/Kong-F/backtest/internal/core"
)

// drawdownSeries returns, per equity sample, the fractional decline from
// the running peak. Values are <= 0.
func drawdownSeries(curve []core.EquitySample) []float64 {
	equity := make([]float64, len(curve))
	for i, s := range curve {
		equity[i] = s.Equity
	}
	peaks := runningMax(equity)
	dd := make([]float64, len(equity))
	for i := range equity {
		dd[i] = SafeDiv(equity[i]-peaks[i], peaks[i])
	}
	return dd
}

// analyzeDrawdowns walks the drawdown series and collects contiguous
// underwater episodes. An episode ends at the bar where equity regains
// its prior peak; an episode still open at the end of the data is
// closed at the final sample.
func analyzeDrawdowns(curve []core.EquitySample) DrawdownAnalysis {
	var out DrawdownAnalysis
	if len(curve) == 0 {
		return out
	}

	dd := drawdownSeries(curve)

	var (
		inEpisode bool
		start     time.Time
		trough    float64
	)
	closeEpisode := func(end time.Time) {
		out.Episodes = append(out.Episodes, DrawdownEpisode{
			Start:        start,
			End:          end,
			DurationDays: int(end.Sub(start).Hours() / 24),
			Trough:       trough,
		})
		inEpisode = false
	}

	for i, d := range dd {
		switch {
		case d < 0 && !inEpisode:
			inEpisode = true
			start = curve[i].Time
			trough = d
		case d < 0 && inEpisode:
			if d < trough {
				trough = d
			}
		case d >= 0 && inEpisode:
			closeEpisode(curve[i].Time)
		}
		if d < out.MaxDrawdown {
			out.MaxDrawdown = d
		}
	}
	if inEpisode {
		closeEpisode(curve[len(curve)-1].Time)
	}

	out.CurrentDrawdown = dd[len(dd)-1]
	for _, ep := range out.Episodes {
		if ep.DurationDays > out.LongestDays {
			out.LongestDays = ep.DurationDays
		}
		if ep.Trough < out.Deepest {
			out.Deepest = ep.Trough
		}
		out.AvgDrawdown += ep.Trough
	}
	if n := len(out.Episodes); n > 0 {
		out.AvgDrawdown /= float64(n)
	}
	return out
}
