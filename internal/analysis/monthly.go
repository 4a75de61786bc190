package analysis

import (
	"github.com/Kong-F/backtest/internal/core"
)

// analyzeMonthly resamples the equity curve to the last sample of each
// calendar month and computes month-over-month returns. The first
// month has no predecessor and is dropped.
func analyzeMonthly(curve []core.EquitySample) MonthlyAnalysis {
	var out MonthlyAnalysis
	if len(curve) == 0 {
		return out
	}

	type monthEnd struct {
		label  string
		equity float64
	}
	var ends []monthEnd
	for _, s := range curve {
		label := s.Time.Format("2006-01")
		if len(ends) > 0 && ends[len(ends)-1].label == label {
			ends[len(ends)-1].equity = s.Equity
			continue
		}
		ends = append(ends, monthEnd{label: label, equity: s.Equity})
	}
	if len(ends) < 2 {
		return out
	}

	returns := make([]float64, 0, len(ends)-1)
	for i := 1; i < len(ends); i++ {
		r := SafeDiv(ends[i].equity-ends[i-1].equity, ends[i-1].equity)
		returns = append(returns, r)
		out.Returns = append(out.Returns, MonthlyReturn{
			Month:  ends[i].label,
			Return: r,
		})
		if r > 0 {
			out.PositiveMonths++
		} else if r < 0 {
			out.NegativeMonths++
		}
	}

	out.BestMonth = returns[0]
	out.WorstMonth = returns[0]
	for _, r := range returns {
		if r > out.BestMonth {
			out.BestMonth = r
		}
		if r < out.WorstMonth {
			out.WorstMonth = r
		}
	}
	out.AvgReturn = mean(returns)
	out.Volatility = stddev(returns)
	return out
}
