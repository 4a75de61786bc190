package analysis

import (
	"math"

	"go.uber.org/zap"

	"github.com/Kong-F/backtest/internal/core"
)

const (
	annualTradingDays = 252
	daysPerYear       = 365.25
)

// Analyzer derives performance, risk and trade statistics from a
// finished simulation. It holds no state between calls; every Analyze
// recomputes the full result from its inputs.
type Analyzer struct {
	log *zap.Logger
}

func NewAnalyzer(log *zap.Logger) *Analyzer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Analyzer{log: log}
}

// Analyze computes the full metric set for one run. An empty equity
// curve yields a zero-valued result rather than an error so that
// sweeps over degenerate inputs stay uniform.
func (a *Analyzer) Analyze(trades []core.Trade, curve []core.EquitySample, bars []core.PriceBar) AnalysisResult {
	var out AnalysisResult
	if len(curve) == 0 {
		a.log.Warn("analyze called with empty equity curve")
		return out
	}

	out.Period = analyzePeriod(curve)
	years := out.Period.Years

	equity := make([]float64, len(curve))
	for i, s := range curve {
		equity[i] = s.Equity
	}
	// Sharpe and volatility keep the series length by padding the first
	// return with zero; tail metrics drop it instead.
	paddedReturns := pctChange(equity, true)
	returns := pctChange(equity, false)

	out.Drawdowns = analyzeDrawdowns(curve)
	out.Trades = analyzeTrades(trades, out.Period.Days)
	out.Performance = a.analyzePerformance(trades, curve, years, out.Drawdowns.MaxDrawdown, out.Trades.RoundTrips)
	out.Risk = analyzeRisk(paddedReturns, returns, out.Drawdowns.MaxDrawdown)
	out.Benchmark = analyzeBenchmark(bars, equity, out.Performance.TotalReturn)
	out.Monthly = analyzeMonthly(curve)

	a.log.Info("analysis complete",
		zap.Float64("total_return", out.Performance.TotalReturn),
		zap.Float64("sharpe", out.Risk.SharpeRatio),
		zap.Float64("max_drawdown", out.Risk.MaxDrawdown),
		zap.Int("round_trips", out.Trades.CompletedRoundTrips))
	return out
}

func analyzePeriod(curve []core.EquitySample) Period {
	start := curve[0].Time
	end := curve[len(curve)-1].Time
	days := int(end.Sub(start).Hours() / 24)
	years := float64(days) / daysPerYear
	if years < 1/daysPerYear {
		years = 1 / daysPerYear
	}
	return Period{Start: start, End: end, Days: days, Years: years}
}

func (a *Analyzer) analyzePerformance(trades []core.Trade, curve []core.EquitySample, years, maxDrawdown float64, trips []RoundTrip) PerformanceMetrics {
	initial := curve[0].Equity
	final := curve[len(curve)-1].Equity

	var commission float64
	for _, t := range trades {
		commission += t.Commission
	}

	total := SafeDiv(final-initial, initial)
	// Compound annualization. Equity cannot go below zero, so the base
	// 1+total is never negative.
	annual := math.Pow(1+total, 1/years) - 1

	var cagr float64
	if initial > 0 && final > 0 {
		cagr = math.Pow(final/initial, 1/years) - 1
	}

	return PerformanceMetrics{
		InitialCapital:   initial,
		FinalEquity:      final,
		TotalReturn:      total,
		AnnualReturn:     annual,
		CAGR:             cagr,
		TotalCommission:  commission,
		CommissionImpact: SafeDiv(commission, initial),
		ProfitFactor:     profitFactor(trips),
		CalmarRatio:      SafeDiv(annual, math.Abs(maxDrawdown)),
	}
}

func analyzeRisk(paddedReturns, returns []float64, maxDrawdown float64) RiskMetrics {
	out := RiskMetrics{MaxDrawdown: maxDrawdown}

	annualize := math.Sqrt(annualTradingDays)

	std := stddev(paddedReturns)
	out.Volatility = std * annualize
	if std > 0 {
		out.SharpeRatio = mean(paddedReturns) / std * annualize
	}

	if len(returns) == 0 {
		return out
	}

	var negatives []float64
	for _, r := range returns {
		if r < 0 {
			negatives = append(negatives, r)
		}
	}
	downside := stddev(negatives)
	out.DownsideDeviation = downside * annualize
	if downside > 0 {
		out.SortinoRatio = mean(returns) / downside * annualize
	}

	out.Skewness = skewness(returns)
	out.Kurtosis = kurtosis(returns)

	out.VaR95 = percentile(returns, 0.05)
	var tailSum float64
	var tailN int
	for _, r := range returns {
		if r <= out.VaR95 {
			tailSum += r
			tailN++
		}
	}
	if tailN > 0 {
		out.CVaR95 = tailSum / float64(tailN)
	}
	return out
}

func analyzeBenchmark(bars []core.PriceBar, equity []float64, strategyReturn float64) BenchmarkComparison {
	out := BenchmarkComparison{StrategyReturn: strategyReturn}
	if len(bars) == 0 {
		return out
	}

	out.BuyHoldReturn = SafeDiv(bars[len(bars)-1].Close-bars[0].Close, bars[0].Close)
	out.ExcessReturn = strategyReturn - out.BuyHoldReturn
	out.Outperformance = strategyReturn > out.BuyHoldReturn

	prices := make([]float64, len(bars))
	for i, b := range bars {
		prices[i] = b.Close
	}
	// Both series keep their full length with a zero-padded first
	// return; the ratio is only defined when they line up bar for bar.
	priceReturns := pctChange(prices, true)
	equityReturns := pctChange(equity, true)
	if len(priceReturns) != len(equityReturns) || len(priceReturns) == 0 {
		return out
	}

	diff := make([]float64, len(priceReturns))
	for i := range priceReturns {
		diff[i] = equityReturns[i] - priceReturns[i]
	}
	if std := stddev(diff); std > 0 {
		out.InformationRatio = mean(diff) / std * math.Sqrt(annualTradingDays)
	}
	return out
}
