package analysis

import (
	"math"
	"testing"
	"time"

	"github.com/Kong-F/backtest/internal/core"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func curveOf(equities ...float64) []core.EquitySample {
	curve := make([]core.EquitySample, len(equities))
	for i, e := range equities {
		curve[i] = core.EquitySample{Time: day(i), Equity: e, Cash: e}
	}
	return curve
}

func TestAnalyzeEmptyCurve(t *testing.T) {
	a := NewAnalyzer(nil)
	got := a.Analyze(nil, nil, nil)
	if got.Performance.TotalReturn != 0 || got.Risk.MaxDrawdown != 0 || got.Trades.TotalTrades != 0 {
		t.Errorf("empty curve should produce a zero result, got %+v", got)
	}
}

func TestDrawdownSeries(t *testing.T) {
	curve := curveOf(100, 120, 90, 110)
	dd := drawdownSeries(curve)
	want := []float64{0, 0, -0.25, -10.0 / 120.0}
	for i := range want {
		if !almostEqual(dd[i], want[i]) {
			t.Fatalf("drawdowns = %v, want %v", dd, want)
		}
	}

	got := analyzeDrawdowns(curve)
	if !almostEqual(got.MaxDrawdown, -0.25) {
		t.Errorf("MaxDrawdown = %v, want -0.25", got.MaxDrawdown)
	}
	if len(got.Episodes) != 1 {
		t.Fatalf("episodes = %d, want 1", len(got.Episodes))
	}
	ep := got.Episodes[0]
	if !ep.Start.Equal(day(2)) {
		t.Errorf("episode start = %v, want %v", ep.Start, day(2))
	}
	// Still underwater at the end, so the open episode closes at the
	// last sample.
	if !ep.End.Equal(day(3)) {
		t.Errorf("episode end = %v, want %v", ep.End, day(3))
	}
	if !almostEqual(ep.Trough, -0.25) {
		t.Errorf("episode trough = %v, want -0.25", ep.Trough)
	}
	if !almostEqual(got.CurrentDrawdown, -10.0/120.0) {
		t.Errorf("CurrentDrawdown = %v, want %v", got.CurrentDrawdown, -10.0/120.0)
	}
}

func TestDrawdownRecoveryClosesEpisode(t *testing.T) {
	got := analyzeDrawdowns(curveOf(100, 90, 100, 95))
	if len(got.Episodes) != 2 {
		t.Fatalf("episodes = %d, want 2", len(got.Episodes))
	}
	first := got.Episodes[0]
	if !first.End.Equal(day(2)) {
		t.Errorf("first episode should end at the recovery bar, got %v", first.End)
	}
	if first.DurationDays != 1 {
		t.Errorf("first episode duration = %d, want 1", first.DurationDays)
	}
}

func TestRoundTripReturn(t *testing.T) {
	trades := []core.Trade{
		{ID: 1, Time: day(0), Side: core.SideBuy, Price: 10, Quantity: 1, Value: 10},
		{ID: 2, Time: day(5), Side: core.SideSell, Price: 12, Quantity: 1, Value: 12},
	}
	trips := pairRoundTrips(trades)
	if len(trips) != 1 {
		t.Fatalf("round trips = %d, want 1", len(trips))
	}
	if !almostEqual(trips[0].Return, 0.20) {
		t.Errorf("round trip return = %v, want 0.20", trips[0].Return)
	}
	if trips[0].HoldingDays != 5 {
		t.Errorf("holding days = %d, want 5", trips[0].HoldingDays)
	}
}

func TestRoundTripCommissionReducesReturn(t *testing.T) {
	trades := []core.Trade{
		{ID: 1, Time: day(0), Side: core.SideBuy, Price: 100, Quantity: 1, Value: 100, Commission: 1},
		{ID: 2, Time: day(1), Side: core.SideSell, Price: 110, Quantity: 1, Value: 110, Commission: 1.1},
	}
	trips := pairRoundTrips(trades)
	want := (108.9 - 101.0) / 101.0
	if !almostEqual(trips[0].Return, want) {
		t.Errorf("return = %v, want %v", trips[0].Return, want)
	}
}

func TestPairRoundTripsOpenPosition(t *testing.T) {
	trades := []core.Trade{
		{ID: 1, Time: day(0), Side: core.SideBuy, Price: 10, Quantity: 1, Value: 10},
		{ID: 2, Time: day(1), Side: core.SideSell, Price: 11, Quantity: 1, Value: 11},
		{ID: 3, Time: day(2), Side: core.SideBuy, Price: 12, Quantity: 1, Value: 12},
	}
	trips := pairRoundTrips(trades)
	if len(trips) != 1 {
		t.Fatalf("round trips = %d, want 1 (trailing buy is an open position)", len(trips))
	}
	if trips[0].BuyID != 1 || trips[0].SellID != 2 {
		t.Errorf("paired %d/%d, want 1/2", trips[0].BuyID, trips[0].SellID)
	}
}

func TestProfitFactorNoLosses(t *testing.T) {
	trips := []RoundTrip{{Return: 0.1}, {Return: 0.2}}
	if got := profitFactor(trips); got != 0 {
		t.Errorf("profit factor with no losses = %v, want 0", got)
	}
}

func TestProfitFactor(t *testing.T) {
	trips := []RoundTrip{{Return: 0.3}, {Return: -0.1}, {Return: 0.1}}
	if got := profitFactor(trips); !almostEqual(got, 4.0) {
		t.Errorf("profit factor = %v, want 4.0", got)
	}
}

func TestAnalyzeTradesStats(t *testing.T) {
	trades := []core.Trade{
		{ID: 1, Time: day(0), Side: core.SideBuy, Price: 10, Quantity: 10, Value: 100},
		{ID: 2, Time: day(10), Side: core.SideSell, Price: 12, Quantity: 10, Value: 120},
		{ID: 3, Time: day(20), Side: core.SideBuy, Price: 12, Quantity: 10, Value: 120},
		{ID: 4, Time: day(30), Side: core.SideSell, Price: 11, Quantity: 10, Value: 110},
	}
	got := analyzeTrades(trades, 365)
	if got.TotalTrades != 4 || got.BuyTrades != 2 || got.SellTrades != 2 {
		t.Errorf("trade counts = %d/%d/%d", got.TotalTrades, got.BuyTrades, got.SellTrades)
	}
	if got.CompletedRoundTrips != 2 {
		t.Fatalf("round trips = %d, want 2", got.CompletedRoundTrips)
	}
	if !almostEqual(got.WinRate, 0.5) {
		t.Errorf("win rate = %v, want 0.5", got.WinRate)
	}
	if !almostEqual(got.BestReturn, 0.2) {
		t.Errorf("best return = %v, want 0.2", got.BestReturn)
	}
	if !almostEqual(got.WorstReturn, -1.0/12.0) {
		t.Errorf("worst return = %v, want %v", got.WorstReturn, -1.0/12.0)
	}
	if !almostEqual(got.AvgHoldingDays, 10) {
		t.Errorf("avg holding days = %v, want 10", got.AvgHoldingDays)
	}
	if !almostEqual(got.MaxTradeValue, 120) || !almostEqual(got.MinTradeValue, 100) {
		t.Errorf("trade values = %v/%v", got.MaxTradeValue, got.MinTradeValue)
	}
	if !almostEqual(got.TradeFrequencyAnnual, 4) {
		t.Errorf("trade frequency = %v, want 4", got.TradeFrequencyAnnual)
	}
}

func TestAnalyzeTradesTimeDistributions(t *testing.T) {
	// day(0) is Monday 2024-01-01 at midnight UTC.
	trades := []core.Trade{
		{ID: 1, Time: day(0), Side: core.SideBuy, Price: 10, Quantity: 1, Value: 10},
		{ID: 2, Time: day(7).Add(9 * time.Hour), Side: core.SideSell, Price: 11, Quantity: 1, Value: 11},
		{ID: 3, Time: day(9).Add(9 * time.Hour), Side: core.SideBuy, Price: 11, Quantity: 1, Value: 11},
	}
	got := analyzeTrades(trades, 30)
	if got.HourlyDistribution[0] != 1 || got.HourlyDistribution[9] != 2 {
		t.Errorf("hourly distribution = %v, want {0:1 9:2}", got.HourlyDistribution)
	}
	// Monday keys 0, Wednesday keys 2.
	if got.WeekdayDistribution[0] != 2 || got.WeekdayDistribution[2] != 1 {
		t.Errorf("weekday distribution = %v, want {0:2 2:1}", got.WeekdayDistribution)
	}
	if !almostEqual(got.TradeFrequencyAnnual, 3.0/30.0*365) {
		t.Errorf("trade frequency = %v, want %v", got.TradeFrequencyAnnual, 3.0/30.0*365)
	}
}

func TestAnalyzePeriod(t *testing.T) {
	p := analyzePeriod(curveOf(100, 100, 100))
	if p.Days != 2 {
		t.Errorf("days = %d, want 2", p.Days)
	}
	if !almostEqual(p.Years, 2/365.25) {
		t.Errorf("years = %v, want %v", p.Years, 2/365.25)
	}

	// A single-sample curve spans zero days but never divides by zero.
	p = analyzePeriod(curveOf(100))
	if !almostEqual(p.Years, 1/365.25) {
		t.Errorf("years floor = %v, want %v", p.Years, 1/365.25)
	}
}

func TestAnalyzePerformance(t *testing.T) {
	a := NewAnalyzer(nil)
	curve := curveOf(10000, 10000, 11000)
	trades := []core.Trade{
		{ID: 1, Time: day(0), Side: core.SideBuy, Price: 100, Quantity: 99, Value: 9900, Commission: 9.9},
	}
	got := a.analyzePerformance(trades, curve, 1.0, -0.1, nil)
	if !almostEqual(got.TotalReturn, 0.1) {
		t.Errorf("total return = %v, want 0.1", got.TotalReturn)
	}
	if !almostEqual(got.AnnualReturn, 0.1) {
		t.Errorf("annual return = %v, want 0.1", got.AnnualReturn)
	}
	if !almostEqual(got.CAGR, 0.1) {
		t.Errorf("cagr = %v, want 0.1", got.CAGR)
	}
	if !almostEqual(got.TotalCommission, 9.9) {
		t.Errorf("commission = %v, want 9.9", got.TotalCommission)
	}
	if !almostEqual(got.CommissionImpact, 9.9/10000) {
		t.Errorf("commission impact = %v", got.CommissionImpact)
	}
	if !almostEqual(got.CalmarRatio, 1.0) {
		t.Errorf("calmar = %v, want 1.0", got.CalmarRatio)
	}
}

func TestAnalyzePerformanceMultiYear(t *testing.T) {
	// 44% over two years compounds to 20% per year, not 22%.
	a := NewAnalyzer(nil)
	curve := curveOf(10000, 12000, 14400)
	got := a.analyzePerformance(nil, curve, 2.0, -0.1, nil)
	if !almostEqual(got.TotalReturn, 0.44) {
		t.Errorf("total return = %v, want 0.44", got.TotalReturn)
	}
	if !almostEqual(got.AnnualReturn, 0.2) {
		t.Errorf("annual return = %v, want 0.2", got.AnnualReturn)
	}
	if !almostEqual(got.CAGR, 0.2) {
		t.Errorf("cagr = %v, want 0.2", got.CAGR)
	}
	if !almostEqual(got.CalmarRatio, 2.0) {
		t.Errorf("calmar = %v, want 2.0", got.CalmarRatio)
	}
}

func TestAnalyzeRiskFlatCurve(t *testing.T) {
	equity := []float64{100, 100, 100, 100}
	got := analyzeRisk(pctChange(equity, true), pctChange(equity, false), 0)
	if got.Volatility != 0 || got.SharpeRatio != 0 || got.SortinoRatio != 0 {
		t.Errorf("flat curve risk = %+v, want all zero", got)
	}
	if got.VaR95 != 0 || got.CVaR95 != 0 {
		t.Errorf("flat curve tail risk = %+v, want zero", got)
	}
}

func TestAnalyzeRiskSharpeSign(t *testing.T) {
	up := []float64{100, 101, 103, 104, 107}
	got := analyzeRisk(pctChange(up, true), pctChange(up, false), 0)
	if got.SharpeRatio <= 0 {
		t.Errorf("rising curve sharpe = %v, want > 0", got.SharpeRatio)
	}
	if got.Volatility <= 0 {
		t.Errorf("rising curve volatility = %v, want > 0", got.Volatility)
	}
	// All returns positive, so downside metrics stay zero.
	if got.SortinoRatio != 0 || got.DownsideDeviation != 0 {
		t.Errorf("no losses should zero downside metrics, got %+v", got)
	}
}

func TestAnalyzeRiskTail(t *testing.T) {
	returns := []float64{-0.05, 0.01, 0.02, -0.01, 0.03}
	got := analyzeRisk(append([]float64{0}, returns...), returns, 0)
	if got.VaR95 >= 0 {
		t.Errorf("VaR95 = %v, want negative", got.VaR95)
	}
	if got.CVaR95 > got.VaR95 {
		t.Errorf("CVaR95 = %v should not exceed VaR95 = %v", got.CVaR95, got.VaR95)
	}
}

func TestAnalyzeBenchmark(t *testing.T) {
	bars := []core.PriceBar{
		{Time: day(0), Open: 100, High: 100, Low: 100, Close: 100},
		{Time: day(1), Open: 100, High: 110, Low: 100, Close: 110},
		{Time: day(2), Open: 110, High: 120, Low: 110, Close: 120},
	}
	equity := []float64{10000, 10200, 10500}
	got := analyzeBenchmark(bars, equity, 0.05)
	if !almostEqual(got.BuyHoldReturn, 0.2) {
		t.Errorf("buy hold return = %v, want 0.2", got.BuyHoldReturn)
	}
	if !almostEqual(got.ExcessReturn, -0.15) {
		t.Errorf("excess return = %v, want -0.15", got.ExcessReturn)
	}
	if got.Outperformance {
		t.Error("strategy should not outperform here")
	}
	if got.InformationRatio >= 0 {
		t.Errorf("information ratio = %v, want negative", got.InformationRatio)
	}
}

func TestAnalyzeBenchmarkPadsFirstReturn(t *testing.T) {
	// The excess series keeps a zero-padded first return, so two bars
	// still yield two samples and a defined information ratio.
	bars := []core.PriceBar{
		{Time: day(0), Open: 100, High: 100, Low: 100, Close: 100},
		{Time: day(1), Open: 100, High: 110, Low: 100, Close: 110},
	}
	got := analyzeBenchmark(bars, []float64{10000, 10000}, 0)
	if got.InformationRatio >= 0 {
		t.Errorf("information ratio = %v, want negative", got.InformationRatio)
	}
}

func TestAnalyzeBenchmarkLengthMismatch(t *testing.T) {
	bars := []core.PriceBar{
		{Time: day(0), Open: 100, High: 100, Low: 100, Close: 100},
		{Time: day(1), Open: 100, High: 110, Low: 100, Close: 110},
		{Time: day(2), Open: 110, High: 120, Low: 110, Close: 120},
	}
	got := analyzeBenchmark(bars, []float64{10000, 10500}, 0.05)
	if got.InformationRatio != 0 {
		t.Errorf("mismatched lengths should skip information ratio, got %v", got.InformationRatio)
	}
	if !almostEqual(got.BuyHoldReturn, 0.2) {
		t.Errorf("buy hold return = %v, want 0.2", got.BuyHoldReturn)
	}
}

func TestAnalyzeMonthly(t *testing.T) {
	curve := []core.EquitySample{
		{Time: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), Equity: 10000},
		{Time: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), Equity: 10200},
		{Time: time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC), Equity: 10100},
		{Time: time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), Equity: 10400},
		{Time: time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), Equity: 10300},
	}
	got := analyzeMonthly(curve)
	if len(got.Returns) != 2 {
		t.Fatalf("monthly returns = %d, want 2 (first month dropped)", len(got.Returns))
	}
	febReturn := (10400.0 - 10200.0) / 10200.0
	if got.Returns[0].Month != "2024-02" || !almostEqual(got.Returns[0].Return, febReturn) {
		t.Errorf("first monthly return = %+v", got.Returns[0])
	}
	if got.PositiveMonths != 1 || got.NegativeMonths != 1 {
		t.Errorf("month counts = %d/%d, want 1/1", got.PositiveMonths, got.NegativeMonths)
	}
	if !almostEqual(got.BestMonth, febReturn) {
		t.Errorf("best month = %v, want %v", got.BestMonth, febReturn)
	}
}

func TestAnalyzeMonthlySingleMonth(t *testing.T) {
	got := analyzeMonthly(curveOf(100, 110, 120))
	if len(got.Returns) != 0 {
		t.Errorf("single month should produce no returns, got %v", got.Returns)
	}
}

func TestAnalyzeEndToEnd(t *testing.T) {
	bars := []core.PriceBar{
		{Time: day(0), Open: 100, High: 100, Low: 100, Close: 100},
		{Time: day(1), Open: 100, High: 110, Low: 100, Close: 110},
		{Time: day(2), Open: 110, High: 120, Low: 105, Close: 120},
		{Time: day(3), Open: 120, High: 120, Low: 110, Close: 115},
	}
	curve := []core.EquitySample{
		{Time: day(0), Equity: 10000, Cash: 10000, Price: 100},
		{Time: day(1), Equity: 11000, Holdings: 100, PositionValue: 11000, Price: 110},
		{Time: day(2), Equity: 12000, Holdings: 100, PositionValue: 12000, Price: 120},
		{Time: day(3), Equity: 11500, Cash: 11500, Price: 115},
	}
	trades := []core.Trade{
		{ID: 1, Time: day(0), Side: core.SideBuy, Price: 100, Quantity: 100, Value: 10000},
		{ID: 2, Time: day(3), Side: core.SideSell, Price: 115, Quantity: 100, Value: 11500},
	}

	a := NewAnalyzer(nil)
	got := a.Analyze(trades, curve, bars)

	if !almostEqual(got.Performance.TotalReturn, 0.15) {
		t.Errorf("total return = %v, want 0.15", got.Performance.TotalReturn)
	}
	if !almostEqual(got.Performance.InitialCapital, 10000) {
		t.Errorf("initial capital = %v, want 10000", got.Performance.InitialCapital)
	}
	if got.Trades.CompletedRoundTrips != 1 {
		t.Errorf("round trips = %d, want 1", got.Trades.CompletedRoundTrips)
	}
	if !almostEqual(got.Trades.RoundTrips[0].Return, 0.15) {
		t.Errorf("round trip return = %v, want 0.15", got.Trades.RoundTrips[0].Return)
	}
	if !almostEqual(got.Risk.MaxDrawdown, -500.0/12000.0) {
		t.Errorf("max drawdown = %v, want %v", got.Risk.MaxDrawdown, -500.0/12000.0)
	}
	if !almostEqual(got.Benchmark.BuyHoldReturn, 0.15) {
		t.Errorf("buy hold = %v, want 0.15", got.Benchmark.BuyHoldReturn)
	}
	if got.Period.Days != 3 {
		t.Errorf("period days = %d, want 3", got.Period.Days)
	}
	if math.IsNaN(got.Risk.SharpeRatio) || math.IsInf(got.Risk.SharpeRatio, 0) {
		t.Errorf("sharpe is not finite: %v", got.Risk.SharpeRatio)
	}
}
