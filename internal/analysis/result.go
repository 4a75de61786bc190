package analysis

import "time"

// Period describes the analyzed time range.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Days  int       `json:"days"`
	Years float64   `json:"years"`
}

// PerformanceMetrics holds capital and return figures.
type PerformanceMetrics struct {
	InitialCapital   float64 `json:"initial_capital"`
	FinalEquity      float64 `json:"final_equity"`
	TotalReturn      float64 `json:"total_return"`
	AnnualReturn     float64 `json:"annual_return"`
	CAGR             float64 `json:"cagr"`
	TotalCommission  float64 `json:"total_commission"`
	CommissionImpact float64 `json:"commission_impact"`
	ProfitFactor     float64 `json:"profit_factor"`
	CalmarRatio      float64 `json:"calmar_ratio"`
}

// RiskMetrics holds volatility and tail-risk figures. All ratios are
// annualized with a fixed sqrt(252) factor regardless of bar interval.
type RiskMetrics struct {
	Volatility        float64 `json:"volatility"`
	SharpeRatio       float64 `json:"sharpe_ratio"`
	SortinoRatio      float64 `json:"sortino_ratio"`
	DownsideDeviation float64 `json:"downside_deviation"`
	MaxDrawdown       float64 `json:"max_drawdown"`
	VaR95             float64 `json:"var_95"`
	CVaR95            float64 `json:"cvar_95"`
	Skewness          float64 `json:"skewness"`
	Kurtosis          float64 `json:"kurtosis"`
}

// DrawdownEpisode is one contiguous run of negative drawdown. An
// episode still open at the end of the series is closed at the last
// available sample.
type DrawdownEpisode struct {
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	DurationDays int       `json:"duration_days"`
	Trough       float64   `json:"trough"`
}

// DrawdownAnalysis aggregates the drawdown profile of the equity curve.
type DrawdownAnalysis struct {
	MaxDrawdown     float64           `json:"max_drawdown"`
	AvgDrawdown     float64           `json:"avg_drawdown"`
	CurrentDrawdown float64           `json:"current_drawdown"`
	LongestDays     int               `json:"longest_days"`
	Deepest         float64           `json:"deepest"`
	Episodes        []DrawdownEpisode `json:"episodes"`
}

// RoundTrip is a buy paired with its positionally matching sell.
type RoundTrip struct {
	BuyID       int       `json:"buy_id"`
	SellID      int       `json:"sell_id"`
	EntryTime   time.Time `json:"entry_time"`
	ExitTime    time.Time `json:"exit_time"`
	Return      float64   `json:"return"`
	HoldingDays int       `json:"holding_days"`
}

// TradeStats holds trade-level statistics.
type TradeStats struct {
	TotalTrades          int         `json:"total_trades"`
	BuyTrades            int         `json:"buy_trades"`
	SellTrades           int         `json:"sell_trades"`
	CompletedRoundTrips  int         `json:"completed_round_trips"`
	WinRate              float64     `json:"win_rate"`
	AvgReturn            float64     `json:"avg_trade_return"`
	BestReturn           float64     `json:"best_trade"`
	WorstReturn          float64     `json:"worst_trade"`
	AvgHoldingDays       float64     `json:"avg_holding_period"`
	AvgTradeValue        float64     `json:"avg_trade_value"`
	MaxTradeValue        float64     `json:"max_trade_value"`
	MinTradeValue        float64     `json:"min_trade_value"`
	TradeFrequencyAnnual float64     `json:"trade_frequency_annual"`
	HourlyDistribution   map[int]int `json:"hourly_distribution,omitempty"`
	WeekdayDistribution  map[int]int `json:"weekly_distribution,omitempty"`
	RoundTrips           []RoundTrip `json:"round_trips,omitempty"`
}

// BenchmarkComparison compares the strategy to buy-and-hold over the
// same price series.
type BenchmarkComparison struct {
	BuyHoldReturn    float64 `json:"buy_hold_return"`
	StrategyReturn   float64 `json:"strategy_return"`
	ExcessReturn     float64 `json:"excess_return"`
	InformationRatio float64 `json:"information_ratio"`
	Outperformance   bool    `json:"outperformance"`
}

// MonthlyReturn is the equity return of one calendar month.
type MonthlyReturn struct {
	Month  string  `json:"month"` // "2006-01"
	Return float64 `json:"return"`
}

// MonthlyAnalysis aggregates month-end resampled equity returns.
type MonthlyAnalysis struct {
	Returns        []MonthlyReturn `json:"returns,omitempty"`
	BestMonth      float64         `json:"best_month"`
	WorstMonth     float64         `json:"worst_month"`
	AvgReturn      float64         `json:"avg_monthly_return"`
	Volatility     float64         `json:"monthly_volatility"`
	PositiveMonths int             `json:"positive_months"`
	NegativeMonths int             `json:"negative_months"`
}

// AnalysisResult is the full derived view of one simulation run. It is
// recomputed from scratch on every Analyze call and never mutated
// incrementally.
type AnalysisResult struct {
	Period      Period              `json:"period"`
	Performance PerformanceMetrics  `json:"performance"`
	Risk        RiskMetrics         `json:"risk"`
	Trades      TradeStats          `json:"trades"`
	Drawdowns   DrawdownAnalysis    `json:"drawdowns"`
	Benchmark   BenchmarkComparison `json:"benchmark"`
	Monthly     MonthlyAnalysis     `json:"monthly"`
}
