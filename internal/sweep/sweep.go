package sweep

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Kong-F/backtest/internal/analysis"
	"github.com/Kong-F/backtest/internal/core"
	"github.com/Kong-F/backtest/internal/engine"
	"github.com/Kong-F/backtest/internal/strategy"
)

// RunResult is the outcome of one period's backtest within a sweep.
type RunResult struct {
	RunID    string                  `json:"run_id"`
	Period   int                     `json:"period"`
	Summary  strategy.SignalSummary  `json:"signal_summary"`
	Trades   []core.Trade            `json:"trades"`
	Equity   []core.EquitySample     `json:"equity_curve"`
	Analysis analysis.AnalysisResult `json:"analysis"`
}

// Runner fans a bar series out over a set of EMA periods and runs one
// isolated backtest per period. Runs share nothing but the read-only
// input bars, so they execute concurrently without coordination.
type Runner struct {
	initialCapital float64
	commissionRate float64
	analyzer       *analysis.Analyzer
	log            *zap.Logger
}

func NewRunner(initialCapital, commissionRate float64, log *zap.Logger) (*Runner, error) {
	if log == nil {
		log = zap.NewNop()
	}
	// Validate once up front so a sweep never fails per-period on
	// parameters shared by all periods.
	if _, err := engine.NewSimulator(initialCapital, commissionRate, zap.NewNop()); err != nil {
		return nil, err
	}
	return &Runner{
		initialCapital: initialCapital,
		commissionRate: commissionRate,
		analyzer:       analysis.NewAnalyzer(log),
		log:            log,
	}, nil
}

// RunOne executes a single backtest for one period.
func (r *Runner) RunOne(ctx context.Context, bars []core.PriceBar, period int) (*RunResult, error) {
	gen, err := strategy.NewChannelGenerator(period, r.log)
	if err != nil {
		return nil, err
	}
	signaled, err := gen.Generate(bars)
	if err != nil {
		return nil, err
	}

	sim, err := engine.NewSimulator(r.initialCapital, r.commissionRate, r.log)
	if err != nil {
		return nil, err
	}
	res, err := sim.Run(ctx, signaled)
	if err != nil {
		return nil, err
	}

	return &RunResult{
		RunID:    uuid.New().String(),
		Period:   period,
		Summary:  strategy.Summarize(signaled),
		Trades:   res.Trades,
		Equity:   res.EquityCurve,
		Analysis: r.analyzer.Analyze(res.Trades, res.EquityCurve, bars),
	}, nil
}

// Run executes one backtest per period concurrently and returns the
// successful results ordered by period. Individual failures are logged
// and skipped; Run only errors when every period fails or the context
// is cancelled.
func (r *Runner) Run(ctx context.Context, bars []core.PriceBar, periods []int) ([]RunResult, error) {
	if len(periods) == 0 {
		return nil, core.WrapError(core.ErrInvalidParameter,
			fmt.Errorf("no periods supplied"))
	}

	results := make([]*RunResult, len(periods))
	errs := make([]error, len(periods))

	var wg sync.WaitGroup
	for i, period := range periods {
		wg.Add(1)
		go func(i, period int) {
			defer wg.Done()
			res, err := r.RunOne(ctx, bars, period)
			if err != nil {
				errs[i] = err
				return
			}
			results[i] = res
		}(i, period)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]RunResult, 0, len(periods))
	for i, res := range results {
		if res == nil {
			r.log.Warn("sweep period failed",
				zap.Int("period", periods[i]),
				zap.Error(errs[i]))
			continue
		}
		out = append(out, *res)
	}
	if len(out) == 0 {
		return nil, core.WrapError(core.ErrSimulationFailed,
			fmt.Errorf("all %d sweep periods failed, first error: %v", len(periods), errs[0]))
	}

	sort.Slice(out, func(a, b int) bool { return out[a].Period < out[b].Period })
	return out, nil
}

// Best returns the result with the highest total return, ties going to
// the shorter period.
func Best(results []RunResult) (RunResult, bool) {
	if len(results) == 0 {
		return RunResult{}, false
	}
	best := results[0]
	for _, res := range results[1:] {
		if res.Analysis.Performance.TotalReturn > best.Analysis.Performance.TotalReturn {
			best = res
		}
	}
	return best, true
}

// BestBySharpe returns the result with the highest Sharpe ratio, ties
// going to the shorter period.
func BestBySharpe(results []RunResult) (RunResult, bool) {
	if len(results) == 0 {
		return RunResult{}, false
	}
	best := results[0]
	for _, res := range results[1:] {
		if res.Analysis.Risk.SharpeRatio > best.Analysis.Risk.SharpeRatio {
			best = res
		}
	}
	return best, true
}

// Periods expands an inclusive [from, to] range with the given step
// into a period list.
func Periods(from, to, step int) ([]int, error) {
	if from <= 0 || to < from || step <= 0 {
		return nil, core.WrapError(core.ErrInvalidParameter,
			fmt.Errorf("invalid period range %d..%d step %d", from, to, step))
	}
	var periods []int
	for p := from; p <= to; p += step {
		periods = append(periods, p)
	}
	return periods, nil
}
