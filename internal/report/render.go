package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/Kong-F/backtest/internal/sweep"
)

// Render writes a human-readable summary of the document to w.
func Render(w io.Writer, doc *Document) {
	fmt.Fprintf(w, "Backtest %s %s (%s)\n", doc.Symbol, doc.Interval, doc.ID)
	fmt.Fprintf(w, "Capital %.2f, commission %.4f, %d run(s)\n\n",
		doc.InitialCapital, doc.CommissionRate, len(doc.Runs))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PERIOD\tTRADES\tRETURN\tANNUAL\tSHARPE\tMAX DD\tWIN RATE\t")
	fmt.Fprintln(tw, "------\t------\t------\t------\t------\t------\t--------\t")
	for _, run := range doc.Runs {
		perf := run.Analysis.Performance
		risk := run.Analysis.Risk
		marker := ""
		if run.Period == doc.BestPeriod && len(doc.Runs) > 1 {
			marker = " *"
		}
		fmt.Fprintf(tw, "%d%s\t%d\t%+.2f%%\t%+.2f%%\t%.2f\t%.2f%%\t%.1f%%\t\n",
			run.Period, marker,
			run.Analysis.Trades.TotalTrades,
			perf.TotalReturn*100,
			perf.AnnualReturn*100,
			risk.SharpeRatio,
			risk.MaxDrawdown*100,
			run.Analysis.Trades.WinRate*100)
	}
	tw.Flush()

	if run, ok := bestRun(doc); ok {
		fmt.Fprintln(w)
		renderDetail(w, run)
	}
}

func bestRun(doc *Document) (sweep.RunResult, bool) {
	if len(doc.Runs) == 1 {
		return doc.Runs[0], true
	}
	for _, run := range doc.Runs {
		if run.Period == doc.BestPeriod {
			return run, true
		}
	}
	return sweep.RunResult{}, false
}

func renderDetail(w io.Writer, run sweep.RunResult) {
	perf := run.Analysis.Performance
	risk := run.Analysis.Risk
	trades := run.Analysis.Trades
	bench := run.Analysis.Benchmark

	fmt.Fprintf(w, "Period %d detail\n", run.Period)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Final equity\t%.2f\n", perf.FinalEquity)
	fmt.Fprintf(tw, "Total return\t%+.2f%%\n", perf.TotalReturn*100)
	fmt.Fprintf(tw, "CAGR\t%+.2f%%\n", perf.CAGR*100)
	fmt.Fprintf(tw, "Commission paid\t%.2f\n", perf.TotalCommission)
	fmt.Fprintf(tw, "Profit factor\t%.2f\n", perf.ProfitFactor)
	fmt.Fprintf(tw, "Volatility\t%.2f%%\n", risk.Volatility*100)
	fmt.Fprintf(tw, "Sharpe\t%.2f\n", risk.SharpeRatio)
	fmt.Fprintf(tw, "Sortino\t%.2f\n", risk.SortinoRatio)
	fmt.Fprintf(tw, "Max drawdown\t%.2f%%\n", risk.MaxDrawdown*100)
	fmt.Fprintf(tw, "VaR 95\t%.2f%%\n", risk.VaR95*100)
	fmt.Fprintf(tw, "Round trips\t%d\n", trades.CompletedRoundTrips)
	fmt.Fprintf(tw, "Win rate\t%.1f%%\n", trades.WinRate*100)
	fmt.Fprintf(tw, "Avg holding days\t%.1f\n", trades.AvgHoldingDays)
	fmt.Fprintf(tw, "Buy & hold\t%+.2f%%\n", bench.BuyHoldReturn*100)
	fmt.Fprintf(tw, "Excess return\t%+.2f%%\n", bench.ExcessReturn*100)
	tw.Flush()
}
