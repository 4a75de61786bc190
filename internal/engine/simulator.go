package engine

import (
	"context"
	"fmt"

	"github.com/Kong-F/backtest/internal/core"
	"go.uber.org/zap"
)

// Simulator replays a signaled bar sequence against a portfolio,
// executing all-in buys and all-out sells. Execution is strictly
// sequential with no look-ahead: the equity sample for a bar is
// recorded before the bar's signal is acted on, so trade effects only
// show up from the next bar's sample.
type Simulator struct {
	initialCapital float64
	commissionRate float64
	log            *zap.Logger
}

// Result is the complete output of one simulation run.
type Result struct {
	Trades      []core.Trade        `json:"trades"`
	EquityCurve []core.EquitySample `json:"equity_curve"`
	FinalState  Portfolio           `json:"final_state"`
}

// NewSimulator creates a simulator. Initial capital must be positive
// and the commission rate must be in [0, 1).
func NewSimulator(initialCapital, commissionRate float64, log *zap.Logger) (*Simulator, error) {
	if initialCapital <= 0 {
		return nil, core.WrapError(core.ErrInvalidParameter,
			fmt.Errorf("initial capital must be positive, got %f", initialCapital))
	}
	if commissionRate < 0 || commissionRate >= 1 {
		return nil, core.WrapError(core.ErrInvalidParameter,
			fmt.Errorf("commission rate must be in [0, 1), got %f", commissionRate))
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Simulator{
		initialCapital: initialCapital,
		commissionRate: commissionRate,
		log:            log,
	}, nil
}

// Run executes the simulation over the signaled bars in order. The
// result is deterministic: identical inputs produce identical trade
// logs and equity curves. Cancelling the context discards the run.
func (s *Simulator) Run(ctx context.Context, bars []core.SignaledBar) (*Result, error) {
	if len(bars) == 0 {
		return nil, core.WrapError(core.ErrEmptyInput,
			fmt.Errorf("no signaled bars supplied"))
	}

	s.log.Info("starting simulation",
		zap.Time("start", bars[0].Time),
		zap.Time("end", bars[len(bars)-1].Time),
		zap.Float64("initial_capital", s.initialCapital),
		zap.Float64("commission_rate", s.commissionRate))

	portfolio := NewPortfolio(s.initialCapital)
	trades := make([]core.Trade, 0)
	curve := make([]core.EquitySample, 0, len(bars))
	tradeID := 0

	for _, bar := range bars {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		price := bar.Close

		// Sample equity before acting on this bar's signal.
		curve = append(curve, core.EquitySample{
			Time:          bar.Time,
			Equity:        portfolio.TotalValue(price),
			Cash:          portfolio.Cash,
			Holdings:      portfolio.Holdings,
			PositionValue: portfolio.PositionValue(price),
			Price:         price,
		})

		switch bar.Signal {
		case core.SignalBuy:
			quantity, commission := portfolio.Buy(price, s.commissionRate)
			if quantity > 0 {
				tradeID++
				trades = append(trades, core.Trade{
					ID:         tradeID,
					Time:       bar.Time,
					Side:       core.SideBuy,
					Price:      price,
					Quantity:   quantity,
					Commission: commission,
					Value:      price * quantity,
				})
				s.log.Debug("buy executed",
					zap.Int("trade_id", tradeID),
					zap.Float64("price", price),
					zap.Float64("quantity", quantity),
					zap.Float64("commission", commission))
			}
		case core.SignalSell:
			quantity, commission := portfolio.Sell(price, s.commissionRate)
			if quantity > 0 {
				tradeID++
				trades = append(trades, core.Trade{
					ID:         tradeID,
					Time:       bar.Time,
					Side:       core.SideSell,
					Price:      price,
					Quantity:   quantity,
					Commission: commission,
					Value:      price * quantity,
				})
				s.log.Debug("sell executed",
					zap.Int("trade_id", tradeID),
					zap.Float64("price", price),
					zap.Float64("quantity", quantity),
					zap.Float64("commission", commission))
			}
		}
	}

	s.log.Info("simulation complete",
		zap.Int("trades", len(trades)),
		zap.Float64("final_equity", portfolio.TotalValue(bars[len(bars)-1].Close)))

	return &Result{
		Trades:      trades,
		EquityCurve: curve,
		FinalState:  *portfolio,
	}, nil
}
