package analysis

import (
	"github.com/Kong-F/backtest/internal/core"
)

// pairRoundTrips matches the i-th buy with the i-th sell in execution
// order. The simulator only ever holds one position at a time, so
// positional pairing is exact; a trailing unmatched buy is an open
// position and is left out.
func pairRoundTrips(trades []core.Trade) []RoundTrip {
	var buys, sells []core.Trade
	for _, t := range trades {
		switch t.Side {
		case core.SideBuy:
			buys = append(buys, t)
		case core.SideSell:
			sells = append(sells, t)
		}
	}

	n := len(buys)
	if len(sells) < n {
		n = len(sells)
	}
	trips := make([]RoundTrip, 0, n)
	for i := 0; i < n; i++ {
		buy, sell := buys[i], sells[i]
		cost := buy.Value + buy.Commission
		proceeds := sell.Value - sell.Commission
		trips = append(trips, RoundTrip{
			BuyID:       buy.ID,
			SellID:      sell.ID,
			EntryTime:   buy.Time,
			ExitTime:    sell.Time,
			Return:      SafeDiv(proceeds-cost, cost),
			HoldingDays: int(sell.Time.Sub(buy.Time).Hours() / 24),
		})
	}
	return trips
}

func analyzeTrades(trades []core.Trade, days int) TradeStats {
	out := TradeStats{TotalTrades: len(trades)}
	if len(trades) == 0 {
		return out
	}

	var totalValue float64
	out.MinTradeValue = trades[0].Value
	out.MaxTradeValue = trades[0].Value
	out.HourlyDistribution = make(map[int]int)
	out.WeekdayDistribution = make(map[int]int)
	for _, t := range trades {
		switch t.Side {
		case core.SideBuy:
			out.BuyTrades++
		case core.SideSell:
			out.SellTrades++
		}
		totalValue += t.Value
		if t.Value > out.MaxTradeValue {
			out.MaxTradeValue = t.Value
		}
		if t.Value < out.MinTradeValue {
			out.MinTradeValue = t.Value
		}
		ts := t.Time.UTC()
		out.HourlyDistribution[ts.Hour()]++
		// Weekday keyed Monday=0 through Sunday=6.
		out.WeekdayDistribution[(int(ts.Weekday())+6)%7]++
	}
	out.AvgTradeValue = totalValue / float64(len(trades))
	out.TradeFrequencyAnnual = SafeDiv(float64(len(trades))*365, float64(days))

	trips := pairRoundTrips(trades)
	out.RoundTrips = trips
	out.CompletedRoundTrips = len(trips)
	if len(trips) == 0 {
		return out
	}

	var wins int
	var sumReturn, sumHolding float64
	out.BestReturn = trips[0].Return
	out.WorstReturn = trips[0].Return
	for _, rt := range trips {
		if rt.Return > 0 {
			wins++
		}
		sumReturn += rt.Return
		sumHolding += float64(rt.HoldingDays)
		if rt.Return > out.BestReturn {
			out.BestReturn = rt.Return
		}
		if rt.Return < out.WorstReturn {
			out.WorstReturn = rt.Return
		}
	}
	out.WinRate = float64(wins) / float64(len(trips))
	out.AvgReturn = sumReturn / float64(len(trips))
	out.AvgHoldingDays = sumHolding / float64(len(trips))
	return out
}

// profitFactor is gross round-trip gains over gross losses. Zero when
// there are no losing trips; the ratio is undefined there and callers
// treat zero as "not meaningful".
func profitFactor(trips []RoundTrip) float64 {
	var gains, losses float64
	for _, rt := range trips {
		if rt.Return > 0 {
			gains += rt.Return
		} else {
			losses += -rt.Return
		}
	}
	return SafeDiv(gains, losses)
}
