package collector

import (
	"time"

	"github.com/Kong-F/backtest/internal/core"
)

// HistoryProvider fetches historical OHLCV bars for a symbol.
type HistoryProvider interface {
	// Name returns a short provider identifier
	Name() string

	// FetchHistory fetches bars for [start, end] at the given interval
	FetchHistory(symbol string, start, end time.Time, interval string) ([]core.PriceBar, error)
}
