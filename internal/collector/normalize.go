package collector

import (
	"fmt"
	"sort"

	"github.com/Kong-F/backtest/internal/core"
)

// Normalize prepares raw provider bars for signal generation: bars are
// sorted by timestamp, duplicate timestamps keep the first occurrence,
// and bars failing basic OHLC validity are dropped. Returns ErrNoData
// if nothing survives.
func Normalize(bars []core.PriceBar) ([]core.PriceBar, error) {
	out := make([]core.PriceBar, 0, len(bars))
	for _, b := range bars {
		if b.IsValid() {
			out = append(out, b)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time.Before(out[j].Time)
	})

	deduped := make([]core.PriceBar, 0, len(out))
	for _, b := range out {
		if n := len(deduped); n > 0 && b.Time.Equal(deduped[n-1].Time) {
			continue
		}
		deduped = append(deduped, b)
	}

	if len(deduped) == 0 {
		return nil, core.WrapError(core.ErrNoData,
			fmt.Errorf("no valid bars after normalization, %d raw", len(bars)))
	}
	return deduped, nil
}
