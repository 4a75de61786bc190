package indicator

// EMA calculates the recursive Exponential Moving Average with smoothing
// factor 2/(period+1). The series is seeded from the first observation
// with no warm-up, so the output has one value per input value. The
// early values carry the seed's transient and must not be re-seeded
// with an SMA warm-up.
func EMA(prices []float64, period int) []float64 {
	if len(prices) == 0 || period <= 0 {
		return []float64{}
	}

	result := make([]float64, len(prices))
	alpha := 2.0 / float64(period+1)

	ema := prices[0]
	result[0] = ema
	for i := 1; i < len(prices); i++ {
		ema = (prices[i]-ema)*alpha + ema
		result[i] = ema
	}

	return result
}
