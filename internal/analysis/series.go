package analysis

import (
	"math"
	"sort"
)

// SafeDiv divides two numbers, returning 0 when the denominator is
// zero. All ratio metrics route through this so the engine never
// raises or emits non-finite values for degenerate denominators.
func SafeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// pctChange returns simple per-sample returns. When fillFirst is true
// the output keeps the input length with the first return set to 0;
// otherwise the first sample is dropped and the output is one shorter.
func pctChange(values []float64, fillFirst bool) []float64 {
	if len(values) < 2 {
		if fillFirst && len(values) == 1 {
			return []float64{0}
		}
		return nil
	}

	var out []float64
	if fillFirst {
		out = make([]float64, 0, len(values))
		out = append(out, 0)
	} else {
		out = make([]float64, 0, len(values)-1)
	}

	for i := 1; i < len(values); i++ {
		out = append(out, SafeDiv(values[i]-values[i-1], values[i-1]))
	}
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stddev computes the sample standard deviation (Bessel corrected),
// 0 for fewer than two samples.
func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var variance float64
	for _, v := range values {
		variance += (v - m) * (v - m)
	}
	return math.Sqrt(variance / float64(len(values)-1))
}

// skewness computes the bias-adjusted sample skewness. It needs at
// least three samples and a nonzero spread, otherwise 0.
func skewness(values []float64) float64 {
	n := float64(len(values))
	if n < 3 {
		return 0
	}
	s := stddev(values)
	if s == 0 {
		return 0
	}
	m := mean(values)
	var sum float64
	for _, v := range values {
		z := (v - m) / s
		sum += z * z * z
	}
	return n / ((n - 1) * (n - 2)) * sum
}

// kurtosis computes the bias-adjusted excess kurtosis. It needs at
// least four samples and a nonzero spread, otherwise 0.
func kurtosis(values []float64) float64 {
	n := float64(len(values))
	if n < 4 {
		return 0
	}
	s := stddev(values)
	if s == 0 {
		return 0
	}
	m := mean(values)
	var sum float64
	for _, v := range values {
		z := (v - m) / s
		sum += z * z * z * z
	}
	return n*(n+1)/((n-1)*(n-2)*(n-3))*sum - 3*(n-1)*(n-1)/((n-2)*(n-3))
}

// percentile computes the q-th quantile (q in [0,1]) with linear
// interpolation between closest ranks.
func percentile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// runningMax returns the cumulative maximum of the series.
func runningMax(values []float64) []float64 {
	out := make([]float64, len(values))
	var peak float64
	for i, v := range values {
		if i == 0 || v > peak {
			peak = v
		}
		out[i] = peak
	}
	return out
}
