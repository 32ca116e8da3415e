// Package indicator implements the technical indicators attached to
// price tables by the feature pipeline: moving averages, MACD, RSI,
// stochastic oscillator, bias, Bollinger bands and ATR. All functions
// are pure: they read their input series and return fresh series,
// propagating undefined cells during lookback warm-up.
package indicator

import "FinPrep/internal/series"

// SMA returns the unweighted rolling mean over windows of length k.
// The first k-1 cells are undefined.
func SMA(s *series.Series, k int) *series.Series {
	return series.RollingMean(s, k)
}

// EMA returns an exponential moving average with smoothing factor
// 2/(k+1). The recursion starts at the first defined input cell, whose
// value becomes the initial average directly; there is no SMA seeding
// window. Undefined input cells after the start carry the previous
// average forward.
func EMA(s *series.Series, k int) *series.Series {
	out := series.New(s.Len())
	if k < 1 {
		return out
	}
	alpha := 2.0 / float64(k+1)

	started := false
	avg := 0.0
	for i := 0; i < s.Len(); i++ {
		v, ok := s.At(i)
		if !started {
			if !ok {
				continue
			}
			avg = v
			started = true
			out.Set(i, avg)
			continue
		}
		if ok {
			avg = alpha*v + (1-alpha)*avg
		}
		out.Set(i, avg)
	}
	return out
}

// WMA returns a linearly recency-weighted rolling mean over windows of
// length k. Weights run 1..k with the newest cell weighted k, and the
// divisor is k*(k+1)/2. The first k-1 cells are undefined.
func WMA(s *series.Series, k int) *series.Series {
	out := series.New(s.Len())
	if k < 1 || k > s.Len() {
		return out
	}
	denom := float64(k*(k+1)) / 2

	for i := k - 1; i < s.Len(); i++ {
		sum := 0.0
		full := true
		for j := 0; j < k; j++ {
			v, ok := s.At(i - k + 1 + j)
			if !ok {
				full = false
				break
			}
			sum += v * float64(j+1)
		}
		if full {
			out.Set(i, sum/denom)
		}
	}
	return out
}
