package indicator

import "FinPrep/internal/series"

// RSI returns the relative strength index over windows of length k.
// Gains and losses are rolling means of the positive and negative
// one-step deltas; RSI = 100 - 100/(1+gain/loss). When the average
// loss is exactly zero the cell is defined as neutral 50, never an
// infinity. Output starts at index k because the delta consumes one
// row of history.
func RSI(s *series.Series, k int) *series.Series {
	delta := series.Diff(s)
	gain := delta.Map(func(d float64) float64 {
		if d > 0 {
			return d
		}
		return 0
	})
	loss := delta.Map(func(d float64) float64 {
		if d < 0 {
			return -d
		}
		return 0
	})

	avgGain := series.RollingMean(gain, k)
	avgLoss := series.RollingMean(loss, k)

	out := series.New(s.Len())
	for i := 0; i < s.Len(); i++ {
		g, gok := avgGain.At(i)
		l, lok := avgLoss.At(i)
		if !gok || !lok {
			continue
		}
		if l == 0 {
			out.Set(i, 50)
			continue
		}
		rs := g / l
		out.Set(i, 100-100/(1+rs))
	}
	return out
}

// StochasticK returns %K over windows of length k:
// 100 * (close - min(low, k)) / (max(high, k) - min(low, k)).
// A zero high-low range yields neutral 50.
func StochasticK(high, low, close *series.Series, k int) *series.Series {
	lo := series.RollingMin(low, k)
	hi := series.RollingMax(high, k)

	out := series.New(close.Len())
	for i := 0; i < close.Len(); i++ {
		l, lok := lo.At(i)
		h, hok := hi.At(i)
		c, cok := close.At(i)
		if !lok || !hok || !cok {
			continue
		}
		rng := h - l
		if rng == 0 {
			out.Set(i, 50)
			continue
		}
		out.Set(i, 100*(c-l)/rng)
	}
	return out
}

// StochasticD smooths a %K series with an SMA of length smooth.
func StochasticD(k *series.Series, smooth int) *series.Series {
	return series.RollingMean(k, smooth)
}

// Bias returns the deviation of the series from its own SMA in
// percent: (s - SMA(s,k)) / SMA(s,k) * 100. Cells where the moving
// average is exactly zero stay undefined rather than being forced to
// a default.
func Bias(s *series.Series, k int) *series.Series {
	m := series.RollingMean(s, k)

	out := series.New(s.Len())
	for i := 0; i < s.Len(); i++ {
		v, vok := s.At(i)
		mv, mok := m.At(i)
		if !vok || !mok || mv == 0 {
			continue
		}
		out.Set(i, (v-mv)/mv*100)
	}
	return out
}
