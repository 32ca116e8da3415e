package indicator

import (
	"math"

	"FinPrep/internal/series"
)

// Bollinger returns the upper and lower bands sma +/- nStd*std over
// windows of length k, using the sample standard deviation. For a
// constant series both bands collapse onto the input value.
func Bollinger(s *series.Series, k int, nStd float64) (upper, lower *series.Series) {
	m := series.RollingMean(s, k)
	sd := series.RollingStd(s, k)

	upper = series.Combine(m, sd, func(mv, sv float64) float64 { return mv + nStd*sv })
	lower = series.Combine(m, sd, func(mv, sv float64) float64 { return mv - nStd*sv })
	return upper, lower
}

// TrueRange returns max(high-low, |high-prevClose|, |low-prevClose|).
// Row 0 has no previous close and falls back to high-low.
func TrueRange(high, low, close *series.Series) *series.Series {
	out := series.New(high.Len())
	for i := 0; i < high.Len(); i++ {
		h, hok := high.At(i)
		l, lok := low.At(i)
		if !hok || !lok {
			continue
		}
		if i == 0 {
			out.Set(i, h-l)
			continue
		}
		pc, pcok := close.At(i - 1)
		if !pcok {
			continue
		}
		tr := h - l
		if d := math.Abs(h - pc); d > tr {
			tr = d
		}
		if d := math.Abs(l - pc); d > tr {
			tr = d
		}
		out.Set(i, tr)
	}
	return out
}

// ATR returns the rolling mean of the true range over windows of
// length k with a relaxed minimum period of 1, so it is defined from
// the very first row, unlike the other lookback indicators.
func ATR(high, low, close *series.Series, k int) *series.Series {
	return series.RollingMeanRelaxed(TrueRange(high, low, close), k)
}
