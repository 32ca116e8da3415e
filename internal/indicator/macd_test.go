package indicator

import (
	"testing"

	"FinPrep/internal/series"
)

func TestMACDHandComputed(t *testing.T) {
	// short=2 (alpha=2/3), long=3 (alpha=1/2), signal=2 (alpha=2/3)
	// over 1,2,3,4:
	//   emaShort: 1, 5/3, 23/9, 95/27
	//   emaLong:  1, 1.5, 2.25, 3.125
	//   line:     0, 1/6, 11/36, 0.3935185
	//   signal:   0, 1/9, 13/54, 0.3425926
	s := series.FromValues([]float64{1, 2, 3, 4})
	line, sig, hist := MACD(s, 2, 3, 2)

	assertClose(t, "line[0]", defined(t, "line", line, 0), 0, 1e-9)
	assertClose(t, "line[1]", defined(t, "line", line, 1), 1.0/6, 1e-9)
	assertClose(t, "line[2]", defined(t, "line", line, 2), 11.0/36, 1e-9)
	assertClose(t, "line[3]", defined(t, "line", line, 3), 0.3935185, 1e-6)

	assertClose(t, "signal[1]", defined(t, "signal", sig, 1), 1.0/9, 1e-9)
	assertClose(t, "signal[3]", defined(t, "signal", sig, 3), 0.3425926, 1e-6)

	assertClose(t, "hist[3]", defined(t, "hist", hist, 3), 0.0509259, 1e-6)
}

func TestMACDConstantSeriesIsZero(t *testing.T) {
	s := series.FromValues([]float64{3, 3, 3, 3, 3, 3})
	line, sig, hist := MACD(s, 2, 4, 3)

	for i := 0; i < s.Len(); i++ {
		assertClose(t, "line", defined(t, "line", line, i), 0, 1e-12)
		assertClose(t, "signal", defined(t, "signal", sig, i), 0, 1e-12)
		assertClose(t, "hist", defined(t, "hist", hist, i), 0, 1e-12)
	}
}
