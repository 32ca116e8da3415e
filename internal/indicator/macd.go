package indicator

import "FinPrep/internal/series"

// MACD returns the moving average convergence divergence triple:
// line = EMA(s, short) - EMA(s, long), signal = EMA(line, signalK),
// histogram = line - signal.
func MACD(s *series.Series, short, long, signalK int) (line, signal, histogram *series.Series) {
	line = series.Sub(EMA(s, short), EMA(s, long))
	signal = EMA(line, signalK)
	histogram = series.Sub(line, signal)
	return line, signal, histogram
}
