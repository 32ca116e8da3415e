package pipeline

import (
	"fmt"

	"FinPrep/internal/indicator"
	"FinPrep/internal/series"
)

// Enricher attaches every configured indicator column to a raw price
// table. Columns grow, row count never changes; leading rows become
// partially undefined until each indicator's lookback is filled.
type Enricher struct {
	cfg Config
}

// NewEnricher creates an enricher for the given configuration.
func NewEnricher(cfg Config) *Enricher {
	return &Enricher{cfg: cfg}
}

// Enrich mutates the frame in place, appending derived columns.
// Fails when a required source column is absent.
func (e *Enricher) Enrich(f *Frame) error {
	required := []string{ColOpen, ColHigh, ColLow, ColClose}
	for _, name := range required {
		if !f.Has(name) {
			return fmt.Errorf("%s: %w", name, ErrMissingColumn)
		}
	}

	open, _ := f.Col(ColOpen)
	high, _ := f.Col(ColHigh)
	low, _ := f.Col(ColLow)
	close, _ := f.Col(ColClose)

	set := func(name string, s *series.Series) error {
		return f.SetCol(name, s)
	}

	if err := set(ColBalance, series.Sub(close, open)); err != nil {
		return err
	}

	for _, k := range e.cfg.WMAWindows {
		if err := set(WMAColumn(k), indicator.WMA(close, k)); err != nil {
			return err
		}
	}

	line, sig, hist := indicator.MACD(close, e.cfg.MACDShort, e.cfg.MACDLong, e.cfg.MACDSignal)
	if err := set(ColMACDLine, line); err != nil {
		return err
	}
	if err := set(ColMACDSig, sig); err != nil {
		return err
	}
	if err := set(ColMACDHist, hist); err != nil {
		return err
	}

	if err := set(ColRSI, indicator.RSI(close, e.cfg.RSIPeriod)); err != nil {
		return err
	}

	k := indicator.StochasticK(high, low, close, e.cfg.StochPeriod)
	if err := set(ColStochK, k); err != nil {
		return err
	}
	if err := set(ColStochD, indicator.StochasticD(k, e.cfg.StochSmooth)); err != nil {
		return err
	}

	if err := set(ColBias, indicator.Bias(close, e.cfg.BiasPeriod)); err != nil {
		return err
	}

	up, lo := indicator.Bollinger(close, e.cfg.BollPeriod, e.cfg.BollStd)
	if err := set(ColBollUp, up); err != nil {
		return err
	}
	if err := set(ColBollLow, lo); err != nil {
		return err
	}

	return set(ColATR, indicator.ATR(high, low, close, e.cfg.ATRPeriod))
}
