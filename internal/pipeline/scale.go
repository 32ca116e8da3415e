package pipeline

import (
	"fmt"

	"FinPrep/internal/series"
	"FinPrep/pkg/logger"
)

// roundDigits bounds floating noise so repeated runs stay bit-identical.
const roundDigits = 6

// Scaler maps heterogeneous indicator columns onto bounded ranges and
// drops the warm-up rows invalidated by enrichment.
//
// Price-like columns share ONE min/max computed over the combined raw
// open/high/low/close values of the batch, so every price-derived
// series stays mutually comparable. Volume-like columns are min-max
// scaled per column. Percent columns divide by 100. Signed columns
// pass through with rounding only. Zero-variance inputs scale to 0
// instead of dividing by zero.
type Scaler struct {
	cfg Config
	log *logger.Logger
}

// NewScaler creates a scaler. The logger may be nil.
func NewScaler(cfg Config, log *logger.Logger) *Scaler {
	return &Scaler{cfg: cfg, log: log}
}

// Scale writes one scaled_<name> column per configured source column
// plus the range column, then drops every row still holding an
// undefined cell and reindexes densely. The input frame is extended in
// place; the returned frame is the dense copy.
func (s *Scaler) Scale(f *Frame) (*Frame, error) {
	for _, name := range []string{ColOpen, ColClose} {
		if !f.Has(name) {
			return nil, fmt.Errorf("%s: %w", name, ErrMissingColumn)
		}
	}

	min, max, ok := s.sharedPriceBounds(f)
	degenerate := !ok || max == min
	if degenerate {
		s.warn("price scale is degenerate, outputs forced to 0",
			logger.Float64("min", min), logger.Float64("max", max))
	}
	for _, name := range s.cfg.PriceColumns {
		col, found := f.Col(name)
		if !found {
			s.warn("scaling column missing, skipped", logger.String("column", name))
			continue
		}
		scaled := s.minMaxScale(col, min, max, degenerate)
		if err := f.SetCol(ScaledPrefix+name, scaled); err != nil {
			return nil, err
		}
	}

	for _, name := range s.cfg.VolumeColumns {
		col, found := f.Col(name)
		if !found {
			s.warn("scaling column missing, skipped", logger.String("column", name))
			continue
		}
		lo, hi, colOK := col.MinMax()
		colDegenerate := !colOK || hi == lo
		if colDegenerate {
			s.warn("column variance is zero, outputs forced to 0", logger.String("column", name))
		}
		scaled := s.minMaxScale(col, lo, hi, colDegenerate)
		if err := f.SetCol(ScaledPrefix+name, scaled); err != nil {
			return nil, err
		}
	}

	for _, name := range s.cfg.PercentColumns {
		col, found := f.Col(name)
		if !found {
			s.warn("scaling column missing, skipped", logger.String("column", name))
			continue
		}
		scaled := col.Map(func(v float64) float64 {
			return series.RoundTo(v/100, roundDigits)
		})
		if err := f.SetCol(ScaledPrefix+name, scaled); err != nil {
			return nil, err
		}
	}

	for _, name := range s.cfg.SignedColumns {
		col, found := f.Col(name)
		if !found {
			s.warn("scaling column missing, skipped", logger.String("column", name))
			continue
		}
		if err := f.SetCol(ScaledPrefix+name, col.Round(roundDigits)); err != nil {
			return nil, err
		}
	}

	open, _ := f.Col(ColOpen)
	close, _ := f.Col(ColClose)
	rangeCol := series.Combine(close, open, func(c, o float64) float64 {
		if o == 0 {
			return 0
		}
		return series.RoundTo((c-o)/o*100, roundDigits)
	})
	if err := f.SetCol(ColRange, rangeCol); err != nil {
		return nil, err
	}

	return f.DropUndefinedRows(), nil
}

// sharedPriceBounds computes one min and one max over the combined raw
// OHLC cells of the batch.
func (s *Scaler) sharedPriceBounds(f *Frame) (min, max float64, ok bool) {
	for _, name := range []string{ColOpen, ColHigh, ColLow, ColClose} {
		col, found := f.Col(name)
		if !found {
			continue
		}
		lo, hi, colOK := col.MinMax()
		if !colOK {
			continue
		}
		if !ok {
			min, max, ok = lo, hi, true
			continue
		}
		if lo < min {
			min = lo
		}
		if hi > max {
			max = hi
		}
	}
	return min, max, ok
}

func (s *Scaler) minMaxScale(col *series.Series, min, max float64, degenerate bool) *series.Series {
	if degenerate {
		return col.Map(func(float64) float64 { return 0 })
	}
	span := max - min
	return col.Map(func(v float64) float64 {
		return series.RoundTo((v-min)/span, roundDigits)
	})
}

func (s *Scaler) warn(msg string, fields ...logger.Field) {
	if s.log != nil {
		s.log.Warn(msg, fields...)
	}
}
