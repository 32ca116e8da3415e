// Package pipeline turns batches of price bars into fixed-size numeric
// windows for a downstream sequence model. Stages run in a fixed
// order: enrich (indicators) -> scale -> assemble -> window -> reshape.
// Every stage is a pure, synchronous, whole-batch transformation;
// nothing is shared across runs, so independent runs may execute
// concurrently on separate inputs.
package pipeline

import (
	"fmt"
	"time"

	"FinPrep/internal/domain/models"
	"FinPrep/internal/series"
)

// Raw source column names.
const (
	ColOpen   = "open"
	ColHigh   = "high"
	ColLow    = "low"
	ColClose  = "close"
	ColVolume = "volume"
)

// Derived column names written by the enricher.
const (
	ColBalance  = "balance"
	ColMACDLine = "macd_line"
	ColMACDSig  = "macd_signal"
	ColMACDHist = "macd_histogram"
	ColRSI      = "rsi"
	ColStochK   = "stoch_k"
	ColStochD   = "stoch_d"
	ColBias     = "bias"
	ColBollUp   = "boll_upper"
	ColBollLow  = "boll_lower"
	ColATR      = "atr"
	ColRange    = "range"
)

// ScaledPrefix marks columns produced by the scaler.
const ScaledPrefix = "scaled_"

// WMAColumn returns the column name for a WMA of the given window.
func WMAColumn(k int) string { return fmt.Sprintf("wma_%d", k) }

// Frame is a typed structure-of-columns price table: named series in
// stable insertion order plus an optional per-row timestamp. Stages
// append columns; only DropUndefinedRows removes rows, and it never
// reorders them.
type Frame struct {
	names []string
	cols  map[string]*series.Series
	times []time.Time
	rows  int
}

// NewFrame creates an empty frame with a fixed row count.
func NewFrame(rows int) *Frame {
	return &Frame{
		cols: make(map[string]*series.Series),
		rows: rows,
	}
}

// FromBars builds the raw price table from a bar batch: open, high,
// low, close and volume columns plus row timestamps.
func FromBars(bars []models.Bar) *Frame {
	n := len(bars)
	f := NewFrame(n)
	f.times = make([]time.Time, n)

	open := series.New(n)
	high := series.New(n)
	low := series.New(n)
	close := series.New(n)
	volume := series.New(n)
	for i, b := range bars {
		f.times[i] = b.Time
		open.Set(i, b.Open)
		high.Set(i, b.High)
		low.Set(i, b.Low)
		close.Set(i, b.Close)
		volume.Set(i, float64(b.Volume))
	}

	f.mustSet(ColOpen, open)
	f.mustSet(ColHigh, high)
	f.mustSet(ColLow, low)
	f.mustSet(ColClose, close)
	f.mustSet(ColVolume, volume)
	return f
}

// Rows returns the row count.
func (f *Frame) Rows() int { return f.rows }

// Columns returns the column names in insertion order.
func (f *Frame) Columns() []string {
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

// Has reports whether the named column exists.
func (f *Frame) Has(name string) bool {
	_, ok := f.cols[name]
	return ok
}

// Col returns the named column.
func (f *Frame) Col(name string) (*series.Series, bool) {
	s, ok := f.cols[name]
	return s, ok
}

// SetCol attaches or replaces a column. Length must match the frame.
func (f *Frame) SetCol(name string, s *series.Series) error {
	if s.Len() != f.rows {
		return fmt.Errorf("column %s: length %d does not match frame rows %d", name, s.Len(), f.rows)
	}
	if _, exists := f.cols[name]; !exists {
		f.names = append(f.names, name)
	}
	f.cols[name] = s
	return nil
}

func (f *Frame) mustSet(name string, s *series.Series) {
	if err := f.SetCol(name, s); err != nil {
		panic(err)
	}
}

// Time returns the timestamp of row i, zero when the frame carries no
// timestamps.
func (f *Frame) Time(i int) time.Time {
	if f.times == nil {
		return time.Time{}
	}
	return f.times[i]
}

// TimeBounds returns the first and last row timestamps.
func (f *Frame) TimeBounds() (from, to time.Time) {
	if f.times == nil || f.rows == 0 {
		return time.Time{}, time.Time{}
	}
	return f.times[0], f.times[f.rows-1]
}

// DropUndefinedRows returns a new frame holding only rows where every
// column is defined, reindexed densely with row order preserved.
func (f *Frame) DropUndefinedRows() *Frame {
	keep := make([]int, 0, f.rows)
	for i := 0; i < f.rows; i++ {
		ok := true
		for _, name := range f.names {
			if !f.cols[name].Defined(i) {
				ok = false
				break
			}
		}
		if ok {
			keep = append(keep, i)
		}
	}

	out := NewFrame(len(keep))
	if f.times != nil {
		out.times = make([]time.Time, len(keep))
		for j, i := range keep {
			out.times[j] = f.times[i]
		}
	}
	for _, name := range f.names {
		src := f.cols[name]
		dst := series.New(len(keep))
		for j, i := range keep {
			v, _ := src.At(i)
			dst.Set(j, v)
		}
		out.mustSet(name, dst)
	}
	return out
}
