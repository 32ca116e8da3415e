package pipeline

import (
	"math"
	"testing"

	"FinPrep/internal/series"
)

func scaleConfig() Config {
	cfg := Default()
	cfg.PriceColumns = []string{ColOpen, ColClose}
	cfg.VolumeColumns = []string{ColVolume}
	cfg.PercentColumns = []string{ColRSI}
	cfg.SignedColumns = []string{ColMACDLine}
	return cfg
}

func rawFrame(open, high, low, close []float64) *Frame {
	f := NewFrame(len(open))
	_ = f.SetCol(ColOpen, series.FromValues(open))
	_ = f.SetCol(ColHigh, series.FromValues(high))
	_ = f.SetCol(ColLow, series.FromValues(low))
	_ = f.SetCol(ColClose, series.FromValues(close))
	return f
}

func cell(t *testing.T, f *Frame, name string, i int) float64 {
	t.Helper()
	col, ok := f.Col(name)
	if !ok {
		t.Fatalf("column %s missing", name)
	}
	v, defined := col.At(i)
	if !defined {
		t.Fatalf("%s[%d] undefined", name, i)
	}
	return v
}

func TestScaleSharedPriceBounds(t *testing.T) {
	// Combined OHLC min=0.5 max=4, one shared scale for all price cols:
	//   scaled_close[0] = (2-0.5)/3.5 = 0.428571
	//   scaled_open[1]  = (2-0.5)/3.5 = 0.428571
	f := rawFrame(
		[]float64{1, 2},
		[]float64{3, 4},
		[]float64{0.5, 1},
		[]float64{2, 3},
	)
	out, err := NewScaler(scaleConfig(), nil).Scale(f)
	if err != nil {
		t.Fatalf("scale: %v", err)
	}

	if got := cell(t, out, "scaled_close", 0); math.Abs(got-0.428571) > 1e-9 {
		t.Fatalf("scaled_close[0]: got %v, want 0.428571", got)
	}
	if got := cell(t, out, "scaled_open", 1); math.Abs(got-0.428571) > 1e-9 {
		t.Fatalf("scaled_open[1]: got %v, want 0.428571", got)
	}
	if got := cell(t, out, "scaled_close", 1); math.Abs(got-(3-0.5)/3.5) > 1e-6 {
		t.Fatalf("scaled_close[1]: got %v", got)
	}
}

func TestScaleZeroVarianceFallsBackToZero(t *testing.T) {
	five := []float64{5, 5, 5}
	f := rawFrame(five, five, five, five)
	vol := series.FromValues([]float64{42, 42, 42})
	_ = f.SetCol(ColVolume, vol)

	out, err := NewScaler(scaleConfig(), nil).Scale(f)
	if err != nil {
		t.Fatalf("scale: %v", err)
	}

	for i := 0; i < out.Rows(); i++ {
		if got := cell(t, out, "scaled_close", i); got != 0 {
			t.Fatalf("scaled_close[%d]: got %v, want exactly 0", i, got)
		}
		if got := cell(t, out, "scaled_volume", i); got != 0 {
			t.Fatalf("scaled_volume[%d]: got %v, want exactly 0", i, got)
		}
	}
}

func TestScaleVolumeIndependentOfPrices(t *testing.T) {
	f := rawFrame(
		[]float64{1, 1},
		[]float64{2, 2},
		[]float64{1, 1},
		[]float64{2, 1},
	)
	_ = f.SetCol(ColVolume, series.FromValues([]float64{100, 300}))

	out, err := NewScaler(scaleConfig(), nil).Scale(f)
	if err != nil {
		t.Fatalf("scale: %v", err)
	}

	// Volume uses its own min/max, not the shared price bounds.
	if got := cell(t, out, "scaled_volume", 0); got != 0 {
		t.Fatalf("scaled_volume[0]: got %v, want 0", got)
	}
	if got := cell(t, out, "scaled_volume", 1); got != 1 {
		t.Fatalf("scaled_volume[1]: got %v, want 1", got)
	}
}

func TestScalePercentAndSignedRules(t *testing.T) {
	f := rawFrame(
		[]float64{1, 1},
		[]float64{2, 2},
		[]float64{1, 1},
		[]float64{2, 1},
	)
	_ = f.SetCol(ColRSI, series.FromValues([]float64{50, 75}))
	_ = f.SetCol(ColMACDLine, series.FromValues([]float64{0.12345678, -0.5}))

	out, err := NewScaler(scaleConfig(), nil).Scale(f)
	if err != nil {
		t.Fatalf("scale: %v", err)
	}

	if got := cell(t, out, "scaled_rsi", 0); got != 0.5 {
		t.Fatalf("scaled_rsi[0]: got %v, want 0.5", got)
	}
	if got := cell(t, out, "scaled_rsi", 1); got != 0.75 {
		t.Fatalf("scaled_rsi[1]: got %v, want 0.75", got)
	}
	// Signed columns: rounded pass-through, no min-max.
	if got := cell(t, out, "scaled_macd_line", 0); got != 0.123457 {
		t.Fatalf("scaled_macd_line[0]: got %v, want 0.123457", got)
	}
	if got := cell(t, out, "scaled_macd_line", 1); got != -0.5 {
		t.Fatalf("scaled_macd_line[1]: got %v, want -0.5", got)
	}
}

func TestScaleRangeColumn(t *testing.T) {
	f := rawFrame(
		[]float64{2, 0},
		[]float64{4, 2},
		[]float64{1, 0},
		[]float64{3, 1},
	)
	out, err := NewScaler(scaleConfig(), nil).Scale(f)
	if err != nil {
		t.Fatalf("scale: %v", err)
	}

	// (3-2)/2*100 = 50; zero open substitutes 0 instead of dividing.
	if got := cell(t, out, ColRange, 0); got != 50 {
		t.Fatalf("range[0]: got %v, want 50", got)
	}
	if got := cell(t, out, ColRange, 1); got != 0 {
		t.Fatalf("range[1]: got %v, want 0", got)
	}
}

func TestScaleMissingConfiguredColumnIsSkipped(t *testing.T) {
	// No volume/rsi/macd columns attached: those groups are skipped
	// with a warning, scaling continues for the rest.
	f := rawFrame(
		[]float64{1, 2},
		[]float64{3, 4},
		[]float64{0.5, 1},
		[]float64{2, 3},
	)
	out, err := NewScaler(scaleConfig(), nil).Scale(f)
	if err != nil {
		t.Fatalf("scale should not fail on missing optional columns: %v", err)
	}
	if out.Has("scaled_volume") || out.Has("scaled_rsi") {
		t.Fatalf("skipped groups must not produce columns")
	}
	if !out.Has("scaled_close") {
		t.Fatalf("price scaling should still run")
	}
}

func TestScaleDropsWarmupRows(t *testing.T) {
	f := rawFrame(
		[]float64{1, 1, 1, 1},
		[]float64{2, 2, 2, 2},
		[]float64{1, 1, 1, 1},
		[]float64{1, 2, 1, 2},
	)
	// Indicator with two warm-up rows undefined.
	ind := series.New(4)
	ind.Set(2, 60)
	ind.Set(3, 40)
	_ = f.SetCol(ColRSI, ind)

	out, err := NewScaler(scaleConfig(), nil).Scale(f)
	if err != nil {
		t.Fatalf("scale: %v", err)
	}
	if out.Rows() != 2 {
		t.Fatalf("rows after drop: got %d, want 2", out.Rows())
	}
	if got := cell(t, out, "scaled_rsi", 0); got != 0.6 {
		t.Fatalf("scaled_rsi[0] after drop: got %v, want 0.6", got)
	}
}
