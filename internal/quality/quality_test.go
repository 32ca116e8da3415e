package quality

import (
	"math"
	"testing"
	"time"

	"FinPrep/internal/domain/models"
	"FinPrep/internal/domain/repository"
)

func minuteBar(base time.Time, offset int, open, close float64, volume int64) models.Bar {
	return models.Bar{
		Symbol: "EURUSD",
		Time:   base.Add(time.Duration(offset) * time.Minute),
		Open:   open,
		High:   math.Max(open, close) + 0.001,
		Low:    math.Min(open, close) - 0.001,
		Close:  close,
		Volume: volume,
		Spread: 2,
	}
}

func TestIQRFences(t *testing.T) {
	// q1=2.75, q3=6.25, iqr=3.5: fences at -2.5 and 11.5.
	lo, hi, ok := IQRFences([]float64{1, 2, 3, 4, 5, 6, 7, 100})
	if !ok {
		t.Fatalf("fences not computed")
	}
	if math.Abs(lo-(-2.5)) > 1e-9 || math.Abs(hi-11.5) > 1e-9 {
		t.Fatalf("fences: got (%v, %v), want (-2.5, 11.5)", lo, hi)
	}
}

func TestIQRFencesTooFewValues(t *testing.T) {
	if _, _, ok := IQRFences([]float64{1, 2, 3}); ok {
		t.Fatalf("three values must not produce fences")
	}
}

func TestContinuityFindsHoles(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	bars := []models.Bar{
		minuteBar(base, 0, 1, 1.1, 100),
		minuteBar(base, 1, 1, 1.1, 100),
		minuteBar(base, 2, 1, 1.1, 100),
		minuteBar(base, 5, 1, 1.1, 100), // two bars missing
		minuteBar(base, 6, 1, 1.1, 100),
	}

	gaps := Continuity(bars, time.Minute)
	if len(gaps) != 1 {
		t.Fatalf("gaps: got %d, want 1", len(gaps))
	}
	if gaps[0].Missing != 2 {
		t.Fatalf("missing: got %d, want 2", gaps[0].Missing)
	}
	if !gaps[0].After.Equal(base.Add(2 * time.Minute)) {
		t.Fatalf("gap anchor: got %v", gaps[0].After)
	}
}

func TestContinuityContiguous(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	bars := []models.Bar{
		minuteBar(base, 0, 1, 1.1, 100),
		minuteBar(base, 1, 1, 1.1, 100),
		minuteBar(base, 2, 1, 1.1, 100),
	}
	if gaps := Continuity(bars, time.Minute); len(gaps) != 0 {
		t.Fatalf("contiguous series reported gaps: %v", gaps)
	}
}

func TestAnalyze(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, 0, 10)
	offsets := []int{0, 1, 2, 3, 4, 7, 8, 9, 10, 11} // hole after minute 4
	for i, off := range offsets {
		open, close := 0.9, 1.0
		volume := int64(1000)
		switch i {
		case 3:
			open = 1.0 // zero-range bar
		case 5:
			volume = 0
		case 8:
			open, close = 99.9, 100 // price spike
		}
		bars = append(bars, minuteBar(base, off, open, close, volume))
	}

	r := Analyze(bars, repository.TF1m)

	if r.Rows != 10 {
		t.Fatalf("rows: got %d, want 10", r.Rows)
	}
	if !r.From.Equal(base) || !r.To.Equal(base.Add(11*time.Minute)) {
		t.Fatalf("bounds: got %v..%v", r.From, r.To)
	}
	if len(r.Gaps) != 1 || r.Gaps[0].Missing != 2 {
		t.Fatalf("gaps: got %v", r.Gaps)
	}
	if r.MissingVolume != 1 {
		t.Fatalf("missing volume: got %d, want 1", r.MissingVolume)
	}
	if r.ZeroRangeBars != 1 {
		t.Fatalf("zero-range bars: got %d, want 1", r.ZeroRangeBars)
	}
	if r.Outliers["close"] != 1 {
		t.Fatalf("close outliers: got %d, want 1", r.Outliers["close"])
	}
	if r.Outliers["volume"] != 1 {
		t.Fatalf("volume outliers: got %d, want 1", r.Outliers["volume"])
	}
	if r.Outliers["spread"] != 0 {
		t.Fatalf("spread outliers: got %d, want 0", r.Outliers["spread"])
	}
	if r.LogVolume.Mean <= 0 || r.LogVolume.Std <= 0 {
		t.Fatalf("log-volume dispersion: got %+v", r.LogVolume)
	}

	s := r.Summary()
	if s.Gaps != 1 || s.Outliers != 2 || s.ZeroRangeBars != 1 || !s.MissingVolume {
		t.Fatalf("summary: got %+v", s)
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	r := Analyze(nil, repository.TF1m)
	if r.Rows != 0 || len(r.Gaps) != 0 {
		t.Fatalf("empty report: got %+v", r)
	}
	if s := r.Summary(); s.MissingVolume || s.Outliers != 0 {
		t.Fatalf("empty summary: got %+v", s)
	}
}
