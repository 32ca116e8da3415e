package pipeline

import (
	"testing"
	"time"

	"FinPrep/internal/domain/models"
	"FinPrep/internal/series"
)

func barsFixture(n int, startClose, step float64) []models.Bar {
	bars := make([]models.Bar, n)
	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		close := startClose + float64(i)*step
		bars[i] = models.Bar{
			Symbol: "EURUSD",
			Time:   t0.Add(time.Duration(i) * time.Minute),
			Open:   close - 0.002,
			High:   close + 0.003,
			Low:    close - 0.005,
			Close:  close,
			Volume: int64(1000 + i),
			Spread: 2,
		}
	}
	return bars
}

func TestFromBarsColumns(t *testing.T) {
	f := FromBars(barsFixture(3, 100, 0.01))

	want := []string{ColOpen, ColHigh, ColLow, ColClose, ColVolume}
	got := f.Columns()
	if len(got) != len(want) {
		t.Fatalf("columns: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("column %d: got %s, want %s", i, got[i], want[i])
		}
	}

	close, _ := f.Col(ColClose)
	v, ok := close.At(1)
	if !ok || v != 100.01 {
		t.Fatalf("close[1]: got %v (%v), want 100.01", v, ok)
	}
	vol, _ := f.Col(ColVolume)
	if v, _ := vol.At(2); v != 1002 {
		t.Fatalf("volume[2]: got %v, want 1002", v)
	}
}

func TestSetColLengthMismatch(t *testing.T) {
	f := NewFrame(3)
	if err := f.SetCol("x", series.New(2)); err == nil {
		t.Fatalf("expected length mismatch error")
	}
}

func TestSetColReplaceKeepsOrder(t *testing.T) {
	f := NewFrame(2)
	_ = f.SetCol("a", series.FromValues([]float64{1, 2}))
	_ = f.SetCol("b", series.FromValues([]float64{3, 4}))
	_ = f.SetCol("a", series.FromValues([]float64{9, 9}))

	cols := f.Columns()
	if len(cols) != 2 || cols[0] != "a" || cols[1] != "b" {
		t.Fatalf("columns after replace: got %v", cols)
	}
	a, _ := f.Col("a")
	if v, _ := a.At(0); v != 9 {
		t.Fatalf("replaced column not visible: got %v", v)
	}
}

func TestDropUndefinedRowsReindexesDense(t *testing.T) {
	f := FromBars(barsFixture(5, 10, 1))

	ind := series.New(5)
	ind.Set(2, 7)
	ind.Set(3, 8)
	ind.Set(4, 9)
	if err := f.SetCol("ind", ind); err != nil {
		t.Fatalf("set col: %v", err)
	}

	dense := f.DropUndefinedRows()
	if dense.Rows() != 3 {
		t.Fatalf("rows after drop: got %d, want 3", dense.Rows())
	}

	// Row order preserved, index dense from 0.
	close, _ := dense.Col(ColClose)
	if v, _ := close.At(0); v != 12 {
		t.Fatalf("close[0] after drop: got %v, want 12", v)
	}
	if v, _ := close.At(2); v != 14 {
		t.Fatalf("close[2] after drop: got %v, want 14", v)
	}

	// Timestamps travel with their rows.
	if got := dense.Time(0); got != f.Time(2) {
		t.Fatalf("time[0] after drop: got %v, want %v", got, f.Time(2))
	}

	from, to := dense.TimeBounds()
	if from != f.Time(2) || to != f.Time(4) {
		t.Fatalf("time bounds after drop: got %v..%v", from, to)
	}
}
