package pipeline

import (
	"errors"
	"testing"

	"FinPrep/internal/series"
)

func TestAssembleCollectsScaledColumnsInOrder(t *testing.T) {
	f := NewFrame(3)
	_ = f.SetCol(ColClose, series.FromValues([]float64{1, 2, 3}))
	_ = f.SetCol("scaled_close", series.FromValues([]float64{0.1, 0.2, 0.3}))
	_ = f.SetCol("scaled_volume", series.FromValues([]float64{0.5, 0.6, 0.7}))
	_ = f.SetCol(ColRange, series.FromValues([]float64{1.5, -0.5, 0.25}))

	fm, err := NewAssembler().Assemble(f)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}

	wantNames := []string{"scaled_close", "scaled_volume"}
	if len(fm.Names) != len(wantNames) {
		t.Fatalf("names: got %v, want %v", fm.Names, wantNames)
	}
	for i, name := range wantNames {
		if fm.Names[i] != name {
			t.Fatalf("names[%d]: got %s, want %s", i, fm.Names[i], name)
		}
	}

	if len(fm.X) != 3 || len(fm.X[0]) != 2 {
		t.Fatalf("X shape: got %dx%d, want 3x2", len(fm.X), len(fm.X[0]))
	}
	if fm.X[1][0] != 0.2 || fm.X[1][1] != 0.6 {
		t.Fatalf("X[1]: got %v", fm.X[1])
	}

	// The label carries the same-row range; the shift happens later.
	if fm.Y[0] != 1.5 || fm.Y[1] != -0.5 || fm.Y[2] != 0.25 {
		t.Fatalf("Y: got %v", fm.Y)
	}
}

func TestAssembleEmptyTable(t *testing.T) {
	if _, err := NewAssembler().Assemble(NewFrame(0)); !errors.Is(err, ErrEmptyTable) {
		t.Fatalf("got %v, want ErrEmptyTable", err)
	}
}

func TestAssembleNoScaledColumns(t *testing.T) {
	f := NewFrame(2)
	_ = f.SetCol(ColClose, series.FromValues([]float64{1, 2}))
	_ = f.SetCol(ColRange, series.FromValues([]float64{0, 0}))

	if _, err := NewAssembler().Assemble(f); !errors.Is(err, ErrNoScaledColumns) {
		t.Fatalf("got %v, want ErrNoScaledColumns", err)
	}
}

func TestAssembleMissingRangeColumn(t *testing.T) {
	f := NewFrame(2)
	_ = f.SetCol("scaled_close", series.FromValues([]float64{0.1, 0.2}))

	if _, err := NewAssembler().Assemble(f); !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("got %v, want ErrMissingColumn", err)
	}
}
