package pipeline

import (
	"errors"
	"math"
	"testing"

	"FinPrep/internal/series"
)

func firstDefined(t *testing.T, f *Frame, name string) int {
	t.Helper()
	col, ok := f.Col(name)
	if !ok {
		t.Fatalf("column %s missing", name)
	}
	for i := 0; i < col.Len(); i++ {
		if col.Defined(i) {
			return i
		}
	}
	t.Fatalf("column %s never defined", name)
	return -1
}

func TestEnrichAddsAllConfiguredColumns(t *testing.T) {
	f := FromBars(barsFixture(30, 100.00, 0.01))
	if err := NewEnricher(Default()).Enrich(f); err != nil {
		t.Fatalf("enrich: %v", err)
	}

	want := []string{
		ColBalance, WMAColumn(5), WMAColumn(10),
		ColMACDLine, ColMACDSig, ColMACDHist,
		ColRSI, ColStochK, ColStochD, ColBias,
		ColBollUp, ColBollLow, ColATR,
	}
	for _, name := range want {
		if !f.Has(name) {
			t.Fatalf("column %s not attached", name)
		}
	}
	if f.Rows() != 30 {
		t.Fatalf("rows: got %d, want 30 (enrich must not drop rows)", f.Rows())
	}
}

func TestEnrichBalanceIsCloseMinusOpen(t *testing.T) {
	f := FromBars(barsFixture(5, 100.00, 0.01))
	if err := NewEnricher(Default()).Enrich(f); err != nil {
		t.Fatalf("enrich: %v", err)
	}

	bal, _ := f.Col(ColBalance)
	for i := 0; i < 5; i++ {
		v, defined := bal.At(i)
		if !defined {
			t.Fatalf("balance[%d] undefined", i)
		}
		if math.Abs(v-0.002) > 1e-9 {
			t.Fatalf("balance[%d]: got %v, want 0.002", i, v)
		}
	}
}

func TestEnrichWarmupProfile(t *testing.T) {
	f := FromBars(barsFixture(30, 100.00, 0.01))
	if err := NewEnricher(Default()).Enrich(f); err != nil {
		t.Fatalf("enrich: %v", err)
	}

	// Each indicator becomes defined once its lookback fills. The
	// exponential averages start from the first input row, the
	// relative strength index spends one row on the diff plus its
	// period, and the smoothed stochastic stacks both lookbacks.
	cases := []struct {
		column string
		first  int
	}{
		{ColBalance, 0},
		{ColMACDLine, 0},
		{ColMACDSig, 0},
		{ColATR, 0},
		{WMAColumn(5), 4},
		{ColBias, 4},
		{ColRSI, 7},
		{WMAColumn(10), 9},
		{ColStochK, 13},
		{ColStochD, 15},
		{ColBollUp, 19},
		{ColBollLow, 19},
	}
	for _, tc := range cases {
		if got := firstDefined(t, f, tc.column); got != tc.first {
			t.Fatalf("%s first defined: got %d, want %d", tc.column, got, tc.first)
		}
	}
}

func TestEnrichMissingSourceColumn(t *testing.T) {
	f := NewFrame(10)
	_ = f.SetCol(ColOpen, series.FromValues(make([]float64, 10)))
	_ = f.SetCol(ColClose, series.FromValues(make([]float64, 10)))

	err := NewEnricher(Default()).Enrich(f)
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("got %v, want ErrMissingColumn", err)
	}
}
