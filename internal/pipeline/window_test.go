package pipeline

import (
	"errors"
	"testing"
)

func featureRows(n int) *FeatureMatrix {
	fm := &FeatureMatrix{
		Names: []string{"scaled_close"},
		X:     make([][]float64, n),
		Y:     make([]float64, n),
	}
	for i := 0; i < n; i++ {
		fm.X[i] = []float64{float64(i)}
		fm.Y[i] = float64(i) * 10
	}
	return fm
}

func TestWindowSampleCount(t *testing.T) {
	// 20 rows with w=4: rows 0..2 cannot anchor a full window,
	// leaving 20-(4-1) = 17 samples.
	ws, err := NewWindower(4).Window(featureRows(20))
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	if got := ws.Samples(); got != 17 {
		t.Fatalf("samples: got %d, want 17", got)
	}
	if len(ws.Lags) != 4 {
		t.Fatalf("lag columns: got %d, want 4", len(ws.Lags))
	}
	if len(ws.Y) != 17 {
		t.Fatalf("labels: got %d, want 17", len(ws.Y))
	}
}

func TestWindowLagOrderOldestFirst(t *testing.T) {
	ws, err := NewWindower(3).Window(featureRows(6))
	if err != nil {
		t.Fatalf("window: %v", err)
	}

	// Sample 0 covers rows 0,1,2 oldest to newest.
	if ws.Lags[0][0][0] != 0 || ws.Lags[1][0][0] != 1 || ws.Lags[2][0][0] != 2 {
		t.Fatalf("sample 0 lags: got %v,%v,%v, want 0,1,2",
			ws.Lags[0][0][0], ws.Lags[1][0][0], ws.Lags[2][0][0])
	}
	// Last sample covers rows 3,4,5.
	last := ws.Samples() - 1
	if ws.Lags[0][last][0] != 3 || ws.Lags[2][last][0] != 5 {
		t.Fatalf("last sample lags: got %v..%v, want 3..5",
			ws.Lags[0][last][0], ws.Lags[2][last][0])
	}
}

func TestWindowLabelShiftedOneAhead(t *testing.T) {
	ws, err := NewWindower(3).Window(featureRows(6))
	if err != nil {
		t.Fatalf("window: %v", err)
	}

	// Sample 0 ends at row 2: its label is the carrier of row 3.
	if ws.Y[0] != 30 {
		t.Fatalf("Y[0]: got %v, want 30", ws.Y[0])
	}
	if ws.Y[1] != 40 {
		t.Fatalf("Y[1]: got %v, want 40", ws.Y[1])
	}
	// The final window ends at the last row, there is no next bar:
	// its label is fabricated as exactly 0.0.
	if ws.Y[ws.Samples()-1] != 0.0 {
		t.Fatalf("trailing label: got %v, want 0.0", ws.Y[ws.Samples()-1])
	}
}

func TestWindowSizeOne(t *testing.T) {
	ws, err := NewWindower(1).Window(featureRows(3))
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	if got := ws.Samples(); got != 3 {
		t.Fatalf("samples: got %d, want 3", got)
	}
	if ws.Y[0] != 10 || ws.Y[2] != 0.0 {
		t.Fatalf("labels: got %v", ws.Y)
	}
}

func TestWindowLargerThanInput(t *testing.T) {
	ws, err := NewWindower(10).Window(featureRows(4))
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	if got := ws.Samples(); got != 0 {
		t.Fatalf("samples: got %d, want 0", got)
	}
}

func TestWindowRejectsNonPositiveSize(t *testing.T) {
	if _, err := NewWindower(0).Window(featureRows(4)); !errors.Is(err, ErrBadWindow) {
		t.Fatalf("got %v, want ErrBadWindow", err)
	}
}
