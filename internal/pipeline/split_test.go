package pipeline

import "testing"

func splitFixture(n int) (Tensor, []float64) {
	t := make(Tensor, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		t[i] = [][]float64{{float64(i)}}
		y[i] = float64(i)
	}
	return t, y
}

func TestSplitTailIsTestSet(t *testing.T) {
	x, y := splitFixture(10)

	res, err := Split(x, y, 3, false, 0)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(res.TrainX) != 7 || len(res.TestX) != 3 {
		t.Fatalf("sizes: got %d/%d, want 7/3", len(res.TrainX), len(res.TestX))
	}
	// The test partition is the chronological tail.
	for i, want := range []float64{7, 8, 9} {
		if res.TestY[i] != want {
			t.Fatalf("TestY[%d]: got %v, want %v", i, res.TestY[i], want)
		}
		if res.TestX[i][0][0] != want {
			t.Fatalf("TestX[%d]: got %v, want %v", i, res.TestX[i][0][0], want)
		}
	}
	// Without shuffle the train partition keeps its order.
	for i := 0; i < 7; i++ {
		if res.TrainY[i] != float64(i) {
			t.Fatalf("TrainY[%d]: got %v, want %v", i, res.TrainY[i], float64(i))
		}
	}
}

func TestSplitShuffleKeepsPairsAligned(t *testing.T) {
	x, y := splitFixture(12)

	res, err := Split(x, y, 4, true, 7)
	if err != nil {
		t.Fatalf("split: %v", err)
	}

	// Whatever order the shuffle produced, X[i] still carries Y[i].
	seen := make(map[float64]bool)
	for i := range res.TrainY {
		if res.TrainX[i][0][0] != res.TrainY[i] {
			t.Fatalf("pair %d misaligned: x=%v y=%v", i, res.TrainX[i][0][0], res.TrainY[i])
		}
		seen[res.TrainY[i]] = true
	}
	for v := 0.0; v < 8; v++ {
		if !seen[v] {
			t.Fatalf("train label %v lost by shuffle", v)
		}
	}
	// Shuffle never touches the test tail.
	if res.TestY[0] != 8 || res.TestY[3] != 11 {
		t.Fatalf("test tail reordered: %v", res.TestY)
	}
}

func TestSplitSameSeedSameOrder(t *testing.T) {
	x, y := splitFixture(20)

	a, err := Split(x, y, 5, true, 42)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	b, err := Split(x, y, 5, true, 42)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	for i := range a.TrainY {
		if a.TrainY[i] != b.TrainY[i] {
			t.Fatalf("seed 42 not reproducible at %d: %v vs %v", i, a.TrainY[i], b.TrainY[i])
		}
	}
}

func TestSplitLeavesSourceUntouched(t *testing.T) {
	x, y := splitFixture(10)

	if _, err := Split(x, y, 3, true, 1); err != nil {
		t.Fatalf("split: %v", err)
	}
	for i := 0; i < 10; i++ {
		if y[i] != float64(i) || x[i][0][0] != float64(i) {
			t.Fatalf("source mutated at %d", i)
		}
	}
}

func TestSplitRejectsBadSizes(t *testing.T) {
	x, y := splitFixture(5)

	if _, err := Split(x, y, 0, false, 0); err == nil {
		t.Fatalf("test size 0 must fail")
	}
	if _, err := Split(x, y, 5, false, 0); err == nil {
		t.Fatalf("test size == n must fail")
	}
	if _, err := Split(x, y[:4], 2, false, 0); err == nil {
		t.Fatalf("length mismatch must fail")
	}
}
