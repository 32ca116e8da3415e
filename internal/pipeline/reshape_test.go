package pipeline

import (
	"errors"
	"testing"
)

func windowedFixture(t *testing.T) *WindowedSet {
	t.Helper()
	fm := &FeatureMatrix{
		Names: []string{"scaled_close", "scaled_volume"},
		X: [][]float64{
			{0, 0.5},
			{1, 1.5},
			{2, 2.5},
			{3, 3.5},
		},
		Y: []float64{0, 10, 20, 30},
	}
	ws, err := NewWindower(2).Window(fm)
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	return ws
}

func TestReshapeTraining(t *testing.T) {
	ws := windowedFixture(t)

	tensor, labels, err := NewReshaper().Training(ws, 2, 2)
	if err != nil {
		t.Fatalf("training reshape: %v", err)
	}

	n, w, f := tensor.Shape()
	if n != 3 || w != 2 || f != 2 {
		t.Fatalf("shape: got (%d,%d,%d), want (3,2,2)", n, w, f)
	}

	// Sample 0 stacks rows 0 and 1 oldest to newest.
	if tensor[0][0][0] != 0 || tensor[0][0][1] != 0.5 {
		t.Fatalf("tensor[0][0]: got %v", tensor[0][0])
	}
	if tensor[0][1][0] != 1 || tensor[0][1][1] != 1.5 {
		t.Fatalf("tensor[0][1]: got %v", tensor[0][1])
	}
	if tensor[2][1][0] != 3 {
		t.Fatalf("tensor[2][1]: got %v", tensor[2][1])
	}

	// Labels are shifted one bar ahead with the trailing 0 fabricated.
	want := []float64{20, 30, 0}
	for i, y := range want {
		if labels[i] != y {
			t.Fatalf("labels[%d]: got %v, want %v", i, labels[i], y)
		}
	}
}

func TestReshapeTrainingLabelsAreIndependent(t *testing.T) {
	ws := windowedFixture(t)

	_, labels, err := NewReshaper().Training(ws, 2, 2)
	if err != nil {
		t.Fatalf("training reshape: %v", err)
	}

	labels[0] = -1
	if ws.Y[0] != 20 {
		t.Fatalf("mutating returned labels leaked into source: %v", ws.Y)
	}
}

func TestReshapeInference(t *testing.T) {
	ws := windowedFixture(t)

	tensor, featureCount, err := NewReshaper().Inference(ws, 2, 2)
	if err != nil {
		t.Fatalf("inference reshape: %v", err)
	}
	if featureCount != 2 {
		t.Fatalf("feature count: got %d, want 2", featureCount)
	}

	// The label column stays out of the feature dimension.
	n, w, f := tensor.Shape()
	if n != 3 || w != 2 || f != 2 {
		t.Fatalf("shape: got (%d,%d,%d), want (3,2,2)", n, w, f)
	}
}

func TestReshapeRejectsIndivisibleGeometry(t *testing.T) {
	ws := windowedFixture(t)

	// 12 scalars cannot tile (n, 2, 5).
	if _, _, err := NewReshaper().Training(ws, 2, 5); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("got %v, want ErrShapeMismatch", err)
	}
}

func TestReshapeRejectsNonPositiveDims(t *testing.T) {
	ws := windowedFixture(t)

	if _, _, err := NewReshaper().Training(ws, 0, 2); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("w=0: got %v, want ErrShapeMismatch", err)
	}
	if _, _, err := NewReshaper().Training(ws, 2, -1); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("f=-1: got %v, want ErrShapeMismatch", err)
	}
}
