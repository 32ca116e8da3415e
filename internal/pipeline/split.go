package pipeline

import (
	"fmt"
	"math/rand"
)

// SplitResult holds a chronological train/test partition of a
// training run. The test set is always the unshuffled tail so it
// never sees the future of its training data.
type SplitResult struct {
	TrainX Tensor
	TrainY []float64
	TestX  Tensor
	TestY  []float64
}

// Split carves the last testSize samples off as the test set and
// keeps the head as training data, optionally shuffled with a seeded
// permutation. X/y pairs stay aligned; the same seed reproduces the
// same order.
func Split(t Tensor, y []float64, testSize int, shuffle bool, seed int64) (*SplitResult, error) {
	if len(t) != len(y) {
		return nil, fmt.Errorf("split: %d samples vs %d labels", len(t), len(y))
	}
	n := len(t)
	if testSize < 1 || testSize >= n {
		return nil, fmt.Errorf("split: test size %d out of range for %d samples", testSize, n)
	}

	cut := n - testSize
	res := &SplitResult{
		TrainX: make(Tensor, cut),
		TrainY: make([]float64, cut),
		TestX:  make(Tensor, testSize),
		TestY:  make([]float64, testSize),
	}
	copy(res.TrainX, t[:cut])
	copy(res.TrainY, y[:cut])
	copy(res.TestX, t[cut:])
	copy(res.TestY, y[cut:])

	if shuffle {
		rng := rand.New(rand.NewSource(seed))
		rng.Shuffle(cut, func(i, j int) {
			res.TrainX[i], res.TrainX[j] = res.TrainX[j], res.TrainX[i]
			res.TrainY[i], res.TrainY[j] = res.TrainY[j], res.TrainY[i]
		})
	}
	return res, nil
}
