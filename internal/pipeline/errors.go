package pipeline

import "errors"

// Fatal pipeline errors. Configuration problems abort the run with no
// partial result; degenerate numeric inputs never surface here, they
// fall back locally (0, 50 or undefined depending on the indicator).
var (
	// ErrMissingColumn reports a required source column absent from the
	// input table.
	ErrMissingColumn = errors.New("required source column missing")

	// ErrEmptyTable reports an input table with no rows left.
	ErrEmptyTable = errors.New("table has no rows")

	// ErrNoScaledColumns reports a configuration that produced no
	// scaled feature columns to learn from.
	ErrNoScaledColumns = errors.New("no scaled feature columns")

	// ErrBadWindow reports a window size below 1.
	ErrBadWindow = errors.New("window size must be at least 1")

	// ErrShapeMismatch reports a flattened scalar count that does not
	// divide evenly into (samples, window, features).
	ErrShapeMismatch = errors.New("flattened size not divisible by window*features")
)
