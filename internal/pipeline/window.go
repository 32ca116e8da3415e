package pipeline

// WindowedSet holds the lagged copies of the feature vectors. Lag
// column j at sample i is the feature vector of source row
// i+(j-(w-1)), so Lags[w-1] is always the newest vector of the
// window. Labels are the carrier labels shifted one step ahead.
type WindowedSet struct {
	W    int
	Lags [][][]float64 // [w][samples][features]
	Y    []float64     // [samples]
}

// Samples returns the number of windowed samples.
func (ws *WindowedSet) Samples() int {
	if len(ws.Lags) == 0 {
		return 0
	}
	return len(ws.Lags[0])
}

// Windower slides a fixed-length window over the feature rows.
type Windower struct {
	w int
}

// NewWindower creates a windower with window size w.
func NewWindower(w int) *Windower {
	return &Windower{w: w}
}

// Window emits one sample per index i >= w-1 holding the feature
// vectors of rows i-(w-1)..i oldest to newest. The label of sample i
// is the carrier label of row i+1; the final sample, whose shift
// would read past the end, gets 0.0 fabricated instead of being
// dropped. Rows whose window would reach before row 0 are not
// emitted, so the output count is len(rows) - (w-1).
func (wd *Windower) Window(fm *FeatureMatrix) (*WindowedSet, error) {
	if wd.w < 1 {
		return nil, ErrBadWindow
	}

	n := len(fm.X)
	count := n - (wd.w - 1)
	if count < 0 {
		count = 0
	}

	ws := &WindowedSet{
		W:    wd.w,
		Lags: make([][][]float64, wd.w),
		Y:    make([]float64, count),
	}
	for j := 0; j < wd.w; j++ {
		ws.Lags[j] = make([][]float64, count)
	}

	for i := wd.w - 1; i < n; i++ {
		sample := i - (wd.w - 1)
		for j := 0; j < wd.w; j++ {
			ws.Lags[j][sample] = fm.X[i-(wd.w-1)+j]
		}
		if i+1 < n {
			ws.Y[sample] = fm.Y[i+1]
		} else {
			ws.Y[sample] = 0.0
		}
	}
	return ws, nil
}
