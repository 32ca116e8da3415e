package pipeline

import "fmt"

// Tensor is the 3-D model input of shape (samples, window, features).
type Tensor [][][]float64

// Shape returns (samples, window, features).
func (t Tensor) Shape() (n, w, f int) {
	n = len(t)
	if n == 0 {
		return 0, 0, 0
	}
	w = len(t[0])
	if w == 0 {
		return n, 0, 0
	}
	return n, w, len(t[0][0])
}

// Reshaper flattens a windowed set and rebuilds it as a tensor,
// cross-checking the requested (window, features) geometry against
// the actual scalar count.
type Reshaper struct{}

// NewReshaper creates a reshaper.
func NewReshaper() *Reshaper { return &Reshaper{} }

// Training reshapes with the label column retained alongside: returns
// the tensor and an independent label array.
func (r *Reshaper) Training(ws *WindowedSet, w, f int) (Tensor, []float64, error) {
	t, err := r.reshape(ws, w, f)
	if err != nil {
		return nil, nil, err
	}
	labels := make([]float64, len(ws.Y))
	copy(labels, ws.Y)
	return t, labels, nil
}

// Inference drops the label column before reshaping and returns the
// tensor plus the feature count the model must expect. The label
// never leaks into the feature dimension.
func (r *Reshaper) Inference(ws *WindowedSet, w, f int) (Tensor, int, error) {
	t, err := r.reshape(ws, w, f)
	if err != nil {
		return nil, 0, err
	}
	return t, f, nil
}

// reshape concatenates the lag columns row-wise into one flat array
// and slices it back as (samples, w, f). A scalar count that does not
// divide by w*f means the caller's configuration disagrees with the
// windowed data.
func (r *Reshaper) reshape(ws *WindowedSet, w, f int) (Tensor, error) {
	samples := ws.Samples()

	flat := make([]float64, 0, samples*w*f)
	for i := 0; i < samples; i++ {
		for j := 0; j < len(ws.Lags); j++ {
			flat = append(flat, ws.Lags[j][i]...)
		}
	}

	if w < 1 || f < 1 {
		return nil, fmt.Errorf("reshape to (%d, %d): %w", w, f, ErrShapeMismatch)
	}
	if len(flat)%(w*f) != 0 {
		return nil, fmt.Errorf("%d scalars into (n, %d, %d): %w", len(flat), w, f, ErrShapeMismatch)
	}

	n := len(flat) / (w * f)
	t := make(Tensor, n)
	pos := 0
	for i := 0; i < n; i++ {
		t[i] = make([][]float64, w)
		for j := 0; j < w; j++ {
			row := make([]float64, f)
			copy(row, flat[pos:pos+f])
			t[i][j] = row
			pos += f
		}
	}
	return t, nil
}
