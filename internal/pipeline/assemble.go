package pipeline

import (
	"fmt"
	"strings"
)

// FeatureMatrix holds one fixed-length feature vector per surviving
// table row plus a same-row carrier label. The forward shift that
// turns the carrier into a next-bar target happens in the windower,
// exactly once.
type FeatureMatrix struct {
	Names []string    // scaled column names, in column order
	X     [][]float64 // [rows][features]
	Y     []float64   // range of the same row
}

// Assembler collects scaled columns into per-row feature vectors.
type Assembler struct{}

// NewAssembler creates an assembler.
func NewAssembler() *Assembler { return &Assembler{} }

// Assemble walks the frame's columns in insertion order, gathering
// every scaled_* column into X and the range column into Y. Fails on
// an empty table or when the configuration produced nothing to learn
// from.
func (a *Assembler) Assemble(f *Frame) (*FeatureMatrix, error) {
	if f.Rows() == 0 {
		return nil, ErrEmptyTable
	}

	names := make([]string, 0, len(f.Columns()))
	for _, name := range f.Columns() {
		if strings.HasPrefix(name, ScaledPrefix) {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil, ErrNoScaledColumns
	}

	rangeCol, ok := f.Col(ColRange)
	if !ok {
		return nil, fmt.Errorf("%s: %w", ColRange, ErrMissingColumn)
	}

	n := f.Rows()
	fm := &FeatureMatrix{
		Names: names,
		X:     make([][]float64, n),
		Y:     make([]float64, n),
	}
	for i := 0; i < n; i++ {
		vec := make([]float64, len(names))
		for j, name := range names {
			col, _ := f.Col(name)
			v, defined := col.At(i)
			if !defined {
				return nil, fmt.Errorf("column %s row %d undefined after scaling", name, i)
			}
			vec[j] = v
		}
		fm.X[i] = vec

		y, defined := rangeCol.At(i)
		if !defined {
			return nil, fmt.Errorf("column %s row %d undefined after scaling", ColRange, i)
		}
		fm.Y[i] = y
	}
	return fm, nil
}
