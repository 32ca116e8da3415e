// Package series provides the numeric column primitive used by the
// feature pipeline: a fixed-length float64 vector with an explicit
// per-cell validity mask. A cell is either defined or undefined (not
// enough history yet); undefined cells never participate in
// arithmetic, and every operation propagates undefinedness explicitly
// instead of relying on NaN sentinels.
package series

import "math"

// Series is a numeric column with per-cell validity.
type Series struct {
	vals  []float64
	valid []bool
}

// New returns a Series of length n with every cell undefined.
func New(n int) *Series {
	return &Series{
		vals:  make([]float64, n),
		valid: make([]bool, n),
	}
}

// FromValues returns a Series with every cell defined.
func FromValues(vals []float64) *Series {
	s := New(len(vals))
	copy(s.vals, vals)
	for i := range s.valid {
		s.valid[i] = true
	}
	return s
}

// Len returns the number of cells.
func (s *Series) Len() int { return len(s.vals) }

// Set defines cell i with value v.
func (s *Series) Set(i int, v float64) {
	s.vals[i] = v
	s.valid[i] = true
}

// Clear marks cell i undefined.
func (s *Series) Clear(i int) {
	s.vals[i] = 0
	s.valid[i] = false
}

// At returns the value of cell i and whether it is defined.
func (s *Series) At(i int) (float64, bool) {
	return s.vals[i], s.valid[i]
}

// Defined reports whether cell i is defined.
func (s *Series) Defined(i int) bool { return s.valid[i] }

// DefinedCount returns the number of defined cells.
func (s *Series) DefinedCount() int {
	n := 0
	for _, ok := range s.valid {
		if ok {
			n++
		}
	}
	return n
}

// Clone returns a deep copy.
func (s *Series) Clone() *Series {
	c := New(s.Len())
	copy(c.vals, s.vals)
	copy(c.valid, s.valid)
	return c
}

// Values returns defined cells as a plain slice with their indices.
// Undefined cells are omitted.
func (s *Series) Values() []float64 {
	out := make([]float64, 0, s.Len())
	for i, ok := range s.valid {
		if ok {
			out = append(out, s.vals[i])
		}
	}
	return out
}

// Map applies fn to every defined cell; undefined cells stay undefined.
func (s *Series) Map(fn func(float64) float64) *Series {
	out := New(s.Len())
	for i, ok := range s.valid {
		if ok {
			out.Set(i, fn(s.vals[i]))
		}
	}
	return out
}

// Combine applies fn cell-wise over two equal-length series. The output
// cell is defined only where both inputs are defined.
func Combine(a, b *Series, fn func(x, y float64) float64) *Series {
	out := New(a.Len())
	for i := 0; i < a.Len(); i++ {
		av, aok := a.At(i)
		bv, bok := b.At(i)
		if aok && bok {
			out.Set(i, fn(av, bv))
		}
	}
	return out
}

// Sub returns a - b cell-wise.
func Sub(a, b *Series) *Series {
	return Combine(a, b, func(x, y float64) float64 { return x - y })
}

// MinMax returns the minimum and maximum over defined cells. ok is
// false when no cell is defined.
func (s *Series) MinMax() (min, max float64, ok bool) {
	for i, valid := range s.valid {
		if !valid {
			continue
		}
		v := s.vals[i]
		if !ok {
			min, max, ok = v, v, true
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max, ok
}

// Round rounds every defined cell to the given number of decimal
// digits, half away from zero.
func (s *Series) Round(digits int) *Series {
	p := math.Pow(10, float64(digits))
	return s.Map(func(v float64) float64 { return math.Round(v*p) / p })
}

// RoundTo rounds a single value to the given number of decimal digits.
func RoundTo(v float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Round(v*p) / p
}

// Diff returns the one-step difference s[i] - s[i-1]. Cell 0 is
// undefined, as is any cell whose operand pair is not fully defined.
func Diff(s *Series) *Series {
	out := New(s.Len())
	for i := 1; i < s.Len(); i++ {
		cur, curOK := s.At(i)
		prev, prevOK := s.At(i - 1)
		if curOK && prevOK {
			out.Set(i, cur-prev)
		}
	}
	return out
}

// RollingMean returns the unweighted mean over trailing windows of
// length k. A cell is defined only when all k cells of its window are
// defined; k < 1 yields an all-undefined series.
func RollingMean(s *Series, k int) *Series {
	return rolling(s, k, func(win []float64) float64 {
		sum := 0.0
		for _, v := range win {
			sum += v
		}
		return sum / float64(len(win))
	})
}

// RollingStd returns the sample standard deviation (divisor k-1) over
// trailing windows of length k. k < 2 yields an all-undefined series.
func RollingStd(s *Series, k int) *Series {
	if k < 2 {
		return New(s.Len())
	}
	return rolling(s, k, func(win []float64) float64 {
		mean := 0.0
		for _, v := range win {
			mean += v
		}
		mean /= float64(len(win))
		ss := 0.0
		for _, v := range win {
			d := v - mean
			ss += d * d
		}
		return math.Sqrt(ss / float64(len(win)-1))
	})
}

// RollingMin returns the minimum over trailing windows of length k.
func RollingMin(s *Series, k int) *Series {
	return rolling(s, k, func(win []float64) float64 {
		m := win[0]
		for _, v := range win[1:] {
			if v < m {
				m = v
			}
		}
		return m
	})
}

// RollingMax returns the maximum over trailing windows of length k.
func RollingMax(s *Series, k int) *Series {
	return rolling(s, k, func(win []float64) float64 {
		m := win[0]
		for _, v := range win[1:] {
			if v > m {
				m = v
			}
		}
		return m
	})
}

// RollingMeanRelaxed returns the mean over trailing windows of length
// k, computed over however many defined cells the window holds. A cell
// is defined as soon as its window holds at least one defined cell, so
// output can start at row 0.
func RollingMeanRelaxed(s *Series, k int) *Series {
	out := New(s.Len())
	if k < 1 {
		return out
	}
	for i := 0; i < s.Len(); i++ {
		lo := i - k + 1
		if lo < 0 {
			lo = 0
		}
		sum, cnt := 0.0, 0
		for j := lo; j <= i; j++ {
			if v, ok := s.At(j); ok {
				sum += v
				cnt++
			}
		}
		if cnt > 0 {
			out.Set(i, sum/float64(cnt))
		}
	}
	return out
}

// rolling applies fn to every fully defined trailing window of length k.
func rolling(s *Series, k int, fn func(win []float64) float64) *Series {
	out := New(s.Len())
	if k < 1 || k > s.Len() {
		return out
	}
	win := make([]float64, k)
	for i := k - 1; i < s.Len(); i++ {
		full := true
		for j := 0; j < k; j++ {
			v, ok := s.At(i - k + 1 + j)
			if !ok {
				full = false
				break
			}
			win[j] = v
		}
		if full {
			out.Set(i, fn(win))
		}
	}
	return out
}
