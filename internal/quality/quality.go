// Package quality inspects raw bar batches before feature
// preparation. The checks are advisory: a report never blocks a run,
// it travels with the dataset so consumers can judge the input.
package quality

import (
	"math"
	"sort"
	"time"

	"FinPrep/internal/domain/models"
	"FinPrep/internal/domain/repository"
)

// Gap marks a break in the expected bar cadence.
type Gap struct {
	After   time.Time // last bar before the hole
	Missing int       // whole intervals absent
}

// Dispersion summarizes a value distribution after a log1p transform,
// which keeps heavy-tailed volumes comparable across symbols.
type Dispersion struct {
	Mean float64
	Std  float64
}

// Report is the outcome of one Analyze pass.
type Report struct {
	Rows          int
	From          time.Time
	To            time.Time
	MissingVolume int // bars with volume <= 0
	ZeroRangeBars int // bars where open == close
	Gaps          []Gap
	Outliers      map[string]int // per metric, outside the IQR fences
	LogVolume     Dispersion
}

// Summary condenses the report into the form attached to datasets.
func (r *Report) Summary() models.QualitySummary {
	total := 0
	for _, n := range r.Outliers {
		total += n
	}
	return models.QualitySummary{
		Gaps:          len(r.Gaps),
		Outliers:      total,
		ZeroRangeBars: r.ZeroRangeBars,
		MissingVolume: r.MissingVolume > 0,
	}
}

// Analyze inspects the batch against the timeframe's expected cadence.
// Bars are read, never modified.
func Analyze(bars []models.Bar, tf repository.Timeframe) *Report {
	r := &Report{
		Rows:     len(bars),
		Outliers: map[string]int{},
	}
	if len(bars) == 0 {
		return r
	}
	r.From = bars[0].Time
	r.To = bars[len(bars)-1].Time
	r.Gaps = Continuity(bars, tf.Duration())

	closes := make([]float64, len(bars))
	volumes := make([]float64, len(bars))
	spreads := make([]float64, len(bars))
	logVol := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
		volumes[i] = float64(b.Volume)
		spreads[i] = float64(b.Spread)
		logVol[i] = math.Log1p(math.Max(float64(b.Volume), 0))
		if b.Volume <= 0 {
			r.MissingVolume++
		}
		if b.Open == b.Close {
			r.ZeroRangeBars++
		}
	}

	r.Outliers["close"] = countOutliers(closes)
	r.Outliers["volume"] = countOutliers(volumes)
	r.Outliers["spread"] = countOutliers(spreads)
	r.LogVolume = dispersion(logVol)
	return r
}

// Continuity walks consecutive timestamps and records every hole
// larger than the expected interval. Bars must be chronologically
// ordered; a non-positive interval disables the check.
func Continuity(bars []models.Bar, interval time.Duration) []Gap {
	if interval <= 0 || len(bars) < 2 {
		return nil
	}
	var gaps []Gap
	for i := 1; i < len(bars); i++ {
		delta := bars[i].Time.Sub(bars[i-1].Time)
		missing := int(delta/interval) - 1
		if missing > 0 {
			gaps = append(gaps, Gap{After: bars[i-1].Time, Missing: missing})
		}
	}
	return gaps
}

// IQRFences returns the 1.5*IQR outlier fences of the values. ok is
// false when fewer than four values are available, too few for
// meaningful quartiles.
func IQRFences(values []float64) (lo, hi float64, ok bool) {
	if len(values) < 4 {
		return 0, 0, false
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	q1 := quantile(sorted, 0.25)
	q3 := quantile(sorted, 0.75)
	iqr := q3 - q1
	return q1 - 1.5*iqr, q3 + 1.5*iqr, true
}

func countOutliers(values []float64) int {
	lo, hi, ok := IQRFences(values)
	if !ok {
		return 0
	}
	n := 0
	for _, v := range values {
		if v < lo || v > hi {
			n++
		}
	}
	return n
}

// quantile interpolates linearly between the closest ranks, matching
// the convention of the tooling the thresholds were tuned with.
func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	i := int(pos)
	if i >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(i)
	return sorted[i]*(1-frac) + sorted[i+1]*frac
}

func dispersion(values []float64) Dispersion {
	if len(values) == 0 {
		return Dispersion{}
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	if len(values) < 2 {
		return Dispersion{Mean: mean}
	}
	ss := 0.0
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return Dispersion{Mean: mean, Std: math.Sqrt(ss / float64(len(values)-1))}
}
