// Package stats maintains exact incremental yield statistics across an
// unbounded number of completed cycles. Mean and variance use Welford's
// single-pass update; nothing is ever recomputed by re-scanning history
// except the percentile sort, which runs once per cycle completion.
package stats

import (
	"fmt"
	"math"
	"sort"
)

const (
	// seriesCap bounds every plot-oriented rolling series.
	seriesCap = 400
	// recentCap bounds the recent-yields window.
	recentCap = 60

	// lowYieldThreshold marks a cycle as a poor harvest, in tons.
	lowYieldThreshold = 2.0

	// Histogram: 12 buckets of width 0.5, from 0 up to 5.5; the last
	// bucket also absorbs anything at or above 5.5.
	bucketWidth      = 0.5
	histogramBuckets = 12
)

// Welford is a running mean / sum-of-squared-deviations pair.
type Welford struct {
	Count int
	Mean  float64
	M2    float64
}

// Add folds one observation into the running aggregates.
func (w *Welford) Add(x float64) {
	w.Count++
	delta := x - w.Mean
	w.Mean += delta / float64(w.Count)
	w.M2 += delta * (x - w.Mean)
}

// SD returns the population standard deviation, 0 when fewer than two
// observations exist.
func (w *Welford) SD() float64 {
	if w.Count < 2 {
		return 0
	}
	return math.Sqrt(w.M2 / float64(w.Count))
}

// Bucket is one fixed-width histogram bin.
type Bucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// CyclePoint is one per-cycle yield observation for plotting.
type CyclePoint struct {
	Cycle int     `json:"cycle"`
	Yield float64 `json:"yield"`
}

// BandPoint is one per-cycle confidence-band sample.
type BandPoint struct {
	Cycle int     `json:"cycle"`
	Mean  float64 `json:"mean"`
	P5    float64 `json:"p5"`
	P95   float64 `json:"p95"`
}

// Summary is the cached statistical roll-up republished after every
// cycle completion.
type Summary struct {
	Mean            float64 `json:"mean"`
	Std             float64 `json:"std"`
	Min             float64 `json:"min"`
	Max             float64 `json:"max"`
	Percentile5     float64 `json:"percentile5"`
	Percentile95    float64 `json:"percentile95"`
	CILow           float64 `json:"ciLow"`
	CIHigh          float64 `json:"ciHigh"`
	CIWidth         float64 `json:"ciWidth"`
	DeterministicSD float64 `json:"deterministicSd"`
	NoiseSD         float64 `json:"noiseSd"`
}

// Accumulator owns all yield statistics for one run. It is not
// goroutine-safe; the engine mutates it under its own lock.
type Accumulator struct {
	yield         Welford
	deterministic Welford
	noise         Welford

	LowYieldCount int
	minYield      float64
	maxYield      float64

	allYields []float64
	Histogram []Bucket

	MeanHistory []float64    // running mean after each cycle, capped
	Series      []CyclePoint // per-cycle yields, capped
	BandSeries  []BandPoint  // per-cycle mean/p5/p95, capped
	Recent      []float64    // most recent yields window
}

// New returns an empty accumulator with the histogram bins laid out.
func New() *Accumulator {
	return &Accumulator{
		minYield:  math.Inf(1),
		maxYield:  math.Inf(-1),
		Histogram: newBuckets(),
	}
}

func newBuckets() []Bucket {
	buckets := make([]Bucket, histogramBuckets)
	for i := range buckets {
		buckets[i].Label = fmt.Sprintf("%.1f", float64(i)*bucketWidth)
	}
	return buckets
}

// Observe folds one finalized cycle's yield decomposition into every
// aggregate. cycle is the 1-based index of the completed cycle.
func (a *Accumulator) Observe(cycle int, final, deterministic, noise float64) {
	a.yield.Add(final)
	a.deterministic.Add(deterministic)
	a.noise.Add(noise)

	if final < lowYieldThreshold {
		a.LowYieldCount++
	}
	if final < a.minYield {
		a.minYield = final
	}
	if final > a.maxYield {
		a.maxYield = final
	}

	a.allYields = append(a.allYields, final)
	a.addToBucket(final)

	a.MeanHistory = appendCapped(a.MeanHistory, a.yield.Mean, seriesCap)
	a.Series = appendCapped(a.Series, CyclePoint{Cycle: cycle, Yield: final}, seriesCap)
	a.Recent = appendCapped(a.Recent, final, recentCap)
}

// AppendBand records the confidence-band sample for a completed cycle.
func (a *Accumulator) AppendBand(cycle int, s Summary) {
	a.BandSeries = appendCapped(a.BandSeries, BandPoint{
		Cycle: cycle,
		Mean:  s.Mean,
		P5:    s.Percentile5,
		P95:   s.Percentile95,
	}, seriesCap)
}

func (a *Accumulator) addToBucket(y float64) {
	idx := int(y / bucketWidth)
	if idx >= len(a.Histogram) {
		idx = len(a.Histogram) - 1
	}
	if idx >= 0 {
		a.Histogram[idx].Count++
	}
}

// appendCapped appends and drops the oldest entries past the limit.
func appendCapped[T any](s []T, v T, limit int) []T {
	s = append(s, v)
	if len(s) > limit {
		s = s[len(s)-limit:]
	}
	return s
}

// Count returns how many cycles have been observed.
func (a *Accumulator) Count() int { return a.yield.Count }

// Mean returns the running mean yield.
func (a *Accumulator) Mean() float64 { return a.yield.Mean }

// SD returns the running population standard deviation of yield.
func (a *Accumulator) SD() float64 { return a.yield.SD() }

// Min returns the smallest yield seen, 0 before any observation.
func (a *Accumulator) Min() float64 {
	if math.IsInf(a.minYield, 1) {
		return 0
	}
	return a.minYield
}

// Max returns the largest yield seen, 0 before any observation.
func (a *Accumulator) Max() float64 {
	if math.IsInf(a.maxYield, -1) {
		return 0
	}
	return a.maxYield
}

// LowYieldProb is the fraction of observed cycles under the low-yield
// threshold, 0 before any observation.
func (a *Accumulator) LowYieldProb() float64 {
	if a.yield.Count == 0 {
		return 0
	}
	return float64(a.LowYieldCount) / float64(a.yield.Count)
}

// Summarize recomputes the cached Summary. Returns nil until at least
// one cycle has been observed. The percentile sort is the only place
// the full history is touched.
func (a *Accumulator) Summarize() *Summary {
	n := len(a.allYields)
	if n == 0 {
		return nil
	}

	sorted := make([]float64, n)
	copy(sorted, a.allYields)
	sort.Float64s(sorted)

	mean := a.yield.Mean
	sd := a.yield.SD()
	se := sd / math.Sqrt(float64(n))
	halfWidth := 1.96 * se

	return &Summary{
		Mean:            mean,
		Std:             sd,
		Min:             a.Min(),
		Max:             a.Max(),
		Percentile5:     sorted[int(float64(n)*0.05)],
		Percentile95:    sorted[int(float64(n)*0.95)],
		CILow:           mean - halfWidth,
		CIHigh:          mean + halfWidth,
		CIWidth:         2 * halfWidth,
		DeterministicSD: a.deterministic.SD(),
		NoiseSD:         a.noise.SD(),
	}
}
