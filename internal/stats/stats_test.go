package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWelfordMatchesBatch(t *testing.T) {
	values := []float64{2.3, 1.9, 3.1, 0.0, 4.7, 2.2, 2.2, 3.8, 1.1, 2.9}

	var w Welford
	for _, v := range values {
		w.Add(v)
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	varSum := 0.0
	for _, v := range values {
		varSum += (v - mean) * (v - mean)
	}
	sd := math.Sqrt(varSum / float64(len(values)))

	assert.Equal(t, len(values), w.Count)
	assert.InDelta(t, mean, w.Mean, 1e-12)
	assert.InDelta(t, sd, w.SD(), 1e-12)
}

func TestWelfordSDNeedsTwoSamples(t *testing.T) {
	var w Welford
	assert.Zero(t, w.SD())
	w.Add(2.5)
	assert.Zero(t, w.SD())
	w.Add(2.5)
	assert.Zero(t, w.SD()) // identical samples, zero variance
}

func TestObserveAggregates(t *testing.T) {
	a := New()
	yields := []float64{1.2, 2.6, 0.4, 3.9, 2.0}

	for i, y := range yields {
		a.Observe(i+1, y, y-0.1, 0.1)
	}

	assert.Equal(t, len(yields), a.Count())
	assert.Equal(t, 2, a.LowYieldCount) // 1.2 and 0.4; 2.0 sits on the threshold
	assert.InDelta(t, 0.4, a.Min(), 1e-9)
	assert.InDelta(t, 3.9, a.Max(), 1e-9)

	// Histogram counts sum to the observation count.
	total := 0
	for _, b := range a.Histogram {
		total += b.Count
	}
	assert.Equal(t, len(yields), total)
}

func TestMinMaxZeroBeforeData(t *testing.T) {
	a := New()
	assert.Zero(t, a.Min())
	assert.Zero(t, a.Max())
	assert.Zero(t, a.LowYieldProb())
	assert.Nil(t, a.Summarize())
}

func TestHistogramClampsHighYields(t *testing.T) {
	a := New()
	a.Observe(1, 12.5, 12.5, 0) // far past the last bucket
	a.Observe(2, 5.5, 5.5, 0)   // exactly at the top edge

	require.Len(t, a.Histogram, 12)
	assert.Equal(t, 2, a.Histogram[len(a.Histogram)-1].Count)
}

func TestRollingSeriesCapped(t *testing.T) {
	a := New()
	for i := 1; i <= 450; i++ {
		a.Observe(i, float64(i%5), 0, 0)
		a.AppendBand(i, Summary{Mean: 1})
	}

	assert.Len(t, a.MeanHistory, 400)
	assert.Len(t, a.Series, 400)
	assert.Len(t, a.BandSeries, 400)
	assert.Len(t, a.Recent, 60)

	// Oldest entries dropped: first surviving cycle is 51.
	assert.Equal(t, 51, a.Series[0].Cycle)
	assert.Equal(t, 450, a.Series[len(a.Series)-1].Cycle)
}

func TestSummarize(t *testing.T) {
	a := New()
	yields := make([]float64, 100)
	for i := range yields {
		yields[i] = float64(i) * 0.05 // 0.00 .. 4.95
		a.Observe(i+1, yields[i], yields[i], 0)
	}

	s := a.Summarize()
	require.NotNil(t, s)

	assert.InDelta(t, 2.475, s.Mean, 1e-9)
	assert.InDelta(t, yields[5], s.Percentile5, 1e-9)
	assert.InDelta(t, yields[95], s.Percentile95, 1e-9)
	assert.LessOrEqual(t, s.Percentile5, s.Mean)
	assert.LessOrEqual(t, s.Mean, s.Percentile95)

	se := s.Std / math.Sqrt(100)
	assert.InDelta(t, s.Mean-1.96*se, s.CILow, 1e-9)
	assert.InDelta(t, s.Mean+1.96*se, s.CIHigh, 1e-9)
	assert.InDelta(t, s.CIHigh-s.CILow, s.CIWidth, 1e-9)
	assert.InDelta(t, 0.0, s.Min, 1e-9)
	assert.InDelta(t, 4.95, s.Max, 1e-9)
}

func TestLowYieldProb(t *testing.T) {
	a := New()
	a.Observe(1, 1.0, 1.0, 0)
	a.Observe(2, 3.0, 3.0, 0)
	a.Observe(3, 1.9, 1.9, 0)
	a.Observe(4, 2.0, 2.0, 0) // boundary: not low

	assert.Equal(t, 2, a.LowYieldCount)
	assert.InDelta(t, 0.5, a.LowYieldProb(), 1e-9)
}
