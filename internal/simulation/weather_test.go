package simulation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedSource replays a scripted sequence of uniform and normal draws.
type fixedSource struct {
	floats []float64
	norms  []float64
	fi, ni int
}

func (s *fixedSource) Float64() float64 {
	v := s.floats[s.fi%len(s.floats)]
	s.fi++
	return v
}

func (s *fixedSource) NormFloat64() float64 {
	if len(s.norms) == 0 {
		return 0
	}
	v := s.norms[s.ni%len(s.norms)]
	s.ni++
	return v
}

func TestSeasonBlend(t *testing.T) {
	p := DefaultProfile()

	tests := []struct {
		month  time.Month
		dry    float64
		wet    float64
		season Season
	}{
		{time.January, 1.0, 0.0, SeasonDry},
		{time.April, 0.75, 0.25, SeasonDry},
		{time.May, 0.5, 0.5, SeasonTransition},
		{time.June, 0.0, 1.0, SeasonWet},
		{time.August, 0.0, 1.0, SeasonWet},
		{time.October, 0.0, 1.0, SeasonWet},
		{time.November, 0.5, 0.5, SeasonTransition},
		{time.December, 0.75, 0.25, SeasonDry},
	}

	for _, tt := range tests {
		dry, wet, season := p.SeasonBlend(tt.month)
		assert.InDelta(t, tt.dry, dry, 1e-9, "month %s dry weight", tt.month)
		assert.InDelta(t, tt.wet, wet, 1e-9, "month %s wet weight", tt.month)
		assert.Equal(t, tt.season, season, "month %s season", tt.month)
	}
}

func TestWeatherWeightsNormalized(t *testing.T) {
	p := DefaultProfile()

	for month := time.January; month <= time.December; month++ {
		for _, prob := range []float64{0, 0.15, 0.5, 1.0} {
			w := p.WeatherWeights(month, prob)
			sum := w.Dry + w.Normal + w.Wet + w.Typhoon
			assert.InDelta(t, 1.0, sum, 1e-9, "month %s prob %v", month, prob)
		}
	}
}

func TestWeatherWeightsTyphoonOverride(t *testing.T) {
	p := DefaultProfile()

	// Deep wet season: typhoon weight is the clamped override exactly.
	w := p.WeatherWeights(time.August, 1.0) // 1.0 × 1.2 clamps to 0.6
	total := 0.1 + 0.4 + 0.35 + 0.6
	assert.InDelta(t, 0.6/total, w.Typhoon, 1e-9)

	// Negative probability clamps to zero.
	w = p.WeatherWeights(time.August, -5)
	assert.Zero(t, w.Typhoon)

	// Dry season keeps its small fixed typhoon weight regardless.
	w = p.WeatherWeights(time.January, 1.0)
	assert.InDelta(t, 0.05/1.05, w.Typhoon, 1e-9)
}

func TestSampleWeatherThresholdOrder(t *testing.T) {
	p := DefaultProfile()

	// January weights normalize to Dry .47619, Normal .38095, Wet .09524, Typhoon .04762.
	tests := []struct {
		r    float64
		want Weather
	}{
		{0.0, WeatherDry},
		{0.47, WeatherDry},
		{0.48, WeatherNormal},
		{0.85, WeatherNormal},
		{0.86, WeatherWet},
		{0.95, WeatherWet},
		{0.96, WeatherTyphoon},
		{0.999, WeatherTyphoon},
	}

	for _, tt := range tests {
		src := &fixedSource{floats: []float64{tt.r}}
		got := p.SampleWeather(src, time.January, 0)
		assert.Equal(t, tt.want, got, "r=%v", tt.r)
	}
}

func TestSampleSeverity(t *testing.T) {
	p := DefaultProfile()
	require.InDelta(t, 0.4, p.SevereProb, 1e-9)

	assert.Equal(t, SeveritySevere, p.SampleSeverity(&fixedSource{floats: []float64{0.39}}))
	assert.Equal(t, SeverityModerate, p.SampleSeverity(&fixedSource{floats: []float64{0.41}}))
}
