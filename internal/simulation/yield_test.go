package simulation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeYieldDeterministicComponent(t *testing.T) {
	noNoise := func() *fixedSource { return &fixedSource{norms: []float64{0}} }

	tests := []struct {
		name     string
		weather  Weather
		severity Severity
		in       YieldInputs
		base     float64
		det      float64
	}{
		{
			name:    "dry irrigated neutral",
			weather: WeatherDry,
			in:      YieldInputs{Irrigation: Irrigated, ENSO: Neutral},
			base:    2.0,
			det:     2.3,
		},
		{
			name:    "normal rainfed la nina",
			weather: WeatherNormal,
			in:      YieldInputs{Irrigation: Rainfed, ENSO: LaNina},
			base:    3.0,
			det:     3.3,
		},
		{
			name:    "wet irrigated el nino",
			weather: WeatherWet,
			in:      YieldInputs{Irrigation: Irrigated, ENSO: ElNino},
			base:    3.3,
			det:     3.2,
		},
		{
			name:    "typhoon without severity uses category base",
			weather: WeatherTyphoon,
			in:      YieldInputs{Irrigation: Rainfed, ENSO: Neutral},
			base:    1.2,
			det:     1.2,
		},
		{
			name:     "moderate typhoon overrides base",
			weather:  WeatherTyphoon,
			severity: SeverityModerate,
			in:       YieldInputs{Irrigation: Rainfed, ENSO: Neutral},
			base:     1.4,
			det:      1.4,
		},
		{
			name:     "severe typhoon rainfed el nino",
			weather:  WeatherTyphoon,
			severity: SeveritySevere,
			in:       YieldInputs{Irrigation: Rainfed, ENSO: ElNino},
			base:     0.8,
			det:      0.4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ComputeYield(noNoise(), tt.weather, tt.severity, tt.in)
			assert.InDelta(t, tt.base, r.Base, 1e-9)
			assert.InDelta(t, tt.det, r.Deterministic, 1e-9)
			assert.Zero(t, r.Noise)
			assert.InDelta(t, tt.det, r.Final, 1e-9)
		})
	}
}

func TestComputeYieldNoiseScaling(t *testing.T) {
	src := &fixedSource{norms: []float64{1.5}}
	r := ComputeYield(src, WeatherNormal, "", YieldInputs{Irrigation: Rainfed, ENSO: Neutral})
	assert.InDelta(t, 1.5*0.2, r.Noise, 1e-9)
	assert.InDelta(t, 3.0+0.3, r.Final, 1e-9)
}

func TestComputeYieldNeverNegative(t *testing.T) {
	src := &fixedSource{norms: []float64{-25}} // noise -5.0
	r := ComputeYield(src, WeatherTyphoon, SeveritySevere, YieldInputs{Irrigation: Rainfed, ENSO: ElNino})
	assert.Zero(t, r.Final)
	assert.Negative(t, r.Deterministic+r.Noise)
}
