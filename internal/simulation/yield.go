package simulation

import "github.com/talgya/paddysim/internal/entropy"

// Base yields in tons per hectare, by dominant weather category.
var baseYields = map[Weather]float64{
	WeatherDry:     2.0,
	WeatherNormal:  3.0,
	WeatherWet:     3.3,
	WeatherTyphoon: 1.2,
}

// Typhoon cycles use a severity-specific base instead when the
// dominant severity is known.
var typhoonYields = map[Severity]float64{
	SeverityModerate: 1.4,
	SeveritySevere:   0.8,
}

var irrigationAdjust = map[Irrigation]float64{
	Irrigated: 0.3,
	Rainfed:   0.0,
}

var ensoAdjust = map[ENSO]float64{
	ElNino:  -0.4,
	Neutral: 0.0,
	LaNina:  0.3,
}

// noiseSD is the standard deviation of the zero-mean Gaussian noise
// added to the deterministic yield.
const noiseSD = 0.2

// YieldInputs are the farm-configuration dimensions of the yield model.
type YieldInputs struct {
	Irrigation Irrigation
	ENSO       ENSO
	Region     string // optional; "" means no regional adjustment
}

// YieldResult decomposes one cycle's yield observation.
type YieldResult struct {
	Final         float64 // max(0, Deterministic + Noise)
	Deterministic float64 // Base + irrigation + ENSO + region fertility
	Noise         float64 // Gaussian sample, mean 0, sd noiseSD
	Base          float64 // weather-category (or typhoon-severity) base
}

// ComputeYield maps a cycle's dominant weather outcome and farm
// configuration to a yield observation. Yield never goes negative.
func ComputeYield(src entropy.Source, weather Weather, severity Severity, in YieldInputs) YieldResult {
	base := baseYields[weather]
	if weather == WeatherTyphoon && severity != "" {
		base = typhoonYields[severity]
	}

	deterministic := base + irrigationAdjust[in.Irrigation] + ensoAdjust[in.ENSO]
	if in.Region != "" {
		deterministic += RegionClimate(in.Region).FertilityOffset
	}

	noise := src.NormFloat64() * noiseSD
	final := deterministic + noise
	if final < 0 {
		final = 0
	}

	return YieldResult{
		Final:         final,
		Deterministic: deterministic,
		Noise:         noise,
		Base:          base,
	}
}
