// Package simulation holds the pure stochastic models for rice-crop
// weather and yield. Nothing in this package keeps state; callers
// supply an entropy.Source for every draw.
package simulation

import "encoding/json"

// Weather is a single day's realized weather category.
type Weather string

const (
	WeatherDry     Weather = "Dry"
	WeatherNormal  Weather = "Normal"
	WeatherWet     Weather = "Wet"
	WeatherTyphoon Weather = "Typhoon"
)

// WeatherOrder is the fixed category order used for cumulative
// sampling and for dominant-weather tie breaking.
var WeatherOrder = [4]Weather{WeatherDry, WeatherNormal, WeatherWet, WeatherTyphoon}

// MarshalJSON renders the zero value as null so an unset weather
// reads as "no observation" on the wire.
func (w Weather) MarshalJSON() ([]byte, error) {
	if w == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(w))
}

// Severity classifies a typhoon day. The zero value means the day
// had no typhoon (or severity was never drawn).
type Severity string

const (
	SeverityModerate Severity = "Moderate"
	SeveritySevere   Severity = "Severe"
)

func (s Severity) MarshalJSON() ([]byte, error) {
	if s == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(s))
}

// Season labels the part of the year a cycle was planted in.
type Season string

const (
	SeasonDry        Season = "Dry Season"
	SeasonWet        Season = "Wet Season"
	SeasonTransition Season = "Transition Season"
)

// Irrigation is the water-management regime for a paddy.
type Irrigation string

const (
	Irrigated Irrigation = "Irrigated"
	Rainfed   Irrigation = "Rainfed"
)

// ENSO is the El Niño–Southern Oscillation phase in effect.
type ENSO string

const (
	ElNino  ENSO = "El Niño"
	Neutral ENSO = "Neutral"
	LaNina  ENSO = "La Niña"
)

// ValidIrrigation reports whether v names a known irrigation regime.
func ValidIrrigation(v Irrigation) bool {
	return v == Irrigated || v == Rainfed
}

// ValidENSO reports whether v names a known ENSO phase.
func ValidENSO(v ENSO) bool {
	return v == ElNino || v == Neutral || v == LaNina
}
