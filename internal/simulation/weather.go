package simulation

import (
	"time"

	"github.com/talgya/paddysim/internal/entropy"
)

// Profile is the replaceable climate configuration behind the weather
// model: the wet-season month range, the typhoon weight multiplier,
// the severe-typhoon probability, and the two base distributions that
// get blended across the year.
type Profile struct {
	WetStart time.Month
	WetEnd   time.Month

	// TyphoonMultiplier scales the caller's typhoon probability before
	// it overrides the wet-season typhoon weight.
	TyphoonMultiplier float64

	// SevereProb is the chance a typhoon day is Severe rather than Moderate.
	SevereProb float64

	DryWeights Weights // season extreme: deep dry season
	WetWeights Weights // season extreme: deep wet season
}

// Weights is a distribution over the four weather categories.
type Weights struct {
	Dry     float64 `json:"Dry"`
	Normal  float64 `json:"Normal"`
	Wet     float64 `json:"Wet"`
	Typhoon float64 `json:"Typhoon"`
}

// DefaultProfile is the monsoon climate the simulator ships with:
// June–October wet season, typhoon-prone.
func DefaultProfile() Profile {
	return Profile{
		WetStart:          time.June,
		WetEnd:            time.October,
		TyphoonMultiplier: 1.2,
		SevereProb:        0.4,
		DryWeights:        Weights{Dry: 0.5, Normal: 0.4, Wet: 0.1, Typhoon: 0.05},
		WetWeights:        Weights{Dry: 0.1, Normal: 0.4, Wet: 0.35, Typhoon: 0}, // Typhoon overridden per draw
	}
}

// maxTyphoonWeight caps the typhoon share of the wet-season base
// distribution no matter how high the configured probability is.
const maxTyphoonWeight = 0.6

func wrapMonth(m int) time.Month {
	if m < 1 {
		return time.Month(m + 12)
	}
	if m > 12 {
		return time.Month(m - 12)
	}
	return time.Month(m)
}

// SeasonBlend returns the dry/wet blending weights for a month and the
// season label. Months inside the wet range are fully wet; the two
// months on either side taper at 0.5 and 0.25.
func (p Profile) SeasonBlend(month time.Month) (dry, wet float64, season Season) {
	if month >= p.WetStart && month <= p.WetEnd {
		return 0, 1, SeasonWet
	}

	switch month {
	case wrapMonth(int(p.WetStart) - 1), wrapMonth(int(p.WetEnd) + 1):
		wet = 0.5
	case wrapMonth(int(p.WetStart) - 2), wrapMonth(int(p.WetEnd) + 2):
		wet = 0.25
	}
	dry = 1 - wet

	switch {
	case wet >= 0.6:
		season = SeasonWet
	case wet <= 0.4:
		season = SeasonDry
	default:
		season = SeasonTransition
	}
	return dry, wet, season
}

// Season returns just the season label for a month.
func (p Profile) Season(month time.Month) Season {
	_, _, s := p.SeasonBlend(month)
	return s
}

// WeatherWeights blends the two base distributions by season and
// overrides the wet-season typhoon weight with the caller's typhoon
// probability (a 0–1 fraction). The result is renormalized to sum to 1.
func (p Profile) WeatherWeights(month time.Month, typhoonProb float64) Weights {
	dry, wet, _ := p.SeasonBlend(month)

	tw := typhoonProb * p.TyphoonMultiplier
	if tw < 0 {
		tw = 0
	}
	if tw > maxTyphoonWeight {
		tw = maxTyphoonWeight
	}
	wetW := p.WetWeights
	wetW.Typhoon = tw

	w := Weights{
		Dry:     p.DryWeights.Dry*dry + wetW.Dry*wet,
		Normal:  p.DryWeights.Normal*dry + wetW.Normal*wet,
		Wet:     p.DryWeights.Wet*dry + wetW.Wet*wet,
		Typhoon: p.DryWeights.Typhoon*dry + wetW.Typhoon*wet,
	}
	total := w.Dry + w.Normal + w.Wet + w.Typhoon
	if total <= 0 {
		return Weights{Normal: 1}
	}
	w.Dry /= total
	w.Normal /= total
	w.Wet /= total
	w.Typhoon /= total
	return w
}

// SampleWeather draws one day's weather by cumulative thresholding in
// the fixed Dry, Normal, Wet, Typhoon order.
func (p Profile) SampleWeather(src entropy.Source, month time.Month, typhoonProb float64) Weather {
	w := p.WeatherWeights(month, typhoonProb)
	r := src.Float64()

	acc := w.Dry
	if r < acc {
		return WeatherDry
	}
	acc += w.Normal
	if r < acc {
		return WeatherNormal
	}
	acc += w.Wet
	if r < acc {
		return WeatherWet
	}
	return WeatherTyphoon
}

// SampleSeverity draws the severity of a typhoon day.
func (p Profile) SampleSeverity(src entropy.Source) Severity {
	if src.Float64() < p.SevereProb {
		return SeveritySevere
	}
	return SeverityModerate
}
