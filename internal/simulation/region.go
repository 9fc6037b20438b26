package simulation

import (
	"hash/fnv"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// Climate captures how a named growing region deviates from the
// profile's baseline: coastal regions see more typhoons, inland
// valleys fewer; soil fertility shifts the deterministic yield.
type Climate struct {
	// TyphoonFactor scales the configured typhoon probability, 0.85–1.15.
	TyphoonFactor float64
	// FertilityOffset shifts the deterministic yield, ±0.15 t/ha.
	FertilityOffset float64
}

// regionNoise is a fixed smooth field so a region name always maps to
// the same climate, run to run, without a hand-maintained table.
var regionNoise = opensimplex.NewNormalized(7151)

// RegionClimate derives the climate for a region name. The empty name
// is the neutral baseline.
func RegionClimate(name string) Climate {
	if name == "" {
		return Climate{TyphoonFactor: 1}
	}

	h := fnv.New64a()
	h.Write([]byte(name))
	sum := h.Sum64()

	// Two decorrelated sample points on the noise field.
	x := float64(uint32(sum)) / float64(1<<32) * 64
	y := float64(uint32(sum>>32)) / float64(1<<32) * 64

	exposure := regionNoise.Eval2(x, y)     // [0,1]
	fertility := regionNoise.Eval2(y+17, x) // [0,1]

	return Climate{
		TyphoonFactor:   0.85 + 0.3*exposure,
		FertilityOffset: -0.15 + 0.3*fertility,
	}
}
