package engine

import (
	"time"

	"github.com/talgya/paddysim/internal/simulation"
)

// Parameters is the full farm configuration a cycle runs under.
// Exactly one irrigation regime and one ENSO phase are active at a time.
type Parameters struct {
	PlantingMonth      int                   `json:"plantingMonth"` // 1–12
	IrrigationType     simulation.Irrigation `json:"irrigationType"`
	ENSOState          simulation.ENSO       `json:"ensoState"`
	TyphoonProbability float64               `json:"typhoonProbability"` // percent, clamped to [0,100]
	CyclesTarget       int                   `json:"cyclesTarget"`
	DaysPerCycle       int                   `json:"daysPerCycle"`
	Region             string                `json:"region,omitempty"`
}

// DefaultParameters matches a typical irrigated monsoon-season planting.
func DefaultParameters() Parameters {
	return Parameters{
		PlantingMonth:      int(time.June),
		IrrigationType:     simulation.Irrigated,
		ENSOState:          simulation.Neutral,
		TyphoonProbability: 15,
		CyclesTarget:       100,
		DaysPerCycle:       120,
	}
}

// Patch is a partial Parameters update. Nil fields are "leave as is",
// which makes the pending overlay statically checkable: a field is
// pending exactly when its pointer is set.
type Patch struct {
	PlantingMonth      *int                   `json:"plantingMonth,omitempty"`
	IrrigationType     *simulation.Irrigation `json:"irrigationType,omitempty"`
	ENSOState          *simulation.ENSO       `json:"ensoState,omitempty"`
	TyphoonProbability *float64               `json:"typhoonProbability,omitempty"`
	CyclesTarget       *int                   `json:"cyclesTarget,omitempty"`
	DaysPerCycle       *int                   `json:"daysPerCycle,omitempty"`
	Region             *string                `json:"region,omitempty"`
}

// IsZero reports whether the patch changes nothing.
func (p Patch) IsZero() bool {
	return p.PlantingMonth == nil &&
		p.IrrigationType == nil &&
		p.ENSOState == nil &&
		p.TyphoonProbability == nil &&
		p.CyclesTarget == nil &&
		p.DaysPerCycle == nil &&
		p.Region == nil
}

// merge overlays other on top of p, keeping p's fields where other is unset.
func (p Patch) merge(other Patch) Patch {
	if other.PlantingMonth != nil {
		p.PlantingMonth = other.PlantingMonth
	}
	if other.IrrigationType != nil {
		p.IrrigationType = other.IrrigationType
	}
	if other.ENSOState != nil {
		p.ENSOState = other.ENSOState
	}
	if other.TyphoonProbability != nil {
		p.TyphoonProbability = other.TyphoonProbability
	}
	if other.CyclesTarget != nil {
		p.CyclesTarget = other.CyclesTarget
	}
	if other.DaysPerCycle != nil {
		p.DaysPerCycle = other.DaysPerCycle
	}
	if other.Region != nil {
		p.Region = other.Region
	}
	return p
}

// apply writes the patch's set fields into params.
// TyphoonProbability is clamped to its percent bounds here so no
// downstream draw ever sees an out-of-range value.
func (params *Parameters) apply(p Patch) {
	if p.PlantingMonth != nil {
		params.PlantingMonth = *p.PlantingMonth
	}
	if p.IrrigationType != nil {
		params.IrrigationType = *p.IrrigationType
	}
	if p.ENSOState != nil {
		params.ENSOState = *p.ENSOState
	}
	if p.TyphoonProbability != nil {
		params.TyphoonProbability = clampPercent(*p.TyphoonProbability)
	}
	if p.CyclesTarget != nil {
		params.CyclesTarget = *p.CyclesTarget
	}
	if p.DaysPerCycle != nil {
		params.DaysPerCycle = *p.DaysPerCycle
	}
	if p.Region != nil {
		params.Region = *p.Region
	}
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
