package systems

import (
	"math"

	"github.com/pthm-cable/petri/components"
	"github.com/pthm-cable/petri/grid"
)

// DeathRule is an extra mortality check run after the poison check.
// A true result kills the cell with CauseOther.
type DeathRule interface {
	Dies(cell components.Cell, patch grid.Patch, tick int) bool
}

// DeathRuleFunc adapts a function to DeathRule.
type DeathRuleFunc func(cell components.Cell, patch grid.Patch, tick int) bool

// Dies calls f.
func (f DeathRuleFunc) Dies(cell components.Cell, patch grid.Patch, tick int) bool {
	return f(cell, patch, tick)
}

// Exposure is the poison level a cell feels on a patch, in [0,1].
func Exposure(toxicity, strength, ambient float64) float64 {
	return clamp(toxicity*strength+ambient, 0, 1)
}

// PoisonDeathChance is the probability a cell with normalized resistance dies
// at the given exposure. Full resistance is never killed.
func PoisonDeathChance(exposure, normResistance float64) float64 {
	return math.Max(0, exposure-normResistance)
}

// ReproductionChance scales the base probability down by the resistance cost.
func ReproductionChance(base, cost, normResistance float64) float64 {
	return clamp(base*(1-cost*normResistance), 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
