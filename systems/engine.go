// Package systems implements the per-tick cell life cycle.
package systems

import (
	"fmt"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/petri/components"
	"github.com/pthm-cable/petri/config"
	"github.com/pthm-cable/petri/grid"
	"github.com/pthm-cable/petri/population"
)

// EngineConfig holds the life-cycle parameters the engine reads every tick.
type EngineConfig struct {
	AgeLimit         int // 0 disables
	DivisionLimit    int // 0 disables
	SterileAtLimit   bool
	OvercrowdingDies bool

	ReproductionProbability float64
	Cooldown                int
	ResistanceCost          float64

	ResistanceMin float64
	ResistanceMax float64
	MutationRange float64

	PoisonStrength float64
	PoisonAmbient  float64
}

// EngineConfigFrom extracts the engine parameters from a loaded config.
func EngineConfigFrom(cfg *config.Config) EngineConfig {
	return EngineConfig{
		AgeLimit:                cfg.Lifecycle.AgeLimit,
		DivisionLimit:           cfg.Lifecycle.DivisionLimit,
		SterileAtLimit:          cfg.Lifecycle.DivisionPolicy == config.DivisionPolicySterile,
		OvercrowdingDies:        cfg.Lifecycle.OvercrowdingPolicy == config.OvercrowdingDie,
		ReproductionProbability: cfg.Reproduction.Probability,
		Cooldown:                cfg.Reproduction.Cooldown,
		ResistanceCost:          cfg.Reproduction.ResistanceCost,
		ResistanceMin:           cfg.Resistance.Min,
		ResistanceMax:           cfg.Resistance.Max,
		MutationRange:           cfg.Resistance.MutationRange,
		PoisonStrength:          cfg.Poison.Strength,
		PoisonAmbient:           cfg.Poison.Ambient,
	}
}

// Engine advances the population one tick at a time.
// It holds no simulation state of its own beyond a scratch buffer.
type Engine struct {
	cfg  EngineConfig
	rule DeathRule

	candidates []*grid.Patch
}

// NewEngine creates an engine. rule may be nil.
func NewEngine(cfg EngineConfig, rule DeathRule) *Engine {
	return &Engine{
		cfg:        cfg,
		rule:       rule,
		candidates: make([]*grid.Patch, 0, 8),
	}
}

// Config returns the engine parameters.
func (e *Engine) Config() EngineConfig { return e.cfg }

// Tick processes every cell alive at the start of the tick in ascending id
// order, then removes the dead. Children born this tick are not processed
// until the next one.
func (e *Engine) Tick(tick int, g *grid.Grid, pop *population.Population, rng *rand.Rand) TickResult {
	res := TickResult{Tick: tick}

	for _, entity := range pop.Entities() {
		e.step(tick, entity, g, pop, rng, &res)
	}

	for _, r := range pop.Cleanup(g) {
		res.Deaths = append(res.Deaths, Death{Cell: r.Cell, Pos: r.Pos, Cause: r.Cell.Cause, Tick: tick})
	}
	res.Population = pop.Len()
	return res
}

func (e *Engine) step(tick int, entity ecs.Entity, g *grid.Grid, pop *population.Population, rng *rand.Rand, res *TickResult) {
	cell, pos := pop.Get(entity)

	// Age
	cell.Age++
	if e.cfg.AgeLimit > 0 && cell.Age >= e.cfg.AgeLimit {
		cell.Kill(components.CauseAgeLimit)
		return
	}

	patch, ok := g.PatchAt(*pos)
	if !ok || patch.Occupant != cell.ID {
		panic(fmt.Sprintf("systems: cell %d at %v has no matching patch", cell.ID, *pos))
	}

	// Poison
	norm := e.normalize(cell.Resistance)
	exposure := Exposure(patch.Toxicity, e.cfg.PoisonStrength, e.cfg.PoisonAmbient)
	if p := PoisonDeathChance(exposure, norm); p > 0 && rng.Float64() < p {
		cell.Kill(components.CausePoisoned)
		return
	}

	if e.rule != nil && e.rule.Dies(*cell, *patch, tick) {
		cell.Kill(components.CauseOther)
		return
	}

	// Cooldown
	if cell.Cooldown > 0 {
		cell.Cooldown--
		return
	}

	if e.atDivisionLimit(cell) {
		return
	}

	// Reproduction
	e.candidates = g.EmptyNeighborsInto(e.candidates[:0], *pos)
	if len(e.candidates) == 0 {
		res.Blocked++
		if e.cfg.OvercrowdingDies {
			cell.Kill(components.CauseOvercrowded)
		}
		return
	}

	res.Attempts++
	if rng.Float64() < ReproductionChance(e.cfg.ReproductionProbability, e.cfg.ResistanceCost, norm) {
		target := e.candidates[rng.Intn(len(e.candidates))].Pos
		childRes := e.mutate(cell.Resistance, rng)

		child := pop.SpawnChild(g, *cell, target, childRes, tick, e.cfg.Cooldown)
		res.Births = append(res.Births, Birth{Child: child, Pos: target, Tick: tick})

		// Spawning may move component storage
		cell, _ = pop.Get(entity)
		cell.Divisions++
		cell.Cooldown = e.cfg.Cooldown
	}

	if e.atDivisionLimit(cell) && !e.cfg.SterileAtLimit {
		cell.Kill(components.CauseDivisionLimit)
	}
}

func (e *Engine) atDivisionLimit(cell *components.Cell) bool {
	return e.cfg.DivisionLimit > 0 && cell.Divisions >= e.cfg.DivisionLimit
}

// normalize maps a resistance onto [0,1] across the configured range.
func (e *Engine) normalize(r float64) float64 {
	span := e.cfg.ResistanceMax - e.cfg.ResistanceMin
	if span <= 0 {
		return 0
	}
	return clamp((r-e.cfg.ResistanceMin)/span, 0, 1)
}

// mutate returns a child resistance: parent plus a uniform offset in
// [-MutationRange, +MutationRange], clamped to the range.
func (e *Engine) mutate(parent float64, rng *rand.Rand) float64 {
	if e.cfg.MutationRange <= 0 {
		return parent
	}
	delta := (rng.Float64()*2 - 1) * e.cfg.MutationRange
	return clamp(parent+delta, e.cfg.ResistanceMin, e.cfg.ResistanceMax)
}
