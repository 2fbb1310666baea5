package config

import (
	"fmt"
	"math"
)

// InvalidConfigurationError reports an out-of-range or unknown parameter.
type InvalidConfigurationError struct {
	Field  string // yaml path, e.g. "reproduction.probability"
	Value  any
	Reason string
}

func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s = %v: %s", e.Field, e.Value, e.Reason)
}

func invalid(field string, value any, reason string) error {
	return &InvalidConfigurationError{Field: field, Value: value, Reason: reason}
}

// within is false for NaN, so every float range check goes through it.
func within(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Validate checks every parameter range. The first violation is returned.
func (c *Config) Validate() error {
	checks := []func() error{
		c.validateLayout,
		c.validatePopulation,
		c.validateLifecycle,
		c.validateReproduction,
		c.validateResistance,
		c.validatePoison,
		c.validateRun,
		c.validateBookmarks,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateLayout() error {
	switch c.Layout.Topology {
	case TopologyBounded, TopologyToroidal:
	default:
		return invalid("layout.topology", c.Layout.Topology, "want bounded or toroidal")
	}
	if c.Layout.Path != "" {
		return nil
	}
	g := c.Layout.Generate
	if g.Rows < 1 {
		return invalid("layout.generate.rows", g.Rows, "must be at least 1")
	}
	if g.Cols < 1 {
		return invalid("layout.generate.cols", g.Cols, "must be at least 1")
	}
	if g.Octaves < 1 {
		return invalid("layout.generate.octaves", g.Octaves, "must be at least 1")
	}
	if !(g.Scale > 0) || !finite(g.Scale) {
		return invalid("layout.generate.scale", g.Scale, "must be positive")
	}
	if !finite(g.ObstacleThreshold) {
		return invalid("layout.generate.obstacle_threshold", g.ObstacleThreshold, "must be finite")
	}
	if !(g.ToxicityScale >= 0) || !finite(g.ToxicityScale) {
		return invalid("layout.generate.toxicity_scale", g.ToxicityScale, "must not be negative")
	}
	return nil
}

func (c *Config) validatePopulation() error {
	p := c.Population
	if p.Initial < 0 {
		return invalid("population.initial", p.Initial, "must not be negative")
	}
	if p.Initial == 0 && len(p.Seeds) == 0 {
		return invalid("population.initial", p.Initial, "need at least one founder or seed")
	}
	for i, s := range p.Seeds {
		if s.Row < 0 || s.Col < 0 {
			return invalid(fmt.Sprintf("population.seeds[%d]", i), fmt.Sprintf("(%d,%d)", s.Row, s.Col), "coordinates must not be negative")
		}
		if s.Resistance != nil && !within(*s.Resistance, c.Resistance.Min, c.Resistance.Max) {
			return invalid(fmt.Sprintf("population.seeds[%d].resistance", i), *s.Resistance, "outside resistance range")
		}
	}
	return nil
}

func (c *Config) validateLifecycle() error {
	l := c.Lifecycle
	if l.AgeLimit < 0 {
		return invalid("lifecycle.age_limit", l.AgeLimit, "must not be negative")
	}
	if l.DivisionLimit < 0 {
		return invalid("lifecycle.division_limit", l.DivisionLimit, "must not be negative")
	}
	switch l.DivisionPolicy {
	case DivisionPolicyDie, DivisionPolicySterile:
	default:
		return invalid("lifecycle.division_policy", l.DivisionPolicy, "want die or sterile")
	}
	switch l.OvercrowdingPolicy {
	case OvercrowdingBlock, OvercrowdingDie:
	default:
		return invalid("lifecycle.overcrowding_policy", l.OvercrowdingPolicy, "want block or die")
	}
	return nil
}

func (c *Config) validateReproduction() error {
	r := c.Reproduction
	if !within(r.Probability, 0, 1) {
		return invalid("reproduction.probability", r.Probability, "must be within [0,1]")
	}
	if r.Cooldown < 0 {
		return invalid("reproduction.cooldown", r.Cooldown, "must not be negative")
	}
	if !within(r.ResistanceCost, 0, 1) {
		return invalid("reproduction.resistance_cost", r.ResistanceCost, "must be within [0,1]")
	}
	return nil
}

func (c *Config) validateResistance() error {
	r := c.Resistance
	if !finite(r.Min) {
		return invalid("resistance.min", r.Min, "must be finite")
	}
	if !finite(r.Max) || !(r.Max > r.Min) {
		return invalid("resistance.max", r.Max, fmt.Sprintf("must exceed resistance.min (%v)", r.Min))
	}
	switch r.Distribution {
	case DistributionUniform:
	case DistributionNormal:
		if !(r.Sigma > 0) || !finite(r.Sigma) {
			return invalid("resistance.sigma", r.Sigma, "must be positive for normal distribution")
		}
	default:
		return invalid("resistance.distribution", r.Distribution, "want uniform or normal")
	}
	if !(r.MutationRange >= 0) || !finite(r.MutationRange) {
		return invalid("resistance.mutation_range", r.MutationRange, "must not be negative")
	}
	return nil
}

func (c *Config) validatePoison() error {
	if !(c.Poison.Strength >= 0) || !finite(c.Poison.Strength) {
		return invalid("poison.strength", c.Poison.Strength, "must not be negative")
	}
	if !within(c.Poison.Ambient, 0, 1) {
		return invalid("poison.ambient", c.Poison.Ambient, "must be within [0,1]")
	}
	return nil
}

func (c *Config) validateRun() error {
	if c.Run.MaxTicks < 0 {
		return invalid("run.max_ticks", c.Run.MaxTicks, "must not be negative")
	}
	if c.Telemetry.StatsWindow < 1 {
		return invalid("telemetry.stats_window", c.Telemetry.StatsWindow, "must be at least 1")
	}
	return nil
}

func (c *Config) validateBookmarks() error {
	b := c.Bookmarks
	if !within(b.CrashDropPercent, 0, 1) {
		return invalid("bookmarks.crash_drop_percent", b.CrashDropPercent, "must be within [0,1]")
	}
	if !within(b.SweepThreshold, 0, 1) {
		return invalid("bookmarks.sweep_threshold", b.SweepThreshold, "must be within [0,1]")
	}
	if !within(b.SaturationFraction, 0, 1) {
		return invalid("bookmarks.saturation_fraction", b.SaturationFraction, "must be within [0,1]")
	}
	return nil
}
