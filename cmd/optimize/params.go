// Package main provides CMA-ES optimization for petri simulation parameters.
package main

import (
	"math"

	"github.com/pthm-cable/petri/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Integer bool    // Rounded before it is applied

	get func(*config.Config) float64
	set func(*config.Config, float64)
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Reproduction
			{
				Name: "probability", Path: "reproduction.probability", Min: 0.05, Max: 1.0,
				get: func(c *config.Config) float64 { return c.Reproduction.Probability },
				set: func(c *config.Config, v float64) { c.Reproduction.Probability = v },
			},
			{
				Name: "cooldown", Path: "reproduction.cooldown", Min: 0, Max: 10, Integer: true,
				get: func(c *config.Config) float64 { return float64(c.Reproduction.Cooldown) },
				set: func(c *config.Config, v float64) { c.Reproduction.Cooldown = int(v) },
			},
			{
				Name: "resistance_cost", Path: "reproduction.resistance_cost", Min: 0, Max: 1,
				get: func(c *config.Config) float64 { return c.Reproduction.ResistanceCost },
				set: func(c *config.Config, v float64) { c.Reproduction.ResistanceCost = v },
			},
			// Inheritance
			{
				Name: "mutation_range", Path: "resistance.mutation_range", Min: 0, Max: 5,
				get: func(c *config.Config) float64 { return c.Resistance.MutationRange },
				set: func(c *config.Config, v float64) { c.Resistance.MutationRange = v },
			},
			// Life cycle (age limit below 2 kills every cell before it can divide twice)
			{
				Name: "age_limit", Path: "lifecycle.age_limit", Min: 2, Max: 50, Integer: true,
				get: func(c *config.Config) float64 { return float64(c.Lifecycle.AgeLimit) },
				set: func(c *config.Config, v float64) { c.Lifecycle.AgeLimit = int(v) },
			},
			{
				Name: "division_limit", Path: "lifecycle.division_limit", Min: 1, Max: 10, Integer: true,
				get: func(c *config.Config) float64 { return float64(c.Lifecycle.DivisionLimit) },
				set: func(c *config.Config, v float64) { c.Lifecycle.DivisionLimit = int(v) },
			},
			// Environment
			{
				Name: "poison_strength", Path: "poison.strength", Min: 0, Max: 2,
				get: func(c *config.Config) float64 { return c.Poison.Strength },
				set: func(c *config.Config, v float64) { c.Poison.Strength = v },
			},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// ExtractFromConfig extracts current parameter values from a Config struct,
// clamped to the search bounds.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.get(cfg)
	}
	return pv.Clamp(v)
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds and integer parameters are whole.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := math.Max(spec.Min, math.Min(spec.Max, v[i]))
		if spec.Integer {
			val = math.Round(val)
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	for i, v := range pv.Clamp(values) {
		pv.Specs[i].set(cfg, v)
	}
	cfg.ComputeDerived()
}
