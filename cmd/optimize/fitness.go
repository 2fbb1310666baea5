package main

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/petri/config"
	"github.com/pthm-cable/petri/sim"
	"github.com/pthm-cable/petri/telemetry"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	maxTicks   int
	seeds      []int64
	baseConfig *config.Config
	log        *slog.Logger

	// Best run tracking
	mu             sync.Mutex
	bestFitness    float64
	bestHallOfFame []telemetry.HallEntry
	lastQuality    float64 // quality from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		baseConfig:  baseCfg,
		log:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		bestFitness: math.Inf(1),
	}
}

// BestHallOfFame returns the hall of fame from the best evaluation.
func (fe *FitnessEvaluator) BestHallOfFame() []telemetry.HallEntry {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestHallOfFame
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// runResult holds the results from a single simulation run.
type runResult struct {
	survivalTicks int // ticks before extinction (or maxTicks if survived)
	habitable     int
	report        telemetry.Report
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	fitness    float64
	quality    float64
	hallOfFame []telemetry.HallEntry
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Fitness is negative survival ticks: longer survival = lower (better) fitness.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.baseConfig.Clone()
	fe.params.ApplyToConfig(cfg, x)
	cfg.Run.MaxTicks = fe.maxTicks

	// Run all seeds in parallel, each on its own copy of the config
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			result := fe.runSimulation(cfg.Clone(), s)
			results[idx] = seedResult{
				fitness:    computeFitness(result),
				quality:    computeQuality(result.report.Series, result.habitable),
				hallOfFame: result.report.HallOfFame,
			}
		}(i, seed)
	}
	wg.Wait()

	// Aggregate results
	var totalFitness, totalQuality float64
	bestSeedFitness := math.Inf(1)
	var bestSeedHallOfFame []telemetry.HallEntry

	for _, r := range results {
		totalFitness += r.fitness
		totalQuality += r.quality
		if r.fitness < bestSeedFitness {
			bestSeedFitness = r.fitness
			bestSeedHallOfFame = r.hallOfFame
		}
	}

	n := float64(len(fe.seeds))
	avgFitness := totalFitness / n

	// Update best tracking
	fe.mu.Lock()
	if avgFitness < fe.bestFitness {
		fe.bestFitness = avgFitness
		fe.bestHallOfFame = bestSeedHallOfFame
	}
	fe.lastQuality = totalQuality / n
	fe.mu.Unlock()

	return avgFitness
}

// runSimulation executes a single headless simulation run.
// A config the simulation rejects scores zero survival.
func (fe *FitnessEvaluator) runSimulation(cfg *config.Config, seed int64) runResult {
	s, err := sim.New(cfg, sim.Options{Seed: seed, Logger: fe.log})
	if err != nil {
		fe.log.Warn("simulation rejected parameters", "error", err)
		return runResult{}
	}
	defer s.Close()

	report := s.Run(context.Background(), nil)
	result := runResult{
		survivalTicks: report.Ticks,
		habitable:     s.Grid().HabitableCount(),
		report:        report,
	}
	if report.StopReason != sim.StopExtinct {
		result.survivalTicks = fe.maxTicks
	}
	return result
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: -(survivalTicks × (1.0 + 0.2 × quality))
// Survival dominates; quality adds up to 20% bonus to differentiate
// configs with similar survival.
func computeFitness(r runResult) float64 {
	survival := float64(r.survivalTicks)
	quality := computeQuality(r.report.Series, r.habitable)
	return -(survival * (1.0 + 0.2*quality))
}

// Quality component weights.
const (
	qualityWeightOccupancy = 0.40
	qualityWeightStability = 0.35
	qualityWeightTurnover  = 0.25

	qualityWarmupTicks     = 10  // skip first N ticks (founders spreading out)
	qualityTargetOccupancy = 0.5 // share of habitable patches
	qualityTurnoverScale   = 10.0
)

// computeQuality computes population quality ∈ [0, 1] from the tick series:
// occupancy near half the grid, a steady population and generational
// turnover.
func computeQuality(series []telemetry.TickPoint, habitable int) float64 {
	if len(series) <= qualityWarmupTicks || habitable == 0 {
		return 0
	}
	valid := series[qualityWarmupTicks:]

	var occSum float64
	var maxGen int
	counts := make([]float64, 0, len(valid))
	for _, p := range valid {
		if p.Population == 0 {
			continue
		}
		counts = append(counts, float64(p.Population))

		occ := float64(p.Population) / float64(habitable)
		d := (occ - qualityTargetOccupancy) / 0.25
		occSum += math.Exp(-d * d)
		maxGen = max(maxGen, p.MaxGeneration)
	}

	// No living windows → zero quality
	if len(counts) == 0 {
		return 0
	}

	occupancyScore := occSum / float64(len(counts))

	// Population stability (coefficient of variation across the series)
	stabilityScore := 0.0
	if len(counts) >= 2 {
		mean, std := stat.PopMeanStdDev(counts, nil)
		if mean > 0 {
			cv := std / mean
			stabilityScore = math.Exp(-cv * cv)
		}
	}

	turnoverScore := 1 - math.Exp(-float64(maxGen)/qualityTurnoverScale)

	quality := qualityWeightOccupancy*occupancyScore +
		qualityWeightStability*stabilityScore +
		qualityWeightTurnover*turnoverScore

	return clamp01(quality)
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
