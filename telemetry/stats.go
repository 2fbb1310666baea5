// Package telemetry provides population statistics, bookmarking, snapshots and run output.
package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a window of ticks.
type WindowStats struct {
	WindowStartTick int `csv:"-"`
	WindowEndTick   int `csv:"window_end"`

	// Population at window end
	Population int     `csv:"population"`
	Occupancy  float64 `csv:"occupancy"` // occupied share of habitable patches

	// Events during window
	Births              int `csv:"births"`
	Deaths              int `csv:"deaths"`
	DeathsAgeLimit      int `csv:"deaths_age_limit"`
	DeathsDivisionLimit int `csv:"deaths_division_limit"`
	DeathsPoisoned      int `csv:"deaths_poisoned"`
	DeathsOvercrowded   int `csv:"deaths_overcrowded"`
	DeathsOther         int `csv:"deaths_other"`

	// Reproduction
	Attempts    int     `csv:"repro_attempts"`
	Blocked     int     `csv:"repro_blocked"`
	SuccessRate float64 `csv:"repro_success_rate"`

	// Resistance distribution (sampled at window end)
	ResistanceMean float64 `csv:"resistance_mean"`
	ResistanceStd  float64 `csv:"resistance_std"`
	ResistanceP10  float64 `csv:"resistance_p10"`
	ResistanceP50  float64 `csv:"resistance_p50"`
	ResistanceP90  float64 `csv:"resistance_p90"`

	// Generations alive at window end
	GenerationMin int     `csv:"generation_min"`
	GenerationMax int     `csv:"generation_max"`
	MeanAge       float64 `csv:"mean_age"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Summary describes a sample of values.
type Summary struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	P10   float64 `json:"p10"`
	P50   float64 `json:"p50"`
	P90   float64 `json:"p90"`
}

// Summarize computes mean, spread and percentiles. Std is the sample standard
// deviation and is 0 for fewer than two values.
func Summarize(values []float64) Summary {
	n := len(values)
	if n == 0 {
		return Summary{}
	}

	s := Summary{Count: n, Min: floats.Min(values), Max: floats.Max(values)}
	if n > 1 {
		s.Mean, s.Std = stat.MeanStdDev(values, nil)
	} else {
		s.Mean = values[0]
	}

	// Sort for percentiles
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	s.P10 = Percentile(sorted, 0.10)
	s.P50 = Percentile(sorted, 0.50)
	s.P90 = Percentile(sorted, 0.90)
	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", s.WindowStartTick),
		slog.Int("window_end", s.WindowEndTick),
		slog.Int("population", s.Population),
		slog.Float64("occupancy", s.Occupancy),
		slog.Int("births", s.Births),
		slog.Int("deaths", s.Deaths),
		slog.Int("deaths_age_limit", s.DeathsAgeLimit),
		slog.Int("deaths_division_limit", s.DeathsDivisionLimit),
		slog.Int("deaths_poisoned", s.DeathsPoisoned),
		slog.Int("deaths_overcrowded", s.DeathsOvercrowded),
		slog.Int("deaths_other", s.DeathsOther),
		slog.Int("repro_attempts", s.Attempts),
		slog.Int("repro_blocked", s.Blocked),
		slog.Float64("repro_success_rate", s.SuccessRate),
		slog.Float64("resistance_mean", s.ResistanceMean),
		slog.Float64("resistance_std", s.ResistanceStd),
		slog.Float64("resistance_p10", s.ResistanceP10),
		slog.Float64("resistance_p50", s.ResistanceP50),
		slog.Float64("resistance_p90", s.ResistanceP90),
		slog.Int("generation_min", s.GenerationMin),
		slog.Int("generation_max", s.GenerationMax),
		slog.Float64("mean_age", s.MeanAge),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"population", s.Population,
		"occupancy", s.Occupancy,
		"births", s.Births,
		"deaths", s.Deaths,
		"deaths_age_limit", s.DeathsAgeLimit,
		"deaths_division_limit", s.DeathsDivisionLimit,
		"deaths_poisoned", s.DeathsPoisoned,
		"deaths_overcrowded", s.DeathsOvercrowded,
		"deaths_other", s.DeathsOther,
		"repro_success_rate", s.SuccessRate,
		"resistance_mean", s.ResistanceMean,
		"resistance_p50", s.ResistanceP50,
		"generation_max", s.GenerationMax,
	)
}
