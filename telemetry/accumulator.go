package telemetry

import (
	"maps"

	"github.com/pthm-cable/petri/components"
	"github.com/pthm-cable/petri/population"
	"github.com/pthm-cable/petri/systems"
)

// GenerationStats aggregates every cell ever created in one generation.
type GenerationStats struct {
	Generation     int     `json:"generation" csv:"generation"`
	Count          int     `json:"count" csv:"count"`
	Deaths         int     `json:"deaths" csv:"deaths"`
	ResistanceMean float64 `json:"resistance_mean" csv:"resistance_mean"`
	ResistanceStd  float64 `json:"resistance_std" csv:"resistance_std"`
	ResistanceMin  float64 `json:"resistance_min" csv:"resistance_min"`
	ResistanceMax  float64 `json:"resistance_max" csv:"resistance_max"`
	MeanLifespan   float64 `json:"mean_lifespan" csv:"mean_lifespan"` // over dead cells only
}

// TickPoint is one entry of the per-tick series.
type TickPoint struct {
	Tick           int     `json:"tick" csv:"tick"`
	Population     int     `json:"population" csv:"population"`
	Births         int     `json:"births" csv:"births"`
	Deaths         int     `json:"deaths" csv:"deaths"`
	MeanResistance float64 `json:"mean_resistance" csv:"mean_resistance"`
	MinGeneration  int     `json:"min_generation" csv:"min_generation"`
	MaxGeneration  int     `json:"max_generation" csv:"max_generation"`
}

// Report is the read-only result of a run.
type Report struct {
	Seed       int64  `json:"seed"`
	StopReason string `json:"stop_reason"`
	Ticks      int    `json:"ticks"`

	TotalCreated    int `json:"total_created"`
	FinalPopulation int `json:"final_population"`
	PeakPopulation  int `json:"peak_population"`
	PeakTick        int `json:"peak_tick"`

	MaxGeneration         int   `json:"max_generation"`
	Generations           int   `json:"generations"`
	LargestGenerations    []int `json:"largest_generations"`
	LargestGenerationSize int   `json:"largest_generation_size"`

	TotalDeaths         int                               `json:"total_deaths"`
	DeathsByCause       map[components.DeathCause]int     `json:"deaths_by_cause"`
	MeanLifespanByCause map[components.DeathCause]float64 `json:"mean_lifespan_by_cause"`

	PerGeneration []GenerationStats `json:"per_generation"`
	Series        []TickPoint       `json:"series"`
	HallOfFame    []HallEntry       `json:"hall_of_fame"`
}

type generationAcc struct {
	resistances []float64
	deaths      int
	lifespanSum int
}

// Accumulator folds tick results into running totals. It only reads the
// values it is handed and never touches engine state.
type Accumulator struct {
	totalCreated   int
	lastTick       int
	population     int
	peakPopulation int
	peakTick       int
	maxGeneration  int

	deaths       map[components.DeathCause]int
	lifespanSums map[components.DeathCause]int

	generations []generationAcc
	series      []TickPoint

	lifetimes *LifetimeTracker
	hall      *HallOfFame
}

// NewAccumulator creates an accumulator keeping hallSize hall of fame entries.
func NewAccumulator(hallSize int) *Accumulator {
	a := &Accumulator{
		deaths:       make(map[components.DeathCause]int),
		lifespanSums: make(map[components.DeathCause]int),
		lifetimes:    NewLifetimeTracker(),
		hall:         NewHallOfFame(hallSize),
	}
	for _, c := range components.AllCauses() {
		a.deaths[c] = 0
	}
	return a
}

// RecordFounders registers the initial population.
func (a *Accumulator) RecordFounders(cells []components.Cell) {
	for _, c := range cells {
		a.recordBirth(c)
	}
	a.population += len(cells)
	if a.population > a.peakPopulation {
		a.peakPopulation = a.population
		a.peakTick = 0
	}
}

func (a *Accumulator) recordBirth(c components.Cell) {
	a.totalCreated++
	for len(a.generations) <= c.Generation {
		a.generations = append(a.generations, generationAcc{})
	}
	g := &a.generations[c.Generation]
	g.resistances = append(g.resistances, c.Resistance)
	a.maxGeneration = max(a.maxGeneration, c.Generation)
	a.lifetimes.Register(c)
}

// Observe folds one tick into the totals. live is the population after cleanup.
func (a *Accumulator) Observe(res systems.TickResult, live []population.CellView) {
	for _, b := range res.Births {
		a.recordBirth(b.Child)
		a.lifetimes.RecordChild(b.Child.ParentID)
	}
	for _, d := range res.Deaths {
		a.deaths[d.Cause]++
		a.lifespanSums[d.Cause] += d.Cell.Age
		g := &a.generations[d.Cell.Generation]
		g.deaths++
		g.lifespanSum += d.Cell.Age
		if stats := a.lifetimes.Finish(d.Cell); stats != nil {
			a.hall.Consider(d.Cell.ID, stats)
		}
	}

	a.lastTick = res.Tick
	a.population = res.Population
	if res.Population > a.peakPopulation {
		a.peakPopulation = res.Population
		a.peakTick = res.Tick
	}

	point := TickPoint{
		Tick:       res.Tick,
		Population: res.Population,
		Births:     len(res.Births),
		Deaths:     len(res.Deaths),
	}
	if len(live) > 0 {
		var sum float64
		point.MinGeneration = live[0].Cell.Generation
		for _, v := range live {
			sum += v.Cell.Resistance
			point.MinGeneration = min(point.MinGeneration, v.Cell.Generation)
			point.MaxGeneration = max(point.MaxGeneration, v.Cell.Generation)
		}
		point.MeanResistance = sum / float64(len(live))
	}
	a.series = append(a.series, point)
}

// Population returns the live population after the last observed tick.
func (a *Accumulator) Population() int { return a.population }

// TotalCreated returns the number of cells recorded so far.
func (a *Accumulator) TotalCreated() int { return a.totalCreated }

// Report builds a deep copy of the current totals.
func (a *Accumulator) Report() Report {
	r := Report{
		Ticks:               a.lastTick,
		TotalCreated:        a.totalCreated,
		FinalPopulation:     a.population,
		PeakPopulation:      a.peakPopulation,
		PeakTick:            a.peakTick,
		MaxGeneration:       a.maxGeneration,
		Generations:         len(a.generations),
		DeathsByCause:       maps.Clone(a.deaths),
		MeanLifespanByCause: make(map[components.DeathCause]float64),
		Series:              append([]TickPoint(nil), a.series...),
		HallOfFame:          a.hall.Entries(),
	}

	for cause, n := range a.deaths {
		r.TotalDeaths += n
		if n > 0 {
			r.MeanLifespanByCause[cause] = float64(a.lifespanSums[cause]) / float64(n)
		}
	}

	r.PerGeneration = make([]GenerationStats, len(a.generations))
	for i, g := range a.generations {
		s := Summarize(g.resistances)
		gs := GenerationStats{
			Generation:     i,
			Count:          len(g.resistances),
			Deaths:         g.deaths,
			ResistanceMean: s.Mean,
			ResistanceStd:  s.Std,
			ResistanceMin:  s.Min,
			ResistanceMax:  s.Max,
		}
		if g.deaths > 0 {
			gs.MeanLifespan = float64(g.lifespanSum) / float64(g.deaths)
		}
		r.PerGeneration[i] = gs

		switch {
		case gs.Count > r.LargestGenerationSize:
			r.LargestGenerationSize = gs.Count
			r.LargestGenerations = []int{i}
		case gs.Count == r.LargestGenerationSize && gs.Count > 0:
			r.LargestGenerations = append(r.LargestGenerations, i)
		}
	}
	return r
}
