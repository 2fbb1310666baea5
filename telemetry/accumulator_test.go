package telemetry

import (
	"math"
	"reflect"
	"testing"

	"github.com/pthm-cable/petri/components"
	"github.com/pthm-cable/petri/population"
	"github.com/pthm-cable/petri/systems"
)

func view(c components.Cell, row, col int) population.CellView {
	return population.CellView{Cell: c, Pos: components.Position{Row: row, Col: col}}
}

// feedTwoTicks runs a hand-built history through acc:
// tick 1: founder 1 divides into cell 3, founder 2 is poisoned at age 1.
// tick 2: founder 1 reaches its age limit at age 2.
func feedTwoTicks(acc *Accumulator) {
	f1 := components.Cell{ID: 1, Resistance: 2}
	f2 := components.Cell{ID: 2, Resistance: 4}
	acc.RecordFounders([]components.Cell{f1, f2})

	child := components.Cell{ID: 3, ParentID: 1, Generation: 1, Resistance: 3, BirthTick: 1}
	f1.Age, f1.Divisions = 1, 1
	dead2 := f2
	dead2.Age, dead2.Cause = 1, components.CausePoisoned
	acc.Observe(systems.TickResult{
		Tick:       1,
		Births:     []systems.Birth{{Child: child, Tick: 1}},
		Deaths:     []systems.Death{{Cell: dead2, Cause: components.CausePoisoned, Tick: 1}},
		Population: 2,
	}, []population.CellView{view(f1, 0, 0), view(child, 0, 1)})

	dead1 := f1
	dead1.Age, dead1.Cause = 2, components.CauseAgeLimit
	child.Age = 1
	acc.Observe(systems.TickResult{
		Tick:       2,
		Deaths:     []systems.Death{{Cell: dead1, Cause: components.CauseAgeLimit, Tick: 2}},
		Population: 1,
	}, []population.CellView{view(child, 0, 1)})
}

func TestAccumulatorTotals(t *testing.T) {
	acc := NewAccumulator(5)
	feedTwoTicks(acc)
	r := acc.Report()

	if r.Ticks != 2 || r.TotalCreated != 3 || r.FinalPopulation != 1 {
		t.Errorf("ticks/created/final = %d/%d/%d, want 2/3/1", r.Ticks, r.TotalCreated, r.FinalPopulation)
	}
	if r.PeakPopulation != 2 || r.PeakTick != 0 {
		t.Errorf("peak = %d at tick %d, want 2 at tick 0", r.PeakPopulation, r.PeakTick)
	}
	if r.MaxGeneration != 1 || r.Generations != 2 {
		t.Errorf("max generation/generations = %d/%d, want 1/2", r.MaxGeneration, r.Generations)
	}
	if !reflect.DeepEqual(r.LargestGenerations, []int{0}) || r.LargestGenerationSize != 2 {
		t.Errorf("largest = %v (%d), want [0] (2)", r.LargestGenerations, r.LargestGenerationSize)
	}

	if r.TotalDeaths != 2 {
		t.Errorf("TotalDeaths = %d, want 2", r.TotalDeaths)
	}
	for _, c := range components.AllCauses() {
		if _, ok := r.DeathsByCause[c]; !ok {
			t.Errorf("DeathsByCause missing %s", c)
		}
	}
	if r.DeathsByCause[components.CausePoisoned] != 1 || r.DeathsByCause[components.CauseAgeLimit] != 1 {
		t.Errorf("DeathsByCause = %v", r.DeathsByCause)
	}
	if got := r.MeanLifespanByCause[components.CauseAgeLimit]; got != 2 {
		t.Errorf("mean lifespan age-limit = %v, want 2", got)
	}
}

func TestAccumulatorPerGeneration(t *testing.T) {
	acc := NewAccumulator(5)
	feedTwoTicks(acc)
	r := acc.Report()

	if len(r.PerGeneration) != 2 {
		t.Fatalf("PerGeneration has %d entries, want 2", len(r.PerGeneration))
	}
	g0 := r.PerGeneration[0]
	if g0.Count != 2 || g0.Deaths != 2 {
		t.Errorf("gen 0 count/deaths = %d/%d, want 2/2", g0.Count, g0.Deaths)
	}
	if g0.ResistanceMean != 3 || g0.ResistanceMin != 2 || g0.ResistanceMax != 4 {
		t.Errorf("gen 0 resistance = %+v", g0)
	}
	if math.Abs(g0.ResistanceStd-math.Sqrt2) > 1e-9 {
		t.Errorf("gen 0 std = %v, want sqrt(2)", g0.ResistanceStd)
	}
	if g0.MeanLifespan != 1.5 {
		t.Errorf("gen 0 mean lifespan = %v, want 1.5", g0.MeanLifespan)
	}
	g1 := r.PerGeneration[1]
	if g1.Count != 1 || g1.Deaths != 0 || g1.ResistanceMean != 3 {
		t.Errorf("gen 1 = %+v", g1)
	}
}

func TestAccumulatorSeries(t *testing.T) {
	acc := NewAccumulator(5)
	feedTwoTicks(acc)
	r := acc.Report()

	want := []TickPoint{
		{Tick: 1, Population: 2, Births: 1, Deaths: 1, MeanResistance: 2.5, MinGeneration: 0, MaxGeneration: 1},
		{Tick: 2, Population: 1, Births: 0, Deaths: 1, MeanResistance: 3, MinGeneration: 1, MaxGeneration: 1},
	}
	if !reflect.DeepEqual(r.Series, want) {
		t.Errorf("Series =\n%+v\nwant\n%+v", r.Series, want)
	}
}

func TestAccumulatorHallOfFame(t *testing.T) {
	acc := NewAccumulator(5)
	feedTwoTicks(acc)
	r := acc.Report()

	// Only founder 1 reproduced
	if len(r.HallOfFame) != 1 {
		t.Fatalf("hall has %d entries, want 1", len(r.HallOfFame))
	}
	e := r.HallOfFame[0]
	if e.CellID != 1 || e.Children != 1 || e.Lifespan != 2 || e.Cause != components.CauseAgeLimit {
		t.Errorf("hall entry = %+v", e)
	}
}

func TestAccumulatorReportIsCopy(t *testing.T) {
	acc := NewAccumulator(5)
	feedTwoTicks(acc)

	r := acc.Report()
	r.DeathsByCause[components.CauseOther] = 100
	r.Series[0].Population = -1
	r.PerGeneration[0].Count = -1

	again := acc.Report()
	if again.DeathsByCause[components.CauseOther] != 0 {
		t.Error("report map aliases accumulator state")
	}
	if again.Series[0].Population != 2 || again.PerGeneration[0].Count != 2 {
		t.Error("report slices alias accumulator state")
	}
}

func TestAccumulatorLargestGenerationTies(t *testing.T) {
	acc := NewAccumulator(0)
	acc.RecordFounders([]components.Cell{{ID: 1}})
	acc.Observe(systems.TickResult{
		Tick:       1,
		Births:     []systems.Birth{{Child: components.Cell{ID: 2, ParentID: 1, Generation: 1}}},
		Population: 2,
	}, nil)

	r := acc.Report()
	if !reflect.DeepEqual(r.LargestGenerations, []int{0, 1}) || r.LargestGenerationSize != 1 {
		t.Errorf("largest = %v (%d), want [0 1] (1)", r.LargestGenerations, r.LargestGenerationSize)
	}
	if len(r.HallOfFame) != 0 {
		t.Errorf("hall of size 0 kept %d entries", len(r.HallOfFame))
	}
}

func TestAccumulatorEmpty(t *testing.T) {
	r := NewAccumulator(5).Report()
	if r.TotalCreated != 0 || r.Generations != 0 || len(r.LargestGenerations) != 0 {
		t.Errorf("empty report = %+v", r)
	}
	if len(r.DeathsByCause) != len(components.AllCauses()) {
		t.Errorf("DeathsByCause has %d keys, want %d", len(r.DeathsByCause), len(components.AllCauses()))
	}
}
