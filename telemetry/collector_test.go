package telemetry

import (
	"testing"

	"github.com/pthm-cable/petri/components"
	"github.com/pthm-cable/petri/population"
	"github.com/pthm-cable/petri/systems"
)

func TestCollectorWindow(t *testing.T) {
	c := NewCollector(2)

	c.RecordTick(systems.TickResult{
		Tick:     1,
		Births:   []systems.Birth{{}, {}},
		Deaths:   []systems.Death{{Cause: components.CausePoisoned}},
		Attempts: 4,
		Blocked:  1,
	})
	if c.ShouldFlush(1) {
		t.Error("flush after one tick of a two-tick window")
	}
	c.RecordTick(systems.TickResult{
		Tick:     2,
		Deaths:   []systems.Death{{Cause: components.CauseAgeLimit}, {Cause: components.CausePoisoned}},
		Attempts: 0,
		Blocked:  2,
	})
	if !c.ShouldFlush(2) {
		t.Fatal("expected flush at tick 2")
	}

	live := []population.CellView{
		view(components.Cell{ID: 4, Generation: 1, Age: 1, Resistance: 1}, 0, 0),
		view(components.Cell{ID: 5, Generation: 2, Age: 3, Resistance: 3}, 0, 1),
	}
	stats := c.Flush(2, live, 8)

	if stats.WindowStartTick != 0 || stats.WindowEndTick != 2 {
		t.Errorf("window = [%d,%d], want [0,2]", stats.WindowStartTick, stats.WindowEndTick)
	}
	if stats.Births != 2 || stats.Deaths != 3 {
		t.Errorf("births/deaths = %d/%d, want 2/3", stats.Births, stats.Deaths)
	}
	if stats.DeathsPoisoned != 2 || stats.DeathsAgeLimit != 1 {
		t.Errorf("poisoned/age = %d/%d, want 2/1", stats.DeathsPoisoned, stats.DeathsAgeLimit)
	}
	if stats.Attempts != 4 || stats.Blocked != 3 || stats.SuccessRate != 0.5 {
		t.Errorf("attempts/blocked/rate = %d/%d/%v", stats.Attempts, stats.Blocked, stats.SuccessRate)
	}
	if stats.Population != 2 || stats.Occupancy != 0.25 {
		t.Errorf("population/occupancy = %d/%v, want 2/0.25", stats.Population, stats.Occupancy)
	}
	if stats.ResistanceMean != 2 || stats.ResistanceP50 != 2 {
		t.Errorf("resistance mean/p50 = %v/%v, want 2/2", stats.ResistanceMean, stats.ResistanceP50)
	}
	if stats.GenerationMin != 1 || stats.GenerationMax != 2 || stats.MeanAge != 2 {
		t.Errorf("generations [%d,%d] mean age %v", stats.GenerationMin, stats.GenerationMax, stats.MeanAge)
	}

	// Counters reset for the next window
	if c.ShouldFlush(3) {
		t.Error("flush one tick into the next window")
	}
	next := c.Flush(4, nil, 8)
	if next.WindowStartTick != 2 || next.Births != 0 || next.Deaths != 0 || next.Attempts != 0 {
		t.Errorf("counters not reset: %+v", next)
	}
}

func TestCollectorMinimumWindow(t *testing.T) {
	c := NewCollector(0)
	if c.WindowDurationTicks() != 1 {
		t.Errorf("window = %d, want 1", c.WindowDurationTicks())
	}
	if !c.ShouldFlush(1) {
		t.Error("expected flush every tick")
	}
}
