package telemetry

import (
	"github.com/pthm-cable/petri/components"
	"github.com/pthm-cable/petri/population"
	"github.com/pthm-cable/petri/systems"
)

// Collector accumulates tick results within windows and produces WindowStats.
type Collector struct {
	windowDurationTicks int

	// Current window tracking
	windowStartTick int

	// Event counters for current window
	births   int
	deaths   [components.CauseOther + 1]int
	attempts int
	blocked  int
}

// NewCollector creates a new stats collector flushing every windowTicks ticks.
func NewCollector(windowTicks int) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{windowDurationTicks: windowTicks}
}

// RecordTick adds one tick's events to the current window.
func (c *Collector) RecordTick(res systems.TickResult) {
	c.births += len(res.Births)
	for _, d := range res.Deaths {
		c.deaths[d.Cause]++
	}
	c.attempts += res.Attempts
	c.blocked += res.Blocked
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Pending reports whether ticks have been recorded since the last flush.
func (c *Collector) Pending(currentTick int) bool {
	return currentTick > c.windowStartTick
}

// Flush produces a WindowStats from the live cells at currentTick and resets
// counters for the next window.
func (c *Collector) Flush(currentTick int, live []population.CellView, habitable int) WindowStats {
	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		Population:      len(live),

		Births:              c.births,
		DeathsAgeLimit:      c.deaths[components.CauseAgeLimit],
		DeathsDivisionLimit: c.deaths[components.CauseDivisionLimit],
		DeathsPoisoned:      c.deaths[components.CausePoisoned],
		DeathsOvercrowded:   c.deaths[components.CauseOvercrowded],
		DeathsOther:         c.deaths[components.CauseOther],

		Attempts: c.attempts,
		Blocked:  c.blocked,
	}
	for _, n := range c.deaths {
		stats.Deaths += n
	}
	if habitable > 0 {
		stats.Occupancy = float64(len(live)) / float64(habitable)
	}
	if c.attempts > 0 {
		stats.SuccessRate = float64(c.births) / float64(c.attempts)
	}

	if len(live) > 0 {
		res := make([]float64, len(live))
		var ageSum int
		stats.GenerationMin = live[0].Cell.Generation
		for i, v := range live {
			res[i] = v.Cell.Resistance
			ageSum += v.Cell.Age
			stats.GenerationMin = min(stats.GenerationMin, v.Cell.Generation)
			stats.GenerationMax = max(stats.GenerationMax, v.Cell.Generation)
		}
		s := Summarize(res)
		stats.ResistanceMean = s.Mean
		stats.ResistanceStd = s.Std
		stats.ResistanceP10 = s.P10
		stats.ResistanceP50 = s.P50
		stats.ResistanceP90 = s.P90
		stats.MeanAge = float64(ageSum) / float64(len(live))
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.births = 0
	c.deaths = [components.CauseOther + 1]int{}
	c.attempts = 0
	c.blocked = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int {
	return c.windowDurationTicks
}
