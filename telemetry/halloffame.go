package telemetry

import (
	"sort"

	"github.com/pthm-cable/petri/components"
)

// Hall of fame fitness weights.
const (
	ChildrenWeight = 1.0
	SurvivalWeight = 0.1
)

// HallEntry records a prolific cell after its death.
type HallEntry struct {
	CellID     uint64                `json:"cell_id"`
	Generation int                   `json:"generation"`
	Resistance float64               `json:"resistance"`
	Children   int                   `json:"children"`
	Lifespan   int                   `json:"lifespan"`
	Cause      components.DeathCause `json:"cause"`
	Fitness    float64               `json:"fitness"`
}

// HallOfFame keeps the fittest dead cells of a run, best first.
type HallOfFame struct {
	entries []HallEntry
	maxSize int
}

// NewHallOfFame creates a hall holding at most maxSize entries.
func NewHallOfFame(maxSize int) *HallOfFame {
	return &HallOfFame{
		entries: make([]HallEntry, 0, maxSize),
		maxSize: maxSize,
	}
}

// Consider evaluates a dead cell for entry. Only cells that reproduced qualify.
// Returns true if the cell was added.
func (hof *HallOfFame) Consider(id uint64, stats *LifetimeStats) bool {
	if hof.maxSize <= 0 || stats == nil || stats.Children < 1 {
		return false
	}

	entry := HallEntry{
		CellID:     id,
		Generation: stats.Generation,
		Resistance: stats.Resistance,
		Children:   stats.Children,
		Lifespan:   stats.Lifespan,
		Cause:      stats.Cause,
		Fitness:    float64(stats.Children)*ChildrenWeight + float64(stats.Lifespan)*SurvivalWeight,
	}

	if len(hof.entries) == hof.maxSize && entry.Fitness <= hof.entries[len(hof.entries)-1].Fitness {
		return false
	}

	// Insert keeping fitness descending; earlier cells win ties.
	i := sort.Search(len(hof.entries), func(i int) bool {
		return hof.entries[i].Fitness < entry.Fitness
	})
	hof.entries = append(hof.entries, HallEntry{})
	copy(hof.entries[i+1:], hof.entries[i:])
	hof.entries[i] = entry
	if len(hof.entries) > hof.maxSize {
		hof.entries = hof.entries[:hof.maxSize]
	}
	return true
}

// Entries returns a copy of the hall, best first.
func (hof *HallOfFame) Entries() []HallEntry {
	out := make([]HallEntry, len(hof.entries))
	copy(out, hof.entries)
	return out
}

// Size returns the number of entries.
func (hof *HallOfFame) Size() int {
	return len(hof.entries)
}
