package telemetry

import "github.com/pthm-cable/petri/components"

// LifetimeStats tracks per-cell statistics over its lifetime.
type LifetimeStats struct {
	BirthTick  int
	Generation int
	Resistance float64

	Children int

	// Set on death
	Lifespan int
	Cause    components.DeathCause
}

// LifetimeTracker manages per-cell lifetime statistics for live cells.
type LifetimeTracker struct {
	stats map[uint64]*LifetimeStats
}

// NewLifetimeTracker creates a new lifetime tracker.
func NewLifetimeTracker() *LifetimeTracker {
	return &LifetimeTracker{
		stats: make(map[uint64]*LifetimeStats),
	}
}

// Register creates lifetime stats for a new cell.
func (lt *LifetimeTracker) Register(cell components.Cell) {
	lt.stats[cell.ID] = &LifetimeStats{
		BirthTick:  cell.BirthTick,
		Generation: cell.Generation,
		Resistance: cell.Resistance,
	}
}

// Get returns the lifetime stats for a cell, or nil if not found.
func (lt *LifetimeTracker) Get(id uint64) *LifetimeStats {
	return lt.stats[id]
}

// RecordChild increments children count.
func (lt *LifetimeTracker) RecordChild(parentID uint64) {
	if s := lt.stats[parentID]; s != nil {
		s.Children++
	}
}

// Finish removes a dead cell's stats and returns them with lifespan and
// cause filled in. It returns nil for an unknown id.
func (lt *LifetimeTracker) Finish(cell components.Cell) *LifetimeStats {
	s := lt.stats[cell.ID]
	if s == nil {
		return nil
	}
	delete(lt.stats, cell.ID)
	s.Lifespan = cell.Age
	s.Cause = cell.Cause
	return s
}

// Count returns the number of tracked cells.
func (lt *LifetimeTracker) Count() int {
	return len(lt.stats)
}
