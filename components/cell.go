package components

// Cell holds the life-cycle state of one organism.
// The owning patch is tracked by the Position component on the same entity.
type Cell struct {
	ID         uint64
	ParentID   uint64 // 0 for founders
	Generation int
	Age        int // ticks survived
	Resistance float64
	Divisions  int
	Cooldown   int // ticks until reproduction is allowed again
	BirthTick  int
	Cause      DeathCause
}

// Alive reports whether the cell has not been marked dead.
func (c *Cell) Alive() bool {
	return c.Cause == CauseNone
}

// Kill marks the cell dead with the given cause.
// The first cause wins; later calls are ignored.
func (c *Cell) Kill(cause DeathCause) {
	if c.Cause != CauseNone || cause == CauseNone {
		return
	}
	c.Cause = cause
}
