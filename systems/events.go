package systems

import "github.com/pthm-cable/petri/components"

// Birth records a child created during a tick.
type Birth struct {
	Child components.Cell
	Pos   components.Position
	Tick  int
}

// Death records a cell removed at the end of a tick.
type Death struct {
	Cell  components.Cell
	Pos   components.Position
	Cause components.DeathCause
	Tick  int
}

// TickResult is everything one tick changed.
type TickResult struct {
	Tick       int
	Births     []Birth
	Deaths     []Death
	Population int // live cells after cleanup

	Attempts int // reproduction draws made
	Blocked  int // reproduction skipped for lack of an empty neighbor
}

// DeathsByCause counts the tick's deaths per cause.
func (r *TickResult) DeathsByCause() map[components.DeathCause]int {
	out := make(map[components.DeathCause]int, len(r.Deaths))
	for _, d := range r.Deaths {
		out[d.Cause]++
	}
	return out
}
