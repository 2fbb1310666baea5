// Package renderer draws simulation frames. A renderer only reads the frames
// it is handed and never touches engine state.
package renderer

import (
	"errors"

	"github.com/pthm-cable/petri/grid"
	"github.com/pthm-cable/petri/population"
	"github.com/pthm-cable/petri/systems"
)

// ErrClosed is returned by Render once the user has closed the view.
var ErrClosed = errors.New("renderer: closed")

// Renderer consumes one frame per tick.
type Renderer interface {
	Render(f Frame) error
	Close() error
}

// PatchView is a read-only copy of one patch.
type PatchView struct {
	Habitable bool
	Toxicity  float64
	Occupant  uint64
}

// FrameStats is the per-tick summary shown alongside the grid.
type FrameStats struct {
	Population     int
	Habitable      int
	Births         int
	Deaths         int
	TotalCreated   int
	MaxGeneration  int
	MeanResistance float64
}

// Frame is a copy of grid occupancy and cell attributes after one tick.
type Frame struct {
	Tick       int
	Rows, Cols int
	Toroidal   bool
	Patches    []PatchView // row-major
	Cells      []population.CellView
	Stats      FrameStats

	// Resistance range used to normalize cell colors
	ResistanceMin, ResistanceMax float64
}

// NewFrame copies the state a renderer needs. live must be the population
// after cleanup; res is the tick that produced it.
func NewFrame(g *grid.Grid, live []population.CellView, res systems.TickResult, totalCreated int, resMin, resMax float64) Frame {
	patches := g.Patches()
	f := Frame{
		Tick:          res.Tick,
		Rows:          g.Rows(),
		Cols:          g.Cols(),
		Toroidal:      g.Topology() == grid.Toroidal,
		Patches:       make([]PatchView, len(patches)),
		Cells:         make([]population.CellView, len(live)),
		ResistanceMin: resMin,
		ResistanceMax: resMax,
		Stats: FrameStats{
			Population:   len(live),
			Habitable:    g.HabitableCount(),
			Births:       len(res.Births),
			Deaths:       len(res.Deaths),
			TotalCreated: totalCreated,
		},
	}
	for i, p := range patches {
		f.Patches[i] = PatchView{Habitable: p.Habitable, Toxicity: p.Toxicity, Occupant: p.Occupant}
	}
	copy(f.Cells, live)

	var sum float64
	for _, v := range live {
		sum += v.Cell.Resistance
		f.Stats.MaxGeneration = max(f.Stats.MaxGeneration, v.Cell.Generation)
	}
	if len(live) > 0 {
		f.Stats.MeanResistance = sum / float64(len(live))
	}
	return f
}

// PatchAt returns the patch at row, col.
func (f *Frame) PatchAt(row, col int) PatchView {
	return f.Patches[row*f.Cols+col]
}

// CellAt returns the live cell on the patch at row, col.
func (f *Frame) CellAt(row, col int) (population.CellView, bool) {
	id := f.PatchAt(row, col).Occupant
	if id == 0 {
		return population.CellView{}, false
	}
	// Cells are in ascending id order
	lo, hi := 0, len(f.Cells)
	for lo < hi {
		mid := (lo + hi) / 2
		switch c := f.Cells[mid].Cell.ID; {
		case c == id:
			return f.Cells[mid], true
		case c < id:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return population.CellView{}, false
}

// Occupancy returns the occupied share of habitable patches.
func (s FrameStats) Occupancy() float64 {
	if s.Habitable == 0 {
		return 0
	}
	return float64(s.Population) / float64(s.Habitable)
}

// Nop discards every frame.
type Nop struct{}

// Render implements Renderer.
func (Nop) Render(Frame) error { return nil }

// Close implements Renderer.
func (Nop) Close() error { return nil }
