// Package grid provides the patch grid cells live on.
package grid

import (
	"fmt"

	"github.com/pthm-cable/petri/components"
)

// Topology controls how neighborhoods treat the grid edges.
type Topology uint8

const (
	Bounded  Topology = iota // edges are walls
	Toroidal                 // edges wrap around
)

// ParseTopology maps a config name to a Topology.
func ParseTopology(name string) (Topology, error) {
	switch name {
	case "", "bounded":
		return Bounded, nil
	case "toroidal":
		return Toroidal, nil
	}
	return Bounded, fmt.Errorf("unknown topology %q", name)
}

func (t Topology) String() string {
	if t == Toroidal {
		return "toroidal"
	}
	return "bounded"
}

// mooreOffsets is the fixed neighbor scan order, row-major around the center.
var mooreOffsets = [8][2]int{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

// Patch is one grid location.
type Patch struct {
	Pos       components.Position
	Habitable bool
	Toxicity  float64 // 0..1, layout digit / 9
	Occupant  uint64  // live cell id, 0 when empty
}

// Empty reports whether a cell may be placed on the patch.
func (p *Patch) Empty() bool {
	return p.Habitable && p.Occupant == 0
}

// Grid is a fixed rows x cols array of patches.
// Its shape never changes; only patch occupancy does.
type Grid struct {
	rows, cols int
	topology   Topology
	patches    []Patch
	neighbors  [][]int32 // habitable neighbor indices per patch, scan order
	habitable  int
	occupied   int
}

// New builds a grid from a layout.
func New(l *Layout, topo Topology) *Grid {
	g := &Grid{
		rows:     l.Rows,
		cols:     l.Cols,
		topology: topo,
		patches:  make([]Patch, l.Rows*l.Cols),
	}
	for row := 0; row < l.Rows; row++ {
		for col := 0; col < l.Cols; col++ {
			idx := row*l.Cols + col
			p := &g.patches[idx]
			p.Pos = components.Position{Row: row, Col: col}
			p.Habitable = !l.Obstacle[idx]
			if p.Habitable {
				p.Toxicity = float64(l.Toxicity[idx]) / MaxToxicityLevel
				g.habitable++
			}
		}
	}

	g.neighbors = make([][]int32, len(g.patches))
	for idx := range g.patches {
		g.neighbors[idx] = g.computeNeighbors(g.patches[idx].Pos)
	}
	return g
}

func (g *Grid) computeNeighbors(pos components.Position) []int32 {
	self := g.index(pos)
	out := make([]int32, 0, 8)
	for _, off := range mooreOffsets {
		q := pos.Offset(off[0], off[1])
		if g.topology == Toroidal {
			q.Row = mod(q.Row, g.rows)
			q.Col = mod(q.Col, g.cols)
		} else if !g.InBounds(q) {
			continue
		}
		idx := int32(g.index(q))
		if int(idx) == self || !g.patches[idx].Habitable || containsIndex(out, idx) {
			continue
		}
		out = append(out, idx)
	}
	return out
}

func containsIndex(s []int32, v int32) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

func (g *Grid) index(pos components.Position) int {
	return pos.Row*g.cols + pos.Col
}

// Rows returns the number of rows.
func (g *Grid) Rows() int { return g.rows }

// Cols returns the number of columns.
func (g *Grid) Cols() int { return g.cols }

// Topology returns the edge behavior.
func (g *Grid) Topology() Topology { return g.topology }

// HabitableCount returns the number of non-obstacle patches.
func (g *Grid) HabitableCount() int { return g.habitable }

// OccupiedCount returns the number of patches holding a cell.
func (g *Grid) OccupiedCount() int { return g.occupied }

// InBounds reports whether pos lies on the grid.
func (g *Grid) InBounds(pos components.Position) bool {
	return pos.Row >= 0 && pos.Row < g.rows && pos.Col >= 0 && pos.Col < g.cols
}

// PatchAt returns the patch at pos, or false if pos is out of bounds.
func (g *Grid) PatchAt(pos components.Position) (*Patch, bool) {
	if !g.InBounds(pos) {
		return nil, false
	}
	return &g.patches[g.index(pos)], true
}

// NeighborsOf returns the habitable Moore neighbors of pos in scan order.
func (g *Grid) NeighborsOf(pos components.Position) []*Patch {
	if !g.InBounds(pos) {
		return nil
	}
	idxs := g.neighbors[g.index(pos)]
	out := make([]*Patch, len(idxs))
	for i, idx := range idxs {
		out[i] = &g.patches[idx]
	}
	return out
}

// EmptyNeighborsInto appends the unoccupied habitable neighbors of pos to dst
// in scan order and returns the extended slice.
func (g *Grid) EmptyNeighborsInto(dst []*Patch, pos components.Position) []*Patch {
	if !g.InBounds(pos) {
		return dst
	}
	for _, idx := range g.neighbors[g.index(pos)] {
		if p := &g.patches[idx]; p.Occupant == 0 {
			dst = append(dst, p)
		}
	}
	return dst
}

// EmptyNeighborsOf returns the unoccupied habitable neighbors of pos in scan order.
func (g *Grid) EmptyNeighborsOf(pos components.Position) []*Patch {
	return g.EmptyNeighborsInto(nil, pos)
}

// Habitable returns every habitable patch in row-major order.
func (g *Grid) Habitable() []*Patch {
	out := make([]*Patch, 0, g.habitable)
	for i := range g.patches {
		if g.patches[i].Habitable {
			out = append(out, &g.patches[i])
		}
	}
	return out
}

// EmptyPatches returns every unoccupied habitable patch in row-major order.
func (g *Grid) EmptyPatches() []*Patch {
	out := make([]*Patch, 0, g.habitable-g.occupied)
	for i := range g.patches {
		if g.patches[i].Empty() {
			out = append(out, &g.patches[i])
		}
	}
	return out
}

// Patches returns a copy of every patch in row-major order.
func (g *Grid) Patches() []Patch {
	out := make([]Patch, len(g.patches))
	copy(out, g.patches)
	return out
}

// Place records cell id on the patch at pos.
// Placing on an obstacle, an occupied patch or off the grid is a programming error.
func (g *Grid) Place(pos components.Position, id uint64) {
	p, ok := g.PatchAt(pos)
	switch {
	case !ok:
		panic(fmt.Sprintf("grid: place cell %d out of bounds at %v", id, pos))
	case !p.Habitable:
		panic(fmt.Sprintf("grid: place cell %d on obstacle %v", id, pos))
	case p.Occupant != 0:
		panic(fmt.Sprintf("grid: place cell %d on patch %v occupied by %d", id, pos, p.Occupant))
	case id == 0:
		panic(fmt.Sprintf("grid: place zero cell id at %v", pos))
	}
	p.Occupant = id
	g.occupied++
}

// Vacate clears cell id from the patch at pos.
func (g *Grid) Vacate(pos components.Position, id uint64) {
	p, ok := g.PatchAt(pos)
	if !ok || p.Occupant != id {
		panic(fmt.Sprintf("grid: vacate cell %d from %v which does not hold it", id, pos))
	}
	p.Occupant = 0
	g.occupied--
}
