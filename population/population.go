// Package population stores the live cells in an ECS world and keeps them in
// step with grid occupancy.
package population

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/petri/components"
	"github.com/pthm-cable/petri/config"
	"github.com/pthm-cable/petri/grid"
)

// InsufficientSpaceError reports that founders could not be placed.
type InsufficientSpaceError struct {
	Requested int
	Available int
}

func (e *InsufficientSpaceError) Error() string {
	return fmt.Sprintf("insufficient space: requested %d cells, %d empty habitable patches", e.Requested, e.Available)
}

// CellView is a read-only copy of one live cell.
type CellView struct {
	Cell components.Cell
	Pos  components.Position
}

// Removed is a cell taken out of the world by Cleanup.
type Removed struct {
	Cell components.Cell
	Pos  components.Position
}

// Population owns the live cells. The entity slice is kept in ascending id
// order: founders are created in id order and children are always appended.
type Population struct {
	world  *ecs.World
	mapper *ecs.Map2[components.Cell, components.Position]
	cells  *ecs.Map1[components.Cell]
	filter *ecs.Filter2[components.Cell, components.Position]

	entities    []ecs.Entity
	byID        map[uint64]ecs.Entity
	nextID      uint64
	generations []int // cells ever created, indexed by generation
}

// New creates an empty population. The first cell gets id 1.
func New() *Population {
	world := ecs.NewWorld()
	return &Population{
		world:  world,
		mapper: ecs.NewMap2[components.Cell, components.Position](world),
		cells:  ecs.NewMap1[components.Cell](world),
		filter: ecs.NewFilter2[components.Cell, components.Position](world),
		byID:   make(map[uint64]ecs.Entity),
		nextID: 1,
	}
}

// Initialize places n founders on distinct empty habitable patches chosen
// uniformly at random. Nothing is created when there is not enough room.
func (p *Population) Initialize(g *grid.Grid, n int, rng *rand.Rand, rc config.ResistanceConfig) error {
	if n <= 0 {
		return nil
	}
	empty := g.EmptyPatches()
	if n > len(empty) {
		return &InsufficientSpaceError{Requested: n, Available: len(empty)}
	}

	// Partial Fisher-Yates: the first n slots end up a uniform sample.
	for i := 0; i < n; i++ {
		j := i + rng.Intn(len(empty)-i)
		empty[i], empty[j] = empty[j], empty[i]

		res := DrawResistance(rng, rc)
		p.spawn(g, empty[i].Pos, components.Cell{Resistance: res})
	}
	return nil
}

// Seed places one founder at pos with the given resistance.
func (p *Population) Seed(g *grid.Grid, pos components.Position, resistance float64) (ecs.Entity, error) {
	patch, ok := g.PatchAt(pos)
	if !ok || !patch.Empty() {
		return ecs.Entity{}, &InsufficientSpaceError{Requested: 1, Available: 0}
	}
	return p.spawn(g, pos, components.Cell{Resistance: resistance}), nil
}

// SpawnChild creates an offspring of parent at pos. The returned copy is the
// child's state at birth.
// Creating an entity may move component storage, so pointers obtained from Get
// before the call must be fetched again afterwards.
func (p *Population) SpawnChild(g *grid.Grid, parent components.Cell, pos components.Position, resistance float64, tick, cooldown int) components.Cell {
	child := components.Cell{
		ParentID:   parent.ID,
		Generation: parent.Generation + 1,
		Resistance: resistance,
		Cooldown:   cooldown,
		BirthTick:  tick,
	}
	e := p.spawn(g, pos, child)
	return *p.cells.Get(e)
}

// spawn is the only place cells come into existence: it assigns the id and
// updates the grid and the world together.
func (p *Population) spawn(g *grid.Grid, pos components.Position, cell components.Cell) ecs.Entity {
	cell.ID = p.nextID
	p.nextID++
	cell.Age = 0
	cell.Divisions = 0
	cell.Cause = components.CauseNone

	g.Place(pos, cell.ID)
	e := p.mapper.NewEntity(&cell, &pos)
	p.entities = append(p.entities, e)
	p.byID[cell.ID] = e

	for len(p.generations) <= cell.Generation {
		p.generations = append(p.generations, 0)
	}
	p.generations[cell.Generation]++
	return e
}

// DrawResistance samples a founder resistance from the configured distribution.
func DrawResistance(rng *rand.Rand, rc config.ResistanceConfig) float64 {
	switch rc.Distribution {
	case config.DistributionNormal:
		mid := (rc.Min + rc.Max) / 2
		return Clamp(mid+rng.NormFloat64()*rc.Sigma, rc.Min, rc.Max)
	default:
		return rc.Min + rng.Float64()*(rc.Max-rc.Min)
	}
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Len returns the number of live cells.
func (p *Population) Len() int { return len(p.entities) }

// Entities returns a snapshot of live entities in ascending id order.
func (p *Population) Entities() []ecs.Entity {
	out := make([]ecs.Entity, len(p.entities))
	copy(out, p.entities)
	return out
}

// Get returns the components of a live entity.
func (p *Population) Get(e ecs.Entity) (*components.Cell, *components.Position) {
	return p.mapper.Get(e)
}

// Lookup finds the entity of a live cell by id.
func (p *Population) Lookup(id uint64) (ecs.Entity, bool) {
	e, ok := p.byID[id]
	return e, ok
}

// NextID returns the id the next cell will get.
func (p *Population) NextID() uint64 { return p.nextID }

// TotalCreated returns the number of cells ever created.
func (p *Population) TotalCreated() int { return int(p.nextID - 1) }

// GenerationCounts returns cells ever created per generation.
func (p *Population) GenerationCounts() []int {
	out := make([]int, len(p.generations))
	copy(out, p.generations)
	return out
}

// View returns copies of all live cells in ascending id order.
func (p *Population) View() []CellView {
	out := make([]CellView, 0, len(p.entities))
	for _, e := range p.entities {
		cell, pos := p.mapper.Get(e)
		out = append(out, CellView{Cell: *cell, Pos: *pos})
	}
	return out
}

// Cleanup removes every cell marked dead from the world and the grid and
// returns them in ascending id order.
func (p *Population) Cleanup(g *grid.Grid) []Removed {
	// First pass: collect dead cells and compact the live list
	var removed []Removed
	var dead []ecs.Entity
	live := p.entities[:0]
	for _, e := range p.entities {
		cell, pos := p.mapper.Get(e)
		if cell.Alive() {
			live = append(live, e)
			continue
		}
		removed = append(removed, Removed{Cell: *cell, Pos: *pos})
		dead = append(dead, e)
	}
	p.entities = live

	// Second pass: remove entities
	for i, e := range dead {
		r := removed[i]
		g.Vacate(r.Pos, r.Cell.ID)
		delete(p.byID, r.Cell.ID)
		p.world.RemoveEntity(e)
	}
	return removed
}

// Verify panics unless the world and grid occupancy agree exactly.
func (p *Population) Verify(g *grid.Grid) {
	var prev uint64
	seen := 0
	for _, e := range p.entities {
		if !p.world.Alive(e) {
			panic(fmt.Sprintf("population: entity %v in live list is not alive", e))
		}
		cell, pos := p.mapper.Get(e)
		if cell.ID <= prev {
			panic(fmt.Sprintf("population: cell ids out of order: %d after %d", cell.ID, prev))
		}
		prev = cell.ID
		patch, ok := g.PatchAt(*pos)
		if !ok || !patch.Habitable || patch.Occupant != cell.ID {
			panic(fmt.Sprintf("population: cell %d at %v not recorded on its patch", cell.ID, *pos))
		}
		seen++
	}

	// Every entity in the world must be in the live list.
	count := 0
	query := p.filter.Query()
	for query.Next() {
		count++
	}
	if count != seen {
		panic(fmt.Sprintf("population: world holds %d cells, live list %d", count, seen))
	}
	if occ := g.OccupiedCount(); occ != seen {
		panic(fmt.Sprintf("population: grid has %d occupied patches, population %d", occ, seen))
	}
}
