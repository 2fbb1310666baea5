package renderer

import (
	"strings"
	"testing"

	"github.com/pthm-cable/petri/components"
	"github.com/pthm-cable/petri/grid"
	"github.com/pthm-cable/petri/population"
	"github.com/pthm-cable/petri/systems"
)

func testFrame(t *testing.T) Frame {
	t.Helper()
	l, err := grid.ParseLayout(strings.NewReader("0%9\n000\n"))
	if err != nil {
		t.Fatalf("ParseLayout: %v", err)
	}
	g := grid.New(l, grid.Bounded)
	pop := population.New()
	for _, s := range []struct {
		pos components.Position
		res float64
	}{
		{components.Position{Row: 0, Col: 0}, 0},
		{components.Position{Row: 1, Col: 2}, 9},
		{components.Position{Row: 0, Col: 2}, 3},
	} {
		if _, err := pop.Seed(g, s.pos, s.res); err != nil {
			t.Fatalf("Seed: %v", err)
		}
	}
	res := systems.TickResult{Tick: 4, Births: []systems.Birth{{}}, Population: pop.Len()}
	return NewFrame(g, pop.View(), res, pop.TotalCreated(), 0, 9)
}

func TestNewFrame(t *testing.T) {
	f := testFrame(t)

	if f.Tick != 4 || f.Rows != 2 || f.Cols != 3 {
		t.Errorf("tick/rows/cols = %d/%d/%d", f.Tick, f.Rows, f.Cols)
	}
	if f.PatchAt(0, 1).Habitable {
		t.Error("obstacle copied as habitable")
	}
	if got := f.PatchAt(0, 2).Toxicity; got != 1 {
		t.Errorf("toxicity at (0,2) = %v, want 1", got)
	}
	if f.Stats.Population != 3 || f.Stats.Habitable != 5 || f.Stats.Births != 1 || f.Stats.TotalCreated != 3 {
		t.Errorf("stats = %+v", f.Stats)
	}
	if f.Stats.MeanResistance != 4 {
		t.Errorf("mean resistance = %v, want 4", f.Stats.MeanResistance)
	}
	if got := f.Stats.Occupancy(); got != 0.6 {
		t.Errorf("occupancy = %v, want 0.6", got)
	}
}

func TestFrameCellAt(t *testing.T) {
	f := testFrame(t)

	tests := []struct {
		row, col int
		id       uint64
		ok       bool
	}{
		{0, 0, 1, true},
		{1, 2, 2, true},
		{0, 2, 3, true},
		{1, 0, 0, false},
		{0, 1, 0, false},
	}
	for _, tt := range tests {
		c, ok := f.CellAt(tt.row, tt.col)
		if ok != tt.ok || c.Cell.ID != tt.id {
			t.Errorf("CellAt(%d,%d) = %d, %v; want %d, %v", tt.row, tt.col, c.Cell.ID, ok, tt.id, tt.ok)
		}
	}
}

func TestFrameIsCopy(t *testing.T) {
	l := grid.NewLayout(1, 2)
	g := grid.New(l, grid.Bounded)
	pop := population.New()
	if _, err := pop.Seed(g, components.Position{}, 1); err != nil {
		t.Fatal(err)
	}
	live := pop.View()
	f := NewFrame(g, live, systems.TickResult{}, 1, 0, 9)

	live[0].Cell.Resistance = 8
	g.Vacate(components.Position{}, 1)
	if f.Cells[0].Cell.Resistance != 1 || f.PatchAt(0, 0).Occupant != 1 {
		t.Error("frame aliases simulation state")
	}
}

func TestPalette(t *testing.T) {
	if got := ResistanceColor(0); got != resistanceStops[0] {
		t.Errorf("ResistanceColor(0) = %v", got)
	}
	if got := ResistanceColor(1); got != resistanceStops[2] {
		t.Errorf("ResistanceColor(1) = %v", got)
	}
	if got := ResistanceColor(0.5); got != resistanceStops[1] {
		t.Errorf("ResistanceColor(0.5) = %v", got)
	}
	if got := PatchColor(PatchView{}); got != ObstacleColor {
		t.Errorf("obstacle color = %v", got)
	}
	if got := PatchColor(PatchView{Habitable: true, Toxicity: 1}); got != ToxicColor {
		t.Errorf("max toxicity color = %v", got)
	}

	tests := []struct {
		v, lo, hi, want float64
	}{
		{4.5, 0, 9, 0.5},
		{-1, 0, 9, 0},
		{12, 0, 9, 1},
		{3, 3, 3, 0},
	}
	for _, tt := range tests {
		if got := Normalize(tt.v, tt.lo, tt.hi); got != tt.want {
			t.Errorf("Normalize(%v, %v, %v) = %v, want %v", tt.v, tt.lo, tt.hi, got, tt.want)
		}
	}
}

func TestNop(t *testing.T) {
	var r Renderer = Nop{}
	if err := r.Render(Frame{}); err != nil {
		t.Error(err)
	}
	if err := r.Close(); err != nil {
		t.Error(err)
	}
}
