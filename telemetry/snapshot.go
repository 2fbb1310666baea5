package telemetry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pthm-cable/petri/components"
	"github.com/pthm-cable/petri/grid"
	"github.com/pthm-cable/petri/population"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the grid and every live cell at one tick.
type Snapshot struct {
	Version int   `json:"version"`
	Seed    int64 `json:"seed"`

	Rows     int      `json:"rows"`
	Cols     int      `json:"cols"`
	Topology string   `json:"topology"`
	Layout   []string `json:"layout"` // one line per row in layout file syntax

	Tick int `json:"tick"`

	Cells []CellState `json:"cells"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// CellState holds one live cell's complete state.
type CellState struct {
	ID         uint64  `json:"id"`
	ParentID   uint64  `json:"parent_id"`
	Generation int     `json:"generation"`
	Row        int     `json:"row"`
	Col        int     `json:"col"`
	Age        int     `json:"age"`
	Resistance float64 `json:"resistance"`
	Divisions  int     `json:"divisions"`
	Cooldown   int     `json:"cooldown"`
	BirthTick  int     `json:"birth_tick"`
}

// NewSnapshot captures the layout and the live cells.
func NewSnapshot(seed int64, tick int, l *grid.Layout, topo grid.Topology, live []population.CellView) (*Snapshot, error) {
	var buf bytes.Buffer
	if _, err := l.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode layout: %w", err)
	}

	s := &Snapshot{
		Version:  SnapshotVersion,
		Seed:     seed,
		Rows:     l.Rows,
		Cols:     l.Cols,
		Topology: topo.String(),
		Layout:   strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n"),
		Tick:     tick,
		Cells:    make([]CellState, len(live)),
	}
	for i, v := range live {
		s.Cells[i] = CellState{
			ID:         v.Cell.ID,
			ParentID:   v.Cell.ParentID,
			Generation: v.Cell.Generation,
			Row:        v.Pos.Row,
			Col:        v.Pos.Col,
			Age:        v.Cell.Age,
			Resistance: v.Cell.Resistance,
			Divisions:  v.Cell.Divisions,
			Cooldown:   v.Cell.Cooldown,
			BirthTick:  v.Cell.BirthTick,
		}
	}
	return s, nil
}

// ParseLayout rebuilds the captured layout.
func (s *Snapshot) ParseLayout() (*grid.Layout, error) {
	return grid.ParseLayout(strings.NewReader(strings.Join(s.Layout, "\n")))
}

// View returns the captured cells as live cell copies.
func (s *Snapshot) View() []population.CellView {
	out := make([]population.CellView, len(s.Cells))
	for i, c := range s.Cells {
		out[i] = population.CellView{
			Cell: components.Cell{
				ID:         c.ID,
				ParentID:   c.ParentID,
				Generation: c.Generation,
				Age:        c.Age,
				Resistance: c.Resistance,
				Divisions:  c.Divisions,
				Cooldown:   c.Cooldown,
				BirthTick:  c.BirthTick,
			},
			Pos: components.Position{Row: c.Row, Col: c.Col},
		}
	}
	return out
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	// Build filename
	name := fmt.Sprintf("snapshot_%d", snapshot.Tick)
	if snapshot.Bookmark != nil {
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Tick, sanitized)
	}
	name += ".json"

	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", snapshot.Version)
	}

	return &snapshot, nil
}
