package telemetry

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/pthm-cable/petri/components"
	"github.com/pthm-cable/petri/grid"
	"github.com/pthm-cable/petri/population"
)

func TestSnapshotSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()

	layout, err := grid.ParseLayout(strings.NewReader("0%9\n.12\n"))
	if err != nil {
		t.Fatalf("ParseLayout failed: %v", err)
	}
	live := []population.CellView{
		{
			Cell: components.Cell{ID: 3, ParentID: 1, Generation: 1, Age: 2, Resistance: 4.5, Divisions: 1, Cooldown: 1, BirthTick: 7},
			Pos:  components.Position{Row: 1, Col: 2},
		},
	}

	snapshot, err := NewSnapshot(42, 9, layout, grid.Toroidal, live)
	if err != nil {
		t.Fatalf("NewSnapshot failed: %v", err)
	}
	snapshot.Bookmark = &Bookmark{
		Type:        BookmarkSaturation,
		Tick:        9,
		Description: "Test bookmark",
	}

	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("Snapshot file not created at %s", path)
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}

	if loaded.Seed != 42 || loaded.Tick != 9 {
		t.Errorf("seed/tick = %d/%d, want 42/9", loaded.Seed, loaded.Tick)
	}
	if loaded.Topology != "toroidal" {
		t.Errorf("Topology = %q, want toroidal", loaded.Topology)
	}
	if !reflect.DeepEqual(loaded.View(), live) {
		t.Errorf("cells mismatch:\n got %+v\nwant %+v", loaded.View(), live)
	}
	if loaded.Bookmark == nil || loaded.Bookmark.Type != BookmarkSaturation {
		t.Errorf("Bookmark not loaded: %+v", loaded.Bookmark)
	}

	back, err := loaded.ParseLayout()
	if err != nil {
		t.Fatalf("ParseLayout on snapshot failed: %v", err)
	}
	if !reflect.DeepEqual(back, layout) {
		t.Errorf("layout mismatch:\n got %+v\nwant %+v", back, layout)
	}
}

func TestSnapshotFilename(t *testing.T) {
	tmpDir := t.TempDir()

	snapshot := &Snapshot{
		Version: SnapshotVersion,
		Tick:    5000,
		Bookmark: &Bookmark{
			Type: BookmarkPopulationCrash,
			Tick: 5000,
		},
	}

	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	expected := filepath.Join(tmpDir, "snapshot_5000_population_crash.json")
	if path != expected {
		t.Errorf("Path mismatch: got %s, want %s", path, expected)
	}

	path, err = SaveSnapshot(&Snapshot{Version: SnapshotVersion, Tick: 3000}, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	expected = filepath.Join(tmpDir, "snapshot_3000.json")
	if path != expected {
		t.Errorf("Path mismatch: got %s, want %s", path, expected)
	}
}

func TestLoadSnapshotRejectsVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.json")
	if err := os.WriteFile(path, []byte(`{"version": 99}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSnapshot(path); err == nil {
		t.Error("expected error for unknown snapshot version")
	}
}
