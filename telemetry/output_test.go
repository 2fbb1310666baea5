package telemetry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/petri/components"
	"github.com/pthm-cable/petri/config"
)

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("NewOutputManager(\"\") = %v, %v; want nil, nil", om, err)
	}
	// Nil manager accepts every call
	if err := om.WriteTelemetry(WindowStats{}); err != nil {
		t.Error(err)
	}
	if err := om.WriteReport(Report{}); err != nil {
		t.Error(err)
	}
	if om.Dir() != "" || om.SnapshotDir() != "" {
		t.Error("nil manager reports a directory")
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
}

func TestOutputManagerCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager failed: %v", err)
	}

	for tick := 10; tick <= 30; tick += 10 {
		if err := om.WriteTelemetry(WindowStats{WindowEndTick: tick, Population: tick}); err != nil {
			t.Fatalf("WriteTelemetry: %v", err)
		}
	}
	if err := om.WriteBookmark(Bookmark{Type: BookmarkSaturation, Tick: 20, Description: "full"}); err != nil {
		t.Fatalf("WriteBookmark: %v", err)
	}
	if err := om.WritePerf(PerfStats{}, 30); err != nil {
		t.Fatalf("WritePerf: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	tests := []struct {
		file   string
		lines  int
		header string
	}{
		{"telemetry.csv", 4, "window_end,population,occupancy"},
		{"bookmarks.csv", 2, "type,tick,description"},
		{"perf.csv", 2, "window_end,avg_tick_us"},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			data, err := os.ReadFile(filepath.Join(dir, tt.file))
			if err != nil {
				t.Fatal(err)
			}
			lines := strings.Split(strings.TrimSpace(string(data)), "\n")
			if len(lines) != tt.lines {
				t.Errorf("%d lines, want %d:\n%s", len(lines), tt.lines, data)
			}
			if !strings.HasPrefix(lines[0], tt.header) {
				t.Errorf("header = %q, want prefix %q", lines[0], tt.header)
			}
		})
	}
}

func TestOutputManagerReport(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager failed: %v", err)
	}
	defer om.Close()

	acc := NewAccumulator(5)
	feedTwoTicks(acc)
	r := acc.Report()
	r.Seed = 7
	r.StopReason = "max-ticks"

	if err := om.WriteReport(r); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	if err := om.WriteConfig(config.Default()); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "report.json"))
	if err != nil {
		t.Fatal(err)
	}
	var back Report
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("report.json does not parse: %v", err)
	}
	if back.Seed != 7 || back.TotalCreated != 3 {
		t.Errorf("report.json = seed %d, created %d", back.Seed, back.TotalCreated)
	}
	if back.DeathsByCause[components.CausePoisoned] != 1 {
		t.Errorf("deaths_by_cause = %v", back.DeathsByCause)
	}
	if !strings.Contains(string(data), `"poisoned": 1`) {
		t.Error("death causes not keyed by name")
	}

	for _, name := range []string{"generations.csv", "series.csv", "hall_of_fame.json", "config.yaml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}

	gens, err := os.ReadFile(filepath.Join(dir, "generations.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if got := len(strings.Split(strings.TrimSpace(string(gens)), "\n")); got != 3 {
		t.Errorf("generations.csv has %d lines, want 3", got)
	}
}
