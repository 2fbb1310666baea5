package sim

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/pthm-cable/petri/components"
	"github.com/pthm-cable/petri/config"
	"github.com/pthm-cable/petri/grid"
	"github.com/pthm-cable/petri/population"
	"github.com/pthm-cable/petri/renderer"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// layoutConfig returns defaults reading the given layout text, with no
// reproduction, no limits and a fixed seed.
func layoutConfig(t *testing.T, layout string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "layout.txt")
	if err := os.WriteFile(path, []byte(layout), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.Layout.Path = path
	cfg.Population.Initial = 1
	cfg.Lifecycle.AgeLimit = 0
	cfg.Lifecycle.DivisionLimit = 0
	cfg.Reproduction.Probability = 0
	cfg.Run.Seed = 7
	cfg.Run.MaxTicks = 20
	return cfg
}

func newSim(t *testing.T, cfg *config.Config, opts Options) *Simulation {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = quiet
	}
	s, err := New(cfg, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAgeLimitRunEndsExtinct(t *testing.T) {
	cfg := layoutConfig(t, "0\n")
	cfg.Lifecycle.AgeLimit = 2
	s := newSim(t, cfg, Options{Verify: true})

	r := s.Run(context.Background(), nil)
	if r.StopReason != StopExtinct {
		t.Errorf("stop reason = %q, want %q", r.StopReason, StopExtinct)
	}
	if r.Ticks != 2 {
		t.Errorf("ticks = %d, want 2", r.Ticks)
	}
	if r.TotalCreated != 1 || r.DeathsByCause[components.CauseAgeLimit] != 1 {
		t.Errorf("created %d, age-limit deaths %d, want 1 and 1", r.TotalCreated, r.DeathsByCause[components.CauseAgeLimit])
	}
	if r.Seed != 7 {
		t.Errorf("seed = %d, want 7", r.Seed)
	}
}

func TestRunStopsAtMaxTicks(t *testing.T) {
	cfg := layoutConfig(t, "000\n")
	cfg.Run.MaxTicks = 5
	s := newSim(t, cfg, Options{})

	r := s.Run(context.Background(), nil)
	if r.StopReason != StopMaxTicks || r.Ticks != 5 || s.Tick() != 5 {
		t.Errorf("stop %q after %d ticks, want %q after 5", r.StopReason, r.Ticks, StopMaxTicks)
	}
	if r.FinalPopulation != 1 {
		t.Errorf("final population = %d, want 1", r.FinalPopulation)
	}
}

func TestRunCanceled(t *testing.T) {
	s := newSim(t, layoutConfig(t, "000\n"), Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := s.Run(ctx, nil)
	if r.StopReason != StopCanceled || r.Ticks != 0 {
		t.Errorf("stop %q after %d ticks, want %q after 0", r.StopReason, r.Ticks, StopCanceled)
	}
}

// scriptedRenderer returns errs[i] for the i-th frame and nil afterwards.
type scriptedRenderer struct {
	errs   []error
	frames []renderer.Frame
}

func (r *scriptedRenderer) Render(f renderer.Frame) error {
	r.frames = append(r.frames, f)
	if i := len(r.frames) - 1; i < len(r.errs) {
		return r.errs[i]
	}
	return nil
}

func (r *scriptedRenderer) Close() error { return nil }

func TestRendererErrors(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name       string
		errs       []error
		wantReason string
		wantTicks  int
	}{
		{"closed stops the run", []error{nil, nil, renderer.ErrClosed}, StopClosed, 3},
		{"wrapped close stops the run", []error{nil, errors.Join(boom, renderer.ErrClosed)}, StopClosed, 2},
		{"other errors are ignored", []error{boom, boom}, StopMaxTicks, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := layoutConfig(t, "000\n")
			cfg.Run.MaxTicks = 6
			s := newSim(t, cfg, Options{})
			rr := &scriptedRenderer{errs: tt.errs}

			r := s.Run(context.Background(), rr)
			if r.StopReason != tt.wantReason || r.Ticks != tt.wantTicks {
				t.Errorf("stop %q after %d ticks, want %q after %d", r.StopReason, r.Ticks, tt.wantReason, tt.wantTicks)
			}
			if len(rr.frames) != tt.wantTicks {
				t.Errorf("rendered %d frames, want %d", len(rr.frames), tt.wantTicks)
			}
			last := rr.frames[len(rr.frames)-1]
			if last.Tick != tt.wantTicks || last.Rows != 1 || last.Cols != 3 {
				t.Errorf("last frame tick %d size %dx%d, want tick %d size 1x3", last.Tick, last.Rows, last.Cols, tt.wantTicks)
			}
		})
	}
}

func TestSameSeedSameRun(t *testing.T) {
	run := func() (string, []population.CellView, int) {
		cfg := config.Default()
		cfg.Run.Seed = 99
		cfg.Run.MaxTicks = 40
		cfg.Population.Initial = 8
		s := newSim(t, cfg, Options{Verify: true})
		r := s.Run(context.Background(), nil)
		return r.StopReason, s.Live(), r.TotalCreated
	}

	reason1, live1, created1 := run()
	reason2, live2, created2 := run()
	if reason1 != reason2 || created1 != created2 {
		t.Fatalf("runs differ: %q/%d vs %q/%d", reason1, created1, reason2, created2)
	}
	if !reflect.DeepEqual(live1, live2) {
		t.Error("live cells differ between runs with the same seed")
	}
}

func TestSameSeedSameReport(t *testing.T) {
	cfg := config.Default()
	cfg.Run.MaxTicks = 30
	a := newSim(t, cfg.Clone(), Options{Seed: 5})
	b := newSim(t, cfg.Clone(), Options{Seed: 5})

	ra := a.Run(context.Background(), nil)
	rb := b.Run(context.Background(), nil)
	if !reflect.DeepEqual(ra, rb) {
		t.Error("reports differ between runs with the same seed")
	}
}

func TestSeedsPlaceFounders(t *testing.T) {
	cfg := layoutConfig(t, "000\n000\n")
	cfg.Population.Initial = 1
	res := 4.0
	cfg.Population.Seeds = []config.SeedConfig{{Row: 1, Col: 2, Resistance: &res}}
	s := newSim(t, cfg, Options{})

	live := s.Live()
	if len(live) != 2 {
		t.Fatalf("live = %d, want 2", len(live))
	}
	first := live[0]
	if first.Cell.ID != 1 || first.Pos != (components.Position{Row: 1, Col: 2}) || first.Cell.Resistance != 4 {
		t.Errorf("first founder = %+v at %v, want id 1 at (1,2) with resistance 4", first.Cell, first.Pos)
	}
	if p, _ := s.Grid().PatchAt(first.Pos); p.Occupant != 1 {
		t.Errorf("patch occupant = %d, want 1", p.Occupant)
	}
}

func TestNewErrors(t *testing.T) {
	t.Run("insufficient space", func(t *testing.T) {
		cfg := layoutConfig(t, "0%\n")
		cfg.Population.Initial = 2
		_, err := New(cfg, Options{Logger: quiet})
		var target *population.InsufficientSpaceError
		if !errors.As(err, &target) {
			t.Fatalf("err = %v, want InsufficientSpaceError", err)
		}
		if target.Requested != 2 || target.Available != 1 {
			t.Errorf("requested %d available %d, want 2 and 1", target.Requested, target.Available)
		}
	})

	t.Run("seed on obstacle", func(t *testing.T) {
		cfg := layoutConfig(t, "0%\n")
		cfg.Population.Initial = 0
		cfg.Population.Seeds = []config.SeedConfig{{Row: 0, Col: 1}}
		_, err := New(cfg, Options{Logger: quiet})
		var target *population.InsufficientSpaceError
		if !errors.As(err, &target) {
			t.Fatalf("err = %v, want InsufficientSpaceError", err)
		}
	})

	t.Run("seed outside grid", func(t *testing.T) {
		cfg := layoutConfig(t, "00\n00\n")
		cfg.Population.Initial = 0
		cfg.Population.Seeds = []config.SeedConfig{{Row: 0, Col: 0}, {Row: 10000, Col: 10000}}
		_, err := New(cfg, Options{Logger: quiet})
		var target *config.InvalidConfigurationError
		if !errors.As(err, &target) {
			t.Fatalf("err = %v, want InvalidConfigurationError", err)
		}
		if target.Field != "population.seeds[1]" {
			t.Errorf("field = %q, want population.seeds[1]", target.Field)
		}
		var space *population.InsufficientSpaceError
		if errors.As(err, &space) {
			t.Errorf("err = %v, should not be InsufficientSpaceError", err)
		}
	})

	t.Run("malformed layout", func(t *testing.T) {
		cfg := layoutConfig(t, "00\n0x\n")
		_, err := New(cfg, Options{Logger: quiet})
		var target *grid.MalformedLayoutError
		if !errors.As(err, &target) {
			t.Fatalf("err = %v, want MalformedLayoutError", err)
		}
	})

	t.Run("invalid configuration", func(t *testing.T) {
		cfg := layoutConfig(t, "00\n")
		cfg.Reproduction.Probability = 1.5
		_, err := New(cfg, Options{Logger: quiet})
		var target *config.InvalidConfigurationError
		if !errors.As(err, &target) {
			t.Fatalf("err = %v, want InvalidConfigurationError", err)
		}
		if target.Field != "reproduction.probability" {
			t.Errorf("field = %q, want reproduction.probability", target.Field)
		}
	})
}

func TestOutputDir(t *testing.T) {
	dir := t.TempDir()
	cfg := layoutConfig(t, "0\n")
	cfg.Lifecycle.AgeLimit = 3
	cfg.Telemetry.StatsWindow = 2
	s := newSim(t, cfg, Options{OutputDir: dir})

	r := s.Run(context.Background(), nil)
	if r.StopReason != StopExtinct {
		t.Fatalf("stop reason = %q, want %q", r.StopReason, StopExtinct)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"config.yaml", "telemetry.csv", "perf.csv", "bookmarks.csv", "report.json", "generations.csv", "series.csv"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}

	snaps, err := filepath.Glob(filepath.Join(dir, "snapshots", "snapshot_*_extinction.json"))
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 1 {
		t.Errorf("extinction snapshots = %v, want one", snaps)
	}
}

func TestRuleScriptKillsWithOtherCause(t *testing.T) {
	script := filepath.Join(t.TempDir(), "rule.lua")
	src := "function death_rule(cell, patch, tick)\n  return tick >= 3\nend\n"
	if err := os.WriteFile(script, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := layoutConfig(t, "00\n")
	cfg.Population.Initial = 2
	cfg.Rules.Script = script
	s := newSim(t, cfg, Options{})

	r := s.Run(context.Background(), nil)
	if r.StopReason != StopExtinct || r.Ticks != 3 {
		t.Errorf("stop %q after %d ticks, want %q after 3", r.StopReason, r.Ticks, StopExtinct)
	}
	if r.DeathsByCause[components.CauseOther] != 2 {
		t.Errorf("other deaths = %d, want 2", r.DeathsByCause[components.CauseOther])
	}
}

func TestStepAdvancesOneTick(t *testing.T) {
	cfg := layoutConfig(t, "00\n")
	cfg.Reproduction.Probability = 1
	cfg.Reproduction.Cooldown = 0
	s := newSim(t, cfg, Options{Verify: true})

	res := s.Step()
	if res.Tick != 1 || s.Tick() != 1 {
		t.Fatalf("tick = %d/%d, want 1", res.Tick, s.Tick())
	}
	if len(res.Births) != 1 || res.Population != 2 {
		t.Errorf("births %d population %d, want 1 and 2", len(res.Births), res.Population)
	}
	if got := s.Report().TotalCreated; got != 2 {
		t.Errorf("total created = %d, want 2", got)
	}
	if !reflect.DeepEqual(s.LastResult(), res) {
		t.Error("LastResult differs from the returned result")
	}
}
