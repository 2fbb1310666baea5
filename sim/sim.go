// Package sim drives a run: it owns the grid, the population and the random
// source, advances the engine one tick at a time and feeds telemetry and an
// optional renderer.
package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/pthm-cable/petri/components"
	"github.com/pthm-cable/petri/config"
	"github.com/pthm-cable/petri/grid"
	"github.com/pthm-cable/petri/population"
	"github.com/pthm-cable/petri/renderer"
	"github.com/pthm-cable/petri/scripting"
	"github.com/pthm-cable/petri/systems"
	"github.com/pthm-cable/petri/telemetry"
)

// Stop reasons reported in telemetry.Report.StopReason.
const (
	StopExtinct  = "extinct"
	StopMaxTicks = "max-ticks"
	StopCanceled = "canceled"
	StopClosed   = "closed"
)

// DefaultHallOfFameSize is used when Options.HallOfFameSize is zero.
const DefaultHallOfFameSize = 10

// Options holds run settings that are not part of the simulation config.
type Options struct {
	Seed           int64  // overrides run.seed when nonzero
	OutputDir      string // CSV, report and snapshot output; empty disables
	LogStats       bool   // log every telemetry window and bookmark
	Verify         bool   // check grid/population consistency after every tick
	HallOfFameSize int
	Logger         *slog.Logger
}

// Simulation is one run. It is not safe for concurrent use.
type Simulation struct {
	cfg  *config.Config
	log  *slog.Logger
	seed int64
	rng  *rand.Rand

	layout   *grid.Layout
	grid     *grid.Grid
	pop      *population.Population
	engine   *systems.Engine
	rule     *scripting.Rule
	resRange [2]float64

	acc       *telemetry.Accumulator
	collector *telemetry.Collector
	bookmarks *telemetry.BookmarkDetector
	perf      *telemetry.PerfCollector
	output    *telemetry.OutputManager

	logStats bool
	verify   bool

	tick       int
	last       systems.TickResult
	live       []population.CellView
	stopReason string
}

// New builds the grid and the founders from cfg. A nil cfg uses the embedded
// defaults. Layout, space and configuration errors are returned before any
// output is written.
func New(cfg *config.Config, opts Options) (*Simulation, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.ComputeDerived()

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	seed := opts.Seed
	if seed == 0 {
		seed = cfg.Run.Seed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	layout, err := buildLayout(cfg.Layout)
	if err != nil {
		return nil, err
	}
	topo, err := grid.ParseTopology(cfg.Layout.Topology)
	if err != nil {
		return nil, fmt.Errorf("layout topology: %w", err)
	}
	g := grid.New(layout, topo)

	pop := population.New()
	for i, sc := range cfg.Population.Seeds {
		pos := components.Position{Row: sc.Row, Col: sc.Col}
		if !g.InBounds(pos) {
			return nil, &config.InvalidConfigurationError{
				Field:  fmt.Sprintf("population.seeds[%d]", i),
				Value:  pos.String(),
				Reason: fmt.Sprintf("outside the %dx%d grid", g.Rows(), g.Cols()),
			}
		}
		res := population.DrawResistance(rng, cfg.Resistance)
		if sc.Resistance != nil {
			res = population.Clamp(*sc.Resistance, cfg.Resistance.Min, cfg.Resistance.Max)
		}
		if _, err := pop.Seed(g, pos, res); err != nil {
			return nil, fmt.Errorf("seeding founder at %v: %w", pos, err)
		}
	}
	if err := pop.Initialize(g, cfg.Population.Initial, rng, cfg.Resistance); err != nil {
		return nil, fmt.Errorf("initializing population: %w", err)
	}

	s := &Simulation{
		cfg:      cfg,
		log:      log,
		seed:     seed,
		rng:      rng,
		layout:   layout,
		grid:     g,
		pop:      pop,
		resRange: [2]float64{cfg.Resistance.Min, cfg.Resistance.Max},
		logStats: opts.LogStats,
		verify:   opts.Verify,
	}

	// A nil *Rule must not end up inside the interface.
	var rule systems.DeathRule
	if cfg.Rules.Script != "" {
		s.rule, err = scripting.LoadRule(cfg.Rules.Script, rng, log)
		if err != nil {
			return nil, err
		}
		rule = s.rule
	}
	s.engine = systems.NewEngine(systems.EngineConfigFrom(cfg), rule)

	hall := opts.HallOfFameSize
	if hall == 0 {
		hall = DefaultHallOfFameSize
	}
	s.live = pop.View()
	founders := make([]components.Cell, len(s.live))
	for i, v := range s.live {
		founders[i] = v.Cell
	}
	s.acc = telemetry.NewAccumulator(hall)
	s.acc.RecordFounders(founders)

	s.collector = telemetry.NewCollector(cfg.Telemetry.StatsWindow)
	s.bookmarks = telemetry.NewBookmarkDetector(cfg.Telemetry.BookmarkHistorySize, telemetry.BookmarkThresholds{
		CrashDropPercent:   cfg.Bookmarks.CrashDropPercent,
		CrashMinDrop:       cfg.Bookmarks.CrashMinDrop,
		SweepThreshold:     cfg.Bookmarks.SweepThreshold,
		SaturationFraction: cfg.Bookmarks.SaturationFraction,
	}, cfg.Resistance.Min, cfg.Resistance.Max)
	s.perf = telemetry.NewPerfCollector(cfg.Telemetry.StatsWindow)

	s.output, err = telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		s.Close()
		return nil, err
	}
	if err := s.output.WriteConfig(cfg); err != nil {
		log.Error("failed to write config", "error", err)
	}

	log.Info("run started",
		"seed", seed,
		"rows", g.Rows(),
		"cols", g.Cols(),
		"topology", topo.String(),
		"habitable", g.HabitableCount(),
		"founders", len(founders),
		"max_ticks", cfg.Run.MaxTicks,
	)
	return s, nil
}

func buildLayout(lc config.LayoutConfig) (*grid.Layout, error) {
	if lc.Path != "" {
		l, err := grid.LoadLayout(lc.Path)
		if err != nil {
			return nil, fmt.Errorf("loading layout: %w", err)
		}
		return l, nil
	}
	gc := lc.Generate
	return grid.Generate(grid.GenerateParams{
		Rows:              gc.Rows,
		Cols:              gc.Cols,
		Seed:              gc.Seed,
		Scale:             gc.Scale,
		Octaves:           gc.Octaves,
		ObstacleThreshold: gc.ObstacleThreshold,
		ToxicityScale:     gc.ToxicityScale,
	}), nil
}

// Step advances one tick without rendering.
func (s *Simulation) Step() systems.TickResult {
	res, _ := s.advance(nil)
	return res
}

// advance runs one full tick: life cycle, statistics, telemetry and, when r
// is non-nil, one frame. The renderer error is returned untouched.
func (s *Simulation) advance(r renderer.Renderer) (systems.TickResult, error) {
	s.tick++
	s.perf.StartTick()

	s.perf.StartPhase(telemetry.PhaseLifecycle)
	res := s.engine.Tick(s.tick, s.grid, s.pop, s.rng)

	if s.verify {
		s.perf.StartPhase(telemetry.PhaseVerify)
		s.pop.Verify(s.grid)
	}

	s.perf.StartPhase(telemetry.PhaseStatistics)
	s.live = s.pop.View()
	s.last = res
	s.acc.Observe(res, s.live)
	s.collector.RecordTick(res)

	s.perf.StartPhase(telemetry.PhaseTelemetry)
	if s.collector.ShouldFlush(s.tick) || res.Population == 0 {
		s.flushTelemetry()
	}
	s.log.Debug("tick",
		"tick", s.tick,
		"births", len(res.Births),
		"deaths", len(res.Deaths),
		"population", res.Population,
	)

	var err error
	if r != nil {
		s.perf.StartPhase(telemetry.PhaseRender)
		err = r.Render(renderer.NewFrame(s.grid, s.live, res, s.acc.TotalCreated(), s.resRange[0], s.resRange[1]))
		s.perf.RecordFrame()
	}
	s.perf.EndTick()
	return res, err
}

// flushTelemetry closes the current stats window, writes it out and checks
// it for bookmarks.
func (s *Simulation) flushTelemetry() {
	stats := s.collector.Flush(s.tick, s.live, s.grid.HabitableCount())
	perfStats := s.perf.Stats()

	if s.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}
	if err := s.output.WriteTelemetry(stats); err != nil {
		s.log.Error("failed to write telemetry", "error", err)
	}
	if err := s.output.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		s.log.Error("failed to write perf", "error", err)
	}

	for _, bm := range s.bookmarks.Check(stats) {
		if s.logStats {
			bm.LogBookmark()
		}
		if err := s.output.WriteBookmark(bm); err != nil {
			s.log.Error("failed to write bookmark", "error", err)
		}
		s.saveSnapshot(&bm)
	}
}

// saveSnapshot writes the current grid and population next to the output.
func (s *Simulation) saveSnapshot(bm *telemetry.Bookmark) {
	dir := s.output.SnapshotDir()
	if dir == "" {
		return
	}
	snap, err := telemetry.NewSnapshot(s.seed, s.tick, s.layout, s.grid.Topology(), s.live)
	if err != nil {
		s.log.Error("failed to build snapshot", "error", err)
		return
	}
	snap.Bookmark = bm
	path, err := telemetry.SaveSnapshot(snap, dir)
	if err != nil {
		s.log.Error("failed to save snapshot", "error", err)
		return
	}
	s.log.Info("snapshot saved", "path", path, "tick", s.tick)
}

// Run ticks until the population dies out, run.max_ticks is reached, ctx is
// canceled or r reports renderer.ErrClosed. Other renderer errors are logged
// and the run continues. A nil r renders nothing.
func (s *Simulation) Run(ctx context.Context, r renderer.Renderer) telemetry.Report {
	if r == nil {
		r = renderer.Nop{}
	}
	for s.stopReason == "" {
		if reason, done := s.stopCondition(); done {
			s.stopReason = reason
			break
		}
		if ctx.Err() != nil {
			s.stopReason = StopCanceled
			break
		}

		_, err := s.advance(r)
		switch {
		case errors.Is(err, renderer.ErrClosed):
			s.stopReason = StopClosed
		case err != nil:
			s.log.Error("render failed", "tick", s.tick, "error", err)
		}
	}
	return s.finish()
}

// stopCondition checks the conditions evaluated between ticks.
func (s *Simulation) stopCondition() (string, bool) {
	if s.pop.Len() == 0 {
		return StopExtinct, true
	}
	if limit := s.cfg.Run.MaxTicks; limit > 0 && s.tick >= limit {
		return StopMaxTicks, true
	}
	return "", false
}

// finish flushes a partial telemetry window and writes the report.
func (s *Simulation) finish() telemetry.Report {
	if s.collector.Pending(s.tick) {
		s.flushTelemetry()
	}
	report := s.Report()
	if err := s.output.WriteReport(report); err != nil {
		s.log.Error("failed to write report", "error", err)
	}
	s.log.Info("run finished",
		"stop_reason", report.StopReason,
		"ticks", report.Ticks,
		"total_created", report.TotalCreated,
		"final_population", report.FinalPopulation,
		"max_generation", report.MaxGeneration,
	)
	return report
}

// Report returns the statistics so far.
func (s *Simulation) Report() telemetry.Report {
	r := s.acc.Report()
	r.Seed = s.seed
	r.StopReason = s.stopReason
	return r
}

// Close releases the rule script and output files.
func (s *Simulation) Close() error {
	if s.rule != nil {
		s.rule.Close()
		if err := s.rule.Err(); err != nil {
			s.log.Warn("rule script failed during run", "error", err)
		}
	}
	return s.output.Close()
}

// Tick returns the number of completed ticks.
func (s *Simulation) Tick() int { return s.tick }

// Seed returns the seed the random source was created with.
func (s *Simulation) Seed() int64 { return s.seed }

// Grid returns the grid. Callers must not modify it.
func (s *Simulation) Grid() *grid.Grid { return s.grid }

// Live returns a copy of the live cells in ascending id order.
func (s *Simulation) Live() []population.CellView {
	return append([]population.CellView(nil), s.live...)
}

// LastResult returns the events of the most recent tick.
func (s *Simulation) LastResult() systems.TickResult { return s.last }

// Config returns the configuration the run was built from.
func (s *Simulation) Config() *config.Config { return s.cfg }
