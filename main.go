package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/pthm-cable/petri/config"
	"github.com/pthm-cable/petri/grid"
	"github.com/pthm-cable/petri/renderer"
	"github.com/pthm-cable/petri/renderer/window"
	"github.com/pthm-cable/petri/sim"
	"github.com/pthm-cable/petri/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to a YAML or TOML config (empty = use defaults)")
	view := flag.String("view", "headless", "Renderer: headless, terminal or window")
	logStats := flag.Bool("log-stats", false, "Output telemetry windows and bookmarks via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, report and snapshots")
	seed := flag.Int64("seed", 0, "RNG seed (0 = config value, then time-based)")
	maxTicks := flag.Int("max-ticks", -1, "Stop after N ticks (0 = unlimited, -1 = use config)")
	layoutPath := flag.String("layout", "", "Layout file (overrides config)")
	delay := flag.Duration("delay", 100*time.Millisecond, "Delay between ticks in terminal view")
	verify := flag.Bool("verify", false, "Check grid/population consistency after every tick")
	debug := flag.Bool("debug", false, "Log every tick")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *layoutPath != "" {
		cfg.Layout.Path = *layoutPath
	}
	if *maxTicks >= 0 {
		cfg.Run.MaxTicks = *maxTicks
	}

	s, err := sim.New(cfg, sim.Options{
		Seed:      *seed,
		OutputDir: *outputDir,
		LogStats:  *logStats,
		Verify:    *verify,
		Logger:    logger,
	})
	if err != nil {
		slog.Error("failed to create simulation", "error", err)
		os.Exit(1)
	}

	var r renderer.Renderer
	switch *view {
	case "headless":
		r = renderer.Nop{}
	case "terminal":
		r, err = renderer.NewTerminal(*delay)
	case "window":
		g := s.Grid()
		r = window.New(g.Rows(), g.Cols(), g.Topology() == grid.Toroidal, cfg.Screen.PatchSize, cfg.Screen.TargetFPS)
	default:
		slog.Error("unknown view", "view", *view)
		s.Close()
		os.Exit(1)
	}
	if err != nil {
		slog.Error("failed to open renderer", "view", *view, "error", err)
		s.Close()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	report := s.Run(ctx, r)
	stop()

	// The terminal must be released before the report is printed.
	if err := r.Close(); err != nil {
		slog.Error("failed to close renderer", "error", err)
	}
	if err := s.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}

	if err := telemetry.PrintReport(os.Stderr, report); err != nil {
		slog.Error("failed to print report", "error", err)
		os.Exit(1)
	}
}
