// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Layout       LayoutConfig       `yaml:"layout" toml:"layout"`
	Population   PopulationConfig   `yaml:"population" toml:"population"`
	Lifecycle    LifecycleConfig    `yaml:"lifecycle" toml:"lifecycle"`
	Reproduction ReproductionConfig `yaml:"reproduction" toml:"reproduction"`
	Resistance   ResistanceConfig   `yaml:"resistance" toml:"resistance"`
	Poison       PoisonConfig       `yaml:"poison" toml:"poison"`
	Rules        RulesConfig        `yaml:"rules" toml:"rules"`
	Run          RunConfig          `yaml:"run" toml:"run"`
	Telemetry    TelemetryConfig    `yaml:"telemetry" toml:"telemetry"`
	Bookmarks    BookmarksConfig    `yaml:"bookmarks" toml:"bookmarks"`
	Screen       ScreenConfig       `yaml:"screen" toml:"screen"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-" toml:"-"`
}

// Topology names accepted by LayoutConfig.Topology.
const (
	TopologyBounded  = "bounded"
	TopologyToroidal = "toroidal"
)

// Policy names.
const (
	DivisionPolicyDie     = "die"
	DivisionPolicySterile = "sterile"
	OvercrowdingBlock     = "block"
	OvercrowdingDie       = "die"
	DistributionUniform   = "uniform"
	DistributionNormal    = "normal"
)

// LayoutConfig selects the grid layout.
// An empty Path means a layout is generated from Generate.
type LayoutConfig struct {
	Path     string         `yaml:"path" toml:"path"`
	Topology string         `yaml:"topology" toml:"topology"`
	Generate GenerateConfig `yaml:"generate" toml:"generate"`
}

// GenerateConfig holds procedural layout parameters.
type GenerateConfig struct {
	Rows              int     `yaml:"rows" toml:"rows"`
	Cols              int     `yaml:"cols" toml:"cols"`
	Seed              int64   `yaml:"seed" toml:"seed"`
	Scale             float64 `yaml:"scale" toml:"scale"`                           // Base noise frequency across the grid
	Octaves           int     `yaml:"octaves" toml:"octaves"`                       // FBM octaves
	ObstacleThreshold float64 `yaml:"obstacle_threshold" toml:"obstacle_threshold"` // Noise below this becomes an obstacle
	ToxicityScale     float64 `yaml:"toxicity_scale" toml:"toxicity_scale"`         // Multiplier on toxicity noise before quantizing to 0-9
}

// PopulationConfig holds initial population parameters.
type PopulationConfig struct {
	Initial int          `yaml:"initial" toml:"initial"` // Randomly placed founders
	Seeds   []SeedConfig `yaml:"seeds" toml:"seeds"`     // Explicitly placed founders, placed before random ones
}

// SeedConfig places one founder at a fixed patch.
// A nil Resistance draws from the configured distribution.
type SeedConfig struct {
	Row        int      `yaml:"row" toml:"row"`
	Col        int      `yaml:"col" toml:"col"`
	Resistance *float64 `yaml:"resistance,omitempty" toml:"resistance,omitempty"`
}

// LifecycleConfig holds aging and death policy parameters.
type LifecycleConfig struct {
	AgeLimit           int    `yaml:"age_limit" toml:"age_limit"`                     // 0 disables
	DivisionLimit      int    `yaml:"division_limit" toml:"division_limit"`           // 0 disables
	DivisionPolicy     string `yaml:"division_policy" toml:"division_policy"`         // die | sterile
	OvercrowdingPolicy string `yaml:"overcrowding_policy" toml:"overcrowding_policy"` // block | die
}

// ReproductionConfig holds reproduction parameters.
type ReproductionConfig struct {
	Probability    float64 `yaml:"probability" toml:"probability"`
	Cooldown       int     `yaml:"cooldown" toml:"cooldown"`               // Ticks between reproductions
	ResistanceCost float64 `yaml:"resistance_cost" toml:"resistance_cost"` // Probability scale lost at max resistance
}

// ResistanceConfig holds the resistance trait range and inheritance.
type ResistanceConfig struct {
	Min           float64 `yaml:"min" toml:"min"`
	Max           float64 `yaml:"max" toml:"max"`
	Distribution  string  `yaml:"distribution" toml:"distribution"`     // uniform | normal
	Sigma         float64 `yaml:"sigma" toml:"sigma"`                   // normal distribution spread, in trait units
	MutationRange float64 `yaml:"mutation_range" toml:"mutation_range"` // child = parent + U(-range, +range)
}

// PoisonConfig holds environmental toxin parameters.
type PoisonConfig struct {
	Strength float64 `yaml:"strength" toml:"strength"` // Multiplier on layout toxicity
	Ambient  float64 `yaml:"ambient" toml:"ambient"`   // Added toxicity on every habitable patch
}

// RulesConfig holds optional scripted rules.
type RulesConfig struct {
	Script string `yaml:"script" toml:"script"` // Lua file defining death_rule(cell, patch, tick)
}

// RunConfig holds run-level parameters.
type RunConfig struct {
	MaxTicks int   `yaml:"max_ticks" toml:"max_ticks"`
	Seed     int64 `yaml:"seed" toml:"seed"` // 0 = time-based
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         int `yaml:"stats_window" toml:"stats_window"` // Ticks per telemetry row
	BookmarkHistorySize int `yaml:"bookmark_history_size" toml:"bookmark_history_size"`
}

// BookmarksConfig holds bookmark detection thresholds.
type BookmarksConfig struct {
	CrashDropPercent   float64 `yaml:"crash_drop_percent" toml:"crash_drop_percent"`
	CrashMinDrop       int     `yaml:"crash_min_drop" toml:"crash_min_drop"`
	SweepThreshold     float64 `yaml:"sweep_threshold" toml:"sweep_threshold"`         // Normalized mean resistance
	SaturationFraction float64 `yaml:"saturation_fraction" toml:"saturation_fraction"` // Occupied share of habitable patches
}

// ScreenConfig holds display settings for the window renderer.
type ScreenConfig struct {
	PatchSize int `yaml:"patch_size" toml:"patch_size"`
	TargetFPS int `yaml:"target_fps" toml:"target_fps"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	ResistanceSpan float64 // Resistance.Max - Resistance.Min
}

// Default returns the embedded default configuration.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML or TOML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used. The result is validated.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Decode into same struct - only overwrites fields present in file
		switch strings.ToLower(filepath.Ext(path)) {
		case ".toml":
			if _, err := toml.Decode(string(data), cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.ComputeDerived()

	return cfg, nil
}

// ComputeDerived calculates values derived from loaded config.
// Call it again after mutating a loaded config in code.
func (c *Config) ComputeDerived() {
	c.Derived.ResistanceSpan = c.Resistance.Max - c.Resistance.Min
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	out := *c
	out.Population.Seeds = make([]SeedConfig, len(c.Population.Seeds))
	for i, s := range c.Population.Seeds {
		out.Population.Seeds[i] = s
		if s.Resistance != nil {
			r := *s.Resistance
			out.Population.Seeds[i].Resistance = &r
		}
	}
	return &out
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
