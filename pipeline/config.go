package pipeline

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config controls a pipeline run. It is loaded from YAML; every field
// has a default so an empty file (or no file) is a valid configuration.
type Config struct {
	// DataDir holds the raw GraphML inputs.
	DataDir string `yaml:"data_dir"`

	// ResultsDir receives standardized graphs and JSON summaries.
	ResultsDir string `yaml:"results_dir"`

	// FiguresDir receives rendered figures.
	FiguresDir string `yaml:"figures_dir"`

	// MaxCycleLength bounds cycle enumeration.
	MaxCycleLength int `yaml:"max_cycle_length"`

	// HubThreshold is the cycle participation above which a region is a hub.
	HubThreshold int `yaml:"hub_threshold"`

	// WeightThreshold prunes synapses weaker than this before analysis.
	// Zero keeps every synapse.
	WeightThreshold float64 `yaml:"weight_threshold"`

	// AnalyzeTimeout bounds cycle detection per graph. On expiry the
	// cycles found so far are kept and a warning is recorded.
	AnalyzeTimeout time.Duration `yaml:"analyze_timeout"`

	// LayoutSeed fixes figure layout for reproducible output.
	LayoutSeed uint64 `yaml:"layout_seed"`

	// Store selects the step store backend: memory, sqlite or mysql.
	Store string `yaml:"store"`

	// StorePath is the SQLite database path (ignored for other backends;
	// the MySQL DSN comes from BRAINCYCLE_MYSQL_DSN).
	StorePath string `yaml:"store_path"`
}

// DefaultConfig returns the standard configuration: data in ./data,
// outputs in ./results and ./figures, a 6-region cycle bound, and a
// one-minute analysis budget per graph.
func DefaultConfig() Config {
	return Config{
		DataDir:        "data",
		ResultsDir:     "results",
		FiguresDir:     "figures",
		MaxCycleLength: 6,
		HubThreshold:   3,
		AnalyzeTimeout: 60 * time.Second,
		LayoutSeed:     1,
		Store:          "memory",
		StorePath:      "braincycle.db",
	}
}

// LoadConfig reads a YAML config file over the defaults. A missing file
// is not an error; the defaults apply.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c Config) Validate() error {
	if c.DataDir == "" || c.ResultsDir == "" || c.FiguresDir == "" {
		return fmt.Errorf("data_dir, results_dir and figures_dir must be set")
	}
	if c.MaxCycleLength < 2 {
		return fmt.Errorf("max_cycle_length must be at least 2, got %d", c.MaxCycleLength)
	}
	if c.HubThreshold < 0 {
		return fmt.Errorf("hub_threshold must not be negative, got %d", c.HubThreshold)
	}
	if c.WeightThreshold < 0 {
		return fmt.Errorf("weight_threshold must not be negative, got %g", c.WeightThreshold)
	}
	switch c.Store {
	case "memory", "sqlite", "mysql":
	default:
		return fmt.Errorf("unknown store %q (valid: memory, sqlite, mysql)", c.Store)
	}
	return nil
}
