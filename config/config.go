// Package config loads, validates, and dumps the harness run
// configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Error is a configuration failure; it is fatal to the run.
type Error struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("config: %s", e.Reason)
	}

	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// Config holds every recognized run option.
type Config struct {
	// BackendLibPath locates the backend shared library. Required
	// unless an in-tree backend is selected on the command line.
	BackendLibPath string `yaml:"backend_lib_path"`

	// DefaultSampleSize is the Offline sample count for parameters the
	// backend leaves unspecified.
	DefaultSampleSize uint64 `yaml:"default_sample_size"`

	// RandomSeed seeds the data generators. Zero means "derive from
	// current time" at the CLI layer.
	RandomSeed uint64 `yaml:"random_seed"`

	// MinTestTimeMS is the harness-wide floor for Latency test time.
	// Zero defers to each descriptor's own value.
	MinTestTimeMS uint64 `yaml:"min_test_time_ms"`

	// ToleranceF32 and ToleranceF64 are the relative validation
	// tolerances per floating data type.
	ToleranceF32 float64 `yaml:"tolerance_f32"`
	ToleranceF64 float64 `yaml:"tolerance_f64"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		DefaultSampleSize: 100,
		RandomSeed:        0,
		MinTestTimeMS:     0,
		ToleranceF32:      0.01,
		ToleranceF64:      0.01,
	}
}

// Load reads a YAML config file and overlays it on the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, &Error{Field: "config_file", Reason: err.Error()}
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &Error{Field: "config_file", Reason: err.Error()}
	}

	return cfg, cfg.Validate()
}

// Validate checks option domains.
func (c Config) Validate() error {
	if c.DefaultSampleSize == 0 {
		return &Error{
			Field:  "default_sample_size",
			Reason: "must be a positive integer",
		}
	}
	if c.ToleranceF32 < 0 {
		return &Error{
			Field:  "tolerance_f32",
			Reason: "must be non-negative",
		}
	}
	if c.ToleranceF64 < 0 {
		return &Error{
			Field:  "tolerance_f64",
			Reason: "must be non-negative",
		}
	}

	return nil
}

// Dump writes the configuration as YAML.
func (c Config) Dump() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, &Error{Reason: err.Error()}
	}

	return data, nil
}
