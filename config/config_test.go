package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.DefaultSampleSize != 100 {
		t.Errorf("default_sample_size = %d, want 100", cfg.DefaultSampleSize)
	}
	if cfg.ToleranceF32 != 0.01 || cfg.ToleranceF64 != 0.01 {
		t.Errorf("tolerances = %v/%v, want 0.01/0.01",
			cfg.ToleranceF32, cfg.ToleranceF64)
	}
	if cfg.RandomSeed != 0 || cfg.MinTestTimeMS != 0 {
		t.Errorf("seed/min_test_time = %d/%d, want 0/0",
			cfg.RandomSeed, cfg.MinTestTimeMS)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	content := "backend_lib_path: /opt/backend.so\nrandom_seed: 7\ntolerance_f64: 0.001\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.BackendLibPath != "/opt/backend.so" {
		t.Errorf("backend_lib_path = %q", cfg.BackendLibPath)
	}
	if cfg.RandomSeed != 7 {
		t.Errorf("random_seed = %d, want 7", cfg.RandomSeed)
	}
	if cfg.ToleranceF64 != 0.001 {
		t.Errorf("tolerance_f64 = %v, want 0.001", cfg.ToleranceF64)
	}

	// Untouched options keep their defaults.
	if cfg.DefaultSampleSize != 100 {
		t.Errorf("default_sample_size = %d, want 100", cfg.DefaultSampleSize)
	}
	if cfg.ToleranceF32 != 0.01 {
		t.Errorf("tolerance_f32 = %v, want 0.01", cfg.ToleranceF32)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))

	var cerr *Error
	if !errors.As(err, &cerr) {
		t.Fatalf("error is %T, want *Error", err)
	}
}

func TestLoadInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"zero sample size", "default_sample_size: 0\n"},
		{"negative tolerance", "tolerance_f32: -0.5\n"},
		{"malformed yaml", "default_sample_size: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}

			_, err := Load(path)

			var cerr *Error
			if !errors.As(err, &cerr) {
				t.Fatalf("error is %T (%v), want *Error", err, err)
			}
		})
	}
}

func TestDumpRoundTrip(t *testing.T) {
	data, err := Default().Dump()
	if err != nil {
		t.Fatalf("Dump failed: %v", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("unmarshal dumped config: %v", err)
	}

	if cfg != Default() {
		t.Errorf("round trip mismatch: %+v != %+v", cfg, Default())
	}
}
