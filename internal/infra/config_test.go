package infra

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"blip_sim/internal/domain"
)

func TestParseConfig_Overlay(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
simulator:
  speed: 4
  completed_capacity: 50
server:
  addr: ":9000"
`))
	if err != nil {
		t.Fatalf("ParseConfig failed: %v", err)
	}

	if cfg.Simulator.Speed != 4 {
		t.Errorf("Expected speed 4, got %v", cfg.Simulator.Speed)
	}
	if cfg.Simulator.CompletedCapacity != 50 {
		t.Errorf("Expected capacity 50, got %d", cfg.Simulator.CompletedCapacity)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("Expected addr :9000, got %s", cfg.Server.Addr)
	}
	// Untouched keys keep their defaults.
	if cfg.Simulator.AdmissionIntervalMS != 8000 {
		t.Errorf("Expected default admission 8000, got %d", cfg.Simulator.AdmissionIntervalMS)
	}
	if cfg.Simulator.AutoMatchProbability != 0.3 {
		t.Errorf("Expected default probability 0.3, got %v", cfg.Simulator.AutoMatchProbability)
	}
}

func TestParseConfig_Validation(t *testing.T) {
	cases := map[string]struct {
		yaml  string
		field string
	}{
		"negative interval":  {"simulator:\n  progress_interval_ms: -1\n", "simulator.progress_interval_ms"},
		"probability > 1":    {"simulator:\n  auto_match_probability: 1.5\n", "simulator.auto_match_probability"},
		"zero queue cap":     {"simulator:\n  new_queue_cap: 0\n", "simulator.new_queue_cap"},
		"accept at 100":      {"simulator:\n  accept_progress: 100\n", "simulator.accept_progress"},
		"bad rate url":       {"rate_feed:\n  url: ftp://x\n", "rate_feed.url"},
		"negative capacity":  {"simulator:\n  completed_capacity: -2\n", "simulator.completed_capacity"},
		"progress step zero": {"simulator:\n  progress_step: 0\n", "simulator.progress_step"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tc.yaml))
			var ce *domain.ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("Expected ConfigError, got %v", err)
			}
			if ce.Field != tc.field {
				t.Errorf("Expected field %s, got %s", tc.field, ce.Field)
			}
		})
	}
}

func TestParseConfig_EnvOverride(t *testing.T) {
	t.Setenv("BLIPSIM_ADDR", ":7777")
	t.Setenv("BLIPSIM_SEED", "99")
	t.Setenv("BLIPSIM_DB", StorageDisabled)

	cfg, err := ParseConfig(nil)
	if err != nil {
		t.Fatalf("ParseConfig failed: %v", err)
	}
	if cfg.Server.Addr != ":7777" {
		t.Errorf("Expected :7777, got %s", cfg.Server.Addr)
	}
	if cfg.Simulator.Seed != 99 {
		t.Errorf("Expected seed 99, got %d", cfg.Simulator.Seed)
	}
	if cfg.Storage.Path != StorageDisabled {
		t.Errorf("Expected storage disabled, got %q", cfg.Storage.Path)
	}
}

func TestParseConfig_BadSeed(t *testing.T) {
	t.Setenv("BLIPSIM_SEED", "not-a-number")

	_, err := ParseConfig(nil)
	var ce *domain.ConfigError
	if !errors.As(err, &ce) || ce.Field != "BLIPSIM_SEED" {
		t.Errorf("Expected BLIPSIM_SEED ConfigError, got %v", err)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		if !errors.Is(err, domain.ErrConfigNotFound) {
			t.Errorf("Expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("file on disk", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte("app:\n  name: test-sim\n"), 0644); err != nil {
			t.Fatal(err)
		}
		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.App.Name != "test-sim" {
			t.Errorf("Expected test-sim, got %s", cfg.App.Name)
		}
	})
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("DEBUG") != slog.LevelDebug {
		t.Error("Expected debug level")
	}
	if ParseLevel("bogus") != slog.LevelInfo {
		t.Error("Expected info fallback")
	}
}
