package infra

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"blip_sim/internal/domain"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultUserAgent is sent by the rate feed.
	DefaultUserAgent = "blip-sim/1.0 (+https://blip.money)"

	// StorageDisabled as storage.path turns the settlement ledger off.
	StorageDisabled = "-"
)

// Config holds every setting of the simulator service.
// LoadConfig overlays the YAML file on DefaultConfig, then applies environment overrides.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Simulator struct {
		AdmissionIntervalMS  int     `yaml:"admission_interval_ms"`
		AutoMatchIntervalMS  int     `yaml:"auto_match_interval_ms"`
		ProgressIntervalMS   int     `yaml:"progress_interval_ms"`
		NotificationTTLMS    int     `yaml:"notification_ttl_ms"`
		AutoMatchProbability float64 `yaml:"auto_match_probability"`
		NewQueueCap          int     `yaml:"new_queue_cap"`
		VisibleItems         int     `yaml:"visible_items"`
		ProgressStep         int     `yaml:"progress_step"`
		AcceptProgress       int     `yaml:"accept_progress"`
		AutoMatchProgress    int     `yaml:"auto_match_progress"`
		CompletedCapacity    int     `yaml:"completed_capacity"`
		Speed                float64 `yaml:"speed"`
		TickResolutionMS     int     `yaml:"tick_resolution_ms"`
		Seed                 uint64  `yaml:"seed"`
		Locale               string  `yaml:"locale"`
	} `yaml:"simulator"`

	RateFeed struct {
		URL             string `yaml:"url"`
		PollIntervalSec int    `yaml:"poll_interval_sec"`
		Currency        string `yaml:"currency"`
	} `yaml:"rate_feed"`

	Server struct {
		Addr           string   `yaml:"addr"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`

	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`

	Logging struct {
		Level string `yaml:"level"`
		Dir   string `yaml:"dir"`
	} `yaml:"logging"`
}

// DefaultConfig returns the settings of the marketing dashboard widget.
func DefaultConfig() *Config {
	var cfg Config
	cfg.App.Name = "blip-sim"
	cfg.App.Version = "0.1.0"

	cfg.Simulator.AdmissionIntervalMS = 8000
	cfg.Simulator.AutoMatchIntervalMS = 10000
	cfg.Simulator.ProgressIntervalMS = 2000
	cfg.Simulator.NotificationTTLMS = 2000
	cfg.Simulator.AutoMatchProbability = 0.3
	cfg.Simulator.NewQueueCap = 3
	cfg.Simulator.VisibleItems = 3
	cfg.Simulator.ProgressStep = 20
	cfg.Simulator.AcceptProgress = 60
	cfg.Simulator.AutoMatchProgress = 40
	cfg.Simulator.Speed = 1.0
	cfg.Simulator.TickResolutionMS = 100
	cfg.Simulator.Locale = "en-US"

	cfg.RateFeed.PollIntervalSec = 60
	cfg.RateFeed.Currency = "AED"

	cfg.Server.Addr = "localhost:8090"
	cfg.Server.AllowedOrigins = []string{"*"}

	cfg.Logging.Level = "info"
	cfg.Logging.Dir = "logs"
	return &cfg
}

// LoadConfig reads and parses the YAML file at path.
// A missing file yields an error wrapping domain.ErrConfigNotFound.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, domain.ErrConfigNotFound)
		}
		return nil, err
	}
	return ParseConfig(data)
}

// ParseConfig overlays data on DefaultConfig, applies env overrides and validates.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := overrideWithEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	sim := c.Simulator

	for field, ms := range map[string]int{
		"simulator.admission_interval_ms":  sim.AdmissionIntervalMS,
		"simulator.auto_match_interval_ms": sim.AutoMatchIntervalMS,
		"simulator.progress_interval_ms":   sim.ProgressIntervalMS,
		"simulator.notification_ttl_ms":    sim.NotificationTTLMS,
		"simulator.tick_resolution_ms":     sim.TickResolutionMS,
	} {
		if ms <= 0 {
			return domain.NewConfigError(field, "must be positive, got %d", ms)
		}
	}

	if sim.AutoMatchProbability < 0 || sim.AutoMatchProbability > 1 {
		return domain.NewConfigError("simulator.auto_match_probability", "must be within [0, 1], got %v", sim.AutoMatchProbability)
	}
	if sim.NewQueueCap <= 0 {
		return domain.NewConfigError("simulator.new_queue_cap", "must be positive, got %d", sim.NewQueueCap)
	}
	if sim.VisibleItems <= 0 {
		return domain.NewConfigError("simulator.visible_items", "must be positive, got %d", sim.VisibleItems)
	}
	if sim.ProgressStep <= 0 || sim.ProgressStep > domain.ProgressComplete {
		return domain.NewConfigError("simulator.progress_step", "must be within (0, 100], got %d", sim.ProgressStep)
	}
	for field, p := range map[string]int{
		"simulator.accept_progress":     sim.AcceptProgress,
		"simulator.auto_match_progress": sim.AutoMatchProgress,
	} {
		if p < 0 || p >= domain.ProgressComplete {
			return domain.NewConfigError(field, "must be within [0, 100), got %d", p)
		}
	}
	if sim.CompletedCapacity < 0 {
		return domain.NewConfigError("simulator.completed_capacity", "must not be negative, got %d", sim.CompletedCapacity)
	}
	if sim.Speed < 0 {
		return domain.NewConfigError("simulator.speed", "must not be negative, got %v", sim.Speed)
	}

	if u := c.RateFeed.URL; u != "" && !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		return domain.NewConfigError("rate_feed.url", "must be http(s), got %s", u)
	}
	if c.RateFeed.URL != "" && c.RateFeed.PollIntervalSec <= 0 {
		return domain.NewConfigError("rate_feed.poll_interval_sec", "must be positive, got %d", c.RateFeed.PollIntervalSec)
	}

	if c.Server.Addr == "" {
		return domain.NewConfigError("server.addr", "must not be empty")
	}

	return nil
}

// overrideWithEnv applies BLIPSIM_* environment variables when present.
func overrideWithEnv(cfg *Config) error {
	if addr := os.Getenv("BLIPSIM_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	}
	if seed := os.Getenv("BLIPSIM_SEED"); seed != "" {
		v, err := strconv.ParseUint(seed, 10, 64)
		if err != nil {
			return &domain.ConfigError{Field: "BLIPSIM_SEED", Err: err}
		}
		cfg.Simulator.Seed = v
	}
	if db := os.Getenv("BLIPSIM_DB"); db != "" {
		cfg.Storage.Path = db
	}
	if level := os.Getenv("BLIPSIM_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if url := os.Getenv("BLIPSIM_RATE_URL"); url != "" {
		cfg.RateFeed.URL = url
	}
	return nil
}
