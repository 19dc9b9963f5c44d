package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/llxisdsh/handoff"
	"github.com/llxisdsh/handoff/pipeline"
	"github.com/llxisdsh/handoff/transform"
)

// Prefix is the environment variable prefix, e.g. HANDOFF_PHASES.
const Prefix = "handoff"

// Config holds all command configuration.
type Config struct {
	Phases          int           `envconfig:"PHASES" default:"2"`
	Placeholder     string        `envconfig:"PLACEHOLDER" default:"*"`
	ZeroPolicy      string        `envconfig:"ZERO_POLICY" default:"drop"`
	WaitMode        string        `envconfig:"WAIT_MODE" default:"spin"`
	LivenessTimeout time.Duration `envconfig:"LIVENESS_TIMEOUT" default:"30s"`

	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogDev      bool   `envconfig:"LOG_DEV" default:"false"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:""`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Phases:          2,
		Placeholder:     "*",
		ZeroPolicy:      "drop",
		WaitMode:        "spin",
		LivenessTimeout: 30 * time.Second,
		LogLevel:        "info",
	}
}

// Validate checks every field that Options would reject later.
func (c *Config) Validate() error {
	_, err := c.Options()
	return err
}

// Options converts the configuration into pipeline options.
func (c *Config) Options() (pipeline.Options, error) {
	var opts pipeline.Options
	if c.Phases < 1 || c.Phases > transform.MaxPhases {
		return opts, fmt.Errorf("config: phases must be in 1..%d, got %d", transform.MaxPhases, c.Phases)
	}
	if len(c.Placeholder) != 1 {
		return opts, fmt.Errorf("config: placeholder must be one byte, got %q", c.Placeholder)
	}
	zero, err := transform.ParseZeroPolicy(c.ZeroPolicy)
	if err != nil {
		return opts, fmt.Errorf("config: %w", err)
	}
	mode, err := ParseWaitMode(c.WaitMode)
	if err != nil {
		return opts, err
	}
	if c.LivenessTimeout < 0 {
		return opts, fmt.Errorf("config: negative liveness timeout %v", c.LivenessTimeout)
	}

	opts = pipeline.Options{
		Rules:    transform.Rules{Placeholder: c.Placeholder[0], Zero: zero},
		Phases:   c.Phases,
		WaitMode: mode,
		Liveness: c.LivenessTimeout,
	}
	if err := opts.Rules.Validate(); err != nil {
		return opts, fmt.Errorf("config: %w", err)
	}
	return opts, nil
}

// ParseWaitMode parses "spin" or "park".
func ParseWaitMode(s string) (handoff.WaitMode, error) {
	switch s {
	case "spin", "":
		return handoff.Spin, nil
	case "park":
		return handoff.Park, nil
	default:
		return 0, fmt.Errorf("config: unknown wait mode %q", s)
	}
}
