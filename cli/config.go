package cli

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lixenwraith/swarm-fsm/engine"
	"github.com/lixenwraith/swarm-fsm/parameter"
	"github.com/lixenwraith/swarm-fsm/system"
)

// Config is the sandbox run configuration
// Loaded from --config, then overridden by explicitly set flags
type Config struct {
	Agents      int                 `yaml:"agents"`
	Ticks       int                 `yaml:"ticks"` // 0 runs in real time until interrupted
	Definition  string              `yaml:"definition"`
	Spacing     int                 `yaml:"spacing"`
	Waypoints   int                 `yaml:"waypoints"`
	LogLevel    string              `yaml:"log_level"`
	LogFormat   string              `yaml:"log_format"`
	MetricsAddr string              `yaml:"metrics_addr"`
	Engine      engine.Config       `yaml:"engine"`
	Patrol      system.PatrolConfig `yaml:"patrol"`
}

// DefaultConfig returns the sandbox defaults
func DefaultConfig() Config {
	return Config{
		Agents:    100,
		Ticks:     0,
		Spacing:   parameter.PatrolWaypointSpacing,
		Waypoints: parameter.PatrolWaypointCount,
		LogLevel:  "info",
		LogFormat: "text",
		Engine:    engine.DefaultConfig(),
		Patrol:    system.DefaultPatrolConfig(),
	}
}

// LoadConfig reads a YAML config over the defaults; unknown keys are rejected
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects values the simulation cannot run with
func (c Config) Validate() error {
	switch {
	case c.Agents < 0:
		return fmt.Errorf("agents must be >= 0, got %d", c.Agents)
	case c.Ticks < 0:
		return fmt.Errorf("ticks must be >= 0, got %d", c.Ticks)
	case c.Spacing <= 0:
		return fmt.Errorf("spacing must be > 0, got %d", c.Spacing)
	case c.Waypoints <= 0:
		return fmt.Errorf("waypoints must be > 0, got %d", c.Waypoints)
	case c.Patrol.WaitDuration < 0 || c.Patrol.MoveDuration < 0:
		return fmt.Errorf("patrol durations must be >= 0")
	}
	return nil
}
