package engine

import (
	"time"

	"github.com/lixenwraith/swarm-fsm/parameter"
)

// Config holds engine scheduling settings
type Config struct {
	TickInterval time.Duration `yaml:"tick_interval"`
	Workers      int           `yaml:"workers"`
	BatchSize    int           `yaml:"batch_size"`
}

// DefaultConfig returns the engine defaults
func DefaultConfig() Config {
	return Config{
		TickInterval: parameter.TickInterval,
		Workers:      parameter.DefaultWorkers,
		BatchSize:    parameter.DefaultBatchSize,
	}
}

func (c Config) withDefaults() Config {
	if c.TickInterval <= 0 {
		c.TickInterval = parameter.TickInterval
	}
	if c.BatchSize <= 0 {
		c.BatchSize = parameter.DefaultBatchSize
	}
	if c.Workers < 0 {
		c.Workers = parameter.DefaultWorkers
	}
	return c
}

// Parallel returns the batch dispatch options derived from the config
func (c Config) Parallel() ParallelOptions {
	return ParallelOptions{
		Workers:   c.Workers,
		BatchSize: c.BatchSize,
	}
}
