package engine

import "time"

// System is one stage of the tick pipeline
type System interface {
	Name() string
	Priority() int // Lower values run first
	Update(tick *Tick)
}

// Tick carries per-stage execution state
// Commands is the stage's private deferred mutation log, played back after Update returns
type Tick struct {
	World     *World
	Commands  *CommandBuffer
	DeltaTime time.Duration
	Number    uint64
}

// SystemFunc adapts a function into a System
type SystemFunc struct {
	name     string
	priority int
	fn       func(tick *Tick)
}

// NewSystemFunc creates a named system from a function
func NewSystemFunc(name string, priority int, fn func(tick *Tick)) *SystemFunc {
	return &SystemFunc{name: name, priority: priority, fn: fn}
}

// Name returns system's name
func (s *SystemFunc) Name() string { return s.name }

// Priority returns the system's priority
func (s *SystemFunc) Priority() int { return s.priority }

// Update runs the wrapped function
func (s *SystemFunc) Update(tick *Tick) { s.fn(tick) }
