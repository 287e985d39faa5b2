package engine

import (
	"sync"
	"time"

	"github.com/lixenwraith/swarm-fsm/engine/status"
)

// NewTestWorld creates a world with a nop logger, an unregistered metrics registry and the given config options
// Test helper shared by packages building on the engine
func NewTestWorld(opts ...Option) *World {
	base := []Option{WithMetrics(status.NewRegistry(nil))}
	return NewWorld(append(base, opts...)...)
}

// RunTicks advances the world n ticks with a fixed delta
func RunTicks(w *World, n int, dt time.Duration) {
	for range n {
		w.Update(dt)
	}
}

// MockTimeProvider provides a controllable time source for testing
type MockTimeProvider struct {
	mu          sync.RWMutex
	currentTime time.Time
}

// NewMockTimeProvider creates a new mock time provider with the given start time
func NewMockTimeProvider(startTime time.Time) *MockTimeProvider {
	return &MockTimeProvider{currentTime: startTime}
}

// Now returns the current mocked time
func (m *MockTimeProvider) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentTime
}

// Advance advances the current time by the given duration
func (m *MockTimeProvider) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentTime = m.currentTime.Add(d)
}
