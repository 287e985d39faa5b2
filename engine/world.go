package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"sync"
	"time"

	"github.com/lixenwraith/swarm-fsm/core"
	"github.com/lixenwraith/swarm-fsm/engine/status"
	"github.com/lixenwraith/swarm-fsm/logging"
)

var (
	// ErrStaleEntity is returned when a handle's generation no longer matches its slot
	ErrStaleEntity = errors.New("stale entity handle")

	// ErrSystemExists is returned when a system name is registered twice
	ErrSystemExists = errors.New("system already registered")
)

// slot lifecycle
const (
	slotFree uint8 = iota
	slotReserved
	slotAlive
)

// World is the handle-addressable record store and the owner of the stage pipeline
type World struct {
	// Allocator state; guarded by mu because parallel stages reserve handles through their writers
	mu          sync.Mutex
	generations []uint32
	slots       []uint8
	free        []uint32
	alive       int

	storeMu   sync.RWMutex
	stores    map[reflect.Type]AnyStore
	storeList []AnyStore

	systems []*stage
	config  Config
	logger  *slog.Logger
	metrics *status.Registry

	tick        uint64
	updateMutex sync.Mutex
}

// stage pairs a system with its private command buffer
type stage struct {
	system   System
	commands *CommandBuffer
}

// Option configures a World
type Option func(*World)

// WithLogger sets the world logger
func WithLogger(l *slog.Logger) Option {
	return func(w *World) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithMetrics sets the metrics registry
func WithMetrics(r *status.Registry) Option {
	return func(w *World) {
		if r != nil {
			w.metrics = r
		}
	}
}

// WithConfig sets the engine configuration
func WithConfig(c Config) Option {
	return func(w *World) {
		w.config = c.withDefaults()
	}
}

// NewWorld creates an empty world
func NewWorld(opts ...Option) *World {
	w := &World{
		stores:  make(map[reflect.Type]AnyStore),
		config:  DefaultConfig(),
		logger:  logging.NewNop(),
		metrics: status.NewRegistry(nil),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Logger returns the world logger
func (w *World) Logger() *slog.Logger { return w.logger }

// Metrics returns the metrics registry
func (w *World) Metrics() *status.Registry { return w.metrics }

// Config returns the engine configuration
func (w *World) Config() Config { return w.config }

// TickNumber returns the number of completed ticks
func (w *World) TickNumber() uint64 {
	w.updateMutex.Lock()
	defer w.updateMutex.Unlock()
	return w.tick
}

// === Entity allocation ===

// CreateEntity allocates a live entity immediately
// Setup-time only; during a tick use a CommandBuffer
func (w *World) CreateEntity() core.Entity {
	w.mu.Lock()
	defer w.mu.Unlock()
	e := w.allocateLocked()
	w.slots[e.Index()] = slotAlive
	w.alive++
	w.metrics.Entities.Set(float64(w.alive))
	return e
}

// reserveEntity allocates a handle that becomes live when committed at playback
func (w *World) reserveEntity() core.Entity {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.allocateLocked()
}

// commitEntity makes a reserved handle live
func (w *World) commitEntity(e core.Entity) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.matchesLocked(e) || w.slots[e.Index()] != slotReserved {
		return false
	}
	w.slots[e.Index()] = slotAlive
	w.alive++
	w.metrics.Entities.Set(float64(w.alive))
	return true
}

func (w *World) allocateLocked() core.Entity {
	if n := len(w.free); n > 0 {
		idx := w.free[n-1]
		w.free = w.free[:n-1]
		w.slots[idx] = slotReserved
		return core.NewEntity(idx, w.generations[idx])
	}
	idx := uint32(len(w.generations))
	w.generations = append(w.generations, 1)
	w.slots = append(w.slots, slotReserved)
	return core.NewEntity(idx, 1)
}

func (w *World) matchesLocked(e core.Entity) bool {
	idx := e.Index()
	return e != core.NullEntity && int(idx) < len(w.generations) && w.generations[idx] == e.Generation()
}

// IsAlive reports whether the handle refers to a live record
func (w *World) IsAlive(e core.Entity) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.matchesLocked(e) && w.slots[e.Index()] == slotAlive
}

// EntityCount returns the number of live records
func (w *World) EntityCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.alive
}

// DestroyEntity removes every component of the record and recycles its slot
// Reserved, never-committed handles are released as well
func (w *World) DestroyEntity(e core.Entity) error {
	w.mu.Lock()
	if !w.matchesLocked(e) || w.slots[e.Index()] == slotFree {
		w.mu.Unlock()
		return fmt.Errorf("destroy %s: %w", e, ErrStaleEntity)
	}
	idx := e.Index()
	if w.slots[idx] == slotAlive {
		w.alive--
	}
	w.slots[idx] = slotFree
	w.generations[idx]++
	if w.generations[idx] == 0 {
		// Generation wrapped; skip 0 so the slot never yields NullEntity
		w.generations[idx] = 1
	}
	w.free = append(w.free, idx)
	w.metrics.Entities.Set(float64(w.alive))
	w.mu.Unlock()

	w.storeMu.RLock()
	for _, s := range w.storeList {
		s.Remove(e)
	}
	w.storeMu.RUnlock()
	return nil
}

// === Stores ===

// GetStore returns the store for component type T, creating it on first use
// Systems resolve their stores once during construction
func GetStore[T any](w *World) *Store[T] {
	t := reflect.TypeFor[T]()

	w.storeMu.RLock()
	s, ok := w.stores[t]
	w.storeMu.RUnlock()
	if ok {
		return s.(*Store[T])
	}

	w.storeMu.Lock()
	defer w.storeMu.Unlock()
	if s, ok := w.stores[t]; ok {
		return s.(*Store[T])
	}
	store := NewStore[T]()
	w.stores[t] = store
	w.storeList = append(w.storeList, store)
	return store
}

// === Systems ===

// AddSystem registers a system; systems run by ascending priority, registration order breaks ties
func (w *World) AddSystem(system System) error {
	w.updateMutex.Lock()
	defer w.updateMutex.Unlock()

	for _, st := range w.systems {
		if st.system.Name() == system.Name() {
			return fmt.Errorf("%s: %w", system.Name(), ErrSystemExists)
		}
	}

	w.systems = append(w.systems, &stage{
		system:   system,
		commands: NewCommandBuffer(w),
	})
	slices.SortStableFunc(w.systems, func(a, b *stage) int {
		return a.system.Priority() - b.system.Priority()
	})

	w.logger.Debug("system registered", "system", system.Name(), "priority", system.Priority())
	return nil
}

// Systems returns the registered systems in execution order
func (w *World) Systems() []System {
	w.updateMutex.Lock()
	defer w.updateMutex.Unlock()
	result := make([]System, len(w.systems))
	for i, st := range w.systems {
		result[i] = st.system
	}
	return result
}

// RunSafe executes a function while holding the world's update lock
func (w *World) RunSafe(fn func()) {
	w.updateMutex.Lock()
	defer w.updateMutex.Unlock()
	fn()
}

// Update runs one tick: every system in order, each followed by its command playback barrier
func (w *World) Update(dt time.Duration) {
	w.RunSafe(func() {
		w.UpdateLocked(dt)
	})
}

// UpdateLocked runs one tick assuming the caller already holds the update lock
func (w *World) UpdateLocked(dt time.Duration) {
	w.tick++
	tick := Tick{
		World:     w,
		DeltaTime: dt,
		Number:    w.tick,
	}

	for _, st := range w.systems {
		start := time.Now()

		tick.Commands = st.commands
		st.system.Update(&tick)

		if pending := st.commands.Len(); pending > 0 && w.logger.Enabled(context.Background(), slog.LevelDebug) {
			w.logger.Debug("stage barrier", "system", st.system.Name(), "tick", w.tick, "pending", pending)
		}

		// Barrier: structural changes made during the stage become visible to the next one
		applied, skipped := st.commands.Playback()
		w.metrics.CommandsApplied.Add(float64(applied))
		if skipped > 0 {
			w.metrics.CommandsSkipped.Add(float64(skipped))
		}

		w.metrics.StageDuration.WithLabelValues(st.system.Name()).Observe(time.Since(start).Seconds())
	}

	w.metrics.Ticks.Inc()
}
