package fsm

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/swarm-fsm/core"
	"github.com/lixenwraith/swarm-fsm/engine"
	"github.com/lixenwraith/swarm-fsm/engine/status"
)

// ParallelUtility resolves an action's owners without any mutation capability
// Safe for concurrent use: it only reads machine and state records
type ParallelUtility struct {
	stores Stores
}

// CanExecute reports whether the action's machine has no pending event and its state is still current
func (u *ParallelUtility) CanExecute(a *Action) bool {
	return canExecute(u.stores, a)
}

// Owner returns the agent driven by the action's machine
func (u *ParallelUtility) Owner(a *Action) core.Entity {
	return owner(u.stores, a)
}

// Utility is the sequential-stage utility; it may send events
type Utility struct {
	stores   Stores
	commands *engine.CommandBuffer
	metrics  *status.Registry
}

// NewUtility creates a sequential utility recording into cb
// For custom sequential stages such as companions of parallel action systems
func NewUtility(w *engine.World, cb *engine.CommandBuffer) *Utility {
	return &Utility{stores: GetStores(w), commands: cb, metrics: w.Metrics()}
}

// CanExecute reports whether the action's machine has no pending event and its state is still current
func (u *Utility) CanExecute(a *Action) bool {
	return canExecute(u.stores, a)
}

// Owner returns the agent driven by the action's machine
func (u *Utility) Owner(a *Action) core.Entity {
	return owner(u.stores, a)
}

// SendEvent sets the owning machine's pending event and tags it for consumption next tick
// Panics with *ConfigError wrapping ErrNullEvent or ErrEventPending on misuse
func (u *Utility) SendEvent(a *Action, event EventID) {
	state, _ := u.stores.States.Get(a.StateOwner)
	if event == NullEvent {
		panic(&ConfigError{Op: "send event", Machine: state.FsmOwner, State: a.StateOwner, StateID: state.StateID, Err: ErrNullEvent})
	}
	m := u.stores.Machines.Ref(state.FsmOwner)
	if m == nil {
		panic(&ConfigError{Op: "send event", State: a.StateOwner, StateID: state.StateID, Event: event, Err: ErrUnknownMachine})
	}
	if m.CurrentEvent != NullEvent {
		panic(&ConfigError{Op: "send event", Machine: state.FsmOwner, State: a.StateOwner, StateID: state.StateID, Event: event, Err: ErrEventPending})
	}

	// Immediate write: a second send to this machine in the same tick trips the check above
	m.CurrentEvent = event
	engine.Set(u.commands, state.FsmOwner, HasFsmEvent{})
	u.metrics.EventsSent.Inc()
}

func canExecute(stores Stores, a *Action) bool {
	state := stores.States.Ref(a.StateOwner)
	if state == nil {
		return false
	}
	m := stores.Machines.Ref(state.FsmOwner)
	if m == nil {
		return false
	}
	return m.CurrentEvent == NullEvent && m.CurrentState == a.StateOwner
}

func owner(stores Stores, a *Action) core.Entity {
	state, ok := stores.States.Get(a.StateOwner)
	if !ok {
		return core.NullEntity
	}
	m, _ := stores.Machines.Get(state.FsmOwner)
	return m.Owner
}

// ActionContext is passed to sequential behaviors
type ActionContext[P any] struct {
	Index     int
	Entity    core.Entity
	Action    *Action
	Payload   *P
	Utility   *Utility
	Commands  *engine.CommandBuffer
	DeltaTime time.Duration
}

// ParallelContext is passed to parallel behaviors; it carries no mutation log
type ParallelContext[P any] struct {
	Index     int
	Entity    core.Entity
	Action    *Action
	Payload   *P
	Utility   *ParallelUtility
	DeltaTime time.Duration
}

// SequentialBehavior is domain logic run single-threaded; it may send events
type SequentialBehavior[P any] interface {
	Enter(ctx *ActionContext[P])
	Update(ctx *ActionContext[P])
}

// ParallelBehavior is pure domain logic run across worker batches
// It may only write its own action and payload; events are sent by a sequential companion stage
type ParallelBehavior[P any] interface {
	Enter(ctx *ParallelContext[P])
	Update(ctx *ParallelContext[P])
}

// ActionSystem runs a sequential behavior over every action carrying payload P
type ActionSystem[P any] struct {
	name     string
	priority int
	behavior SequentialBehavior[P]
	stores   Stores
	payloads *engine.Store[P]
	metrics  *status.Registry
}

// NewActionSystem creates a sequential action stage
func NewActionSystem[P any](w *engine.World, name string, priority int, behavior SequentialBehavior[P]) *ActionSystem[P] {
	return &ActionSystem[P]{
		name:     name,
		priority: priority,
		behavior: behavior,
		stores:   GetStores(w),
		payloads: engine.GetStore[P](w),
		metrics:  w.Metrics(),
	}
}

func (s *ActionSystem[P]) Name() string  { return s.name }
func (s *ActionSystem[P]) Priority() int { return s.priority }

// Update destroys orphaned actions, then runs Enter once and Update every tick until the action finishes,
// the entering tick included
// An action whose Enter sets Finished gets no Update that tick: its finish event has already been sent,
// and a behavior reaching its finish branch again in Update would send a second one (ErrEventPending)
func (s *ActionSystem[P]) Update(tick *engine.Tick) {
	u := &Utility{stores: s.stores, commands: tick.Commands, metrics: s.metrics}
	ctx := ActionContext[P]{Utility: u, Commands: tick.Commands, DeltaTime: tick.DeltaTime}
	orphans := 0

	for i, e := range tick.World.Query().With(s.payloads).With(s.stores.Actions).Execute() {
		a := s.stores.Actions.Ref(e)
		if !u.CanExecute(a) {
			tick.Commands.Destroy(e)
			orphans++
			continue
		}
		if a.Finished {
			continue
		}

		ctx.Index, ctx.Entity, ctx.Action, ctx.Payload = i, e, a, s.payloads.Ref(e)
		if !a.Entered {
			a.Entered = true
			s.behavior.Enter(&ctx)
			if a.Finished {
				continue
			}
		}
		s.behavior.Update(&ctx)
	}

	if orphans > 0 {
		s.metrics.ActionsDestroyed.WithLabelValues(status.ReasonOrphaned).Add(float64(orphans))
	}
}

// ParallelActionSystem runs a parallel behavior over every action carrying payload P
// Destroy commands are keyed by record index so playback order is independent of worker scheduling
type ParallelActionSystem[P any] struct {
	name     string
	priority int
	behavior ParallelBehavior[P]
	opts     engine.ParallelOptions
	stores   Stores
	payloads *engine.Store[P]
	metrics  *status.Registry
}

// NewParallelActionSystem creates a parallel action stage
func NewParallelActionSystem[P any](w *engine.World, name string, priority int, behavior ParallelBehavior[P], opts engine.ParallelOptions) *ParallelActionSystem[P] {
	return &ParallelActionSystem[P]{
		name:     name,
		priority: priority,
		behavior: behavior,
		opts:     opts,
		stores:   GetStores(w),
		payloads: engine.GetStore[P](w),
		metrics:  w.Metrics(),
	}
}

func (s *ParallelActionSystem[P]) Name() string  { return s.name }
func (s *ParallelActionSystem[P]) Priority() int { return s.priority }

// Update has the same per-record contract as ActionSystem.Update, including no Update after a finishing Enter
// A panic in a worker is re-raised on the tick goroutine with its original value
func (s *ParallelActionSystem[P]) Update(tick *engine.Tick) {
	entities := tick.World.Query().With(s.payloads).With(s.stores.Actions).Execute()
	u := &ParallelUtility{stores: s.stores}
	var orphans atomic.Int64

	err := engine.ParallelFor(context.Background(), len(entities), s.opts, func(start, end int) {
		ctx := ParallelContext[P]{Utility: u, DeltaTime: tick.DeltaTime}
		for i := start; i < end; i++ {
			e := entities[i]
			a := s.stores.Actions.Ref(e)
			if !u.CanExecute(a) {
				tick.Commands.Writer(i).Destroy(e)
				orphans.Add(1)
				continue
			}
			if a.Finished {
				continue
			}

			ctx.Index, ctx.Entity, ctx.Action, ctx.Payload = i, e, a, s.payloads.Ref(e)
			if !a.Entered {
				a.Entered = true
				s.behavior.Enter(&ctx)
				if a.Finished {
					continue
				}
			}
			s.behavior.Update(&ctx)
		}
	})

	if n := orphans.Load(); n > 0 {
		s.metrics.ActionsDestroyed.WithLabelValues(status.ReasonOrphaned).Add(float64(n))
	}

	if err != nil {
		var pe *core.PanicError
		if errors.As(err, &pe) {
			panic(pe.Value)
		}
		panic(err)
	}
}
