package fsm

import (
	"github.com/lixenwraith/swarm-fsm/core"
	"github.com/lixenwraith/swarm-fsm/engine"
)

// Builder constructs machine graphs
// Setup-time only: it writes stores directly and must not run concurrently with World.Update
type Builder struct {
	world  *engine.World
	stores Stores
}

// NewBuilder creates a builder bound to a world
func NewBuilder(w *engine.World) *Builder {
	return &Builder{
		world:  w,
		stores: GetStores(w),
	}
}

// World returns the target world
func (b *Builder) World() *engine.World { return b.world }

// CreateFsm allocates a machine with no current state, no pending event and an empty transition list
func (b *Builder) CreateFsm(owner core.Entity) core.Entity {
	m := b.world.CreateEntity()
	b.stores.Machines.Set(m, Machine{
		Owner:        owner,
		CurrentState: core.NullEntity,
		CurrentEvent: NullEvent,
	})
	b.stores.Transitions.Set(m, TransitionBuffer{})
	return m
}

// AddState allocates a state of machine tagged with domain D
func AddState[D any](b *Builder, machine core.Entity, id StateID) (core.Entity, error) {
	if !b.stores.Machines.Has(machine) {
		return core.NullEntity, &ConfigError{Op: "add state", Machine: machine, StateID: id, Err: ErrUnknownMachine}
	}

	s := b.world.NewEntity()
	state := s.Entity()
	engine.With(s, b.stores.States, State{
		EntityOwner: state,
		FsmOwner:    machine,
		StateID:     id,
	})
	var tag D
	engine.With(s, engine.GetStore[D](b.world), tag)
	return s.Build(), nil
}

// AddTransition appends (from, event) -> to to the machine's transition list
// Earlier transitions win over later ones with the same (from, event)
func (b *Builder) AddTransition(machine, from core.Entity, event EventID, to core.Entity) error {
	if event == NullEvent {
		return &ConfigError{Op: "add transition", Machine: machine, State: from, StateID: b.stateID(from), Err: ErrNullEvent}
	}
	tb := b.stores.Transitions.Ref(machine)
	if tb == nil || !b.stores.Machines.Has(machine) {
		return &ConfigError{Op: "add transition", Machine: machine, Event: event, Err: ErrUnknownMachine}
	}
	for _, s := range [2]core.Entity{from, to} {
		if !b.ownsState(machine, s) {
			return &ConfigError{Op: "add transition", Machine: machine, State: s, Event: event, Err: ErrUnknownState}
		}
	}

	tb.Transitions = append(tb.Transitions, Transition{
		FsmOwner:  machine,
		FromState: from,
		ToState:   to,
		Event:     event,
	})
	return nil
}

// Start marks state as the machine's initial state; it is activated on the next tick
// A machine is started once: a current state or an already pending start yields ErrAlreadyStarted
func (b *Builder) Start(machine, state core.Entity) error {
	m := b.stores.Machines.Ref(machine)
	if m == nil {
		return &ConfigError{Op: "start", Machine: machine, Err: ErrUnknownMachine}
	}
	if !b.ownsState(machine, state) {
		return &ConfigError{Op: "start", Machine: machine, State: state, Err: ErrUnknownState}
	}
	if m.CurrentState != core.NullEntity {
		return &ConfigError{Op: "start", Machine: machine, State: m.CurrentState, StateID: b.stateID(m.CurrentState), Err: ErrAlreadyStarted}
	}
	if pending := b.pendingStart(machine); pending != core.NullEntity {
		return &ConfigError{Op: "start", Machine: machine, State: pending, StateID: b.stateID(pending), Err: ErrAlreadyStarted}
	}
	b.stores.StartStates.Set(state, StartState{})
	return nil
}

// pendingStart returns the machine's state tagged StartState, or NullEntity
func (b *Builder) pendingStart(machine core.Entity) core.Entity {
	for _, s := range b.stores.StartStates.Entities() {
		if st, ok := b.stores.States.Get(s); ok && st.FsmOwner == machine {
			return s
		}
	}
	return core.NullEntity
}

// UnreachableTransitions returns transitions shadowed by an earlier one with the same (from, event)
func (b *Builder) UnreachableTransitions(machine core.Entity) []Transition {
	tb := b.stores.Transitions.Ref(machine)
	if tb == nil {
		return nil
	}

	type key struct {
		from  core.Entity
		event EventID
	}
	seen := make(map[key]struct{}, len(tb.Transitions))
	var shadowed []Transition
	for _, t := range tb.Transitions {
		k := key{t.FromState, t.Event}
		if _, ok := seen[k]; ok {
			shadowed = append(shadowed, t)
			continue
		}
		seen[k] = struct{}{}
	}
	return shadowed
}

func (b *Builder) ownsState(machine, state core.Entity) bool {
	s, ok := b.stores.States.Get(state)
	return ok && s.FsmOwner == machine && b.world.IsAlive(state)
}

func (b *Builder) stateID(state core.Entity) StateID {
	s, _ := b.stores.States.Get(state)
	return s.StateID
}

// AddAction enqueues creation of an action bound to state and returns its reserved handle
// Payload components go on the same handle through the same recorder
func AddAction(r engine.Recorder, state core.Entity) core.Entity {
	a := r.Create()
	engine.Set(r, a, Action{StateOwner: state})
	return a
}
