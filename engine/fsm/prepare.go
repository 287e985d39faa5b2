package fsm

import (
	"maps"
	"slices"

	"github.com/lixenwraith/swarm-fsm/core"
	"github.com/lixenwraith/swarm-fsm/engine"
	"github.com/lixenwraith/swarm-fsm/engine/status"
	"github.com/lixenwraith/swarm-fsm/parameter"
)

// PrepareContext is passed to a preparation routine for a state that just became current
type PrepareContext struct {
	Entity   core.Entity
	State    *State
	Machine  *Machine // Read-only
	Commands *engine.CommandBuffer
	World    *engine.World
}

// PrepareFunc attaches behavior to a state, typically one AddAction call
type PrepareFunc func(ctx *PrepareContext)

// Domain maps state IDs to preparation routines for states tagged with one domain type
type Domain struct {
	name    string
	prepare map[StateID]PrepareFunc
}

// NewDomain creates an empty domain registry
func NewDomain(name string) *Domain {
	return &Domain{
		name:    name,
		prepare: make(map[StateID]PrepareFunc),
	}
}

// Name returns the domain name
func (d *Domain) Name() string { return d.name }

// Handle registers the preparation routine for id, replacing any previous one
func (d *Domain) Handle(id StateID, fn PrepareFunc) *Domain {
	d.prepare[id] = fn
	return d
}

// Lookup returns the routine registered for id
func (d *Domain) Lookup(id StateID) (PrepareFunc, bool) {
	fn, ok := d.prepare[id]
	return fn, ok
}

// StateIDs returns the handled state IDs in ascending order
func (d *Domain) StateIDs() []StateID {
	return slices.Sorted(maps.Keys(d.prepare))
}

// PrepareSystem presents states tagged StateJustTransitioned and D to the domain's routines
type PrepareSystem[D any] struct {
	domain  *Domain
	stores  Stores
	tags    *engine.Store[D]
	metrics *status.Registry
}

// NewPrepareSystem creates the preparation stage for domain tag D
func NewPrepareSystem[D any](w *engine.World, domain *Domain) *PrepareSystem[D] {
	return &PrepareSystem[D]{
		domain:  domain,
		stores:  GetStores(w),
		tags:    engine.GetStore[D](w),
		metrics: w.Metrics(),
	}
}

func (s *PrepareSystem[D]) Name() string  { return "fsm.prepare." + s.domain.name }
func (s *PrepareSystem[D]) Priority() int { return parameter.PriorityPrepare }

// Update panics with *ConfigError wrapping ErrMissingPreparation when a state's ID has no routine
func (s *PrepareSystem[D]) Update(tick *engine.Tick) {
	prepared := s.metrics.Preparations.WithLabelValues(s.domain.name)

	for _, e := range tick.World.Query().With(s.stores.JustEntered).With(s.tags).Execute() {
		state := s.stores.States.Ref(e)
		if state == nil {
			engine.Remove[StateJustTransitioned](tick.Commands, e)
			continue
		}

		fn, ok := s.domain.Lookup(state.StateID)
		if !ok {
			panic(&ConfigError{
				Op:      "prepare",
				Domain:  s.domain.name,
				Machine: state.FsmOwner,
				State:   e,
				StateID: state.StateID,
				Err:     ErrMissingPreparation,
			})
		}

		fn(&PrepareContext{
			Entity:   e,
			State:    state,
			Machine:  s.stores.Machines.Ref(state.FsmOwner),
			Commands: tick.Commands,
			World:    tick.World,
		})
		engine.Remove[StateJustTransitioned](tick.Commands, e)
		prepared.Inc()
	}
}
