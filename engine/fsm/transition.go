package fsm

import (
	"log/slog"

	"github.com/lixenwraith/swarm-fsm/engine"
	"github.com/lixenwraith/swarm-fsm/engine/status"
	"github.com/lixenwraith/swarm-fsm/parameter"
)

// StartStateSystem activates states tagged StartState
type StartStateSystem struct {
	stores Stores
}

// NewStartStateSystem creates the start-state stage
func NewStartStateSystem(w *engine.World) *StartStateSystem {
	return &StartStateSystem{stores: GetStores(w)}
}

func (s *StartStateSystem) Name() string  { return "fsm.start_state" }
func (s *StartStateSystem) Priority() int { return parameter.PriorityStartState }

func (s *StartStateSystem) Update(tick *engine.Tick) {
	for _, e := range s.stores.StartStates.All() {
		engine.Remove[StartState](tick.Commands, e)

		state := s.stores.States.Ref(e)
		if state == nil {
			continue
		}
		m := s.stores.Machines.Ref(state.FsmOwner)
		if m == nil {
			continue
		}

		m.CurrentState = e
		m.CurrentEvent = NullEvent
		engine.Set(tick.Commands, e, StateJustTransitioned{})
	}
}

// ConsumeEventSystem applies the first matching transition for machines tagged HasFsmEvent
// The tag is always removed: an event is consumed or discarded within one tick
type ConsumeEventSystem struct {
	stores  Stores
	metrics *status.Registry
}

// NewConsumeEventSystem creates the consume-event stage
func NewConsumeEventSystem(w *engine.World) *ConsumeEventSystem {
	return &ConsumeEventSystem{stores: GetStores(w), metrics: w.Metrics()}
}

func (s *ConsumeEventSystem) Name() string  { return "fsm.consume_event" }
func (s *ConsumeEventSystem) Priority() int { return parameter.PriorityConsumeEvent }

func (s *ConsumeEventSystem) Update(tick *engine.Tick) {
	for _, e := range s.stores.PendingEvents.All() {
		engine.Remove[HasFsmEvent](tick.Commands, e)

		m := s.stores.Machines.Ref(e)
		if m == nil || m.CurrentEvent == NullEvent {
			continue
		}
		tb := s.stores.Transitions.Ref(e)
		if tb == nil {
			continue
		}
		t, ok := tb.Match(m.CurrentState, m.CurrentEvent)
		if !ok {
			continue
		}

		m.CurrentState = t.ToState
		m.CurrentEvent = NullEvent
		engine.Set(tick.Commands, t.ToState, StateJustTransitioned{})
		s.metrics.Transitions.Inc()
	}
}

// ResetEventSystem clears events left unmatched so no machine stays blocked
type ResetEventSystem struct {
	stores  Stores
	metrics *status.Registry
	logger  *slog.Logger
}

// NewResetEventSystem creates the reset-event stage
func NewResetEventSystem(w *engine.World) *ResetEventSystem {
	return &ResetEventSystem{stores: GetStores(w), metrics: w.Metrics(), logger: w.Logger()}
}

func (s *ResetEventSystem) Name() string  { return "fsm.reset_event" }
func (s *ResetEventSystem) Priority() int { return parameter.PriorityResetEvent }

func (s *ResetEventSystem) Update(tick *engine.Tick) {
	for _, e := range s.stores.Machines.Entities() {
		m := s.stores.Machines.Ref(e)
		if m.CurrentEvent == NullEvent {
			continue
		}
		s.logger.Debug("event discarded", "machine", e.String(), "event", m.CurrentEvent, "tick", tick.Number)
		m.CurrentEvent = NullEvent
		s.metrics.EventsDiscarded.Inc()
	}
}
