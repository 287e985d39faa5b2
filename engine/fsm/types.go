package fsm

import (
	"github.com/lixenwraith/swarm-fsm/core"
	"github.com/lixenwraith/swarm-fsm/engine"
)

// EventID identifies a transition trigger within a machine
type EventID uint32

// NullEvent means "no pending event"; never valid as a transition trigger
const NullEvent EventID = 0

// StateID is a small domain-chosen tag used to select preparation logic
type StateID int

// Machine is one running FSM driving an external agent
type Machine struct {
	Owner        core.Entity // Driven agent, opaque to the engine
	CurrentState core.Entity // NullEntity until the start state is activated
	CurrentEvent EventID     // At most one pending event
}

// State is one node of a machine's graph
type State struct {
	EntityOwner core.Entity
	FsmOwner    core.Entity
	StateID     StateID
}

// Transition is a rule (FromState, Event) -> ToState
type Transition struct {
	FsmOwner  core.Entity
	FromState core.Entity
	ToState   core.Entity
	Event     EventID
}

// TransitionBuffer is the ordered transition list of a machine; first match wins
type TransitionBuffer struct {
	Transitions []Transition
}

// Match returns the first transition leaving from on event
func (tb *TransitionBuffer) Match(from core.Entity, event EventID) (Transition, bool) {
	for _, t := range tb.Transitions {
		if t.FromState == from && t.Event == event {
			return t, true
		}
	}
	return Transition{}, false
}

// Action is one running behavior bound to a state
// Domain payload components live on the same record
type Action struct {
	StateOwner core.Entity
	Entered    bool
	Finished   bool
}

// StartState marks a state awaiting initial activation
type StartState struct{}

// StateJustTransitioned marks a state awaiting preparation
type StateJustTransitioned struct{}

// HasFsmEvent marks a machine awaiting event consumption
type HasFsmEvent struct{}

// Stores bundles the typed stores used by the FSM stages
type Stores struct {
	Machines      *engine.Store[Machine]
	States        *engine.Store[State]
	Transitions   *engine.Store[TransitionBuffer]
	Actions       *engine.Store[Action]
	StartStates   *engine.Store[StartState]
	JustEntered   *engine.Store[StateJustTransitioned]
	PendingEvents *engine.Store[HasFsmEvent]
}

// GetStores resolves the FSM stores of a world
func GetStores(w *engine.World) Stores {
	return Stores{
		Machines:      engine.GetStore[Machine](w),
		States:        engine.GetStore[State](w),
		Transitions:   engine.GetStore[TransitionBuffer](w),
		Actions:       engine.GetStore[Action](w),
		StartStates:   engine.GetStore[StartState](w),
		JustEntered:   engine.GetStore[StateJustTransitioned](w),
		PendingEvents: engine.GetStore[HasFsmEvent](w),
	}
}
