package fsm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lixenwraith/swarm-fsm/core"
)

var (
	// ErrNullEvent is returned when a transition is keyed on NullEvent
	ErrNullEvent = errors.New("transition event must not be the null event")

	// ErrMissingPreparation is raised when a state has no preparation routine for its StateID
	ErrMissingPreparation = errors.New("missing preparation action")

	// ErrEventPending is raised when an event is sent to a machine that already has one pending
	ErrEventPending = errors.New("machine already has a pending event")

	// ErrUnknownState is returned for handles that are not live states of the machine
	ErrUnknownState = errors.New("unknown state")

	// ErrUnknownMachine is returned for handles that are not live machines
	ErrUnknownMachine = errors.New("unknown machine")

	// ErrAlreadyStarted is returned when a machine with a current or pending start state is started again
	ErrAlreadyStarted = errors.New("machine already started")

	// ErrStageOrder is returned when a system's priority places it in the wrong pipeline stage
	ErrStageOrder = errors.New("system priority outside its stage")

	// ErrInvalidDefinition is returned when a machine definition fails validation
	ErrInvalidDefinition = errors.New("invalid machine definition")
)

// ConfigError describes a caller misuse of the FSM API
type ConfigError struct {
	Op      string
	Domain  string
	Machine core.Entity
	State   core.Entity
	StateID StateID
	Event   EventID
	Err     error
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("fsm ")
	b.WriteString(e.Op)
	if e.Domain != "" {
		fmt.Fprintf(&b, " domain=%s", e.Domain)
	}
	if !e.Machine.IsNull() {
		fmt.Fprintf(&b, " machine=%s", e.Machine)
	}
	if !e.State.IsNull() {
		fmt.Fprintf(&b, " state=%s stateId=%d", e.State, e.StateID)
	}
	if e.Event != NullEvent {
		fmt.Fprintf(&b, " event=%d", e.Event)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *ConfigError) Unwrap() error { return e.Err }
