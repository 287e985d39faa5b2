package component

import (
	"time"

	"github.com/lixenwraith/swarm-fsm/engine/fsm"
)

// MoveActionComponent interpolates the owning agent from From to To over Duration
// FinishEvent is sent by the sequential companion stage once the move finishes; NullEvent sends nothing
type MoveActionComponent struct {
	From, To    Point
	Duration    time.Duration
	Elapsed     time.Duration
	FinishEvent fsm.EventID
}

// TimedWaitActionComponent finishes after Duration and sends FinishEvent
type TimedWaitActionComponent struct {
	Duration    time.Duration
	Elapsed     time.Duration
	FinishEvent fsm.EventID
}
