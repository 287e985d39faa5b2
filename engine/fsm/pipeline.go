package fsm

import (
	"fmt"

	"github.com/lixenwraith/swarm-fsm/engine"
	"github.com/lixenwraith/swarm-fsm/parameter"
)

// Install registers the FSM stages on w:
// start-state, consume-event, reset-event, the given preparation systems, action-start, action-end
// Action systems go in between with AddActionSystem
func Install(w *engine.World, prepare ...engine.System) error {
	systems := []engine.System{
		NewStartStateSystem(w),
		NewConsumeEventSystem(w),
		NewResetEventSystem(w),
	}
	for _, p := range prepare {
		if p.Priority() != parameter.PriorityPrepare {
			return fmt.Errorf("install %s: priority %d, want %d: %w", p.Name(), p.Priority(), parameter.PriorityPrepare, ErrStageOrder)
		}
		systems = append(systems, p)
	}
	systems = append(systems, ActionStartSystem{}, NewActionEndSystem(w))

	for _, s := range systems {
		if err := w.AddSystem(s); err != nil {
			return fmt.Errorf("install: %w", err)
		}
	}
	return nil
}

// AddActionSystem registers an action system, requiring its priority to be inside the action window
func AddActionSystem(w *engine.World, s engine.System) error {
	if p := s.Priority(); p <= parameter.PriorityActionStart || p >= parameter.PriorityActionEnd {
		return fmt.Errorf("add action system %s: priority %d outside (%d, %d): %w",
			s.Name(), p, parameter.PriorityActionStart, parameter.PriorityActionEnd, ErrStageOrder)
	}
	return w.AddSystem(s)
}
