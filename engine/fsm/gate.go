package fsm

import (
	"github.com/lixenwraith/swarm-fsm/core"
	"github.com/lixenwraith/swarm-fsm/engine"
	"github.com/lixenwraith/swarm-fsm/engine/status"
	"github.com/lixenwraith/swarm-fsm/parameter"
)

// ActionStartSystem is the ordering barrier opening the action window
type ActionStartSystem struct{}

func (ActionStartSystem) Name() string            { return "fsm.action_start" }
func (ActionStartSystem) Priority() int           { return parameter.PriorityActionStart }
func (ActionStartSystem) Update(tick *engine.Tick) {}

// ActionEndSystem closes the action window and reclaims finished actions
// The only place finished actions are destroyed; it also sweeps actions whose state is no
// longer current, covering records that no action system carries a payload for
type ActionEndSystem struct {
	stores  Stores
	metrics *status.Registry
}

// NewActionEndSystem creates the action-end gate
func NewActionEndSystem(w *engine.World) *ActionEndSystem {
	return &ActionEndSystem{
		stores:  GetStores(w),
		metrics: w.Metrics(),
	}
}

func (s *ActionEndSystem) Name() string  { return "fsm.action_end" }
func (s *ActionEndSystem) Priority() int { return parameter.PriorityActionEnd }

func (s *ActionEndSystem) Update(tick *engine.Tick) {
	finished, orphaned := 0, 0
	for _, e := range s.stores.Actions.Entities() {
		a := s.stores.Actions.Ref(e)
		switch {
		case a.Finished:
			tick.Commands.Destroy(e)
			finished++
		case !s.isCurrent(a.StateOwner):
			tick.Commands.Destroy(e)
			orphaned++
		}
	}
	if finished > 0 {
		s.metrics.ActionsDestroyed.WithLabelValues(status.ReasonFinished).Add(float64(finished))
	}
	if orphaned > 0 {
		s.metrics.ActionsDestroyed.WithLabelValues(status.ReasonOrphaned).Add(float64(orphaned))
	}
}

// isCurrent ignores pending events: an unmatched event must not cost the state its actions
func (s *ActionEndSystem) isCurrent(state core.Entity) bool {
	st := s.stores.States.Ref(state)
	if st == nil {
		return false
	}
	m := s.stores.Machines.Ref(st.FsmOwner)
	return m != nil && m.CurrentState == state
}
