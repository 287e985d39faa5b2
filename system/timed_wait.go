package system

import (
	"github.com/lixenwraith/swarm-fsm/component"
	"github.com/lixenwraith/swarm-fsm/engine"
	"github.com/lixenwraith/swarm-fsm/engine/fsm"
	"github.com/lixenwraith/swarm-fsm/parameter"
)

// TimedWaitBehavior finishes after a fixed duration and sends its finish event
type TimedWaitBehavior struct{}

// NewTimedWaitSystem creates the sequential timed wait action stage
func NewTimedWaitSystem(w *engine.World) engine.System {
	return fsm.NewActionSystem[component.TimedWaitActionComponent](w, "timed_wait", parameter.PriorityTimedWaitAction, TimedWaitBehavior{})
}

// Enter finishes a non-positive wait immediately
func (TimedWaitBehavior) Enter(ctx *fsm.ActionContext[component.TimedWaitActionComponent]) {
	if ctx.Payload.Duration <= 0 {
		finishWait(ctx)
	}
}

// Update accumulates elapsed time
func (TimedWaitBehavior) Update(ctx *fsm.ActionContext[component.TimedWaitActionComponent]) {
	ctx.Payload.Elapsed += ctx.DeltaTime
	if ctx.Payload.Elapsed >= ctx.Payload.Duration {
		finishWait(ctx)
	}
}

func finishWait(ctx *fsm.ActionContext[component.TimedWaitActionComponent]) {
	ctx.Action.Finished = true
	if ev := ctx.Payload.FinishEvent; ev != fsm.NullEvent {
		ctx.Utility.SendEvent(ctx.Action, ev)
	}
}
