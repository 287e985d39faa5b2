package system

import (
	"github.com/lixenwraith/swarm-fsm/component"
	"github.com/lixenwraith/swarm-fsm/engine"
	"github.com/lixenwraith/swarm-fsm/engine/fsm"
	"github.com/lixenwraith/swarm-fsm/parameter"
	"github.com/lixenwraith/swarm-fsm/vmath"
)

// MoveBehavior interpolates agents between two points
// Runs in parallel batches: it writes only its own payload and its agent's position
type MoveBehavior struct {
	positions *engine.Store[component.PositionComponent]
}

// NewMoveSystem creates the parallel move action stage
func NewMoveSystem(w *engine.World, opts engine.ParallelOptions) engine.System {
	b := &MoveBehavior{positions: engine.GetStore[component.PositionComponent](w)}
	return fsm.NewParallelActionSystem[component.MoveActionComponent](w, "move", parameter.PriorityMoveAction, b, opts)
}

// Enter snaps the agent to From; a degenerate or zero-duration move finishes at To without intermediate steps
func (b *MoveBehavior) Enter(ctx *fsm.ParallelContext[component.MoveActionComponent]) {
	mv := ctx.Payload
	if mv.From == mv.To || mv.Duration <= 0 {
		b.place(ctx, mv.To)
		ctx.Action.Finished = true
		return
	}
	b.place(ctx, mv.From)
}

// Update advances elapsed time and finishes on arrival
func (b *MoveBehavior) Update(ctx *fsm.ParallelContext[component.MoveActionComponent]) {
	mv := ctx.Payload
	mv.Elapsed += ctx.DeltaTime
	if mv.Elapsed >= mv.Duration {
		b.place(ctx, mv.To)
		ctx.Action.Finished = true
		return
	}

	num, den := int64(mv.Elapsed), int64(mv.Duration)
	b.place(ctx, component.Point{
		X: vmath.Lerp(mv.From.X, mv.To.X, num, den),
		Y: vmath.Lerp(mv.From.Y, mv.To.Y, num, den),
	})
}

func (b *MoveBehavior) place(ctx *fsm.ParallelContext[component.MoveActionComponent], p component.Point) {
	if pos := b.positions.Ref(ctx.Utility.Owner(ctx.Action)); pos != nil {
		pos.Point = p
	}
}

// MoveCheckFinishedSystem sends the finish event of moves completed by the parallel stage
type MoveCheckFinishedSystem struct {
	world   *engine.World
	actions *engine.Store[fsm.Action]
	moves   *engine.Store[component.MoveActionComponent]
}

// NewMoveCheckFinishedSystem creates the sequential companion of the move stage
func NewMoveCheckFinishedSystem(w *engine.World) engine.System {
	return &MoveCheckFinishedSystem{
		world:   w,
		actions: engine.GetStore[fsm.Action](w),
		moves:   engine.GetStore[component.MoveActionComponent](w),
	}
}

// Name returns system's name
func (s *MoveCheckFinishedSystem) Name() string {
	return "move.check_finished"
}

// Priority returns the system's priority
func (s *MoveCheckFinishedSystem) Priority() int {
	return parameter.PriorityMoveCheckFinished
}

// Update runs the finish check
func (s *MoveCheckFinishedSystem) Update(tick *engine.Tick) {
	u := fsm.NewUtility(s.world, tick.Commands)
	for _, e := range s.moves.Entities() {
		a := s.actions.Ref(e)
		if a == nil || !a.Finished {
			continue
		}
		mv := s.moves.Ref(e)
		if mv.FinishEvent == fsm.NullEvent || !u.CanExecute(a) {
			continue
		}
		u.SendEvent(a, mv.FinishEvent)
	}
}
