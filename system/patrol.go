package system

import (
	_ "embed"
	"fmt"
	"time"

	"github.com/lixenwraith/swarm-fsm/component"
	"github.com/lixenwraith/swarm-fsm/core"
	"github.com/lixenwraith/swarm-fsm/engine"
	"github.com/lixenwraith/swarm-fsm/engine/fsm"
	"github.com/lixenwraith/swarm-fsm/parameter"
	"github.com/lixenwraith/swarm-fsm/registry"
)

//go:embed patrol.yaml
var patrolDefinition []byte

func init() {
	registry.RegisterDomain("patrol", registry.DomainEntry{
		Domain: func(w *engine.World) *fsm.Domain {
			return NewPatrolDomain(w, DefaultPatrolConfig())
		},
		Definition: PatrolDefinition,
	})
}

// PatrolDomain tags states prepared by the patrol domain
type PatrolDomain struct{}

// Patrol state IDs
const (
	StateIdle fsm.StateID = 1
	StateWalk fsm.StateID = 2
)

// Patrol events, matching patrol.yaml
const (
	EventWaited  fsm.EventID = 1
	EventArrived fsm.EventID = 2
)

// PatrolConfig tunes the patrol actions
type PatrolConfig struct {
	WaitDuration time.Duration `yaml:"wait_duration"`
	MoveDuration time.Duration `yaml:"move_duration"`
}

// DefaultPatrolConfig returns the parameter defaults
func DefaultPatrolConfig() PatrolConfig {
	return PatrolConfig{
		WaitDuration: parameter.PatrolWaitDuration,
		MoveDuration: parameter.PatrolMoveDuration,
	}
}

// PatrolDefinition parses the embedded patrol machine
func PatrolDefinition() (*fsm.Definition, error) {
	return fsm.ParseDefinition(patrolDefinition)
}

// NewPatrolDomain registers preparation for idle (timed wait) and walk (move to the next waypoint)
func NewPatrolDomain(w *engine.World, cfg PatrolConfig) *fsm.Domain {
	positions := engine.GetStore[component.PositionComponent](w)
	patrols := engine.GetStore[component.PatrolComponent](w)

	return fsm.NewDomain("patrol").
		Handle(StateIdle, func(ctx *fsm.PrepareContext) {
			a := fsm.AddAction(ctx.Commands, ctx.Entity)
			engine.Set(ctx.Commands, a, component.TimedWaitActionComponent{
				Duration:    cfg.WaitDuration,
				FinishEvent: EventWaited,
			})
		}).
		Handle(StateWalk, func(ctx *fsm.PrepareContext) {
			agent := ctx.Machine.Owner
			pos := positions.Ref(agent)
			patrol := patrols.Ref(agent)

			// An agent that cannot walk still gets a zero-length move so the machine leaves walk
			mv := component.MoveActionComponent{FinishEvent: EventArrived}
			if pos != nil {
				mv.From, mv.To = pos.Point, pos.Point
			}
			if pos == nil || patrol == nil {
				ctx.World.Logger().Warn("patrol agent cannot walk",
					"agent", agent.String(), "position", pos != nil, "patrol", patrol != nil)
			} else {
				if next, ok := patrol.Advance(); ok {
					mv.To = next
				}
				mv.Duration = cfg.MoveDuration
			}

			a := fsm.AddAction(ctx.Commands, ctx.Entity)
			engine.Set(ctx.Commands, a, mv)
		})
}

// InstallPatrol registers the FSM pipeline with the patrol domain and its action systems
// A nil def selects the embedded patrol machine; def must declare only the patrol state IDs
func InstallPatrol(w *engine.World, cfg PatrolConfig, def *fsm.Definition) (*fsm.Definition, error) {
	if def == nil {
		var err error
		if def, err = PatrolDefinition(); err != nil {
			return nil, err
		}
	}
	domain := NewPatrolDomain(w, cfg)
	if err := def.ValidateDomain(domain); err != nil {
		return nil, err
	}

	if err := fsm.Install(w, fsm.NewPrepareSystem[PatrolDomain](w, domain)); err != nil {
		return nil, err
	}
	for _, s := range []engine.System{
		NewMoveSystem(w, w.Config().Parallel()),
		NewMoveCheckFinishedSystem(w),
		NewTimedWaitSystem(w),
	} {
		if err := fsm.AddActionSystem(w, s); err != nil {
			return nil, err
		}
	}
	return def, nil
}

// SpawnPatrol creates an agent at start walking the waypoint loop, driven by a machine built from def
func SpawnPatrol(b *fsm.Builder, def *fsm.Definition, start component.Point, waypoints []component.Point) (core.Entity, *fsm.Instance, error) {
	w := b.World()
	agent := engine.With(
		engine.With(w.NewEntity(), engine.GetStore[component.PositionComponent](w), component.PositionComponent{Point: start}),
		engine.GetStore[component.PatrolComponent](w), component.PatrolComponent{Waypoints: waypoints},
	).Build()

	inst, err := fsm.Instantiate[PatrolDomain](b, def, agent)
	if err != nil {
		return core.NullEntity, nil, fmt.Errorf("spawn patrol: %w", err)
	}
	return agent, inst, nil
}

// SquareWaypoints returns count waypoints on square rings around origin, ring radius growing by spacing every four points
func SquareWaypoints(origin component.Point, spacing, count int) []component.Point {
	corners := [4][2]int{{1, 0}, {1, 1}, {0, 1}, {0, 0}}
	ox, oy := origin.Cell()

	wps := make([]component.Point, 0, count)
	for i := range count {
		ring := spacing * (i/4 + 1)
		c := corners[i%4]
		wps = append(wps, component.PointAt(ox+c[0]*ring, oy+c[1]*ring))
	}
	return wps
}
