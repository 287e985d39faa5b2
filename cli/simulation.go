package cli

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lixenwraith/swarm-fsm/component"
	"github.com/lixenwraith/swarm-fsm/core"
	"github.com/lixenwraith/swarm-fsm/engine"
	"github.com/lixenwraith/swarm-fsm/engine/fsm"
	"github.com/lixenwraith/swarm-fsm/engine/status"
	"github.com/lixenwraith/swarm-fsm/system"
)

// Simulation is a world of patrol agents driven by one machine definition each
type Simulation struct {
	RunID     string
	World     *engine.World
	Def       *fsm.Definition
	Agents    []core.Entity
	instances []*fsm.Instance
	stateName map[core.Entity]string
}

// Status is a point-in-time summary of a simulation
type Status struct {
	RunID    string         `json:"run_id"`
	Machine  string         `json:"machine"`
	Tick     uint64         `json:"tick"`
	Entities int            `json:"entities"`
	Agents   int            `json:"agents"`
	States   map[string]int `json:"states"`
	Pending  int            `json:"pending_events"`
}

// NewSimulation builds the world, installs the patrol pipeline and spawns cfg.Agents agents
// Metrics are registered on reg when non-nil
func NewSimulation(cfg Config, logger *slog.Logger, reg prometheus.Registerer) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var def *fsm.Definition
	if cfg.Definition != "" {
		var err error
		if def, err = fsm.LoadDefinitionFile(cfg.Definition); err != nil {
			return nil, err
		}
	}

	runID := uuid.NewString()
	w := engine.NewWorld(
		engine.WithLogger(logger.With("run", runID)),
		engine.WithMetrics(status.NewRegistry(reg)),
		engine.WithConfig(cfg.Engine),
	)

	def, err := system.InstallPatrol(w, cfg.Patrol, def)
	if err != nil {
		return nil, err
	}
	for _, t := range def.Shadowed() {
		w.Logger().Warn("unreachable transition", "from", t.From, "event", t.Event, "to", t.To)
	}

	sim := &Simulation{
		RunID:     runID,
		World:     w,
		Def:       def,
		Agents:    make([]core.Entity, 0, cfg.Agents),
		instances: make([]*fsm.Instance, 0, cfg.Agents),
		stateName: make(map[core.Entity]string),
	}

	b := fsm.NewBuilder(w)
	cols := max(1, isqrt(cfg.Agents))
	cell := cfg.Spacing * 2
	for i := range cfg.Agents {
		origin := component.PointAt((i%cols)*cell, (i/cols)*cell)
		agent, inst, err := system.SpawnPatrol(b, def, origin, system.SquareWaypoints(origin, cfg.Spacing, cfg.Waypoints))
		if err != nil {
			return nil, fmt.Errorf("agent %d: %w", i, err)
		}
		sim.Agents = append(sim.Agents, agent)
		sim.instances = append(sim.instances, inst)
		for name, s := range inst.States {
			sim.stateName[s] = name
		}
	}

	w.Logger().Info("simulation ready", "machine", def.Name, "agents", cfg.Agents, "systems", len(w.Systems()))
	return sim, nil
}

// Status snapshots the simulation under the world's update lock
func (s *Simulation) Status() Status {
	st := Status{
		RunID:   s.RunID,
		Machine: s.Def.Name,
		Agents:  len(s.Agents),
		States:  make(map[string]int, len(s.Def.States)),
	}

	s.World.RunSafe(func() {
		machines := engine.GetStore[fsm.Machine](s.World)
		for _, inst := range s.instances {
			m, ok := machines.Get(inst.Machine)
			if !ok {
				continue
			}
			name, ok := s.stateName[m.CurrentState]
			if !ok {
				name = "inactive"
			}
			st.States[name]++
			if m.CurrentEvent != fsm.NullEvent {
				st.Pending++
			}
		}
		st.Entities = s.World.EntityCount()
	})
	st.Tick = s.World.TickNumber()
	return st
}

// StateNames returns the definition's state names in declaration order
func (s *Simulation) StateNames() []string {
	names := make([]string, 0, len(s.Def.States))
	for _, st := range s.Def.States {
		names = append(names, st.Name)
	}
	return names
}

// AgentView is one agent's rendered state
type AgentView struct {
	Agent    core.Entity
	Position component.Point
	State    string
}

// Snapshot returns every agent's position and current state name under the world's update lock
func (s *Simulation) Snapshot() []AgentView {
	out := make([]AgentView, 0, len(s.Agents))
	s.World.RunSafe(func() {
		positions := engine.GetStore[component.PositionComponent](s.World)
		machines := engine.GetStore[fsm.Machine](s.World)
		for i, a := range s.Agents {
			v := AgentView{Agent: a, State: "inactive"}
			if p, ok := positions.Get(a); ok {
				v.Position = p.Point
			}
			if m, ok := machines.Get(s.instances[i].Machine); ok {
				if name, ok := s.stateName[m.CurrentState]; ok {
					v.State = name
				}
			}
			out = append(out, v)
		}
	})
	return out
}

// sortedStates renders the state histogram deterministically for logs
func sortedStates(states map[string]int) []any {
	args := make([]any, 0, len(states)*2)
	for _, name := range slices.Sorted(maps.Keys(states)) {
		args = append(args, name, states[name])
	}
	return args
}

func isqrt(n int) int {
	r := 0
	for (r+1)*(r+1) <= n {
		r++
	}
	return r
}
