package fsm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/swarm-fsm/core"
	"github.com/lixenwraith/swarm-fsm/engine"
)

const (
	stateA StateID = iota + 1
	stateB
	stateC
	stateUnhandled
)

const (
	eventGo EventID = iota + 1
	eventBack
	eventNowhere
)

const dt = 50 * time.Millisecond

// testDomain tags states prepared by the harness
type testDomain struct{}

// script is a test action payload recording calls and scripted sends
type script struct {
	Enters, Updates int
	FinishOnEnter   bool
	SendOnEnter     EventID
	SendOnUpdate    EventID // Sent once, then cleared
	SendTwice       bool
	Seen            *seen // Survives the record's destruction
}

type seen struct {
	Enters, Updates int
}

type scriptBehavior struct{}

func (scriptBehavior) Enter(ctx *ActionContext[script]) {
	ctx.Payload.Enters++
	if ctx.Payload.Seen != nil {
		ctx.Payload.Seen.Enters++
	}
	if ctx.Payload.FinishOnEnter {
		ctx.Action.Finished = true
	}
	if ctx.Payload.SendOnEnter != NullEvent {
		ctx.Utility.SendEvent(ctx.Action, ctx.Payload.SendOnEnter)
	}
}

func (scriptBehavior) Update(ctx *ActionContext[script]) {
	ctx.Payload.Updates++
	if ctx.Payload.Seen != nil {
		ctx.Payload.Seen.Updates++
	}
	if ev := ctx.Payload.SendOnUpdate; ev != NullEvent {
		ctx.Payload.SendOnUpdate = NullEvent
		ctx.Utility.SendEvent(ctx.Action, ev)
		if ctx.Payload.SendTwice {
			ctx.Utility.SendEvent(ctx.Action, ev)
		}
	}
}

type harness struct {
	t        *testing.T
	world    *engine.World
	builder  *Builder
	stores   Stores
	scripts   *engine.Store[script]
	prepared map[core.Entity]int
}

// newHarness installs the pipeline with one sequential script action system
// States A, B and C attach one script action each when prepared
func newHarness(t *testing.T, opts ...engine.Option) *harness {
	t.Helper()
	w := engine.NewTestWorld(opts...)
	h := &harness{
		t:        t,
		world:    w,
		builder:  NewBuilder(w),
		stores:   GetStores(w),
		scripts:   engine.GetStore[script](w),
		prepared: make(map[core.Entity]int),
	}

	domain := NewDomain("test")
	for _, id := range []StateID{stateA, stateB, stateC} {
		domain.Handle(id, h.attachScript)
	}
	require.NoError(t, Install(w, NewPrepareSystem[testDomain](w, domain)))
	require.NoError(t, AddActionSystem(w, NewActionSystem[script](w, "test.script", 150, scriptBehavior{})))
	return h
}

func (h *harness) attachScript(ctx *PrepareContext) {
	h.prepared[ctx.Entity]++
	a := AddAction(ctx.Commands, ctx.Entity)
	engine.Set(ctx.Commands, a, script{})
}

// machine builds a machine with states A and B started in A
func (h *harness) machine() (m, a, b core.Entity) {
	h.t.Helper()
	m = h.builder.CreateFsm(h.world.CreateEntity())
	a = h.state(m, stateA)
	b = h.state(m, stateB)
	require.NoError(h.t, h.builder.Start(m, a))
	return m, a, b
}

func (h *harness) state(m core.Entity, id StateID) core.Entity {
	h.t.Helper()
	s, err := AddState[testDomain](h.builder, m, id)
	require.NoError(h.t, err)
	return s
}

func (h *harness) tick(n int) {
	engine.RunTicks(h.world, n, dt)
}

func (h *harness) current(m core.Entity) Machine {
	v, ok := h.stores.Machines.Get(m)
	require.True(h.t, ok)
	return v
}

// actionsOf returns the live action records bound to state
func (h *harness) actionsOf(state core.Entity) []core.Entity {
	var out []core.Entity
	for _, e := range h.stores.Actions.Entities() {
		if a, _ := h.stores.Actions.Get(e); a.StateOwner == state {
			out = append(out, e)
		}
	}
	return out
}

// soleScript returns the payload of the single action bound to state
func (h *harness) soleScript(state core.Entity) *script {
	h.t.Helper()
	actions := h.actionsOf(state)
	require.Len(h.t, actions, 1)
	p := h.scripts.Ref(actions[0])
	require.NotNil(h.t, p)
	return p
}

// pend sets a pending event the way SendEvent does, outside a tick
func (h *harness) pend(m core.Entity, ev EventID) {
	h.stores.Machines.Ref(m).CurrentEvent = ev
	h.stores.PendingEvents.Set(m, HasFsmEvent{})
}
