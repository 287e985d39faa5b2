package fsm

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/swarm-fsm/core"
)

func TestStartState_SingleActivation(t *testing.T) {
	h := newHarness(t)
	m, a, _ := h.machine()

	assert.Equal(t, core.NullEntity, h.current(m).CurrentState)

	h.tick(1)
	assert.Equal(t, a, h.current(m).CurrentState)
	assert.Equal(t, NullEvent, h.current(m).CurrentEvent)
	assert.Equal(t, 1, h.prepared[a])
	assert.False(t, h.stores.StartStates.Has(a))
	assert.False(t, h.stores.JustEntered.Has(a))

	p := h.soleScript(a)
	assert.Equal(t, 1, p.Enters)
	assert.Equal(t, 1, p.Updates, "update runs on the entering tick")

	h.tick(5)
	assert.Equal(t, 1, h.prepared[a], "no re-preparation without a transition")
	p = h.soleScript(a)
	assert.Equal(t, 1, p.Enters)
	assert.Equal(t, 6, p.Updates)
}

func TestConsumeEvent_TransitionCorrectness(t *testing.T) {
	h := newHarness(t)
	m, a, b := h.machine()
	require.NoError(t, h.builder.AddTransition(m, a, eventGo, b))

	h.tick(1)
	oldAction := h.actionsOf(a)[0]
	h.soleScript(a).SendOnUpdate = eventGo

	// Send happens during this tick's action stage
	h.tick(1)
	assert.Equal(t, a, h.current(m).CurrentState)
	assert.Equal(t, eventGo, h.current(m).CurrentEvent)
	assert.True(t, h.stores.PendingEvents.Has(m))

	h.tick(1)
	assert.Equal(t, b, h.current(m).CurrentState)
	assert.Equal(t, NullEvent, h.current(m).CurrentEvent)
	assert.False(t, h.stores.PendingEvents.Has(m))
	assert.Empty(t, h.actionsOf(a))
	assert.False(t, h.world.IsAlive(oldAction))
	assert.Equal(t, 1, h.prepared[b])

	p := h.soleScript(b)
	assert.Equal(t, 1, p.Enters)

	assert.Equal(t, 1.0, testutil.ToFloat64(h.world.Metrics().Transitions))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.world.Metrics().EventsSent))
}

func TestConsumeEvent_RoundTrip(t *testing.T) {
	h := newHarness(t)
	m, a, b := h.machine()
	require.NoError(t, h.builder.AddTransition(m, a, eventGo, b))
	require.NoError(t, h.builder.AddTransition(m, b, eventBack, a))

	h.tick(1)
	h.pend(m, eventGo)
	h.tick(1)
	require.Equal(t, b, h.current(m).CurrentState)

	h.pend(m, eventBack)
	h.tick(1)
	assert.Equal(t, a, h.current(m).CurrentState)
	assert.Equal(t, 2, h.prepared[a], "re-entry prepares again")
	assert.Len(t, h.actionsOf(a), 1)
	assert.Empty(t, h.actionsOf(b))
}

func TestConsumeEvent_FirstMatchWins(t *testing.T) {
	h := newHarness(t)
	m, a, b := h.machine()
	c := h.state(m, stateC)
	require.NoError(t, h.builder.AddTransition(m, a, eventGo, b))
	require.NoError(t, h.builder.AddTransition(m, a, eventGo, c))

	shadowed := h.builder.UnreachableTransitions(m)
	require.Len(t, shadowed, 1)
	assert.Equal(t, c, shadowed[0].ToState)

	for range 3 {
		h.tick(1)
		h.pend(m, eventGo)
		h.tick(1)
		assert.Equal(t, b, h.current(m).CurrentState)
		assert.Zero(t, h.prepared[c])

		// Reset to A for the next round
		h.stores.Machines.Ref(m).CurrentState = a
	}
}

func TestResetEvent_NoStuckEvents(t *testing.T) {
	h := newHarness(t)
	m, a, b := h.machine()
	require.NoError(t, h.builder.AddTransition(m, b, eventNowhere, a))
	h.tick(1)

	// Tagged event with no transition from the current state
	h.pend(m, eventNowhere)
	h.tick(1)
	assert.Equal(t, NullEvent, h.current(m).CurrentEvent)
	assert.Equal(t, a, h.current(m).CurrentState)
	assert.False(t, h.stores.PendingEvents.Has(m))

	// Stale event without the tag
	h.stores.Machines.Ref(m).CurrentEvent = eventGo
	h.tick(1)
	assert.Equal(t, NullEvent, h.current(m).CurrentEvent)
	assert.Equal(t, a, h.current(m).CurrentState)

	assert.Equal(t, 2.0, testutil.ToFloat64(h.world.Metrics().EventsDiscarded))

	// The state keeps its action across discarded events
	assert.Len(t, h.actionsOf(a), 1)
}

func TestTransition_TagsOnlyViaBarrier(t *testing.T) {
	h := newHarness(t)
	m, a, _ := h.machine()

	h.tick(1)
	assert.Equal(t, a, h.current(m).CurrentState)
	assert.Equal(t, 0, h.stores.JustEntered.Count())
	assert.Equal(t, 0, h.stores.StartStates.Count())
	assert.Equal(t, 0, h.stores.PendingEvents.Count())
}
