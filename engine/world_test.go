package engine

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/swarm-fsm/core"
	"github.com/lixenwraith/swarm-fsm/logging"
)

type worldTag struct{}

func TestWorld_HandleGenerations(t *testing.T) {
	w := NewTestWorld()

	e1 := w.CreateEntity()
	require.True(t, w.IsAlive(e1))
	require.NotEqual(t, core.NullEntity, e1)
	assert.Equal(t, uint32(1), e1.Generation())

	require.NoError(t, w.DestroyEntity(e1))
	assert.False(t, w.IsAlive(e1))

	// Slot recycled with a new generation; old handle stays dead
	e2 := w.CreateEntity()
	assert.Equal(t, e1.Index(), e2.Index())
	assert.Equal(t, uint32(2), e2.Generation())
	assert.False(t, w.IsAlive(e1))

	assert.ErrorIs(t, w.DestroyEntity(e1), ErrStaleEntity)
	assert.ErrorIs(t, w.DestroyEntity(core.NullEntity), ErrStaleEntity)
}

func TestWorld_DestroyRemovesAllComponents(t *testing.T) {
	w := NewTestWorld()
	tags := GetStore[worldTag](w)
	counters := GetStore[storeCounter](w)

	e := w.CreateEntity()
	tags.Set(e, worldTag{})
	counters.Set(e, storeCounter{5})

	require.NoError(t, w.DestroyEntity(e))
	assert.False(t, tags.Has(e))
	assert.False(t, counters.Has(e))
	assert.Equal(t, 0, w.EntityCount())
}

func TestWorld_GetStoreIsStable(t *testing.T) {
	w := NewTestWorld()
	assert.Same(t, GetStore[worldTag](w), GetStore[worldTag](w))
}

func TestWorld_SystemsRunByPriority(t *testing.T) {
	w := NewTestWorld()
	var order []string

	record := func(name string) func(*Tick) {
		return func(*Tick) { order = append(order, name) }
	}

	require.NoError(t, w.AddSystem(NewSystemFunc("late", 30, record("late"))))
	require.NoError(t, w.AddSystem(NewSystemFunc("early", 10, record("early"))))
	require.NoError(t, w.AddSystem(NewSystemFunc("mid-a", 20, record("mid-a"))))
	require.NoError(t, w.AddSystem(NewSystemFunc("mid-b", 20, record("mid-b"))))

	err := w.AddSystem(NewSystemFunc("early", 5, record("dup")))
	assert.ErrorIs(t, err, ErrSystemExists)

	w.Update(time.Millisecond)
	assert.Equal(t, []string{"early", "mid-a", "mid-b", "late"}, order)
	assert.Equal(t, uint64(1), w.TickNumber())
	assert.Equal(t, 1.0, testutil.ToFloat64(w.Metrics().Ticks))
}

func TestWorld_BarrierBetweenStages(t *testing.T) {
	w := NewTestWorld()
	tags := GetStore[worldTag](w)
	e := w.CreateEntity()

	var seenInWriter, seenInReader bool
	require.NoError(t, w.AddSystem(NewSystemFunc("writer", 10, func(tick *Tick) {
		Set(tick.Commands, e, worldTag{})
		seenInWriter = tags.Has(e)
	})))
	require.NoError(t, w.AddSystem(NewSystemFunc("reader", 20, func(tick *Tick) {
		seenInReader = tags.Has(e)
	})))

	w.Update(time.Millisecond)
	assert.False(t, seenInWriter, "change must not be visible inside the stage that made it")
	assert.True(t, seenInReader, "change must be visible to the next stage")
}

func TestWorld_BarrierLogsPendingCommands(t *testing.T) {
	var buf bytes.Buffer
	w := NewTestWorld(WithLogger(logging.NewWithWriter(&buf, slog.LevelDebug, logging.FormatText)))
	e := w.CreateEntity()

	require.NoError(t, w.AddSystem(NewSystemFunc("writer", 10, func(tick *Tick) {
		Set(tick.Commands, e, worldTag{})
		tick.Commands.Create()
	})))
	require.NoError(t, w.AddSystem(NewSystemFunc("idle", 20, func(*Tick) {})))

	w.Update(time.Millisecond)
	out := buf.String()
	assert.Contains(t, out, `msg="stage barrier" system=writer tick=1 pending=2`)
	assert.NotContains(t, out, "system=idle", "empty barriers are not logged")
}

func TestWorld_RecycledSlotsNeverRevive(t *testing.T) {
	w := NewTestWorld()
	tags := GetStore[worldTag](w)

	old := make([]core.Entity, 3)
	for i := range old {
		old[i] = w.CreateEntity()
		tags.Set(old[i], worldTag{})
	}
	for _, e := range old {
		require.NoError(t, w.DestroyEntity(e))
	}
	require.Equal(t, 0, w.EntityCount())
	require.Equal(t, 0, tags.Count())

	// Every slot is reused, each under a fresh generation
	for range old {
		fresh := w.CreateEntity()
		assert.NotContains(t, old, fresh)
	}
	for _, e := range old {
		assert.False(t, w.IsAlive(e), "handle %s resolved after its slot was recycled", e)
		assert.False(t, tags.Has(e))
	}
}
