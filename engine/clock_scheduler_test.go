package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClockScheduler_Step(t *testing.T) {
	w := NewTestWorld(WithConfig(Config{TickInterval: 20 * time.Millisecond}))
	var dts []time.Duration
	require.NoError(t, w.AddSystem(NewSystemFunc("recorder", 0, func(tick *Tick) {
		dts = append(dts, tick.DeltaTime)
	})))

	cs := NewClockScheduler(w, nil)
	cs.Step()
	cs.Step()

	assert.Equal(t, uint64(2), cs.Ticks())
	assert.Equal(t, uint64(2), w.TickNumber())
	assert.Equal(t, []time.Duration{20 * time.Millisecond, 20 * time.Millisecond}, dts)

	select {
	case <-cs.TickDone():
	default:
		t.Fatal("expected tick notification")
	}
}

func TestClockScheduler_RunsAndStops(t *testing.T) {
	w := NewTestWorld(WithConfig(Config{TickInterval: 2 * time.Millisecond}))
	var ticks atomic.Int64
	require.NoError(t, w.AddSystem(NewSystemFunc("counter", 0, func(*Tick) {
		ticks.Add(1)
	})))

	cs := NewClockScheduler(w, nil)
	cs.Start(context.Background())
	cs.Start(context.Background()) // second start is a no-op

	require.Eventually(t, func() bool { return ticks.Load() >= 5 }, 2*time.Second, time.Millisecond)

	cs.Stop()
	stopped := ticks.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, ticks.Load(), "no ticks after Stop")
	assert.Equal(t, uint64(stopped), cs.Ticks())

	cs.Stop() // idempotent
}

func TestClockScheduler_PauseHaltsTicks(t *testing.T) {
	w := NewTestWorld(WithConfig(Config{TickInterval: 2 * time.Millisecond}))
	var ticks atomic.Int64
	require.NoError(t, w.AddSystem(NewSystemFunc("counter", 0, func(*Tick) {
		ticks.Add(1)
	})))

	cs := NewClockScheduler(w, nil)
	cs.Start(context.Background())
	defer cs.Stop()

	require.Eventually(t, func() bool { return ticks.Load() >= 2 }, 2*time.Second, time.Millisecond)

	cs.Pause()
	assert.True(t, cs.IsPaused())
	// Allow an in-flight tick to land before sampling
	time.Sleep(10 * time.Millisecond)
	paused := ticks.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, paused, ticks.Load())

	cs.Resume()
	assert.False(t, cs.IsPaused())
	pausedFor := cs.PausedFor()
	assert.GreaterOrEqual(t, pausedFor, 40*time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, pausedFor, cs.PausedFor(), "pause total is frozen while running")
	require.Eventually(t, func() bool { return ticks.Load() > paused }, 2*time.Second, time.Millisecond)
}

func TestClockScheduler_ContextCancelEndsLoop(t *testing.T) {
	w := NewTestWorld(WithConfig(Config{TickInterval: time.Millisecond}))
	cs := NewClockScheduler(w, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cs.Start(ctx)
	require.Eventually(t, func() bool { return cs.Ticks() > 0 }, 2*time.Second, time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() {
		cs.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after context cancellation")
	}
}
