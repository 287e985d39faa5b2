package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/swarm-fsm/core"
	"github.com/lixenwraith/swarm-fsm/parameter"
)

// ClockScheduler drives World.Update on a fixed tick
// Handles pause-aware scheduling without busy-wait and corrects drift against the tick deadline
type ClockScheduler struct {
	world *World
	clock *PausableClock

	// Tick configuration
	tickInterval     time.Duration
	nextTickDeadline time.Time
	mu               sync.Mutex

	// Tick counter for debugging and metrics
	tickCount atomic.Uint64

	// Control
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	running  atomic.Bool

	// Signalled (non-blocking) after every completed tick
	tickDone chan struct{}
}

// NewClockScheduler creates a scheduler using the world's configured tick interval
func NewClockScheduler(world *World, clock *PausableClock) *ClockScheduler {
	if clock == nil {
		clock = NewPausableClock(nil)
	}
	return &ClockScheduler{
		world:        world,
		clock:        clock,
		tickInterval: world.Config().TickInterval,
		stopChan:     make(chan struct{}),
		tickDone:     make(chan struct{}, 1),
	}
}

// TickDone returns a channel signalled after ticks; signals coalesce when the reader lags
func (cs *ClockScheduler) TickDone() <-chan struct{} {
	return cs.tickDone
}

// Ticks returns the number of ticks run by this scheduler
func (cs *ClockScheduler) Ticks() uint64 {
	return cs.tickCount.Load()
}

// Pause freezes the simulation clock; the loop idles until Resume
func (cs *ClockScheduler) Pause() {
	cs.clock.Pause()
	cs.world.Logger().Debug("scheduler paused", "tick", cs.tickCount.Load())
}

// IsPaused reports whether the simulation clock is frozen
func (cs *ClockScheduler) IsPaused() bool {
	return cs.clock.IsPaused()
}

// PausedFor returns the simulation time lost to pauses, including an ongoing one
func (cs *ClockScheduler) PausedFor() time.Duration {
	return cs.clock.TotalPauseDuration()
}

// Resume continues ticking from the current simulation time
func (cs *ClockScheduler) Resume() {
	cs.clock.Resume()
	cs.mu.Lock()
	cs.nextTickDeadline = cs.clock.Now().Add(cs.tickInterval)
	cs.mu.Unlock()
	cs.world.Logger().Debug("scheduler resumed", "tick", cs.tickCount.Load(), "paused_total", cs.PausedFor())
}

// Start begins the scheduler loop; the loop ends on Stop or when ctx is done
func (cs *ClockScheduler) Start(ctx context.Context) {
	if cs.running.CompareAndSwap(false, true) {
		cs.wg.Add(1)
		cs.world.Logger().Info("scheduler started", "interval", cs.tickInterval)
		core.Go(func() { cs.schedulerLoop(ctx) })
	}
}

// Stop halts the scheduler loop and waits for the in-flight tick to finish
func (cs *ClockScheduler) Stop() {
	cs.stopOnce.Do(func() {
		if cs.running.CompareAndSwap(true, false) {
			close(cs.stopChan)
			cs.wg.Wait()
			cs.world.Logger().Info("scheduler stopped", "ticks", cs.tickCount.Load())
		}
	})
}

// Step runs exactly one tick synchronously
// Must not be mixed with a running loop
func (cs *ClockScheduler) Step() {
	cs.processTick()
}

// schedulerLoop runs the main scheduling loop with pause awareness
func (cs *ClockScheduler) schedulerLoop(ctx context.Context) {
	defer cs.wg.Done()

	cs.mu.Lock()
	cs.nextTickDeadline = cs.clock.Now().Add(cs.tickInterval)
	cs.mu.Unlock()

	timer := time.NewTimer(0)
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	defer timer.Stop()

	for {
		select {
		case <-cs.stopChan:
			return
		case <-ctx.Done():
			return
		default:
		}

		var sleepDuration time.Duration

		if cs.clock.IsPaused() {
			sleepDuration = cs.tickInterval * parameter.PausedSleepFactor
		} else {
			now := cs.clock.Now()

			cs.mu.Lock()
			deadline := cs.nextTickDeadline
			cs.mu.Unlock()

			if !now.Before(deadline) {
				cs.processTick()

				cs.mu.Lock()
				cs.nextTickDeadline = cs.nextTickDeadline.Add(cs.tickInterval)
				// Too far behind: resynchronize instead of bursting ticks
				if now.Sub(cs.nextTickDeadline) > cs.tickInterval*parameter.TickBacklogLimit {
					cs.nextTickDeadline = now.Add(cs.tickInterval)
				}
				deadline = cs.nextTickDeadline
				cs.mu.Unlock()
			}

			sleepDuration = deadline.Sub(cs.clock.Now())
		}

		if sleepDuration > 0 {
			timer.Reset(sleepDuration)
			select {
			case <-timer.C:
			case <-cs.stopChan:
				return
			case <-ctx.Done():
				return
			}
		}
	}
}

// processTick executes one clock cycle
func (cs *ClockScheduler) processTick() {
	cs.world.Update(cs.tickInterval)
	cs.tickCount.Add(1)

	select {
	case cs.tickDone <- struct{}{}:
	default:
	}
}
