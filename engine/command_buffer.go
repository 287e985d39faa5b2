package engine

import (
	"slices"
	"sync"

	"github.com/lixenwraith/swarm-fsm/core"
	"github.com/lixenwraith/swarm-fsm/parameter"
)

type commandKind uint8

const (
	cmdCreate commandKind = iota
	cmdDestroy
	cmdSet
	cmdRemove
)

func (k commandKind) String() string {
	switch k {
	case cmdCreate:
		return "create"
	case cmdDestroy:
		return "destroy"
	case cmdSet:
		return "set"
	case cmdRemove:
		return "remove"
	}
	return "unknown"
}

// command is one deferred structural change
// apply is non-nil for set/remove and writes a single typed store
type command struct {
	kind   commandKind
	key    int
	entity core.Entity
	apply  func()
}

// Recorder is the write side of a deferred mutation log
// Implemented by *CommandBuffer (sequential stages) and Writer (parallel batches)
type Recorder interface {
	// Create reserves a handle; the record becomes live at playback
	Create() core.Entity
	// Destroy enqueues destruction of a record
	Destroy(e core.Entity)

	buffer() *CommandBuffer
	sortKey() int
}

// CommandBuffer is an append-only log of structural changes collected during
// one stage and applied in a single pass at the barrier that follows it
// Appends are goroutine-safe; playback is not and runs on the tick goroutine
type CommandBuffer struct {
	world    *World
	mu       sync.Mutex
	commands []command
	keyed    bool
}

// NewCommandBuffer creates an empty log bound to a world
func NewCommandBuffer(w *World) *CommandBuffer {
	return &CommandBuffer{
		world:    w,
		commands: make([]command, 0, parameter.InitialCommandCapacity),
	}
}

func (cb *CommandBuffer) buffer() *CommandBuffer { return cb }
func (cb *CommandBuffer) sortKey() int           { return 0 }

// Writer returns a recorder whose commands carry the given sort key
// Parallel stages pass the record's batch index so playback order does not depend on worker scheduling
func (cb *CommandBuffer) Writer(key int) Writer {
	return Writer{cb: cb, key: key}
}

// Create reserves a handle; components enqueued for it with Set are applied after it is committed
func (cb *CommandBuffer) Create() core.Entity {
	return create(cb, 0)
}

// Destroy enqueues destruction of a record
func (cb *CommandBuffer) Destroy(e core.Entity) {
	cb.append(command{kind: cmdDestroy, entity: e})
}

// Len returns the number of pending commands
func (cb *CommandBuffer) Len() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return len(cb.commands)
}

func (cb *CommandBuffer) append(c command) {
	cb.mu.Lock()
	cb.commands = append(cb.commands, c)
	if c.key != 0 {
		cb.keyed = true
	}
	cb.mu.Unlock()
}

// Playback applies and clears all pending commands
// Commands are ordered by sort key, then by append order
// Set/Remove targeting a handle that is not live (destroyed earlier, stale) are skipped
func (cb *CommandBuffer) Playback() (applied, skipped int) {
	cb.mu.Lock()
	cmds := cb.commands
	keyed := cb.keyed
	cb.commands = cb.commands[:0]
	cb.keyed = false
	cb.mu.Unlock()

	if len(cmds) == 0 {
		return 0, 0
	}
	if keyed {
		slices.SortStableFunc(cmds, func(a, b command) int {
			return a.key - b.key
		})
	}

	w := cb.world
	for i := range cmds {
		c := &cmds[i]
		ok := true
		switch c.kind {
		case cmdCreate:
			ok = w.commitEntity(c.entity)
		case cmdDestroy:
			ok = w.DestroyEntity(c.entity) == nil
		case cmdSet, cmdRemove:
			if ok = w.IsAlive(c.entity); ok {
				c.apply()
			}
		}

		if ok {
			applied++
		} else {
			skipped++
			w.logger.Debug("command skipped", "kind", c.kind.String(), "entity", c.entity.String())
		}
		c.apply = nil
	}

	return applied, skipped
}

// Writer records into a CommandBuffer under a fixed sort key
type Writer struct {
	cb  *CommandBuffer
	key int
}

func (w Writer) buffer() *CommandBuffer { return w.cb }
func (w Writer) sortKey() int           { return w.key }

// Create reserves a handle under the writer's sort key
func (w Writer) Create() core.Entity {
	return create(w.cb, w.key)
}

// Destroy enqueues destruction under the writer's sort key
func (w Writer) Destroy(e core.Entity) {
	w.cb.append(command{kind: cmdDestroy, key: w.key, entity: e})
}

func create(cb *CommandBuffer, key int) core.Entity {
	e := cb.world.reserveEntity()
	cb.append(command{kind: cmdCreate, key: key, entity: e})
	return e
}

// Set enqueues an insert-or-update of component T on e
func Set[T any](r Recorder, e core.Entity, val T) {
	cb := r.buffer()
	store := GetStore[T](cb.world)
	cb.append(command{
		kind:   cmdSet,
		key:    r.sortKey(),
		entity: e,
		apply:  func() { store.Set(e, val) },
	})
}

// Remove enqueues removal of component T from e
func Remove[T any](r Recorder, e core.Entity) {
	cb := r.buffer()
	store := GetStore[T](cb.world)
	cb.append(command{
		kind:   cmdRemove,
		key:    r.sortKey(),
		entity: e,
		apply:  func() { store.Remove(e) },
	})
}
