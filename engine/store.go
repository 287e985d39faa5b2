package engine

import (
	"github.com/lixenwraith/swarm-fsm/core"
	"github.com/lixenwraith/swarm-fsm/parameter"
)

// Store is a generic attribute table for component type T keyed by entity handle
// Uses the sparse set pattern: dense component and entity arrays plus a handle index
//
// Store holds no lock. Safety comes from stage exclusivity:
//   - Structural changes (Set on a new entity, Remove) happen only during
//     command playback at stage barriers or during setup, never while a stage runs
//   - While a stage runs, the handle index is read-only, so concurrent Get/Ref
//     lookups from parallel workers are safe
//   - Attribute writes through Ref are safe as long as no two workers in the
//     same stage write the same entity; the pipeline guarantees this by
//     assigning each record to exactly one worker
//
// Pointers returned by Ref are invalidated by the next structural change
type Store[T any] struct {
	dense    []T
	entities []core.Entity
	index    map[core.Entity]int
}

// NewStore creates a new component store for type T
func NewStore[T any]() *Store[T] {
	return &Store[T]{
		dense:    make([]T, 0, parameter.InitialStoreCapacity),
		entities: make([]core.Entity, 0, parameter.InitialStoreCapacity),
		index:    make(map[core.Entity]int, parameter.InitialStoreCapacity),
	}
}

// Set inserts or updates a component for an entity
// Inserting is a structural change
func (s *Store[T]) Set(e core.Entity, val T) {
	if i, ok := s.index[e]; ok {
		s.dense[i] = val
		return
	}
	s.index[e] = len(s.dense)
	s.dense = append(s.dense, val)
	s.entities = append(s.entities, e)
}

// Get retrieves a copy of the component for an entity
func (s *Store[T]) Get(e core.Entity) (T, bool) {
	if i, ok := s.index[e]; ok {
		return s.dense[i], true
	}
	var zero T
	return zero, false
}

// Ref returns a pointer to the entity's component for in-place attribute writes, nil if absent
func (s *Store[T]) Ref(e core.Entity) *T {
	if i, ok := s.index[e]; ok {
		return &s.dense[i]
	}
	return nil
}

// Remove deletes the component from an entity by swapping the last element into its slot
func (s *Store[T]) Remove(e core.Entity) {
	i, ok := s.index[e]
	if !ok {
		return
	}
	last := len(s.dense) - 1
	if i != last {
		s.dense[i] = s.dense[last]
		s.entities[i] = s.entities[last]
		s.index[s.entities[i]] = i
	}
	var zero T
	s.dense[last] = zero
	s.dense = s.dense[:last]
	s.entities = s.entities[:last]
	delete(s.index, e)
}

// Has checks if entity has this component
func (s *Store[T]) Has(e core.Entity) bool {
	_, ok := s.index[e]
	return ok
}

// All returns a copy of all entities with this component type
func (s *Store[T]) All() []core.Entity {
	result := make([]core.Entity, len(s.entities))
	copy(result, s.entities)
	return result
}

// Entities returns the live dense entity slice without copying
// Valid until the next structural change; stages may range over it because
// their own structural changes are deferred to the barrier
func (s *Store[T]) Entities() []core.Entity {
	return s.entities
}

// Count returns number of entities with this component
func (s *Store[T]) Count() int {
	return len(s.entities)
}

