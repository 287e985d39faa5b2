package engine

import "github.com/lixenwraith/swarm-fsm/core"

// AnyStore is the type-erased view of a Store[T]
// World uses it to strip every attribute of a destroyed record
type AnyStore interface {
	// Remove deletes the entity's component, no-op when absent
	Remove(e core.Entity)

	// Has checks if an entity has this component
	Has(e core.Entity) bool

	// Count returns the number of entities with this component
	Count() int
}

// QueryableStore can seed a query: its entity list is the base set that other stores filter
type QueryableStore interface {
	AnyStore

	// All returns a copy of all entities that have this component type
	All() []core.Entity
}
