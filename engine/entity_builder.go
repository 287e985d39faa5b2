package engine

import "github.com/lixenwraith/swarm-fsm/core"

// EntityBuilder constructs a record at setup time
// The handle is reserved upfront; components are staged and only written to
// their stores when Build commits the record, so a half-built record is never observable
//
// Example usage:
//
//	machine := engine.With(w.NewEntity(), machines, fsm.Machine{Owner: agent}).Build()
type EntityBuilder struct {
	world  *World
	entity core.Entity
	staged []func()
	built  bool
}

// NewEntity creates a new EntityBuilder with a reserved handle
func (w *World) NewEntity() *EntityBuilder {
	return &EntityBuilder{
		world:  w,
		entity: w.reserveEntity(),
	}
}

// Entity returns the reserved handle, valid before Build for cross-references
func (eb *EntityBuilder) Entity() core.Entity {
	return eb.entity
}

// With stages a component of type T on the entity being built
// Panics if called after Build()
func With[T any](eb *EntityBuilder, store *Store[T], component T) *EntityBuilder {
	if eb.built {
		panic("entity already built - cannot add components after Build()")
	}
	e := eb.entity
	eb.staged = append(eb.staged, func() { store.Set(e, component) })
	return eb
}

// Build commits the record and its staged components and returns the handle
func (eb *EntityBuilder) Build() core.Entity {
	if eb.built {
		return eb.entity
	}
	eb.built = true
	eb.world.commitEntity(eb.entity)
	for _, apply := range eb.staged {
		apply()
	}
	eb.staged = nil
	return eb.entity
}
