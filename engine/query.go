package engine

import (
	"slices"

	"github.com/lixenwraith/swarm-fsm/core"
)

// QueryBuilder provides a fluent interface for querying entities based on component intersection
// It starts from the smallest included store and filters through the others
type QueryBuilder struct {
	include  []QueryableStore
	executed bool
	results  []core.Entity
}

// Query creates a new QueryBuilder for finding entities with specific component combinations
//
// Example:
//
//	entities := world.Query().
//	    With(actions).
//	    With(moves).
//	    Execute()
func (w *World) Query() *QueryBuilder {
	return &QueryBuilder{
		include: make([]QueryableStore, 0, 4),
	}
}

// With requires entities to have a component in store
// Panics if called after Execute()
func (qb *QueryBuilder) With(store QueryableStore) *QueryBuilder {
	if qb.executed {
		panic("query already executed - cannot modify after Execute()")
	}
	qb.include = append(qb.include, store)
	return qb
}

// Execute returns all entities present in every included store
// The result is a fresh slice owned by the caller; calling Execute again returns the cached result
func (qb *QueryBuilder) Execute() []core.Entity {
	if qb.executed {
		return qb.results
	}
	qb.executed = true

	if len(qb.include) == 0 {
		qb.results = make([]core.Entity, 0)
		return qb.results
	}

	// Smallest store first minimizes Has() checks
	slices.SortFunc(qb.include, func(a, b QueryableStore) int {
		return a.Count() - b.Count()
	})

	candidates := qb.include[0].All()
	filtered := candidates[:0]
	for _, e := range candidates {
		if qb.matches(e) {
			filtered = append(filtered, e)
		}
	}

	qb.results = filtered
	return qb.results
}

func (qb *QueryBuilder) matches(e core.Entity) bool {
	for _, s := range qb.include[1:] {
		if !s.Has(e) {
			return false
		}
	}
	return true
}
