package core

import "fmt"

// Entity is a generation-checked handle to a record in the world
// Low 32 bits hold the slot index, high 32 bits the slot generation
// Generations start at 1 so a live handle is never NullEntity
type Entity uint64

// NullEntity is the null handle sentinel
const NullEntity Entity = 0

// NewEntity packs a slot index and generation into a handle
func NewEntity(index, generation uint32) Entity {
	return Entity(uint64(generation)<<32 | uint64(index))
}

// Index returns the slot index
func (e Entity) Index() uint32 {
	return uint32(e)
}

// Generation returns the slot generation
func (e Entity) Generation() uint32 {
	return uint32(e >> 32)
}

// IsNull reports whether the handle is the null sentinel
func (e Entity) IsNull() bool {
	return e == NullEntity
}

func (e Entity) String() string {
	if e == NullEntity {
		return "entity(null)"
	}
	return fmt.Sprintf("entity(%d:%d)", e.Index(), e.Generation())
}
