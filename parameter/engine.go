package parameter

import "time"

// Tick loop & scheduling
const (
	// TickInterval is the simulation tick interval
	TickInterval = 50 * time.Millisecond

	// TickBacklogLimit is the number of intervals the scheduler may fall behind before resynchronizing its deadline
	TickBacklogLimit = 2

	// PausedSleepFactor multiplies the tick interval while paused to avoid busy waiting
	PausedSleepFactor = 2
)

// Parallel batch dispatch
const (
	// DefaultWorkers of 0 resolves to runtime.GOMAXPROCS(0)
	DefaultWorkers = 0

	// DefaultBatchSize is the number of records a worker processes per batch
	DefaultBatchSize = 256
)

// Record store
const (
	// InitialStoreCapacity is the pre-allocated dense capacity per component store
	InitialStoreCapacity = 64

	// InitialCommandCapacity is the pre-allocated capacity of a stage command buffer
	InitialCommandCapacity = 32
)
