package parameter

// System Execution Priorities (lower runs first)
// Every system is followed by a command playback barrier
const (
	// Transition/event stage
	PriorityStartState   = 10
	PriorityConsumeEvent = 20
	PriorityResetEvent   = 30

	// State preparation, one system per domain, registration order within the same priority
	PriorityPrepare = 40

	// Action window; domain action systems must sit strictly between start and end
	PriorityActionStart       = 100
	PriorityMoveAction        = 110
	PriorityMoveCheckFinished = 120 // Sequential companion of the parallel move stage
	PriorityTimedWaitAction   = 130
	PriorityActionEnd         = 200
)
