package parameter

import "time"

// Patrol sandbox domain defaults
const (
	// PatrolWaitDuration is the idle time at each waypoint
	PatrolWaitDuration = 500 * time.Millisecond

	// PatrolMoveDuration is the travel time between adjacent waypoints
	PatrolMoveDuration = 2 * time.Second

	// PatrolWaypointSpacing is the default grid distance between generated waypoints
	PatrolWaypointSpacing = 8

	// PatrolWaypointCount is the number of waypoints generated per agent
	PatrolWaypointCount = 4
)
