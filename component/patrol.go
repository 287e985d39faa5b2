package component

// PatrolComponent holds an agent's waypoint loop
// Next is the index of the waypoint the following walk heads to
type PatrolComponent struct {
	Waypoints []Point
	Next      int
}

// Advance returns the next waypoint and moves the cursor, wrapping at the end
func (p *PatrolComponent) Advance() (Point, bool) {
	if len(p.Waypoints) == 0 {
		return Point{}, false
	}
	if p.Next >= len(p.Waypoints) {
		p.Next = 0
	}
	wp := p.Waypoints[p.Next]
	p.Next = (p.Next + 1) % len(p.Waypoints)
	return wp, true
}
