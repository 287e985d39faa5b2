package component

import "github.com/lixenwraith/swarm-fsm/vmath"

// Point is a Q32.32 fixed-point plane coordinate
type Point struct {
	X, Y int64
}

// PointAt returns the fixed-point coordinate of a grid cell
func PointAt(x, y int) Point {
	return Point{X: vmath.FromInt(x), Y: vmath.FromInt(y)}
}

// Cell returns the nearest grid cell
func (p Point) Cell() (x, y int) {
	return vmath.Round(p.X), vmath.Round(p.Y)
}

// PositionComponent is an agent's sub-cell position
type PositionComponent struct {
	Point
}
