package component

import "github.com/lixenwraith/vi-runtime/vmath"

// Transform places an entity in world space (cells)
type Transform struct {
	Position vmath.Vec2F
	Velocity vmath.Vec2F
	// Rotation in radians; the terminal renderer ignores it, scripts may read it
	Rotation float64
}
