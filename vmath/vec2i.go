package vmath

// Vec2I is an integer grid coordinate
type Vec2I struct {
	X, Y int
}

func V2I(x, y int) Vec2I {
	return Vec2I{x, y}
}

func (v Vec2I) Add(o Vec2I) Vec2I {
	return Vec2I{v.X + o.X, v.Y + o.Y}
}

func (v Vec2I) Sub(o Vec2I) Vec2I {
	return Vec2I{v.X - o.X, v.Y - o.Y}
}

// Wrap folds v into [0,size) on both axes
func (v Vec2I) Wrap(size int) Vec2I {
	if size <= 0 {
		return v
	}
	return Vec2I{((v.X % size) + size) % size, ((v.Y % size) + size) % size}
}

// Float converts to a world-space vector
func (v Vec2I) Float() Vec2F {
	return Vec2F{float64(v.X), float64(v.Y)}
}
