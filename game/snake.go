package game

import (
	"time"

	"github.com/lixenwraith/vi-runtime/vmath"
)

// Snake movement defaults, in cells per second
const (
	DefaultSpeed         = 2.5
	DefaultSpeedIncrease = 0.25
)

var (
	Up    = vmath.V2I(0, -1)
	Down  = vmath.V2I(0, 1)
	Left  = vmath.V2I(-1, 0)
	Right = vmath.V2I(1, 0)
)

// Snake is a body of grid cells, head first, that advances at a speed-dependent interval
type Snake struct {
	grid      *Grid
	body      []vmath.Vec2I
	direction vmath.Vec2I
	// Steering applies on the next move so two quick turns cannot reverse the head
	heading vmath.Vec2I

	Speed         float64
	SpeedIncrease float64
	elapsed       time.Duration
}

// NewSnake spawns a three-cell snake at a random cell, oriented on a random axis
func NewSnake(grid *Grid, rng *vmath.FastRand) *Snake {
	s := &Snake{
		grid:          grid,
		Speed:         DefaultSpeed,
		SpeedIncrease: DefaultSpeedIncrease,
	}

	n := grid.Size()
	head := vmath.V2I(rng.Range(1, n-1), rng.Range(1, n-1))
	sign := 1
	if rng.Bool() {
		sign = -1
	}
	offset := vmath.V2I(0, sign)
	if rng.Bool() {
		offset = vmath.V2I(sign, 0)
	}

	tail := head.Add(offset).Wrap(n)
	s.direction = vmath.V2I(-offset.X, -offset.Y)
	s.heading = s.direction
	s.body = []vmath.Vec2I{head, tail, tail.Add(offset).Wrap(n)}
	for _, p := range s.body {
		grid.SpawnSnake(p)
	}
	return s
}

// Len returns the segment count
func (s *Snake) Len() int {
	return len(s.body)
}

// Head returns the head cell
func (s *Snake) Head() vmath.Vec2I {
	return s.body[0]
}

// Body returns a copy of the segments, head first
func (s *Snake) Body() []vmath.Vec2I {
	out := make([]vmath.Vec2I, len(s.body))
	copy(out, s.body)
	return out
}

// Direction returns the direction of the last move
func (s *Snake) Direction() vmath.Vec2I {
	return s.direction
}

// Steer queues a turn, ignored when it would reverse onto the neck
func (s *Snake) Steer(dir vmath.Vec2I) {
	if dir.Add(s.direction) == (vmath.Vec2I{}) {
		return
	}
	s.heading = dir
}

// Interval is the time between moves at the current speed
func (s *Snake) Interval() time.Duration {
	return time.Duration(float64(time.Second) / s.Speed)
}

// Update advances the snake when its interval has elapsed
// Returns false when the head ran into the body
func (s *Snake) Update(dt time.Duration) bool {
	s.elapsed += dt
	if s.elapsed < s.Interval() {
		return true
	}
	s.elapsed = 0
	return s.Move()
}

// Move advances one cell immediately, growing onto food
// The tail cell counts as free since it moves away in the same step
func (s *Snake) Move() bool {
	s.direction = s.heading
	next := s.Head().Add(s.direction).Wrap(s.grid.Size())
	tail := s.body[len(s.body)-1]

	switch {
	case s.grid.IsSnake(next) && next != tail:
		return false
	case s.grid.IsFood(next):
		s.grid.ClearCell(next)
		s.grid.SpawnSnake(next)
		s.body = append([]vmath.Vec2I{next}, s.body...)
		s.Speed += s.SpeedIncrease
	default:
		s.body = s.body[:len(s.body)-1]
		s.grid.ClearCell(tail)
		s.grid.SpawnSnake(next)
		s.body = append([]vmath.Vec2I{next}, s.body...)
	}
	return true
}
