package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/vi-runtime/component"
	"github.com/lixenwraith/vi-runtime/ecs"
	"github.com/lixenwraith/vi-runtime/vmath"
)

func TestGridSpawnAndClear(t *testing.T) {
	w := ecs.NewWorld()
	g := NewGrid(w, 5)
	p := vmath.V2I(1, 2)

	g.SpawnSnake(p)
	assert.True(t, g.IsSnake(p))
	assert.False(t, g.IsFood(p))
	e := g.Entity(p)
	tr, ok := ecs.Get[component.Transform](w, e)
	require.True(t, ok)
	assert.Equal(t, vmath.V2F(1, 2), tr.Position)

	g.SpawnSnake(p)
	assert.Equal(t, e, g.Entity(p), "spawning the same kind again is a no-op")

	g.SpawnFood(p)
	assert.True(t, g.IsFood(p))
	assert.False(t, w.Valid(e), "replaced occupant destroyed")

	g.ClearCell(p)
	assert.Equal(t, ecs.NullEntity, g.Entity(p))
	assert.Zero(t, w.Count())
}

func TestGridResetAndFree(t *testing.T) {
	w := ecs.NewWorld()
	g := NewGrid(w, 3)
	g.SpawnSnake(vmath.V2I(0, 0))
	g.SpawnSnake(vmath.V2I(1, 0))
	g.SpawnFood(vmath.V2I(2, 2))

	assert.Equal(t, 7, g.Free())
	g.Reset()
	assert.Equal(t, 9, g.Free())
	assert.Zero(t, w.Count())
}

func TestGridRejectsOutside(t *testing.T) {
	g := NewGrid(ecs.NewWorld(), 3)
	assert.Panics(t, func() { g.IsSnake(vmath.V2I(3, 0)) })
	assert.Panics(t, func() { NewGrid(ecs.NewWorld(), 1) })
}

// placeSnake builds a snake from explicit cells, head first
func placeSnake(g *Grid, body ...vmath.Vec2I) *Snake {
	s := &Snake{
		grid:          g,
		body:          body,
		direction:     body[0].Sub(body[1]),
		Speed:         DefaultSpeed,
		SpeedIncrease: DefaultSpeedIncrease,
	}
	s.heading = s.direction
	for _, p := range body {
		g.SpawnSnake(p)
	}
	return s
}

func TestNewSnakeIsContiguous(t *testing.T) {
	for seed := uint64(1); seed < 50; seed++ {
		g := NewGrid(ecs.NewWorld(), 6)
		s := NewSnake(g, vmath.NewFastRand(seed))
		require.Equal(t, 3, s.Len())

		body := s.Body()
		for i := 1; i < len(body); i++ {
			assert.Equal(t, body[i-1], body[i].Add(s.Direction()).Wrap(6), "seed %d", seed)
			assert.True(t, g.IsSnake(body[i]))
		}
	}
}

func TestSnakeMovesAndWraps(t *testing.T) {
	g := NewGrid(ecs.NewWorld(), 5)
	s := placeSnake(g, vmath.V2I(0, 1), vmath.V2I(1, 1), vmath.V2I(2, 1))

	require.True(t, s.Move())
	assert.Equal(t, vmath.V2I(4, 1), s.Head())
	assert.Equal(t, 3, s.Len())
	assert.False(t, g.IsSnake(vmath.V2I(2, 1)), "tail vacated")
}

func TestSnakeGrowsOnFood(t *testing.T) {
	g := NewGrid(ecs.NewWorld(), 5)
	s := placeSnake(g, vmath.V2I(2, 1), vmath.V2I(3, 1), vmath.V2I(4, 1))
	g.SpawnFood(vmath.V2I(1, 1))

	require.True(t, s.Move())
	assert.Equal(t, 4, s.Len())
	assert.True(t, g.IsSnake(vmath.V2I(1, 1)))
	assert.True(t, g.IsSnake(vmath.V2I(4, 1)), "tail kept")
	assert.InDelta(t, DefaultSpeed+DefaultSpeedIncrease, s.Speed, 1e-9)
}

func TestSnakeDiesOnBody(t *testing.T) {
	g := NewGrid(ecs.NewWorld(), 6)
	s := placeSnake(g,
		vmath.V2I(2, 2), vmath.V2I(3, 2), vmath.V2I(3, 3), vmath.V2I(2, 3), vmath.V2I(1, 3))

	s.Steer(Down)
	assert.False(t, s.Move())
}

func TestSnakeMayEnterTailCell(t *testing.T) {
	g := NewGrid(ecs.NewWorld(), 6)
	s := placeSnake(g,
		vmath.V2I(2, 2), vmath.V2I(3, 2), vmath.V2I(3, 3), vmath.V2I(2, 3))

	s.Steer(Down)
	require.True(t, s.Move())
	assert.Equal(t, vmath.V2I(2, 3), s.Head())
	assert.Equal(t, 4, s.Len())
}

func TestSnakeIgnoresReversal(t *testing.T) {
	g := NewGrid(ecs.NewWorld(), 6)
	s := placeSnake(g, vmath.V2I(2, 2), vmath.V2I(3, 2), vmath.V2I(4, 2))

	s.Steer(Right)
	require.True(t, s.Move())
	assert.Equal(t, vmath.V2I(1, 2), s.Head())

	s.Steer(Up)
	s.Steer(Right)
	require.True(t, s.Move())
	assert.Equal(t, vmath.V2I(1, 1), s.Head(), "two turns between moves cannot reverse")
}

func TestSnakeUpdateWaitsForInterval(t *testing.T) {
	g := NewGrid(ecs.NewWorld(), 6)
	s := placeSnake(g, vmath.V2I(2, 2), vmath.V2I(3, 2), vmath.V2I(4, 2))
	require.Equal(t, 400*time.Millisecond, s.Interval())

	require.True(t, s.Update(300*time.Millisecond))
	assert.Equal(t, vmath.V2I(2, 2), s.Head())
	require.True(t, s.Update(100*time.Millisecond))
	assert.Equal(t, vmath.V2I(1, 2), s.Head())
}
