// Package game is the terminal snake client built on the runtime
package game

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/vi-runtime/component"
	"github.com/lixenwraith/vi-runtime/ecs"
	"github.com/lixenwraith/vi-runtime/vmath"
)

// Occupant marks what a grid cell entity holds
type Occupant struct {
	Snake bool
	Food  bool
}

var (
	snakeSprite = component.Sprite{
		Glyph: '█',
		Style: tcell.StyleDefault.Foreground(tcell.ColorGreen),
		Layer: component.LayerEntity,
	}
	foodSprite = component.Sprite{
		Glyph: '●',
		Style: tcell.StyleDefault.Foreground(tcell.ColorRed),
		Layer: component.LayerEntity,
	}
)

// Grid is a square board whose occupied cells are entities
// A cell holds at most one entity; empty cells hold ecs.NullEntity
type Grid struct {
	world *ecs.World
	size  int
	cells []ecs.Entity
}

// NewGrid creates an empty size x size board
// Panics if size < 3
func NewGrid(world *ecs.World, size int) *Grid {
	if size < 3 {
		panic(fmt.Sprintf("game: grid size %d too small", size))
	}
	return &Grid{
		world: world,
		size:  size,
		cells: make([]ecs.Entity, size*size),
	}
}

// Size returns the side length in cells
func (g *Grid) Size() int {
	return g.size
}

func (g *Grid) index(p vmath.Vec2I) int {
	if p.X < 0 || p.Y < 0 || p.X >= g.size || p.Y >= g.size {
		panic(fmt.Sprintf("game: cell %v outside %dx%d grid", p, g.size, g.size))
	}
	return p.Y*g.size + p.X
}

func (g *Grid) occupant(p vmath.Vec2I) Occupant {
	e := g.cells[g.index(p)]
	if e == ecs.NullEntity {
		return Occupant{}
	}
	o, _ := ecs.Get[Occupant](g.world, e)
	return o
}

// IsSnake reports whether p holds a snake segment
func (g *Grid) IsSnake(p vmath.Vec2I) bool {
	return g.occupant(p).Snake
}

// IsFood reports whether p holds food
func (g *Grid) IsFood(p vmath.Vec2I) bool {
	return g.occupant(p).Food
}

// Entity returns the entity at p, ecs.NullEntity when empty
func (g *Grid) Entity(p vmath.Vec2I) ecs.Entity {
	return g.cells[g.index(p)]
}

// SpawnSnake places a segment at p, no-op if one is already there
func (g *Grid) SpawnSnake(p vmath.Vec2I) {
	if g.IsSnake(p) {
		return
	}
	g.spawn(p, Occupant{Snake: true}, snakeSprite)
}

// SpawnFood places food at p, no-op if food is already there
func (g *Grid) SpawnFood(p vmath.Vec2I) {
	if g.IsFood(p) {
		return
	}
	g.spawn(p, Occupant{Food: true}, foodSprite)
}

func (g *Grid) spawn(p vmath.Vec2I, o Occupant, sp component.Sprite) {
	g.ClearCell(p)
	e := g.world.CreateEntity()
	ecs.Add(g.world, e, o)
	ecs.Add(g.world, e, component.Transform{Position: p.Float()})
	ecs.Add(g.world, e, sp)
	g.cells[g.index(p)] = e
}

// ClearCell destroys whatever occupies p
func (g *Grid) ClearCell(p vmath.Vec2I) {
	i := g.index(p)
	if e := g.cells[i]; e != ecs.NullEntity {
		g.world.DestroyEntity(e)
		g.cells[i] = ecs.NullEntity
	}
}

// Reset empties the board and destroys every occupant entity
func (g *Grid) Reset() {
	for i, e := range g.cells {
		if e != ecs.NullEntity {
			g.world.DestroyEntity(e)
			g.cells[i] = ecs.NullEntity
		}
	}
}

// Free returns the count of empty or food cells
func (g *Grid) Free() int {
	n := 0
	for _, e := range g.cells {
		if e == ecs.NullEntity {
			n++
			continue
		}
		if o, _ := ecs.Get[Occupant](g.world, e); !o.Snake {
			n++
		}
	}
	return n
}
