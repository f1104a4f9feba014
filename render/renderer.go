package render

import (
	"math"

	"github.com/lixenwraith/vi-runtime/component"
	"github.com/lixenwraith/vi-runtime/ecs"
	"github.com/lixenwraith/vi-runtime/vmath"
)

// Camera maps world cells to terminal columns and rows
type Camera struct {
	// Target is the world position drawn at Offset
	Target vmath.Vec2F
	Offset vmath.Vec2I
	// Scale is terminal cells per world cell; X=2 keeps square cells square on most fonts
	Scale vmath.Vec2I
}

// DefaultCamera looks at the world origin from the top-left corner
func DefaultCamera() Camera {
	return Camera{Scale: vmath.V2I(2, 1)}
}

// WorldToScreen returns the top-left terminal cell of a world position
func (c Camera) WorldToScreen(p vmath.Vec2F) vmath.Vec2I {
	rel := vmath.V2FSub(p, c.Target)
	return vmath.V2I(
		int(math.Floor(rel.X))*c.Scale.X+c.Offset.X,
		int(math.Floor(rel.Y))*c.Scale.Y+c.Offset.Y,
	)
}

// Renderer draws every entity carrying a Transform and a Sprite
type Renderer struct {
	backend Backend
	Camera  Camera
	drawn   int
}

// NewRenderer draws into backend with the default camera
func NewRenderer(backend Backend) *Renderer {
	return &Renderer{backend: backend, Camera: DefaultCamera()}
}

// Backend returns the drawing surface
func (r *Renderer) Backend() Backend {
	return r.backend
}

// Draw sorts sprites by layer and draws the visible ones
// Equal layers keep their store order
func (r *Renderer) Draw(w *ecs.World) {
	ecs.Sort(w, func(a, b component.Sprite) bool { return a.Layer < b.Layer })

	width, height := r.backend.Size()
	sprites := ecs.StoreOf[component.Sprite](w)
	transforms := ecs.StoreOf[component.Transform](w)

	r.drawn = 0
	for _, e := range ecs.View2[component.Sprite, component.Transform](w) {
		sp, _ := sprites.Get(e)
		if sp.Hidden {
			continue
		}
		tr, _ := transforms.Get(e)
		if r.drawSprite(sp, tr.Position, width, height) {
			r.drawn++
		}
	}
}

func (r *Renderer) drawSprite(sp component.Sprite, pos vmath.Vec2F, width, height int) bool {
	origin := r.Camera.WorldToScreen(pos)
	cols := r.Camera.Scale.X * max(sp.Width, 1)
	rows := r.Camera.Scale.Y

	if origin.X >= width || origin.Y >= height || origin.X+cols <= 0 || origin.Y+rows <= 0 {
		return false
	}

	for dy := 0; dy < rows; dy++ {
		for dx := 0; dx < cols; dx++ {
			x, y := origin.X+dx, origin.Y+dy
			if x < 0 || y < 0 || x >= width || y >= height {
				continue
			}
			r.backend.SetCell(x, y, sp.Glyph, sp.Style)
		}
	}
	return true
}

// Drawn returns the sprite count of the last Draw
func (r *Renderer) Drawn() int {
	return r.drawn
}
