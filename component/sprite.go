package component

import "github.com/gdamore/tcell/v2"

// Sprite is a drawable cell attached to a Transform
type Sprite struct {
	Glyph rune
	Style tcell.Style
	// Layer orders drawing, lower first
	Layer int
	// Width repeats the glyph horizontally, 0 and 1 both draw one cell
	Width  int
	Hidden bool
}

// Draw layers used by the runtime, lower first
const (
	LayerBackground = iota
	LayerGrid
	LayerEntity
	LayerUI
)
