// Package render draws entity sprites onto a terminal backend
package render

import (
	"github.com/gdamore/tcell/v2"
)

// KeyEvent is one key press drained from the terminal
type KeyEvent struct {
	Key  tcell.Key
	Rune rune
	Mod  tcell.ModMask
}

// Backend is the drawing and input surface the loop brackets each render pass with
type Backend interface {
	// BeginFrame clears the back buffer
	BeginFrame()
	// EndFrame presents the frame and gathers pending input
	EndFrame()
	// ShouldClose reports a close request from the terminal
	ShouldClose() bool
	Size() (width, height int)
	SetCell(x, y int, r rune, style tcell.Style)
	DrawText(x, y int, text string, style tcell.Style) int
	// PollInput returns key presses gathered since the previous call
	PollInput() []KeyEvent
	Close()
}
