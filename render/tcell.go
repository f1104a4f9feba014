package render

import (
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/vi-runtime/core"
)

const eventBuffer = 256

// TcellBackend renders into a tcell screen
// A background goroutine polls the screen; the loop drains its channel in EndFrame
type TcellBackend struct {
	screen tcell.Screen
	events chan tcell.Event
	stop   chan struct{}
	done   chan struct{}

	input       []KeyEvent
	closeWanted bool
	closeOnce   sync.Once
}

// NewTcellBackend opens the terminal screen
func NewTcellBackend() (*TcellBackend, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("create screen: %w", err)
	}
	return NewTcellBackendWithScreen(screen)
}

// NewTcellBackendWithScreen initializes screen and starts polling it
// Tests pass a tcell.SimulationScreen
func NewTcellBackendWithScreen(screen tcell.Screen) (*TcellBackend, error) {
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("init screen: %w", err)
	}
	screen.HideCursor()
	screen.Clear()

	b := &TcellBackend{
		screen: screen,
		events: make(chan tcell.Event, eventBuffer),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	core.Go(b.poll)
	return b, nil
}

func (b *TcellBackend) poll() {
	defer close(b.done)
	for {
		ev := b.screen.PollEvent()
		if ev == nil {
			return
		}
		select {
		case b.events <- ev:
		case <-b.stop:
			return
		}
	}
}

// Screen exposes the underlying screen
func (b *TcellBackend) Screen() tcell.Screen {
	return b.screen
}

func (b *TcellBackend) BeginFrame() {
	b.screen.Clear()
}

func (b *TcellBackend) EndFrame() {
	b.screen.Show()
	b.drain()
}

func (b *TcellBackend) drain() {
	for {
		select {
		case ev := <-b.events:
			b.handle(ev)
		default:
			return
		}
	}
}

func (b *TcellBackend) handle(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if isInterrupt(ev) {
			b.closeWanted = true
			return
		}
		b.input = append(b.input, KeyEvent{Key: ev.Key(), Rune: ev.Rune(), Mod: ev.Modifiers()})
	case *tcell.EventResize:
		b.screen.Sync()
	}
}

func isInterrupt(ev *tcell.EventKey) bool {
	if ev.Key() == tcell.KeyCtrlC {
		return true
	}
	return ev.Key() == tcell.KeyRune && ev.Modifiers()&tcell.ModCtrl != 0 && (ev.Rune() == 'c' || ev.Rune() == 'C')
}

func (b *TcellBackend) ShouldClose() bool {
	return b.closeWanted
}

// RequestClose makes ShouldClose report true
func (b *TcellBackend) RequestClose() {
	b.closeWanted = true
}

func (b *TcellBackend) Size() (int, int) {
	return b.screen.Size()
}

func (b *TcellBackend) SetCell(x, y int, r rune, style tcell.Style) {
	b.screen.SetContent(x, y, r, nil, style)
}

// DrawText writes text left to right from (x, y), returns the column after the last rune
func (b *TcellBackend) DrawText(x, y int, text string, style tcell.Style) int {
	for _, r := range text {
		b.screen.SetContent(x, y, r, nil, style)
		x++
	}
	return x
}

func (b *TcellBackend) PollInput() []KeyEvent {
	in := b.input
	b.input = nil
	return in
}

// Close restores the terminal and stops polling, safe to call more than once
func (b *TcellBackend) Close() {
	b.closeOnce.Do(func() {
		close(b.stop)
		b.screen.Fini()
		<-b.done
	})
}
