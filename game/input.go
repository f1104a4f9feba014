package game

import (
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/vi-runtime/engine"
	"github.com/lixenwraith/vi-runtime/event"
	"github.com/lixenwraith/vi-runtime/render"
)

// InputPriority runs input before every other system
const InputPriority = 0

// Intent is what a key press asks the game to do
type Intent uint8

const (
	IntentNone Intent = iota
	IntentQuit
	IntentUp
	IntentDown
	IntentLeft
	IntentRight
	IntentToggleMute
)

// KeyTable maps keys to intents
type KeyTable struct {
	Keys  map[tcell.Key]Intent
	Runes map[rune]Intent
}

// DefaultKeyTable binds arrows and hjkl to movement, Escape to quit, m to mute
func DefaultKeyTable() *KeyTable {
	return &KeyTable{
		Keys: map[tcell.Key]Intent{
			tcell.KeyEscape: IntentQuit,
			tcell.KeyUp:     IntentUp,
			tcell.KeyDown:   IntentDown,
			tcell.KeyLeft:   IntentLeft,
			tcell.KeyRight:  IntentRight,
		},
		Runes: map[rune]Intent{
			'h': IntentLeft,
			'j': IntentDown,
			'k': IntentUp,
			'l': IntentRight,
			'q': IntentQuit,
			'm': IntentToggleMute,
		},
	}
}

// Resolve returns the intent bound to ev
func (t *KeyTable) Resolve(ev render.KeyEvent) Intent {
	if ev.Key == tcell.KeyRune {
		return t.Runes[ev.Rune]
	}
	return t.Keys[ev.Key]
}

// InputSystem latches the keys pressed since its last update
// The first step of a frame sees the keys; later steps in the same frame see none
type InputSystem struct {
	backend render.Backend
	table   *KeyTable
	intents []Intent
}

// NewInputSystem reads from the context's backend with the default key table
func NewInputSystem(ctx *engine.Context) *InputSystem {
	return &InputSystem{backend: ctx.Backend(), table: DefaultKeyTable()}
}

func (s *InputSystem) Update(time.Duration) {
	s.intents = s.intents[:0]
	for _, ev := range s.backend.PollInput() {
		if intent := s.table.Resolve(ev); intent != IntentNone {
			s.intents = append(s.intents, intent)
		}
	}
}

func (s *InputSystem) Draw() {}

// Intents returns the latched intents in press order
func (s *InputSystem) Intents() []Intent {
	return s.intents
}

// Has reports whether intent was latched this step
func (s *InputSystem) Has(intent Intent) bool {
	for _, i := range s.intents {
		if i == intent {
			return true
		}
	}
	return false
}

// HandleEvent drops latched input across scene changes
func (s *InputSystem) HandleEvent(event.Event) {
	s.intents = s.intents[:0]
}

func (s *InputSystem) EventTypes() []event.EventType {
	return []event.EventType{event.EventSceneChanged}
}
