package render

import (
	"sync"

	"github.com/gdamore/tcell/v2"
)

// Cell is one character position in a MemoryBackend
type Cell struct {
	Rune  rune
	Style tcell.Style
}

// MemoryBackend is a headless Backend holding a cell grid in memory
// Used for headless runs and tests; input is fed with Press
type MemoryBackend struct {
	mu     sync.Mutex
	width  int
	height int
	cells  []Cell
	front  []Cell

	pending []KeyEvent
	input   []KeyEvent
	closing bool
	closed  bool

	// Frames counts completed EndFrame calls
	Frames int
	// Calls records BeginFrame/EndFrame/Close in order when Trace is set
	Calls []string
	Trace bool
}

// NewMemoryBackend creates a blank width x height surface
func NewMemoryBackend(width, height int) *MemoryBackend {
	return &MemoryBackend{
		width:  width,
		height: height,
		cells:  make([]Cell, width*height),
		front:  make([]Cell, width*height),
	}
}

func (m *MemoryBackend) trace(call string) {
	if m.Trace {
		m.Calls = append(m.Calls, call)
	}
}

func (m *MemoryBackend) BeginFrame() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.cells {
		m.cells[i] = Cell{}
	}
	m.trace("begin")
}

// EndFrame publishes the back buffer and moves pressed keys into the input list
func (m *MemoryBackend) EndFrame() {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy(m.front, m.cells)
	m.input = append(m.input, m.pending...)
	m.pending = m.pending[:0]
	m.Frames++
	m.trace("end")
}

func (m *MemoryBackend) ShouldClose() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closing
}

// RequestClose makes ShouldClose report true
func (m *MemoryBackend) RequestClose() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closing = true
}

func (m *MemoryBackend) Size() (int, int) {
	return m.width, m.height
}

func (m *MemoryBackend) SetCell(x, y int, r rune, style tcell.Style) {
	if x < 0 || y < 0 || x >= m.width || y >= m.height {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cells[y*m.width+x] = Cell{Rune: r, Style: style}
}

func (m *MemoryBackend) DrawText(x, y int, text string, style tcell.Style) int {
	n := 0
	for _, r := range text {
		m.SetCell(x+n, y, r, style)
		n++
	}
	return n
}

// Press queues a key, delivered by the next EndFrame
func (m *MemoryBackend) Press(ev KeyEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, ev)
}

func (m *MemoryBackend) PollInput() []KeyEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.input
	m.input = nil
	return out
}

func (m *MemoryBackend) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.trace("close")
}

// Closed reports whether Close ran
func (m *MemoryBackend) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// CellAt reads the last presented frame
func (m *MemoryBackend) CellAt(x, y int) Cell {
	m.mu.Lock()
	defer m.mu.Unlock()
	if x < 0 || y < 0 || x >= m.width || y >= m.height {
		return Cell{}
	}
	return m.front[y*m.width+x]
}

// Row returns the presented text of line y, blank cells as spaces
func (m *MemoryBackend) Row(y int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if y < 0 || y >= m.height {
		return ""
	}
	out := make([]rune, m.width)
	for x := range out {
		r := m.front[y*m.width+x].Rune
		if r == 0 {
			r = ' '
		}
		out[x] = r
	}
	return string(out)
}
