// Package system runs per-frame subsystems in ascending priority order
package system

import (
	"fmt"
	"sort"
	"time"
)

// System is updated and drawn once per frame
type System interface {
	Update(dt time.Duration)
	Draw()
}

// Destroyer is implemented by systems owning resources to release on Close
type Destroyer interface {
	Destroy()
}

type entry struct {
	priority int
	system   System
}

// Manager owns subsystems ordered by priority, lower runs first
// Equal priorities keep insertion order
type Manager[C any] struct {
	ctx        C
	hasContext bool
	entries    []entry
}

// NewManager creates an empty manager; SetContext must be called before adding systems
func NewManager[C any]() *Manager[C] {
	return &Manager[C]{}
}

// SetContext binds the shared context, exactly once
func (m *Manager[C]) SetContext(ctx C) {
	if m.hasContext {
		panic("system: context already set")
	}
	m.ctx = ctx
	m.hasContext = true
}

// AddSystem constructs a system with the context and inserts it at priority
// Panics if the context is unset
func AddSystem[C any, T System](m *Manager[C], priority int, factory func(ctx C) T) T {
	if !m.hasContext {
		panic(fmt.Sprintf("system: context not set before adding system at priority %d", priority))
	}

	s := factory(m.ctx)
	m.entries = append(m.entries, entry{priority: priority, system: s})
	sort.SliceStable(m.entries, func(i, j int) bool {
		return m.entries[i].priority < m.entries[j].priority
	})
	return s
}

// Update runs every system in priority order
func (m *Manager[C]) Update(dt time.Duration) {
	for _, e := range m.entries {
		e.system.Update(dt)
	}
}

// Draw runs every system in priority order
func (m *Manager[C]) Draw() {
	for _, e := range m.entries {
		e.system.Draw()
	}
}

func (m *Manager[C]) Len() int {
	return len(m.entries)
}

// Priorities returns the priorities in execution order
func (m *Manager[C]) Priorities() []int {
	out := make([]int, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.priority
	}
	return out
}

// Systems returns the systems in execution order
func (m *Manager[C]) Systems() []System {
	out := make([]System, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.system
	}
	return out
}

// Close destroys systems in reverse execution order and empties the manager
func (m *Manager[C]) Close() {
	for i := len(m.entries) - 1; i >= 0; i-- {
		if d, ok := m.entries[i].system.(Destroyer); ok {
			d.Destroy()
		}
	}
	m.entries = nil
}
