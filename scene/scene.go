// Package scene holds named, mutually exclusive scenes and the single active one
package scene

import (
	"fmt"
	"sort"
	"time"
)

// Scene is one mutually exclusive mode of the application
type Scene interface {
	OnEnter()
	OnExit()
	Update(dt time.Duration)
	Draw()
}

// Destroyer is implemented by scenes owning resources to release when discarded
type Destroyer interface {
	Destroy()
}

// Manager owns every scene instance and tracks the active one
// C is the shared context handed to factories
type Manager[C any] struct {
	ctx        C
	hasContext bool

	scenes     map[string]Scene
	active     Scene
	activeName string
}

// NewManager creates an empty manager; SetContext must be called before adding scenes
func NewManager[C any]() *Manager[C] {
	return &Manager[C]{scenes: make(map[string]Scene)}
}

// SetContext binds the shared context, exactly once
func (m *Manager[C]) SetContext(ctx C) {
	if m.hasContext {
		panic("scene: context already set")
	}
	m.ctx = ctx
	m.hasContext = true
}

// AddScene constructs a scene with the context and stores it under name
// A prior scene with the same name is destroyed without OnExit
// Panics if the context is unset or if name is the active scene
func AddScene[C any, T Scene](m *Manager[C], name string, factory func(ctx C) T) T {
	if !m.hasContext {
		panic(fmt.Sprintf("scene: context not set before adding %q", name))
	}
	if m.active != nil && m.activeName == name {
		panic(fmt.Sprintf("scene: cannot replace active scene %q", name))
	}

	s := factory(m.ctx)
	if prev, ok := m.scenes[name]; ok {
		destroy(prev)
	}
	m.scenes[name] = s
	return s
}

// ChangeScene exits the active scene then enters name
// Panics if name is unknown
func (m *Manager[C]) ChangeScene(name string) {
	next, ok := m.scenes[name]
	if !ok {
		panic(fmt.Sprintf("scene: unknown scene %q", name))
	}
	if m.active != nil {
		m.active.OnExit()
	}
	m.active = next
	m.activeName = name
	next.OnEnter()
}

// Update forwards dt to the active scene, if any
func (m *Manager[C]) Update(dt time.Duration) {
	if m.active != nil {
		m.active.Update(dt)
	}
}

// Draw forwards to the active scene, if any
func (m *Manager[C]) Draw() {
	if m.active != nil {
		m.active.Draw()
	}
}

// RemoveScene destroys and forgets name, no-op if absent
// Panics if name is the active scene
func (m *Manager[C]) RemoveScene(name string) {
	s, ok := m.scenes[name]
	if !ok {
		return
	}
	if m.active != nil && m.activeName == name {
		panic(fmt.Sprintf("scene: cannot remove active scene %q", name))
	}
	destroy(s)
	delete(m.scenes, name)
}

// Active returns the active scene's name
func (m *Manager[C]) Active() (string, bool) {
	if m.active == nil {
		return "", false
	}
	return m.activeName, true
}

// Has reports whether name is stored
func (m *Manager[C]) Has(name string) bool {
	_, ok := m.scenes[name]
	return ok
}

// Names returns stored scene names sorted
func (m *Manager[C]) Names() []string {
	names := make([]string, 0, len(m.scenes))
	for n := range m.scenes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Close exits the active scene and destroys every stored scene
func (m *Manager[C]) Close() {
	if m.active != nil {
		m.active.OnExit()
		m.active = nil
		m.activeName = ""
	}
	for _, n := range m.Names() {
		destroy(m.scenes[n])
	}
	m.scenes = make(map[string]Scene)
}

func destroy(s Scene) {
	if d, ok := s.(Destroyer); ok {
		d.Destroy()
	}
}
