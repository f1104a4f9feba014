package engine

import (
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"

	"github.com/lixenwraith/vi-runtime/component"
	"github.com/lixenwraith/vi-runtime/ecs"
	"github.com/lixenwraith/vi-runtime/event"
	"github.com/lixenwraith/vi-runtime/render"
	"github.com/lixenwraith/vi-runtime/script"
	"github.com/lixenwraith/vi-runtime/status"
	"github.com/lixenwraith/vi-runtime/vmath"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func newGame(t *testing.T, files fstest.MapFS) (*Game, *render.MemoryBackend, *MockClock) {
	t.Helper()
	backend := render.NewMemoryBackend(40, 10)
	clock := NewMockClock(epoch)
	g := New(Options{Backend: backend, Clock: clock, ScriptFS: files})
	return g, backend, clock
}

// probe is a system and scene recording its calls into a shared log
type probe struct {
	name    string
	calls   *[]string
	updates int
	onStep  func(n int)
}

func (p *probe) Update(time.Duration) {
	p.updates++
	*p.calls = append(*p.calls, p.name+".update")
	if p.onStep != nil {
		p.onStep(p.updates)
	}
}

func (p *probe) Draw() {
	*p.calls = append(*p.calls, p.name+".draw")
}

func (p *probe) OnEnter() {}
func (p *probe) OnExit()  {}

func TestFrameRunsDueSteps(t *testing.T) {
	g, _, _ := newGame(t, nil)
	g.step = time.Second / 60

	assert.Equal(t, 3, g.frame(50*time.Millisecond))
	assert.Equal(t, 0, g.frame(10*time.Millisecond), "remainder carried")
	assert.Equal(t, 1, g.frame(10*time.Millisecond))
	assert.EqualValues(t, 4, g.statSteps.Load())
	assert.EqualValues(t, 3, g.statFrames.Load())
}

func TestFrameClampsDelta(t *testing.T) {
	g, _, _ := newGame(t, nil)
	g.step = time.Second / 60

	assert.Equal(t, 60, g.frame(5*time.Second))
	assert.EqualValues(t, 4000, g.statDropped.Load())
}

func TestFrameRendersWithoutSteps(t *testing.T) {
	g, backend, _ := newGame(t, nil)
	g.step = time.Second / 60

	assert.Equal(t, 0, g.frame(0))
	assert.Equal(t, 1, backend.Frames)
}

func TestStepOrder(t *testing.T) {
	files := fstest.MapFS{"order.lua": {Data: []byte(`function Update(dt) mark() end`)}}
	g, _, _ := newGame(t, files)
	g.step = 10 * time.Millisecond

	var calls []string
	g.Context().Scripts.RegisterFunction("mark", func(L *lua.LState) int {
		calls = append(calls, "script.update")
		return 0
	})
	require.True(t, g.Context().Scripts.RegisterGlobalScript("order.lua"))
	AddSystem(g, 0, func(*Context) *probe { return &probe{name: "system", calls: &calls} })
	SetFirstScene(g, "main", func(*Context) *probe { return &probe{name: "scene", calls: &calls} })

	g.frame(10 * time.Millisecond)
	assert.Equal(t, []string{
		"system.update", "script.update", "scene.update",
		"system.draw", "scene.draw",
	}, calls)
}

func TestRenderBracketsDraws(t *testing.T) {
	g, backend, _ := newGame(t, nil)
	g.step = time.Second
	backend.Trace = true

	AddSystem(g, 0, func(*Context) *probe { return &probe{name: "system", calls: &backend.Calls} })
	SetFirstScene(g, "main", func(*Context) *probe { return &probe{name: "scene", calls: &backend.Calls} })

	g.frame(0)
	assert.Equal(t, []string{"begin", "system.draw", "scene.draw", "end"}, backend.Calls)
}

func TestRenderDrawsWorldSprites(t *testing.T) {
	g, backend, _ := newGame(t, nil)
	g.step = time.Second
	ctx := g.Context()
	e := ctx.World.CreateEntity()
	ctx.Renderer.Camera.Scale = vmath.Vec2I{X: 1, Y: 1}
	ctx.Renderer.Camera.Offset = vmath.Vec2I{}
	ecs.Add(ctx.World, e, component.Transform{Position: vmath.Vec2F{X: 2, Y: 1}})
	ecs.Add(ctx.World, e, component.Sprite{Glyph: '@'})

	g.frame(0)
	assert.Equal(t, '@', backend.CellAt(2, 1).Rune)
}

func TestRunStopsOnCloseEvent(t *testing.T) {
	g, backend, clock := newGame(t, nil)

	var calls []string
	AddSystem(g, 0, func(ctx *Context) *probe {
		return &probe{name: "system", calls: &calls, onStep: func(n int) {
			if n == 3 {
				ctx.RequestClose()
			}
		}}
	})

	g.Run(60)
	step := time.Second / 60
	assert.Equal(t, StateStopped, g.State())
	assert.Equal(t, 4, backend.Frames, "first frame has zero delta")
	assert.Equal(t, []time.Duration{step, step, step}, clock.Slept())
}

func TestRunStopsOnBackendClose(t *testing.T) {
	g, backend, _ := newGame(t, nil)

	var calls []string
	p := AddSystem(g, 0, func(*Context) *probe {
		return &probe{name: "system", calls: &calls, onStep: func(int) { backend.RequestClose() }}
	})

	g.Run(30)
	assert.Equal(t, 2, backend.Frames)
	assert.Equal(t, 1, p.updates)
}

func TestStopBeforeRun(t *testing.T) {
	g, backend, clock := newGame(t, nil)
	g.Stop()

	g.Run(60)
	assert.Equal(t, 1, backend.Frames)
	assert.Empty(t, clock.Slept())
}

func TestLimiterSleepsRemainder(t *testing.T) {
	g, _, clock := newGame(t, nil)
	work := 4 * time.Millisecond

	var calls []string
	AddSystem(g, 0, func(ctx *Context) *probe {
		return &probe{name: "system", calls: &calls, onStep: func(n int) {
			clock.Advance(work)
			if n == 2 {
				ctx.RequestClose()
			}
		}}
	})

	g.Run(50)
	step := time.Second / 50
	assert.Equal(t, []time.Duration{step, step - work}, clock.Slept())
}

func TestRunRejectsTargetFPS(t *testing.T) {
	g, _, _ := newGame(t, nil)
	assert.Panics(t, func() { g.Run(0) })
	assert.Panics(t, func() { g.Run(MaxFPS + 1) })
}

func TestSetFirstSceneAnnounces(t *testing.T) {
	g, _, _ := newGame(t, nil)

	var announced []any
	g.Context().Dispatcher.Subscribe(event.EventSceneChanged, func(ev event.Event) {
		announced = append(announced, ev.Payload)
	})
	var calls []string
	SetFirstScene(g, "title", func(*Context) *probe { return &probe{name: "title", calls: &calls} })

	name, ok := g.Context().Scenes.Active()
	require.True(t, ok)
	assert.Equal(t, "title", name)
	assert.Equal(t, []any{"title"}, announced)
	assert.Equal(t, "title", g.Context().Status.Strings.Get(status.KeyActiveScene).Load())
}

type listener struct {
	probe
	seen []event.Event
}

func (l *listener) HandleEvent(ev event.Event)    { l.seen = append(l.seen, ev) }
func (l *listener) EventTypes() []event.EventType { return []event.EventType{event.EventUser} }

func TestAddSystemRegistersHandlers(t *testing.T) {
	g, _, _ := newGame(t, nil)
	l := AddSystem(g, 0, func(*Context) *listener { return &listener{} })

	g.Context().Dispatcher.Trigger(event.Event{Type: event.EventUser, Payload: 7})
	require.Len(t, l.seen, 1)
	assert.Equal(t, 7, l.seen[0].Payload)
}

func TestScriptChangedReloads(t *testing.T) {
	files := fstest.MapFS{"value.lua": {Data: []byte(`value = 1`)}}
	g, _, _ := newGame(t, files)
	scripts := g.Context().Scripts
	require.True(t, scripts.RegisterGlobalScript("value.lua"))

	files["value.lua"] = &fstest.MapFile{Data: []byte(`value = 2`)}
	g.Context().Dispatcher.Enqueue(event.Event{Type: event.EventScriptChanged, Payload: "value.lua"})
	g.Context().Dispatcher.Update()

	env, ok := scripts.GlobalScript("value.lua")
	require.True(t, ok)
	v, ok := script.Value[int](scripts, env, "value")
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

type destroyable struct {
	probe
	destroyed *bool
}

func (d *destroyable) Destroy() { *d.destroyed = true }

func TestCloseReleasesEverything(t *testing.T) {
	g, backend, _ := newGame(t, nil)
	ctx := g.Context()
	ctx.World.CreateEntity()

	var sceneGone, systemGone bool
	SetFirstScene(g, "main", func(*Context) *destroyable { return &destroyable{destroyed: &sceneGone} })
	AddSystem(g, 0, func(*Context) *destroyable { return &destroyable{destroyed: &systemGone} })

	g.Close()
	assert.True(t, sceneGone)
	assert.True(t, systemGone)
	assert.Zero(t, ctx.World.Count())
	assert.True(t, backend.Closed())
}
