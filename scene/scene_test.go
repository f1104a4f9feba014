package scene

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testContext struct {
	calls *[]string
}

type recordingScene struct {
	name    string
	ctx     *testContext
	updates []time.Duration
	draws   int
}

func (s *recordingScene) log(what string) {
	*s.ctx.calls = append(*s.ctx.calls, s.name+"."+what)
}

func (s *recordingScene) OnEnter()                { s.log("enter") }
func (s *recordingScene) OnExit()                 { s.log("exit") }
func (s *recordingScene) Update(dt time.Duration) { s.updates = append(s.updates, dt) }
func (s *recordingScene) Draw()                   { s.draws++ }
func (s *recordingScene) Destroy()                { s.log("destroy") }

func named(name string) func(*testContext) *recordingScene {
	return func(ctx *testContext) *recordingScene {
		return &recordingScene{name: name, ctx: ctx}
	}
}

func newManager() (*Manager[*testContext], *[]string) {
	calls := &[]string{}
	m := NewManager[*testContext]()
	m.SetContext(&testContext{calls: calls})
	return m, calls
}

func TestAddSceneWithoutContextPanics(t *testing.T) {
	m := NewManager[*testContext]()
	assert.Panics(t, func() { AddScene(m, "menu", named("menu")) })
}

func TestSetContextTwicePanics(t *testing.T) {
	m, _ := newManager()
	assert.Panics(t, func() { m.SetContext(&testContext{}) })
}

func TestFactoryReceivesContext(t *testing.T) {
	m, calls := newManager()
	s := AddScene(m, "menu", named("menu"))
	assert.Same(t, calls, s.ctx.calls)
}

func TestChangeSceneOrder(t *testing.T) {
	m, calls := newManager()
	AddScene(m, "menu", named("menu"))
	AddScene(m, "play", named("play"))

	m.ChangeScene("menu")
	m.ChangeScene("play")

	assert.Equal(t, []string{"menu.enter", "menu.exit", "play.enter"}, *calls)
	name, ok := m.Active()
	require.True(t, ok)
	assert.Equal(t, "play", name)
}

func TestChangeToUnknownPanics(t *testing.T) {
	m, _ := newManager()
	assert.PanicsWithValue(t, `scene: unknown scene "nope"`, func() { m.ChangeScene("nope") })
}

func TestUpdateDrawWithoutActive(t *testing.T) {
	m, _ := newManager()
	s := AddScene(m, "menu", named("menu"))
	m.Update(time.Millisecond)
	m.Draw()
	assert.Empty(t, s.updates)
	assert.Zero(t, s.draws)
}

func TestUpdateDrawForwardOnce(t *testing.T) {
	m, _ := newManager()
	menu := AddScene(m, "menu", named("menu"))
	play := AddScene(m, "play", named("play"))
	m.ChangeScene("play")

	m.Update(16 * time.Millisecond)
	m.Draw()

	assert.Equal(t, []time.Duration{16 * time.Millisecond}, play.updates)
	assert.Equal(t, 1, play.draws)
	assert.Empty(t, menu.updates)
}

func TestOverwriteDestroysPrevious(t *testing.T) {
	m, calls := newManager()
	first := AddScene(m, "menu", named("menu"))
	second := AddScene(m, "menu", named("menu2"))

	assert.NotSame(t, first, second)
	assert.Equal(t, []string{"menu.destroy"}, *calls)
	m.ChangeScene("menu")
	assert.Equal(t, "menu2.enter", (*calls)[1])
}

func TestOverwriteActivePanics(t *testing.T) {
	m, _ := newManager()
	AddScene(m, "menu", named("menu"))
	m.ChangeScene("menu")
	assert.Panics(t, func() { AddScene(m, "menu", named("menu")) })
}

func TestRemoveScene(t *testing.T) {
	m, calls := newManager()
	AddScene(m, "menu", named("menu"))
	AddScene(m, "play", named("play"))
	m.ChangeScene("play")

	m.RemoveScene("menu")
	m.RemoveScene("menu")
	assert.False(t, m.Has("menu"))
	assert.Equal(t, []string{"play.enter", "menu.destroy"}, *calls)

	assert.Panics(t, func() { m.RemoveScene("play") })
}

func TestClose(t *testing.T) {
	m, calls := newManager()
	AddScene(m, "b", named("b"))
	AddScene(m, "a", named("a"))
	m.ChangeScene("b")
	*calls = nil

	m.Close()
	assert.Equal(t, []string{"b.exit", "a.destroy", "b.destroy"}, *calls)
	assert.Empty(t, m.Names())
	_, ok := m.Active()
	assert.False(t, ok)
}
