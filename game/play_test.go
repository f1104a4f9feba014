package game

import (
	"io/fs"
	"os"
	"testing"
	"testing/fstest"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/vi-runtime/audio"
	"github.com/lixenwraith/vi-runtime/component"
	"github.com/lixenwraith/vi-runtime/ecs"
	"github.com/lixenwraith/vi-runtime/engine"
	"github.com/lixenwraith/vi-runtime/render"
	"github.com/lixenwraith/vi-runtime/resource"
	"github.com/lixenwraith/vi-runtime/vmath"
)

const (
	pickupTone = "tone:880:80ms"
	dieTone    = "tone:110:400ms"
)

type fixture struct {
	game    *engine.Game
	ctx     *engine.Context
	backend *render.MemoryBackend
	input   *InputSystem
	scene   *PlayScene
}

func newFixture(t *testing.T, files fs.FS, globals []string, opts PlayOptions) *fixture {
	t.Helper()
	backend := render.NewMemoryBackend(60, 20)
	g := engine.New(engine.Options{
		Backend:  backend,
		Clock:    engine.NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
		ScriptFS: files,
	})
	t.Cleanup(g.Close)
	ctx := g.Context()

	resource.AddCache(ctx.Resources, audio.Loader(nil, ctx.Audio.SampleRate()), audio.Unload)
	for _, path := range globals {
		require.True(t, ctx.Scripts.RegisterGlobalScript(path))
	}

	input := engine.AddSystem(g, InputPriority, NewInputSystem)
	if opts.GridSize == 0 {
		opts.GridSize = 8
	}
	opts.Input = input
	if opts.Seed == 0 {
		opts.Seed = 3
	}
	scene := engine.SetFirstScene(g, SceneName, func(ctx *engine.Context) *PlayScene {
		return NewPlayScene(ctx, opts)
	})
	return &fixture{game: g, ctx: ctx, backend: backend, input: input, scene: scene}
}

func (f *fixture) press(evs ...render.KeyEvent) {
	for _, ev := range evs {
		f.backend.Press(ev)
	}
	f.backend.EndFrame()
	f.input.Update(0)
}

func key(k tcell.Key) render.KeyEvent { return render.KeyEvent{Key: k} }
func char(r rune) render.KeyEvent     { return render.KeyEvent{Key: tcell.KeyRune, Rune: r} }

func TestInputResolvesIntents(t *testing.T) {
	f := newFixture(t, nil, nil, PlayOptions{})

	f.press(key(tcell.KeyUp), char('h'), char('x'), key(tcell.KeyEscape))
	assert.Equal(t, []Intent{IntentUp, IntentLeft, IntentQuit}, f.input.Intents())
	assert.True(t, f.input.Has(IntentLeft))

	f.input.Update(0)
	assert.Empty(t, f.input.Intents(), "latched for one step")
}

func TestInputClearedOnSceneChange(t *testing.T) {
	f := newFixture(t, nil, nil, PlayOptions{})
	f.press(char('j'))
	require.NotEmpty(t, f.input.Intents())

	f.ctx.ChangeScene(SceneName)
	assert.Empty(t, f.input.Intents())
}

func TestEscapeStopsTheLoop(t *testing.T) {
	f := newFixture(t, nil, nil, PlayOptions{})
	f.backend.Press(key(tcell.KeyEscape))

	f.game.Run(60)
	assert.Equal(t, engine.StateStopped, f.game.State())
	assert.Equal(t, 2, f.backend.Frames, "key delivered at the first EndFrame, read on the next step")
}

func TestMuteToggles(t *testing.T) {
	f := newFixture(t, nil, nil, PlayOptions{})
	f.press(char('m'))
	f.scene.Update(0)
	assert.True(t, f.ctx.Audio.Muted())
}

func TestStartSpawnsSnakeAndFood(t *testing.T) {
	f := newFixture(t, nil, nil, PlayOptions{})
	assert.Equal(t, 3, f.scene.Snake().Len())

	f.scene.Update(0)
	food := 0
	ecs.StoreOf[Occupant](f.ctx.World).Each(func(_ ecs.Entity, o Occupant) bool {
		if o.Food {
			food++
		}
		return true
	})
	assert.Equal(t, 1, food)
}

func TestPickupScores(t *testing.T) {
	f := newFixture(t, nil, nil, PlayOptions{PickupSound: pickupTone})
	s := f.scene.Snake()
	next := s.Head().Add(s.Direction()).Wrap(f.scene.Grid().Size())
	f.scene.Grid().SpawnFood(next)

	require.True(t, s.Move())
	f.scene.Update(0)

	score, _ := f.scene.Score()
	assert.Equal(t, 10, score)
	assert.True(t, resource.GetCache[*audio.Sound](f.ctx.Resources).Has(pickupTone))
}

func TestLossRestartsAndKeepsBest(t *testing.T) {
	f := newFixture(t, nil, nil, PlayOptions{DieSound: dieTone})
	grid := f.scene.Grid()
	grid.Reset()
	f.scene.snake = placeSnake(grid,
		vmath.V2I(2, 2), vmath.V2I(3, 2), vmath.V2I(3, 3), vmath.V2I(2, 3), vmath.V2I(1, 3))
	f.scene.length = 5
	f.scene.score = 50

	f.scene.snake.Steer(Down)
	f.scene.Update(time.Second)

	score, best := f.scene.Score()
	assert.Zero(t, score)
	assert.Equal(t, 50, best)
	_, losses := f.scene.Rounds()
	assert.Equal(t, 1, losses)
	assert.Equal(t, 3, f.scene.Snake().Len())
}

func TestMissingSoundIsTolerated(t *testing.T) {
	f := newFixture(t, nil, nil, PlayOptions{PickupSound: "pickup.wav"})
	assert.Nil(t, f.scene.pickup)
	assert.False(t, resource.GetCache[*audio.Sound](f.ctx.Resources).Has("pickup.wav"))
}

func TestHUDDefaultText(t *testing.T) {
	f := newFixture(t, nil, nil, PlayOptions{})
	f.backend.BeginFrame()
	f.scene.Draw()
	f.backend.EndFrame()
	assert.Contains(t, f.backend.Row(0), "Score: 0 Hi: 0")
}

func TestHUDScriptFormatsAndTunes(t *testing.T) {
	files := fstest.MapFS{"hud.lua": {Data: []byte(`
color = "yellow"
snake = { speed = 5, speed_increase = 1 }
function Format(score, best) return "pts " .. score .. "/" .. best end
`)}}
	f := newFixture(t, files, []string{"hud.lua"}, PlayOptions{HUDScript: "hud.lua"})
	assert.InDelta(t, 5.0, f.scene.Snake().Speed, 1e-9)
	assert.InDelta(t, 1.0, f.scene.Snake().SpeedIncrease, 1e-9)

	f.backend.BeginFrame()
	f.scene.Draw()
	f.backend.EndFrame()
	assert.Contains(t, f.backend.Row(0), "pts 0/0")
	assert.Equal(t, tcell.StyleDefault.Foreground(tcell.ColorYellow), f.backend.CellAt(0, 0).Style)
}

func TestShippedHUDScript(t *testing.T) {
	f := newFixture(t, os.DirFS("../scripts"), []string{"hud.lua"}, PlayOptions{HUDScript: "hud.lua"})
	f.ctx.Scripts.Update(2 * time.Second)

	f.backend.BeginFrame()
	f.scene.Draw()
	f.backend.EndFrame()
	row := f.backend.Row(0)
	assert.Contains(t, row, "SNAKE")
	assert.Contains(t, row, "score 0")
	assert.Contains(t, row, "2s")
}

func TestShippedBannerScriptMoves(t *testing.T) {
	f := newFixture(t, os.DirFS("../scripts"), nil, PlayOptions{BannerScript: "banner.lua"})
	banner := f.scene.Banner()
	_, ok := f.ctx.Scripts.EntityScript(banner)
	require.True(t, ok)

	f.ctx.Scripts.Update(500 * time.Millisecond)
	tr, ok := ecs.Get[component.Transform](f.ctx.World, banner)
	require.True(t, ok)
	assert.InDelta(t, 3.0, tr.Position.X, 1e-9)
	assert.InDelta(t, 8.0, tr.Position.Y, 1e-9)
}

func TestDestroyRemovesSceneEntities(t *testing.T) {
	f := newFixture(t, nil, nil, PlayOptions{})
	require.NotZero(t, f.ctx.World.Count())

	f.ctx.Scenes.Close()
	assert.Zero(t, f.ctx.World.Count())
}
