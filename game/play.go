package game

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/vi-runtime/audio"
	"github.com/lixenwraith/vi-runtime/component"
	"github.com/lixenwraith/vi-runtime/ecs"
	"github.com/lixenwraith/vi-runtime/engine"
	"github.com/lixenwraith/vi-runtime/log"
	"github.com/lixenwraith/vi-runtime/resource"
	"github.com/lixenwraith/vi-runtime/script"
	"github.com/lixenwraith/vi-runtime/vmath"
)

// SceneName is the name the play scene is registered under
const SceneName = "play"

// PlayOptions configures a PlayScene; empty paths disable the feature
type PlayOptions struct {
	GridSize int
	Input    *InputSystem
	// Sound paths resolved through the *audio.Sound resource cache
	PickupSound string
	DieSound    string
	// HUDScript names a registered global script exposing Format(score, best) and a snake tuning table
	HUDScript string
	// BannerScript is attached to the banner entity under the board
	BannerScript string
	Seed         uint64
}

// PlayScene runs rounds of snake: spawning food, scoring growth, restarting on win or loss
type PlayScene struct {
	ctx    *engine.Context
	opts   PlayOptions
	logger log.Logger
	rng    *vmath.FastRand

	grid  *Grid
	snake *Snake

	length      int
	foodSpawned int
	maxFood     int

	score  int
	best   int
	wins   int
	losses int

	pickup *audio.Sound
	die    *audio.Sound
	banner ecs.Entity
}

// NewPlayScene builds the board, resolves sounds, and spawns the banner
// Panics if opts.Input is nil
func NewPlayScene(ctx *engine.Context, opts PlayOptions) *PlayScene {
	if opts.Input == nil {
		panic("game: play scene needs an input system")
	}
	s := &PlayScene{
		ctx:    ctx,
		opts:   opts,
		logger: ctx.Logger.Named("play"),
		rng:    vmath.NewFastRand(opts.Seed),
		grid:   NewGrid(ctx.World, opts.GridSize),
	}

	// Row 0 holds the HUD
	ctx.Renderer.Camera.Offset = vmath.V2I(0, 1)

	s.pickup = s.sound(opts.PickupSound)
	s.die = s.sound(opts.DieSound)
	s.banner = s.spawnBanner()
	return s
}

func (s *PlayScene) sound(path string) *audio.Sound {
	if path == "" || !resource.HasCache[*audio.Sound](s.ctx.Resources) {
		return nil
	}
	snd, err := resource.GetCache[*audio.Sound](s.ctx.Resources).Get(path)
	if err != nil {
		return nil
	}
	return snd
}

func (s *PlayScene) play(snd *audio.Sound) {
	if snd != nil {
		s.ctx.Audio.Play(snd)
	}
}

func (s *PlayScene) spawnBanner() ecs.Entity {
	w := s.ctx.World
	e := w.CreateEntity()
	ecs.Add(w, e, component.Transform{Position: vmath.V2F(0, float64(s.grid.Size()))})
	ecs.Add(w, e, component.Sprite{
		Glyph: '~',
		Style: tcell.StyleDefault.Foreground(tcell.ColorYellow),
		Layer: component.LayerUI,
	})

	if s.opts.BannerScript == "" {
		return e
	}
	if !s.ctx.Scripts.AttachEntityScript(e, s.opts.BannerScript) {
		return e
	}
	env, _ := s.ctx.Scripts.EntityScript(e)
	s.ctx.Scripts.BindObject(env, "width", s.grid.Size())
	return e
}

func (s *PlayScene) hud() (*script.Environment, bool) {
	if s.opts.HUDScript == "" {
		return nil, false
	}
	env, ok := s.ctx.Scripts.GlobalScript(s.opts.HUDScript)
	return env, ok && env.Enabled
}

// start clears the board and begins a new round, keeping the best score
func (s *PlayScene) start() {
	s.grid.Reset()
	s.snake = NewSnake(s.grid, s.rng)
	if env, ok := s.hud(); ok {
		if speed, ok := script.Field[float64](s.ctx.Scripts, env, "snake", "speed"); ok && speed > 0 {
			s.snake.Speed = speed
		}
		if inc, ok := script.Field[float64](s.ctx.Scripts, env, "snake", "speed_increase"); ok && inc >= 0 {
			s.snake.SpeedIncrease = inc
		}
	}

	s.best = max(s.best, s.score)
	s.score = 0
	s.length = s.snake.Len()
	s.foodSpawned = 0
	s.maxFood = 1
}

func (s *PlayScene) OnEnter() {
	s.start()
}

func (s *PlayScene) OnExit() {}

func (s *PlayScene) Update(dt time.Duration) {
	for _, intent := range s.opts.Input.Intents() {
		switch intent {
		case IntentQuit:
			s.ctx.RequestClose()
		case IntentUp:
			s.snake.Steer(Up)
		case IntentDown:
			s.snake.Steer(Down)
		case IntentLeft:
			s.snake.Steer(Left)
		case IntentRight:
			s.snake.Steer(Right)
		case IntentToggleMute:
			s.ctx.Audio.SetMuted(!s.ctx.Audio.Muted())
		}
	}

	for s.foodSpawned < s.maxFood {
		if !s.spawnFood() {
			if s.grid.Free() == 0 {
				s.wins++
				s.logger.Info("round won", log.Int("score", s.score), log.Int("length", s.snake.Len()))
				s.start()
				return
			}
			break
		}
		s.foodSpawned++
	}

	if n := s.snake.Len(); n > s.length {
		s.length = n
		s.foodSpawned--
		s.score += 10 * (n/5 + 1)
		s.maxFood = n/10 + 1
		s.play(s.pickup)
	}

	if !s.snake.Update(dt) {
		s.losses++
		s.logger.Info("round lost", log.Int("score", s.score), log.Int("length", s.snake.Len()))
		s.play(s.die)
		s.start()
	}
}

// spawnFood places food on a random empty cell, false when none is empty
func (s *PlayScene) spawnFood() bool {
	n := s.grid.Size()
	var empty []vmath.Vec2I
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			p := vmath.V2I(x, y)
			if s.grid.Entity(p) == ecs.NullEntity {
				empty = append(empty, p)
			}
		}
	}
	if len(empty) == 0 {
		return false
	}
	s.grid.SpawnFood(empty[s.rng.Intn(len(empty))])
	return true
}

// Draw writes the HUD line, formatted by the HUD script when one is loaded
func (s *PlayScene) Draw() {
	text := fmt.Sprintf("Score: %d Hi: %d", s.score, s.best)
	style := tcell.StyleDefault.Foreground(tcell.ColorWhite)

	if env, ok := s.hud(); ok {
		if out, ok := script.CallReturn[string](s.ctx.Scripts, env, "Format", s.score, s.best); ok {
			text = out
		}
		if name, ok := script.Value[string](s.ctx.Scripts, env, "color"); ok {
			if c := tcell.GetColor(name); c != tcell.ColorDefault {
				style = style.Foreground(c)
			}
		}
	}
	s.ctx.Backend().DrawText(0, 0, text, style)
}

// Destroy removes every entity the scene created
func (s *PlayScene) Destroy() {
	s.grid.Reset()
	s.ctx.World.DestroyEntity(s.banner)
}

// Grid returns the board
func (s *PlayScene) Grid() *Grid { return s.grid }

// Snake returns the current round's snake
func (s *PlayScene) Snake() *Snake { return s.snake }

// Score returns the current and best score
func (s *PlayScene) Score() (current, best int) { return s.score, s.best }

// Rounds returns how many rounds were won and lost
func (s *PlayScene) Rounds() (wins, losses int) { return s.wins, s.losses }

// Banner returns the banner entity
func (s *PlayScene) Banner() ecs.Entity { return s.banner }
