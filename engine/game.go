// Package engine composes the runtime: shared context, fixed-timestep loop, and teardown
package engine

import (
	"fmt"
	"io/fs"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/vi-runtime/audio"
	"github.com/lixenwraith/vi-runtime/ecs"
	"github.com/lixenwraith/vi-runtime/event"
	"github.com/lixenwraith/vi-runtime/log"
	"github.com/lixenwraith/vi-runtime/render"
	"github.com/lixenwraith/vi-runtime/resource"
	"github.com/lixenwraith/vi-runtime/scene"
	"github.com/lixenwraith/vi-runtime/script"
	"github.com/lixenwraith/vi-runtime/status"
	"github.com/lixenwraith/vi-runtime/system"
)

// MaxFrameDelta caps the wall time one iteration may feed the accumulator
const MaxFrameDelta = time.Second

// Target frame rate bounds accepted by Run
const (
	MinFPS = 1
	MaxFPS = 1000
)

// State of the loop
type State int32

const (
	StateStopped State = iota
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	default:
		return "stopped"
	}
}

// Options wires collaborators into New
// Backend is required; everything else has a default
type Options struct {
	Backend  render.Backend
	Logger   log.Logger
	Clock    Clock
	ScriptFS fs.FS
	Script   []script.Option
	Audio    *audio.Player
	Status   *status.Registry
}

// Game owns every runtime component and drives the loop
type Game struct {
	ctx     *Context
	backend render.Backend
	clock   Clock
	logger  log.Logger

	state          atomic.Int32
	closeRequested bool

	step        time.Duration
	accumulator time.Duration
	last        time.Time

	fpsWindow time.Duration
	fpsFrames int

	statFrames  *atomic.Int64
	statSteps   *atomic.Int64
	statDropped *atomic.Int64
	statFPS     *status.AtomicFloat
}

// New builds the world, managers, and bridge, then the shared context exactly once
func New(opts Options) *Game {
	if opts.Backend == nil {
		panic("engine: nil backend")
	}
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}
	if opts.Clock == nil {
		opts.Clock = MonotonicClock{}
	}
	if opts.Status == nil {
		opts.Status = status.NewRegistry()
	}
	if opts.Audio == nil {
		opts.Audio = audio.NewPlayer(audio.Config{Enabled: false, SampleRate: 44100, Volume: 1}, opts.Logger)
	}

	world := ecs.NewWorld()
	scriptOpts := append([]script.Option{script.WithStatus(opts.Status)}, opts.Script...)

	ctx := &Context{
		World:      world,
		Dispatcher: event.NewDispatcher(),
		Renderer:   render.NewRenderer(opts.Backend),
		Resources:  resource.NewRegistry(opts.Logger),
		Scenes:     scene.NewManager[*Context](),
		Systems:    system.NewManager[*Context](),
		Scripts:    script.New(world, opts.ScriptFS, opts.Logger, scriptOpts...),
		Audio:      opts.Audio,
		Status:     opts.Status,
		Logger:     opts.Logger,
	}
	ctx.Scenes.SetContext(ctx)
	ctx.Systems.SetContext(ctx)

	g := &Game{
		ctx:         ctx,
		backend:     opts.Backend,
		clock:       opts.Clock,
		logger:      opts.Logger.Named("engine"),
		statFrames:  opts.Status.Ints.Get(status.KeyFrames),
		statSteps:   opts.Status.Ints.Get(status.KeySteps),
		statDropped: opts.Status.Ints.Get(status.KeyDroppedTime),
		statFPS:     opts.Status.Floats.Get(status.KeyFPS),
	}

	ctx.Dispatcher.Subscribe(event.EventCloseGame, func(event.Event) {
		g.closeRequested = true
	})
	ctx.Dispatcher.Subscribe(event.EventScriptChanged, func(ev event.Event) {
		if path, ok := ev.Payload.(string); ok {
			ctx.Scripts.ReloadPath(path)
		}
	})

	return g
}

// Context returns the shared context
func (g *Game) Context() *Context {
	return g.ctx
}

// State reports whether Run is looping, safe from any goroutine
func (g *Game) State() State {
	return State(g.state.Load())
}

// Stop asks Run to return after the current iteration, safe from any goroutine
func (g *Game) Stop() {
	g.ctx.Dispatcher.Enqueue(event.Event{Type: event.EventCloseGame})
}

// AddScene constructs and stores a scene
func AddScene[T scene.Scene](g *Game, name string, factory func(*Context) T) T {
	return scene.AddScene(g.ctx.Scenes, name, factory)
}

// SetFirstScene adds the scene and makes it active
func SetFirstScene[T scene.Scene](g *Game, name string, factory func(*Context) T) T {
	s := scene.AddScene(g.ctx.Scenes, name, factory)
	g.ctx.ChangeScene(name)
	return s
}

// AddSystem constructs a system at priority
// Systems implementing event.Handler are registered with the dispatcher
func AddSystem[T system.System](g *Game, priority int, factory func(*Context) T) T {
	s := system.AddSystem(g.ctx.Systems, priority, factory)
	if h, ok := any(s).(event.Handler); ok {
		g.ctx.Dispatcher.Register(h)
	}
	return s
}

// Run loops at targetFPS until a close is requested
// Panics unless MinFPS <= targetFPS <= MaxFPS
func (g *Game) Run(targetFPS int) {
	if targetFPS < MinFPS || targetFPS > MaxFPS {
		panic(fmt.Sprintf("engine: target fps %d outside [%d, %d]", targetFPS, MinFPS, MaxFPS))
	}

	g.step = time.Second / time.Duration(targetFPS)
	g.accumulator = 0
	g.closeRequested = false
	g.last = g.clock.Now()
	g.state.Store(int32(StateRunning))
	g.logger.Info("runtime started", log.Int("fps", targetFPS), log.Duration("step", g.step))

	for g.State() == StateRunning {
		start := g.clock.Now()
		g.ctx.Dispatcher.Update()

		delta := start.Sub(g.last)
		g.last = start
		g.frame(delta)

		if g.closeRequested || g.backend.ShouldClose() {
			g.state.Store(int32(StateStopped))
			break
		}

		if remaining := g.step - g.clock.Now().Sub(start); remaining > 0 {
			g.clock.Sleep(remaining)
		}
	}

	g.logger.Info("runtime stopped",
		log.Int64("frames", g.statFrames.Load()), log.Int64("steps", g.statSteps.Load()))
	g.logger.Debug("runtime status", log.Any("status", g.ctx.Status.Snapshot()))
}

// frame runs every due fixed step then one render pass, returns the step count
func (g *Game) frame(delta time.Duration) int {
	if delta < 0 {
		delta = 0
	}
	if delta > MaxFrameDelta {
		g.statDropped.Add((delta - MaxFrameDelta).Milliseconds())
		delta = MaxFrameDelta
	}
	g.accumulator += delta

	steps := 0
	for g.accumulator >= g.step {
		g.ctx.Systems.Update(g.step)
		g.ctx.Scripts.Update(g.step)
		g.ctx.Scenes.Update(g.step)
		g.accumulator -= g.step
		steps++
	}

	g.render()

	g.statSteps.Add(int64(steps))
	g.statFrames.Add(1)
	g.trackFPS(delta)
	return steps
}

func (g *Game) render() {
	g.backend.BeginFrame()
	g.ctx.Renderer.Draw(g.ctx.World)
	g.ctx.Systems.Draw()
	g.ctx.Scenes.Draw()
	g.backend.EndFrame()
}

func (g *Game) trackFPS(delta time.Duration) {
	g.fpsWindow += delta
	g.fpsFrames++
	if g.fpsWindow >= time.Second {
		g.statFPS.Store(float64(g.fpsFrames) / g.fpsWindow.Seconds())
		g.fpsWindow = 0
		g.fpsFrames = 0
	}
}

// Close tears down in dependency order: scenes, systems, scripts, resources, world, backend
func (g *Game) Close() {
	g.ctx.Scenes.Close()
	g.ctx.Systems.Close()
	g.ctx.Scripts.Close()
	g.ctx.Resources.Close()
	g.ctx.World.Clear()
	g.ctx.Audio.Close()
	g.backend.Close()
	_ = g.logger.Sync()
}
