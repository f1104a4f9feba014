package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lixenwraith/vi-runtime/audio"
	"github.com/lixenwraith/vi-runtime/config"
	"github.com/lixenwraith/vi-runtime/core"
	"github.com/lixenwraith/vi-runtime/engine"
	"github.com/lixenwraith/vi-runtime/game"
	"github.com/lixenwraith/vi-runtime/log"
	"github.com/lixenwraith/vi-runtime/render"
	"github.com/lixenwraith/vi-runtime/resource"
	"github.com/lixenwraith/vi-runtime/script"
)

// flags holds command line overrides applied on top of the config file
type flags struct {
	configPath string
	fps        int
	mute       bool
	headless   bool
	frames     int
	seed       uint64
}

func parseFlags(args []string, out io.Writer) (flags, error) {
	var f flags
	fs := flag.NewFlagSet("vi-runtime", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVar(&f.configPath, "config", "vi-runtime.yaml", "Config file, missing file uses defaults")
	fs.IntVar(&f.fps, "fps", 0, "Target frame rate, overrides config")
	fs.BoolVar(&f.mute, "mute", false, "Start without opening the audio device")
	fs.BoolVar(&f.headless, "headless", false, "Run on an in-memory screen, for smoke tests")
	fs.IntVar(&f.frames, "frames", 0, "Stop after this many fixed steps, 0 runs until quit")
	fs.Uint64Var(&f.seed, "seed", 0, "Random seed, 0 picks one from the clock")
	if err := fs.Parse(args); err != nil {
		return f, err
	}
	return f, nil
}

// loadConfig reads the config file and applies flag overrides
func loadConfig(f flags) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	if f.fps != 0 {
		cfg.TargetFPS = f.fps
	}
	if f.mute {
		cfg.Audio.Enabled = false
	}
	if f.headless {
		cfg.Audio.Enabled = false
		cfg.Scripts.Watch = false
	}
	return cfg, cfg.Validate()
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			core.HandleCrash(r)
		}
	}()

	f, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(2)
	}
	cfg, err := loadConfig(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// The terminal owns stderr while running
	logCfg := cfg.Log
	if !f.headless {
		logCfg.Console = false
	}
	logger, err := log.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	backend, err := newBackend(f.headless)
	if err != nil {
		logger.Error("terminal init failed", log.Err(err))
		fmt.Fprintf(os.Stderr, "terminal: %v\n", err)
		os.Exit(1)
	}
	core.OnCrash(backend.Close)

	run(cfg, f, backend, logger)
}

func newBackend(headless bool) (render.Backend, error) {
	if headless {
		return render.NewMemoryBackend(80, 24), nil
	}
	return render.NewTcellBackend()
}

// run wires every component, loops until quit, then tears down
// The returned game is already closed
func run(cfg *config.Config, f flags, backend render.Backend, logger log.Logger) *engine.Game {
	player := audio.NewPlayer(audio.Config{
		Enabled:    cfg.Audio.Enabled,
		SampleRate: cfg.Audio.SampleRate,
		Volume:     cfg.Audio.Volume,
	}, logger)

	g := engine.New(engine.Options{
		Backend:  backend,
		Logger:   logger,
		ScriptFS: os.DirFS(cfg.Scripts.Root),
		Script:   []script.Option{script.WithCallBudget(cfg.Scripts.CallBudget)},
		Audio:    player,
	})
	defer g.Close()
	ctx := g.Context()

	resource.AddCache(ctx.Resources, audio.Loader(os.DirFS(cfg.Audio.Root), player.SampleRate()), audio.Unload)

	if cfg.Scripts.Watch {
		w, err := script.NewWatcher(cfg.Scripts.Root, ctx.Dispatcher, logger, script.DefaultDebounce)
		if err != nil {
			logger.Warn("script hot reload disabled", log.Err(err))
		} else {
			w.Start()
			defer w.Close()
		}
	}

	for _, path := range cfg.Scripts.Globals {
		ctx.Scripts.RegisterGlobalScript(path)
	}

	seed := f.seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	input := engine.AddSystem(g, game.InputPriority, game.NewInputSystem)
	if f.frames > 0 {
		engine.AddSystem(g, game.InputPriority+1, func(ctx *engine.Context) *stepLimit {
			return &stepLimit{ctx: ctx, left: f.frames}
		})
	}

	opts := game.PlayOptions{
		GridSize:     cfg.Grid.Size,
		Input:        input,
		PickupSound:  cfg.Audio.Pickup,
		DieSound:     cfg.Audio.Die,
		BannerScript: cfg.Scripts.Banner,
		Seed:         seed,
	}
	if len(cfg.Scripts.Globals) > 0 {
		opts.HUDScript = cfg.Scripts.Globals[0]
	}
	engine.SetFirstScene(g, game.SceneName, func(ctx *engine.Context) *game.PlayScene {
		return game.NewPlayScene(ctx, opts)
	})

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)
	done := make(chan struct{})
	defer close(done)
	core.Go(func() {
		select {
		case sig := <-sigs:
			logger.Info("signal received", log.String("signal", sig.String()))
			g.Stop()
		case <-done:
		}
	})

	g.Run(cfg.TargetFPS)
	return g
}

// stepLimit requests close after a fixed number of steps
type stepLimit struct {
	ctx  *engine.Context
	left int
}

func (s *stepLimit) Update(time.Duration) {
	s.left--
	if s.left == 0 {
		s.ctx.RequestClose()
	}
}

func (s *stepLimit) Draw() {}
