package audio

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"github.com/lixenwraith/vi-runtime/log"
)

// Config controls the output device
type Config struct {
	Enabled    bool
	SampleRate int
	Volume     float64
}

// Player mixes sounds into the speaker
// A player whose device failed to open stays usable and plays nothing
type Player struct {
	mu      sync.Mutex
	rate    beep.SampleRate
	volume  float64
	mixer   *beep.Mixer
	enabled bool
	muted   bool
	logger  log.Logger
}

// NewPlayer opens the speaker when cfg.Enabled; open failure is logged and disables playback
func NewPlayer(cfg Config, logger log.Logger) *Player {
	if logger == nil {
		logger = log.Nop()
	}
	p := &Player{
		rate:   beep.SampleRate(cfg.SampleRate),
		volume: cfg.Volume,
		mixer:  &beep.Mixer{},
		logger: logger.Named("audio"),
	}
	if !cfg.Enabled {
		return p
	}

	if err := speaker.Init(p.rate, p.rate.N(100*time.Millisecond)); err != nil {
		p.logger.Warn("audio device unavailable, continuing without sound", log.Err(err))
		return p
	}
	speaker.Play(p.mixer)
	p.enabled = true
	return p
}

// SampleRate is the rate sounds must be decoded at
func (p *Player) SampleRate() beep.SampleRate {
	return p.rate
}

// Enabled reports whether the device is open
func (p *Player) Enabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabled
}

// SetMuted silences playback without closing the device
func (p *Player) SetMuted(muted bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.muted = muted
}

func (p *Player) Muted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.muted
}

// Play starts s from the beginning, false when nothing was queued
func (p *Player) Play(s *Sound) bool {
	if s == nil || s.Len() == 0 {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.enabled || p.muted {
		return false
	}

	speaker.Lock()
	p.mixer.Add(withVolume(s.Streamer(), p.volume))
	speaker.Unlock()
	return true
}

// Close stops playback and releases the device
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.enabled {
		return
	}
	speaker.Lock()
	p.mixer.Clear()
	speaker.Unlock()
	speaker.Close()
	p.enabled = false
}
