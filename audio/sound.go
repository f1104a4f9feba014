// Package audio decodes and synthesizes short sound effects and plays them through the speaker
package audio

import (
	"bytes"
	"fmt"
	"io/fs"
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/wav"
)

// resampleQuality trades CPU for fidelity when a file's rate differs from the output rate
const resampleQuality = 4

// Sound is a fully decoded effect held in memory at the output sample rate
type Sound struct {
	Name   string
	buffer *beep.Buffer
}

// Streamer returns a fresh reader over the whole sound
func (s *Sound) Streamer() beep.Streamer {
	if s.buffer == nil {
		return beep.Silence(0)
	}
	return s.buffer.Streamer(0, s.buffer.Len())
}

// Len returns the sample count, 0 once released
func (s *Sound) Len() int {
	if s.buffer == nil {
		return 0
	}
	return s.buffer.Len()
}

// Duration returns the playback length
func (s *Sound) Duration() time.Duration {
	if s.buffer == nil {
		return 0
	}
	return s.buffer.Format().SampleRate.D(s.buffer.Len())
}

// Release drops the sample data
func (s *Sound) Release() {
	s.buffer = nil
}

func newFormat(rate beep.SampleRate) beep.Format {
	return beep.Format{SampleRate: rate, NumChannels: 2, Precision: 2}
}

// DecodeWAV reads path from fsys and converts it to rate
func DecodeWAV(fsys fs.FS, path string, rate beep.SampleRate) (*Sound, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, err
	}

	stream, format, err := wav.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode wav %s: %w", path, err)
	}
	defer stream.Close()

	var src beep.Streamer = stream
	if format.SampleRate != rate {
		src = beep.Resample(resampleQuality, format.SampleRate, rate, stream)
	}

	buf := beep.NewBuffer(newFormat(rate))
	buf.Append(src)
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("decode wav %s: %w", path, err)
	}
	return &Sound{Name: path, buffer: buf}, nil
}

// Tone synthesizes a sine beep of freq Hz with a short fade in and out
func Tone(name string, rate beep.SampleRate, freq float64, dur time.Duration) (*Sound, error) {
	if dur <= 0 {
		return nil, fmt.Errorf("tone %s: non-positive duration %v", name, dur)
	}
	sine, err := generators.SineTone(rate, freq)
	if err != nil {
		return nil, fmt.Errorf("tone %s: %w", name, err)
	}

	fade := min(dur/5, 20*time.Millisecond)
	shaped := newEnvelope(beep.Take(rate.N(dur), sine), dur, fade, fade, rate)

	buf := beep.NewBuffer(newFormat(rate))
	buf.Append(shaped)
	return &Sound{Name: name, buffer: buf}, nil
}

// envelope applies linear attack and release to a stream
type envelope struct {
	streamer beep.Streamer
	position int
	attack   int
	release  int
	total    int
}

func newEnvelope(s beep.Streamer, duration, attack, release time.Duration, rate beep.SampleRate) beep.Streamer {
	return &envelope{
		streamer: s,
		attack:   rate.N(attack),
		release:  rate.N(release),
		total:    rate.N(duration),
	}
}

func (e *envelope) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = e.streamer.Stream(samples)

	releaseStart := e.total - e.release
	for i := 0; i < n; i++ {
		if e.position >= e.total {
			return i, false
		}

		vol := 1.0
		if e.attack > 0 && e.position < e.attack {
			vol = float64(e.position) / float64(e.attack)
		}
		if e.release > 0 && e.position >= releaseStart {
			vol = math.Max(0, float64(e.total-e.position)/float64(e.release))
		}

		samples[i][0] *= vol
		samples[i][1] *= vol
		e.position++
	}
	return n, ok
}

func (e *envelope) Err() error { return e.streamer.Err() }

// withVolume scales s by a linear gain in [0, 1]
func withVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol)}
}
