package audio

import (
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/gopxl/beep"
)

// TonePrefix marks a synthesized sound path: tone:<hz>:<duration>
const TonePrefix = "tone:"

// Loader returns a load function for a resource cache
// Paths starting with TonePrefix are synthesized; anything else is decoded as wav from fsys
func Loader(fsys fs.FS, rate beep.SampleRate) func(path string) (*Sound, error) {
	return func(path string) (*Sound, error) {
		if strings.HasPrefix(path, TonePrefix) {
			freq, dur, err := ParseTone(path)
			if err != nil {
				return nil, err
			}
			return Tone(path, rate, freq, dur)
		}
		if fsys == nil {
			return nil, fmt.Errorf("no sound filesystem for %s", path)
		}
		return DecodeWAV(fsys, path, rate)
	}
}

// Unload is the cache unload hook for sounds
func Unload(s *Sound) {
	s.Release()
}

// ParseTone splits tone:<hz>:<duration>
func ParseTone(path string) (float64, time.Duration, error) {
	parts := strings.Split(strings.TrimPrefix(path, TonePrefix), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("tone %q: want tone:<hz>:<duration>", path)
	}
	freq, err := strconv.ParseFloat(parts[0], 64)
	if err != nil || freq <= 0 {
		return 0, 0, fmt.Errorf("tone %q: bad frequency %q", path, parts[0])
	}
	dur, err := time.ParseDuration(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("tone %q: %w", path, err)
	}
	return freq, dur, nil
}
