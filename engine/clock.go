package engine

import (
	"sync"
	"time"
)

// Clock supplies wall time and sleeping to the runtime loop
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// MonotonicClock reads the system clock with its monotonic component
type MonotonicClock struct{}

func (MonotonicClock) Now() time.Time {
	return time.Now()
}

func (MonotonicClock) Sleep(d time.Duration) {
	time.Sleep(d)
}

// MockClock is a controllable clock for tests
// Sleep advances the clock instead of blocking
type MockClock struct {
	mu    sync.Mutex
	now   time.Time
	slept []time.Duration
	// OnNow, when set, runs on every Now call before the time is read
	OnNow func(c *MockClock)
}

// NewMockClock starts at start
func NewMockClock(start time.Time) *MockClock {
	return &MockClock{now: start}
}

func (m *MockClock) Now() time.Time {
	if m.OnNow != nil {
		m.OnNow(m)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *MockClock) Sleep(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slept = append(m.slept, d)
	m.now = m.now.Add(d)
}

// Advance moves the clock forward by d
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

// Slept returns every duration passed to Sleep
func (m *MockClock) Slept() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]time.Duration, len(m.slept))
	copy(out, m.slept)
	return out
}
