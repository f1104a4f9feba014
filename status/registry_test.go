package status

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricMapReturnsStablePointer(t *testing.T) {
	m := NewMetricMap[AtomicFloat]()
	a := m.Get("fps")
	b := m.Get("fps")
	require.Same(t, a, b)

	a.Store(59.5)
	assert.Equal(t, 59.5, b.Load())
	assert.True(t, m.Has("fps"))
	assert.False(t, m.Has("missing"))
}

func TestRegistrySnapshot(t *testing.T) {
	r := NewRegistry()
	r.Ints.Get(KeyFrames).Store(12)
	r.Floats.Get(KeyFPS).Store(60)
	r.Strings.Get(KeyActiveScene).Store("game")

	snap := r.Snapshot()
	assert.Equal(t, int64(12), snap[KeyFrames])
	assert.Equal(t, 60.0, snap[KeyFPS])
	assert.Equal(t, "game", snap[KeyActiveScene])
	assert.Equal(t, 3, r.TotalCount())
}

func TestMetricMapRangeSorted(t *testing.T) {
	m := NewMetricMap[AtomicString]()
	m.Get("b")
	m.Get("a")
	m.Get("c")

	var keys []string
	m.Range(func(k string, _ *AtomicString) { keys = append(keys, k) })
	assert.Equal(t, []string{"a", "b", "c"}, keys)
}

func TestMetricMapConcurrentGet(t *testing.T) {
	m := NewMetricMap[AtomicFloat]()
	var wg sync.WaitGroup
	ptrs := make([]*AtomicFloat, 16)
	for i := range ptrs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ptrs[i] = m.Get("shared")
		}()
	}
	wg.Wait()

	for _, p := range ptrs {
		assert.Same(t, ptrs[0], p)
	}
	assert.Equal(t, 1, m.Count())
}
