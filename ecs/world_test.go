package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type position struct{ X, Y int }
type layer struct{ Z int }

func TestCreateDestroy(t *testing.T) {
	w := NewWorld()
	e1 := w.CreateEntity()
	e2 := w.CreateEntity()
	require.NotEqual(t, NullEntity, e1)
	require.NotEqual(t, e1, e2)

	Add(w, e1, position{1, 2})
	Add(w, e1, layer{3})
	Add(w, e2, position{4, 5})

	w.DestroyEntity(e1)
	assert.False(t, w.Valid(e1))
	assert.False(t, Has[position](w, e1))
	assert.False(t, Has[layer](w, e1))
	assert.True(t, Has[position](w, e2))
	assert.Equal(t, 1, w.Count())

	// second destroy is a no-op
	w.DestroyEntity(e1)
	assert.Equal(t, 1, w.Count())
}

func TestAddReplaces(t *testing.T) {
	w := NewWorld()
	e := w.CreateEntity()
	Add(w, e, position{1, 1})
	Add(w, e, position{2, 2})

	got, ok := Get[position](w, e)
	require.True(t, ok)
	assert.Equal(t, position{2, 2}, got)
	assert.Equal(t, 1, StoreOf[position](w).Len())
}

func TestAddToDeadEntityPanics(t *testing.T) {
	w := NewWorld()
	assert.Panics(t, func() { Add(w, Entity(42), position{}) })
}

func TestPatch(t *testing.T) {
	w := NewWorld()
	e := w.CreateEntity()
	Add(w, e, position{1, 1})

	ok := Patch(w, e, func(p *position) { p.X += 10 })
	require.True(t, ok)
	got, _ := Get[position](w, e)
	assert.Equal(t, 11, got.X)

	assert.False(t, Patch(w, w.CreateEntity(), func(p *position) {}))
}

func TestView2AndSort(t *testing.T) {
	w := NewWorld()
	var es []Entity
	for i, z := range []int{3, 1, 2} {
		e := w.CreateEntity()
		es = append(es, e)
		Add(w, e, layer{z})
		if i != 1 {
			Add(w, e, position{i, i})
		}
	}

	Sort(w, func(a, b layer) bool { return a.Z < b.Z })
	assert.Equal(t, []Entity{es[1], es[2], es[0]}, View[layer](w))
	assert.Equal(t, []Entity{es[2], es[0]}, View2[layer, position](w))
}

func TestEachToleratesRemoval(t *testing.T) {
	w := NewWorld()
	a, b := w.CreateEntity(), w.CreateEntity()
	Add(w, a, position{})
	Add(w, b, position{})

	var seen []Entity
	StoreOf[position](w).Each(func(e Entity, _ position) bool {
		seen = append(seen, e)
		Remove[position](w, b)
		return true
	})
	assert.Equal(t, []Entity{a}, seen)
}

func TestClear(t *testing.T) {
	w := NewWorld()
	e := w.CreateEntity()
	Add(w, e, position{})
	w.Clear()

	assert.Equal(t, 0, w.Count())
	assert.Equal(t, 0, StoreOf[position](w).Len())
	assert.Equal(t, Entity(1), w.CreateEntity())
}
