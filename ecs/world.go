// Package ecs is the entity/component store the runtime is built on
// Entities are opaque handles; components are plain values kept in one Store per Go type
// Not safe for concurrent use: the runtime mutates it only from the loop goroutine
package ecs

import (
	"fmt"
	"reflect"
)

// Entity is an opaque handle into the world
type Entity uint32

// NullEntity is never returned by CreateEntity
const NullEntity Entity = 0

// World owns entities and their component stores
type World struct {
	nextEntityID Entity
	alive        map[Entity]struct{}

	stores map[reflect.Type]AnyStore
	// Registration order, for deterministic teardown
	allStores []AnyStore
}

// NewWorld creates an empty world
func NewWorld() *World {
	return &World{
		nextEntityID: 1,
		alive:        make(map[Entity]struct{}),
		stores:       make(map[reflect.Type]AnyStore),
	}
}

// CreateEntity reserves a new entity handle
func (w *World) CreateEntity() Entity {
	id := w.nextEntityID
	w.nextEntityID++
	w.alive[id] = struct{}{}
	return id
}

// DestroyEntity removes the entity and every component attached to it
// Destroying an unknown entity is a no-op
func (w *World) DestroyEntity(e Entity) {
	if _, ok := w.alive[e]; !ok {
		return
	}
	for _, store := range w.allStores {
		store.RemoveEntity(e)
	}
	delete(w.alive, e)
}

// Valid reports whether e was created and not yet destroyed
func (w *World) Valid(e Entity) bool {
	_, ok := w.alive[e]
	return ok
}

// Count returns the number of live entities
func (w *World) Count() int {
	return len(w.alive)
}

// Clear destroys all entities; stores stay registered
func (w *World) Clear() {
	for _, store := range w.allStores {
		store.ClearAll()
	}
	w.alive = make(map[Entity]struct{})
	w.nextEntityID = 1
}

// StoreOf returns the store for T, creating it on first use
func StoreOf[T any](w *World) *Store[T] {
	t := reflect.TypeFor[T]()
	if s, ok := w.stores[t]; ok {
		return s.(*Store[T])
	}
	s := NewStore[T]()
	w.stores[t] = s
	w.allStores = append(w.allStores, s)
	return s
}

// Add attaches or replaces component T on e
// Panics if e is not alive: attaching to a dead handle is a caller bug
func Add[T any](w *World, e Entity, val T) {
	if !w.Valid(e) {
		panic(fmt.Sprintf("ecs: add %s to invalid entity %d", reflect.TypeFor[T](), e))
	}
	StoreOf[T](w).Set(e, val)
}

// Get returns component T of e
func Get[T any](w *World, e Entity) (T, bool) {
	return StoreOf[T](w).Get(e)
}

// Has reports whether e carries component T
func Has[T any](w *World, e Entity) bool {
	return StoreOf[T](w).HasEntity(e)
}

// Patch mutates component T of e in place, false if absent
func Patch[T any](w *World, e Entity, fn func(*T)) bool {
	return StoreOf[T](w).Update(e, fn)
}

// Remove detaches component T from e, no-op if absent
func Remove[T any](w *World, e Entity) {
	StoreOf[T](w).RemoveEntity(e)
}

// View returns entities carrying T in store order
func View[T any](w *World) []Entity {
	return StoreOf[T](w).Entities()
}

// View2 returns entities carrying both A and B, in A's order
func View2[A, B any](w *World) []Entity {
	a, b := StoreOf[A](w), StoreOf[B](w)
	result := make([]Entity, 0, min(a.Len(), b.Len()))
	for _, e := range a.entities {
		if b.HasEntity(e) {
			result = append(result, e)
		}
	}
	return result
}

// Sort reorders T's iteration order by less
func Sort[T any](w *World, less func(a, b T) bool) {
	StoreOf[T](w).Sort(less)
}
