package ecs

import (
	"slices"
	"sort"
)

// AnyStore is the type-erased face of Store[T], used by World for entity teardown
type AnyStore interface {
	RemoveEntity(e Entity)
	HasEntity(e Entity) bool
	Len() int
	ClearAll()
}

// Store is a container for one component type T
// Sparse map for lookup plus a dense entity slice that fixes iteration order
type Store[T any] struct {
	components map[Entity]T
	entities   []Entity
}

// NewStore creates an empty store for T
func NewStore[T any]() *Store[T] {
	return &Store[T]{
		components: make(map[Entity]T),
		entities:   make([]Entity, 0, 64),
	}
}

// Set inserts or replaces the component for e
func (s *Store[T]) Set(e Entity, val T) {
	if _, exists := s.components[e]; !exists {
		s.entities = append(s.entities, e)
	}
	s.components[e] = val
}

// Get retrieves the component for e
func (s *Store[T]) Get(e Entity) (T, bool) {
	val, ok := s.components[e]
	return val, ok
}

// Update applies fn to the stored component in place, false if e has none
func (s *Store[T]) Update(e Entity, fn func(*T)) bool {
	val, ok := s.components[e]
	if !ok {
		return false
	}
	fn(&val)
	s.components[e] = val
	return true
}

// RemoveEntity deletes the component for e, keeping the relative order of the rest
func (s *Store[T]) RemoveEntity(e Entity) {
	if _, exists := s.components[e]; !exists {
		return
	}
	delete(s.components, e)
	if i := slices.Index(s.entities, e); i >= 0 {
		s.entities = slices.Delete(s.entities, i, i+1)
	}
}

func (s *Store[T]) HasEntity(e Entity) bool {
	_, ok := s.components[e]
	return ok
}

// Entities returns a copy of the dense entity list in iteration order
func (s *Store[T]) Entities() []Entity {
	return slices.Clone(s.entities)
}

// Each visits components in iteration order until fn returns false
// fn receives a copy; use Update to write back
func (s *Store[T]) Each(fn func(e Entity, val T) bool) {
	for _, e := range s.Entities() {
		val, ok := s.components[e]
		if !ok {
			continue // removed by an earlier callback
		}
		if !fn(e, val) {
			return
		}
	}
}

func (s *Store[T]) Len() int {
	return len(s.entities)
}

func (s *Store[T]) ClearAll() {
	s.components = make(map[Entity]T)
	s.entities = s.entities[:0]
}

// Sort reorders iteration by less over component values; stable for equal keys
func (s *Store[T]) Sort(less func(a, b T) bool) {
	sort.SliceStable(s.entities, func(i, j int) bool {
		return less(s.components[s.entities[i]], s.components[s.entities[j]])
	})
}
