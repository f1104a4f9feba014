// Package resource provides path-keyed caches of lazily loaded resources and a registry
// holding one cache per resource type
package resource

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/lixenwraith/vi-runtime/log"
)

// Tag is a small stable integer assigned to each resource type on first use
// It indexes the registry arena so lookups avoid hashing type identities per call
type Tag uint32

var (
	tagMu sync.Mutex
	tags  = make(map[reflect.Type]Tag)
)

// TagOf returns T's tag, allocating the next free one on first call
func TagOf[T any]() Tag {
	t := reflect.TypeFor[T]()
	tagMu.Lock()
	defer tagMu.Unlock()
	if tag, ok := tags[t]; ok {
		return tag
	}
	tag := Tag(len(tags))
	tags[t] = tag
	return tag
}

func typeName[T any]() string {
	return reflect.TypeFor[T]().String()
}

// anyCache is the type-erased face of Cache[T]
type anyCache interface {
	Clear()
	Len() int
	Kind() string
}

// Registry owns one Cache per resource type
// Fatal on contract misuse: duplicate registration and lookup of unregistered types panic
type Registry struct {
	arena  []anyCache // indexed by Tag, nil slots are unregistered
	order  []Tag      // registration order, teardown runs in reverse
	logger log.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(logger log.Logger) *Registry {
	if logger == nil {
		logger = log.Nop()
	}
	return &Registry{logger: logger.Named("resource")}
}

func (r *Registry) slot(tag Tag) anyCache {
	if int(tag) >= len(r.arena) {
		return nil
	}
	return r.arena[tag]
}

// AddCache registers the cache for T
// Panics if T already has one: replacing it would drop loaded resources without unloading them
func AddCache[T any](r *Registry, load LoadFunc[T], unload UnloadFunc[T]) *Cache[T] {
	tag := TagOf[T]()
	if r.slot(tag) != nil {
		panic(fmt.Sprintf("resource: cache for %s already registered", typeName[T]()))
	}

	c := NewCache(load, unload, r.logger)
	for int(tag) >= len(r.arena) {
		r.arena = append(r.arena, nil)
	}
	r.arena[tag] = c
	r.order = append(r.order, tag)
	return c
}

// GetCache returns T's cache
// Panics if T was never registered
func GetCache[T any](r *Registry) *Cache[T] {
	c := r.slot(TagOf[T]())
	if c == nil {
		panic(fmt.Sprintf("resource: no cache exists holding type %s", typeName[T]()))
	}
	return c.(*Cache[T])
}

// HasCache reports whether T is registered
func HasCache[T any](r *Registry) bool {
	return r.slot(TagOf[T]()) != nil
}

// RemoveCache unloads T's entries and unregisters it, no-op if absent
func RemoveCache[T any](r *Registry) {
	tag := TagOf[T]()
	c := r.slot(tag)
	if c == nil {
		return
	}
	c.Clear()
	r.arena[tag] = nil
	for i, t := range r.order {
		if t == tag {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of registered caches
func (r *Registry) Len() int {
	return len(r.order)
}

// Close unloads every cache in reverse registration order and unregisters all
// The registry can be reused afterwards
func (r *Registry) Close() {
	for i := len(r.order) - 1; i >= 0; i-- {
		c := r.arena[r.order[i]]
		if n := c.Len(); n > 0 {
			r.logger.Debug("unloading cache", log.String("kind", c.Kind()), log.Int("count", n))
		}
		c.Clear()
	}
	r.arena = nil
	r.order = nil
}
