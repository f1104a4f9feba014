package resource

import (
	"fmt"
	"sort"

	"github.com/lixenwraith/vi-runtime/log"
)

// LoadFunc produces the resource stored under path
type LoadFunc[T any] func(path string) (T, error)

// UnloadFunc releases a resource leaving the cache
type UnloadFunc[T any] func(res T)

// Cache holds at most one loaded T per path
// Paths are compared as exact strings, no canonicalization
// Not safe for concurrent use
type Cache[T any] struct {
	kind   string
	items  map[string]T
	load   LoadFunc[T]
	unload UnloadFunc[T]
	logger log.Logger
}

// NewCache builds a standalone cache; Registry.AddCache is the usual entry point
// unload may be nil when T owns nothing outside the Go heap
func NewCache[T any](load LoadFunc[T], unload UnloadFunc[T], logger log.Logger) *Cache[T] {
	if load == nil {
		panic(fmt.Sprintf("resource: nil load function for %s", typeName[T]()))
	}
	if logger == nil {
		logger = log.Nop()
	}
	kind := typeName[T]()
	return &Cache[T]{
		kind:   kind,
		items:  make(map[string]T),
		load:   load,
		unload: unload,
		logger: logger.With(log.String("kind", kind)),
	}
}

// Get returns the instance for path, loading it on first request
// A failed load stores nothing, so a later Get retries
func (c *Cache[T]) Get(path string) (T, error) {
	if res, ok := c.items[path]; ok {
		return res, nil
	}

	res, err := c.load(path)
	if err != nil {
		c.logger.Warn("resource load failed", log.String("path", path), log.Err(err))
		var zero T
		return zero, fmt.Errorf("load %s %q: %w", c.kind, path, err)
	}

	c.items[path] = res
	c.logger.Debug("resource loaded", log.String("path", path))
	return res, nil
}

// Remove unloads and forgets path, no-op if absent
func (c *Cache[T]) Remove(path string) {
	res, ok := c.items[path]
	if !ok {
		return
	}
	c.release(res)
	delete(c.items, path)
}

// Has reports whether path is loaded
func (c *Cache[T]) Has(path string) bool {
	_, ok := c.items[path]
	return ok
}

func (c *Cache[T]) Len() int {
	return len(c.items)
}

// Paths returns loaded paths in lexical order
func (c *Cache[T]) Paths() []string {
	paths := make([]string, 0, len(c.items))
	for p := range c.items {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Clear unloads every entry, in lexical path order
func (c *Cache[T]) Clear() {
	for _, p := range c.Paths() {
		c.release(c.items[p])
	}
	c.items = make(map[string]T)
}

// Kind names the resource type, for diagnostics
func (c *Cache[T]) Kind() string {
	return c.kind
}

func (c *Cache[T]) release(res T) {
	if c.unload != nil {
		c.unload(res)
	}
}
