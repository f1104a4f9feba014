package script

import (
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/lixenwraith/vi-runtime/ecs"
	"github.com/lixenwraith/vi-runtime/log"
)

// RegisterGlobalScript loads path into a fresh global environment and keeps it only on success
// Registering a loaded path again replaces its environment
func (b *Bridge) RegisterGlobalScript(path string) bool {
	env := b.CreateEnvironment(true)
	env.Path = path
	if !b.LoadFile(path, env) {
		return false
	}

	if _, ok := b.globals[path]; !ok {
		b.order = append(b.order, path)
	}
	b.globals[path] = env
	b.statGlobal.Store(int64(len(b.order)))
	b.logger.Debug("global script registered", log.String("path", path))
	return true
}

// RemoveGlobalScript drops path, no-op if absent
func (b *Bridge) RemoveGlobalScript(path string) {
	if _, ok := b.globals[path]; !ok {
		return
	}
	delete(b.globals, path)
	for i, p := range b.order {
		if p == path {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	b.statGlobal.Store(int64(len(b.order)))
}

// GlobalScript returns the environment registered under path
func (b *Bridge) GlobalScript(path string) (*Environment, bool) {
	env, ok := b.globals[path]
	return env, ok
}

// GlobalScripts returns registered paths in registration order
func (b *Bridge) GlobalScripts() []string {
	out := make([]string, len(b.order))
	copy(out, b.order)
	return out
}

// SetGlobalScriptEnabled toggles Update calls for path, false if absent
func (b *Bridge) SetGlobalScriptEnabled(path string, enabled bool) bool {
	env, ok := b.globals[path]
	if ok {
		env.Enabled = enabled
	}
	return ok
}

// AttachEntityScript loads path into a fresh environment bound to e and attaches it
// On failure the entity keeps whatever script state it had before the call
func (b *Bridge) AttachEntityScript(e ecs.Entity, path string) bool {
	if !b.world.Valid(e) {
		b.logger.Warn("attach to invalid entity", log.Uint32("entity", uint32(e)), log.String("path", path))
		return false
	}

	env := b.CreateEnvironment(true)
	env.Path = path
	env.table.RawSetString(EntityGlobal, b.entityValue(e))
	if !b.LoadFile(path, env) {
		return false
	}

	ecs.Add(b.world, e, Component{Env: env})
	b.statEntity.Store(int64(ecs.StoreOf[Component](b.world).Len()))
	return true
}

// DetachEntityScript removes e's script, no-op if absent
func (b *Bridge) DetachEntityScript(e ecs.Entity) {
	ecs.Remove[Component](b.world, e)
	b.statEntity.Store(int64(ecs.StoreOf[Component](b.world).Len()))
}

// EntityScript returns e's environment
func (b *Bridge) EntityScript(e ecs.Entity) (*Environment, bool) {
	c, ok := ecs.Get[Component](b.world, e)
	if !ok {
		return nil, false
	}
	return c.Env, true
}

// SetEntityScriptEnabled toggles Update calls for e, false if e has no script
func (b *Bridge) SetEntityScriptEnabled(e ecs.Entity, enabled bool) bool {
	c, ok := ecs.Get[Component](b.world, e)
	if ok {
		c.Env.Enabled = enabled
	}
	return ok
}

// ReloadScripts re-runs every global script's source inside its existing environment
// Returns the number that reloaded cleanly
func (b *Bridge) ReloadScripts() int {
	n := 0
	for _, path := range b.GlobalScripts() {
		if b.LoadFile(path, b.globals[path]) {
			n++
		}
	}
	return n
}

// ReloadEntityScripts re-runs every entity script's source inside its existing environment
func (b *Bridge) ReloadEntityScripts() int {
	n := 0
	ecs.StoreOf[Component](b.world).Each(func(_ ecs.Entity, c Component) bool {
		if b.LoadFile(c.Env.Path, c.Env) {
			n++
		}
		return true
	})
	return n
}

// ReloadPath re-runs path in every global and entity environment loaded from it
func (b *Bridge) ReloadPath(path string) int {
	n := 0
	if env, ok := b.globals[path]; ok && b.LoadFile(path, env) {
		n++
	}
	ecs.StoreOf[Component](b.world).Each(func(_ ecs.Entity, c Component) bool {
		if c.Env.Path == path && b.LoadFile(path, c.Env) {
			n++
		}
		return true
	})
	if n > 0 {
		b.logger.Info("script reloaded", log.String("path", path), log.Int("environments", n))
	}
	return n
}

// Update calls Update(dt seconds) on every enabled global script, then every enabled entity script
// Missing functions and runtime errors are logged and skipped
func (b *Bridge) Update(dt time.Duration) {
	seconds := lua.LNumber(dt.Seconds())

	for _, path := range b.GlobalScripts() {
		env, ok := b.globals[path]
		if !ok || !env.Enabled {
			continue
		}
		b.invoke(env, UpdateFunc, seconds)
	}

	store := ecs.StoreOf[Component](b.world)
	store.Each(func(_ ecs.Entity, c Component) bool {
		if c.Env.Enabled {
			b.invoke(c.Env, UpdateFunc, seconds)
		}
		return true
	})
	b.statEntity.Store(int64(store.Len()))
}

// invoke calls name in env discarding results
func (b *Bridge) invoke(env *Environment, name string, args ...lua.LValue) bool {
	fn, ok := b.function(env, name)
	if !ok {
		return false
	}
	if err := b.call(lua.P{Fn: fn, NRet: 0, Protect: true}, args...); err != nil {
		b.fail("script call failed", err, log.String("path", pathOf(env)), log.String("function", name))
		return false
	}
	return true
}

// function resolves name in env through its fallback chain
func (b *Bridge) function(env *Environment, name string) (*lua.LFunction, bool) {
	lv, err := b.lookup(b.scope(env), name)
	if err != nil {
		b.fail("script lookup failed", err, log.String("path", pathOf(env)), log.String("function", name))
		return nil, false
	}
	fn, ok := lv.(*lua.LFunction)
	if !ok {
		b.logger.Warn("script function missing",
			log.String("path", pathOf(env)), log.String("function", name), log.String("got", lv.Type().String()))
		return nil, false
	}
	return fn, true
}

func pathOf(env *Environment) string {
	if env == nil {
		return "<root>"
	}
	return env.Path
}
