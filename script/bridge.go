// Package script embeds a sandboxed Lua VM and binds a fixed set of engine types and functions into it
package script

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"sync/atomic"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/lixenwraith/vi-runtime/ecs"
	"github.com/lixenwraith/vi-runtime/log"
	"github.com/lixenwraith/vi-runtime/status"
)

// UpdateFunc is the conventional per-step entry point a script may define
const UpdateFunc = "Update"

// EntityGlobal is the name an entity-bound environment sees its owner under
const EntityGlobal = "Entity"

// denied names are removed from the VM root, the sandbox base, and every environment
var denied = []string{
	"os", "io", "debug", "package",
	"dofile", "load", "loadfile", "loadstring",
	"rawget", "collectgarbage",
	// escape hatches specific to the VM
	"getfenv", "setfenv", "require", "module", "newproxy", "_printregs",
}

var deniedSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(denied))
	for _, n := range denied {
		m[n] = struct{}{}
	}
	return m
}()

// IsDenied reports whether name is withheld from scripts
func IsDenied(name string) bool {
	_, ok := deniedSet[name]
	return ok
}

// Option configures a Bridge
type Option func(*Bridge)

// WithCallBudget aborts any single script call running longer than d, 0 disables
func WithCallBudget(d time.Duration) Option {
	return func(b *Bridge) { b.budget = d }
}

// WithStatus publishes script counters into reg
func WithStatus(reg *status.Registry) Option {
	return func(b *Bridge) { b.status = reg }
}

// Bridge owns the VM, global script environments, and the binding surface
// Not safe for concurrent use; every method runs on the loop goroutine
type Bridge struct {
	vm     *lua.LState
	world  *ecs.World
	fsys   fs.FS
	logger log.Logger

	// base is the read-through fallback of every global environment
	base *lua.LTable

	globals map[string]*Environment
	order   []string

	types map[string]struct{}

	// getter indexes its first argument by its second
	getter *lua.LFunction

	budget time.Duration
	status *status.Registry

	statGlobal *atomic.Int64
	statEntity *atomic.Int64
	statErrors *atomic.Int64
}

// New opens a VM with only the base, math, and string libraries and registers the engine API
// fsys resolves script paths; world backs entity scripts and the Transform binding
func New(world *ecs.World, fsys fs.FS, logger log.Logger, opts ...Option) *Bridge {
	if world == nil {
		panic("script: nil world")
	}
	if logger == nil {
		logger = log.Nop()
	}

	b := &Bridge{
		vm:      lua.NewState(lua.Options{SkipOpenLibs: true}),
		world:   world,
		fsys:    fsys,
		logger:  logger.Named("script"),
		globals: make(map[string]*Environment),
		types:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.status == nil {
		b.status = status.NewRegistry()
	}
	b.statGlobal = b.status.Ints.Get(status.KeyGlobalScripts)
	b.statEntity = b.status.Ints.Get(status.KeyEntityScripts)
	b.statErrors = b.status.Ints.Get(status.KeyScriptErrors)

	b.openLibs()
	b.getter = b.vm.NewFunction(func(L *lua.LState) int {
		L.Push(L.GetField(L.Get(1), L.CheckString(2)))
		return 1
	})
	b.base = b.sandboxBase()
	b.registerEngineAPI()
	return b
}

func (b *Bridge) openLibs() {
	for _, lib := range []struct {
		name string
		open lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.MathLibName, lua.OpenMath},
		{lua.StringLibName, lua.OpenString},
	} {
		b.vm.Push(b.vm.NewFunction(lib.open))
		b.vm.Push(lua.LString(lib.name))
		b.vm.Call(1, 0)
	}
	strip(b.vm.G.Global)
}

// sandboxBase copies the root namespace minus the denylist and the root _G
func (b *Bridge) sandboxBase() *lua.LTable {
	base := b.vm.NewTable()
	b.vm.G.Global.ForEach(func(k, v lua.LValue) {
		name, ok := k.(lua.LString)
		if ok && (IsDenied(string(name)) || name == "_G") {
			return
		}
		base.RawSet(k, v)
	})
	return base
}

func strip(tbl *lua.LTable) {
	for _, name := range denied {
		tbl.RawSetString(name, lua.LNil)
	}
}

// VM exposes the interpreter for custom bindings
func (b *Bridge) VM() *lua.LState {
	return b.vm
}

// World returns the entity store scripts operate on
func (b *Bridge) World() *ecs.World {
	return b.world
}

// CreateEnvironment builds a sandboxed namespace
// global environments read through to the sandbox base and see themselves as _G
// local environments start empty
func (b *Bridge) CreateEnvironment(global bool) *Environment {
	tbl := b.vm.NewTable()
	if global {
		mt := b.vm.NewTable()
		mt.RawSetString("__index", b.base)
		mt.RawSetString("__metatable", lua.LFalse)
		b.vm.SetMetatable(tbl, mt)
		tbl.RawSetString("_G", tbl)
	}
	strip(tbl)
	return &Environment{Enabled: true, Global: global, table: tbl}
}

// LoadFile runs the top-level code of path inside env, or the VM root when env is nil
// Failure is logged with the interpreter message
func (b *Bridge) LoadFile(path string, env *Environment) bool {
	if b.fsys == nil {
		b.logger.Warn("script load failed", log.String("path", path), log.String("error", "no script filesystem"))
		return false
	}
	data, err := fs.ReadFile(b.fsys, path)
	if err != nil {
		b.logger.Warn("script load failed", log.String("path", path), log.Err(err))
		return false
	}
	return b.load(path, bytes.NewReader(data), env)
}

// LoadString runs source as chunk name inside env, or the VM root when env is nil
func (b *Bridge) LoadString(name, source string, env *Environment) bool {
	return b.load(name, bytes.NewBufferString(source), env)
}

func (b *Bridge) load(name string, src io.Reader, env *Environment) bool {
	fn, err := b.vm.Load(src, name)
	if err != nil {
		b.fail("script load failed", err, log.String("path", name))
		return false
	}
	if env != nil {
		b.vm.SetFEnv(fn, env.table)
	}
	if err := b.call(lua.P{Fn: fn, NRet: 0, Protect: true}); err != nil {
		b.fail("script load failed", err, log.String("path", name))
		return false
	}
	return true
}

// call runs a protected call under the configured budget
// call runs p under the call budget
// A call made from inside a binding nests within the outer deadline and restores it on return
func (b *Bridge) call(p lua.P, args ...lua.LValue) error {
	if b.budget > 0 {
		prev := b.vm.Context()
		parent := prev
		if parent == nil {
			parent = context.Background()
		}
		ctx, cancel := context.WithTimeout(parent, b.budget)
		defer cancel()
		b.vm.SetContext(ctx)
		defer func() {
			if prev != nil {
				b.vm.SetContext(prev)
			} else {
				b.vm.RemoveContext()
			}
		}()
	}
	return b.vm.CallByParam(p, args...)
}

// lookup reads obj.key in protected mode, so __index errors come back as err
func (b *Bridge) lookup(obj lua.LValue, key string) (lua.LValue, error) {
	if err := b.call(lua.P{Fn: b.getter, NRet: 1, Protect: true}, obj, lua.LString(key)); err != nil {
		return lua.LNil, err
	}
	lv := b.vm.Get(-1)
	b.vm.Pop(1)
	return lv, nil
}

func (b *Bridge) fail(msg string, err error, fields ...log.Field) {
	b.statErrors.Add(1)
	b.logger.Warn(msg, append(fields, log.Err(err))...)
}

// scope resolves env to its table, nil meaning the VM root
func (b *Bridge) scope(env *Environment) *lua.LTable {
	if env == nil {
		return b.vm.G.Global
	}
	return env.table
}

// setGlobal publishes v to the VM root and the sandbox base
func (b *Bridge) setGlobal(name string, v lua.LValue) {
	if IsDenied(name) {
		panic(fmt.Sprintf("script: %q is a denied name", name))
	}
	b.vm.SetGlobal(name, v)
	b.base.RawSetString(name, v)
}

// Close drops every script and closes the VM
func (b *Bridge) Close() {
	b.globals = make(map[string]*Environment)
	b.order = nil
	ecs.StoreOf[Component](b.world).ClearAll()
	b.statGlobal.Store(0)
	b.statEntity.Store(0)
	b.vm.Close()
}
