package script

import (
	"fmt"
	"sort"

	lua "github.com/yuin/gopher-lua"
)

// RegisterFunction exposes fn to the VM root and every global environment
// Panics on a denied name
func (b *Bridge) RegisterFunction(name string, fn lua.LGFunction) {
	b.setGlobal(name, b.vm.NewFunction(fn))
}

// RegisterFunctionIn exposes fn inside env only
func (b *Bridge) RegisterFunctionIn(env *Environment, name string, fn lua.LGFunction) {
	b.BindObject(env, name, b.vm.NewFunction(fn))
}

// BindObject places value under name in env, or globally when env is nil
// Panics on a denied name or a value with no binding
func (b *Bridge) BindObject(env *Environment, name string, value any) {
	lv, err := b.ToLua(value)
	if err != nil {
		panic(fmt.Sprintf("script: bind %q: %v", name, err))
	}
	if env == nil {
		b.setGlobal(name, lv)
		return
	}
	if IsDenied(name) {
		panic(fmt.Sprintf("script: %q is a denied name", name))
	}
	env.table.RawSetString(name, lv)
}

// FieldSpec exposes one property of a bound type
// Set nil makes the field read-only
type FieldSpec[T any] struct {
	Get func(L *lua.LState, self T) lua.LValue
	Set func(L *lua.LState, self T, v lua.LValue)
}

// MethodFunc implements obj:name(...); arguments start at stack index 2
type MethodFunc[T any] func(L *lua.LState, self T) int

// TypeSpec enumerates everything a bound type shows to scripts
// Members not listed here do not exist on the script side
type TypeSpec[T any] struct {
	Name    string
	Fields  map[string]FieldSpec[T]
	Methods map[string]MethodFunc[T]
	// Meta holds extra metamethods such as __add or __eq
	Meta map[string]lua.LGFunction
	// New, when set, is published as Name.new(...)
	New      func(L *lua.LState) T
	ToString func(self T) string
}

// RegisterType installs the metatable for spec.Name and, with a constructor, a global class table
// Panics on a denied or already registered name
func RegisterType[T any](b *Bridge, spec TypeSpec[T]) {
	if IsDenied(spec.Name) {
		panic(fmt.Sprintf("script: %q is a denied name", spec.Name))
	}
	if _, ok := b.types[spec.Name]; ok {
		panic(fmt.Sprintf("script: type %q already registered", spec.Name))
	}
	b.types[spec.Name] = struct{}{}

	L := b.vm
	mt := L.NewTypeMetatable(spec.Name)

	methods := make(map[string]*lua.LFunction, len(spec.Methods))
	for name, m := range spec.Methods {
		methods[name] = L.NewFunction(func(L *lua.LState) int {
			return m(L, Check[T](L, 1, spec.Name))
		})
	}

	mt.RawSetString("__index", L.NewFunction(func(L *lua.LState) int {
		self := Check[T](L, 1, spec.Name)
		key := L.CheckString(2)
		if f, ok := spec.Fields[key]; ok {
			L.Push(f.Get(L, self))
			return 1
		}
		if m, ok := methods[key]; ok {
			L.Push(m)
			return 1
		}
		L.Push(lua.LNil)
		return 1
	}))

	mt.RawSetString("__newindex", L.NewFunction(func(L *lua.LState) int {
		self := Check[T](L, 1, spec.Name)
		key := L.CheckString(2)
		f, ok := spec.Fields[key]
		switch {
		case !ok:
			L.RaiseError("%s has no field %q", spec.Name, key)
		case f.Set == nil:
			L.RaiseError("%s.%s is read-only", spec.Name, key)
		default:
			f.Set(L, self, L.Get(3))
		}
		return 0
	}))

	name := spec.Name
	mt.RawSetString("__tostring", L.NewFunction(func(L *lua.LState) int {
		self := Check[T](L, 1, name)
		if spec.ToString != nil {
			L.Push(lua.LString(spec.ToString(self)))
		} else {
			L.Push(lua.LString(name))
		}
		return 1
	}))
	mt.RawSetString("__metatable", lua.LString(name))

	metaNames := make([]string, 0, len(spec.Meta))
	for k := range spec.Meta {
		metaNames = append(metaNames, k)
	}
	sort.Strings(metaNames)
	for _, k := range metaNames {
		mt.RawSetString(k, L.NewFunction(spec.Meta[k]))
	}

	if spec.New != nil {
		class := L.NewTable()
		class.RawSetString("new", L.NewFunction(func(L *lua.LState) int {
			L.Push(NewObject(b, name, spec.New(L)))
			return 1
		}))
		b.setGlobal(name, class)
	}
}

// NewObject wraps v as userdata of the registered type name
// Panics if name was never registered
func NewObject[T any](b *Bridge, name string, v T) *lua.LUserData {
	if _, ok := b.types[name]; !ok {
		panic(fmt.Sprintf("script: type %q not registered", name))
	}
	ud := b.vm.NewUserData()
	ud.Value = v
	b.vm.SetMetatable(ud, b.vm.GetTypeMetatable(name))
	return ud
}

// Check reads argument n as a T userdata, raising a script error otherwise
func Check[T any](L *lua.LState, n int, name string) T {
	ud := L.CheckUserData(n)
	v, ok := ud.Value.(T)
	if !ok {
		L.ArgError(n, name+" expected")
	}
	return v
}

// HasType reports whether name was registered
func (b *Bridge) HasType(name string) bool {
	_, ok := b.types[name]
	return ok
}
