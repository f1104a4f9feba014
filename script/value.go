package script

import (
	"fmt"
	"math"
	"reflect"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/lixenwraith/vi-runtime/ecs"
	"github.com/lixenwraith/vi-runtime/log"
	"github.com/lixenwraith/vi-runtime/vmath"
)

// Value reads key from env (VM root when nil) as T
// A type mismatch or a failing __index logs a warning and yields (zero, false)
func Value[T any](b *Bridge, env *Environment, key string) (T, bool) {
	lv, err := b.lookup(b.scope(env), key)
	if err != nil {
		b.fail("script lookup failed", err, log.String("path", pathOf(env)), log.String("key", key))
		var zero T
		return zero, false
	}
	return expect[T](b, lv, key)
}

// Field reads object.key from env as T
func Field[T any](b *Bridge, env *Environment, object, key string) (T, bool) {
	var zero T
	obj, err := b.lookup(b.scope(env), object)
	if err != nil {
		b.fail("script lookup failed", err, log.String("path", pathOf(env)), log.String("key", object))
		return zero, false
	}
	switch obj.(type) {
	case *lua.LTable, *lua.LUserData:
	default:
		b.logger.Warn("script type mismatch",
			log.String("key", object), log.String("expected", "table"), log.String("got", obj.Type().String()))
		return zero, false
	}
	lv, err := b.lookup(obj, key)
	if err != nil {
		b.fail("script lookup failed", err, log.String("path", pathOf(env)), log.String("key", object+"."+key))
		return zero, false
	}
	return expect[T](b, lv, object+"."+key)
}

// Call invokes function name in env with args converted to Lua values
// Missing functions, unconvertible arguments, and runtime errors log and return false
func (b *Bridge) Call(env *Environment, name string, args ...any) bool {
	largs, ok := b.args(name, args)
	if !ok {
		return false
	}
	return b.invoke(env, name, largs...)
}

// CallReturn invokes function name and reads its first result as T
func CallReturn[T any](b *Bridge, env *Environment, name string, args ...any) (T, bool) {
	var zero T
	largs, ok := b.args(name, args)
	if !ok {
		return zero, false
	}
	fn, ok := b.function(env, name)
	if !ok {
		return zero, false
	}
	if err := b.call(lua.P{Fn: fn, NRet: 1, Protect: true}, largs...); err != nil {
		b.fail("script call failed", err, log.String("path", pathOf(env)), log.String("function", name))
		return zero, false
	}
	ret := b.vm.Get(-1)
	b.vm.Pop(1)
	return expect[T](b, ret, name)
}

func (b *Bridge) args(name string, args []any) ([]lua.LValue, bool) {
	out := make([]lua.LValue, len(args))
	for i, a := range args {
		lv, err := b.ToLua(a)
		if err != nil {
			b.logger.Warn("script argument rejected", log.String("function", name), log.Int("index", i), log.Err(err))
			return nil, false
		}
		out[i] = lv
	}
	return out, true
}

func expect[T any](b *Bridge, lv lua.LValue, key string) (T, bool) {
	v, ok := FromLua[T](lv)
	if !ok {
		b.logger.Warn("script type mismatch",
			log.String("key", key), log.String("expected", reflect.TypeFor[T]().String()), log.String("got", lv.Type().String()))
	}
	return v, ok
}

// FromLua converts lv to T when the Lua type matches
// Integer targets reject numbers with a fractional part; durations read as seconds
func FromLua[T any](lv lua.LValue) (T, bool) {
	var out T
	switch p := any(&out).(type) {
	case *lua.LValue:
		*p = lv
		return out, true
	case *bool:
		v, ok := lv.(lua.LBool)
		*p = bool(v)
		return out, ok
	case *string:
		v, ok := lv.(lua.LString)
		*p = string(v)
		return out, ok
	case *float64:
		v, ok := lv.(lua.LNumber)
		*p = float64(v)
		return out, ok
	case *float32:
		v, ok := lv.(lua.LNumber)
		*p = float32(v)
		return out, ok
	case *int:
		v, ok := integral(lv)
		if v < math.MinInt || v > math.MaxInt {
			return out, false
		}
		*p = int(v)
		return out, ok
	case *int64:
		v, ok := integral(lv)
		*p = v
		return out, ok
	case *time.Duration:
		v, ok := lv.(lua.LNumber)
		*p = time.Duration(float64(v) * float64(time.Second))
		return out, ok
	case **lua.LTable:
		v, ok := lv.(*lua.LTable)
		*p = v
		return out, ok
	case **lua.LFunction:
		v, ok := lv.(*lua.LFunction)
		*p = v
		return out, ok
	case *vmath.Vec2F:
		ud, ok := lv.(*lua.LUserData)
		if !ok {
			return out, false
		}
		v, ok := ud.Value.(vector)
		if !ok {
			return out, false
		}
		*p, ok = v.peek()
		return out, ok
	case *ecs.Entity:
		ud, ok := lv.(*lua.LUserData)
		if !ok {
			return out, false
		}
		*p, ok = ud.Value.(ecs.Entity)
		return out, ok
	}

	ud, ok := lv.(*lua.LUserData)
	if !ok {
		return out, false
	}
	out, ok = ud.Value.(T)
	return out, ok
}

func integral(lv lua.LValue) (int64, bool) {
	n, ok := lv.(lua.LNumber)
	if !ok {
		return 0, false
	}
	f := float64(n)
	// int64 spans [-2^63, 2^63)
	if f != math.Trunc(f) || f < math.MinInt64 || f >= -math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

// ToLua converts a host value for a script call
func (b *Bridge) ToLua(v any) (lua.LValue, error) {
	switch x := v.(type) {
	case nil:
		return lua.LNil, nil
	case lua.LValue:
		return x, nil
	case bool:
		return lua.LBool(x), nil
	case string:
		return lua.LString(x), nil
	case int:
		return lua.LNumber(x), nil
	case int64:
		return lua.LNumber(x), nil
	case uint32:
		return lua.LNumber(x), nil
	case float32:
		return lua.LNumber(x), nil
	case float64:
		return lua.LNumber(x), nil
	case time.Duration:
		return lua.LNumber(x.Seconds()), nil
	case vmath.Vec2F:
		return b.vectorValue(&freeVector{v: x}), nil
	case ecs.Entity:
		return b.entityValue(x), nil
	}
	return lua.LNil, fmt.Errorf("no script binding for %T", v)
}
