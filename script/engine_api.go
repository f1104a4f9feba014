package script

import (
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/lixenwraith/vi-runtime/component"
	"github.com/lixenwraith/vi-runtime/ecs"
	"github.com/lixenwraith/vi-runtime/log"
	"github.com/lixenwraith/vi-runtime/vmath"
)

// Bound type names
const (
	TypeVector2   = "Vector2"
	TypeTransform = "Transform"
	TypeEntity    = "Entity"
)

// vector is the value behind a Vector2 userdata
// Free vectors own their value; transform vectors read and write the entity store
type vector interface {
	get() vmath.Vec2F
	set(v vmath.Vec2F)
	// peek reads without raising, for host-side conversion
	peek() (vmath.Vec2F, bool)
}

type freeVector struct {
	v vmath.Vec2F
}

func (f *freeVector) get() vmath.Vec2F  { return f.v }
func (f *freeVector) set(v vmath.Vec2F) { f.v = v }

func (f *freeVector) peek() (vmath.Vec2F, bool) { return f.v, true }

// transformRef addresses the Transform of one entity
type transformRef struct {
	world  *ecs.World
	entity ecs.Entity
}

func (t transformRef) load(L *lua.LState) component.Transform {
	tr, ok := ecs.Get[component.Transform](t.world, t.entity)
	if !ok {
		L.RaiseError("entity %d has no Transform", t.entity)
	}
	return tr
}

func (t transformRef) patch(L *lua.LState, fn func(*component.Transform)) {
	if !ecs.Patch(t.world, t.entity, fn) {
		L.RaiseError("entity %d has no Transform", t.entity)
	}
}

// transformVector is Transform.position or Transform.velocity
type transformVector struct {
	L        *lua.LState
	ref      transformRef
	velocity bool
}

func (tv *transformVector) get() vmath.Vec2F {
	tr := tv.ref.load(tv.L)
	if tv.velocity {
		return tr.Velocity
	}
	return tr.Position
}

func (tv *transformVector) peek() (vmath.Vec2F, bool) {
	tr, ok := ecs.Get[component.Transform](tv.ref.world, tv.ref.entity)
	if tv.velocity {
		return tr.Velocity, ok
	}
	return tr.Position, ok
}

func (tv *transformVector) set(v vmath.Vec2F) {
	tv.ref.patch(tv.L, func(tr *component.Transform) {
		if tv.velocity {
			tr.Velocity = v
		} else {
			tr.Position = v
		}
	})
}

func (b *Bridge) vectorValue(v vector) *lua.LUserData {
	return NewObject(b, TypeVector2, v)
}

func (b *Bridge) entityValue(e ecs.Entity) *lua.LUserData {
	return NewObject(b, TypeEntity, e)
}

func checkVec(L *lua.LState, n int) vmath.Vec2F {
	return Check[vector](L, n, TypeVector2).get()
}

func (b *Bridge) registerEngineAPI() {
	b.registerVector()
	b.registerTransform()
	b.registerEntity()

	b.RegisterFunction("GetTransform", func(L *lua.LState) int {
		e := Check[ecs.Entity](L, 1, TypeEntity)
		if !ecs.Has[component.Transform](b.world, e) {
			L.RaiseError("entity %d has no Transform", e)
		}
		L.Push(NewObject(b, TypeTransform, transformRef{world: b.world, entity: e}))
		return 1
	})
	b.RegisterFunction("HasTransform", func(L *lua.LState) int {
		e := Check[ecs.Entity](L, 1, TypeEntity)
		L.Push(lua.LBool(ecs.Has[component.Transform](b.world, e)))
		return 1
	})

	b.RegisterFunction("print", b.luaPrint)
	b.RegisterFunction("Log", b.luaPrint)
}

func (b *Bridge) registerVector() {
	num := func(get func(vmath.Vec2F) float64, put func(*vmath.Vec2F, float64)) FieldSpec[vector] {
		return FieldSpec[vector]{
			Get: func(L *lua.LState, self vector) lua.LValue { return lua.LNumber(get(self.get())) },
			Set: func(L *lua.LState, self vector, v lua.LValue) {
				n, ok := v.(lua.LNumber)
				if !ok {
					L.RaiseError("Vector2 component must be a number, got %s", v.Type())
				}
				val := self.get()
				put(&val, float64(n))
				self.set(val)
			},
		}
	}

	RegisterType(b, TypeSpec[vector]{
		Name: TypeVector2,
		Fields: map[string]FieldSpec[vector]{
			"x": num(func(v vmath.Vec2F) float64 { return v.X }, func(v *vmath.Vec2F, n float64) { v.X = n }),
			"y": num(func(v vmath.Vec2F) float64 { return v.Y }, func(v *vmath.Vec2F, n float64) { v.Y = n }),
		},
		Methods: map[string]MethodFunc[vector]{
			"length": func(L *lua.LState, self vector) int {
				L.Push(lua.LNumber(vmath.V2FMag(self.get())))
				return 1
			},
			"normalized": func(L *lua.LState, self vector) int {
				L.Push(b.vectorValue(&freeVector{v: vmath.V2FNormalize(self.get())}))
				return 1
			},
		},
		Meta: map[string]lua.LGFunction{
			"__add": func(L *lua.LState) int {
				L.Push(b.vectorValue(&freeVector{v: vmath.V2FAdd(checkVec(L, 1), checkVec(L, 2))}))
				return 1
			},
			"__sub": func(L *lua.LState) int {
				L.Push(b.vectorValue(&freeVector{v: vmath.V2FSub(checkVec(L, 1), checkVec(L, 2))}))
				return 1
			},
			"__mul": func(L *lua.LState) int {
				L.Push(b.vectorValue(&freeVector{v: vmath.V2FScale(checkVec(L, 1), float64(L.CheckNumber(2)))}))
				return 1
			},
			"__eq": func(L *lua.LState) int {
				L.Push(lua.LBool(checkVec(L, 1) == checkVec(L, 2)))
				return 1
			},
		},
		New: func(L *lua.LState) vector {
			return &freeVector{v: vmath.V2F(float64(L.OptNumber(1, 0)), float64(L.OptNumber(2, 0)))}
		},
		ToString: func(self vector) string {
			v := self.get()
			return fmt.Sprintf("Vector2(%g, %g)", v.X, v.Y)
		},
	})
}

func (b *Bridge) registerTransform() {
	vec := func(velocity bool) FieldSpec[transformRef] {
		return FieldSpec[transformRef]{
			Get: func(L *lua.LState, self transformRef) lua.LValue {
				self.load(L)
				return b.vectorValue(&transformVector{L: L, ref: self, velocity: velocity})
			},
			Set: func(L *lua.LState, self transformRef, v lua.LValue) {
				ud, ok := v.(*lua.LUserData)
				if !ok {
					L.RaiseError("Transform vector must be a Vector2, got %s", v.Type())
				}
				src, ok := ud.Value.(vector)
				if !ok {
					L.RaiseError("Transform vector must be a Vector2")
				}
				val := src.get()
				(&transformVector{L: L, ref: self, velocity: velocity}).set(val)
			},
		}
	}

	RegisterType(b, TypeSpec[transformRef]{
		Name: TypeTransform,
		Fields: map[string]FieldSpec[transformRef]{
			"position": vec(false),
			"velocity": vec(true),
			"rotation": {
				Get: func(L *lua.LState, self transformRef) lua.LValue {
					return lua.LNumber(self.load(L).Rotation)
				},
				Set: func(L *lua.LState, self transformRef, v lua.LValue) {
					n, ok := v.(lua.LNumber)
					if !ok {
						L.RaiseError("Transform.rotation must be a number, got %s", v.Type())
					}
					self.patch(L, func(tr *component.Transform) { tr.Rotation = float64(n) })
				},
			},
		},
		ToString: func(self transformRef) string {
			return fmt.Sprintf("Transform(%d)", self.entity)
		},
	})
}

func (b *Bridge) registerEntity() {
	RegisterType(b, TypeSpec[ecs.Entity]{
		Name: TypeEntity,
		Methods: map[string]MethodFunc[ecs.Entity]{
			"id": func(L *lua.LState, self ecs.Entity) int {
				L.Push(lua.LNumber(self))
				return 1
			},
			"valid": func(L *lua.LState, self ecs.Entity) int {
				L.Push(lua.LBool(b.world.Valid(self)))
				return 1
			},
		},
		Meta: map[string]lua.LGFunction{
			"__eq": func(L *lua.LState) int {
				L.Push(lua.LBool(Check[ecs.Entity](L, 1, TypeEntity) == Check[ecs.Entity](L, 2, TypeEntity)))
				return 1
			},
		},
		ToString: func(self ecs.Entity) string {
			return fmt.Sprintf("Entity(%d)", self)
		},
	})
}

// luaPrint routes print and Log to the logger, tagged with the calling source position
func (b *Bridge) luaPrint(L *lua.LState) int {
	top := L.GetTop()
	parts := make([]string, 0, top)
	for i := 1; i <= top; i++ {
		parts = append(parts, L.ToStringMeta(L.Get(i)).String())
	}
	b.logger.Info(strings.Join(parts, "\t"), log.String("at", strings.TrimSuffix(L.Where(1), ":")))
	return 0
}
