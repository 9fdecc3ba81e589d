package scripting

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/l1jgo/gameobject/internal/config"
	"github.com/l1jgo/gameobject/internal/core/hash"
	"github.com/l1jgo/gameobject/internal/core/vmath"
	"github.com/l1jgo/gameobject/internal/gameobject"
)

// openGoModule installs the global "go" table scripts use to reach their
// game object.
func (e *Engine) openGoModule() {
	mod := e.vm.NewTable()
	e.vm.SetFuncs(mod, map[string]lua.LGFunction{
		"get_position":        e.luaGetPosition,
		"set_position":        e.luaSetPosition,
		"get_world_position":  e.luaGetWorldPosition,
		"get_rotation":        e.luaGetRotation,
		"get_world_rotation":  e.luaGetWorldRotation,
		"set_rotation":        e.luaSetRotation,
		"get_id":              e.luaGetID,
		"hash":                luaHash,
		"delete":              e.luaDelete,
		"post":                e.luaPost,
		"post_to":             e.luaPostTo,
		"spawn":               e.luaSpawn,
		"acquire_input_focus": e.luaAcquireInputFocus,
		"release_input_focus": e.luaReleaseInputFocus,
	})
	e.vm.SetGlobal("go", mod)
}

func (e *Engine) self(L *lua.LState) *scriptInstance {
	if e.current == nil {
		L.RaiseError("go API used outside a script callback")
	}
	return e.current
}

// target resolves an optional instance id argument; absent means self.
func (e *Engine) target(L *lua.LState, n int) *gameobject.Instance {
	si := e.self(L)
	if L.Get(n) == lua.LNil {
		return si.inst
	}
	id := hash.Hash(uint32(L.CheckNumber(n)))
	inst := si.coll.GetInstanceFromIdentifier(id)
	if inst == nil {
		L.RaiseError("no instance with id %s", id)
	}
	return inst
}

func pushPoint(L *lua.LState, p vmath.Point3) int {
	L.Push(lua.LNumber(p.X))
	L.Push(lua.LNumber(p.Y))
	L.Push(lua.LNumber(p.Z))
	return 3
}

func pushQuat(L *lua.LState, q vmath.Quat) int {
	L.Push(lua.LNumber(q.X))
	L.Push(lua.LNumber(q.Y))
	L.Push(lua.LNumber(q.Z))
	L.Push(lua.LNumber(q.W))
	return 4
}

func checkFloat(L *lua.LState, n int) float32 {
	return float32(L.CheckNumber(n))
}

func (e *Engine) luaGetPosition(L *lua.LState) int {
	si := e.self(L)
	return pushPoint(L, si.coll.GetPosition(si.inst))
}

func (e *Engine) luaSetPosition(L *lua.LState) int {
	si := e.self(L)
	si.coll.SetPosition(si.inst, vmath.P3(checkFloat(L, 1), checkFloat(L, 2), checkFloat(L, 3)))
	return 0
}

func (e *Engine) luaGetWorldPosition(L *lua.LState) int {
	si := e.self(L)
	return pushPoint(L, si.coll.GetWorldPosition(si.inst))
}

func (e *Engine) luaGetRotation(L *lua.LState) int {
	si := e.self(L)
	return pushQuat(L, si.coll.GetRotation(si.inst))
}

func (e *Engine) luaSetRotation(L *lua.LState) int {
	si := e.self(L)
	q := vmath.Q(checkFloat(L, 1), checkFloat(L, 2), checkFloat(L, 3), checkFloat(L, 4))
	si.coll.SetRotation(si.inst, q.Normalize())
	return 0
}

func (e *Engine) luaGetWorldRotation(L *lua.LState) int {
	si := e.self(L)
	return pushQuat(L, si.coll.GetWorldRotation(si.inst))
}

func (e *Engine) luaGetID(L *lua.LState) int {
	si := e.self(L)
	L.Push(hashValue(si.coll.GetIdentifier(si.inst)))
	return 1
}

func luaHash(L *lua.LState) int {
	L.Push(hashValue(hash.String(L.CheckString(1))))
	return 1
}

// go.delete([id])
func (e *Engine) luaDelete(L *lua.LState) int {
	si := e.self(L)
	if err := si.coll.Delete(e.target(L, 1)); err != nil {
		L.RaiseError("%s", err.Error())
	}
	return 0
}

// go.post(event, [id], [data]). event is a name or a hash; the event goes to
// every component of the receiver.
func (e *Engine) luaPost(L *lua.LState) int {
	si := e.self(L)
	id := checkHash(L, 1)
	receiver := e.target(L, 2)
	if err := si.coll.PostEvent(receiver, "", id, fromLua(L.Get(3))); err != nil {
		L.RaiseError("%s", err.Error())
	}
	return 0
}

// go.post_to(id, component, event, [data]) addresses one component by its
// prototype id or type name. A nil id means self.
func (e *Engine) luaPostTo(L *lua.LState) int {
	si := e.self(L)
	receiver := e.target(L, 1)
	component := L.CheckString(2)
	id := checkHash(L, 3)
	if err := si.coll.PostEvent(receiver, component, id, fromLua(L.Get(4))); err != nil {
		L.RaiseError("%s", err.Error())
	}
	return 0
}

// go.spawn(prototype, [x, y, z], [qx, qy, qz, qw]). The instance is created on
// the next tick, so nothing is returned.
func (e *Engine) luaSpawn(L *lua.LState) int {
	e.self(L)
	if e.spawns == nil {
		L.RaiseError("go.spawn: no spawn queue")
	}
	entry := config.SpawnConfig{Prototype: L.CheckString(1)}
	if L.GetTop() >= 4 {
		entry.Position = [3]float32{checkFloat(L, 2), checkFloat(L, 3), checkFloat(L, 4)}
	}
	if L.GetTop() >= 8 {
		entry.Rotation = [4]float32{checkFloat(L, 5), checkFloat(L, 6), checkFloat(L, 7), checkFloat(L, 8)}
	}
	e.spawns.Queue(entry)
	return 0
}

// go.acquire_input_focus([id])
func (e *Engine) luaAcquireInputFocus(L *lua.LState) int {
	si := e.self(L)
	if err := si.coll.AcquireInputFocus(e.target(L, 1)); err != nil {
		L.RaiseError("%s", err.Error())
	}
	return 0
}

// go.release_input_focus([id])
func (e *Engine) luaReleaseInputFocus(L *lua.LState) int {
	si := e.self(L)
	si.coll.ReleaseInputFocus(e.target(L, 1))
	return 0
}

// checkHash accepts a name or an already hashed value.
func checkHash(L *lua.LState, n int) hash.Hash {
	switch v := L.Get(n).(type) {
	case lua.LString:
		return hash.String(string(v))
	case lua.LNumber:
		return hash.Hash(uint32(v))
	}
	L.ArgError(n, "name or hash expected")
	return hash.Unnamed
}

// fromLua unwraps scalar Lua values so Go components can read them.
func fromLua(v lua.LValue) any {
	switch x := v.(type) {
	case *lua.LNilType:
		return nil
	case lua.LBool:
		return bool(x)
	case lua.LNumber:
		return float64(x)
	case lua.LString:
		return string(x)
	default:
		return v
	}
}
