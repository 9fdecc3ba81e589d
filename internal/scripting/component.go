package scripting

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/multierr"

	"github.com/l1jgo/gameobject/internal/core/event"
	"github.com/l1jgo/gameobject/internal/core/hash"
	"github.com/l1jgo/gameobject/internal/gameobject"
	"github.com/l1jgo/gameobject/internal/resource"
)

// ComponentName is the registered name of the script component type.
const ComponentName = "script"

// scriptInstance is one script component on one instance. self is the Lua
// table passed as the first argument of every callback.
type scriptInstance struct {
	script *Script
	coll   *gameobject.Collection
	inst   *gameobject.Instance
	self   *lua.LTable
	slot   int
}

type scriptWorld struct {
	instances []*scriptInstance
}

// RegisterComponentType adds the script component type to c. Scripts update
// in creation order.
func (e *Engine) RegisterComponentType(c *gameobject.Collection, f *resource.FSFactory) error {
	rt, ok := f.TypeByExt(ScriptExt)
	if !ok {
		return fmt.Errorf("resource type %s not registered", ScriptExt)
	}
	w := &scriptWorld{}
	return c.RegisterComponentType(gameobject.ComponentType{
		Name:                ComponentName,
		ResourceType:        rt,
		Context:             w,
		InstanceHasUserData: true,
		Create: func(p gameobject.ComponentParams) error {
			si := &scriptInstance{
				script: p.Resource.(*Script),
				coll:   p.Collection,
				inst:   p.Instance,
				self:   e.vm.NewTable(),
				slot:   len(w.instances),
			}
			w.instances = append(w.instances, si)
			*p.UserData = si
			return nil
		},
		Init: func(p gameobject.ComponentParams) error {
			return e.call((*p.UserData).(*scriptInstance), "init")
		},
		Destroy: func(p gameobject.ComponentParams) error {
			si := (*p.UserData).(*scriptInstance)
			err := e.call(si, "final")

			last := w.instances[len(w.instances)-1]
			w.instances[si.slot] = last
			last.slot = si.slot
			w.instances[len(w.instances)-1] = nil
			w.instances = w.instances[:len(w.instances)-1]
			*p.UserData = nil
			return err
		},
		Update: func(_ *gameobject.Collection, uc gameobject.UpdateContext, _ any) error {
			var err error
			// Deletes are deferred during update, so the slice is stable.
			for _, si := range w.instances {
				if si.inst.ToBeDeleted() {
					continue
				}
				err = multierr.Append(err, e.call(si, "update", lua.LNumber(uc.DT)))
			}
			return err
		},
		OnEvent: func(p gameobject.ComponentParams, ev event.Event) error {
			si := (*p.UserData).(*scriptInstance)
			return e.call(si, "on_event", hashValue(ev.ID), toLua(ev.Payload))
		},
		OnInput: func(p gameobject.ComponentParams, a *gameobject.InputAction) error {
			si := (*p.UserData).(*scriptInstance)
			return e.call(si, "on_input", hashValue(a.ActionID), e.actionTable(a))
		},
	})
}

func (e *Engine) actionTable(a *gameobject.InputAction) *lua.LTable {
	t := e.vm.NewTable()
	t.RawSetString("value", lua.LNumber(a.Value))
	t.RawSetString("x", lua.LNumber(a.X))
	t.RawSetString("y", lua.LNumber(a.Y))
	t.RawSetString("dx", lua.LNumber(a.DX))
	t.RawSetString("dy", lua.LNumber(a.DY))
	t.RawSetString("pressed", lua.LBool(a.Pressed))
	t.RawSetString("released", lua.LBool(a.Released))
	t.RawSetString("repeated", lua.LBool(a.Repeated))
	return t
}

func hashValue(h hash.Hash) lua.LNumber {
	return lua.LNumber(float64(uint32(h)))
}

// toLua converts an event payload for delivery to a script.
func toLua(v any) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case lua.LValue:
		return x
	case bool:
		return lua.LBool(x)
	case string:
		return lua.LString(x)
	case int:
		return lua.LNumber(x)
	case float32:
		return lua.LNumber(x)
	case float64:
		return lua.LNumber(x)
	case hash.Hash:
		return hashValue(x)
	default:
		return lua.LString(fmt.Sprint(x))
	}
}
