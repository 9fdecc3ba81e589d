package gameobject

import (
	"fmt"

	"github.com/l1jgo/gameobject/internal/core/event"
	"github.com/l1jgo/gameobject/internal/resource"
)

// MaxComponentTypes bounds the component type table of a collection.
const MaxComponentTypes = 32

// ComponentParams is handed to every per-instance component callback.
type ComponentParams struct {
	Collection *Collection
	Instance   *Instance
	// Resource is the component resource named by the prototype.
	Resource any
	// Context is the ComponentType's Context.
	Context any
	// UserData points at the instance's private slot for this component, or
	// is nil when the type keeps no instance data.
	UserData *any
}

// UpdateContext carries per-frame state into Update.
type UpdateContext struct {
	// DT is the frame time in seconds.
	DT float32
}

// ComponentType describes one kind of component. Nil callbacks are skipped.
type ComponentType struct {
	Name         string
	ResourceType resource.TypeID
	Context      any
	// InstanceHasUserData gives each instance a private slot for this type.
	InstanceHasUserData bool

	Create  func(p ComponentParams) error
	Init    func(p ComponentParams) error
	Destroy func(p ComponentParams) error
	// Update runs once per Collection.Update for the whole collection.
	Update  func(c *Collection, uc UpdateContext, context any) error
	OnEvent func(p ComponentParams, ev event.Event) error
	// OnInput receives actions while the instance holds input focus.
	OnInput func(p ComponentParams, action *InputAction) error
}

// RegisterComponentType appends t to the collection's table. Registration
// order is update order.
func (c *Collection) RegisterComponentType(t ComponentType) error {
	if len(c.componentTypes) >= MaxComponentTypes {
		return ErrOutOfComponentTypes
	}
	for _, ct := range c.componentTypes {
		if ct.ResourceType == t.ResourceType {
			return fmt.Errorf("%w: %s", ErrAlreadyRegistered, t.Name)
		}
	}
	ct := t
	c.componentTypes = append(c.componentTypes, &ct)
	return nil
}

func (c *Collection) componentType(rt resource.TypeID) *ComponentType {
	for _, ct := range c.componentTypes {
		if ct.ResourceType == rt {
			return ct
		}
	}
	return nil
}

// eachComponent walks the first n prototype components of inst in order.
// Every component type is known: New refuses prototypes with unregistered types.
func (c *Collection) eachComponent(inst *Instance, n int, fn func(i int, ct *ComponentType, p ComponentParams) error) error {
	slot := 0
	for i := 0; i < n; i++ {
		pc := &inst.prototype.Components[i]
		ct := c.componentType(pc.Type)
		p := ComponentParams{
			Collection: c,
			Instance:   inst,
			Resource:   pc.Resource,
			Context:    ct.Context,
		}
		if ct.InstanceHasUserData {
			p.UserData = &inst.componentData[slot]
			slot++
		}
		if err := fn(i, ct, p); err != nil {
			return err
		}
	}
	return nil
}
