package gameobject

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/l1jgo/gameobject/internal/core/event"
	"github.com/l1jgo/gameobject/internal/core/hash"
	"github.com/l1jgo/gameobject/internal/core/vmath"
	"github.com/l1jgo/gameobject/internal/resource"
)

// Transform is a world-space pose.
type Transform struct {
	Translation vmath.Point3
	Rotation    vmath.Quat
}

// Collection owns every Instance of one world. It is single-threaded: all
// calls, including those made from component callbacks, happen on the game
// loop goroutine.
type Collection struct {
	name    string
	rt      *Runtime
	factory resource.Factory
	log     *zap.Logger
	socket  event.Socket

	instances       []*Instance
	worldTransforms []Transform
	pool            *IndexPool
	levels          levelTable
	idToInstance    map[hash.Hash]*Instance
	componentTypes  []*ComponentType

	// Input focus, most recent last.
	focusStack []*Instance

	// Slots flagged by Delete during Update, destroyed when the pass ends.
	pendingDeletes []uint16
	inUpdate       bool
}

// NewCollection creates an empty collection with room for maxInstances
// instances. The name must be unique within rt.
func NewCollection(rt *Runtime, name string, factory resource.Factory, maxInstances int, log *zap.Logger) (*Collection, error) {
	if maxInstances <= 0 || maxInstances > MaxInstances {
		return nil, fmt.Errorf("max instances %d out of range [1, %d]", maxInstances, MaxInstances)
	}
	socket, err := rt.bus.NewSocket(name)
	if err != nil {
		return nil, fmt.Errorf("collection %s: %w", name, err)
	}
	return &Collection{
		name:            name,
		rt:              rt,
		factory:         factory,
		log:             log.With(zap.String("collection", name)),
		socket:          socket,
		instances:       make([]*Instance, maxInstances),
		worldTransforms: make([]Transform, maxInstances),
		pool:            NewIndexPool(maxInstances),
		levels:          newLevelTable(maxInstances),
		idToInstance:    make(map[hash.Hash]*Instance, 64),
		componentTypes:  make([]*ComponentType, 0, MaxComponentTypes),
		pendingDeletes:  make([]uint16, 0, 64),
		focusStack:      make([]*Instance, 0, MaxInputFocus),
	}, nil
}

func (c *Collection) Name() string { return c.name }

// InstanceCount is the number of live instances.
func (c *Collection) InstanceCount() int {
	return c.pool.Capacity() - c.pool.Remaining()
}

// InUpdate reports whether an Update pass is running.
func (c *Collection) InUpdate() bool { return c.inUpdate }

// New creates an instance from the named prototype. Component create and
// init callbacks run in prototype order; if any fails, the components already
// created are destroyed and no instance is left behind. New must not be called
// from inside Update.
func (c *Collection) New(prototypeName string) (*Instance, error) {
	if c.inUpdate {
		c.log.DPanic("instance created during update", zap.String("prototype", prototypeName))
		return nil, ErrCreateDuringUpdate
	}

	res, err := c.factory.Get(prototypeName)
	if err != nil {
		return nil, fmt.Errorf("new %s: %w", prototypeName, err)
	}
	proto, ok := res.(*Prototype)
	if !ok {
		c.factory.Release(res)
		return nil, fmt.Errorf("new %s: %w", prototypeName, ErrNotPrototype)
	}

	if c.pool.Remaining() == 0 {
		c.factory.Release(res)
		c.log.Warn("instance pool exhausted", zap.String("prototype", prototypeName), zap.Int("capacity", c.pool.Capacity()))
		return nil, fmt.Errorf("new %s: %w", prototypeName, ErrOutOfInstances)
	}

	dataSlots := 0
	for _, pc := range proto.Components {
		ct := c.componentType(pc.Type)
		if ct == nil {
			c.factory.Release(res)
			return nil, fmt.Errorf("new %s: %w (component %q)", prototypeName, ErrUnknownComponentType, pc.Name)
		}
		if ct.InstanceHasUserData {
			dataSlots++
		}
	}

	idx, _ := c.pool.Pop()
	inst := &Instance{
		rotation:      vmath.QuatIdentity(),
		prototype:     proto,
		identifier:    hash.Unnamed,
		index:         idx,
		levelIndex:    InvalidIndex,
		parent:        InvalidIndex,
		firstChild:    InvalidIndex,
		sibling:       InvalidIndex,
		componentData: make([]any, dataSlots),
	}
	c.instances[idx] = inst

	created := 0
	err = c.eachComponent(inst, len(proto.Components), func(i int, ct *ComponentType, p ComponentParams) error {
		if ct.Create != nil {
			if err := ct.Create(p); err != nil {
				return fmt.Errorf("%w: component %d (%s): %w", ErrComponentCreateFailed, i, ct.Name, err)
			}
		}
		created++
		return nil
	})
	if err == nil {
		err = c.eachComponent(inst, len(proto.Components), func(i int, ct *ComponentType, p ComponentParams) error {
			if ct.Init == nil {
				return nil
			}
			if err := ct.Init(p); err != nil {
				return fmt.Errorf("%w: init component %d (%s): %w", ErrComponentCreateFailed, i, ct.Name, err)
			}
			return nil
		})
	}
	if err != nil {
		// Rollback destroys in creation order.
		inst.toBeDeleted = true
		if derr := c.destroyComponents(inst, created); derr != nil {
			c.log.Error("destroy during rollback failed", zap.Error(derr))
		}
		// A callback may have named the instance before a later one failed.
		if inst.identifier != hash.Unnamed {
			delete(c.idToInstance, inst.identifier)
			inst.identifier = hash.Unnamed
		}
		c.dropFocus(inst)
		c.instances[idx] = nil
		c.pool.Push(idx)
		c.factory.Release(res)
		c.log.Warn("instance creation failed", zap.String("prototype", prototypeName), zap.Error(err))
		return nil, fmt.Errorf("new %s: %w", prototypeName, err)
	}

	c.insertLevel(inst, 0)
	c.worldTransforms[idx] = Transform{Rotation: inst.rotation}
	c.log.Debug("instance created", zap.String("prototype", prototypeName), zap.Uint16("index", idx))
	return inst, nil
}

func (c *Collection) destroyComponents(inst *Instance, n int) error {
	var err error
	_ = c.eachComponent(inst, n, func(i int, ct *ComponentType, p ComponentParams) error {
		if ct.Destroy == nil {
			return nil
		}
		if derr := ct.Destroy(p); derr != nil {
			err = multierr.Append(err, fmt.Errorf("destroy component %d (%s): %w", i, ct.Name, derr))
		}
		return nil
	})
	return err
}

// errInitializing rejects hierarchy changes from inside a create or init
// callback of the instance itself.
var errInitializing = fmt.Errorf("%w: instance is still being created", ErrInvalidOperation)

// dropFocus removes every focus entry held by inst.
func (c *Collection) dropFocus(inst *Instance) {
	kept := c.focusStack[:0]
	for _, f := range c.focusStack {
		if f != inst {
			kept = append(kept, f)
		}
	}
	clear(c.focusStack[len(kept):])
	c.focusStack = kept
}

func (c *Collection) owns(inst *Instance) bool {
	return inst != nil && int(inst.index) < len(c.instances) && c.instances[inst.index] == inst
}

// Delete destroys inst. During Update the deletion is queued and carried out
// once the pass finishes; repeated requests are ignored. The returned error
// collects failing destroy callbacks; the instance is gone regardless.
func (c *Collection) Delete(inst *Instance) error {
	if !c.owns(inst) {
		return ErrStaleInstance
	}
	if inst.toBeDeleted {
		return nil
	}
	if inst.levelIndex == InvalidIndex {
		return errInitializing
	}
	if c.inUpdate {
		inst.toBeDeleted = true
		c.pendingDeletes = append(c.pendingDeletes, inst.index)
		return nil
	}
	return c.deleteNow(inst)
}

func (c *Collection) deleteNow(inst *Instance) error {
	// Guards against destroy callbacks deleting inst again.
	inst.toBeDeleted = true
	err := c.destroyComponents(inst, len(inst.prototype.Components))

	if inst.identifier != hash.Unnamed {
		delete(c.idToInstance, inst.identifier)
	}
	c.dropFocus(inst)

	// Children move to our parent, or become roots.
	parent := inst.parent
	if parent != InvalidIndex {
		c.unlink(inst)
		if inst.firstChild != InvalidIndex {
			p := c.instances[parent]
			if p.firstChild == InvalidIndex {
				p.firstChild = inst.firstChild
			} else {
				last := c.instances[p.firstChild]
				for last.sibling != InvalidIndex {
					last = c.instances[last.sibling]
				}
				last.sibling = inst.firstChild
			}
		}
	}

	c.eraseLevel(inst)

	for ci := inst.firstChild; ci != InvalidIndex; {
		child := c.instances[ci]
		next := child.sibling
		c.moveAllUp(child)
		c.moveUp(child)
		child.parent = parent
		if parent == InvalidIndex {
			child.sibling = InvalidIndex
		}
		ci = next
	}
	inst.firstChild = InvalidIndex

	c.factory.Release(inst.prototype)
	c.instances[inst.index] = nil
	c.worldTransforms[inst.index] = Transform{}
	c.pool.Push(inst.index)
	inst.componentData = nil

	c.log.Debug("instance deleted", zap.Uint16("index", inst.index))
	return err
}

// DeleteAll deletes every live instance.
func (c *Collection) DeleteAll() error {
	var err error
	for _, inst := range c.instances {
		if inst != nil {
			err = multierr.Append(err, c.Delete(inst))
		}
	}
	return err
}

// Close deletes every instance and detaches the collection from the runtime.
func (c *Collection) Close() error {
	err := c.DeleteAll()
	c.rt.bus.DeleteSocket(c.socket)
	return err
}

// SetIdentifier names inst. Names are unique within the collection and an
// instance can be named only once.
func (c *Collection) SetIdentifier(inst *Instance, name string) error {
	if !c.owns(inst) || inst.toBeDeleted {
		return ErrStaleInstance
	}
	h := hash.String(name)
	if h == hash.Unnamed {
		return fmt.Errorf("%w: reserved identifier %q", ErrInvalidOperation, name)
	}
	if _, ok := c.idToInstance[h]; ok {
		return fmt.Errorf("%w: %s", ErrIdentifierInUse, name)
	}
	if inst.identifier != hash.Unnamed {
		return ErrIdentifierAlreadySet
	}
	inst.identifier = h
	c.idToInstance[h] = inst
	return nil
}

func (c *Collection) GetIdentifier(inst *Instance) hash.Hash {
	return inst.identifier
}

// GetInstanceFromIdentifier returns the instance named id, or nil.
func (c *Collection) GetInstanceFromIdentifier(id hash.Hash) *Instance {
	return c.idToInstance[id]
}

func (c *Collection) SetPosition(inst *Instance, p vmath.Point3) {
	inst.position = p
}

func (c *Collection) GetPosition(inst *Instance) vmath.Point3 {
	return inst.position
}

func (c *Collection) SetRotation(inst *Instance, q vmath.Quat) {
	inst.rotation = q
}

func (c *Collection) GetRotation(inst *Instance) vmath.Quat {
	return inst.rotation
}

// GetWorldPosition returns the world translation computed by the last
// transform pass. A deleted instance reports the origin.
func (c *Collection) GetWorldPosition(inst *Instance) vmath.Point3 {
	if !c.owns(inst) {
		return vmath.Point3{}
	}
	return c.worldTransforms[inst.index].Translation
}

// GetWorldRotation is the world rotation from the last transform pass. A
// deleted instance reports the identity.
func (c *Collection) GetWorldRotation(inst *Instance) vmath.Quat {
	if !c.owns(inst) {
		return vmath.QuatIdentity()
	}
	return c.worldTransforms[inst.index].Rotation
}

// IsNotFound reports whether err means a prototype or component resource
// could not be found.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrResourceNotFound)
}
