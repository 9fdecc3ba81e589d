package gameobject

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/l1jgo/gameobject/internal/core/event"
	"github.com/l1jgo/gameobject/internal/core/hash"
)

// posted is the payload carried on the collection socket.
type posted struct {
	receiver  *Instance
	component int // prototype component index, -1 for all
	payload   any
}

// PostEvent queues an event for the receiver's components. An empty
// component name addresses every component; otherwise the name matches a
// prototype component id or, failing that, a component type name. Events are
// delivered at the start of the next Update.
func (c *Collection) PostEvent(receiver *Instance, component string, id hash.Hash, payload any) error {
	if !c.owns(receiver) {
		return ErrStaleInstance
	}
	idx := -1
	if component != "" {
		idx = c.findComponent(receiver, component)
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrComponentNotFound, component)
		}
	}
	return c.rt.bus.Post(c.socket, id, &posted{
		receiver:  receiver,
		component: idx,
		payload:   payload,
	})
}

// PendingEvents returns the number of events waiting for the next update.
func (c *Collection) PendingEvents() int { return c.rt.bus.Pending(c.socket) }

func (c *Collection) findComponent(inst *Instance, name string) int {
	h := hash.String(name)
	comps := inst.prototype.Components
	for i := range comps {
		if comps[i].Name != "" && comps[i].ID == h {
			return i
		}
	}
	for i := range comps {
		if ct := c.componentType(comps[i].Type); ct != nil && ct.Name == name {
			return i
		}
	}
	return -1
}

func (c *Collection) dispatchEvents() error {
	var err error
	c.rt.bus.Dispatch(c.socket, func(ev event.Event) {
		p, ok := ev.Payload.(*posted)
		if !ok {
			return
		}
		// The receiver may have been deleted since the event was posted.
		if !c.owns(p.receiver) {
			c.log.Debug("event for deleted instance dropped", zap.Stringer("event", ev.ID))
			return
		}
		delivered := event.Event{ID: ev.ID, Payload: p.payload}
		inst := p.receiver
		_ = c.eachComponent(inst, len(inst.prototype.Components), func(i int, ct *ComponentType, cp ComponentParams) error {
			if ct.OnEvent == nil || (p.component >= 0 && p.component != i) {
				return nil
			}
			if eerr := ct.OnEvent(cp, delivered); eerr != nil {
				c.log.Error("component event failed",
					zap.String("component", ct.Name),
					zap.Stringer("event", ev.ID),
					zap.Error(eerr))
				err = multierr.Append(err, fmt.Errorf("event %s to %s: %w", ev.ID, ct.Name, eerr))
			}
			return nil
		})
	})
	return err
}

// Update runs one frame: queued events are delivered, then each component
// type updates in registration order followed by a transform pass, and
// finally deletions requested during the frame are carried out. Failing
// callbacks do not stop the frame; their errors are combined in the result.
func (c *Collection) Update(uc UpdateContext) error {
	if c.inUpdate {
		return fmt.Errorf("%w: nested update", ErrInvalidOperation)
	}
	c.inUpdate = true
	c.pendingDeletes = c.pendingDeletes[:0]

	err := c.dispatchEvents()

	for _, ct := range c.componentTypes {
		if ct.Update != nil {
			if uerr := ct.Update(c, uc, ct.Context); uerr != nil {
				c.log.Error("component update failed", zap.String("component", ct.Name), zap.Error(uerr))
				err = multierr.Append(err, fmt.Errorf("update %s: %w", ct.Name, uerr))
			}
		}
		c.UpdateTransforms()
	}

	c.inUpdate = false

	for _, idx := range c.pendingDeletes {
		inst := c.instances[idx]
		if inst == nil || !inst.toBeDeleted {
			continue
		}
		err = multierr.Append(err, c.deleteNow(inst))
	}
	c.pendingDeletes = c.pendingDeletes[:0]
	return err
}
