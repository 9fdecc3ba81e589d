package gameobject

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/l1jgo/gameobject/internal/core/hash"
)

// MaxInputFocus bounds the focus stack. Acquiring focus on a full stack
// drops the oldest entry.
const MaxInputFocus = 8

// InputAction is one input event routed to the focused instance.
type InputAction struct {
	// ActionID is the hashed action name.
	ActionID hash.Hash
	// Value is the analog value in [0, 1].
	Value float32
	// Cursor position and movement since the last frame.
	X, Y   float32
	DX, DY float32

	Pressed  bool
	Released bool
	Repeated bool
}

// AcquireInputFocus pushes inst on the focus stack; DispatchInput delivers to
// the top entry.
func (c *Collection) AcquireInputFocus(inst *Instance) error {
	if !c.owns(inst) || inst.toBeDeleted {
		return ErrStaleInstance
	}
	if len(c.focusStack) == MaxInputFocus {
		copy(c.focusStack, c.focusStack[1:])
		c.focusStack = c.focusStack[:MaxInputFocus-1]
	}
	c.focusStack = append(c.focusStack, inst)
	return nil
}

// ReleaseInputFocus removes the most recent focus entry held by inst.
func (c *Collection) ReleaseInputFocus(inst *Instance) {
	for i := len(c.focusStack) - 1; i >= 0; i-- {
		if c.focusStack[i] == inst {
			c.focusStack = append(c.focusStack[:i], c.focusStack[i+1:]...)
			return
		}
	}
}

// InputFocus returns the instance input is currently routed to, or nil.
func (c *Collection) InputFocus() *Instance {
	c.dropStaleFocus()
	if len(c.focusStack) == 0 {
		return nil
	}
	return c.focusStack[len(c.focusStack)-1]
}

func (c *Collection) dropStaleFocus() {
	for n := len(c.focusStack); n > 0; n-- {
		top := c.focusStack[n-1]
		if c.owns(top) && !top.toBeDeleted {
			return
		}
		c.focusStack[n-1] = nil
		c.focusStack = c.focusStack[:n-1]
	}
}

// DispatchInput hands action to every component of the focused instance in
// prototype order. The first failing OnInput stops the broadcast. Without
// focus the action is dropped.
func (c *Collection) DispatchInput(action *InputAction) error {
	if c.inUpdate {
		return fmt.Errorf("%w: input dispatch during update", ErrInvalidOperation)
	}
	inst := c.InputFocus()
	if inst == nil {
		return nil
	}
	err := c.eachComponent(inst, len(inst.prototype.Components), func(i int, ct *ComponentType, p ComponentParams) error {
		if ct.OnInput == nil {
			return nil
		}
		if err := ct.OnInput(p, action); err != nil {
			c.log.Error("component input failed",
				zap.String("component", ct.Name),
				zap.Stringer("action", action.ActionID),
				zap.Error(err))
			return fmt.Errorf("input %s to %s: %w", action.ActionID, ct.Name, err)
		}
		// Deleted by its own handler; the remaining slots are gone.
		if inst.toBeDeleted {
			return errInstanceGone
		}
		return nil
	})
	if errors.Is(err, errInstanceGone) {
		return nil
	}
	return err
}

var errInstanceGone = errors.New("instance deleted during input dispatch")
