package gameobject

import "fmt"

// SetParent makes child the first child of parent. A nil parent turns child
// into a root. The whole subtree of child moves with it. Nothing changes when
// an error is returned.
func (c *Collection) SetParent(child, parent *Instance) error {
	if !c.owns(child) || (parent != nil && !c.owns(parent)) {
		return ErrStaleInstance
	}
	if child.levelIndex == InvalidIndex || (parent != nil && parent.levelIndex == InvalidIndex) {
		return errInitializing
	}

	newDepth := 0
	if parent != nil {
		if int(parent.depth) >= MaxDepth-1 {
			return ErrMaxDepthExceeded
		}
		for i := parent.index; i != InvalidIndex; i = c.instances[i].parent {
			if i == child.index {
				return fmt.Errorf("%w: parent is a descendant of child", ErrInvalidOperation)
			}
		}
		newDepth = int(parent.depth) + 1
	}
	if newDepth+c.subtreeHeight(child) > MaxDepth-1 {
		return ErrMaxDepthExceeded
	}

	if child.parent != InvalidIndex {
		c.unlink(child)
	}
	oldDepth := int(child.depth)
	c.eraseLevel(child)

	if parent != nil {
		child.sibling = parent.firstChild
		parent.firstChild = child.index
		child.parent = parent.index
	}
	c.insertLevel(child, newDepth)

	// Descendants follow one level at a time so every partition stays dense.
	n := oldDepth - newDepth
	for ; n < 0; n++ {
		c.moveAllDown(child)
	}
	for ; n > 0; n-- {
		c.moveAllUp(child)
	}
	return nil
}

// unlink removes inst from its parent's child list.
func (c *Collection) unlink(inst *Instance) {
	p := c.instances[inst.parent]
	if p.firstChild == inst.index {
		p.firstChild = inst.sibling
	} else {
		for i := p.firstChild; i != InvalidIndex; {
			s := c.instances[i]
			if s.sibling == inst.index {
				s.sibling = inst.sibling
				break
			}
			i = s.sibling
		}
	}
	inst.parent = InvalidIndex
	inst.sibling = InvalidIndex
}

// GetParent returns the parent of inst, or nil for a root.
func (c *Collection) GetParent(inst *Instance) *Instance {
	if inst.parent == InvalidIndex {
		return nil
	}
	return c.instances[inst.parent]
}

// GetChildCount returns the number of direct children of inst.
func (c *Collection) GetChildCount(inst *Instance) int {
	n := 0
	for i := inst.firstChild; i != InvalidIndex; i = c.instances[i].sibling {
		n++
	}
	return n
}

// IsChildOf reports whether child is a direct child of parent.
func (c *Collection) IsChildOf(child, parent *Instance) bool {
	return child.parent != InvalidIndex && child.parent == parent.index && c.instances[parent.index] == parent
}

// Children calls fn for each direct child of inst, most recently attached
// first.
func (c *Collection) Children(inst *Instance, fn func(*Instance)) {
	for i := inst.firstChild; i != InvalidIndex; {
		child := c.instances[i]
		i = child.sibling
		fn(child)
	}
}
