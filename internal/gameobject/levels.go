package gameobject

// levelTable partitions live instance indices by depth. Each partition is a
// dense prefix of its row; erase swaps the last entry into the hole.
type levelTable struct {
	stride  int
	indices []uint16
	counts  [MaxDepth]int
}

func newLevelTable(maxInstances int) levelTable {
	return levelTable{
		stride:  maxInstances,
		indices: make([]uint16, MaxDepth*maxInstances),
	}
}

// level returns the live indices at depth. The slice aliases the table.
func (t *levelTable) level(depth int) []uint16 {
	base := depth * t.stride
	return t.indices[base : base+t.counts[depth]]
}

func (c *Collection) insertLevel(inst *Instance, depth int) {
	t := &c.levels
	pos := t.counts[depth]
	t.indices[depth*t.stride+pos] = inst.index
	t.counts[depth]++
	inst.depth = uint8(depth)
	inst.levelIndex = uint16(pos)
}

func (c *Collection) eraseLevel(inst *Instance) {
	t := &c.levels
	depth := int(inst.depth)
	base := depth * t.stride
	last := t.counts[depth] - 1
	moved := t.indices[base+last]
	t.indices[base+int(inst.levelIndex)] = moved
	c.instances[moved].levelIndex = inst.levelIndex
	t.counts[depth]--
	inst.levelIndex = InvalidIndex
}

// moveUp shifts inst one level towards the roots.
func (c *Collection) moveUp(inst *Instance) {
	if inst.depth == 0 {
		return
	}
	d := int(inst.depth)
	c.eraseLevel(inst)
	c.insertLevel(inst, d-1)
}

// moveDown shifts inst one level away from the roots.
func (c *Collection) moveDown(inst *Instance) {
	d := int(inst.depth)
	if d >= MaxDepth-1 {
		return
	}
	c.eraseLevel(inst)
	c.insertLevel(inst, d+1)
}

// moveAllUp shifts every descendant of inst up one level, children first.
func (c *Collection) moveAllUp(inst *Instance) {
	for ci := inst.firstChild; ci != InvalidIndex; {
		child := c.instances[ci]
		c.moveAllUp(child)
		c.moveUp(child)
		ci = child.sibling
	}
}

// moveAllDown shifts every descendant of inst down one level, children first.
func (c *Collection) moveAllDown(inst *Instance) {
	for ci := inst.firstChild; ci != InvalidIndex; {
		child := c.instances[ci]
		c.moveAllDown(child)
		c.moveDown(child)
		ci = child.sibling
	}
}

// subtreeHeight is the number of levels below inst.
func (c *Collection) subtreeHeight(inst *Instance) int {
	h := 0
	for ci := inst.firstChild; ci != InvalidIndex; {
		child := c.instances[ci]
		h = max(h, 1+c.subtreeHeight(child))
		ci = child.sibling
	}
	return h
}
