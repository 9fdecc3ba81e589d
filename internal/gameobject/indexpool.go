package gameobject

// IndexPool hands out instance slot indices in [0, capacity) from a free list.
// Released indices are reused before fresh ones.
type IndexPool struct {
	freeList  []uint16
	nextIndex int
	capacity  int
}

func NewIndexPool(capacity int) *IndexPool {
	return &IndexPool{
		freeList: make([]uint16, 0, min(capacity, 256)),
		capacity: capacity,
	}
}

// Pop returns a free index, or false when the pool is exhausted.
func (p *IndexPool) Pop() (uint16, bool) {
	if len(p.freeList) > 0 {
		idx := p.freeList[len(p.freeList)-1]
		p.freeList = p.freeList[:len(p.freeList)-1]
		return idx, true
	}
	if p.nextIndex >= p.capacity {
		return InvalidIndex, false
	}
	idx := uint16(p.nextIndex)
	p.nextIndex++
	return idx, true
}

// Push returns idx to the pool. The caller guarantees idx is currently in use.
func (p *IndexPool) Push(idx uint16) {
	p.freeList = append(p.freeList, idx)
}

// Remaining is the number of indices that can still be popped.
func (p *IndexPool) Remaining() int {
	return p.capacity - p.nextIndex + len(p.freeList)
}

func (p *IndexPool) Capacity() int { return p.capacity }
