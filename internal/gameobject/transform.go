package gameobject

import "github.com/l1jgo/gameobject/internal/core/vmath"

// UpdateTransforms recomputes every world transform, level by level. A child
// is always one level below its parent, so the parent's world transform is
// final by the time the child's level is processed.
func (c *Collection) UpdateTransforms() {
	for _, idx := range c.levels.level(0) {
		inst := c.instances[idx]
		c.worldTransforms[idx] = Transform{
			Translation: inst.position,
			Rotation:    inst.rotation,
		}
	}

	for depth := 1; depth < MaxDepth; depth++ {
		for _, idx := range c.levels.level(depth) {
			inst := c.instances[idx]
			pw := &c.worldTransforms[inst.parent]
			// world.t = parent.r ⊗ local.t ⊗ conj(parent.r) + parent.t
			c.worldTransforms[idx] = Transform{
				Translation: pw.Translation.Add(vmath.Rotate(pw.Rotation, inst.position.Vector())),
				Rotation:    pw.Rotation.Mul(inst.rotation),
			}
		}
	}
}
