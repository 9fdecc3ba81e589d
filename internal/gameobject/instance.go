package gameobject

import (
	"github.com/l1jgo/gameobject/internal/core/hash"
	"github.com/l1jgo/gameobject/internal/core/vmath"
)

const (
	// MaxDepth bounds the hierarchy: roots live at depth 0, the deepest
	// children at MaxDepth-1.
	MaxDepth = 4

	// InvalidIndex marks an absent parent, child or sibling link.
	InvalidIndex uint16 = 0xffff

	// MaxInstances is the largest collection capacity; every slot index must
	// stay below InvalidIndex.
	MaxInstances = int(InvalidIndex)
)

// Instance is one positioned object in a Collection. All links are slot
// indices into the owning collection. Instances are only created and destroyed
// by their Collection.
type Instance struct {
	position vmath.Point3
	rotation vmath.Quat

	prototype  *Prototype
	identifier hash.Hash

	index      uint16
	levelIndex uint16
	parent     uint16
	firstChild uint16
	sibling    uint16
	depth      uint8

	toBeDeleted bool

	// One slot per prototype component whose type keeps instance data, in
	// prototype order.
	componentData []any
}

// Index is the instance's slot in its collection.
func (i *Instance) Index() uint16 { return i.index }

// Depth is the distance from the nearest root.
func (i *Instance) Depth() int { return int(i.depth) }

func (i *Instance) Identifier() hash.Hash { return i.identifier }

func (i *Instance) Prototype() *Prototype { return i.prototype }

// ToBeDeleted reports whether a deletion is queued for the end of the
// current update.
func (i *Instance) ToBeDeleted() bool { return i.toBeDeleted }
