package gameobject

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/l1jgo/gameobject/internal/core/hash"
	"github.com/l1jgo/gameobject/internal/core/vmath"
	"github.com/l1jgo/gameobject/internal/resource"
)

func TestNewDefaults(t *testing.T) {
	f := newFixture(t, 8)
	inst := f.mustNew(t, "one.goc")

	assert.Equal(t, 0, inst.Depth())
	assert.Equal(t, hash.Unnamed, inst.Identifier())
	assert.Nil(t, f.coll.GetParent(inst))
	assert.Equal(t, vmath.QuatIdentity(), f.coll.GetRotation(inst))
	assert.Equal(t, vmath.Point3{}, f.coll.GetPosition(inst))
	assert.Len(t, inst.componentData, 1)
	assert.Equal(t, []string{"create:a", "init:a"}, f.rec.calls)
	assert.Equal(t, 1, f.coll.InstanceCount())
	assert.Equal(t, 1, f.factory.RefCount("one.goc"))
	checkLevels(t, f.coll)
}

func TestNewUnknownPrototype(t *testing.T) {
	f := newFixture(t, 8)
	inst, err := f.coll.New("missing.goc")
	assert.Nil(t, inst)
	assert.ErrorIs(t, err, ErrResourceNotFound)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, 0, f.coll.InstanceCount())
}

func TestNewRejectsNonPrototype(t *testing.T) {
	f := newFixture(t, 8)
	inst, err := f.coll.New("a.counter")
	assert.Nil(t, inst)
	assert.ErrorIs(t, err, ErrNotPrototype)
	assert.Equal(t, 0, f.factory.RefCount("a.counter"))
}

func TestNewUnknownComponentType(t *testing.T) {
	f := newFixture(t, 8)
	inst, err := f.coll.New("orphan.goc")
	assert.Nil(t, inst)
	assert.ErrorIs(t, err, ErrUnknownComponentType)
	assert.Equal(t, 0, f.factory.RefCount("orphan.goc"))
}

func TestNewPoolExhausted(t *testing.T) {
	f := newFixture(t, 2)
	f.mustNew(t, "empty.goc")
	f.mustNew(t, "empty.goc")

	inst, err := f.coll.New("empty.goc")
	assert.Nil(t, inst)
	assert.ErrorIs(t, err, ErrOutOfInstances)
	assert.Equal(t, 2, f.factory.RefCount("empty.goc"))
	checkLevels(t, f.coll)
}

func TestNewRollsBackOnCreateFailure(t *testing.T) {
	f := newFixture(t, 8)

	// Hold a reference so the refcount can be compared across the call.
	proto, err := f.factory.Get("three_fail.goc")
	require.NoError(t, err)
	defer f.factory.Release(proto)
	before := f.factory.RefCount("three_fail.goc")

	inst, err := f.coll.New("three_fail.goc")
	assert.Nil(t, inst)
	assert.ErrorIs(t, err, ErrComponentCreateFailed)
	assert.Equal(t, []string{"create:a", "create:b", "destroy:a"}, f.rec.calls)
	assert.Equal(t, before, f.factory.RefCount("three_fail.goc"))
	assert.Equal(t, 0, f.coll.InstanceCount())
	checkLevels(t, f.coll)

	// The slot went back to the pool.
	assert.Equal(t, 8, f.coll.pool.Remaining())
}

func TestNewRollsBackOnInitFailure(t *testing.T) {
	f := newFixture(t, 8)
	inst, err := f.coll.New("init_fail.goc")
	assert.Nil(t, inst)
	assert.ErrorIs(t, err, ErrComponentCreateFailed)
	assert.Equal(t, []string{"create:a", "create:b", "init:a", "init:b", "destroy:a", "destroy:b"}, f.rec.calls)
	assert.Equal(t, 0, f.factory.RefCount("init_fail.goc"))
	assert.Equal(t, 0, f.coll.InstanceCount())
}

func TestRollbackReleasesIdentifier(t *testing.T) {
	f := newFixture(t, 8)
	orphanType, ok := f.factory.TypeByExt("orphan")
	require.True(t, ok)
	require.NoError(t, f.coll.RegisterComponentType(ComponentType{
		Name:         "orphan",
		ResourceType: orphanType,
		Init: func(p ComponentParams) error {
			if err := p.Collection.AcquireInputFocus(p.Instance); err != nil {
				return err
			}
			return p.Collection.SetIdentifier(p.Instance, "hero")
		},
	}))

	inst, err := f.coll.New("named_fail.goc")
	assert.Nil(t, inst)
	assert.ErrorIs(t, err, ErrComponentCreateFailed)
	assert.Equal(t, 0, f.coll.InstanceCount())
	assert.Nil(t, f.coll.GetInstanceFromIdentifier(hash.String("hero")))
	assert.Empty(t, f.coll.focusStack)

	// The name is free for the next instance.
	other := f.mustNew(t, "empty.goc")
	require.NoError(t, f.coll.SetIdentifier(other, "hero"))
	assert.Same(t, other, f.coll.GetInstanceFromIdentifier(hash.String("hero")))
}

func TestComponentOrder(t *testing.T) {
	f := newFixture(t, 8)
	inst := f.mustNew(t, "three.goc")
	assert.Equal(t, []string{"create:a", "create:b", "create:c", "init:a", "init:b", "init:c"}, f.rec.calls)

	f.rec.reset()
	require.NoError(t, f.coll.Delete(inst))
	assert.Equal(t, []string{"destroy:a", "destroy:b", "destroy:c"}, f.rec.calls)
	assert.Equal(t, 0, f.factory.RefCount("three.goc"))
}

func TestDeleteStale(t *testing.T) {
	f := newFixture(t, 8)
	inst := f.mustNew(t, "empty.goc")
	require.NoError(t, f.coll.Delete(inst))
	assert.ErrorIs(t, f.coll.Delete(inst), ErrStaleInstance)
	assert.ErrorIs(t, f.coll.Delete(nil), ErrStaleInstance)
}

func TestIdentifiers(t *testing.T) {
	f := newFixture(t, 8)
	a := f.mustNew(t, "empty.goc")
	b := f.mustNew(t, "empty.goc")

	require.NoError(t, f.coll.SetIdentifier(a, "player"))
	assert.Equal(t, hash.String("player"), f.coll.GetIdentifier(a))
	assert.Same(t, a, f.coll.GetInstanceFromIdentifier(hash.String("player")))

	assert.ErrorIs(t, f.coll.SetIdentifier(b, "player"), ErrIdentifierInUse)
	assert.Equal(t, hash.Unnamed, f.coll.GetIdentifier(b))
	assert.Same(t, a, f.coll.GetInstanceFromIdentifier(hash.String("player")))

	assert.ErrorIs(t, f.coll.SetIdentifier(a, "hero"), ErrIdentifierAlreadySet)
	assert.Nil(t, f.coll.GetInstanceFromIdentifier(hash.String("hero")))

	assert.ErrorIs(t, f.coll.SetIdentifier(b, "__unnamed__"), ErrInvalidOperation)

	require.NoError(t, f.coll.Delete(a))
	assert.Nil(t, f.coll.GetInstanceFromIdentifier(hash.String("player")))
	require.NoError(t, f.coll.SetIdentifier(b, "player"))
}

func TestStaleInstanceKeepsNoIdentifier(t *testing.T) {
	f := newFixture(t, 8)
	a := f.mustNew(t, "empty.goc")
	f.coll.SetPosition(a, vmath.P3(1, 2, 3))
	f.coll.UpdateTransforms()
	require.NoError(t, f.coll.Delete(a))

	assert.ErrorIs(t, f.coll.SetIdentifier(a, "ghost"), ErrStaleInstance)
	assert.Nil(t, f.coll.GetInstanceFromIdentifier(hash.String("ghost")))

	// The slot is reused; the old handle must not see the new pose.
	b := f.mustNew(t, "empty.goc")
	require.Equal(t, a.Index(), b.Index())
	f.coll.SetPosition(b, vmath.P3(7, 8, 9))
	f.coll.UpdateTransforms()
	assert.Equal(t, vmath.Point3{}, f.coll.GetWorldPosition(a))
	assert.Equal(t, vmath.QuatIdentity(), f.coll.GetWorldRotation(a))
	assert.Equal(t, vmath.P3(7, 8, 9), f.coll.GetWorldPosition(b))

	// A foreign collection's instance is stale too.
	g := newFixture(t, 8)
	assert.ErrorIs(t, g.coll.SetIdentifier(b, "ghost"), ErrStaleInstance)
	require.NoError(t, f.coll.SetIdentifier(b, "ghost"))
}

func TestNewCollectionBounds(t *testing.T) {
	rt := NewRuntime(zap.NewNop())
	defer rt.Close()
	fac := resource.NewFSFactory(baseFiles, zap.NewNop())

	_, err := NewCollection(rt, "zero", fac, 0, zap.NewNop())
	assert.Error(t, err)
	_, err = NewCollection(rt, "huge", fac, MaxInstances+1, zap.NewNop())
	assert.Error(t, err)

	c, err := NewCollection(rt, "dup", fac, 4, zap.NewNop())
	require.NoError(t, err)
	_, err = NewCollection(rt, "dup", fac, 4, zap.NewNop())
	assert.Error(t, err)
	require.NoError(t, c.Close())
}

// TestRandomOperations drives New, Delete and SetParent in random order and
// checks the level table after every step.
func TestRandomOperations(t *testing.T) {
	f := newFixture(t, 64)
	rng := rand.New(rand.NewSource(7))

	var live []*Instance
	created, deleted := 0, 0
	for step := 0; step < 2000; step++ {
		switch op := rng.Intn(10); {
		case op < 4:
			inst, err := f.coll.New("one.goc")
			if len(live) == 64 {
				assert.ErrorIs(t, err, ErrOutOfInstances)
				continue
			}
			require.NoError(t, err)
			live = append(live, inst)
			created++
		case op < 7 && len(live) > 0:
			i := rng.Intn(len(live))
			require.NoError(t, f.coll.Delete(live[i]))
			live[i] = live[len(live)-1]
			live = live[:len(live)-1]
			deleted++
		case len(live) > 1:
			child := live[rng.Intn(len(live))]
			var parent *Instance
			if rng.Intn(5) > 0 {
				parent = live[rng.Intn(len(live))]
			}
			_ = f.coll.SetParent(child, parent)
		}
		require.Equal(t, created-deleted, f.coll.InstanceCount())
		checkLevels(t, f.coll)
		if t.Failed() {
			t.Fatalf("invariant broken at step %d", step)
		}
	}
}

func TestDeleteAll(t *testing.T) {
	f := newFixture(t, 8)
	a := f.mustNew(t, "one.goc")
	b := f.mustNew(t, "one.goc")
	f.mustNew(t, "one.goc")
	require.NoError(t, f.coll.SetParent(b, a))

	require.NoError(t, f.coll.DeleteAll())
	assert.Equal(t, 0, f.coll.InstanceCount())
	assert.Equal(t, 0, f.factory.RefCount("one.goc"))
	checkLevels(t, f.coll)
}

func TestHierarchyChangesRejectedWhileCreating(t *testing.T) {
	f := newFixture(t, 4)
	root := f.mustNew(t, "empty.goc")
	orphanType, ok := f.factory.TypeByExt("orphan")
	require.True(t, ok)

	var deleteErr, parentErr error
	require.NoError(t, f.coll.RegisterComponentType(ComponentType{
		Name:         "orphan",
		ResourceType: orphanType,
		Init: func(p ComponentParams) error {
			deleteErr = p.Collection.Delete(p.Instance)
			parentErr = p.Collection.SetParent(p.Instance, root)
			return nil
		},
	}))

	inst := f.mustNew(t, "orphan.goc")
	assert.ErrorIs(t, deleteErr, ErrInvalidOperation)
	assert.ErrorIs(t, parentErr, ErrInvalidOperation)
	assert.Nil(t, f.coll.GetParent(inst))
	assert.Equal(t, 2, f.coll.InstanceCount())
	checkLevels(t, f.coll)
}
