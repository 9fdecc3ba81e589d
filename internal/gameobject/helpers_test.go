package gameobject

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/l1jgo/gameobject/internal/core/event"
	"github.com/l1jgo/gameobject/internal/resource"
)

type counterDesc struct {
	Label      string `yaml:"label"`
	FailCreate bool   `yaml:"fail_create"`
	FailInit   bool   `yaml:"fail_init"`
}

type counterState struct {
	label string
}

type recorder struct {
	calls []string
}

func (r *recorder) add(s string) { r.calls = append(r.calls, s) }

func (r *recorder) reset() { r.calls = nil }

var baseFiles = fstest.MapFS{
	"empty.goc": {Data: []byte("components: []\n")},
	"one.goc": {Data: []byte(`
components:
  - id: a
    resource: a.counter
`)},
	"three.goc": {Data: []byte(`
components:
  - id: a
    resource: a.counter
  - id: b
    resource: b.counter
  - id: c
    resource: c.counter
`)},
	"three_fail.goc": {Data: []byte(`
components:
  - id: a
    resource: a.counter
  - id: b
    resource: fail.counter
  - id: c
    resource: c.counter
`)},
	"init_fail.goc": {Data: []byte(`
components:
  - id: a
    resource: a.counter
  - id: b
    resource: init_fail.counter
`)},
	"a.counter":         {Data: []byte("label: a\n")},
	"b.counter":         {Data: []byte("label: b\n")},
	"c.counter":         {Data: []byte("label: c\n")},
	"fail.counter":      {Data: []byte("label: b\nfail_create: true\n")},
	"init_fail.counter": {Data: []byte("label: b\nfail_init: true\n")},
	"orphan.goc": {Data: []byte(`
components:
  - resource: x.orphan
`)},
	"x.orphan": {Data: []byte("{}\n")},
	"self_delete.goc": {Data: []byte(`
components:
  - resource: a.counter
  - resource: x.orphan
  - resource: c.counter
`)},
	"named_fail.goc": {Data: []byte(`
components:
  - resource: x.orphan
  - resource: init_fail.counter
`)},
}

type fixture struct {
	factory *resource.FSFactory
	rt      *Runtime
	coll    *Collection
	rec     *recorder
}

func newFixture(t *testing.T, maxInstances int) *fixture {
	t.Helper()
	log := zap.NewNop()
	f := &fixture{
		factory: resource.NewFSFactory(baseFiles, log),
		rt:      NewRuntime(log),
		rec:     &recorder{},
	}
	require.NoError(t, RegisterResourceTypes(f.factory))
	counterType, err := f.factory.RegisterType("counter", resource.YAMLLoader[counterDesc](nil))
	require.NoError(t, err)
	_, err = f.factory.RegisterType("orphan", resource.YAMLLoader[struct{}](nil))
	require.NoError(t, err)

	f.coll, err = NewCollection(f.rt, "test", f.factory, maxInstances, log)
	require.NoError(t, err)

	rec := f.rec
	require.NoError(t, f.coll.RegisterComponentType(ComponentType{
		Name:                "counter",
		ResourceType:        counterType,
		InstanceHasUserData: true,
		Create: func(p ComponentParams) error {
			d := p.Resource.(*counterDesc)
			rec.add("create:" + d.Label)
			if d.FailCreate {
				return errors.New("boom")
			}
			*p.UserData = &counterState{label: d.Label}
			return nil
		},
		Init: func(p ComponentParams) error {
			d := p.Resource.(*counterDesc)
			rec.add("init:" + d.Label)
			if d.FailInit {
				return errors.New("init boom")
			}
			return nil
		},
		Destroy: func(p ComponentParams) error {
			rec.add("destroy:" + p.Resource.(*counterDesc).Label)
			return nil
		},
		Update: func(c *Collection, uc UpdateContext, _ any) error {
			rec.add("update:counter")
			return nil
		},
		OnEvent: func(p ComponentParams, ev event.Event) error {
			st := (*p.UserData).(*counterState)
			rec.add("event:" + st.label)
			return nil
		},
		OnInput: func(p ComponentParams, action *InputAction) error {
			st := (*p.UserData).(*counterState)
			rec.add("input:" + st.label)
			if action.Value < 0 && st.label == "b" {
				return errors.New("bad value")
			}
			return nil
		},
	}))

	t.Cleanup(func() {
		assert.NoError(t, f.coll.Close())
		assert.NoError(t, f.factory.Close())
		f.rt.Close()
	})
	return f
}

func (f *fixture) mustNew(t *testing.T, proto string) *Instance {
	t.Helper()
	inst, err := f.coll.New(proto)
	require.NoError(t, err)
	require.NotNil(t, inst)
	return inst
}

// checkLevels verifies the level table against the instance array.
func checkLevels(t *testing.T, c *Collection) {
	t.Helper()
	seen := make(map[uint16]bool)
	total := 0
	for d := 0; d < MaxDepth; d++ {
		for pos, idx := range c.levels.level(d) {
			inst := c.instances[idx]
			require.NotNil(t, inst, "level %d pos %d holds dead slot %d", d, pos, idx)
			assert.Equal(t, d, inst.Depth())
			assert.Equal(t, pos, int(inst.levelIndex))
			assert.False(t, seen[idx], "slot %d listed twice", idx)
			seen[idx] = true
			if inst.parent == InvalidIndex {
				assert.Equal(t, 0, d, "root %d not at level 0", idx)
			} else {
				require.NotNil(t, c.instances[inst.parent])
				assert.Equal(t, c.instances[inst.parent].Depth()+1, d)
			}
			total++
		}
	}
	live := 0
	for _, inst := range c.instances {
		if inst != nil {
			live++
		}
	}
	assert.Equal(t, live, total)
	assert.Equal(t, c.InstanceCount(), total)
}
