package scripting

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap/zaptest"

	"github.com/l1jgo/gameobject/internal/component"
	"github.com/l1jgo/gameobject/internal/config"
	"github.com/l1jgo/gameobject/internal/core/hash"
	"github.com/l1jgo/gameobject/internal/core/vmath"
	"github.com/l1jgo/gameobject/internal/gameobject"
	"github.com/l1jgo/gameobject/internal/resource"
)

var files = fstest.MapFS{
	"mover.goc": {Data: []byte("components:\n  - id: script\n    resource: mover.lua\n")},
	"mover.lua": {Data: []byte(`
function init(self)
  self.ticks = 0
end

function update(self, dt)
  self.ticks = self.ticks + 1
  local x, y, z = go.get_position()
  go.set_position(x + dt, y, z)
end

function on_event(self, id, data)
  if id == go.hash("stop") then
    go.delete()
  end
end

function final(self)
  finalized = true
end
`)},
	"killer.goc": {Data: []byte("components:\n  - resource: killer.lua\n")},
	"killer.lua": {Data: []byte(`
function update(self)
  go.delete(go.hash("target"))
end
`)},
	"broken.goc": {Data: []byte("components:\n  - resource: broken.lua\n")},
	"broken.lua": {Data: []byte(`
function update(self)
  error("boom")
end
`)},
	"doubler.goc": {Data: []byte("components:\n  - resource: doubler.lua\n")},
	"doubler.lua": {Data: []byte(`
function init(self)
  go.set_position(double(21), 0, 0)
end
`)},
	"timed.goc": {Data: []byte(`
components:
  - id: script
    resource: extender.lua
  - id: life
    resource: one.lifetime
`)},
	"extender.lua": {Data: []byte(`
function init(self)
  go.post("extend", nil, 5)
end
`)},
	"one.lifetime": {Data: []byte("seconds: 1\n")},
	"syntax.lua":   {Data: []byte("function (\n")},
	"pilot.goc":    {Data: []byte("components:\n  - id: script\n    resource: pilot.lua\n")},
	"pilot.lua": {Data: []byte(`
function init(self)
  go.acquire_input_focus()
end

function on_input(self, action_id, action)
  if action_id == go.hash("fire") and action.pressed then
    go.set_position(action.x, action.y, 0)
    qx, qy, qz, qw = go.get_world_rotation()
    go.spawn("mover.goc", 1, 2, 3)
  elseif action_id == go.hash("quit") then
    go.release_input_focus()
  end
end
`)},
	"addressed.goc": {Data: []byte(`
components:
  - id: script
    resource: addressed.lua
  - id: life
    resource: one.lifetime
`)},
	"addressed.lua": {Data: []byte(`
function init(self)
  go.post_to(nil, "life", "extend", 5)
end
`)},
	"misaddressed.goc": {Data: []byte("components:\n  - resource: misaddressed.lua\n")},
	"misaddressed.lua": {Data: []byte(`
function init(self)
  go.post_to(nil, "nope", go.hash("extend"))
end
`)},
}

type spawnQueue struct {
	entries []config.SpawnConfig
}

func (q *spawnQueue) Queue(entries ...config.SpawnConfig) {
	q.entries = append(q.entries, entries...)
}

type fixture struct {
	engine  *Engine
	factory *resource.FSFactory
	coll    *gameobject.Collection
}

func newFixture(t *testing.T, libDir string) *fixture {
	t.Helper()
	log := zaptest.NewLogger(t)

	e, err := NewEngine(libDir, log)
	require.NoError(t, err)

	f := resource.NewFSFactory(files, log)
	require.NoError(t, gameobject.RegisterResourceTypes(f))
	require.NoError(t, component.RegisterResourceTypes(f))
	require.NoError(t, e.RegisterResourceTypes(f))

	rt := gameobject.NewRuntime(log)
	c, err := gameobject.NewCollection(rt, "scripts", f, 16, log)
	require.NoError(t, err)
	require.NoError(t, e.RegisterComponentType(c, f))
	require.NoError(t, component.RegisterComponentTypes(c, f))

	t.Cleanup(func() {
		assert.NoError(t, c.Close())
		assert.NoError(t, f.Close())
		rt.Close()
		e.Close()
	})
	return &fixture{engine: e, factory: f, coll: c}
}

func (f *fixture) mustNew(t *testing.T, name string) *gameobject.Instance {
	t.Helper()
	inst, err := f.coll.New(name)
	require.NoError(t, err)
	return inst
}

func TestScriptCallbacks(t *testing.T) {
	f := newFixture(t, "")
	inst := f.mustNew(t, "mover.goc")

	require.NoError(t, f.coll.Update(gameobject.UpdateContext{DT: 1}))
	require.NoError(t, f.coll.Update(gameobject.UpdateContext{DT: 1}))
	assert.Equal(t, vmath.P3(2, 0, 0), f.coll.GetPosition(inst))

	res, err := f.factory.Get("mover.lua")
	require.NoError(t, err)
	script := res.(*Script)
	f.factory.Release(res)

	require.NoError(t, f.coll.PostEvent(inst, "script", hash.String("stop"), nil))
	require.NoError(t, f.coll.Update(gameobject.UpdateContext{DT: 1}))
	assert.Equal(t, 0, f.coll.InstanceCount())
	assert.Equal(t, lua.LTrue, script.env.RawGetString("finalized"))
}

func TestScriptSelfIsPerInstance(t *testing.T) {
	f := newFixture(t, "")
	a := f.mustNew(t, "mover.goc")
	require.NoError(t, f.coll.Update(gameobject.UpdateContext{DT: 1}))
	b := f.mustNew(t, "mover.goc")
	require.NoError(t, f.coll.Update(gameobject.UpdateContext{DT: 1}))

	assert.Equal(t, vmath.P3(2, 0, 0), f.coll.GetPosition(a))
	assert.Equal(t, vmath.P3(1, 0, 0), f.coll.GetPosition(b))

	// Removing a swaps b into its slot; b keeps its own state.
	require.NoError(t, f.coll.Delete(a))
	require.NoError(t, f.coll.Update(gameobject.UpdateContext{DT: 1}))
	assert.Equal(t, vmath.P3(2, 0, 0), f.coll.GetPosition(b))
}

func TestScriptDeletesByIdentifier(t *testing.T) {
	f := newFixture(t, "")
	victim := f.mustNew(t, "mover.goc")
	require.NoError(t, f.coll.SetIdentifier(victim, "target"))
	f.mustNew(t, "killer.goc")

	require.NoError(t, f.coll.Update(gameobject.UpdateContext{DT: 1}))
	assert.Equal(t, 1, f.coll.InstanceCount())
	assert.Nil(t, f.coll.GetInstanceFromIdentifier(hash.String("target")))

	// Target is gone; the lookup now raises inside the callback.
	assert.ErrorContains(t, f.coll.Update(gameobject.UpdateContext{DT: 1}), "no instance")
}

func TestScriptErrorsReturned(t *testing.T) {
	f := newFixture(t, "")
	f.mustNew(t, "broken.goc")
	mover := f.mustNew(t, "mover.goc")

	err := f.coll.Update(gameobject.UpdateContext{DT: 1})
	assert.ErrorContains(t, err, "boom")
	assert.Equal(t, vmath.P3(1, 0, 0), f.coll.GetPosition(mover))
}

func TestScriptPostsToGoComponent(t *testing.T) {
	f := newFixture(t, "")
	f.mustNew(t, "timed.goc")

	require.NoError(t, f.coll.Update(gameobject.UpdateContext{DT: 2}))
	assert.Equal(t, 1, f.coll.InstanceCount())
	require.NoError(t, f.coll.Update(gameobject.UpdateContext{DT: 4}))
	assert.Equal(t, 0, f.coll.InstanceCount())
}

func TestLibDirSharedGlobals(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "util.lua"),
		[]byte("function double(x) return x * 2 end\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	f := newFixture(t, dir)
	inst := f.mustNew(t, "doubler.goc")
	assert.Equal(t, vmath.P3(42, 0, 0), f.coll.GetPosition(inst))
}

func TestMissingLibDirSkipped(t *testing.T) {
	f := newFixture(t, filepath.Join(t.TempDir(), "missing"))
	assert.NotNil(t, f.engine)
}

func TestCompileErrors(t *testing.T) {
	f := newFixture(t, "")
	_, err := f.factory.Get("syntax.lua")
	assert.Error(t, err)
	assert.Equal(t, 0, f.factory.RefCount("syntax.lua"))
}

func TestAPIOutsideCallback(t *testing.T) {
	f := newFixture(t, "")
	err := f.engine.vm.DoString("go.get_position()")
	assert.ErrorContains(t, err, "outside a script callback")

	require.NoError(t, f.engine.vm.DoString(`h = go.hash("stop")`))
	assert.Equal(t, hashValue(hash.String("stop")), f.engine.vm.GetGlobal("h"))
}

func TestScriptInputFocusAndSpawn(t *testing.T) {
	f := newFixture(t, "")
	q := &spawnQueue{}
	f.engine.SetSpawnQueue(q)
	pilot := f.mustNew(t, "pilot.goc")
	assert.Same(t, pilot, f.coll.InputFocus())

	turn := vmath.QuatAxisAngle(vmath.V3(0, 0, 1), 3.14159265/2)
	f.coll.SetRotation(pilot, turn)
	f.coll.UpdateTransforms()

	fire := &gameobject.InputAction{ActionID: hash.String("fire"), Pressed: true, X: 4, Y: 5}
	require.NoError(t, f.coll.DispatchInput(fire))
	assert.Equal(t, vmath.P3(4, 5, 0), f.coll.GetPosition(pilot))
	require.Len(t, q.entries, 1)
	assert.Equal(t, config.SpawnConfig{Prototype: "mover.goc", Position: [3]float32{1, 2, 3}}, q.entries[0])
	// Spawns are deferred; nothing was created yet.
	assert.Equal(t, 1, f.coll.InstanceCount())

	res, err := f.factory.Get("pilot.lua")
	require.NoError(t, err)
	env := res.(*Script).env
	f.factory.Release(res)
	assert.InDelta(t, float64(turn.Z), float64(env.RawGetString("qz").(lua.LNumber)), 1e-6)
	assert.InDelta(t, float64(turn.W), float64(env.RawGetString("qw").(lua.LNumber)), 1e-6)

	require.NoError(t, f.coll.DispatchInput(&gameobject.InputAction{ActionID: hash.String("quit")}))
	assert.Nil(t, f.coll.InputFocus())
}

func TestScriptSpawnNeedsQueue(t *testing.T) {
	f := newFixture(t, "")
	f.mustNew(t, "pilot.goc")
	err := f.coll.DispatchInput(&gameobject.InputAction{ActionID: hash.String("fire"), Pressed: true})
	assert.ErrorContains(t, err, "no spawn queue")
}

func TestScriptPostToComponent(t *testing.T) {
	f := newFixture(t, "")
	f.mustNew(t, "addressed.goc")
	require.NoError(t, f.coll.Update(gameobject.UpdateContext{DT: 2}))
	assert.Equal(t, 1, f.coll.InstanceCount())

	_, err := f.coll.New("misaddressed.goc")
	assert.ErrorContains(t, err, "no such component")
	assert.Equal(t, 1, f.coll.InstanceCount())
}
