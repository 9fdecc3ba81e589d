package scripting

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/l1jgo/gameobject/internal/config"
	"github.com/l1jgo/gameobject/internal/resource"
)

// SpawnQueue receives go.spawn requests. Instances cannot be created inside a
// collection update, so spawns are queued and created on a later tick.
type SpawnQueue interface {
	Queue(entries ...config.SpawnConfig)
}

// ScriptExt is the file extension of script resources.
const ScriptExt = "lua"

// Engine wraps a single gopher-lua VM shared by every script component.
// Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger

	// current is the script instance whose callback is running; the go.*
	// API acts on it.
	current *scriptInstance

	spawns SpawnQueue
}

// Script is a compiled .lua resource. Each script runs in its own environment
// table that falls back to the shared globals, so callbacks of different
// scripts do not collide.
type Script struct {
	Name string
	env  *lua.LTable
}

// NewEngine creates a Lua engine and loads the shared library scripts in
// libDir into the global table. A missing libDir is skipped.
func NewEngine(libDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	// Set API version global
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	e.openGoModule()

	if libDir != "" {
		if err := e.loadDir(libDir); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load lib scripts: %w", err)
		}
	}
	return e, nil
}

// SetSpawnQueue routes go.spawn to q. Without a queue go.spawn raises an error.
func (e *Engine) SetSpawnQueue(q SpawnQueue) { e.spawns = q }

func (e *Engine) Close() {
	e.vm.Close()
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// RegisterResourceTypes teaches the factory to compile .lua resources.
func (e *Engine) RegisterResourceTypes(f *resource.FSFactory) error {
	_, err := f.RegisterType(ScriptExt, resource.Loader{
		Create: func(_ resource.Factory, name string, data []byte) (any, error) {
			return e.compile(name, data)
		},
	})
	return err
}

func (e *Engine) compile(name string, data []byte) (*Script, error) {
	fn, err := e.vm.Load(bytes.NewReader(data), name)
	if err != nil {
		return nil, err
	}

	env := e.vm.NewTable()
	meta := e.vm.NewTable()
	meta.RawSetString("__index", e.vm.G.Global)
	e.vm.SetMetatable(env, meta)
	e.vm.SetFEnv(fn, env)

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}); err != nil {
		return nil, fmt.Errorf("run %s: %w", name, err)
	}
	return &Script{Name: name, env: env}, nil
}

// call runs the named callback of si's script, if the script defines it.
func (e *Engine) call(si *scriptInstance, name string, args ...lua.LValue) error {
	fn, ok := si.script.env.RawGetString(name).(*lua.LFunction)
	if !ok {
		return nil
	}

	prev := e.current
	e.current = si
	defer func() { e.current = prev }()

	err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, append([]lua.LValue{si.self}, args...)...)
	if err != nil {
		e.log.Error("lua callback error",
			zap.String("script", si.script.Name),
			zap.String("callback", name),
			zap.Error(err))
		return fmt.Errorf("%s %s: %w", si.script.Name, name, err)
	}
	return nil
}
