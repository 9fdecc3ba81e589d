// Package resource loads named resources from a file tree and shares them by
// reference count.
package resource

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/l1jgo/gameobject/internal/core/hash"
)

var (
	ErrNotFound       = errors.New("resource not found")
	ErrUnknownType    = errors.New("unknown resource type")
	ErrTypeRegistered = errors.New("resource type already registered")
	ErrNotLoaded      = errors.New("resource not loaded by this factory")
)

// TypeID identifies a registered resource type. It is the hash of the file
// extension the type was registered for.
type TypeID hash.Hash

// Factory is what the runtime needs from a resource provider.
type Factory interface {
	// Get returns the resource for name, loading it on first use. Every
	// successful Get must be balanced by a Release.
	Get(name string) (any, error)
	Release(res any)
	GetType(res any) (TypeID, error)
}

// Loader turns file contents into a resource value and tears it down again.
// Resource values must be comparable (pointers in practice); they key the
// factory's reverse lookup.
type Loader struct {
	Create  func(f Factory, name string, data []byte) (any, error)
	Destroy func(f Factory, res any) error
}

type resourceType struct {
	id     TypeID
	ext    string
	loader Loader
}

type entry struct {
	name     string
	typ      *resourceType
	res      any
	refCount int
}

// FSFactory serves resources from an fs.FS. Resource names are slash separated
// paths relative to the root of the file system; the extension picks the loader.
// Accessed only from the game loop goroutine.
type FSFactory struct {
	fsys   fs.FS
	types  map[string]*resourceType
	byName map[string]*entry
	byRes  map[any]*entry
	log    *zap.Logger
}

var _ Factory = (*FSFactory)(nil)

func NewFSFactory(fsys fs.FS, log *zap.Logger) *FSFactory {
	return &FSFactory{
		fsys:   fsys,
		types:  make(map[string]*resourceType, 8),
		byName: make(map[string]*entry, 64),
		byRes:  make(map[any]*entry, 64),
		log:    log,
	}
}

// RegisterType binds a file extension (without the dot) to a loader.
func (f *FSFactory) RegisterType(ext string, loader Loader) (TypeID, error) {
	if _, ok := f.types[ext]; ok {
		return 0, fmt.Errorf("%w: %s", ErrTypeRegistered, ext)
	}
	t := &resourceType{id: TypeID(hash.String(ext)), ext: ext, loader: loader}
	f.types[ext] = t
	return t.id, nil
}

// TypeByExt returns the type registered for ext.
func (f *FSFactory) TypeByExt(ext string) (TypeID, bool) {
	t, ok := f.types[ext]
	if !ok {
		return 0, false
	}
	return t.id, true
}

// cleanName maps every spelling of a resource path to its cache key.
func cleanName(name string) string {
	return strings.TrimPrefix(path.Clean("/"+name), "/")
}

func (f *FSFactory) Get(name string) (any, error) {
	name = cleanName(name)
	if e, ok := f.byName[name]; ok {
		e.refCount++
		return e.res, nil
	}

	ext := strings.TrimPrefix(path.Ext(name), ".")
	t, ok := f.types[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, name)
	}

	data, err := fs.ReadFile(f.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	res, err := t.loader.Create(f, name, data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}

	e := &entry{name: name, typ: t, res: res, refCount: 1}
	f.byName[name] = e
	f.byRes[res] = e
	f.log.Debug("resource loaded", zap.String("name", name), zap.String("type", ext))
	return res, nil
}

// Release drops one reference. The resource is destroyed when the last
// reference goes away.
func (f *FSFactory) Release(res any) {
	e, ok := f.byRes[res]
	if !ok {
		f.log.Warn("release of unknown resource", zap.Any("resource", res))
		return
	}
	e.refCount--
	if e.refCount > 0 {
		return
	}
	if err := f.destroy(e); err != nil {
		f.log.Error("resource destroy failed", zap.String("name", e.name), zap.Error(err))
	}
}

func (f *FSFactory) GetType(res any) (TypeID, error) {
	e, ok := f.byRes[res]
	if !ok {
		return 0, ErrNotLoaded
	}
	return e.typ.id, nil
}

// RefCount returns the number of live references to name.
func (f *FSFactory) RefCount(name string) int {
	e, ok := f.byName[cleanName(name)]
	if !ok {
		return 0
	}
	return e.refCount
}

// Loaded returns the number of resources currently held.
func (f *FSFactory) Loaded() int {
	return len(f.byName)
}

func (f *FSFactory) destroy(e *entry) error {
	delete(f.byName, e.name)
	delete(f.byRes, e.res)
	if e.typ.loader.Destroy == nil {
		return nil
	}
	return e.typ.loader.Destroy(f, e.res)
}

// Close destroys every resource still loaded, regardless of reference count.
// Leaks are logged.
func (f *FSFactory) Close() error {
	var err error
	for len(f.byName) > 0 {
		for _, e := range f.byName {
			f.log.Warn("resource leaked", zap.String("name", e.name), zap.Int("refs", e.refCount))
			err = multierr.Append(err, f.destroy(e))
			// Destroy may release nested resources; restart the walk.
			break
		}
	}
	return err
}
