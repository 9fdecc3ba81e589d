package gameobject

import (
	"errors"
	"fmt"

	"github.com/l1jgo/gameobject/internal/core/hash"
	"github.com/l1jgo/gameobject/internal/resource"
)

// PrototypeExt is the file extension of prototype resources.
const PrototypeExt = "goc"

// PrototypeComponent is one component entry of a prototype.
type PrototypeComponent struct {
	Resource any
	Type     resource.TypeID
	ID       hash.Hash
	Name     string
}

// Prototype is the shared template instances are created from. It is owned
// by the resource factory and read-only once loaded.
type Prototype struct {
	Name       string
	Components []PrototypeComponent
}

type prototypeFile struct {
	Components []struct {
		ID       string `yaml:"id"`
		Resource string `yaml:"resource"`
	} `yaml:"components"`
}

// RegisterResourceTypes teaches the factory to load prototypes.
func RegisterResourceTypes(f *resource.FSFactory) error {
	_, err := f.RegisterType(PrototypeExt, resource.Loader{
		Create:  createPrototype,
		Destroy: destroyPrototype,
	})
	return err
}

func createPrototype(f resource.Factory, name string, data []byte) (any, error) {
	desc, err := resource.DecodeYAML[prototypeFile](data)
	if err != nil {
		return nil, err
	}
	proto := &Prototype{
		Name:       name,
		Components: make([]PrototypeComponent, 0, len(desc.Components)),
	}
	seen := make(map[hash.Hash]bool, len(desc.Components))
	for _, d := range desc.Components {
		if d.Resource == "" {
			err = errors.New("component without resource")
			break
		}
		id := hash.Unnamed
		if d.ID != "" {
			id = hash.String(d.ID)
			if seen[id] {
				err = fmt.Errorf("duplicate component id %q", d.ID)
				break
			}
			seen[id] = true
		}
		res, gerr := f.Get(d.Resource)
		if gerr != nil {
			err = fmt.Errorf("component %s: %w", d.Resource, gerr)
			break
		}
		typ, gerr := f.GetType(res)
		if gerr != nil {
			f.Release(res)
			err = fmt.Errorf("component %s: %w", d.Resource, gerr)
			break
		}
		proto.Components = append(proto.Components, PrototypeComponent{
			Resource: res,
			Type:     typ,
			ID:       id,
			Name:     d.ID,
		})
	}
	if err != nil {
		_ = destroyPrototype(f, proto)
		return nil, err
	}
	return proto, nil
}

func destroyPrototype(f resource.Factory, res any) error {
	proto := res.(*Prototype)
	for _, pc := range proto.Components {
		f.Release(pc.Resource)
	}
	proto.Components = nil
	return nil
}
