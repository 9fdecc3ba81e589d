// Package component holds the built-in component types.
package component

import (
	"fmt"

	"github.com/l1jgo/gameobject/internal/gameobject"
	"github.com/l1jgo/gameobject/internal/resource"
)

const (
	SpinExt     = "spin"
	TweenExt    = "tween"
	LifetimeExt = "lifetime"
)

type resourceTypes map[string]resource.TypeID

// RegisterResourceTypes teaches the factory to load the built-in component
// resources.
func RegisterResourceTypes(f *resource.FSFactory) error {
	if _, err := f.RegisterType(SpinExt, resource.YAMLLoader[SpinDesc](validateSpin)); err != nil {
		return err
	}
	if _, err := f.RegisterType(TweenExt, resource.YAMLLoader[TweenDesc](validateTween)); err != nil {
		return err
	}
	if _, err := f.RegisterType(LifetimeExt, resource.YAMLLoader[LifetimeDesc](validateLifetime)); err != nil {
		return err
	}
	return nil
}

// RegisterComponentTypes adds the built-in component types to c. They update
// in the order spin, tween, lifetime.
func RegisterComponentTypes(c *gameobject.Collection, f *resource.FSFactory) error {
	rt := resourceTypes{}
	for _, ext := range []string{SpinExt, TweenExt, LifetimeExt} {
		id, ok := f.TypeByExt(ext)
		if !ok {
			return fmt.Errorf("resource type %s not registered", ext)
		}
		rt[ext] = id
	}
	for _, ct := range []gameobject.ComponentType{spinType(rt), tweenType(rt), lifetimeType(rt)} {
		if err := c.RegisterComponentType(ct); err != nil {
			return fmt.Errorf("register %s: %w", ct.Name, err)
		}
	}
	return nil
}
