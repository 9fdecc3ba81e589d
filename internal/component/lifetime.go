package component

import (
	"errors"

	"go.uber.org/multierr"

	"github.com/l1jgo/gameobject/internal/core/event"
	"github.com/l1jgo/gameobject/internal/core/hash"
	"github.com/l1jgo/gameobject/internal/gameobject"
)

// ExtendEvent adds its payload (seconds, float32 or float64) to a lifetime.
var ExtendEvent = hash.String("extend")

// LifetimeDesc is the .lifetime resource.
type LifetimeDesc struct {
	Seconds float32 `yaml:"seconds"`
}

func validateLifetime(d *LifetimeDesc) error {
	if d.Seconds <= 0 {
		return errors.New("lifetime must be positive")
	}
	return nil
}

type timer struct {
	inst      *gameobject.Instance
	remaining float32
	slot      int
}

type lifetimeWorld struct {
	timers []*timer
}

func lifetimeType(rt resourceTypes) gameobject.ComponentType {
	w := &lifetimeWorld{}
	return gameobject.ComponentType{
		Name:                LifetimeExt,
		ResourceType:        rt[LifetimeExt],
		Context:             w,
		InstanceHasUserData: true,
		Create: func(p gameobject.ComponentParams) error {
			t := &timer{
				inst:      p.Instance,
				remaining: p.Resource.(*LifetimeDesc).Seconds,
				slot:      len(w.timers),
			}
			w.timers = append(w.timers, t)
			*p.UserData = t
			return nil
		},
		Destroy: func(p gameobject.ComponentParams) error {
			t := (*p.UserData).(*timer)
			last := w.timers[len(w.timers)-1]
			w.timers[t.slot] = last
			last.slot = t.slot
			w.timers[len(w.timers)-1] = nil
			w.timers = w.timers[:len(w.timers)-1]
			*p.UserData = nil
			return nil
		},
		Update: func(c *gameobject.Collection, uc gameobject.UpdateContext, _ any) error {
			var err error
			for _, t := range w.timers {
				if t.inst.ToBeDeleted() {
					continue
				}
				t.remaining -= uc.DT
				if t.remaining <= 0 {
					// Queued; the instance survives until the pass ends.
					err = multierr.Append(err, c.Delete(t.inst))
				}
			}
			return err
		},
		OnEvent: func(p gameobject.ComponentParams, ev event.Event) error {
			if ev.ID != ExtendEvent {
				return nil
			}
			t := (*p.UserData).(*timer)
			switch v := ev.Payload.(type) {
			case float32:
				t.remaining += v
			case float64:
				t.remaining += float32(v)
			default:
				return errors.New("extend expects seconds")
			}
			return nil
		},
	}
}
