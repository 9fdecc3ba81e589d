package component

import (
	"errors"

	"github.com/l1jgo/gameobject/internal/core/vmath"
	"github.com/l1jgo/gameobject/internal/gameobject"
)

// SpinDesc is the .spin resource: a constant angular velocity.
type SpinDesc struct {
	Axis  [3]float32 `yaml:"axis"`
	Speed float32    `yaml:"speed"` // radians per second
}

func validateSpin(d *SpinDesc) error {
	if vmath.V3(d.Axis[0], d.Axis[1], d.Axis[2]).Length() == 0 {
		return errors.New("spin axis must be non-zero")
	}
	return nil
}

type spinner struct {
	inst  *gameobject.Instance
	axis  vmath.Vector3
	speed float32
	slot  int
}

// spinWorld is the per-collection context of the spin component.
type spinWorld struct {
	spinners []*spinner
}

func spinType(rt resourceTypes) gameobject.ComponentType {
	w := &spinWorld{}
	return gameobject.ComponentType{
		Name:                SpinExt,
		ResourceType:        rt[SpinExt],
		Context:             w,
		InstanceHasUserData: true,
		Create: func(p gameobject.ComponentParams) error {
			d := p.Resource.(*SpinDesc)
			s := &spinner{
				inst:  p.Instance,
				axis:  vmath.V3(d.Axis[0], d.Axis[1], d.Axis[2]),
				speed: d.Speed,
				slot:  len(w.spinners),
			}
			w.spinners = append(w.spinners, s)
			*p.UserData = s
			return nil
		},
		Destroy: func(p gameobject.ComponentParams) error {
			s := (*p.UserData).(*spinner)
			last := w.spinners[len(w.spinners)-1]
			w.spinners[s.slot] = last
			last.slot = s.slot
			w.spinners[len(w.spinners)-1] = nil
			w.spinners = w.spinners[:len(w.spinners)-1]
			*p.UserData = nil
			return nil
		},
		Update: func(c *gameobject.Collection, uc gameobject.UpdateContext, _ any) error {
			for _, s := range w.spinners {
				step := vmath.QuatAxisAngle(s.axis, s.speed*uc.DT)
				c.SetRotation(s.inst, c.GetRotation(s.inst).Mul(step).Normalize())
			}
			return nil
		},
	}
}
