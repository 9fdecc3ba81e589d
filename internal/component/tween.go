package component

import (
	"errors"
	"fmt"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
	"go.uber.org/multierr"

	"github.com/l1jgo/gameobject/internal/core/hash"
	"github.com/l1jgo/gameobject/internal/core/vmath"
	"github.com/l1jgo/gameobject/internal/gameobject"
)

// TweenDoneEvent is posted to the instance when its tween finishes.
var TweenDoneEvent = hash.String("tween_done")

var easings = map[string]ease.TweenFunc{
	"":            ease.Linear,
	"linear":      ease.Linear,
	"in_quad":     ease.InQuad,
	"out_quad":    ease.OutQuad,
	"in_out_quad": ease.InOutQuad,
	"in_cubic":    ease.InCubic,
	"out_cubic":   ease.OutCubic,
	"in_sine":     ease.InSine,
	"out_sine":    ease.OutSine,
	"in_out_sine": ease.InOutSine,
	"out_bounce":  ease.OutBounce,
}

// TweenDesc is the .tween resource: move the local position to To over
// Duration seconds.
type TweenDesc struct {
	To       [3]float32 `yaml:"to"`
	Duration float32    `yaml:"duration"`
	Ease     string     `yaml:"ease"`

	fn ease.TweenFunc
}

func validateTween(d *TweenDesc) error {
	if d.Duration <= 0 {
		return errors.New("tween duration must be positive")
	}
	fn, ok := easings[d.Ease]
	if !ok {
		return fmt.Errorf("unknown easing %q", d.Ease)
	}
	d.fn = fn
	return nil
}

type tweener struct {
	inst *gameobject.Instance
	desc *TweenDesc
	// axes are built on the first update so the start is wherever the
	// instance was placed after creation.
	axes [3]*gween.Tween
	done bool
	slot int
}

type tweenWorld struct {
	tweeners []*tweener
}

func (t *tweener) start(from vmath.Point3) {
	d := t.desc
	t.axes[0] = gween.New(from.X, d.To[0], d.Duration, d.fn)
	t.axes[1] = gween.New(from.Y, d.To[1], d.Duration, d.fn)
	t.axes[2] = gween.New(from.Z, d.To[2], d.Duration, d.fn)
}

func tweenType(rt resourceTypes) gameobject.ComponentType {
	w := &tweenWorld{}
	return gameobject.ComponentType{
		Name:                TweenExt,
		ResourceType:        rt[TweenExt],
		Context:             w,
		InstanceHasUserData: true,
		Create: func(p gameobject.ComponentParams) error {
			t := &tweener{
				inst: p.Instance,
				desc: p.Resource.(*TweenDesc),
				slot: len(w.tweeners),
			}
			w.tweeners = append(w.tweeners, t)
			*p.UserData = t
			return nil
		},
		Destroy: func(p gameobject.ComponentParams) error {
			t := (*p.UserData).(*tweener)
			last := w.tweeners[len(w.tweeners)-1]
			w.tweeners[t.slot] = last
			last.slot = t.slot
			w.tweeners[len(w.tweeners)-1] = nil
			w.tweeners = w.tweeners[:len(w.tweeners)-1]
			*p.UserData = nil
			return nil
		},
		Update: func(c *gameobject.Collection, uc gameobject.UpdateContext, _ any) error {
			var err error
			for _, t := range w.tweeners {
				if t.done || t.inst.ToBeDeleted() {
					continue
				}
				if t.axes[0] == nil {
					t.start(c.GetPosition(t.inst))
				}
				x, finished := t.axes[0].Update(uc.DT)
				y, _ := t.axes[1].Update(uc.DT)
				z, _ := t.axes[2].Update(uc.DT)
				c.SetPosition(t.inst, vmath.P3(x, y, z))
				if finished {
					t.done = true
					err = multierr.Append(err, c.PostEvent(t.inst, "", TweenDoneEvent, nil))
				}
			}
			return err
		},
	}
}
