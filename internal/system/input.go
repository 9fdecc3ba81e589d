package system

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	coresys "github.com/l1jgo/gameobject/internal/core/system"
	"github.com/l1jgo/gameobject/internal/gameobject"
)

// InputSystem drains actions pushed from other goroutines and routes them to
// the collection's input focus. Phase 0 (Input).
type InputSystem struct {
	coll       *gameobject.Collection
	queue      chan gameobject.InputAction
	maxPerTick int
	log        *zap.Logger

	dispatched uint64
	unfocused  uint64
	failed     uint64
	overflow   atomic.Uint64
}

func NewInputSystem(coll *gameobject.Collection, queueSize, maxPerTick int, log *zap.Logger) *InputSystem {
	return &InputSystem{
		coll:       coll,
		queue:      make(chan gameobject.InputAction, queueSize),
		maxPerTick: maxPerTick,
		log:        log,
	}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

// Push queues an action without blocking. It reports false when the queue is
// full and the action was dropped. Safe for concurrent use.
func (s *InputSystem) Push(a gameobject.InputAction) bool {
	select {
	case s.queue <- a:
		return true
	default:
		s.overflow.Add(1)
		return false
	}
}

func (s *InputSystem) Update(_ time.Duration) {
	for i := 0; i < s.maxPerTick; i++ {
		select {
		case a := <-s.queue:
			s.dispatch(&a)
		default:
			return
		}
	}
}

func (s *InputSystem) dispatch(a *gameobject.InputAction) {
	if s.coll.InputFocus() == nil {
		s.unfocused++
		return
	}
	if err := s.coll.DispatchInput(a); err != nil {
		s.failed++
		s.log.Debug("input dispatch failed",
			zap.Stringer("action", a.ActionID),
			zap.Error(err))
		return
	}
	s.dispatched++
}

// Pending returns the number of queued actions.
func (s *InputSystem) Pending() int { return len(s.queue) }

// Dispatched returns the number of actions delivered without error.
func (s *InputSystem) Dispatched() uint64 { return s.dispatched }

// Unfocused returns the number of actions dropped because nothing held focus.
func (s *InputSystem) Unfocused() uint64 { return s.unfocused }

// Failed returns the number of actions a component rejected.
func (s *InputSystem) Failed() uint64 { return s.failed }

// Overflowed returns the number of actions Push dropped on a full queue.
func (s *InputSystem) Overflowed() uint64 { return s.overflow.Load() }
