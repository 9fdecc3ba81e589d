package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/l1jgo/gameobject/internal/core/system"
	"github.com/l1jgo/gameobject/internal/gameobject"
)

// CollectionSystem advances one collection per tick. Phase 2 (Update).
type CollectionSystem struct {
	coll   *gameobject.Collection
	log    *zap.Logger
	frames uint64
	errors uint64
}

func NewCollectionSystem(coll *gameobject.Collection, log *zap.Logger) *CollectionSystem {
	return &CollectionSystem{coll: coll, log: log}
}

func (s *CollectionSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *CollectionSystem) Update(dt time.Duration) {
	s.frames++
	uc := gameobject.UpdateContext{DT: float32(dt.Seconds())}
	if err := s.coll.Update(uc); err != nil {
		// Failing components are already logged individually.
		s.errors++
		s.log.Warn("collection update reported errors",
			zap.String("collection", s.coll.Name()),
			zap.Uint64("frame", s.frames),
			zap.Error(err))
	}
}

// Frames returns the number of updates run so far.
func (s *CollectionSystem) Frames() uint64 { return s.frames }

// FailedFrames returns the number of updates that reported errors.
func (s *CollectionSystem) FailedFrames() uint64 { return s.errors }
