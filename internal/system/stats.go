package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/l1jgo/gameobject/internal/core/system"
	"github.com/l1jgo/gameobject/internal/gameobject"
	"github.com/l1jgo/gameobject/internal/resource"
)

// StatsSystem logs collection and resource counts every N ticks.
// Phase 3 (PostUpdate).
type StatsSystem struct {
	coll    *gameobject.Collection
	factory *resource.FSFactory
	every   int
	ticks   int
	elapsed time.Duration
	log     *zap.Logger
}

// NewStatsSystem logs every `every` ticks; zero disables logging.
func NewStatsSystem(coll *gameobject.Collection, factory *resource.FSFactory, every int, log *zap.Logger) *StatsSystem {
	return &StatsSystem{coll: coll, factory: factory, every: every, log: log}
}

func (s *StatsSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *StatsSystem) Update(dt time.Duration) {
	s.ticks++
	s.elapsed += dt
	if s.every <= 0 || s.ticks%s.every != 0 {
		return
	}
	s.log.Info("collection stats",
		zap.String("collection", s.coll.Name()),
		zap.Int("tick", s.ticks),
		zap.Duration("elapsed", s.elapsed),
		zap.Int("instances", s.coll.InstanceCount()),
		zap.Int("pending_events", s.coll.PendingEvents()),
		zap.Int("resources", s.factory.Loaded()))
}
