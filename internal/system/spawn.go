package system

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/l1jgo/gameobject/internal/config"
	"github.com/l1jgo/gameobject/internal/core/hash"
	coresys "github.com/l1jgo/gameobject/internal/core/system"
	"github.com/l1jgo/gameobject/internal/core/vmath"
	"github.com/l1jgo/gameobject/internal/gameobject"
)

// SpawnSystem creates queued instances outside the collection update, where
// New is allowed. Phase 1 (PreUpdate).
type SpawnSystem struct {
	coll    *gameobject.Collection
	log     *zap.Logger
	queue   []config.SpawnConfig
	spawned int
	failed  int
}

func NewSpawnSystem(coll *gameobject.Collection, log *zap.Logger) *SpawnSystem {
	return &SpawnSystem{coll: coll, log: log}
}

func (s *SpawnSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

// Queue schedules spawns for the next tick. Entries are created in order, so
// a parent must be queued before its children.
func (s *SpawnSystem) Queue(entries ...config.SpawnConfig) {
	s.queue = append(s.queue, entries...)
}

func (s *SpawnSystem) Update(_ time.Duration) {
	if len(s.queue) == 0 {
		return
	}
	batch := s.queue
	s.queue = nil
	for _, entry := range batch {
		inst, err := s.spawn(entry)
		if err != nil {
			s.failed++
			s.log.Error("spawn failed",
				zap.String("prototype", entry.Prototype),
				zap.String("id", entry.ID),
				zap.Error(err))
			continue
		}
		s.spawned++
		s.log.Debug("spawned",
			zap.String("prototype", entry.Prototype),
			zap.Stringer("id", inst.Identifier()),
			zap.Uint16("index", inst.Index()))
	}
}

func (s *SpawnSystem) spawn(entry config.SpawnConfig) (*gameobject.Instance, error) {
	inst, err := s.coll.New(entry.Prototype)
	if err != nil {
		return nil, err
	}
	if err := s.place(inst, entry); err != nil {
		if derr := s.coll.Delete(inst); derr != nil {
			s.log.Warn("spawn cleanup failed", zap.Error(derr))
		}
		return nil, err
	}
	return inst, nil
}

func (s *SpawnSystem) place(inst *gameobject.Instance, entry config.SpawnConfig) error {
	if entry.ID != "" {
		if err := s.coll.SetIdentifier(inst, entry.ID); err != nil {
			return err
		}
	}
	if entry.Parent != "" {
		parent := s.coll.GetInstanceFromIdentifier(hash.String(entry.Parent))
		if parent == nil {
			return fmt.Errorf("parent %q not spawned", entry.Parent)
		}
		if err := s.coll.SetParent(inst, parent); err != nil {
			return err
		}
	}
	p := entry.Position
	s.coll.SetPosition(inst, vmath.P3(p[0], p[1], p[2]))
	if r := entry.Rotation; r != [4]float32{} {
		s.coll.SetRotation(inst, vmath.Q(r[0], r[1], r[2], r[3]).Normalize())
	}
	return nil
}

// Pending returns the number of queued spawns.
func (s *SpawnSystem) Pending() int { return len(s.queue) }

// Spawned returns the number of successful spawns so far.
func (s *SpawnSystem) Spawned() int { return s.spawned }

// Failed returns the number of spawns that could not be created.
func (s *SpawnSystem) Failed() int { return s.failed }
