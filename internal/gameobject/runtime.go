package gameobject

import (
	"go.uber.org/zap"

	"github.com/l1jgo/gameobject/internal/core/event"
)

// Runtime is the state shared by every collection of one process: the event
// bus that carries component events. It is built once at startup and closed
// after the last collection.
type Runtime struct {
	bus *event.Bus
	log *zap.Logger
}

func NewRuntime(log *zap.Logger) *Runtime {
	return &Runtime{
		bus: event.NewBus(),
		log: log,
	}
}

func (r *Runtime) Close() {
	r.bus.Close()
}
