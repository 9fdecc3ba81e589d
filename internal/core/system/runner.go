package system

import (
	"fmt"
	"time"
)

// Runner keeps one bucket of systems per phase. A tick walks the buckets in
// phase order; within a bucket systems run in registration order.
type Runner struct {
	phases [phaseCount][]System
}

func NewRunner() *Runner { return &Runner{} }

// Register panics on a phase outside the declared range; that is a wiring bug.
func (r *Runner) Register(s System) {
	p := s.Phase()
	if p < 0 || p >= phaseCount {
		panic(fmt.Sprintf("system %T: invalid phase %d", s, p))
	}
	r.phases[p] = append(r.phases[p], s)
}

func (r *Runner) Tick(dt time.Duration) {
	for p := range r.phases {
		r.run(Phase(p), dt)
	}
}

// TickPhase runs only the systems of one phase.
func (r *Runner) TickPhase(phase Phase, dt time.Duration) {
	if phase >= 0 && phase < phaseCount {
		r.run(phase, dt)
	}
}

func (r *Runner) run(phase Phase, dt time.Duration) {
	for _, s := range r.phases[phase] {
		s.Update(dt)
	}
}

// Len returns the number of systems registered for phase.
func (r *Runner) Len(phase Phase) int {
	if phase < 0 || phase >= phaseCount {
		return 0
	}
	return len(r.phases[phase])
}
