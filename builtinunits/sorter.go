package builtinunits

import (
	"context"

	"github.com/Torpedoes/DAGFrameScheduler/scheduler"
)

// Sorter is a monopoly-kind work unit body that amortizes the dependency
// cache rebuild off the critical path of graph edits: instead of every
// AddDependency call paying for a full rebuild, the client registers one
// Sorter per scheduler and lets it re-sort every Interval frames, cheaply
// re-reading performance samples every frame in between.
type Sorter struct {
	sched    scheduler.Scheduler
	Interval int

	frame int
}

// NewSorter constructs a Sorter bound to sched. Interval is the number of
// frames between full dependent-count rebuilds; 1 rebuilds every frame.
func NewSorter(sched scheduler.Scheduler, interval int) *Sorter {
	if interval < 1 {
		interval = 1
	}
	return &Sorter{sched: sched, Interval: interval}
}

// Body returns the function to register as this Sorter's work unit body,
// typically as scheduler.KindMonopoly so it runs serially before the
// parallel phase and its result is visible to every unit dispatched after it.
func (s *Sorter) Body() func(ctx context.Context) error {
	return func(ctx context.Context) error {
		s.frame++
		rebuild := s.frame%s.Interval == 0
		return s.sched.SortWorkUnits(rebuild)
	}
}
