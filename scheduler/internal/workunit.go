package internal

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// State values. StateReady is the per-frame sentinel installed by
// ResetForFrame; it is distinct from StateComplete (the terminal,
// successfully-finished value) so that a thread rescanning a unit that
// already finished this frame can never win the acquisition CAS a second
// time - see DESIGN.md for why this keeps a separate StateReady rather
// than reusing StateComplete as its own CAS source.
const (
	StateReady    int32 = iota // frame-start sentinel, CAS source
	StateStarting              // claimed by exactly one thread, about to run
	StateRunning               // body executing
	StateComplete              // finished successfully this frame
	StateFailed                // body returned an error this frame
)

// WorkUnit is a node in the dependency graph: performance history,
// dependency list, and the acquire/execute/finish state machine.
type WorkUnit struct {
	Handle       Handle
	Name         string
	Kind         Kind
	Deps         []Handle // append-only between frames, immutable during a frame
	Async        AsyncPoller

	state atomic.Int32
	perf  atomic.Int64 // microsecond rolling average, snapshotted for WorkUnitKey
	hist  *RollingAverage
	body  Body
}

// AsyncPoller is implemented by work units that own a background thread
// across frames. Poll is invoked once per frame as the body of the
// async-kind work unit that carries the poller.
type AsyncPoller interface {
	Start() error
	Poll(ctx context.Context) error
	Stop() error
}

// NewWorkUnit constructs a node. history is the configured sample window.
func NewWorkUnit(handle Handle, name string, kind Kind, body Body, history int) *WorkUnit {
	w := &WorkUnit{
		Handle: handle,
		Name:   name,
		Kind:   kind,
		body:   body,
		hist:   NewRollingAverage(history),
	}
	w.state.Store(StateReady)
	return w
}

// State returns the current state with acquire-equivalent visibility -
// Go's sync/atomic loads on a variable already observe every prior store
// to that variable in program order across goroutines.
func (w *WorkUnit) State() int32 { return w.state.Load() }

// PerfSample returns the current rolling-average runtime in microseconds.
func (w *WorkUnit) PerfSample() int64 { return w.perf.Load() }

// ResetForFrame installs the frame-start sentinel. Called by the scheduler,
// and only by the scheduler, once per frame before the parallel phase.
func (w *WorkUnit) ResetForFrame() { w.state.Store(StateReady) }

// TryAcquire attempts the StateReady -> StateStarting transition. Exactly
// one caller among any number of concurrent callers observes true.
func (w *WorkUnit) TryAcquire() bool {
	return w.state.CompareAndSwap(StateReady, StateStarting)
}

// MarkRunning is called by the CAS winner immediately before invoking the
// body.
func (w *WorkUnit) MarkRunning() { w.state.Store(StateRunning) }

// Run executes the body (already transitioned to Running by the caller via
// MarkRunning); the caller folds the elapsed runtime into the performance
// sample through Finish. It never panics out of a failing body: a recovered panic is treated the
// same as a returned error, so one misbehaving work unit cannot take down
// the frame.
func (w *WorkUnit) Run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Recovered: r}
		}
	}()
	if w.Async != nil {
		return w.Async.Poll(ctx)
	}
	return w.body(ctx)
}

// Finish publishes the terminal state for this frame. On success the
// elapsed runtime is folded into the rolling average and the store is a
// release: any thread that subsequently observes StateComplete also
// observes every write the body performed, because the store and every
// later load of the same atomic word form a single modification order.
func (w *WorkUnit) Finish(runErr error, elapsed time.Duration) {
	if runErr != nil {
		w.state.Store(StateFailed)
		return
	}
	avg := w.hist.Add(elapsed.Microseconds())
	w.perf.Store(avg)
	w.state.Store(StateComplete)
}

// Done reports whether the unit has reached a terminal state for this
// frame (Complete or Failed).
func (w *WorkUnit) Done() bool {
	s := w.state.Load()
	return s == StateComplete || s == StateFailed
}

// PanicError wraps a recovered panic value from a work unit body.
type PanicError struct {
	Recovered any
}

func (p *PanicError) Error() string {
	return fmt.Sprintf("dagscheduler: work unit body panicked: %v", p.Recovered)
}
