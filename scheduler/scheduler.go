package scheduler

import (
	"log/slog"
	"time"

	"github.com/Torpedoes/DAGFrameScheduler/scheduler/internal"
)

// Config configures a new Scheduler. New clamps a zero ThreadCount and
// HistoryLength to 1, so the zero value gives a serial scheduler with
// pacing disabled; DefaultConfig is a paced starting point.
type Config struct {
	// ThreadCount is the total number of threads that participate in a
	// frame, including the calling thread. Must be >= 1.
	ThreadCount int

	// FrameLength is the target wall-clock duration of one frame. A
	// DoOneFrame call that finishes early sleeps off the remainder; a
	// Config with FrameLength <= 0 disables pacing entirely (DoOneFrame
	// returns as soon as the graph drains).
	FrameLength time.Duration

	// HistoryLength is the rolling-average sample window used to derive
	// each work unit's performance sample. Must be >= 1.
	HistoryLength int

	// WorkerModel selects whether worker threads are long-lived
	// goroutines parked on a reusable barrier (WorkerModelPersistent,
	// the default) or spawned fresh every frame (WorkerModelPerFrame).
	WorkerModel WorkerModel

	// CacheFlushOptimization is stored on the scheduler as a hint. No
	// code in this module reads it: the built-in Sorter's rebuild cadence
	// is set only by its own Interval.
	CacheFlushOptimization bool

	// Logger receives warnings about failed work units and lifecycle
	// events. Defaults to slog.Default() when nil.
	Logger *slog.Logger
}

// DefaultConfig returns a Config suitable for a single-core, 60Hz caller.
func DefaultConfig() Config {
	return Config{
		ThreadCount:   1,
		FrameLength:   16666 * time.Microsecond,
		HistoryLength: 30,
		WorkerModel:   WorkerModelPersistent,
	}
}

// Scheduler is the external interface a client program depends on. The
// concrete type returned by New is not exported; clients interact with it
// exclusively through this interface, keeping the implementation free to
// evolve without breaking callers.
type Scheduler interface {
	// AddWorkUnit registers a new node and returns its handle. Legal only
	// between frames.
	AddWorkUnit(name string, kind Kind, body Body) (Handle, error)

	// AddAsyncWorkUnit registers an async-kind node whose per-frame poll
	// is driven by poller.Poll. Start is called by Scheduler.Start and
	// Stop by Scheduler.Stop.
	AddAsyncWorkUnit(name string, poller AsyncPoller) (Handle, error)

	// AddDependency declares that dependent cannot start until
	// predecessor has completed. Rejects self-edges, duplicate edges,
	// dangling handles, and edges that would close a cycle.
	AddDependency(dependent, predecessor Handle) error

	// RemoveWorkUnit deletes a node and scrubs it from every remaining
	// node's dependency list.
	RemoveWorkUnit(h Handle) error

	// UpdateDependencyCache recomputes dependent counts and dispatch
	// order from the current graph. Legal between frames and from a
	// monopoly unit's body during the monopoly phase.
	UpdateDependencyCache() error

	// SortWorkUnits re-derives dispatch order from the current
	// performance samples. When rebuildCache is true it also recomputes
	// dependent counts first.
	SortWorkUnits(rebuildCache bool) error

	// RegisterDoubleBuffer adds f to the set flipped at the start of
	// every frame.
	RegisterDoubleBuffer(f Flippable) error

	// Start spins up persistent workers (if configured) and every
	// registered AsyncPoller. Must be called before the first DoOneFrame.
	Start() error

	// Stop signals every worker to exit at the next frame boundary, joins
	// them, and stops every registered AsyncPoller.
	Stop() error

	// DoOneFrame executes exactly one frame end-to-end, blocking until
	// every reachable unit has run and, if FrameLength > 0, until the
	// frame's pacing sleep has elapsed.
	DoOneFrame() error

	// SetThreadCount updates the configured worker count.
	SetThreadCount(n int) error

	// SetFrameLength updates the target frame duration, in microseconds.
	SetFrameLength(microseconds int64) error

	// SetHistoryLength updates the rolling-average window used for
	// future performance samples.
	SetHistoryLength(n int) error

	// PauseRemainingMicroseconds returns the time remaining in the
	// current end-of-frame pacing sleep, or 0 outside of one.
	PauseRemainingMicroseconds() int64

	// InFlight reports whether a frame is currently executing.
	InFlight() bool
}

// New constructs a Scheduler from cfg. ThreadCount and HistoryLength are
// clamped to 1 if given as less, so a caller that forgets to set them
// still gets a usable, if serial, scheduler.
func New(cfg Config) Scheduler {
	if cfg.ThreadCount < 1 {
		cfg.ThreadCount = 1
	}
	if cfg.HistoryLength < 1 {
		cfg.HistoryLength = 1
	}
	return internal.NewScheduler(internal.Options{
		ThreadCount:            cfg.ThreadCount,
		FrameLength:            cfg.FrameLength,
		HistoryLength:          cfg.HistoryLength,
		WorkerModel:            cfg.WorkerModel,
		CacheFlushOptimization: cfg.CacheFlushOptimization,
		Logger:                 cfg.Logger,
	})
}
