package internal

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// FrameScheduler holds the work-unit registry, worker-thread lifecycle,
// dependency cache, and pacing state.
type FrameScheduler struct {
	mu     sync.Mutex // guards units/order/buffers; held for the registry's lifetime between frames
	units  map[Handle]*WorkUnit
	order  []Handle
	cache  *DependencyCache
	buffers []Flippable

	threadCount            int
	frameLength            time.Duration
	historyLength          int
	workerModel            WorkerModel
	cacheFlushOptimization bool

	logger *slog.Logger

	inFlight      atomic.Bool
	monopolyPhase atomic.Bool // true only during DoOneFrame's serial monopoly loop
	carry         time.Duration
	pauseUs       atomic.Int64

	started  bool
	stopping atomic.Bool
	ctx      context.Context
	cancel   context.CancelFunc

	startBarrier *Barrier
	endBarrier   *Barrier
	workerWG     sync.WaitGroup

	frameMainSeq atomic.Pointer[[]Handle]
	frameNonSeq  atomic.Pointer[[]Handle]

	now   func() time.Time
	sleep func(time.Duration) time.Duration
}

// Options carries the configuration a client passes through the public
// scheduler.Config type, kept free of the public package's import to avoid
// a cycle - scheduler.New (scheduler/scheduler.go) converts between the two.
type Options struct {
	ThreadCount            int
	FrameLength            time.Duration
	HistoryLength          int
	WorkerModel            WorkerModel
	CacheFlushOptimization bool
	Logger                 *slog.Logger
}

// NewScheduler constructs a FrameScheduler from validated Options.
func NewScheduler(opts Options) *FrameScheduler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &FrameScheduler{
		units:                  make(map[Handle]*WorkUnit),
		cache:                  NewDependencyCache(),
		threadCount:            opts.ThreadCount,
		frameLength:            opts.FrameLength,
		historyLength:          opts.HistoryLength,
		workerModel:            opts.WorkerModel,
		cacheFlushOptimization: opts.CacheFlushOptimization,
		logger:                 logger,
		now:                    time.Now,
		sleep:                  realSleep,
	}
	empty := []Handle{}
	s.frameMainSeq.Store(&empty)
	s.frameNonSeq.Store(&empty)
	return s
}

func realSleep(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	time.Sleep(d)
	return d
}

// PauseRemainingMicroseconds is observable only during the end-of-frame
// pause; 0 at every other time.
func (s *FrameScheduler) PauseRemainingMicroseconds() int64 { return s.pauseUs.Load() }

// SetThreadCount updates the configured worker count. For the persistent
// worker model this takes effect on the next Start(); for the per-frame
// model it takes effect on the next DoOneFrame.
func (s *FrameScheduler) SetThreadCount(n int) error {
	if n < 1 {
		return ErrInvalidThreadCount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threadCount = n
	return nil
}

// SetFrameLength updates the target frame duration.
func (s *FrameScheduler) SetFrameLength(microseconds int64) error {
	if microseconds <= 0 {
		return ErrInvalidFrameLength
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frameLength = time.Duration(microseconds) * time.Microsecond
	return nil
}

// SetHistoryLength updates the rolling-average window. Every existing unit's
// window is resized immediately, discarding its sample history and resetting
// its performance sample to 0; new units use the new length.
func (s *FrameScheduler) SetHistoryLength(n int) error {
	if n <= 0 {
		return ErrInvalidHistoryLength
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.historyLength = n
	for _, u := range s.units {
		u.hist.Resize(n)
		u.perf.Store(u.hist.Value())
	}
	return nil
}

// InFlight reports whether a frame is currently executing.
func (s *FrameScheduler) InFlight() bool { return s.inFlight.Load() }
