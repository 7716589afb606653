package internal

import (
	"context"
	"runtime"
)

// DoOneFrame executes exactly one frame end-to-end, blocking until it
// returns.
func (s *FrameScheduler) DoOneFrame() error {
	if !s.started {
		return ErrNotStarted
	}

	s.inFlight.Store(true)
	defer s.inFlight.Store(false)

	frameStart := s.now()

	s.mu.Lock()
	if s.cache.Dirty() {
		// Correctness backstop: a client that never calls
		// UpdateDependencyCache/SortWorkUnits (and has no built-in sorter
		// unit) still gets a working dispatch order, at the cost of paying
		// the rebuild on the critical path this one frame.
		s.cache.Rebuild(s.units)
	}
	for _, u := range s.units {
		u.ResetForFrame()
	}
	for _, f := range s.buffers {
		f.Flip()
	}
	mainSeq := append([]Handle{}, s.cache.MainAffinitySequence()...)
	nonSeq := append([]Handle{}, s.cache.NonAffinitySequence()...)
	monopoly := s.monopolyOrder()
	threadCount := s.threadCount
	workerModel := s.workerModel
	s.mu.Unlock()

	s.frameMainSeq.Store(&mainSeq)
	s.frameNonSeq.Store(&nonSeq)

	// Monopoly phase: serial, registry order, assumed to saturate the
	// machine internally. A monopoly body may itself call
	// SortWorkUnits/UpdateDependencyCache (builtinunits.Sorter does exactly
	// this) - monopolyPhase exempts those specific calls from the
	// between-frames guard since nothing else touches the registry while
	// this loop runs.
	s.monopolyPhase.Store(true)
	for _, h := range monopoly {
		s.tryRun(h)
	}
	s.monopolyPhase.Store(false)

	// Re-read the dispatch sequences in case the monopoly phase just
	// re-sorted them, so a rebuild triggered from inside this frame is
	// visible to the parallel phase about to run, not just the next frame.
	s.mu.Lock()
	mainSeq = append([]Handle{}, s.cache.MainAffinitySequence()...)
	nonSeq = append([]Handle{}, s.cache.NonAffinitySequence()...)
	s.mu.Unlock()
	s.frameMainSeq.Store(&mainSeq)
	s.frameNonSeq.Store(&nonSeq)

	// Parallel phase.
	workerCount := threadCount - 1
	if workerCount < 0 {
		workerCount = 0
	}

	switch workerModel {
	case WorkerModelPersistent:
		s.startBarrier.Wait()
		s.mainLoop(s.ctx, mainSeq, nonSeq)
		s.endBarrier.Wait()
	default: // WorkerModelPerFrame
		for i := 0; i < workerCount; i++ {
			s.workerWG.Add(1)
			go func() {
				defer s.workerWG.Done()
				s.workerLoop(s.ctx, nonSeq)
			}()
		}
		s.mainLoop(s.ctx, mainSeq, nonSeq)
		s.workerWG.Wait()
	}

	elapsed := s.now().Sub(frameStart)
	s.applyPacing(elapsed)
	return nil
}

// monopolyOrder returns registered monopoly units in registration order.
// Must be called with mu held.
func (s *FrameScheduler) monopolyOrder() []Handle {
	var out []Handle
	for _, h := range s.order {
		if u := s.units[h]; u != nil && u.Kind == KindMonopoly {
			out = append(out, h)
		}
	}
	return out
}

// mainLoop is run by the main thread: it prefers ready main-affinity units
// (to prevent starvation of affinity work) and falls back to the
// non-affinity sequence, exiting once both are fully drained.
func (s *FrameScheduler) mainLoop(ctx context.Context, mainSeq, nonSeq []Handle) {
	for {
		if s.scanOnce(ctx, mainSeq, nonSeq) {
			continue
		}
		if s.allDone(mainSeq) && s.allDone(nonSeq) {
			return
		}
		runtime.Gosched()
	}
}

// workerLoop is run by every non-main worker thread: non-affinity units
// only.
func (s *FrameScheduler) workerLoop(ctx context.Context, nonSeq []Handle) {
	for {
		if s.scanOnce(ctx, nil, nonSeq) {
			continue
		}
		if s.allDone(nonSeq) {
			return
		}
		runtime.Gosched()
	}
}

// scanOnce performs one pass of the acquisition protocol, scanning
// preferred before fallback. It returns true the moment any unit
// was actually run, so the caller immediately re-scans from the top -
// newly-eligible dependents may now be ready.
func (s *FrameScheduler) scanOnce(ctx context.Context, preferred, fallback []Handle) bool {
	for _, h := range preferred {
		if s.tryRun(h) {
			return true
		}
	}
	for _, h := range fallback {
		if s.tryRun(h) {
			return true
		}
	}
	return false
}

// tryRun attempts the full acquisition protocol on a single candidate:
// skip if not Ready, skip if any predecessor isn't Complete, attempt the
// CAS, and on success run the body to completion. A unit with a Failed
// predecessor is moved to Failed without running its body, so the frame can
// still drain. Returns true iff this call is the one that actually executed
// the unit.
func (s *FrameScheduler) tryRun(h Handle) bool {
	u := s.units[h]
	if u == nil || u.State() != StateReady {
		return false
	}
	for _, dep := range u.Deps {
		depUnit := s.units[dep]
		if depUnit == nil {
			return false
		}
		switch depUnit.State() {
		case StateComplete:
		case StateFailed:
			u.state.CompareAndSwap(StateReady, StateFailed)
			return false
		default:
			return false
		}
	}
	if !u.TryAcquire() {
		return false
	}
	u.MarkRunning()

	start := s.now()
	err := u.Run(s.ctx)
	elapsed := s.now().Sub(start)
	u.Finish(err, elapsed)

	if err != nil {
		s.logger.Warn("work unit failed this frame",
			"handle", u.Handle, "name", u.Name, "error", err)
	}
	return true
}

// allDone reports whether every unit in seq has reached a terminal state
// for this frame.
func (s *FrameScheduler) allDone(seq []Handle) bool {
	for _, h := range seq {
		if u := s.units[h]; u == nil || !u.Done() {
			return false
		}
	}
	return true
}
