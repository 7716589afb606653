package internal

import (
	"context"
)

// Start spins up the persistent worker pool (a no-op under the per-frame
// model, where workers are spawned fresh inside DoOneFrame) and starts every
// registered AsyncPoller. Legal only once; call Stop before a second Start.
func (s *FrameScheduler) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	s.stopping.Store(false)
	s.ctx, s.cancel = context.WithCancel(context.Background())

	pollers := make([]AsyncPoller, 0, len(s.units))
	for _, u := range s.units {
		if u.Async != nil {
			pollers = append(pollers, u.Async)
		}
	}

	workerCount := s.threadCount - 1
	if workerCount < 0 {
		workerCount = 0
	}
	workerModel := s.workerModel
	if workerModel == WorkerModelPersistent {
		// threadCount parties: the main thread plus every persistent worker,
		// matching the set of callers that will Wait on each frame boundary.
		s.startBarrier = NewBarrier(workerCount + 1)
		s.endBarrier = NewBarrier(workerCount + 1)
		for i := 0; i < workerCount; i++ {
			s.workerWG.Add(1)
			go func() {
				defer s.workerWG.Done()
				s.persistentWorkerLoop(s.ctx)
			}()
		}
	}
	s.mu.Unlock()

	for _, p := range pollers {
		if err := p.Start(); err != nil {
			return err
		}
	}
	return nil
}

// Stop signals every persistent worker to exit after the current frame
// boundary, joins them, and stops every registered AsyncPoller. Safe to call
// even if DoOneFrame is never invoked again afterward.
func (s *FrameScheduler) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return ErrNotStarted
	}
	s.started = false
	s.stopping.Store(true)
	workerModel := s.workerModel
	s.cancel()

	pollers := make([]AsyncPoller, 0, len(s.units))
	for _, u := range s.units {
		if u.Async != nil {
			pollers = append(pollers, u.Async)
		}
	}
	s.mu.Unlock()

	if workerModel == WorkerModelPersistent {
		// Release any worker parked in persistentWorkerLoop's startBarrier.Wait
		// so it can observe stopping and exit instead of waiting for a frame
		// that will never come.
		s.startBarrier.Wait()
	}
	s.workerWG.Wait()

	var firstErr error
	for _, p := range pollers {
		if err := p.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// persistentWorkerLoop is the body of every long-lived worker goroutine
// under the persistent worker model: it rendezvouses at the
// start-of-parallel-phase barrier, drains the non-affinity sequence alongside
// every other worker, then rendezvouses again at the end-of-parallel-phase
// barrier before the next frame can begin.
func (s *FrameScheduler) persistentWorkerLoop(ctx context.Context) {
	for {
		s.startBarrier.Wait()
		if s.stopping.Load() {
			return
		}
		nonSeq := *s.frameNonSeq.Load()
		s.workerLoop(ctx, nonSeq)
		s.endBarrier.Wait()
	}
}
