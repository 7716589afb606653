package internal

import (
	"context"
	"sync/atomic"
	"testing"
)

// TestDoOneFrameRespectsDependencyOrder validates that a dependent unit
// never observes its predecessor as anything but complete.
func TestDoOneFrameRespectsDependencyOrder(t *testing.T) {
	s := newTestScheduler()

	var predecessorDone atomic.Bool
	var violated atomic.Bool

	pred, _ := s.AddWorkUnit("pred", KindNormal, func(ctx context.Context) error {
		predecessorDone.Store(true)
		return nil
	})
	dep, _ := s.AddWorkUnit("dep", KindNormal, func(ctx context.Context) error {
		if !predecessorDone.Load() {
			violated.Store(true)
		}
		return nil
	})
	if err := s.AddDependency(dep, pred); err != nil {
		t.Fatalf("AddDependency failed: %v", err)
	}
	if err := s.UpdateDependencyCache(); err != nil {
		t.Fatalf("UpdateDependencyCache failed: %v", err)
	}

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer s.Stop()

	for i := 0; i < 20; i++ {
		predecessorDone.Store(false)
		if err := s.DoOneFrame(); err != nil {
			t.Fatalf("DoOneFrame failed: %v", err)
		}
	}

	if violated.Load() {
		t.Fatal("dependent observed its predecessor as not-yet-complete")
	}
	t.Log("✅ dependent never ran before its predecessor completed, across 20 frames")
}

// TestDoOneFrameRunsEveryUnitExactlyOnce validates at-most-once (and
// at-least-once, for a reachable unit) execution per frame.
func TestDoOneFrameRunsEveryUnitExactlyOnce(t *testing.T) {
	s := newTestScheduler()

	var counts [5]atomic.Int32
	for i := range counts {
		idx := i
		s.AddWorkUnit("unit", KindNormal, func(ctx context.Context) error {
			counts[idx].Add(1)
			return nil
		})
	}
	if err := s.UpdateDependencyCache(); err != nil {
		t.Fatalf("UpdateDependencyCache failed: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer s.Stop()

	const frames = 10
	for i := 0; i < frames; i++ {
		if err := s.DoOneFrame(); err != nil {
			t.Fatalf("DoOneFrame failed: %v", err)
		}
	}

	for i := range counts {
		if got := counts[i].Load(); got != frames {
			t.Fatalf("unit %d ran %d times across %d frames, want exactly %d", i, got, frames, frames)
		}
	}
	t.Logf("✅ every one of %d units ran exactly once per frame across %d frames", len(counts), frames)
}

// TestDoOneFrameRunsMonopolySerially validates that monopoly units never
// overlap with each other or with the parallel phase.
func TestDoOneFrameRunsMonopolySerially(t *testing.T) {
	s := newTestScheduler()

	var active atomic.Int32
	var overlapped atomic.Bool
	mkMono := func() {
		s.AddWorkUnit("mono", KindMonopoly, func(ctx context.Context) error {
			if active.Add(1) > 1 {
				overlapped.Store(true)
			}
			defer active.Add(-1)
			return nil
		})
	}
	mkMono()
	mkMono()
	mkMono()

	if err := s.UpdateDependencyCache(); err != nil {
		t.Fatalf("UpdateDependencyCache failed: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer s.Stop()

	if err := s.DoOneFrame(); err != nil {
		t.Fatalf("DoOneFrame failed: %v", err)
	}
	if overlapped.Load() {
		t.Fatal("two monopoly units executed concurrently")
	}
	t.Log("✅ monopoly units ran strictly serially")
}

// TestDoOneFrameFailsClosedWhenNotStarted validates the lifecycle guard.
func TestDoOneFrameFailsClosedWhenNotStarted(t *testing.T) {
	s := newTestScheduler()
	if err := s.DoOneFrame(); err != ErrNotStarted {
		t.Fatalf("err = %v, want ErrNotStarted", err)
	}
}
