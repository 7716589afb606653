package internal

import (
	"context"
	"testing"
	"time"
)

func newTestScheduler() *FrameScheduler {
	return NewScheduler(Options{
		ThreadCount:   2,
		FrameLength:   0, // pacing disabled for deterministic, fast tests
		HistoryLength: 4,
		WorkerModel:   WorkerModelPerFrame,
	})
}

func TestAddDependencyRejectsSelfEdge(t *testing.T) {
	s := newTestScheduler()
	h, _ := s.AddWorkUnit("a", KindNormal, func(ctx context.Context) error { return nil })
	if err := s.AddDependency(h, h); err != ErrSelfDependency {
		t.Fatalf("err = %v, want ErrSelfDependency", err)
	}
}

func TestAddDependencyRejectsDanglingPredecessor(t *testing.T) {
	s := newTestScheduler()
	h, _ := s.AddWorkUnit("a", KindNormal, func(ctx context.Context) error { return nil })
	if err := s.AddDependency(h, NewHandle()); err != ErrDanglingPredecessor {
		t.Fatalf("err = %v, want ErrDanglingPredecessor", err)
	}
}

func TestAddDependencyRejectsDuplicateEdge(t *testing.T) {
	s := newTestScheduler()
	a, _ := s.AddWorkUnit("a", KindNormal, func(ctx context.Context) error { return nil })
	b, _ := s.AddWorkUnit("b", KindNormal, func(ctx context.Context) error { return nil })
	if err := s.AddDependency(a, b); err != nil {
		t.Fatalf("first AddDependency failed: %v", err)
	}
	if err := s.AddDependency(a, b); err != ErrDuplicateEdge {
		t.Fatalf("err = %v, want ErrDuplicateEdge", err)
	}
}

func TestAddDependencyRejectsCycle(t *testing.T) {
	s := newTestScheduler()
	a, _ := s.AddWorkUnit("a", KindNormal, func(ctx context.Context) error { return nil })
	b, _ := s.AddWorkUnit("b", KindNormal, func(ctx context.Context) error { return nil })
	c, _ := s.AddWorkUnit("c", KindNormal, func(ctx context.Context) error { return nil })

	if err := s.AddDependency(b, a); err != nil { // b depends on a
		t.Fatalf("b->a failed: %v", err)
	}
	if err := s.AddDependency(c, b); err != nil { // c depends on b
		t.Fatalf("c->b failed: %v", err)
	}
	if err := s.AddDependency(a, c); err != ErrCycle { // a depends on c would close the loop
		t.Fatalf("err = %v, want ErrCycle", err)
	}
	t.Log("✅ a->c->b->a cycle rejected at the closing edge")
}

func TestRegistryMutationRejectedWhileInFlight(t *testing.T) {
	s := newTestScheduler()
	s.inFlight.Store(true)
	defer s.inFlight.Store(false)

	if _, err := s.AddWorkUnit("a", KindNormal, func(ctx context.Context) error { return nil }); err != ErrFrameInFlight {
		t.Fatalf("AddWorkUnit err = %v, want ErrFrameInFlight", err)
	}
	if err := s.UpdateDependencyCache(); err != ErrFrameInFlight {
		t.Fatalf("UpdateDependencyCache err = %v, want ErrFrameInFlight", err)
	}
}

func TestMonopolyPhaseExemptsSortAndRebuildFromInFlightGuard(t *testing.T) {
	s := newTestScheduler()
	s.AddWorkUnit("a", KindNormal, func(ctx context.Context) error { return nil })

	s.inFlight.Store(true)
	defer s.inFlight.Store(false)
	s.monopolyPhase.Store(true)
	defer s.monopolyPhase.Store(false)

	if err := s.UpdateDependencyCache(); err != nil {
		t.Fatalf("UpdateDependencyCache err = %v, want nil during monopoly phase", err)
	}
	if err := s.SortWorkUnits(true); err != nil {
		t.Fatalf("SortWorkUnits err = %v, want nil during monopoly phase", err)
	}

	// AddWorkUnit is not part of the exemption: it mutates the registry in
	// ways unsafe to interleave with the frame's own dispatch, unlike a
	// cache rebuild the monopoly phase runs serially before anything reads
	// the snapshot.
	if _, err := s.AddWorkUnit("b", KindNormal, func(ctx context.Context) error { return nil }); err != ErrFrameInFlight {
		t.Fatalf("AddWorkUnit err = %v, want ErrFrameInFlight even during monopoly phase", err)
	}
	t.Log("✅ SortWorkUnits/UpdateDependencyCache succeed from the monopoly phase while other mutations stay blocked")
}

func TestRemoveWorkUnitScrubsDependents(t *testing.T) {
	s := newTestScheduler()
	a, _ := s.AddWorkUnit("a", KindNormal, func(ctx context.Context) error { return nil })
	b, _ := s.AddWorkUnit("b", KindNormal, func(ctx context.Context) error { return nil })
	_ = s.AddDependency(b, a)

	if err := s.RemoveWorkUnit(a); err != nil {
		t.Fatalf("RemoveWorkUnit failed: %v", err)
	}

	bu := s.units[b]
	for _, dep := range bu.Deps {
		if dep == a {
			t.Fatal("removed handle still present in b's dependency list")
		}
	}
	t.Log("✅ removing a unit scrubs it from every remaining dependency list")
}

func TestSetHistoryLengthResizesExistingUnits(t *testing.T) {
	s := newTestScheduler()
	h, _ := s.AddWorkUnit("a", KindNormal, func(ctx context.Context) error { return nil })
	u := s.units[h]
	u.Finish(nil, time.Microsecond)

	if err := s.SetHistoryLength(8); err != nil {
		t.Fatalf("SetHistoryLength failed: %v", err)
	}
	if got := u.PerfSample(); got != 0 {
		t.Fatalf("PerfSample after resize = %d, want 0 (history discarded)", got)
	}
}
