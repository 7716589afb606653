package scheduler_test

import (
	"context"
	"testing"
	"time"

	"github.com/Torpedoes/DAGFrameScheduler/scheduler"
)

// TestDoOneFramePacesToFrameLength validates that a frame whose work
// finishes well under budget still takes roughly the configured frame
// length end to end, via the end-of-frame pacing sleep.
func TestDoOneFramePacesToFrameLength(t *testing.T) {
	sched := scheduler.New(scheduler.Config{
		ThreadCount:   1,
		FrameLength:   20 * time.Millisecond,
		HistoryLength: 4,
		WorkerModel:   scheduler.WorkerModelPerFrame,
	})
	sched.AddWorkUnit("fast", scheduler.KindNormal, func(ctx context.Context) error { return nil })

	if err := sched.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer sched.Stop()

	start := time.Now()
	if err := sched.DoOneFrame(); err != nil {
		t.Fatalf("DoOneFrame failed: %v", err)
	}
	elapsed := time.Since(start)

	if elapsed < 15*time.Millisecond {
		t.Fatalf("frame returned in %v, expected to be paced to ~20ms", elapsed)
	}
	t.Logf("✅ frame paced to %v against a 20ms target", elapsed)
}

// TestDoOneFrameCarriesOverPacingError validates that a frame which
// overruns its budget is compensated for by a shorter pause on a
// following frame, via the carry term.
func TestDoOneFrameCarriesOverPacingError(t *testing.T) {
	sched := scheduler.New(scheduler.Config{
		ThreadCount:   1,
		FrameLength:   10 * time.Millisecond,
		HistoryLength: 4,
		WorkerModel:   scheduler.WorkerModelPerFrame,
	})

	overrun := true
	sched.AddWorkUnit("slow-once", scheduler.KindNormal, func(ctx context.Context) error {
		if overrun {
			overrun = false
			time.Sleep(25 * time.Millisecond)
		}
		return nil
	})

	if err := sched.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer sched.Stop()

	_ = sched.DoOneFrame() // overruns by ~15ms

	start := time.Now()
	if err := sched.DoOneFrame(); err != nil {
		t.Fatalf("second DoOneFrame failed: %v", err)
	}
	elapsed := time.Since(start)

	if elapsed > 5*time.Millisecond {
		t.Fatalf("second frame took %v, expected a short/no pause after the prior overrun", elapsed)
	}
	t.Logf("✅ frame following an overrun paused only %v, absorbing the carry", elapsed)
}

// TestScheduleUsesMainAffinityForRenderWork validates a realistic wiring:
// with persistent workers running, a main-affinity unit still runs in the
// frame, and only after its normal-kind predecessor.
func TestScheduleUsesMainAffinityForRenderWork(t *testing.T) {
	sched := scheduler.New(scheduler.Config{
		ThreadCount:   4,
		FrameLength:   0,
		HistoryLength: 4,
		WorkerModel:   scheduler.WorkerModelPersistent,
	})

	ran := make(chan string, 2)
	physics, _ := sched.AddWorkUnit("physics", scheduler.KindNormal, func(ctx context.Context) error {
		ran <- "physics"
		return nil
	})
	render, _ := sched.AddWorkUnit("render", scheduler.KindMainAffinity, func(ctx context.Context) error {
		ran <- "render"
		return nil
	})
	if err := sched.AddDependency(render, physics); err != nil {
		t.Fatalf("AddDependency failed: %v", err)
	}
	if err := sched.UpdateDependencyCache(); err != nil {
		t.Fatalf("UpdateDependencyCache failed: %v", err)
	}

	if err := sched.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer sched.Stop()

	if err := sched.DoOneFrame(); err != nil {
		t.Fatalf("DoOneFrame failed: %v", err)
	}
	close(ran)

	order := []string{}
	for name := range ran {
		order = append(order, name)
	}
	if len(order) != 2 || order[0] != "physics" || order[1] != "render" {
		t.Fatalf("execution order = %v, want [physics render]", order)
	}
	t.Log("✅ main-affinity render unit ran only after its physics dependency")
}
