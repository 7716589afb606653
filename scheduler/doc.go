// Package scheduler implements a deterministic, dependency-ordered work
// scheduler for soft-real-time applications that run a fixed pipeline of
// work every frame - games, robotics control loops, and similar systems.
//
// # Overview
//
// Clients register work units and declare dependencies between them once,
// outside the hot path, then call DoOneFrame repeatedly - once per
// simulation/render tick. Each call runs every ready unit exactly once,
// respecting the dependency graph, then paces the frame to a configured
// target duration:
//
//	sched := scheduler.New(scheduler.Config{
//	        ThreadCount: 4,
//	        FrameLength: 16 * time.Millisecond,
//	})
//	physics, _ := sched.AddWorkUnit("physics", scheduler.KindNormal, stepPhysics)
//	render, _ := sched.AddWorkUnit("render", scheduler.KindMainAffinity, drawFrame)
//	sched.AddDependency(render, physics)
//	sched.UpdateDependencyCache()
//
//	if err := sched.Start(); err != nil { ... }
//	defer sched.Stop()
//	for running {
//	        sched.DoOneFrame()
//	}
//
// # Core Philosophy
//
//	"Every unit runs exactly once per frame, in an order the graph allows,
//	 within a budget the caller sets."
//
// # Work Unit Kinds
//
// KindNormal units are scanned by every worker thread. KindMainAffinity
// units are only ever run by the thread that calls DoOneFrame, for work
// that must happen on that thread (a render-API context, a UI toolkit).
// KindMonopoly units run serially, before the parallel phase, for work
// assumed to already saturate every core on its own. KindAsync units wrap
// a background goroutine that outlives any single frame; DoOneFrame only
// polls whether the latest result has landed.
//
// # Thread Safety
//
// Registry mutation (AddWorkUnit, AddDependency, RemoveWorkUnit,
// UpdateDependencyCache, SortWorkUnits, RegisterDoubleBuffer) is legal only
// between frames and returns ErrFrameInFlight if called while DoOneFrame is
// executing, with one exception: UpdateDependencyCache and SortWorkUnits
// are accepted from a monopoly unit's body during the monopoly phase.
// DoOneFrame itself must never be called concurrently with
// another DoOneFrame on the same Scheduler.
//
// # Design Decisions
//
// See DESIGN.md for the grounding ledger behind the dependency-cache sort
// key, the reusable barrier, and the worker-model tradeoffs.
package scheduler
