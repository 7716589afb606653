package scheduler

import "github.com/Torpedoes/DAGFrameScheduler/scheduler/internal"

// Public API - re-export internal types as the stable contract, keeping
// the concrete implementation free to change underneath client code.

// Handle identifies a registered work unit. Identity and equality are by
// Handle, never by name.
type Handle = internal.Handle

// NilHandle is the zero Handle, never assigned to a registered work unit.
var NilHandle = internal.NilHandle

// Body is the function a work unit executes once per frame it is run.
type Body = internal.Body

// Kind selects how a work unit is scheduled relative to other units.
type Kind = internal.Kind

const (
	KindNormal       = internal.KindNormal
	KindMainAffinity = internal.KindMainAffinity
	KindMonopoly     = internal.KindMonopoly
	KindAsync        = internal.KindAsync
)

// WorkerModel selects how the parallel phase obtains its worker threads.
type WorkerModel = internal.WorkerModel

const (
	WorkerModelPersistent = internal.WorkerModelPersistent
	WorkerModelPerFrame   = internal.WorkerModelPerFrame
)

// AsyncPoller is implemented by work units that own a background thread
// across frames. Poll is invoked once per frame from the wrapping unit.
type AsyncPoller = internal.AsyncPoller

// DoubleBuffered is a generic double-buffered resource: two slots plus a
// one-bit parity, flipped by the scheduler at the start of every frame.
type DoubleBuffered[T any] = internal.DoubleBuffered[T]

// NewDoubleBuffered constructs a DoubleBuffered resource from its two
// initial payloads.
func NewDoubleBuffered[T any](a, b T) *DoubleBuffered[T] {
	return internal.NewDoubleBuffered(a, b)
}

// Flippable is implemented by anything the scheduler flips at frame start.
type Flippable = internal.Flippable

// Public API errors - re-exported as the stable contract.
var (
	ErrUnknownHandle        = internal.ErrUnknownHandle
	ErrDuplicateEdge        = internal.ErrDuplicateEdge
	ErrDanglingPredecessor  = internal.ErrDanglingPredecessor
	ErrFrameInFlight        = internal.ErrFrameInFlight
	ErrAlreadyStarted       = internal.ErrAlreadyStarted
	ErrNotStarted           = internal.ErrNotStarted
	ErrInvalidThreadCount   = internal.ErrInvalidThreadCount
	ErrInvalidFrameLength   = internal.ErrInvalidFrameLength
	ErrInvalidHistoryLength = internal.ErrInvalidHistoryLength
	ErrSelfDependency       = internal.ErrSelfDependency
	ErrCycle                = internal.ErrCycle
)
