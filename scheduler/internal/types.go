// Package internal implements the DAG-based per-frame work scheduler.
//
// This package is INTERNAL - clients MUST use the public API in the parent
// scheduler package. Reason: allows internal refactoring without breaking
// changes.
package internal

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Handle identifies a work unit. Identity and equality are by Handle.
type Handle = uuid.UUID

// NilHandle is the zero value, never assigned to a registered work unit.
var NilHandle Handle

// NewHandle mints a fresh, globally unique work-unit handle.
func NewHandle() Handle { return uuid.New() }

// Body is the user-supplied function a work unit executes. A non-nil
// return value transitions the unit to Failed for this frame only.
type Body func(ctx context.Context) error

// Kind partitions the registry by how a unit is scheduled relative to
// the rest of the graph.
type Kind int

const (
	KindNormal Kind = iota
	KindMainAffinity
	KindMonopoly
	KindAsync
)

func (k Kind) String() string {
	switch k {
	case KindNormal:
		return "normal"
	case KindMainAffinity:
		return "main_affinity"
	case KindMonopoly:
		return "monopoly"
	case KindAsync:
		return "async"
	default:
		return "unknown"
	}
}

// WorkerModel selects how the parallel phase obtains its worker threads.
type WorkerModel int

const (
	WorkerModelPersistent WorkerModel = iota
	WorkerModelPerFrame
)

// Sentinel errors. Graph-structure and lifecycle errors are surfaced to the
// caller at the offending call, never recovered internally.
var (
	ErrUnknownHandle     = errors.New("dagscheduler: unknown work unit handle")
	ErrDuplicateEdge     = errors.New("dagscheduler: dependency already present")
	ErrDanglingPredecessor = errors.New("dagscheduler: predecessor not registered")
	ErrFrameInFlight     = errors.New("dagscheduler: graph may not be modified while a frame is in flight")
	ErrAlreadyStarted    = errors.New("dagscheduler: scheduler already started")
	ErrNotStarted        = errors.New("dagscheduler: scheduler not started")
	ErrInvalidThreadCount = errors.New("dagscheduler: thread count must be >= 1")
	ErrInvalidFrameLength = errors.New("dagscheduler: frame length must be positive")
	ErrInvalidHistoryLength = errors.New("dagscheduler: history length must be positive")
	ErrSelfDependency    = errors.New("dagscheduler: a work unit cannot depend on itself")
	ErrCycle             = errors.New("dagscheduler: dependency would introduce a cycle")
)
