package internal

import "sync/atomic"

// DoubleBuffered is per-thread paired storage: two slots
// plus a one-bit parity. Current() is writable only by the owning thread
// for the duration of a frame; Previous() may be read by any thread. The
// scheduler's frame-start Flip is the only writer of the parity bit, and it
// only runs while no work unit is executing (between the end-of-frame
// barrier/join and the next frame's dispatch), so no lock is needed on the
// parity itself beyond the atomic store/load that makes the flip visible
// across threads.
type DoubleBuffered[T any] struct {
	slots  [2]T
	parity atomic.Uint32
}

// NewDoubleBuffered constructs a resource with the two initial payloads.
func NewDoubleBuffered[T any](a, b T) *DoubleBuffered[T] {
	d := &DoubleBuffered[T]{}
	d.slots[0] = a
	d.slots[1] = b
	return d
}

// Current returns the mutable slot for this frame, written only by the
// owning thread.
func (d *DoubleBuffered[T]) Current() *T {
	return &d.slots[d.parity.Load()&1]
}

// Previous returns the read-only slot any thread may read this frame.
func (d *DoubleBuffered[T]) Previous() *T {
	return &d.slots[(d.parity.Load()+1)&1]
}

// Flip swaps current and previous. Invoked exactly once per frame, exactly
// by the scheduler, at frame start.
func (d *DoubleBuffered[T]) Flip() {
	d.parity.Store((d.parity.Load() + 1) & 1)
}

// Flippable is implemented by anything the scheduler must flip at frame
// start. DoubleBuffered[T] satisfies it for every T.
type Flippable interface {
	Flip()
}
