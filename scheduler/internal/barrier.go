package internal

import "sync"

// Barrier is an N-party reusable rendezvous. Reuse is handled
// with a generation counter rather than an explicit reset call: a thread
// that arrives for the next cycle before every party has left the previous
// one still waits on the generation it observed on arrival, so it cannot be
// released by a broadcast meant for the prior cycle. Grounded on
// other_examples/xkilldash9x-scalpel-racer's atomic-counter rendezvous,
// generalized from single-shot to reusable.
type Barrier struct {
	mu         sync.Mutex
	cond       *sync.Cond
	parties    int
	arrived    int
	generation uint64
}

// NewBarrier constructs a barrier for the given party count. n must be >= 1.
func NewBarrier(n int) *Barrier {
	if n < 1 {
		n = 1
	}
	b := &Barrier{parties: n}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Wait blocks until the Nth caller arrives; all N then proceed.
func (b *Barrier) Wait() {
	b.mu.Lock()
	gen := b.generation
	b.arrived++
	if b.arrived == b.parties {
		b.arrived = 0
		b.generation++
		b.cond.Broadcast()
		b.mu.Unlock()
		return
	}
	for gen == b.generation {
		b.cond.Wait()
	}
	b.mu.Unlock()
}

// Resize changes the party count for future Wait calls. Legal only when no
// thread is currently blocked in Wait (between frames).
func (b *Barrier) Resize(n int) {
	if n < 1 {
		n = 1
	}
	b.mu.Lock()
	b.parties = n
	b.arrived = 0
	b.mu.Unlock()
}
