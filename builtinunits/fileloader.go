package builtinunits

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/Torpedoes/DAGFrameScheduler/scheduler"
)

// fileResult is one completed load, or the zero value if none has landed
// yet.
type fileResult struct {
	payload []byte
	err     error
	ok      bool
}

// FileLoader is an async-kind work unit that reads a file on a background
// goroutine and hands the result to readers through a double-buffered
// resource instead of a lock: Poll, called once per frame on whichever
// thread is running this unit, transfers a landed background read into
// the current slot; the scheduler's frame-start Flip (once FileLoader is
// registered via RegisterDoubleBuffer) rotates it into Previous for
// dependent readers to see one frame later, with no lock on the read
// side.
type FileLoader struct {
	buf *scheduler.DoubleBuffered[fileResult]

	pending atomic.Pointer[fileResult]

	mu      sync.Mutex
	loading bool
	done    chan struct{}
}

// NewFileLoader constructs an idle loader. Register its Flip with the
// owning scheduler via RegisterDoubleBuffer so completed loads rotate
// into Result() at frame boundaries.
func NewFileLoader() *FileLoader {
	return &FileLoader{buf: scheduler.NewDoubleBuffered(fileResult{}, fileResult{})}
}

// Start satisfies scheduler.AsyncPoller; FileLoader has no connection to
// open, so Start is a no-op.
func (f *FileLoader) Start() error { return nil }

// Load kicks off a background read of path if no load is already in
// flight. Safe to call from a work unit body; returns immediately.
func (f *FileLoader) Load(path string) {
	f.mu.Lock()
	if f.loading {
		f.mu.Unlock()
		return
	}
	f.loading = true
	done := make(chan struct{})
	f.done = done
	f.mu.Unlock()

	go func() {
		defer close(done)
		payload, err := os.ReadFile(path)
		if err != nil {
			err = fmt.Errorf("file loader read %s: %w", path, err)
		}
		f.pending.Store(&fileResult{payload: payload, err: err, ok: true})
		f.mu.Lock()
		f.loading = false
		f.mu.Unlock()
	}()
}

// Poll satisfies scheduler.AsyncPoller: it never blocks. If a background
// read landed since the last call, it transfers that result into the
// current double-buffered slot - the only write Current() ever sees,
// made by whichever thread the scheduler's acquisition protocol handed
// this unit to this frame.
func (f *FileLoader) Poll(ctx context.Context) error {
	if p := f.pending.Swap(nil); p != nil {
		*f.buf.Current() = *p
	}
	return nil
}

// Result returns the most recently completed load visible this frame, or
// ok=false if none has landed yet. Safe to call from any thread with no
// locking, the same guarantee scheduler.DoubleBuffered.Previous gives any
// reader.
func (f *FileLoader) Result() (payload []byte, err error, ok bool) {
	r := f.buf.Previous()
	return r.payload, r.err, r.ok
}

// Flip satisfies scheduler.Flippable. Register a FileLoader directly with
// RegisterDoubleBuffer; there is no separate buffer object to reach for.
func (f *FileLoader) Flip() { f.buf.Flip() }

// Stop satisfies scheduler.AsyncPoller, waiting for any in-flight read to
// finish so its goroutine does not outlive the scheduler.
func (f *FileLoader) Stop() error {
	f.mu.Lock()
	done := f.done
	f.mu.Unlock()
	if done != nil {
		<-done
	}
	return nil
}
