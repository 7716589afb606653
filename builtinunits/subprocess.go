// Package builtinunits provides ready-made work units for common
// frame-scheduler needs: AsyncPollers for bridging a long-lived subprocess,
// publishing telemetry, and loading a file, plus plain work unit bodies for
// draining a log queue and re-sorting the dependency cache.
package builtinunits

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// SubprocessWorkUnit bridges a long-lived external process over its
// stdin/stdout, framing every request and response with a 4-byte
// big-endian length prefix followed by a MessagePack payload. Register it
// with scheduler.AddAsyncWorkUnit; the scheduler calls Poll once per frame
// to surface a length-prefix read error if the background reader hit one
// (payload read and decode errors are only logged), never blocking the
// caller on the subprocess's own pace. Decoded responses
// themselves flow through Results, not Poll.
type SubprocessWorkUnit struct {
	name string
	args []string

	requestTimeout time.Duration
	logger         *slog.Logger

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser

	mu      sync.Mutex
	results chan map[string]any
	errs    chan error

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSubprocessWorkUnit constructs a bridge to the given command. The
// command is not started until Start is called by the scheduler.
func NewSubprocessWorkUnit(name string, args []string, logger *slog.Logger) *SubprocessWorkUnit {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubprocessWorkUnit{
		name:           name,
		args:           args,
		requestTimeout: 2 * time.Second,
		logger:         logger,
		results:        make(chan map[string]any, 10),
		errs:           make(chan error, 1),
	}
}

// Start launches the subprocess and its stdout-draining goroutine,
// satisfying scheduler.AsyncPoller.
func (w *SubprocessWorkUnit) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.ctx, w.cancel = context.WithCancel(context.Background())
	w.cmd = exec.CommandContext(w.ctx, w.name, w.args...)

	stdin, err := w.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("subprocess stdin pipe: %w", err)
	}
	stdout, err := w.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("subprocess stdout pipe: %w", err)
	}
	w.stdin = stdin
	w.stdout = stdout

	if err := w.cmd.Start(); err != nil {
		return fmt.Errorf("subprocess start: %w", err)
	}

	w.wg.Add(1)
	go w.readResults()
	return nil
}

// Send writes one length-prefixed MessagePack request to the subprocess's
// stdin. Safe to call from any goroutine, including from within a normal
// work unit's body that wraps this poller.
func (w *SubprocessWorkUnit) Send(request map[string]any) error {
	payload, err := msgpack.Marshal(request)
	if err != nil {
		return fmt.Errorf("marshal subprocess request: %w", err)
	}

	lengthPrefix := make([]byte, 4)
	binary.BigEndian.PutUint32(lengthPrefix, uint32(len(payload)))

	writeErr := make(chan error, 1)
	go func() {
		if _, err := w.stdin.Write(lengthPrefix); err != nil {
			writeErr <- fmt.Errorf("write subprocess length prefix: %w", err)
			return
		}
		if _, err := w.stdin.Write(payload); err != nil {
			writeErr <- fmt.Errorf("write subprocess payload: %w", err)
			return
		}
		writeErr <- nil
	}()

	select {
	case err := <-writeErr:
		return err
	case <-time.After(w.requestTimeout):
		return fmt.Errorf("subprocess write timeout (%s may be hung)", w.name)
	case <-w.ctx.Done():
		return fmt.Errorf("subprocess context cancelled during write")
	}
}

// Poll surfaces at most one queued error, never blocking. It never touches
// results: that channel belongs to Results, and a client body drains it
// directly so Poll can't race it for the same decoded response.
func (w *SubprocessWorkUnit) Poll(ctx context.Context) error {
	select {
	case err := <-w.errs:
		return err
	default:
		return nil
	}
}

// Results returns the channel of decoded subprocess responses. A client
// body drains it directly - a receive here is the only consumer, so it
// never races Poll for the same message.
func (w *SubprocessWorkUnit) Results() <-chan map[string]any { return w.results }

func (w *SubprocessWorkUnit) readResults() {
	defer w.wg.Done()
	lengthBuf := make([]byte, 4)

	for {
		if _, err := io.ReadFull(w.stdout, lengthBuf); err != nil {
			if err != io.EOF {
				w.logger.Error("subprocess length-prefix read failed", "name", w.name, "error", err)
				select {
				case w.errs <- fmt.Errorf("subprocess %s: %w", w.name, err):
				default:
				}
			}
			return
		}

		msgLength := binary.BigEndian.Uint32(lengthBuf)
		payload := make([]byte, msgLength)
		if _, err := io.ReadFull(w.stdout, payload); err != nil {
			w.logger.Error("subprocess payload read failed", "name", w.name, "error", err)
			return
		}

		var result map[string]any
		if err := msgpack.Unmarshal(payload, &result); err != nil {
			w.logger.Error("subprocess payload decode failed", "name", w.name, "error", err)
			continue
		}

		select {
		case w.results <- result:
		default:
			w.logger.Warn("subprocess result dropped, results channel full", "name", w.name)
		}
	}
}

// Stop cancels the subprocess context, closes stdin to request a graceful
// exit, and joins the draining goroutine, satisfying scheduler.AsyncPoller.
func (w *SubprocessWorkUnit) Stop() error {
	w.mu.Lock()
	cancel := w.cancel
	stdin := w.stdin
	w.mu.Unlock()

	if stdin != nil {
		_ = stdin.Close()
	}
	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
	return nil
}
