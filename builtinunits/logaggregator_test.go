package builtinunits

import (
	"context"
	"log/slog"
	"sync"
	"testing"
)

func TestLogAggregatorFlushesQueuedRecords(t *testing.T) {
	var buf countingHandler
	agg := NewLogAggregator(slog.New(&buf))

	agg.Log(slog.LevelInfo, "hello")
	agg.Log(slog.LevelWarn, "world")

	body := agg.Body()
	if err := body(context.Background()); err != nil {
		t.Fatalf("body() failed: %v", err)
	}

	if got := buf.Count(); got != 2 {
		t.Fatalf("handler saw %d records, want 2", got)
	}
	t.Log("✅ two queued records were flushed through the underlying logger")
}

func TestLogAggregatorBatchesLargeQueues(t *testing.T) {
	var buf countingHandler
	agg := NewLogAggregator(slog.New(&buf))

	for i := 0; i < logBatchSize*3; i++ {
		agg.Log(slog.LevelDebug, "msg")
	}

	body := agg.Body()
	if err := body(context.Background()); err != nil {
		t.Fatalf("body() failed: %v", err)
	}
	if got := buf.Count(); got != logBatchSize*3 {
		t.Fatalf("handler saw %d records, want %d", got, logBatchSize*3)
	}
}

// countingHandler is a minimal slog.Handler that counts records, avoiding
// a dependency on capturing and parsing real log output for this test.
// Handle is called concurrently once the aggregator's queue is large
// enough to batch, so the counter needs its own lock.
type countingHandler struct {
	mu    sync.Mutex
	count int
}

func (h *countingHandler) Enabled(context.Context, slog.Level) bool { return true }
func (h *countingHandler) Handle(ctx context.Context, r slog.Record) error {
	h.mu.Lock()
	h.count++
	h.mu.Unlock()
	return nil
}
func (h *countingHandler) WithAttrs(attrs []slog.Attr) slog.Handler { return h }
func (h *countingHandler) WithGroup(name string) slog.Handler       { return h }

func (h *countingHandler) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}
