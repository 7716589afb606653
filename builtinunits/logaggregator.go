package builtinunits

import (
	"context"
	"log/slog"
	"sync"
)

// logBatchSize is the sequential/batched threshold for flushing queued
// records: at or below it, draining the queue inline is cheaper than
// spawning a goroutine per batch.
const logBatchSize = 8

// LogAggregator is a normal-kind work unit body factory: every other work
// unit's body calls Log instead of slog directly, and LogAggregator
// flushes the accumulated records through a single *slog.Logger once per
// frame, off of whichever thread happens to run it. This keeps concurrent
// work-unit bodies from contending on the logger's own internal lock.
type LogAggregator struct {
	logger *slog.Logger

	mu      sync.Mutex
	records []logRecord
}

type logRecord struct {
	level slog.Level
	msg   string
	args  []any
}

// NewLogAggregator constructs an aggregator that flushes through logger.
func NewLogAggregator(logger *slog.Logger) *LogAggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogAggregator{logger: logger}
}

// Log queues a record for the next flush. Safe to call concurrently from
// any work unit's body.
func (a *LogAggregator) Log(level slog.Level, msg string, args ...any) {
	a.mu.Lock()
	a.records = append(a.records, logRecord{level: level, msg: msg, args: args})
	a.mu.Unlock()
}

// Body returns the function to register as this aggregator's own work
// unit body via scheduler.AddWorkUnit(name, scheduler.KindNormal, agg.Body()).
// Declare this aggregator's unit as dependent on the units that log through
// it, so their log calls land before the flush that drains them; records
// queued after the flush wait for the next frame's flush.
func (a *LogAggregator) Body() func(ctx context.Context) error {
	return func(ctx context.Context) error {
		a.mu.Lock()
		pending := a.records
		a.records = nil
		a.mu.Unlock()

		if len(pending) <= logBatchSize {
			for _, r := range pending {
				a.logger.Log(ctx, r.level, r.msg, r.args...)
			}
			return nil
		}

		var wg sync.WaitGroup
		for i := 0; i < len(pending); i += logBatchSize {
			end := i + logBatchSize
			if end > len(pending) {
				end = len(pending)
			}
			batch := pending[i:end]
			wg.Add(1)
			go func(b []logRecord) {
				defer wg.Done()
				for _, r := range b {
					a.logger.Log(ctx, r.level, r.msg, r.args...)
				}
			}(batch)
		}
		wg.Wait()
		return nil
	}
}
