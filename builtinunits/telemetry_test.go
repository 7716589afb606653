package builtinunits

import (
	"context"
	"testing"
)

func TestTelemetryEmitterPollErrorsWhenNotConnected(t *testing.T) {
	e := NewTelemetryEmitter(TelemetryConfig{Broker: "127.0.0.1:9", Topic: "t"})
	e.Publish(map[string]int{"tick": 1})

	if err := e.Poll(context.Background()); err == nil {
		t.Fatal("expected Poll to surface a not-connected error")
	}
	if got := e.Stats().Errors; got != 1 {
		t.Fatalf("Stats().Errors = %d, want 1", got)
	}
}

func TestTelemetryEmitterPublishDropsOldestWhenFull(t *testing.T) {
	e := NewTelemetryEmitter(TelemetryConfig{Broker: "127.0.0.1:9", Topic: "t"})

	for i := 0; i < cap(e.queue)+5; i++ {
		e.Publish(i)
	}
	if got := len(e.queue); got != cap(e.queue) {
		t.Fatalf("queue length = %d, want full at capacity %d", got, cap(e.queue))
	}
	t.Log("✅ Publish never blocks or grows the queue past its capacity")
}
