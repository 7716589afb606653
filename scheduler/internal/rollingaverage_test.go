package internal

import "testing"

func TestRollingAverageMean(t *testing.T) {
	r := NewRollingAverage(3)
	vals := []int64{10, 20, 30, 40}
	var got int64
	for _, v := range vals {
		got = r.Add(v)
	}
	// window of 3, last three samples are 20,30,40 -> mean 30
	if got != 30 {
		t.Fatalf("Value() = %d, want 30", got)
	}
	t.Log("✅ rolling average reflects only the last window samples")
}

func TestRollingAverageEmptyIsZero(t *testing.T) {
	r := NewRollingAverage(4)
	if got := r.Value(); got != 0 {
		t.Fatalf("Value() on empty window = %d, want 0", got)
	}
}

func TestRollingAverageResizeDiscardsHistory(t *testing.T) {
	r := NewRollingAverage(4)
	r.Add(100)
	r.Add(200)
	r.Resize(2)
	if got := r.Value(); got != 0 {
		t.Fatalf("Value() after Resize = %d, want 0", got)
	}
	r.Add(10)
	r.Add(20)
	if got := r.Value(); got != 15 {
		t.Fatalf("Value() after resized refill = %d, want 15", got)
	}
	t.Log("✅ Resize discards history and starts a fresh window")
}
