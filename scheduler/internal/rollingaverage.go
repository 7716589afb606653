package internal

// RollingAverage smooths a work unit's runtime samples into a single
// microsecond figure used to derive its WorkUnitKey. Owned exclusively by
// the thread executing a work unit's body - no synchronization is
// required because only one thread ever touches an instance at a time,
// the CAS winner that acquired the unit for this frame.
type RollingAverage struct {
	samples []int64
	next    int
	count   int
	sum     int64
}

// NewRollingAverage allocates a window of the given size. A window of zero
// or less degenerates to a window of one sample.
func NewRollingAverage(window int) *RollingAverage {
	if window < 1 {
		window = 1
	}
	return &RollingAverage{samples: make([]int64, window)}
}

// Add folds a new sample (microseconds) into the window and returns the
// updated mean.
func (r *RollingAverage) Add(sampleUs int64) int64 {
	if r.count < len(r.samples) {
		r.samples[r.next] = sampleUs
		r.sum += sampleUs
		r.count++
	} else {
		r.sum -= r.samples[r.next]
		r.samples[r.next] = sampleUs
		r.sum += sampleUs
	}
	r.next = (r.next + 1) % len(r.samples)
	return r.Value()
}

// Value returns the current mean, or 0 if no sample has ever been added.
func (r *RollingAverage) Value() int64 {
	if r.count == 0 {
		return 0
	}
	return r.sum / int64(r.count)
}

// Resize changes the window length, discarding history. Legal only between
// frames, mirroring scheduler.SetHistoryLength's contract.
func (r *RollingAverage) Resize(window int) {
	if window < 1 {
		window = 1
	}
	r.samples = make([]int64, window)
	r.next = 0
	r.count = 0
	r.sum = 0
}
