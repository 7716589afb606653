package internal

// WorkUnitKey is the sort record driving dispatch order:
// (dependent-count, performance-sample, handle), descending on the first
// two, handle used only as a stable tiebreak.
type WorkUnitKey struct {
	Dependents int64
	PerfSample int64
	Handle     Handle
}

// Less orders a before b: more depended-on first, then longer-running
// first, then handle ascending so ties are deterministic across rebuilds.
func (a WorkUnitKey) Less(b WorkUnitKey) bool {
	if a.Dependents != b.Dependents {
		return a.Dependents > b.Dependents
	}
	if a.PerfSample != b.PerfSample {
		return a.PerfSample > b.PerfSample
	}
	return a.Handle.String() < b.Handle.String()
}
