package internal

// registry mutation methods. Every method here is legal only between
// frames: each checks inFlight and fails fast with ErrFrameInFlight
// rather than blocking on mu until the frame completes. The one exception
// is UpdateDependencyCache and SortWorkUnits, which are also accepted
// during the monopoly phase.

// AddWorkUnit registers a new node and returns its handle.
func (s *FrameScheduler) AddWorkUnit(name string, kind Kind, body Body) (Handle, error) {
	if s.inFlight.Load() {
		return NilHandle, ErrFrameInFlight
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	h := NewHandle()
	s.units[h] = NewWorkUnit(h, name, kind, body, s.historyLength)
	s.order = append(s.order, h)
	s.cache.MarkDirty()
	return h, nil
}

// AddAsyncWorkUnit registers an async-kind node whose frame-polling body is
// the given AsyncPoller's Poll method.
func (s *FrameScheduler) AddAsyncWorkUnit(name string, poller AsyncPoller) (Handle, error) {
	if s.inFlight.Load() {
		return NilHandle, ErrFrameInFlight
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	h := NewHandle()
	u := NewWorkUnit(h, name, KindAsync, nil, s.historyLength)
	u.Async = poller
	s.units[h] = u
	s.order = append(s.order, h)
	s.cache.MarkDirty()
	return h, nil
}

// AddDependency appends predecessor to dependent's dependency list.
// Rejects self-edges, duplicate edges, dangling handles, and edges that
// would close a cycle.
func (s *FrameScheduler) AddDependency(dependent, predecessor Handle) error {
	if s.inFlight.Load() {
		return ErrFrameInFlight
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if dependent == predecessor {
		return ErrSelfDependency
	}
	du, ok := s.units[dependent]
	if !ok {
		return ErrUnknownHandle
	}
	if _, ok := s.units[predecessor]; !ok {
		return ErrDanglingPredecessor
	}
	for _, existing := range du.Deps {
		if existing == predecessor {
			return ErrDuplicateEdge
		}
	}
	if s.reachableViaDeps(predecessor, dependent) {
		return ErrCycle
	}

	du.Deps = append(du.Deps, predecessor)
	s.cache.MarkDirty()
	return nil
}

// reachableViaDeps reports whether to is reachable from from by walking
// existing dependency edges (from depends on ... depends on to). Must be
// called with mu held.
func (s *FrameScheduler) reachableViaDeps(from, to Handle) bool {
	seen := map[Handle]bool{from: true}
	stack := []Handle{from}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		u := s.units[cur]
		if u == nil {
			continue
		}
		for _, dep := range u.Deps {
			if dep == to {
				return true
			}
			if !seen[dep] {
				seen[dep] = true
				stack = append(stack, dep)
			}
		}
	}
	return false
}

// RemoveWorkUnit deletes a node and scrubs it from every remaining node's
// dependency list.
func (s *FrameScheduler) RemoveWorkUnit(h Handle) error {
	if s.inFlight.Load() {
		return ErrFrameInFlight
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.units[h]; !ok {
		return ErrUnknownHandle
	}
	delete(s.units, h)

	for i, oh := range s.order {
		if oh == h {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	for _, u := range s.units {
		filtered := u.Deps[:0]
		for _, dep := range u.Deps {
			if dep != h {
				filtered = append(filtered, dep)
			}
		}
		u.Deps = filtered
	}
	s.cache.MarkDirty()
	return nil
}

// UpdateDependencyCache rebuilds dependent counts and dispatch order.
// Legal between frames, and also from within the monopoly phase of the
// frame currently executing (see monopolyPhase) - the monopoly loop runs
// serially before anything else touches the registry, so a call from
// there is exempt from the between-frames guard rather than forced to
// fail with ErrFrameInFlight.
func (s *FrameScheduler) UpdateDependencyCache() error {
	if s.inFlight.Load() && !s.monopolyPhase.Load() {
		return ErrFrameInFlight
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Rebuild(s.units)
	return nil
}

// SortWorkUnits re-derives the dispatch order. When rebuildCache is true it
// first recomputes dependent counts; otherwise it only re-reads each unit's
// current performance sample, the cheap path a built-in sorter work unit
// uses every frame. Legal between frames and, like UpdateDependencyCache,
// from within the current frame's monopoly phase.
func (s *FrameScheduler) SortWorkUnits(rebuildCache bool) error {
	if s.inFlight.Load() && !s.monopolyPhase.Load() {
		return ErrFrameInFlight
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if rebuildCache {
		s.cache.RebuildDependents(s.units)
	}
	s.cache.Sort(s.units)
	return nil
}

// RegisterDoubleBuffer adds f to the set flipped at the start of every
// frame.
func (s *FrameScheduler) RegisterDoubleBuffer(f Flippable) error {
	if s.inFlight.Load() {
		return ErrFrameInFlight
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffers = append(s.buffers, f)
	return nil
}
