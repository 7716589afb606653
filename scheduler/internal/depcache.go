package internal

import "sort"

// DependencyCache holds the derived reverse-edge (dependent) counts and
// the sorted dispatch sequences. It is rebuilt on demand - never
// incrementally - and is read-only during a frame.
type DependencyCache struct {
	dirty         bool
	dependents    map[Handle]int64
	mainAffinity  []Handle
	nonAffinity   []Handle
}

// NewDependencyCache returns a cache that is dirty until first rebuilt.
func NewDependencyCache() *DependencyCache {
	return &DependencyCache{dirty: true}
}

// MarkDirty flags the cache as stale. Called by AddDependency/RemoveWorkUnit.
func (c *DependencyCache) MarkDirty() { c.dirty = true }

// Dirty reports whether Rebuild has not yet run since the last graph edit.
func (c *DependencyCache) Dirty() bool { return c.dirty }

// MainAffinitySequence returns the sorted main-affinity dispatch sequence.
func (c *DependencyCache) MainAffinitySequence() []Handle { return c.mainAffinity }

// NonAffinitySequence returns the sorted non-affinity dispatch sequence
// (normal and async-kind units, scanned by every worker thread).
func (c *DependencyCache) NonAffinitySequence() []Handle { return c.nonAffinity }

// DependentCount returns the cached transitive dependent count for handle,
// or 0 if unknown (never rebuilt, or handle removed since).
func (c *DependencyCache) DependentCount(h Handle) int64 { return c.dependents[h] }

// RebuildDependents recomputes transitive dependent counts (see DESIGN.md
// for why this counts the full chain of blocked units, not just immediate
// dependents) without re-sorting. This is the expensive half of a
// rebuild; Sort is cheap and meant to be called every frame or two even
// when RebuildDependents is amortized over many frames by a built-in
// sorter work unit.
func (c *DependencyCache) RebuildDependents(units map[Handle]*WorkUnit) {
	reverse := make(map[Handle][]Handle, len(units))
	for h, u := range units {
		for _, dep := range u.Deps {
			reverse[dep] = append(reverse[dep], h)
		}
	}

	dependents := make(map[Handle]int64, len(units))
	for h := range units {
		dependents[h] = transitiveDependentCount(h, reverse)
	}
	c.dependents = dependents
	c.dirty = false
}

// Sort re-derives WorkUnitKeys from the cached dependent counts and each
// unit's current performance sample, then re-sorts the two dispatch
// sequences. Cheap: O(V log V), no graph walk.
func (c *DependencyCache) Sort(units map[Handle]*WorkUnit) {
	var mainKeys, nonKeys []WorkUnitKey
	for h, u := range units {
		if u.Kind == KindMonopoly {
			continue
		}
		key := WorkUnitKey{
			Dependents: c.dependents[h],
			PerfSample: u.PerfSample(),
			Handle:     h,
		}
		if u.Kind == KindMainAffinity {
			mainKeys = append(mainKeys, key)
		} else {
			nonKeys = append(nonKeys, key)
		}
	}

	sort.Slice(mainKeys, func(i, j int) bool { return mainKeys[i].Less(mainKeys[j]) })
	sort.Slice(nonKeys, func(i, j int) bool { return nonKeys[i].Less(nonKeys[j]) })

	c.mainAffinity = handlesOf(mainKeys)
	c.nonAffinity = handlesOf(nonKeys)
}

// Rebuild recomputes dependents and re-sorts in one call, the behavior
// update_dependency_cache() exposes to clients.
func (c *DependencyCache) Rebuild(units map[Handle]*WorkUnit) {
	c.RebuildDependents(units)
	c.Sort(units)
}

func handlesOf(keys []WorkUnitKey) []Handle {
	out := make([]Handle, len(keys))
	for i, k := range keys {
		out[i] = k.Handle
	}
	return out
}

// transitiveDependentCount counts how many distinct units are reachable by
// walking the reverse (dependent) adjacency from root, i.e. how many units
// cannot start until root has completed, directly or through a chain of
// other dependencies.
func transitiveDependentCount(root Handle, reverse map[Handle][]Handle) int64 {
	seen := make(map[Handle]bool)
	queue := append([]Handle{}, reverse[root]...)
	for _, h := range queue {
		seen[h] = true
	}
	for i := 0; i < len(queue); i++ {
		for _, next := range reverse[queue[i]] {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return int64(len(seen))
}
