package pipeline

import (
	"slices"

	"github.com/NerdToMars/nn-dataflow/pkg/errors"
)

// enumContext carries the traversal state of one segment enumeration pass.
// A fresh context is created by each top-level GenSegments call, so
// sequential passes are fully independent and a pass can be abandoned at any
// point without affecting the next one.
type enumContext struct {
	dag *schedDAG
	// explored memoizes start indices whose outer walk has completed. It
	// bounds recursive re-entry from ancestor searches; the vsegs found
	// through different ancestor paths are still each emitted when first
	// reached.
	explored indexSet
}

func newEnumContext(d *schedDAG) *enumContext {
	return &enumContext{dag: d, explored: newIndexSet()}
}

// genVSegs emits every rule-valid vertex segment whose first vertex is at or
// after start, in preorder: each vseg is emitted before its longer
// continuations. done is the set of vertices whose outputs are already
// resident, which always includes the sentinel input vertex.
//
// The three extension rules, checked as the frontier walks forward in index
// order:
//
//  1. Shared dependency: a non-empty vseg only extends to a frontier whose
//     predecessors intersect the vseg or its members' predecessors;
//     otherwise co-location yields no benefit and the walk stops.
//  2. Single-producer exclusivity: a frontier with multiple predecessors
//     cannot join a vseg that already contains one of them, since producer
//     availability times would not coincide.
//  3. All-or-nothing consumers: every member with successors outside the
//     vseg must have all of them outside. If only some are outside, the walk
//     is forced to keep extending; the missing successor must lie beyond the
//     frontier, or the topological order is broken.
//
// Returns false when emit signaled stop.
func (c *enumContext) genVSegs(start int, done indexSet, emit func(vseg []int) bool) (bool, error) {
	var vseg []int
	inVseg := newIndexSet()

	for frontier := start; frontier < len(c.dag.vertices); frontier++ {
		frontierPrevs := c.dag.prevs[frontier]

		shareDeps := len(vseg) == 0 || c.sharesDeps(frontierPrevs, vseg, inVseg)
		coupledPrevs := len(frontierPrevs) > 1 && intersects(frontierPrevs, inVseg)

		if !shareDeps || coupledPrevs {
			if len(vseg) == 0 {
				return false, errors.New(errors.ErrCodeInternal,
					"extension rules rejected an empty segment at vertex %d", frontier)
			}
			// The vseg built so far, and its continuations, were emitted in
			// the previous iteration.
			break
		}

		vseg = append(vseg, frontier)
		inVseg.add(frontier)

		valid, err := c.checkConsumers(vseg, inVseg, frontier)
		if err != nil {
			return false, err
		}
		if !valid {
			// Some member's consumers are split across the boundary; keep
			// extending until they are all inside.
			continue
		}

		if !emit(slices.Clone(vseg)) {
			return false, nil
		}

		if c.explored.has(frontier + 1) {
			continue
		}
		cont, err := c.genVSegs(frontier+1, done.union(vseg), emit)
		if err != nil || !cont {
			return cont, err
		}
	}

	if c.explored.has(start) {
		return false, errors.New(errors.ErrCodeInternal, "start vertex %d explored twice", start)
	}
	c.explored.add(start)
	return true, nil
}

// sharesDeps reports whether prevs intersects the vseg or the union of its
// members' predecessor sets (rule 1). The sentinel input vertex counts as a
// shareable dependency.
func (c *enumContext) sharesDeps(prevs indexSet, vseg []int, inVseg indexSet) bool {
	for p := range prevs {
		if inVseg.has(p) {
			return true
		}
		for _, m := range vseg {
			if c.dag.prevs[m].has(p) {
				return true
			}
		}
	}
	return false
}

// checkConsumers verifies rule 3 for every member of the vseg. It returns
// false when the vseg must keep extending, and an error when a missing
// successor does not lie beyond the frontier, which would contradict the
// topological order.
func (c *enumContext) checkConsumers(vseg []int, inVseg indexSet, frontier int) (bool, error) {
	for _, idx := range vseg {
		inside, minMissing := 0, -1
		for nv := range c.dag.nexts[idx] {
			if inVseg.has(nv) {
				inside++
			} else if minMissing < 0 || nv < minMissing {
				minMissing = nv
			}
		}
		if inside > 0 && minMissing >= 0 {
			if minMissing <= frontier {
				return false, errors.New(errors.ErrCodeInternal,
					"vertex %d has successor %d at or before frontier %d", idx, minMissing, frontier)
			}
			return false, nil
		}
	}
	return true, nil
}

func intersects(a, b indexSet) bool {
	if len(b) < len(a) {
		a, b = b, a
	}
	for i := range a {
		if b.has(i) {
			return true
		}
	}
	return false
}
