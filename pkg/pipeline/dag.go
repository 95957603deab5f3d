package pipeline

import (
	"github.com/NerdToMars/nn-dataflow/pkg/errors"
	"github.com/NerdToMars/nn-dataflow/pkg/network"
)

// InputVertex is the reserved index of the sentinel vertex representing the
// network's external input. It never contains real layers and its output is
// always considered resident in memory.
const InputVertex = -1

// Vertex is an ordered, non-empty tuple of layer names merged into a single
// scheduling unit. Vertices are indexed 0..V-1 in topological order.
type Vertex []string

// schedDAG is the coarse scheduling DAG of a network: the vertex arena in
// topological order plus index-keyed adjacency sets. It is built once at
// pipeline construction and never mutated afterwards.
type schedDAG struct {
	vertices []Vertex
	prevs    []indexSet // per vertex; may contain InputVertex
	nexts    []indexSet // per vertex; real vertex indices only
	// inputNexts holds the vertices consuming the network input directly.
	inputNexts indexSet
	// vertexOf maps each layer name to the index of its vertex.
	vertexOf map[string]int
}

// buildSchedDAG merges the network's layers into scheduling vertices and
// derives vertex adjacency.
//
// Filtered layers always start a new singleton vertex. A mergeable layer is
// folded into the most recently created eligible vertex: one whose head is
// disjoint from the layer's predecessors, whose tail is among them, and
// whose tail has exactly one consumer in the network (so the tail's output
// can be overwritten in place). If no vertex is eligible the layer becomes
// its own singleton.
func buildSchedDAG(net *network.Network) (*schedDAG, error) {
	var vertexSet []Vertex

	for _, name := range net.Layers() {
		layer, _ := net.Layer(name)
		if !layer.Mergeable() {
			vertexSet = append(vertexSet, Vertex{name})
			continue
		}

		prevs := make(map[string]struct{})
		for _, p := range net.Prevs(name) {
			prevs[p] = struct{}{}
		}

		// Scan existing vertices from most-recent to least-recent.
		merged := false
		for i := len(vertexSet) - 1; i >= 0; i-- {
			head := vertexSet[i][:len(vertexSet[i])-1]
			tail := vertexSet[i][len(vertexSet[i])-1]
			if _, tailIsPrev := prevs[tail]; !tailIsPrev {
				continue
			}
			if headOverlaps(head, prevs) || len(net.Nexts(tail)) != 1 {
				continue
			}
			vertexSet[i] = append(vertexSet[i], name)
			merged = true
			break
		}
		if !merged {
			vertexSet = append(vertexSet, Vertex{name})
		}
	}

	total := 0
	for _, v := range vertexSet {
		total += len(v)
	}
	if total != net.Len() {
		return nil, errors.New(errors.ErrCodeInternal,
			"merge bookkeeping: vertices hold %d layers, network has %d", total, net.Len())
	}

	ordered, err := topoOrder(net, vertexSet)
	if err != nil {
		return nil, err
	}

	d := &schedDAG{
		vertices:   ordered,
		prevs:      make([]indexSet, len(ordered)),
		nexts:      make([]indexSet, len(ordered)),
		inputNexts: newIndexSet(),
		vertexOf:   make(map[string]int, net.Len()),
	}
	for vidx, v := range ordered {
		d.prevs[vidx] = newIndexSet()
		d.nexts[vidx] = newIndexSet()
		for _, name := range v {
			if _, dup := d.vertexOf[name]; dup {
				return nil, errors.New(errors.ErrCodeInternal, "layer %s assigned to multiple vertices", name)
			}
			d.vertexOf[name] = vidx
		}
	}

	// Map layer-level adjacency onto vertex indices, collapsing intra-vertex
	// edges.
	for _, name := range net.Layers() {
		vidx := d.vertexOf[name]
		for _, p := range net.Prevs(name) {
			pvidx := InputVertex
			if p != network.InputLayerKey {
				pvidx = d.vertexOf[p]
			}
			if pvidx != vidx {
				d.prevs[vidx].add(pvidx)
			}
		}
		for _, nl := range net.Nexts(name) {
			nvidx := d.vertexOf[nl]
			if nvidx != vidx {
				d.nexts[vidx].add(nvidx)
			}
		}
	}
	for vidx := range d.prevs {
		if d.prevs[vidx].has(InputVertex) {
			d.inputNexts.add(vidx)
		}
	}

	return d, nil
}

func headOverlaps(head Vertex, prevs map[string]struct{}) bool {
	for _, h := range head {
		if _, ok := prevs[h]; ok {
			return true
		}
	}
	return false
}
