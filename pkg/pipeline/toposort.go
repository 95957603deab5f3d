package pipeline

import (
	"slices"

	"github.com/NerdToMars/nn-dataflow/pkg/errors"
	"github.com/NerdToMars/nn-dataflow/pkg/network"
)

// topoOrder orders the scheduling vertices topologically using depth-first
// search. The reverse of the DFS postorder is the topological order.
//
// The traversal starts from the vertices containing the network's entry
// layers, taken in reverse declared order, and visits successor vertices in
// reverse discovery order. Reversing the postorder then restores the
// declared order wherever adjacency leaves a tie.
//
// A vertex reached while still in progress means the layer graph has a
// cycle; a vertex never reached means it is disconnected from the network
// input. Both are fatal structural errors.
func topoOrder(net *network.Network, vertexSet []Vertex) ([]Vertex, error) {
	const (
		white = iota // unseen
		gray         // in progress
		black        // done
	)

	layerPos := make(map[string]int, net.Len())
	for i, v := range vertexSet {
		for _, l := range v {
			layerPos[l] = i
		}
	}

	color := make([]int, len(vertexSet))
	postorder := make([]Vertex, 0, len(vertexSet))

	var dfs func(i int) error
	dfs = func(i int) error {
		color[i] = gray
		v := vertexSet[i]

		inVertex := make(map[string]struct{}, len(v))
		for _, l := range v {
			inVertex[l] = struct{}{}
		}

		// Successor layers outside this vertex, in discovery order.
		var nextLayers []string
		collected := make(map[string]struct{})
		for _, l := range v {
			for _, nl := range net.Nexts(l) {
				if _, own := inVertex[nl]; own {
					continue
				}
				if _, dup := collected[nl]; dup {
					continue
				}
				collected[nl] = struct{}{}
				nextLayers = append(nextLayers, nl)
			}
		}

		for j := len(nextLayers) - 1; j >= 0; j-- {
			ni := layerPos[nextLayers[j]]
			switch color[ni] {
			case gray:
				return errors.New(errors.ErrCodeStructureCycle,
					"layer graph has a cycle through %s", nextLayers[j])
			case white:
				if err := dfs(ni); err != nil {
					return err
				}
			}
		}

		postorder = append(postorder, v)
		color[i] = black
		return nil
	}

	firsts := net.FirstLayers()
	for j := len(firsts) - 1; j >= 0; j-- {
		i := layerPos[firsts[j]]
		if color[i] == white {
			if err := dfs(i); err != nil {
				return nil, err
			}
		}
	}

	for i := range color {
		if color[i] != black {
			return nil, errors.New(errors.ErrCodeStructureUnreachable,
				"layer %s is unreachable from the network input", vertexSet[i][0])
		}
	}

	slices.Reverse(postorder)
	return postorder, nil
}
