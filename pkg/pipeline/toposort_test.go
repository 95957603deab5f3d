package pipeline

import (
	"reflect"
	"testing"
)

func TestTopoOrder_DiamondRestoresDeclaredOrder(t *testing.T) {
	net := buildNet(t,
		[]string{"a", "filtered"},
		[]string{"b", "filtered", "a"},
		[]string{"c", "filtered", "a"},
		[]string{"e", "filtered", "b", "c"},
	)

	d, err := buildSchedDAG(net)
	if err != nil {
		t.Fatalf("buildSchedDAG() = %v", err)
	}

	want := [][]string{{"a"}, {"b"}, {"c"}, {"e"}}
	if got := vertexNames(d); !reflect.DeepEqual(got, want) {
		t.Errorf("vertices = %v, want %v", got, want)
	}
}

func TestTopoOrder_ParallelChains(t *testing.T) {
	// Two disjoint chains rooted at distinct entry layers. The chain of the
	// first declared entry comes out first, each chain contiguous.
	net := buildNet(t,
		[]string{"a", "filtered"},
		[]string{"x", "filtered"},
		[]string{"b", "filtered", "a"},
		[]string{"y", "filtered", "x"},
	)

	d, err := buildSchedDAG(net)
	if err != nil {
		t.Fatalf("buildSchedDAG() = %v", err)
	}

	want := [][]string{{"a"}, {"b"}, {"x"}, {"y"}}
	if got := vertexNames(d); !reflect.DeepEqual(got, want) {
		t.Errorf("vertices = %v, want %v", got, want)
	}
}

func TestTopoOrder_ProducersPrecedeConsumers(t *testing.T) {
	net := buildNet(t,
		[]string{"conv1", "filtered"},
		[]string{"pool1", "mergeable", "conv1"},
		[]string{"conv2", "filtered", "pool1"},
		[]string{"conv3", "filtered", "pool1"},
		[]string{"concat", "mergeable", "conv2", "conv3"},
		[]string{"fc", "filtered", "concat"},
	)

	d, err := buildSchedDAG(net)
	if err != nil {
		t.Fatalf("buildSchedDAG() = %v", err)
	}

	pos := make(map[string]int)
	seq := 0
	for _, v := range d.vertices {
		for _, l := range v {
			pos[l] = seq
			seq++
		}
	}
	if seq != net.Len() {
		t.Fatalf("flattened %d layers, network has %d", seq, net.Len())
	}
	for _, name := range net.Layers() {
		for _, p := range net.Prevs(name) {
			pp, ok := pos[p]
			if !ok {
				continue // network input
			}
			if pp >= pos[name] {
				t.Errorf("producer %s at %d does not precede consumer %s at %d", p, pp, name, pos[name])
			}
		}
	}
}
