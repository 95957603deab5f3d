package pipeline

import (
	"reflect"
	"testing"

	"github.com/NerdToMars/nn-dataflow/pkg/network"
)

func chainNet(t *testing.T) *network.Network {
	t.Helper()
	return buildNet(t,
		[]string{"a", "filtered"},
		[]string{"b", "filtered", "a"},
		[]string{"c", "filtered", "b"},
		[]string{"d", "filtered", "c"},
	)
}

func diamondNet(t *testing.T) *network.Network {
	t.Helper()
	return buildNet(t,
		[]string{"a", "filtered"},
		[]string{"b", "filtered", "a"},
		[]string{"c", "filtered", "a"},
		[]string{"e", "filtered", "b", "c"},
	)
}

func collectVSegs(t *testing.T, net *network.Network) [][]int {
	t.Helper()
	d, err := buildSchedDAG(net)
	if err != nil {
		t.Fatalf("buildSchedDAG() = %v", err)
	}
	ctx := newEnumContext(d)
	var got [][]int
	cont, err := ctx.genVSegs(0, newIndexSet(InputVertex), func(vseg []int) bool {
		got = append(got, vseg)
		return true
	})
	if err != nil {
		t.Fatalf("genVSegs() = %v", err)
	}
	if !cont {
		t.Fatal("genVSegs() reported stop without emit returning false")
	}
	return got
}

func TestGenVSegs_Chain(t *testing.T) {
	want := [][]int{
		{0}, {1}, {2}, {3},
		{2, 3},
		{1, 2}, {1, 2, 3},
		{0, 1}, {0, 1, 2}, {0, 1, 2, 3},
	}
	if got := collectVSegs(t, chainNet(t)); !reflect.DeepEqual(got, want) {
		t.Errorf("vsegs = %v, want %v", got, want)
	}
}

func TestGenVSegs_Diamond(t *testing.T) {
	// e has two predecessors, so it can never join a vseg containing b or c.
	// (b) and (c) can pair because they share the producer a, and (a, b, c)
	// closes over all of a's consumers; (a, b) cannot be emitted because c
	// would still read a from outside.
	want := [][]int{
		{0}, {1}, {2}, {3},
		{1, 2},
		{0, 1, 2},
	}
	if got := collectVSegs(t, diamondNet(t)); !reflect.DeepEqual(got, want) {
		t.Errorf("vsegs = %v, want %v", got, want)
	}
}

func TestGenVSegs_DisjointChainsDoNotPair(t *testing.T) {
	// x's chain shares no dependency with a's chain, but both chains hang
	// off the network input, which counts as a shared dependency for the
	// entry vertices.
	net := buildNet(t,
		[]string{"a", "filtered"},
		[]string{"x", "filtered"},
		[]string{"b", "filtered", "a"},
		[]string{"y", "filtered", "x"},
	)
	// Vertex order: a=0, b=1, x=2, y=3. (1, 2) never appears: b's only
	// dependency is a, which x does not share.
	want := [][]int{
		{0}, {1}, {2}, {3},
		{2, 3},
		{0, 1}, {0, 1, 2}, {0, 1, 2, 3},
	}
	got := collectVSegs(t, net)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("vsegs = %v, want %v", got, want)
	}
}

func TestGenVSegs_RulesHold(t *testing.T) {
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

	ctx := newEnumContext(d)
	seen := make(map[string]struct{})
	_, err = ctx.genVSegs(0, newIndexSet(InputVertex), func(vseg []int) bool {
		if len(vseg) == 0 {
			t.Fatal("emitted empty vseg")
		}
		for i := 1; i < len(vseg); i++ {
			if vseg[i] != vseg[i-1]+1 {
				t.Errorf("vseg %v is not consecutive", vseg)
			}
		}

		in := newIndexSet(vseg...)
		for _, m := range vseg {
			// Multi-predecessor members must not follow any predecessor
			// inside the same vseg.
			if len(d.prevs[m]) > 1 {
				for p := range d.prevs[m] {
					if p != m && in.has(p) && m != vseg[0] {
						t.Errorf("vseg %v contains vertex %d and its coupled predecessor %d", vseg, m, p)
					}
				}
			}
			// Consumers are all-or-nothing across the boundary.
			inside, outside := 0, 0
			for nv := range d.nexts[m] {
				if in.has(nv) {
					inside++
				} else {
					outside++
				}
			}
			if inside > 0 && outside > 0 {
				t.Errorf("vseg %v splits the consumers of vertex %d", vseg, m)
			}
		}

		key := stageKey([][]string{intStrings(vseg)})
		if _, dup := seen[key]; dup {
			t.Errorf("vseg %v emitted twice", vseg)
		}
		seen[key] = struct{}{}
		return true
	})
	if err != nil {
		t.Fatalf("genVSegs() = %v", err)
	}
	if len(seen) == 0 {
		t.Fatal("no vsegs emitted")
	}
}

func TestGenVSegs_EarlyStop(t *testing.T) {
	d, err := buildSchedDAG(chainNet(t))
	if err != nil {
		t.Fatalf("buildSchedDAG() = %v", err)
	}
	ctx := newEnumContext(d)
	var got [][]int
	cont, err := ctx.genVSegs(0, newIndexSet(InputVertex), func(vseg []int) bool {
		got = append(got, vseg)
		return len(got) < 3
	})
	if err != nil {
		t.Fatalf("genVSegs() = %v", err)
	}
	if cont {
		t.Error("genVSegs() should report stop after emit returned false")
	}
	want := [][]int{{0}, {1}, {2}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("vsegs = %v, want %v", got, want)
	}
}

func TestGenVSegs_FreshContextsAreIndependent(t *testing.T) {
	d, err := buildSchedDAG(diamondNet(t))
	if err != nil {
		t.Fatalf("buildSchedDAG() = %v", err)
	}
	run := func() [][]int {
		ctx := newEnumContext(d)
		var got [][]int
		if _, err := ctx.genVSegs(0, newIndexSet(InputVertex), func(vseg []int) bool {
			got = append(got, vseg)
			return true
		}); err != nil {
			t.Fatalf("genVSegs() = %v", err)
		}
		return got
	}
	first, second := run(), run()
	if !reflect.DeepEqual(first, second) {
		t.Errorf("passes differ: %v vs %v", first, second)
	}
}

func intStrings(vseg []int) []string {
	out := make([]string, len(vseg))
	for i, v := range vseg {
		out[i] = string(rune('0' + v))
	}
	return out
}
