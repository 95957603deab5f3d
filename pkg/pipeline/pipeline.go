// Package pipeline determines, for a layer graph and a fixed hardware
// budget, every structurally valid way to group consecutive scheduling
// vertices into pipeline segments so intermediate results can stay resident
// across layer boundaries.
//
// # Architecture
//
// Construction collapses the fine-grained layer graph into a coarse
// scheduling DAG (weight-free layers fold into their producer where the
// producer's output can be overwritten in place), orders the vertices
// topologically, and freezes the result. Enumeration then walks the ordered
// vertex set, growing vertex segments under three structural rules and
// materializing each as spatial and/or temporal pipeline-segment candidates,
// which are deduplicated and filtered through an external validator.
//
// # Usage
//
//	p, err := pipeline.New(net, 64, pipeline.Resource{ProcNodes: 16, GbufSize: 1 << 20}, 0.05, nil)
//	if err != nil {
//	    return err
//	}
//	opts := pipeline.Options{PartitionInterLayer: true, HWGbufSaveWriteback: true}
//	count, err := p.GenSegments(opts, func(seg *pipeline.Segment) bool {
//	    // Consume seg; return false to stop early.
//	    return true
//	})
//
// Segments are produced one at a time via the callback; stopping early is
// always safe. Each GenSegments call performs an independent traversal, but
// calls on the same instance must not be interleaved from multiple
// goroutines.
package pipeline

import (
	"slices"

	charmlog "github.com/charmbracelet/log"

	"github.com/NerdToMars/nn-dataflow/pkg/errors"
	"github.com/NerdToMars/nn-dataflow/pkg/network"
)

// InterLayerPipeline owns the frozen scheduling DAG of a network and
// enumerates candidate pipeline segments over it.
//
// The instance is immutable after New, so construction products (vertex
// list, adjacency, layer order) may be read concurrently. Enumeration state
// lives in per-call contexts.
type InterLayerPipeline struct {
	network     *network.Network
	batchSize   int
	resource    Resource
	maxUtilDrop float64
	validator   Validator
	logger      *charmlog.Logger
	dag         *schedDAG
}

// New builds the scheduling DAG for the network and validates the
// configuration. A nil validator defaults to AcceptAll.
//
// Fails with an INVALID_* error for a nil or empty network, a non-positive
// batch size or resource budget, or a utilization drop outside [0, 1], and
// with a STRUCTURE_* error if the layer graph has a cycle or a layer
// unreachable from the network input.
func New(net *network.Network, batchSize int, res Resource, maxUtilDrop float64, v Validator) (*InterLayerPipeline, error) {
	if net == nil || net.Len() == 0 {
		return nil, errors.New(errors.ErrCodeInvalidNetwork, "network must contain at least one layer")
	}
	if batchSize < 1 {
		return nil, errors.New(errors.ErrCodeInvalidBatch, "batch size must be positive, got %d", batchSize)
	}
	if res.ProcNodes < 1 || res.GbufSize < 1 {
		return nil, errors.New(errors.ErrCodeInvalidResource,
			"resource must have positive node count and buffer size")
	}
	if err := errors.ValidateUtilDrop(maxUtilDrop); err != nil {
		return nil, err
	}
	if v == nil {
		v = AcceptAll{}
	}

	dag, err := buildSchedDAG(net)
	if err != nil {
		return nil, err
	}

	return &InterLayerPipeline{
		network:     net,
		batchSize:   batchSize,
		resource:    res,
		maxUtilDrop: maxUtilDrop,
		validator:   v,
		logger:      charmlog.Default(),
		dag:         dag,
	}, nil
}

// SetLogger replaces the logger used for enumeration progress. Passing nil
// restores the default logger.
func (p *InterLayerPipeline) SetLogger(l *charmlog.Logger) {
	if l == nil {
		l = charmlog.Default()
	}
	p.logger = l
}

// OrderedLayerList returns all layer names flattened in scheduling order:
// vertex by vertex in topological order, preserving each vertex's internal
// layer order.
func (p *InterLayerPipeline) OrderedLayerList() []string {
	var out []string
	for _, v := range p.dag.vertices {
		out = append(out, v...)
	}
	return out
}

// NumVertices returns the number of scheduling vertices.
func (p *InterLayerPipeline) NumVertices() int { return len(p.dag.vertices) }

// Vertices returns the scheduling vertices in topological order.
// The returned slices are copies and may be modified freely.
func (p *InterLayerPipeline) Vertices() []Vertex {
	out := make([]Vertex, len(p.dag.vertices))
	for i, v := range p.dag.vertices {
		out[i] = slices.Clone(v)
	}
	return out
}

// VertexPrevs returns the sorted predecessor indices of a vertex, possibly
// including InputVertex.
func (p *InterLayerPipeline) VertexPrevs(vidx int) []int {
	return sortedIndices(p.dag.prevs[vidx])
}

// VertexNexts returns the sorted successor indices of a vertex.
func (p *InterLayerPipeline) VertexNexts(vidx int) []int {
	return sortedIndices(p.dag.nexts[vidx])
}

// InputNexts returns the sorted indices of the vertices consuming the
// network input directly.
func (p *InterLayerPipeline) InputNexts() []int {
	return sortedIndices(p.dag.inputNexts)
}

// GenSegments enumerates accepted pipeline segments, invoking fn for each
// until fn returns false or the enumeration is exhausted. It returns the
// number of segments fn received.
//
// The trivial single-layer segment of every layer is produced first, then
// the spatial and/or temporal materializations of each enumerated vertex
// segment, according to opts. Structurally identical candidates are emitted
// once per call; every candidate passes through the validator, and only
// accepted segments reach fn.
//
// Each call performs an independent traversal with fresh exploration state,
// so the sequence is restartable. Calls on the same instance must not be
// interleaved.
//
// An INTERNAL_ERROR is returned if enumeration detects a broken invariant;
// segments already delivered remain valid.
func (p *InterLayerPipeline) GenSegments(opts Options, fn func(seg *Segment) bool) (int, error) {
	count := 0
	seen := make(map[string]struct{})

	// yield dedups, validates, and forwards one candidate. Returns false
	// when fn signaled stop.
	yield := func(stages [][]string) bool {
		key := stageKey(stages)
		if _, dup := seen[key]; dup {
			return true
		}
		seen[key] = struct{}{}

		seg := &Segment{
			Stages:      stages,
			Network:     p.network,
			BatchSize:   p.batchSize,
			Resource:    p.resource,
			MaxUtilDrop: p.maxUtilDrop,
		}
		if !p.validator.Validate(seg) {
			return true
		}
		count++
		return fn(seg)
	}

	// No pipelining: each layer sequentially occupies the whole resource.
	for _, name := range p.network.Layers() {
		if !yield([][]string{{name}}) {
			return count, nil
		}
	}

	ctx := newEnumContext(p.dag)
	done := newIndexSet(InputVertex)
	_, err := ctx.genVSegs(0, done, func(vseg []int) bool {
		if opts.PartitionInterLayer {
			stages := make([][]string, len(vseg))
			for i, vidx := range vseg {
				stages[i] = slices.Clone(p.dag.vertices[vidx])
			}
			if !yield(stages) {
				return false
			}
		}
		if opts.HWGbufSaveWriteback {
			var flat []string
			for _, vidx := range vseg {
				flat = append(flat, p.dag.vertices[vidx]...)
			}
			if !yield([][]string{flat}) {
				return false
			}
		}
		return true
	})
	if err != nil {
		return count, err
	}

	p.logger.Debug("enumerated pipeline segments",
		"network", p.network.Name(), "vertices", len(p.dag.vertices), "segments", count)
	return count, nil
}

func sortedIndices(s indexSet) []int {
	out := make([]int, 0, len(s))
	for i := range s {
		out = append(out, i)
	}
	slices.Sort(out)
	return out
}
