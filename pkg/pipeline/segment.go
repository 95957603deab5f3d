package pipeline

import (
	"strings"

	"github.com/NerdToMars/nn-dataflow/pkg/network"
)

// Options selects which materializations GenSegments produces for each
// enumerated vertex segment.
type Options struct {
	// PartitionInterLayer enables spatial pipelining: each vertex becomes
	// its own stage, stages run concurrently on separate resource slices.
	PartitionInterLayer bool
	// HWGbufSaveWriteback enables temporal pipelining: all vertices flatten
	// into a single stage that keeps intermediates in the global buffer
	// instead of writing them back to memory.
	HWGbufSaveWriteback bool
}

// Resource describes the hardware budget a segment is allocated on. The
// pipeline core stores and forwards it to the validator without examining
// it.
type Resource struct {
	ProcNodes int   // number of processing nodes
	GbufSize  int64 // global buffer capacity in bytes
}

// Segment is a candidate pipeline segment: one or more stages, each an
// ordered tuple of layer names scheduled together, plus the allocation
// context the validator needs.
type Segment struct {
	Stages      [][]string
	Network     *network.Network
	BatchSize   int
	Resource    Resource
	MaxUtilDrop float64
}

// Validator decides whether a candidate segment is worth evaluating further,
// typically by checking that a resource allocation exists within the
// utilization-drop budget. The pipeline core treats it as a black box;
// rejection is a normal outcome, not an error.
type Validator interface {
	Validate(seg *Segment) bool
}

// AcceptAll is a Validator that accepts every candidate. It is the default
// when no validator is supplied.
type AcceptAll struct{}

// Validate implements Validator.
func (AcceptAll) Validate(*Segment) bool { return true }

// Layer names cannot contain control characters, so ASCII separators give a
// collision-free canonical identity for deduplication.
const (
	layerSep = "\x1f"
	stageSep = "\x1e"
)

func stageKey(stages [][]string) string {
	var b strings.Builder
	for _, stage := range stages {
		b.WriteString(strings.Join(stage, layerSep))
		b.WriteString(stageSep)
	}
	return b.String()
}
