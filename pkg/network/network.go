// Package network defines the layer graph consumed by the pipeline core.
//
// A Network is an ordered collection of named layers together with their
// producer/consumer relationships. Layers come in two kinds: filtered layers
// own trainable weights and always schedule as their own unit, while
// mergeable layers (activations, pooling, element-wise ops) carry no weights
// and may be folded into a predecessor during scheduling.
//
// Networks are built incrementally with AddLayer, loaded from TOML
// definition files with ReadNetworkFile, or decoded from JSON with
// UnmarshalNetwork. Once handed to the pipeline core a Network must not be
// mutated.
package network

import (
	"slices"

	"github.com/NerdToMars/nn-dataflow/pkg/errors"
)

// InputLayerKey is the reserved name denoting the network's external input.
// It cannot be used as a layer name; it appears in predecessor sets of
// layers that consume the network input directly.
const InputLayerKey = "__INPUT__"

// LayerKind distinguishes the two scheduling behaviors of a layer.
type LayerKind int

const (
	// KindFiltered marks a layer that owns trainable weights (convolution,
	// fully-connected). Filtered layers never merge into a predecessor.
	KindFiltered LayerKind = iota
	// KindMergeable marks a weight-free layer (pooling, activation,
	// element-wise) that may be folded into a predecessor's scheduling unit.
	KindMergeable
)

// String returns the kind name used in definition files.
func (k LayerKind) String() string {
	switch k {
	case KindFiltered:
		return "filtered"
	case KindMergeable:
		return "mergeable"
	}
	return "unknown"
}

// ParseLayerKind converts a definition-file kind string into a LayerKind.
func ParseLayerKind(s string) (LayerKind, error) {
	switch s {
	case "filtered":
		return KindFiltered, nil
	case "mergeable":
		return KindMergeable, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidFormat, "unknown layer kind: %q", s)
}

// Layer is a named computational stage of a network. Meta carries free-form
// descriptive attributes (channel counts, kernel sizes); the scheduling core
// never examines it.
type Layer struct {
	Name string
	Kind LayerKind
	Meta map[string]string
}

// Mergeable reports whether the layer may fold into a predecessor's
// scheduling unit.
func (l Layer) Mergeable() bool { return l.Kind == KindMergeable }

// Network is an ordered collection of layers keyed by name.
//
// The zero value is not usable; use New to create instances. Network is not
// safe for concurrent mutation; it is safe for concurrent reads once built.
type Network struct {
	name   string
	order  []string // declaration order
	layers map[string]Layer
	prevs  map[string][]string // predecessor names, insertion order
	nexts  map[string][]string // successor names, insertion order
}

// New creates an empty network with the given name.
func New(name string) *Network {
	return &Network{
		name:   name,
		layers: make(map[string]Layer),
		prevs:  make(map[string][]string),
		nexts:  make(map[string][]string),
	}
}

// Name returns the network name.
func (n *Network) Name() string { return n.name }

// Len returns the number of layers.
func (n *Network) Len() int { return len(n.order) }

// AddLayer appends a layer with the given predecessors. An empty prevs list
// means the layer consumes the network's external input.
//
// Returns an INVALID_LAYER error if the name is invalid, reserved, or
// duplicate, or if any predecessor has not been declared yet. Requiring
// predecessors to be declared first keeps declaration order a valid
// topological order of the layer graph.
func (n *Network) AddLayer(l Layer, prevs ...string) error {
	if err := errors.ValidateLayerName(l.Name); err != nil {
		return err
	}
	if l.Name == InputLayerKey {
		return errors.New(errors.ErrCodeInvalidLayer, "layer name %q is reserved", l.Name)
	}
	if _, exists := n.layers[l.Name]; exists {
		return errors.New(errors.ErrCodeInvalidLayer, "duplicate layer name: %s", l.Name)
	}

	if len(prevs) == 0 {
		prevs = []string{InputLayerKey}
	}
	for _, p := range prevs {
		if p == l.Name {
			return errors.New(errors.ErrCodeInvalidLayer, "layer %s cannot be its own predecessor", l.Name)
		}
		if p == InputLayerKey {
			continue
		}
		if _, ok := n.layers[p]; !ok {
			return errors.New(errors.ErrCodeInvalidLayer, "layer %s: unknown predecessor %s", l.Name, p)
		}
	}
	if hasDuplicates(prevs) {
		return errors.New(errors.ErrCodeInvalidLayer, "layer %s: duplicate predecessor", l.Name)
	}

	n.layers[l.Name] = l
	n.order = append(n.order, l.Name)
	n.prevs[l.Name] = slices.Clone(prevs)
	for _, p := range prevs {
		if p == InputLayerKey {
			continue
		}
		n.nexts[p] = append(n.nexts[p], l.Name)
	}
	return nil
}

// Layers returns all layer names in declaration order.
// The returned slice is a copy and may be modified freely.
func (n *Network) Layers() []string { return slices.Clone(n.order) }

// Layer returns the layer with the given name and true, or a zero Layer and
// false if not found.
func (n *Network) Layer(name string) (Layer, bool) {
	l, ok := n.layers[name]
	return l, ok
}

// Prevs returns the predecessor names of a layer in declaration order.
// Layers consuming the network input report InputLayerKey among their
// predecessors. Returns nil for an unknown layer.
func (n *Network) Prevs(name string) []string { return slices.Clone(n.prevs[name]) }

// Nexts returns the successor names of a layer in declaration order.
// Returns nil for a layer with no consumers.
func (n *Network) Nexts(name string) []string { return slices.Clone(n.nexts[name]) }

// FirstLayers returns, in declaration order, the layers whose only
// predecessor is the network input. These are the entry points of the layer
// graph.
func (n *Network) FirstLayers() []string {
	var firsts []string
	for _, name := range n.order {
		if len(n.prevs[name]) == 1 && n.prevs[name][0] == InputLayerKey {
			firsts = append(firsts, name)
		}
	}
	return firsts
}

func hasDuplicates(names []string) bool {
	seen := make(map[string]struct{}, len(names))
	for _, s := range names {
		if _, ok := seen[s]; ok {
			return true
		}
		seen[s] = struct{}{}
	}
	return false
}
