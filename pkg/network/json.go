package network

import (
	"bytes"
	"encoding/json"

	"github.com/NerdToMars/nn-dataflow/pkg/errors"
)

// jsonDoc is the wire format used by the HTTP API and CLI --json output.
// Layers are listed in declaration order so the round trip is stable.
type jsonDoc struct {
	Name   string      `json:"name"`
	Layers []jsonLayer `json:"layers"`
}

type jsonLayer struct {
	Name  string            `json:"name"`
	Kind  string            `json:"kind"`
	Prevs []string          `json:"prevs,omitempty"`
	Meta  map[string]string `json:"meta,omitempty"`
}

// MarshalNetwork converts a network to JSON bytes.
// Layers appear in declaration order for deterministic output.
func MarshalNetwork(n *Network) ([]byte, error) {
	doc := jsonDoc{Name: n.Name()}
	for _, name := range n.Layers() {
		l, _ := n.Layer(name)
		jl := jsonLayer{Name: name, Kind: l.Kind.String(), Meta: l.Meta}
		for _, p := range n.Prevs(name) {
			if p != InputLayerKey {
				jl.Prevs = append(jl.Prevs, p)
			}
		}
		doc.Layers = append(doc.Layers, jl)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode network")
	}
	return buf.Bytes(), nil
}

// UnmarshalNetwork decodes a JSON network document.
// Returns validation errors for malformed documents or layer constraint
// violations (duplicate names, undeclared predecessors).
func UnmarshalNetwork(data []byte) (*Network, error) {
	var doc jsonDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode network")
	}
	if len(doc.Layers) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidNetwork, "network has no layers")
	}

	n := New(doc.Name)
	for _, jl := range doc.Layers {
		kind, err := ParseLayerKind(jl.Kind)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "layer %s", jl.Name)
		}
		if err := n.AddLayer(Layer{Name: jl.Name, Kind: kind, Meta: jl.Meta}, jl.Prevs...); err != nil {
			return nil, err
		}
	}
	return n, nil
}
