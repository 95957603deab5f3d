package network

import (
	"io"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/NerdToMars/nn-dataflow/pkg/errors"
)

// tomlDoc mirrors the TOML network definition format:
//
//	name = "alexnet"
//
//	[[layers]]
//	name = "conv1"
//	kind = "filtered"
//
//	[[layers]]
//	name = "pool1"
//	kind = "mergeable"
//	prevs = ["conv1"]
//
// A layer without prevs consumes the network's external input. Layers must
// be declared after all of their predecessors.
type tomlDoc struct {
	Name   string      `toml:"name"`
	Layers []tomlLayer `toml:"layers"`
}

type tomlLayer struct {
	Name  string            `toml:"name"`
	Kind  string            `toml:"kind"`
	Prevs []string          `toml:"prevs"`
	Meta  map[string]string `toml:"meta"`
}

// ReadNetworkFile reads a TOML network definition file.
func ReadNetworkFile(path string) (*Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "open %s", path)
	}
	defer f.Close()
	return ReadNetwork(f)
}

// ReadNetwork decodes a TOML network definition from an io.Reader.
// Use ReadNetworkFile for files or pass strings.NewReader for in-memory data.
func ReadNetwork(r io.Reader) (*Network, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read network definition")
	}

	var doc tomlDoc
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode network definition")
	}
	return buildNetwork(doc.Name, doc.Layers)
}

func buildNetwork(name string, layers []tomlLayer) (*Network, error) {
	if len(layers) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidNetwork, "network definition has no layers")
	}

	n := New(name)
	for _, l := range layers {
		kind, err := ParseLayerKind(l.Kind)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "layer %s", l.Name)
		}
		if err := n.AddLayer(Layer{Name: l.Name, Kind: kind, Meta: l.Meta}, l.Prevs...); err != nil {
			return nil, err
		}
	}
	return n, nil
}
