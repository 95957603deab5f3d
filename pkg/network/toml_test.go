package network

import (
	"slices"
	"strings"
	"testing"

	"github.com/NerdToMars/nn-dataflow/pkg/errors"
)

const sampleTOML = `
name = "tiny"

[[layers]]
name = "conv1"
kind = "filtered"

[[layers]]
name = "pool1"
kind = "mergeable"
prevs = ["conv1"]

[[layers]]
name = "fc"
kind = "filtered"
prevs = ["pool1"]
`

func TestReadNetwork(t *testing.T) {
	n, err := ReadNetwork(strings.NewReader(sampleTOML))
	if err != nil {
		t.Fatalf("ReadNetwork() = %v", err)
	}

	if n.Name() != "tiny" {
		t.Errorf("Name() = %q, want tiny", n.Name())
	}
	if got := n.Layers(); !slices.Equal(got, []string{"conv1", "pool1", "fc"}) {
		t.Errorf("Layers() = %v", got)
	}

	pool, ok := n.Layer("pool1")
	if !ok || pool.Kind != KindMergeable {
		t.Errorf("Layer(pool1) = %+v, %v, want mergeable", pool, ok)
	}
	if got := n.Prevs("conv1"); !slices.Equal(got, []string{InputLayerKey}) {
		t.Errorf("Prevs(conv1) = %v, want input", got)
	}
	if got := n.Nexts("pool1"); !slices.Equal(got, []string{"fc"}) {
		t.Errorf("Nexts(pool1) = %v, want [fc]", got)
	}
}

func TestReadNetwork_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		code errors.Code
	}{
		{
			name: "empty document",
			doc:  `name = "empty"`,
			code: errors.ErrCodeInvalidNetwork,
		},
		{
			name: "bad kind",
			doc: `
[[layers]]
name = "conv1"
kind = "conv"
`,
			code: errors.ErrCodeInvalidFormat,
		},
		{
			name: "unknown predecessor",
			doc: `
[[layers]]
name = "conv1"
kind = "filtered"
prevs = ["missing"]
`,
			code: errors.ErrCodeInvalidLayer,
		},
		{
			name: "not toml",
			doc:  `{"layers": []}`,
			code: errors.ErrCodeInvalidFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadNetwork(strings.NewReader(tt.doc))
			if err == nil {
				t.Fatal("ReadNetwork() = nil, want error")
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("code = %v, want %v", errors.GetCode(err), tt.code)
			}
		})
	}
}

func TestReadNetworkFile_Missing(t *testing.T) {
	_, err := ReadNetworkFile("does/not/exist.toml")
	if err == nil {
		t.Fatal("ReadNetworkFile() = nil, want error")
	}
	if !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidPath)
	}
}
