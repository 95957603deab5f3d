// Package render converts a scheduling DAG into Graphviz node-link diagrams.
//
// Each scheduling vertex is drawn as a box listing its merged layers; the
// sentinel input vertex is drawn dashed to mark it as synthetic. The DOT
// output can be rendered to SVG with [RenderSVG].
package render

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/NerdToMars/nn-dataflow/pkg/pipeline"
)

// Options configures scheduling-DAG rendering.
type Options struct {
	// Detailed includes vertex indices in node labels.
	// When false, only the layer names are shown.
	Detailed bool
}

const inputNodeID = "input"

// ToDOT converts a pipeline's scheduling DAG to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG].
func ToDOT(p *pipeline.InterLayerPipeline, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=24, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	fmt.Fprintf(&buf, "  %q [label=\"input\", style=\"rounded,filled,dashed\", fillcolor=lightgrey];\n", inputNodeID)
	for vidx, v := range p.Vertices() {
		fmt.Fprintf(&buf, "  %q [label=%q];\n", nodeID(vidx), fmtLabel(vidx, v, opts.Detailed))
	}

	buf.WriteString("\n")
	for _, vidx := range p.InputNexts() {
		fmt.Fprintf(&buf, "  %q -> %q;\n", inputNodeID, nodeID(vidx))
	}
	for vidx := range p.NumVertices() {
		for _, nvidx := range p.VertexNexts(vidx) {
			fmt.Fprintf(&buf, "  %q -> %q;\n", nodeID(vidx), nodeID(nvidx))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeID(vidx int) string {
	return fmt.Sprintf("v%d", vidx)
}

func fmtLabel(vidx int, v pipeline.Vertex, detailed bool) string {
	label := strings.Join(v, "\n")
	if detailed {
		label = fmt.Sprintf("v%d\n%s", vidx, label)
	}
	return label
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
