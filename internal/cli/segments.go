package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/NerdToMars/nn-dataflow/pkg/pipeline"
)

// segmentsOpts holds the command-line flags for the segments command.
type segmentsOpts struct {
	pipelineOpts
	spatial  bool   // materialize one stage per vertex
	temporal bool   // materialize flattened single-stage candidates
	limit    int    // stop after this many segments (0 = no limit)
	output   string // output file path (stdout if empty)
}

// newSegmentsCmd creates the segments command for enumerating pipeline
// segments.
func newSegmentsCmd() *cobra.Command {
	opts := segmentsOpts{pipelineOpts: defaultPipelineOpts(), spatial: true, temporal: true}

	cmd := &cobra.Command{
		Use:   "segments <network.toml>",
		Short: "Enumerate valid inter-layer pipeline segments",
		Long: `Enumerate every structurally valid inter-layer pipeline segment of a network.

Each segment groups consecutive scheduling vertices so their intermediate
results stay resident on the accelerator. The trivial single-layer segments
are always produced; --spatial adds one-stage-per-vertex candidates and
--temporal adds flattened single-stage candidates.

Examples:
  nndataflow segments alexnet.toml
  nndataflow segments alexnet.toml --temporal=false --limit 100
  nndataflow segments alexnet.toml -o segments.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSegments(cmd.Context(), args[0], opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().BoolVar(&opts.spatial, "spatial", opts.spatial, "materialize spatial candidates (one stage per vertex)")
	cmd.Flags().BoolVar(&opts.temporal, "temporal", opts.temporal, "materialize temporal candidates (single flattened stage)")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "stop after this many segments (0 = unlimited)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write JSON results to file instead of stdout")
	return cmd
}

func runSegments(ctx context.Context, input string, opts segmentsOpts) error {
	logger := loggerFromContext(ctx)
	net, p, err := loadPipeline(input, opts.pipelineOpts)
	if err != nil {
		return err
	}
	p.SetLogger(logger)
	logger.Debug("built scheduling DAG", "network", net.Name(), "layers", net.Len(), "vertices", p.NumVertices())

	genOpts := pipeline.Options{
		PartitionInterLayer: opts.spatial,
		HWGbufSaveWriteback: opts.temporal,
	}

	spinner := newSpinnerWithContext(ctx, "Enumerating segments...")
	spinner.Start()
	prog := newProgress(logger)

	var segments [][][]string
	count, err := p.GenSegments(genOpts, func(seg *pipeline.Segment) bool {
		segments = append(segments, seg.Stages)
		return opts.limit <= 0 || len(segments) < opts.limit
	})
	if err != nil {
		spinner.StopWithError("Enumeration failed")
		return err
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Enumerated %d segments", count))

	if opts.output != "" {
		return writeSegmentsFile(opts.output, net.Name(), segments)
	}

	fmt.Println(StyleTitle.Render(net.Name()))
	printStats(net.Len(), p.NumVertices())
	for i, stages := range segments {
		fmt.Printf("%s %s\n",
			StyleNumber.Render(fmt.Sprintf("%4d", i)),
			StyleValue.Render(fmtStages(stages)))
	}
	printInfo("%d segments", count)
	return nil
}

// fmtStages renders stages as "[a b | c]": stages separated by pipes, layers
// by spaces.
func fmtStages(stages [][]string) string {
	parts := make([]string, len(stages))
	for i, stage := range stages {
		parts[i] = strings.Join(stage, " ")
	}
	return "[" + strings.Join(parts, " | ") + "]"
}

func writeSegmentsFile(path, name string, segments [][][]string) error {
	doc := struct {
		RunID    string       `json:"run_id"`
		Network  string       `json:"network"`
		Segments []segmentDoc `json:"segments"`
	}{RunID: uuid.NewString(), Network: name}
	for _, stages := range segments {
		doc.Segments = append(doc.Segments, segmentDoc{Stages: stages})
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(out, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	printSuccess("Wrote %d segments", len(segments))
	printFile(path)
	return nil
}

type segmentDoc struct {
	Stages [][]string `json:"stages"`
}
