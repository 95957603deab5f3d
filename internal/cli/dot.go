package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/NerdToMars/nn-dataflow/pkg/render"
)

// newDotCmd creates the dot command for rendering the scheduling DAG.
func newDotCmd() *cobra.Command {
	var (
		svg      bool
		output   string
		detailed bool
	)
	opts := defaultPipelineOpts()

	cmd := &cobra.Command{
		Use:   "dot <network.toml>",
		Short: "Render the scheduling DAG as DOT or SVG",
		Long: `Render a network's scheduling DAG in Graphviz DOT format.

Each box is one scheduling vertex listing its merged layers; the dashed node
is the network input. With --svg the DOT graph is rendered through Graphviz.

Examples:
  nndataflow dot alexnet.toml
  nndataflow dot alexnet.toml --svg -o alexnet.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, p, err := loadPipeline(args[0], opts)
			if err != nil {
				return err
			}

			dot := render.ToDOT(p, render.Options{Detailed: detailed})

			var data []byte
			if svg {
				data, err = render.RenderSVG(dot)
				if err != nil {
					return fmt.Errorf("render SVG: %w", err)
				}
			} else {
				data = []byte(dot)
			}

			if output == "" {
				fmt.Print(string(data))
				return nil
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			printSuccess("Rendered scheduling DAG")
			printFile(output)
			return nil
		},
	}

	opts.register(cmd)
	cmd.Flags().BoolVar(&svg, "svg", false, "render SVG instead of DOT")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include vertex indices in labels")
	return cmd
}
