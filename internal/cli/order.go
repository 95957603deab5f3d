package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// newOrderCmd creates the order command for printing the scheduling order.
func newOrderCmd() *cobra.Command {
	var asJSON bool
	opts := defaultPipelineOpts()

	cmd := &cobra.Command{
		Use:   "order <network.toml>",
		Short: "Print the layers in scheduling order",
		Long: `Print the layers of a network in scheduling (topological) order.

Weight-free layers that were merged into a predecessor's scheduling vertex
are listed within that vertex. The flat layer order is the order in which a
scheduler would process the network.

Examples:
  nndataflow order alexnet.toml
  nndataflow order alexnet.toml --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			net, p, err := loadPipeline(args[0], opts)
			if err != nil {
				return err
			}

			if asJSON {
				doc := struct {
					Layers   []string   `json:"layers"`
					Vertices [][]string `json:"vertices"`
				}{Layers: p.OrderedLayerList()}
				for _, v := range p.Vertices() {
					doc.Vertices = append(doc.Vertices, v)
				}
				out, err := json.MarshalIndent(doc, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
				return nil
			}

			fmt.Println(StyleTitle.Render(net.Name()))
			printStats(net.Len(), p.NumVertices())
			for vidx, v := range p.Vertices() {
				fmt.Printf("%s %s\n",
					StyleNumber.Render(fmt.Sprintf("v%d", vidx)),
					StyleValue.Render(strings.Join(v, " "+iconArrow+" ")))
			}
			return nil
		},
	}

	opts.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON instead of styled text")
	return cmd
}
