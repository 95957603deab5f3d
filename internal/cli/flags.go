package cli

import (
	"github.com/spf13/cobra"

	"github.com/NerdToMars/nn-dataflow/pkg/network"
	"github.com/NerdToMars/nn-dataflow/pkg/pipeline"
)

// pipelineOpts holds the flags shared by every command that builds a
// pipeline from a network definition file.
type pipelineOpts struct {
	batchSize   int
	procNodes   int
	gbufSize    int64
	maxUtilDrop float64
}

func (o *pipelineOpts) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&o.batchSize, "batch", "b", o.batchSize, "batch size")
	cmd.Flags().IntVar(&o.procNodes, "nodes", o.procNodes, "number of processing nodes")
	cmd.Flags().Int64Var(&o.gbufSize, "gbuf", o.gbufSize, "global buffer capacity in bytes")
	cmd.Flags().Float64Var(&o.maxUtilDrop, "max-util-drop", o.maxUtilDrop, "maximum utilization drop ratio, between 0 and 1")
}

func defaultPipelineOpts() pipelineOpts {
	return pipelineOpts{
		batchSize:   64,
		procNodes:   16,
		gbufSize:    1 << 20,
		maxUtilDrop: 0.05,
	}
}

// loadPipeline reads a network definition file and constructs the pipeline.
func loadPipeline(path string, o pipelineOpts) (*network.Network, *pipeline.InterLayerPipeline, error) {
	net, err := network.ReadNetworkFile(path)
	if err != nil {
		return nil, nil, err
	}

	res := pipeline.Resource{ProcNodes: o.procNodes, GbufSize: o.gbufSize}
	p, err := pipeline.New(net, o.batchSize, res, o.maxUtilDrop, nil)
	if err != nil {
		return nil, nil, err
	}
	return net, p, nil
}
