package api

import "encoding/json"

// enumRequest is the body of POST /v1/segments and /v1/order. The network
// field uses the same document format as pkg/network's JSON codec.
type enumRequest struct {
	Network     json.RawMessage `json:"network"`
	BatchSize   int             `json:"batch_size"`
	Resource    resourceDoc     `json:"resource"`
	MaxUtilDrop float64         `json:"max_util_drop"`
	Options     optionsDoc      `json:"options"`
}

type resourceDoc struct {
	ProcNodes int   `json:"proc_nodes"`
	GbufSize  int64 `json:"gbuf_size"`
}

type optionsDoc struct {
	PartitionInterLayer bool `json:"partition_interlayer"`
	HWGbufSaveWriteback bool `json:"hw_gbuf_save_writeback"`
}

type segmentDoc struct {
	Stages [][]string `json:"stages"`
}

type segmentsResponse struct {
	RunID     string       `json:"run_id"`
	Count     int          `json:"count"`
	Truncated bool         `json:"truncated,omitempty"`
	Segments  []segmentDoc `json:"segments"`
}

type orderResponse struct {
	RunID    string     `json:"run_id"`
	Layers   []string   `json:"layers"`
	Vertices [][]string `json:"vertices"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
