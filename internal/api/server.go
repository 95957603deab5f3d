// Package api exposes segment enumeration over HTTP.
//
// The service is stateless: every request carries a complete network
// definition, and the scheduling DAG is rebuilt per request. Endpoints:
//
//	POST /v1/segments  enumerate accepted pipeline segments
//	POST /v1/order     return the scheduling order of the layers
//	GET  /healthz      liveness probe
package api

import (
	"encoding/json"
	"net/http"

	charmlog "github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/NerdToMars/nn-dataflow/pkg/errors"
	"github.com/NerdToMars/nn-dataflow/pkg/network"
	"github.com/NerdToMars/nn-dataflow/pkg/pipeline"
)

// MaxSegments caps the number of segments a single request may return, so a
// pathological network cannot hold a connection open indefinitely.
const MaxSegments = 100000

// Server handles enumeration requests.
type Server struct {
	logger *charmlog.Logger
	router chi.Router
}

// NewServer creates a server with the given logger. A nil logger uses the
// default.
func NewServer(logger *charmlog.Logger) *Server {
	if logger == nil {
		logger = charmlog.Default()
	}
	s := &Server{logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Post("/v1/segments", s.handleSegments)
	r.Post("/v1/order", s.handleOrder)
	s.router = r

	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSegments(w http.ResponseWriter, r *http.Request) {
	net, p, reqOpts, ok := s.buildPipeline(w, r)
	if !ok {
		return
	}

	opts := pipeline.Options{
		PartitionInterLayer: reqOpts.PartitionInterLayer,
		HWGbufSaveWriteback: reqOpts.HWGbufSaveWriteback,
	}

	resp := segmentsResponse{RunID: uuid.NewString()}
	truncated := false
	count, err := p.GenSegments(opts, func(seg *pipeline.Segment) bool {
		resp.Segments = append(resp.Segments, segmentDoc{Stages: seg.Stages})
		if len(resp.Segments) >= MaxSegments {
			truncated = true
			return false
		}
		return true
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp.Count = count
	resp.Truncated = truncated

	s.logger.Info("enumerated segments",
		"run_id", resp.RunID, "network", net.Name(), "count", count, "truncated", truncated)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	net, p, _, ok := s.buildPipeline(w, r)
	if !ok {
		return
	}

	resp := orderResponse{
		RunID:  uuid.NewString(),
		Layers: p.OrderedLayerList(),
	}
	for _, v := range p.Vertices() {
		resp.Vertices = append(resp.Vertices, []string(v))
	}

	s.logger.Info("computed scheduling order",
		"run_id", resp.RunID, "network", net.Name(), "layers", len(resp.Layers))
	writeJSON(w, http.StatusOK, resp)
}

// buildPipeline decodes the request and constructs the pipeline, writing the
// error response itself when something fails.
func (s *Server) buildPipeline(w http.ResponseWriter, r *http.Request) (*network.Network, *pipeline.InterLayerPipeline, optionsDoc, bool) {
	var req enumRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode request"))
		return nil, nil, optionsDoc{}, false
	}
	if len(req.Network) == 0 {
		s.writeError(w, errors.New(errors.ErrCodeInvalidNetwork, "request has no network"))
		return nil, nil, optionsDoc{}, false
	}

	net, err := network.UnmarshalNetwork(req.Network)
	if err != nil {
		s.writeError(w, err)
		return nil, nil, optionsDoc{}, false
	}

	res := pipeline.Resource{ProcNodes: req.Resource.ProcNodes, GbufSize: req.Resource.GbufSize}
	p, err := pipeline.New(net, req.BatchSize, res, req.MaxUtilDrop, nil)
	if err != nil {
		s.writeError(w, err)
		return nil, nil, optionsDoc{}, false
	}
	p.SetLogger(s.logger)
	return net, p, req.Options, true
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	if errors.GetCode(err) == errors.ErrCodeInternal {
		status = http.StatusInternalServerError
	}
	s.logger.Warn("request failed", "code", errors.GetCode(err), "error", errors.UserMessage(err))
	writeJSON(w, status, errorResponse{
		Code:    string(errors.GetCode(err)),
		Message: errors.UserMessage(err),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
