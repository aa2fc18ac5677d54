package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/gardenflow/pkg/buildinfo"
	"github.com/matzehuels/gardenflow/pkg/cache"
	"github.com/matzehuels/gardenflow/pkg/errors"
	"github.com/matzehuels/gardenflow/pkg/flow"
	"github.com/matzehuels/gardenflow/pkg/garden"
	"github.com/matzehuels/gardenflow/pkg/pipeline"
	"github.com/matzehuels/gardenflow/pkg/render/nodelink"
)

// =============================================================================
// Request and Response Types
// =============================================================================

// FlowRequest is the body of POST /v1/flow.
type FlowRequest struct {
	Schema  json.RawMessage `json:"schema"`
	Options json.RawMessage `json:"options,omitempty"`
}

// FlowResponse is a positioned flow graph.
type FlowResponse struct {
	RequestID   string     `json:"request_id"`
	Garden      string     `json:"garden"`
	GardenHash  string     `json:"garden_hash"`
	Graph       flow.Graph `json:"graph"`
	Width       float64    `json:"width"`
	Height      float64    `json:"height"`
	Fallback    bool       `json:"fallback"`
	LayoutError string     `json:"layout_error,omitempty"`
	Stats       FlowStats  `json:"stats"`
	Cache       FlowCache  `json:"cache"`
}

// FlowStats reports graph size and stage timings.
type FlowStats struct {
	Nodes    int   `json:"nodes"`
	Edges    int   `json:"edges"`
	BuildMS  int64 `json:"build_ms"`
	LayoutMS int64 `json:"layout_ms"`
}

// FlowCache reports which stages were served from cache.
type FlowCache struct {
	Flow   bool `json:"flow"`
	Layout bool `json:"layout"`
}

// GardenSummary is one entry of GET /v1/gardens.
type GardenSummary struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
	Entities    int    `json:"entities"`
}

// ValidateResponse is the body of POST /v1/validate.
type ValidateResponse struct {
	Valid  bool           `json:"valid"`
	Garden string         `json:"garden,omitempty"`
	Error  *errorDetail   `json:"error,omitempty"`
	Issues []garden.Issue `json:"issues"`
}

// NavigateRequest is the body of POST /v1/navigate.
type NavigateRequest struct {
	Node    *flow.Node      `json:"node"`
	Options json.RawMessage `json:"options,omitempty"`
}

// NavigateResponse carries the graph rebuilt at the navigation target.
type NavigateResponse struct {
	Garden string        `json:"garden"`
	From   string        `json:"from"`
	Via    flow.Relation `json:"via,omitempty"`
	Flow   FlowResponse  `json:"flow"`
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": buildinfo.Version,
		"gardens": len(s.snapshot().Names()),
	})
}

func (s *Server) handleFlow(w http.ResponseWriter, r *http.Request) {
	var req FlowRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(req.Schema) == 0 {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "missing schema"))
		return
	}
	root, err := garden.Parse(req.Schema)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts, err := s.options(req.Options)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	key := cache.Hash(req.Schema) + ":" + optionsKey(opts)
	res, err := s.visualize(r.Context(), key, root, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, s.flowResponse(r.Context(), root, res))
}

func (s *Server) handleGardens(w http.ResponseWriter, r *http.Request) {
	reg := s.snapshot()
	names := reg.Names()
	out := make([]GardenSummary, 0, len(names))
	for _, name := range names {
		g, ok := reg.Lookup(name)
		if !ok {
			continue
		}
		out = append(out, GardenSummary{
			Name:        g.Name,
			Version:     g.Version,
			Description: g.Description,
			Entities:    g.EntityCount(),
		})
	}
	s.writeJSON(w, r, http.StatusOK, map[string]any{"gardens": out})
}

func (s *Server) handleGardenFlow(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := errors.ValidateGardenName(name); err != nil {
		s.writeError(w, r, err)
		return
	}
	root, ok := s.snapshot().Lookup(name)
	if !ok {
		s.writeError(w, r, errors.New(errors.ErrCodeGardenNotFound, "garden %q is not in the registry", name))
		return
	}

	q := r.URL.Query()
	format := q.Get("format")
	if format != "" && format != "json" && format != "svg" {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be json or svg)", format))
		return
	}
	opts, err := s.queryOptions(q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	key := "garden:" + name + ":" + optionsKey(opts)
	res, err := s.visualize(r.Context(), key, root, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if format == "svg" {
		svg, err := nodelink.RenderSVG(r.Context(), res.Graph, nodelink.Options{Pinned: !res.Fallback})
		if err != nil {
			s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "render preview"))
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(svg)
		return
	}
	s.writeJSON(w, r, http.StatusOK, s.flowResponse(r.Context(), root, res))
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	format, err := requestFormat(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		s.writeError(w, r, bodyError(err))
		return
	}

	resp := ValidateResponse{Issues: []garden.Issue{}}
	raw, err := garden.ToJSON(data, format)
	if err == nil {
		var g *garden.Garden
		if g, err = garden.Parse(raw); err == nil {
			resp.Valid = true
			resp.Garden = g.Name
			if issues := garden.Lint(g); issues != nil {
				resp.Issues = issues
			}
		}
	}
	if err != nil {
		code := errors.GetCode(err)
		if code == "" {
			code = errors.ErrCodeInvalidSchema
		}
		resp.Error = &errorDetail{Code: code, Message: errors.UserMessage(err)}
	}
	s.writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	schema, err := garden.JSONSchema()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/schema+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(schema)
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req NavigateRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Node == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "missing node"))
		return
	}
	opts, err := s.options(req.Options)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	nav, err := s.resolver(clientKey(r)).Navigate(r.Context(), req.Node, time.Now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	key := "garden:" + nav.Garden.Name + ":" + optionsKey(opts)
	res, err := s.visualize(r.Context(), key, nav.Garden, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, NavigateResponse{
		Garden: nav.Garden.Name,
		From:   nav.From,
		Via:    nav.Via,
		Flow:   s.flowResponse(r.Context(), nav.Garden, res),
	})
}

// =============================================================================
// Helpers
// =============================================================================

// visualize runs the pipeline, sharing one run among concurrent requests
// with the same key. The shared run is detached from any single request's
// cancellation.
func (s *Server) visualize(ctx context.Context, key string, root *garden.Garden, opts pipeline.Options) (*pipeline.Result, error) {
	reg := s.snapshot()
	v, err, shared := s.flights.Do(key, func() (any, error) {
		return s.runner.Visualize(context.WithoutCancel(ctx), root, reg, opts)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Debug("shared pipeline run", "garden", root.Name, "request_id", RequestID(ctx))
	}
	return v.(*pipeline.Result), nil
}

func (s *Server) flowResponse(ctx context.Context, root *garden.Garden, res *pipeline.Result) FlowResponse {
	out := FlowResponse{
		RequestID:  RequestID(ctx),
		Garden:     root.Name,
		GardenHash: res.GardenHash,
		Graph:      res.Graph,
		Width:      res.Width,
		Height:     res.Height,
		Fallback:   res.Fallback,
		Stats: FlowStats{
			Nodes:    res.Stats.NodeCount,
			Edges:    res.Stats.EdgeCount,
			BuildMS:  res.Stats.BuildTime.Milliseconds(),
			LayoutMS: res.Stats.LayoutTime.Milliseconds(),
		},
		Cache: FlowCache{
			Flow:   res.CacheInfo.FlowHit,
			Layout: res.CacheInfo.LayoutHit,
		},
	}
	if res.LayoutErr != nil {
		out.LayoutError = res.LayoutErr.Error()
	}
	return out
}

// options overlays the JSON fields in raw on the server defaults.
func (s *Server) options(raw json.RawMessage) (pipeline.Options, error) {
	opts := s.defaults.Copy()
	if len(raw) == 0 || string(raw) == "null" {
		return opts, nil
	}
	if err := json.Unmarshal(raw, &opts); err != nil {
		return opts, errors.Wrap(errors.ErrCodeInvalidOption, err, "decode options")
	}
	return opts, nil
}

// queryOptions overlays URL query parameters on the server defaults.
func (s *Server) queryOptions(q map[string][]string) (pipeline.Options, error) {
	opts := s.defaults.Copy()
	get := func(k string) (string, bool) {
		v, ok := q[k]
		if !ok || len(v) == 0 {
			return "", false
		}
		return v[0], true
	}

	bools := map[string]*bool{
		"expand":       &opts.Expand,
		"static_edges": &opts.StaticEdges,
		"skip_layout":  &opts.SkipLayout,
		"refresh":      &opts.Refresh,
	}
	for k, dst := range bools {
		if v, ok := get(k); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return opts, errors.New(errors.ErrCodeInvalidOption, "%s: invalid boolean %q", k, v)
			}
			*dst = b
		}
	}

	floats := map[string]*float64{
		"width":         &opts.Width,
		"node_spacing":  &opts.NodeSpacing,
		"layer_spacing": &opts.LayerSpacing,
	}
	for k, dst := range floats {
		if v, ok := get(k); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return opts, errors.New(errors.ErrCodeInvalidOption, "%s: invalid number %q", k, v)
			}
			*dst = f
		}
	}

	if v, ok := get("max_depth"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidOption, "max_depth: invalid integer %q", v)
		}
		opts.MaxDepth = n
	}
	if v, ok := get("engine"); ok {
		opts.Engine = v
	}
	if v, ok := get("edge_type"); ok {
		opts.EdgeType = v
	}
	return opts, nil
}

// optionsKey is the serialized form of the request-controlled options.
func optionsKey(opts pipeline.Options) string {
	data, _ := json.Marshal(opts)
	return cache.Hash(data)
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err := dec.Decode(v); err != nil {
		return bodyError(err)
	}
	return nil
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return errors.New(errors.ErrCodeInvalidInput, "request body exceeds %d bytes", tooLarge.Limit)
	}
	return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body")
}

// requestFormat picks the schema format from ?format= or the Content-Type.
func requestFormat(r *http.Request) (garden.Format, error) {
	if f := r.URL.Query().Get("format"); f != "" {
		return garden.ParseFormat(f)
	}
	ct := r.Header.Get("Content-Type")
	switch {
	case strings.Contains(ct, "yaml"):
		return garden.FormatYAML, nil
	case strings.Contains(ct, "toml"):
		return garden.FormatTOML, nil
	default:
		return garden.FormatJSON, nil
	}
}

// clientKey is the remote host a navigation cooldown applies to. Headers are
// ignored since clients control them.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
