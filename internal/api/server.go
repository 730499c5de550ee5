// Package api exposes the explanation engines over HTTP. Callers post a
// dataset plus parameters and receive the complete engine result; finished
// results are also persisted as reports for later listing.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"creditscope/internal/dataset"
	"creditscope/internal/explain"
	"creditscope/internal/storage"
)

// MetricsInterface defines the instrumentation hooks the API emits.
type MetricsInterface interface {
	RequestsInc()
	ErrorsInc()
	ReportsStoredInc()
}

// ReportStore is the slice of storage.Store the server needs.
type ReportStore interface {
	SaveReport(kind storage.Kind, modelTag, feature string, payload any) (*storage.Report, error)
	ListReports(kind storage.Kind, start, end time.Time) ([]storage.Report, error)
}

// Server serves explanation requests against a configured scorer.
type Server struct {
	engine   *explain.Engine
	scorer   explain.Scorer
	store    ReportStore
	metrics  MetricsInterface
	modelTag string
	server   *http.Server
}

// Config wires a Server. Store and Metrics may be nil; persistence and
// instrumentation are then skipped.
type Config struct {
	Engine   *explain.Engine
	Scorer   explain.Scorer
	Store    ReportStore
	Metrics  MetricsInterface
	ModelTag string
	Port     int
}

// NewServer builds the HTTP server; Start must be called to serve.
func NewServer(c Config) *Server {
	s := &Server{
		engine:   c.Engine,
		scorer:   c.Scorer,
		store:    c.Store,
		metrics:  c.Metrics,
		modelTag: c.ModelTag,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/explain/importance", s.handleImportance)
	mux.HandleFunc("/explain/pdp", s.handlePDP)
	mux.HandleFunc("/explain/ice", s.handleICE)
	mux.HandleFunc("/reports", s.handleReports)
	mux.HandleFunc("/healthz", s.handleHealth)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", c.Port),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("starting explanation server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the routing table, used by tests.
func (s *Server) Handler() http.Handler { return s.server.Handler }

// datasetPayload is the wire form of a dataset.
type datasetPayload struct {
	Features []featurePayload `json:"features"`
	Rows     [][]float64      `json:"rows"`
	Labels   []float64        `json:"labels,omitempty"`
}

type featurePayload struct {
	Name   string   `json:"name"`
	Kind   string   `json:"kind"`
	Levels []string `json:"levels,omitempty"`
}

func (p *datasetPayload) build() (*dataset.Dataset, []float64, error) {
	specs := make([]dataset.FeatureSpec, len(p.Features))
	for i, f := range p.Features {
		kind, err := dataset.ParseKind(f.Kind)
		if err != nil {
			return nil, nil, err
		}
		specs[i] = dataset.FeatureSpec{Name: f.Name, Kind: kind, Levels: f.Levels}
	}
	ds, err := dataset.New(specs, p.Rows)
	if err != nil {
		return nil, nil, err
	}
	return ds, p.Labels, nil
}

type importanceRequest struct {
	Dataset datasetPayload `json:"dataset"`
	Metric  string         `json:"metric"`
	Repeats int            `json:"repeats"`
	Seed    int64          `json:"seed"`
}

func (s *Server) handleImportance(w http.ResponseWriter, r *http.Request) {
	if !s.acceptPost(w, r) {
		return
	}
	var req importanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	ds, labels, err := req.Dataset.build()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	metric, err := lookupMetric(req.Metric)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := s.engine.PermutationImportance(r.Context(), s.scorer, metric, ds, labels, explain.ImportanceOptions{
		Repeats: req.Repeats,
		Seed:    req.Seed,
	})
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	s.persist(storage.KindImportance, "", result)
	s.writeJSON(w, result)
}

type pdpRequest struct {
	Dataset        datasetPayload `json:"dataset"`
	Feature        string         `json:"feature"`
	Feature2       string         `json:"feature2,omitempty"`
	GridResolution int            `json:"grid_resolution"`
}

func (s *Server) handlePDP(w http.ResponseWriter, r *http.Request) {
	if !s.acceptPost(w, r) {
		return
	}
	var req pdpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	ds, _, err := req.Dataset.build()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	var result any
	if req.Feature2 != "" {
		result, err = s.engine.PartialDependencePair(r.Context(), s.scorer, ds, req.Feature, req.Feature2, req.GridResolution)
	} else {
		result, err = s.engine.PartialDependence(r.Context(), s.scorer, ds, req.Feature, req.GridResolution)
	}
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	s.persist(storage.KindPDP, req.Feature, result)
	s.writeJSON(w, result)
}

func (s *Server) handleICE(w http.ResponseWriter, r *http.Request) {
	if !s.acceptPost(w, r) {
		return
	}
	var req pdpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	ds, _, err := req.Dataset.build()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := s.engine.ICE(r.Context(), s.scorer, ds, req.Feature, req.GridResolution)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	s.persist(storage.KindICE, req.Feature, result)
	s.writeJSON(w, result)
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.metrics != nil {
		s.metrics.RequestsInc()
	}
	if s.store == nil {
		s.writeError(w, http.StatusNotFound, errors.New("report storage not configured"))
		return
	}

	kind := storage.Kind(r.URL.Query().Get("kind"))
	switch kind {
	case storage.KindImportance, storage.KindPDP, storage.KindICE:
	default:
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("unknown report kind %q", kind))
		return
	}

	start, end := time.Time{}, time.Now().UTC()
	if v := r.URL.Query().Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid since: %w", err))
			return
		}
		start = t
	}
	if v := r.URL.Query().Get("until"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid until: %w", err))
			return
		}
		end = t
	}

	reports, err := s.store.ListReports(kind, start, end)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, map[string]any{"reports": reports})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok", "model_tag": s.modelTag})
}

func (s *Server) acceptPost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	if s.metrics != nil {
		s.metrics.RequestsInc()
	}
	return true
}

func (s *Server) persist(kind storage.Kind, feature string, payload any) {
	if s.store == nil {
		return
	}
	report, err := s.store.SaveReport(kind, s.modelTag, feature, payload)
	if err != nil {
		log.Error().Err(err).Str("kind", string(kind)).Msg("failed to persist report")
		if s.metrics != nil {
			s.metrics.ErrorsInc()
		}
		return
	}
	if s.metrics != nil {
		s.metrics.ReportsStoredInc()
	}
	log.Debug().Str("id", report.ID).Str("kind", string(kind)).Msg("report stored")
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if s.metrics != nil {
		s.metrics.ErrorsInc()
	}
	log.Warn().Err(err).Int("status", status).Msg("request failed")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// writeEngineError maps engine failures onto HTTP statuses: precondition
// violations are the caller's fault, scorer failures point upstream.
func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	var scorerErr *explain.ScorerError
	switch {
	case errors.Is(err, explain.ErrInvalidInput), errors.Is(err, explain.ErrInvalidFeature):
		s.writeError(w, http.StatusBadRequest, err)
	case errors.As(err, &scorerErr):
		s.writeError(w, http.StatusBadGateway, err)
	default:
		s.writeError(w, http.StatusInternalServerError, err)
	}
}

func lookupMetric(name string) (explain.Metric, error) {
	switch name {
	case "accuracy", "":
		return explain.Accuracy(0.5), nil
	case "mae":
		return explain.MeanAbsoluteError(), nil
	case "roc_auc":
		return explain.ROCAUC(), nil
	default:
		return explain.Metric{}, fmt.Errorf("unknown metric %q", name)
	}
}
