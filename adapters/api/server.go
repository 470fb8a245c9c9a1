// Package api exposes the simulation engine over HTTP as a JSON API.
package api

import (
	"encoding/json"
	"math"
	"net/http"
	"time"

	"evpi/app"
	"evpi/domain/core"
	"evpi/domain/dataset"
	"evpi/internal"
	apperrors "evpi/internal/errors"
	"evpi/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server handles run requests over HTTP
type Server struct {
	service     *app.EVPIService
	repo        ports.DatasetRepository // nil when no database is configured
	readDataset func(path string) ports.DatasetReaderPort
	logger      *internal.Logger
}

// NewServer creates the API server. repo may be nil.
func NewServer(service *app.EVPIService, repo ports.DatasetRepository, readDataset func(path string) ports.DatasetReaderPort) *Server {
	return &Server{
		service:     service,
		repo:        repo,
		readDataset: readDataset,
		logger:      internal.Component("API"),
	}
}

// Router builds the chi route tree
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Minute))

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/runs", s.handleRun)
		r.Get("/tables", s.handleTables)
	})
	return r
}

// runRequest is the JSON request body for POST /api/v1/runs. Exactly one of
// DataFile or Table selects the dataset source.
type runRequest struct {
	DataFile      string  `json:"data_file,omitempty"`
	Table         string  `json:"table,omitempty"`
	OutcomeColumn string  `json:"outcome_column"`
	Iterations    int     `json:"iterations"`
	Thresholds    int     `json:"thresholds,omitempty"`
	GridMax       float64 `json:"grid_max,omitempty"`
	Strategy      string  `json:"strategy,omitempty"`
	Seed          int64   `json:"seed,omitempty"`
	RatioCeiling  float64 `json:"ratio_ceiling,omitempty"`
}

// runResponse wraps the service result with a display-capped relative series.
// Capped entries are pointers so zero-degenerate points encode as null.
type runResponse struct {
	*app.RunResult
	RelativeCapped []*float64 `json:"relative_evpi_capped,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		s.writeError(w, apperrors.InvalidInput("no database configured for table sources"))
		return
	}
	tables, err := s.repo.ListTables(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"tables": tables})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, apperrors.InvalidInput("request body is not valid JSON"))
		return
	}
	if req.OutcomeColumn == "" {
		s.writeError(w, apperrors.InvalidInput("outcome_column is required"))
		return
	}

	ds, err := s.loadDataset(r, req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.service.Run(r.Context(), app.RunRequest{
		Dataset:    ds,
		Iterations: req.Iterations,
		Thresholds: req.Thresholds,
		GridMax:    req.GridMax,
		Strategy:   req.Strategy,
		Seed:       req.Seed,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := runResponse{RunResult: result}
	if req.RatioCeiling > 0 {
		resp.RelativeCapped = nullableSeries(result.Relative.Capped(req.RatioCeiling))
	}
	writeJSON(w, http.StatusOK, resp)
}

// nullableSeries converts NaN entries to nil so the series encodes cleanly
func nullableSeries(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i, v := range values {
		if !math.IsNaN(v) {
			v := v
			out[i] = &v
		}
	}
	return out
}

func (s *Server) loadDataset(r *http.Request, req runRequest) (*dataset.Dataset, error) {
	outcomeKey := core.ColumnKey(req.OutcomeColumn)

	switch {
	case req.DataFile != "" && req.Table != "":
		return nil, apperrors.InvalidInput("specify either data_file or table, not both")
	case req.DataFile != "":
		return s.readDataset(req.DataFile).ReadDataset(r.Context(), outcomeKey)
	case req.Table != "":
		if s.repo == nil {
			return nil, apperrors.InvalidInput("no database configured for table sources")
		}
		return s.repo.LoadTable(r.Context(), req.Table, outcomeKey)
	default:
		return nil, apperrors.InvalidInput("data_file or table is required")
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := apperrors.GetCode(err)
	status := http.StatusInternalServerError
	switch code {
	case apperrors.CodeInvalidInput, apperrors.CodeDatasetError:
		status = http.StatusBadRequest
	case apperrors.CodeNotFound:
		status = http.StatusNotFound
	}

	s.logger.Warn("request failed (%s): %v", code, err)
	writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"code":  code,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
