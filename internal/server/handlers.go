package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/emergentlab/trgi/internal/history"
	"github.com/emergentlab/trgi/internal/lattice"
	"github.com/emergentlab/trgi/internal/sim"
)

// SimHandlers handles simulation control and field read requests.
type SimHandlers struct {
	runner *sim.Runner
	repo   *history.Repository
	log    zerolog.Logger
}

// NewSimHandlers creates the simulation handler set.
func NewSimHandlers(runner *sim.Runner, repo *history.Repository, log zerolog.Logger) *SimHandlers {
	return &SimHandlers{
		runner: runner,
		repo:   repo,
		log:    log.With().Str("handler", "sim").Logger(),
	}
}

// RegisterRoutes registers all simulation routes.
func (h *SimHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/sim", func(r chi.Router) {
		r.Post("/step", h.HandleStep)
		r.Post("/reset", h.HandleReset)
		r.Post("/perturb", h.HandlePerturb)
		r.Post("/measure", h.HandleMeasure)
		r.Post("/checkpoint", h.HandleCheckpoint)
	})
	r.Route("/fields", func(r chi.Router) {
		r.Get("/state", h.HandleStateField)
		r.Get("/curvature", h.HandleCurvatureField)
		r.Get("/metric", h.HandleMetricField)
		r.Get("/energy", h.HandleEnergyField)
	})
	r.Get("/observables", h.HandleObservables)
	r.Get("/history", h.HandleHistory)
	r.Get("/history/{runID}", h.HandleStoredHistory)
}

// StepRequest asks for a number of steps to run (default 1).
type StepRequest struct {
	Steps int `json:"steps"`
}

// PerturbRequest flips one qubit along an axis.
type PerturbRequest struct {
	Row  int    `json:"row"`
	Col  int    `json:"col"`
	Axis string `json:"axis"` // "x" or "z"
}

// MeasureRequest collapses one qubit.
type MeasureRequest struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// HandleStep handles POST /api/sim/step
func (h *SimHandlers) HandleStep(w http.ResponseWriter, r *http.Request) {
	var req StepRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.log.Error().Err(err).Msg("Failed to decode request body")
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}
	if req.Steps <= 0 {
		req.Steps = 1
	}

	var last sim.Metrics
	for i := 0; i < req.Steps; i++ {
		m, err := h.runner.Step()
		if err != nil {
			h.log.Error().Err(err).Msg("Step failed")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		last = m
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": last,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleReset handles POST /api/sim/reset
func (h *SimHandlers) HandleReset(w http.ResponseWriter, r *http.Request) {
	if err := h.runner.Reset(); err != nil {
		h.log.Error().Err(err).Msg("Reset failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"run_id": h.runner.RunID(),
			"step":   0,
		},
	})
}

// HandlePerturb handles POST /api/sim/perturb
func (h *SimHandlers) HandlePerturb(w http.ResponseWriter, r *http.Request) {
	var req PerturbRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	err := h.runner.Perturb(lattice.Position{Row: req.Row, Col: req.Col}, req.Axis)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, lattice.ErrOutOfBounds) || errors.Is(err, lattice.ErrTypeMismatch) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"row":  req.Row,
			"col":  req.Col,
			"axis": req.Axis,
		},
	})
}

// HandleMeasure handles POST /api/sim/measure
func (h *SimHandlers) HandleMeasure(w http.ResponseWriter, r *http.Request) {
	var req MeasureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	bit, err := h.runner.Measure(lattice.Position{Row: req.Row, Col: req.Col})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, lattice.ErrOutOfBounds) || errors.Is(err, lattice.ErrTypeMismatch) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"row":    req.Row,
			"col":    req.Col,
			"result": bit,
		},
	})
}

// HandleCheckpoint handles POST /api/sim/checkpoint
func (h *SimHandlers) HandleCheckpoint(w http.ResponseWriter, r *http.Request) {
	if err := h.runner.Checkpoint(); err != nil {
		h.log.Error().Err(err).Msg("Checkpoint failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"run_id": h.runner.RunID(),
			"step":   h.runner.StepCount(),
		},
	})
}

// HandleStateField handles GET /api/fields/state
func (h *SimHandlers) HandleStateField(w http.ResponseWriter, r *http.Request) {
	field, err := h.runner.StateField()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeField(w, field)
}

// HandleCurvatureField handles GET /api/fields/curvature
func (h *SimHandlers) HandleCurvatureField(w http.ResponseWriter, r *http.Request) {
	field, err := h.runner.CurvatureField()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeField(w, field)
}

// HandleMetricField handles GET /api/fields/metric
func (h *SimHandlers) HandleMetricField(w http.ResponseWriter, r *http.Request) {
	field, err := h.runner.MetricField()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeField(w, field)
}

// HandleEnergyField handles GET /api/fields/energy
func (h *SimHandlers) HandleEnergyField(w http.ResponseWriter, r *http.Request) {
	field, err := h.runner.EnergyField()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.writeField(w, field)
}

// HandleObservables handles GET /api/observables?max_dist=5
func (h *SimHandlers) HandleObservables(w http.ResponseWriter, r *http.Request) {
	data := map[string]interface{}{
		"metrics": h.runner.Latest(),
	}

	if h.runner.Mode() == lattice.ModeQubit {
		maxDist := 5
		if v := r.URL.Query().Get("max_dist"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				maxDist = n
			}
		}
		corr, err := h.runner.SpatialCorrelation(maxDist)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		data["spatial_correlation"] = corr
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"data": data})
}

// HandleHistory handles GET /api/history (current run)
func (h *SimHandlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"run_id": h.runner.RunID(),
			"points": h.runner.History(),
		},
	})
}

// HandleStoredHistory handles GET /api/history/{runID}
func (h *SimHandlers) HandleStoredHistory(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		http.Error(w, "No results database configured", http.StatusNotFound)
		return
	}
	runID := chi.URLParam(r, "runID")
	points, err := h.repo.LoadPoints(runID)
	if err != nil {
		h.log.Error().Err(err).Str("run_id", runID).Msg("Failed to load stored history")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"run_id": runID,
			"points": points,
		},
	})
}

func (h *SimHandlers) writeField(w http.ResponseWriter, field [][]float64) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"rows":  len(field),
			"cols":  len(field[0]),
			"field": field,
		},
		"metadata": map[string]interface{}{
			"step":      h.runner.StepCount(),
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// writeJSON writes a JSON response
func (h *SimHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
