package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/emergentlab/trgi/internal/sim"
)

// SystemHandlers reports process and host health alongside the simulation
// status, for the dashboards that watch long sweeps.
type SystemHandlers struct {
	runner  *sim.Runner
	started time.Time
	log     zerolog.Logger
}

// NewSystemHandlers creates the system handler set.
func NewSystemHandlers(runner *sim.Runner, log zerolog.Logger) *SystemHandlers {
	return &SystemHandlers{
		runner:  runner,
		started: time.Now(),
		log:     log.With().Str("handler", "system").Logger(),
	}
}

// RegisterRoutes registers all system routes.
func (h *SystemHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/system", func(r chi.Router) {
		r.Get("/health", h.HandleHealth)
	})
}

// HandleHealth handles GET /api/system/health
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	data := map[string]interface{}{
		"status":     "ok",
		"uptime_sec": time.Since(h.started).Seconds(),
		"step":       h.runner.StepCount(),
		"run_id":     h.runner.RunID(),
		"goroutines": runtime.NumGoroutine(),
	}

	if cpuPercent, err := cpu.Percent(100*time.Millisecond, false); err == nil && len(cpuPercent) > 0 {
		data["cpu_percent"] = cpuPercent[0]
	} else if err != nil {
		h.log.Debug().Err(err).Msg("CPU sampling unavailable")
	}

	if memStat, err := mem.VirtualMemory(); err == nil {
		data["mem_used_percent"] = memStat.UsedPercent
	} else {
		h.log.Debug().Err(err).Msg("Memory sampling unavailable")
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": data}); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
