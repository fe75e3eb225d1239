// Package history accumulates and persists per-run time series of the
// global simulation metrics, and serializes lattice snapshots.
package history

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// Point is one sampled step of the global metrics.
type Point struct {
	Step         int     `json:"step"`
	Entropy      float64 `json:"entropy"`
	AvgCurvature float64 `json:"avg_curvature"`
	AvgEnergy    float64 `json:"avg_energy"`
}

// Recorder accumulates index-aligned series for one run. The four series
// (step, entropy, avg_curvature, avg_energy) always have equal length; a
// point is appended atomically.
type Recorder struct {
	runID  string
	points []Point
}

// NewRecorder creates an empty recorder with a fresh run UUID.
func NewRecorder() *Recorder {
	return &Recorder{runID: uuid.New().String()}
}

// RunID returns the run identifier.
func (r *Recorder) RunID() string { return r.runID }

// Append records one sampled step.
func (r *Recorder) Append(step int, entropy, avgCurvature, avgEnergy float64) {
	r.points = append(r.points, Point{
		Step:         step,
		Entropy:      entropy,
		AvgCurvature: avgCurvature,
		AvgEnergy:    avgEnergy,
	})
}

// Len returns the number of recorded points.
func (r *Recorder) Len() int { return len(r.points) }

// Points returns a copy of the recorded series.
func (r *Recorder) Points() []Point {
	out := make([]Point, len(r.points))
	copy(out, r.points)
	return out
}

// Reset drops all recorded points and assigns a fresh run UUID.
func (r *Recorder) Reset() {
	r.runID = uuid.New().String()
	r.points = r.points[:0]
}

// exportPayload is the on-disk JSON layout: parallel index-aligned arrays,
// the format external plotting collaborators consume.
type exportPayload struct {
	RunID        string    `json:"run_id"`
	Step         []int     `json:"step"`
	Entropy      []float64 `json:"entropy"`
	AvgCurvature []float64 `json:"avg_curvature"`
	AvgEnergy    []float64 `json:"avg_energy"`
}

// ExportJSON writes the recorded series as parallel arrays.
func (r *Recorder) ExportJSON(w io.Writer) error {
	p := exportPayload{
		RunID:        r.runID,
		Step:         make([]int, len(r.points)),
		Entropy:      make([]float64, len(r.points)),
		AvgCurvature: make([]float64, len(r.points)),
		AvgEnergy:    make([]float64, len(r.points)),
	}
	for i, pt := range r.points {
		p.Step[i] = pt.Step
		p.Entropy[i] = pt.Entropy
		p.AvgCurvature[i] = pt.AvgCurvature
		p.AvgEnergy[i] = pt.AvgEnergy
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("failed to encode history export: %w", err)
	}
	return nil
}
